// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/seatx/internal/models"
)

// MockSeatFinder is a test double for services.SeatFinder.
//
// Each method delegates to the matching func field when set and otherwise returns a zero-value success.
type MockSeatFinder struct {
	SearchFn        func(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
	ProgressFn      func(ctx context.Context, id string) (*models.ProgressResponse, error)
	ClearFn         func(ctx context.Context) (*models.ActionResponse, error)
	ExtendFn        func(ctx context.Context, id string) (*models.ActionResponse, error)
	ExportOptionsFn func(ctx context.Context, id string) ([]models.ExportFormat, error)
	DownloadFn      func(ctx context.Context, url string, w io.Writer) (int64, error)
	HealthFn        func(ctx context.Context) (*models.HealthStatus, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockSeatFinder) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (m *MockSeatFinder) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockSeatFinder) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	m.record("Search")
	if m.SearchFn != nil {
		return m.SearchFn(ctx, req)
	}
	return &models.SearchResponse{Success: true, SessionID: "mock-session"}, nil
}

func (m *MockSeatFinder) Progress(ctx context.Context, id string) (*models.ProgressResponse, error) {
	m.record("Progress")
	if m.ProgressFn != nil {
		return m.ProgressFn(ctx, id)
	}
	return &models.ProgressResponse{Status: models.RemoteSearching}, nil
}

func (m *MockSeatFinder) ClearSessions(ctx context.Context) (*models.ActionResponse, error) {
	m.record("ClearSessions")
	if m.ClearFn != nil {
		return m.ClearFn(ctx)
	}
	return &models.ActionResponse{Success: true}, nil
}

func (m *MockSeatFinder) ExtendSession(ctx context.Context, id string) (*models.ActionResponse, error) {
	m.record("ExtendSession")
	if m.ExtendFn != nil {
		return m.ExtendFn(ctx, id)
	}
	return &models.ActionResponse{Success: true, SessionID: id}, nil
}

func (m *MockSeatFinder) ExportOptions(ctx context.Context, id string) ([]models.ExportFormat, error) {
	m.record("ExportOptions")
	if m.ExportOptionsFn != nil {
		return m.ExportOptionsFn(ctx, id)
	}
	return nil, nil
}

func (m *MockSeatFinder) DownloadExport(ctx context.Context, url string, w io.Writer) (int64, error) {
	m.record("DownloadExport")
	if m.DownloadFn != nil {
		return m.DownloadFn(ctx, url, w)
	}
	return 0, nil
}

func (m *MockSeatFinder) Health(ctx context.Context) (*models.HealthStatus, error) {
	m.record("Health")
	if m.HealthFn != nil {
		return m.HealthFn(ctx)
	}
	return &models.HealthStatus{Status: "healthy"}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// SampleResults returns two seat assignments for one student on one day.
func SampleResults() []models.SeatResult {
	return []models.SeatResult{
		{
			RoomNumber:         "TP-401",
			SeatNumber:         "17",
			Session:            "FN",
			SessionName:        "Forenoon",
			Date:               "12/05/2025",
			Department:         "CSE",
			RegistrationNumber: "RA2211003010123",
			VenueCode:          "tp",
			VenueName:          "Tech Park",
		},
		{
			RoomNumber:         "UB-210",
			SeatNumber:         "4",
			Session:            "AN",
			SessionName:        "Afternoon",
			Date:               "12/05/2025",
			Department:         "CSE",
			RegistrationNumber: "RA2211003010123",
			VenueCode:          "ub",
			VenueName:          "University Building",
		},
	}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
