package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
	tu "github.com/desertthunder/seatx/internal/testing"
)

const testRoll = "RA2211003010123"

type recordedOutcome struct {
	id      string
	session models.Session
}

type mockHistory struct {
	mu        sync.Mutex
	searches  []models.SearchRequest
	sessions  []string
	outcomes  []recordedOutcome
	recordErr error
}

func (m *mockHistory) RecordSearch(req models.SearchRequest, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recordErr != nil {
		return "", m.recordErr
	}
	m.searches = append(m.searches, req)
	m.sessions = append(m.sessions, sessionID)
	return "rec-" + sessionID, nil
}

func (m *mockHistory) RecordOutcome(id string, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, recordedOutcome{id: id, session: s})
	return nil
}

func settledFinder(results []models.SeatResult) *tu.MockSeatFinder {
	return &tu.MockSeatFinder{
		SearchFn: func(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
			return &models.SearchResponse{Success: true, SessionID: "s-" + req.RollNumber, Results: results}, nil
		},
	}
}

func pollingFinder() *tu.MockSeatFinder {
	var mu sync.Mutex
	calls := 0
	return &tu.MockSeatFinder{
		ProgressFn: func(ctx context.Context, id string) (*models.ProgressResponse, error) {
			mu.Lock()
			defer mu.Unlock()
			calls++
			if calls == 1 {
				return &models.ProgressResponse{Status: models.RemoteSearching, Progress: 50, Message: "Searching Tech Park"}, nil
			}
			return &models.ProgressResponse{Status: models.RemoteCompleted, Progress: 100, Results: tu.SampleResults()}, nil
		},
	}
}

func fastOpts(h HistoryRecorder) FinderOpts {
	return FinderOpts{Poller: PollerOpts{Interval: 10 * time.Millisecond}, History: h}
}

func TestFinder(t *testing.T) {
	ctx := context.Background()

	t.Run("Begin", func(t *testing.T) {
		t.Run("Invalid Input", func(t *testing.T) {
			tests := []struct {
				name string
				roll string
				date string
			}{
				{name: "empty roll", roll: "", date: "2025-05-12"},
				{name: "short roll", roll: "RA22", date: "2025-05-12"},
				{name: "missing date", roll: testRoll, date: ""},
				{name: "bad date", roll: testRoll, date: "12-05-2025"},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					client := &tu.MockSeatFinder{}
					f := NewFinder(client, fastOpts(nil))

					_, err := f.Begin(ctx, tt.roll, tt.date, BeginOpts{ClearPrevious: true})
					if !errors.Is(err, shared.ErrInvalidInput) {
						t.Errorf("expected ErrInvalidInput, got %v", err)
					}
					if client.Calls("Search") != 0 || client.Calls("ClearSessions") != 0 {
						t.Error("no request should be sent for invalid input")
					}
				})
			}
		})

		t.Run("Polls Until Completed", func(t *testing.T) {
			client := pollingFinder()
			f := NewFinder(client, fastOpts(nil))

			search, err := f.Begin(ctx, " ra2211003010123 ", "12/05/2025", BeginOpts{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if search.Request.RollNumber != testRoll || search.Request.Date != "2025-05-12" {
				t.Errorf("expected normalized request, got %+v", search.Request)
			}

			var updates []models.Session
			session, err := f.Await(ctx, search, func(s models.Session) { updates = append(updates, s) })
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if session.Status != models.StatusCompleted || len(session.Results) != 2 {
				t.Errorf("expected completed session with 2 results, got %+v", session)
			}
			if len(updates) == 0 || updates[0].Progress != 50 {
				t.Errorf("expected first update at 50%%, got %+v", updates)
			}
			if client.Calls("Progress") < 2 {
				t.Errorf("expected at least 2 polls, got %d", client.Calls("Progress"))
			}
		})

		t.Run("Settled Response Skips Polling", func(t *testing.T) {
			client := settledFinder(tu.SampleResults())
			f := NewFinder(client, fastOpts(nil))

			search, err := f.Begin(ctx, testRoll, "2025-05-12", BeginOpts{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			session, err := f.Await(ctx, search, nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if session.Status != models.StatusCompleted {
				t.Errorf("expected completed, got %s", session.Status)
			}
			if client.Calls("Progress") != 0 {
				t.Errorf("expected no polls, got %d", client.Calls("Progress"))
			}
		})

		t.Run("Settled Empty Response", func(t *testing.T) {
			f := NewFinder(settledFinder([]models.SeatResult{}), fastOpts(nil))

			search, err := f.Begin(ctx, testRoll, "2025-05-12", BeginOpts{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			session, _ := f.Await(ctx, search, nil)
			if session.Status != models.StatusErrored || session.Message != MsgNoResults {
				t.Errorf("expected no-results error, got %+v", session)
			}
			if !errors.Is(OutcomeError(session), shared.ErrNoResults) {
				t.Errorf("expected ErrNoResults, got %v", OutcomeError(session))
			}
		})

		t.Run("Clears Previous Sessions", func(t *testing.T) {
			client := settledFinder(tu.SampleResults())
			client.ClearFn = func(ctx context.Context) (*models.ActionResponse, error) {
				return nil, shared.ErrAPIRequest
			}
			f := NewFinder(client, fastOpts(nil))

			if _, err := f.Begin(ctx, testRoll, "2025-05-12", BeginOpts{ClearPrevious: true}); err != nil {
				t.Fatalf("clear failure should not stop the search, got %v", err)
			}
			if client.Calls("ClearSessions") != 1 {
				t.Errorf("expected 1 clear call, got %d", client.Calls("ClearSessions"))
			}
		})

		t.Run("Rejected Search", func(t *testing.T) {
			client := &tu.MockSeatFinder{
				SearchFn: func(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
					return &models.SearchResponse{Message: "Invalid roll number format"}, shared.ErrSearchRejected
				},
			}
			f := NewFinder(client, fastOpts(nil))

			_, err := f.Begin(ctx, testRoll, "2025-05-12", BeginOpts{})
			if !errors.Is(err, shared.ErrSearchRejected) {
				t.Errorf("expected ErrSearchRejected, got %v", err)
			}
			if !IsUserError(err) {
				t.Error("rejected search should be a user error")
			}
		})

		t.Run("Missing Session ID", func(t *testing.T) {
			client := &tu.MockSeatFinder{
				SearchFn: func(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
					return &models.SearchResponse{Success: true}, nil
				},
			}
			f := NewFinder(client, fastOpts(nil))

			if _, err := f.Begin(ctx, testRoll, "2025-05-12", BeginOpts{}); !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})

		t.Run("New Search Supersedes Active One", func(t *testing.T) {
			client := &tu.MockSeatFinder{}
			f := NewFinder(client, fastOpts(nil))

			first, err := f.Begin(ctx, testRoll, "2025-05-12", BeginOpts{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			second, err := f.Begin(ctx, testRoll, "2025-05-13", BeginOpts{ClearPrevious: true})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			select {
			case <-first.Handle.Done():
			case <-time.After(time.Second):
				t.Fatal("first handle should be stopped")
			}
			if _, err := f.Await(ctx, first, nil); !errors.Is(err, shared.ErrSearchStopped) {
				t.Errorf("expected ErrSearchStopped, got %v", err)
			}
			f.Poller().Stop()
			<-second.Handle.Done()
		})
	})

	t.Run("History", func(t *testing.T) {
		t.Run("Records Search And Outcome", func(t *testing.T) {
			history := &mockHistory{}
			f := NewFinder(pollingFinder(), fastOpts(history))

			search, err := f.Begin(ctx, testRoll, "2025-05-12", BeginOpts{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if search.RecordID != "rec-mock-session" {
				t.Errorf("expected record ID rec-mock-session, got %s", search.RecordID)
			}

			if _, err := f.Await(ctx, search, nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(history.outcomes) != 1 || history.outcomes[0].session.Status != models.StatusCompleted {
				t.Errorf("expected one completed outcome, got %+v", history.outcomes)
			}
		})

		t.Run("Recorder Failure Is Ignored", func(t *testing.T) {
			history := &mockHistory{recordErr: errors.New("disk full")}
			f := NewFinder(settledFinder(tu.SampleResults()), fastOpts(history))

			search, err := f.Begin(ctx, testRoll, "2025-05-12", BeginOpts{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if _, err := f.Await(ctx, search, nil); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(history.outcomes) != 0 {
				t.Error("outcome should not be recorded without a record ID")
			}
		})
	})

	t.Run("Await Cancelled", func(t *testing.T) {
		f := NewFinder(&tu.MockSeatFinder{}, fastOpts(nil))

		search, err := f.Watch(ctx, "s-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		cctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()

		session, err := f.Await(cctx, search, nil)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected deadline exceeded, got %v", err)
		}
		if session.Status != models.StatusSearching {
			t.Errorf("expected searching snapshot, got %s", session.Status)
		}
	})

	t.Run("Watch Requires ID", func(t *testing.T) {
		f := NewFinder(&tu.MockSeatFinder{}, fastOpts(nil))
		if _, err := f.Watch(ctx, ""); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestOutcomeError(t *testing.T) {
	tests := []struct {
		name    string
		session models.Session
		want    error
	}{
		{name: "completed", session: models.Session{Status: models.StatusCompleted}, want: nil},
		{name: "connection lost", session: models.Session{Status: models.StatusErrored, Message: MsgConnectionLost}, want: shared.ErrConnectionLost},
		{name: "no results", session: models.Session{Status: models.StatusErrored, Message: MsgNoResults}, want: shared.ErrNoResults},
		{name: "server message", session: models.Session{Status: models.StatusErrored, Message: "Portal down"}, want: shared.ErrSearchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := OutcomeError(tt.session)
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPhase(t *testing.T) {
	phases := map[Phase]string{
		ValidateInput: "validate_input",
		ClearSessions: "clear_sessions",
		SubmitSearch:  "submit_search",
		PollProgress:  "poll_progress",
		RecordHistory: "record_history",
		BatchLookup:   "batch_lookup",
		Phase(99):     "",
	}
	for p, want := range phases {
		if p.String() != want {
			t.Errorf("Phase(%d).String() = %q, want %q", p, p.String(), want)
		}
	}
}
