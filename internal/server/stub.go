package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/seatx/internal/formatter"
	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
	nanoid "github.com/matoous/go-nanoid/v2"
)

var _ Handler = (*Stub)(nil)

const (
	// StubVersion is reported by the stub health endpoint.
	StubVersion = "stub-1.0.0"

	// DefaultProgressDuration is how long a stub search takes to complete.
	DefaultProgressDuration = 4 * time.Second

	sessionIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	sessionIDLength   = 12
	searchSteps       = 8
)

// Messages mirrored from the production backend.
const (
	msgSearchStarted    = "Search started - finding your exam details..."
	msgSessionNotFound  = "Session not found. Please start a new search."
	msgExportNotFound   = "Session not found. Please search again to generate fresh results."
	msgExtendNotFound   = "Session not found. Please search again."
	msgNoResults        = "No results available"
	msgNoSeats          = "No exam seats found"
	msgSearchFailed     = "Search failed. Please try again."
	msgMissingFields    = "Roll number and date are required"
	msgInvalidDate      = "Invalid date format"
	msgInvalidRoll      = "Invalid roll number format"
	msgSessionsCleared  = "All sessions cleared successfully"
	msgClearFailed      = "Error clearing sessions"
	msgSessionExtended  = "Session extended successfully"
	msgNotFound         = "Not found"
	msgExportFailed     = "Failed to generate PDF export"
	msgStubHealthBanner = "seatx stub backend"
)

// StubOpts configures a [Stub].
type StubOpts struct {
	ProgressDuration time.Duration // Time from first registration to completion
	RegisterDelay    time.Duration // Progress answers 404 until this much time has passed
	Immediate        bool          // Search responds with results and skips polling
	Logger           *log.Logger
	Now              func() time.Time
}

// Stub is a local implementation of the seat-lookup backend API.
type Stub struct {
	store  SessionStore
	roster *Roster
	opts   StubOpts
	logger *log.Logger
	router *BasicRouter
	routes []string
}

// NewStub creates a stub backend answering from roster and keeping sessions in store.
func NewStub(store SessionStore, roster *Roster, opts StubOpts) *Stub {
	if opts.ProgressDuration <= 0 {
		opts.ProgressDuration = DefaultProgressDuration
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if roster == nil {
		roster = DefaultRoster()
	}

	s := &Stub{store: store, roster: roster, opts: opts, logger: logger, router: NewBasicRouter()}

	s.router.Use(Recovery(logger), Logging(logger), NoCache)
	s.handle(http.MethodPost, "/api/search", s.search)
	s.handle(http.MethodGet, "/api/progress/{id}", s.progress)
	s.handle(http.MethodPost, "/api/clear-sessions", s.clearSessions)
	s.handle(http.MethodPost, "/api/sessions/extend/{id}", s.extend)
	s.handle(http.MethodGet, "/api/export/{id}/options", s.exportOptions)
	s.handle(http.MethodGet, "/api/export/{id}/pdf", s.exportPDF)
	s.handle(http.MethodGet, "/api/health", s.health)
	s.router.HandleFunc("", "/", func(w http.ResponseWriter, r *http.Request) {
		errorJSON(w, http.StatusNotFound, msgNotFound)
	})

	return s
}

func (s *Stub) handle(method, path string, fn http.HandlerFunc) {
	s.router.HandleFunc(method, path, fn)
	s.routes = append(s.routes, method+" "+path)
}

// Routes returns the endpoints the stub serves.
func (s *Stub) Routes() []string { return s.routes }

// Store returns the session store.
func (s *Stub) Store() SessionStore { return s.store }

func (s *Stub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves the stub on addr until ctx is cancelled.
func (s *Stub) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("starting stub backend", "addr", addr, "storage", s.store.Kind())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("error shutting down server", "error", err)
	}
	return nil
}

func (s *Stub) search(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.SearchResponse{Message: msgMissingFields})
		return
	}

	roll := strings.ToUpper(strings.TrimSpace(req.RollNumber))
	date := strings.TrimSpace(req.Date)
	if roll == "" || date == "" {
		writeJSON(w, http.StatusBadRequest, models.SearchResponse{Message: msgMissingFields})
		return
	}

	display, err := models.DisplayDate(date)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.SearchResponse{Message: msgInvalidDate})
		return
	}
	if len(roll) < models.MinRollNumberLength {
		writeJSON(w, http.StatusBadRequest, models.SearchResponse{Message: msgInvalidRoll})
		return
	}

	suffix, err := nanoid.Generate(sessionIDAlphabet, sessionIDLength)
	if err != nil {
		s.logger.Error("failed to generate session id", "err", err)
		writeJSON(w, http.StatusInternalServerError, models.SearchResponse{Message: msgSearchFailed})
		return
	}
	id := "sess_" + suffix

	rec := SessionRecord{
		RollNumber: roll,
		Date:       display,
		Status:     models.RemoteSearching,
		Message:    msgSearchStarted,
		CreatedAt:  s.opts.Now(),
	}
	if s.opts.Immediate {
		s.finish(&rec)
	}

	if err := s.store.Put(r.Context(), id, rec); err != nil {
		s.logger.Error("failed to store session", "session", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, models.SearchResponse{Message: msgSearchFailed})
		return
	}
	s.logger.Info("new search session", "session", id, "roll", roll, "date", display)

	if !s.opts.Immediate {
		writeJSON(w, http.StatusOK, models.SearchResponse{Success: true, SessionID: id, Message: msgSearchStarted})
		return
	}

	if rec.Status == models.RemoteError {
		writeJSON(w, http.StatusInternalServerError, models.SearchResponse{SessionID: id, Message: msgSearchFailed})
		return
	}
	writeJSON(w, http.StatusOK, models.SearchResponse{
		Success:   true,
		SessionID: id,
		Message:   "Search completed",
		Results:   rec.Results,
	})
}

func (s *Stub) progress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	notFound := models.ProgressResponse{Status: models.RemoteNotFound, Message: msgSessionNotFound}

	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.storeError(w, err, notFound)
		return
	}
	if s.opts.Now().Sub(rec.CreatedAt) < s.opts.RegisterDelay {
		writeJSON(w, http.StatusNotFound, notFound)
		return
	}

	rec, err = s.store.Update(r.Context(), id, s.advance)
	if err != nil {
		s.storeError(w, err, notFound)
		return
	}

	resp := models.ProgressResponse{Status: rec.Status, Progress: rec.Progress, Message: rec.Message}
	if rec.Terminal() {
		resp.Results = rec.Results
	}
	writeJSON(w, http.StatusOK, resp)
}

// advance moves a searching session forward by elapsed time. Progress never decreases.
func (s *Stub) advance(rec *SessionRecord) {
	if rec.Terminal() {
		return
	}

	elapsed := s.opts.Now().Sub(rec.CreatedAt) - s.opts.RegisterDelay
	if elapsed >= s.opts.ProgressDuration {
		s.finish(rec)
		return
	}
	if elapsed < 0 {
		elapsed = 0
	}

	done := int(int64(searchSteps) * int64(elapsed) / int64(s.opts.ProgressDuration))
	progress := 10 + done*80/searchSteps
	if progress > rec.Progress {
		rec.Progress = progress
		rec.Message = fmt.Sprintf("⚡ Searched %d/%d venue sessions", done, searchSteps)
	}
}

func (s *Stub) finish(rec *SessionRecord) {
	if s.roster.Fails(rec.RollNumber) {
		rec.Status = models.RemoteError
		rec.Message = msgSearchFailed
		rec.Progress = 0
		rec.Results = []models.SeatResult{}
		return
	}

	rec.Results = s.roster.Lookup(rec.RollNumber, rec.Date)
	rec.Status = models.RemoteCompleted
	rec.Progress = 100
	rec.Message = fmt.Sprintf("⚡ Found %d exam(s)", len(rec.Results))
}

func (s *Stub) clearSessions(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.logger.Error("session clear error", "err", err)
		writeJSON(w, http.StatusInternalServerError, models.ActionResponse{Message: msgClearFailed})
		return
	}
	writeJSON(w, http.StatusOK, models.ActionResponse{Success: true, Message: msgSessionsCleared})
}

func (s *Stub) extend(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.store.Extend(r.Context(), id); err != nil {
		s.logger.Warn("session extension failed", "session", id, "err", err)
		s.storeError(w, err, map[string]string{"error": msgExtendNotFound})
		return
	}
	writeJSON(w, http.StatusOK, models.ActionResponse{Success: true, Message: msgSessionExtended, SessionID: id})
}

// completedResults loads a session eligible for export, writing the error response when it is not.
func (s *Stub) completedResults(w http.ResponseWriter, r *http.Request) (string, []models.SeatResult, bool) {
	id := r.PathValue("id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.storeError(w, err, map[string]string{"error": msgExportNotFound})
		return id, nil, false
	}
	if rec.Status != models.RemoteCompleted {
		errorJSON(w, http.StatusBadRequest, msgNoResults)
		return id, nil, false
	}
	if len(rec.Results) == 0 {
		errorJSON(w, http.StatusBadRequest, msgNoSeats)
		return id, nil, false
	}
	return id, rec.Results, true
}

func (s *Stub) exportOptions(w http.ResponseWriter, r *http.Request) {
	id, results, ok := s.completedResults(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, models.ExportOptions{AvailableFormats: []models.ExportFormat{
		{
			Type:        "whatsapp",
			Name:        "💬 WhatsApp Message",
			Description: "Share exam details via WhatsApp",
			URL:         formatter.ShareURL(results),
			Icon:        "📱",
			External:    true,
		},
		{
			Type:        "pdf",
			Name:        "📄 PDF Document",
			Description: "Download as PDF file",
			URL:         "/api/export/" + id + "/pdf",
			Icon:        "📋",
		},
	}})
}

func (s *Stub) exportPDF(w http.ResponseWriter, r *http.Request) {
	_, results, ok := s.completedResults(w, r)
	if !ok {
		return
	}

	first := results[0]
	table := seatTable{
		Title: "SRM Exam Schedule",
		Details: []string{
			"Registration: " + first.RegistrationNumber,
			"Department: " + first.Department,
		},
		Columns: []string{"#", "Date", "Session", "Room", "Seat", "Venue"},
		Widths:  []float64{10, 28, 40, 24, 18, 60},
	}
	if len(results) == 1 {
		table.Title = "SRM Exam Details"
	}
	for i, res := range results {
		table.Rows = append(table.Rows, []string{
			strconv.Itoa(i + 1), res.Date, res.SessionLabel(), res.RoomNumber, res.SeatNumber, res.VenueName,
		})
	}

	doc, err := renderPDF(table)
	if err != nil {
		s.logger.Error("pdf export failed", "err", err)
		errorJSON(w, http.StatusInternalServerError, msgExportFailed)
		return
	}

	filename := formatter.ExportFilename(results, "pdf", s.opts.Now())
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (s *Stub) health(w http.ResponseWriter, r *http.Request) {
	status := models.HealthStatus{
		Timestamp: s.opts.Now().Format(time.RFC3339),
		Version:   StubVersion,
	}

	count, err := s.store.Count(r.Context())
	if err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
		writeJSON(w, http.StatusInternalServerError, status)
		return
	}

	status.Status = "healthy"
	status.Message = msgStubHealthBanner
	status.Sessions.Active = count
	status.Sessions.Storage = s.store.Kind()
	writeJSON(w, http.StatusOK, status)
}

// storeError writes notFound with 404 for missing sessions and a 500 otherwise.
func (s *Stub) storeError(w http.ResponseWriter, err error, notFound any) {
	if errors.Is(err, shared.ErrSessionNotFound) {
		writeJSON(w, http.StatusNotFound, notFound)
		return
	}
	s.logger.Error("session store error", "err", err)
	errorJSON(w, http.StatusInternalServerError, "Internal server error")
}
