package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/services"
	"github.com/desertthunder/seatx/internal/shared"
)

// HistoryRecorder persists search attempts.
//
// Recording is best effort: failures are logged and never interrupt a search.
type HistoryRecorder interface {
	// RecordSearch stores a submitted search and returns the record ID.
	RecordSearch(req models.SearchRequest, sessionID string) (string, error)
	// RecordOutcome stores the latest snapshot of a recorded search.
	RecordOutcome(recordID string, s models.Session) error
}

// FinderOpts configures a [Finder].
type FinderOpts struct {
	Poller  PollerOpts
	History HistoryRecorder
	Logger  *log.Logger
}

// BeginOpts controls a single search submission.
type BeginOpts struct {
	// ClearPrevious stops local polling and asks the backend to drop its sessions before submitting.
	ClearPrevious bool
}

// Search is a submitted search and the handle that reports its progress.
type Search struct {
	Request  models.SearchRequest
	Response *models.SearchResponse
	Handle   *Handle
	RecordID string
}

// Finder runs searches against a [services.SeatFinder].
type Finder struct {
	client  services.SeatFinder
	poller  *SessionPoller
	opts    PollerOpts
	history HistoryRecorder
	logger  *log.Logger
	ticks   tickSource
}

// NewFinder creates a Finder with its own [SessionPoller].
func NewFinder(client services.SeatFinder, opts FinderOpts) *Finder {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	opts.Poller.Logger = logger

	return &Finder{
		client:  client,
		poller:  NewSessionPoller(client, opts.Poller),
		opts:    opts.Poller,
		history: opts.History,
		logger:  logger,
		ticks:   realTicks,
	}
}

// Poller returns the poller used for interactive searches.
func (f *Finder) Poller() *SessionPoller { return f.poller }

// Client returns the backend client.
func (f *Finder) Client() services.SeatFinder { return f.client }

// sendProgress sends a progress update through the channel without blocking.
func (f *Finder) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Begin validates and submits a search, then starts polling it.
//
// A response that already carries results settles immediately and issues no poll.
func (f *Finder) Begin(ctx context.Context, rollNumber, date string, opts BeginOpts) (*Search, error) {
	req, err := models.ValidateSearch(rollNumber, date)
	if err != nil {
		return nil, err
	}

	if opts.ClearPrevious {
		f.poller.Stop()
		if _, err := f.client.ClearSessions(ctx); err != nil {
			f.logger.Warn("failed to clear previous sessions", "err", err)
		}
	}

	resp, err := f.client.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	return f.track(ctx, f.poller, req, resp)
}

// Watch attaches to an existing backend session without submitting a search.
func (f *Finder) Watch(ctx context.Context, sessionID string) (*Search, error) {
	h, err := f.poller.Start(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &Search{Handle: h}, nil
}

// track starts or settles polling for a submitted search on p and records it.
func (f *Finder) track(ctx context.Context, p *SessionPoller, req models.SearchRequest, resp *models.SearchResponse) (*Search, error) {
	if resp.SessionID == "" && !resp.Settled() {
		return nil, fmt.Errorf("%w: search response has no session ID", shared.ErrMalformedResponse)
	}

	s := &Search{Request: req, Response: resp}
	if f.history != nil {
		id, err := f.history.RecordSearch(req, resp.SessionID)
		if err != nil {
			f.logger.Warn("failed to record search", "err", err)
		}
		s.RecordID = id
	}

	if resp.Settled() {
		s.Handle = p.Settle(resp.SessionID, resp.Results)
		return s, nil
	}

	h, err := p.Start(ctx, resp.SessionID)
	if err != nil {
		return nil, err
	}
	s.Handle = h
	return s, nil
}

// Await drains a search's events until its terminal snapshot, calling onUpdate for each progress update.
//
// Cancelling ctx stops polling and returns the latest snapshot with the context error.
func (f *Finder) Await(ctx context.Context, s *Search, onUpdate func(models.Session)) (models.Session, error) {
	h := s.Handle
	for {
		select {
		case <-ctx.Done():
			h.Stop()
			return h.Session(), ctx.Err()

		case e, ok := <-h.Events():
			if !ok {
				return h.Session(), shared.ErrSearchStopped
			}
			if e.Kind == EventUpdate {
				if onUpdate != nil {
					onUpdate(e.Session)
				}
				continue
			}

			f.RecordOutcome(s, e.Session)
			return e.Session, nil
		}
	}
}

// RecordOutcome stores the terminal snapshot of s when history is enabled.
//
// [Finder.Await] calls it; callers that read [Handle.Events] directly call it themselves.
func (f *Finder) RecordOutcome(s *Search, session models.Session) {
	if f.history == nil || s.RecordID == "" {
		return
	}
	if err := f.history.RecordOutcome(s.RecordID, session); err != nil {
		f.logger.Warn("failed to record outcome", "record", s.RecordID, "err", err)
	}
}

// OutcomeError maps an errored terminal snapshot to a sentinel error. Completed snapshots return nil.
func OutcomeError(s models.Session) error {
	if s.Status != models.StatusErrored {
		return nil
	}
	switch s.Message {
	case MsgConnectionLost:
		return fmt.Errorf("%w: %s", shared.ErrConnectionLost, s.Message)
	case MsgNoResults:
		return fmt.Errorf("%w: %s", shared.ErrNoResults, s.Message)
	default:
		return fmt.Errorf("%w: %s", shared.ErrSearchFailed, s.Message)
	}
}

// IsUserError reports whether err came from input validation or a rejected search rather than a failure.
func IsUserError(err error) bool {
	return errors.Is(err, shared.ErrInvalidInput) || errors.Is(err, shared.ErrSearchRejected) || errors.Is(err, shared.ErrNoResults)
}
