package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
)

const (
	DefaultPollInterval = time.Second
	DefaultMaxErrors    = 5
	defaultEventBuffer  = 16
)

// User-facing messages attached to synthesized snapshots.
const (
	MsgSearching      = "Searching..."
	MsgConnectionLost = "Connection lost. Please refresh and try again."
	MsgNoResults      = "No exam seats found for the given details."
	MsgSearchFailed   = "Search failed. Please try again."
)

// ProgressFetcher retrieves the backend state of a search session.
// [services.SeatFinder] satisfies it.
type ProgressFetcher interface {
	Progress(ctx context.Context, sessionID string) (*models.ProgressResponse, error)
}

// PollerOpts configures a [SessionPoller]. Zero values select defaults.
type PollerOpts struct {
	Interval       time.Duration // Spacing between polls (default 1s)
	MaxErrors      int           // Consecutive transient failures before giving up (default 5)
	RequestTimeout time.Duration // Per-request deadline; zero leaves requests bounded only by the handle
	Buffer         int           // Events channel capacity (default 16)
	Logger         *log.Logger
}

// EventKind distinguishes progress updates from the final event of a session.
type EventKind int

const (
	EventUpdate EventKind = iota
	EventTerminal
)

func (k EventKind) String() string {
	switch k {
	case EventUpdate:
		return "update"
	case EventTerminal:
		return "terminal"
	default:
		return ""
	}
}

// Event carries a session snapshot out of a polling loop.
type Event struct {
	Kind       EventKind
	Seq        uint64 // Sequence number of the poll that produced the snapshot
	Generation uint64 // Generation of the handle that emitted the event
	Session    models.Session
}

// Completed reports a terminal event with results.
func (e Event) Completed() bool {
	return e.Kind == EventTerminal && e.Session.Status == models.StatusCompleted
}

// Errored reports a terminal event without results.
func (e Event) Errored() bool {
	return e.Kind == EventTerminal && e.Session.Status == models.StatusErrored
}

// tickSource yields a tick channel and a function that releases it.
type tickSource func(d time.Duration) (<-chan time.Time, func())

func realTicks(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// SessionPoller drives search sessions to a terminal state by polling the backend.
//
// A poller owns at most one active [Handle]: starting or settling a session stops the previous one first.
// Independent pollers can run side by side.
type SessionPoller struct {
	fetcher ProgressFetcher
	opts    PollerOpts
	logger  *log.Logger
	ticks   tickSource

	mu         sync.Mutex
	current    *Handle
	generation uint64
}

// NewSessionPoller creates a poller that reads session state through fetcher.
func NewSessionPoller(fetcher ProgressFetcher, opts PollerOpts) *SessionPoller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = DefaultMaxErrors
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultEventBuffer
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &SessionPoller{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		ticks:   realTicks,
	}
}

// Start begins polling sessionID and returns its handle.
//
// The previous handle, if any, is stopped and has emitted its last event before Start returns.
// The first poll is issued immediately and then once per interval until a terminal state,
// [Handle.Stop], [SessionPoller.Stop] or cancellation of ctx.
func (p *SessionPoller) Start(ctx context.Context, sessionID string) (*Handle, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session ID is required", shared.ErrInvalidInput)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	h := p.replace(sessionID, p.opts.Buffer)
	loopCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel

	ticks, release := p.ticks(p.opts.Interval)
	go p.run(loopCtx, h, ticks, release)

	return h, nil
}

// Settle returns an already-terminal handle for a search answered with results directly.
// No request is issued. Empty results settle as errored with [MsgNoResults].
func (p *SessionPoller) Settle(sessionID string, results []models.SeatResult) *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()

	h := p.replace(sessionID, 1)
	h.cancel = func() {}

	s := h.Session()
	switch {
	case len(results) > 0:
		s.Status = models.StatusCompleted
		s.Progress = 100
		s.Message = fmt.Sprintf("Found %d exam seat(s)", len(results))
		s.Results = append([]models.SeatResult(nil), results...)
	default:
		s.Status = models.StatusErrored
		s.Message = MsgNoResults
	}
	h.setSession(s)

	h.events <- Event{Kind: EventTerminal, Generation: h.generation, Session: s.Clone()}
	close(h.events)
	close(h.done)
	return h
}

// Stop stops the active handle. Safe to call at any time and more than once.
func (p *SessionPoller) Stop() {
	p.mu.Lock()
	h := p.current
	p.current = nil
	p.mu.Unlock()

	if h != nil {
		h.Stop()
	}
}

// Current returns the active handle or nil.
func (p *SessionPoller) Current() *Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// replace stops the current handle and installs a new one. Callers hold p.mu.
func (p *SessionPoller) replace(sessionID string, buffer int) *Handle {
	if p.current != nil {
		p.current.Stop()
	}
	p.generation++

	s := models.NewSession(sessionID)
	s.Status = models.StatusSearching
	s.Message = MsgSearching

	h := &Handle{
		id:         sessionID,
		generation: p.generation,
		events:     make(chan Event, buffer),
		done:       make(chan struct{}),
		control:    make(chan bool),
		session:    s,
	}
	p.current = h
	return h
}

type pollResult struct {
	seq  uint64
	resp *models.ProgressResponse
	err  error
}

// run is the polling loop. It is the only writer of the handle's session.
// Leaving the loop cancels ctx so requests still in flight give up their results.
func (p *SessionPoller) run(ctx context.Context, h *Handle, ticks <-chan time.Time, release func()) {
	defer close(h.done)
	defer h.cancel()
	defer close(h.events)
	defer release()

	logger := shared.WithLogger(p.logger, "session", h.id, "gen", h.generation)
	responses := make(chan pollResult)

	var seq, lastApplied uint64
	issue := func() {
		seq++
		n := seq
		go func() {
			reqCtx, cancel := ctx, context.CancelFunc(func() {})
			if p.opts.RequestTimeout > 0 {
				reqCtx, cancel = context.WithTimeout(ctx, p.opts.RequestTimeout)
			}
			defer cancel()

			resp, err := p.fetcher.Progress(reqCtx, h.id)
			select {
			case responses <- pollResult{seq: n, resp: resp, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	logger.Debug("polling started")
	issue()

	tickC := ticks
	for {
		select {
		case <-ctx.Done():
			logger.Debug("polling stopped", "reason", ctx.Err())
			return

		case pause := <-h.control:
			if pause {
				tickC = nil
				logger.Debug("polling paused")
			} else {
				tickC = ticks
				logger.Debug("polling resumed")
			}

		case <-tickC:
			issue()

		case r := <-responses:
			if ctx.Err() != nil {
				return
			}
			if r.seq <= lastApplied {
				logger.Debug("discarding stale response", "seq", r.seq, "applied", lastApplied)
				continue
			}
			lastApplied = r.seq

			next, outcome := reduce(h.Session(), r, p.opts.MaxErrors)
			h.setSession(next)

			switch outcome {
			case outcomeFailed:
				logger.Warn("poll failed", "err", r.err, "errors", next.ErrorCount)
			case outcomeIgnored:
				logger.Debug("session not registered yet")
			}

			if outcome == outcomeUpdate || (outcome == outcomeTerminal && r.err == nil) {
				h.offer(Event{Kind: EventUpdate, Seq: r.seq, Generation: h.generation, Session: next.Clone()})
			}
			if outcome == outcomeTerminal {
				logger.Info("session finished", "status", next.Status, "results", len(next.Results))
				select {
				case h.events <- Event{Kind: EventTerminal, Seq: r.seq, Generation: h.generation, Session: next.Clone()}:
				case <-ctx.Done():
				}
				return
			}
		}
	}
}

type outcome int

const (
	outcomeIgnored outcome = iota
	outcomeFailed
	outcomeUpdate
	outcomeTerminal
)

// reduce applies one poll result to a snapshot.
func reduce(s models.Session, r pollResult, maxErrors int) (models.Session, outcome) {
	err := r.err
	if err == nil && r.resp == nil {
		err = shared.ErrMalformedResponse
	}

	if err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			return s, outcomeIgnored
		}
		s.ErrorCount++
		if s.ErrorCount >= maxErrors {
			s.Status = models.StatusErrored
			s.Message = MsgConnectionLost
			return s, outcomeTerminal
		}
		return s, outcomeFailed
	}

	resp := r.resp
	s.ErrorCount = 0
	s.Progress = max(s.Progress, shared.Clamp(resp.Progress, 0, 100))
	s.Message = resp.Message
	if s.Message == "" {
		s.Message = MsgSearching
	}

	switch resp.Status {
	case models.RemoteCompleted:
		if len(resp.Results) == 0 {
			s.Status = models.StatusErrored
			s.Message = MsgNoResults
			s.Results = nil
			return s, outcomeTerminal
		}
		s.Status = models.StatusCompleted
		s.Progress = 100
		s.Results = append([]models.SeatResult(nil), resp.Results...)
		return s, outcomeTerminal

	case models.RemoteError, string(models.StatusErrored):
		s.Status = models.StatusErrored
		if resp.Message == "" {
			s.Message = MsgSearchFailed
		}
		return s, outcomeTerminal

	default:
		s.Status = models.StatusSearching
		return s, outcomeUpdate
	}
}

// Handle is one polling session started by a [SessionPoller].
type Handle struct {
	id         string
	generation uint64
	events     chan Event
	done       chan struct{}
	control    chan bool
	cancel     context.CancelFunc

	mu      sync.RWMutex
	session models.Session
}

func (h *Handle) ID() string         { return h.id }
func (h *Handle) Generation() uint64 { return h.generation }

// Events delivers updates and exactly one terminal event, then closes.
// Updates are dropped when the buffer is full.
func (h *Handle) Events() <-chan Event { return h.events }

// Done is closed once the loop has exited and no further events will be sent.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Stop cancels polling and waits for the loop to exit. Idempotent.
func (h *Handle) Stop() {
	h.cancel()
	<-h.done
}

// Session returns the latest snapshot.
func (h *Handle) Session() models.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session.Clone()
}

// Pause suspends ticking without cancelling the session. Responses already in flight are still applied.
func (h *Handle) Pause() { h.signal(true) }

// Resume restarts ticking after [Handle.Pause]. The consecutive failure count is preserved.
func (h *Handle) Resume() { h.signal(false) }

func (h *Handle) signal(pause bool) {
	select {
	case h.control <- pause:
	case <-h.done:
	}
}

func (h *Handle) setSession(s models.Session) {
	h.mu.Lock()
	h.session = s
	h.mu.Unlock()
}

// offer sends an event without blocking.
func (h *Handle) offer(e Event) {
	select {
	case h.events <- e:
	default:
	}
}
