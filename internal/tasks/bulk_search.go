package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/seatx/internal/formatter"
	"github.com/desertthunder/seatx/internal/models"
	"golang.org/x/time/rate"
)

// BulkSearchOpts contains configuration for batch lookups.
type BulkSearchOpts struct {
	NumWorkers int     // Concurrent sessions (default: 3, max: 10)
	RateLimit  float64 // Submissions per second (default: 2)
	ReportPath string  // Optional CSV report written after the run
}

// BatchOutcome is the result of one request in a batch.
type BatchOutcome struct {
	Index    int
	Request  models.SearchRequest
	Session  models.Session
	RecordID string
	Success  bool
	Err      error
}

// BatchResult summarizes a batch lookup.
type BatchResult struct {
	Total      int
	Succeeded  int
	Failed     int
	Outcomes   []BatchOutcome // Ordered as the input requests
	ReportPath string
}

type lookupJob struct {
	index int
	req   models.SearchRequest
	resp  *models.SearchResponse
}

// BulkSearch looks up many students concurrently with rate-limited submission and progress tracking.
//
// Each request gets its own [SessionPoller], so sessions never supersede one another.
// Backend sessions are never cleared since that would cancel the other lookups in flight.
func (f *Finder) BulkSearch(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	reqs []models.SearchRequest,
	opts BulkSearchOpts,
) (*BatchResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 3
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	total := len(reqs)
	result := &BatchResult{
		Total:    total,
		Outcomes: make([]BatchOutcome, 0, total),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan lookupJob, total)
	results := make(chan BatchOutcome, total)

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go f.lookupWorker(ctx, &wg, prog, total, jobs, results)
	}

	go func() {
		defer close(jobs)
		f.sendProgress(prog, batchStartUpdate(total))

		for i, raw := range reqs {
			if ctx.Err() != nil {
				return
			}

			req, err := models.ValidateSearch(raw.RollNumber, raw.Date)
			if err != nil {
				results <- BatchOutcome{Index: i, Request: raw, Session: erroredSession(err), Err: err}
				continue
			}

			if err := limiter.Wait(ctx); err != nil {
				return
			}

			f.sendProgress(prog, submittingUpdate(i+1, total, req))
			resp, err := f.client.Search(ctx, req)
			if err != nil {
				results <- BatchOutcome{Index: i, Request: req, Session: erroredSession(err), Err: err}
				continue
			}

			jobs <- lookupJob{index: i, req: req, resp: resp}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Outcomes = append(result.Outcomes, res)

		if res.Success {
			result.Succeeded++
			f.sendProgress(prog, lookupCompletedUpdate(completed, total, res))
		} else {
			result.Failed++
			f.sendProgress(prog, lookupFailedUpdate(completed, total, res))
		}
	}

	sort.Slice(result.Outcomes, func(i, j int) bool {
		return result.Outcomes[i].Index < result.Outcomes[j].Index
	})

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if opts.ReportPath != "" {
		if err := formatter.WriteBatchReport(batchRows(result.Outcomes), opts.ReportPath); err != nil {
			return result, fmt.Errorf("batch completed but failed to write report: %w", err)
		}
		result.ReportPath = opts.ReportPath
	}
	return result, nil
}

// lookupWorker polls each submitted search to a terminal state.
func (f *Finder) lookupWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	prog chan<- ProgressUpdate,
	total int,
	jobs <-chan lookupJob,
	results chan<- BatchOutcome,
) {
	defer wg.Done()

	for job := range jobs {
		search, err := f.track(ctx, f.newPoller(), job.req, job.resp)
		if err != nil {
			results <- BatchOutcome{Index: job.index, Request: job.req, Session: erroredSession(err), Err: err}
			continue
		}

		onUpdate := func(s models.Session) {
			f.sendProgress(prog, pollingUpdate(job.index+1, total, s))
		}

		session, err := f.Await(ctx, search, onUpdate)
		outcome := BatchOutcome{
			Index:    job.index,
			Request:  job.req,
			Session:  session,
			RecordID: search.RecordID,
			Err:      err,
		}
		if err == nil {
			outcome.Err = OutcomeError(session)
			outcome.Success = session.Status == models.StatusCompleted
		}
		results <- outcome
	}
}

func (f *Finder) newPoller() *SessionPoller {
	p := NewSessionPoller(f.client, f.opts)
	p.ticks = f.ticks
	return p
}

func erroredSession(err error) models.Session {
	return models.Session{Status: models.StatusErrored, Message: err.Error()}
}

func batchRows(outcomes []BatchOutcome) []formatter.BatchRow {
	rows := make([]formatter.BatchRow, 0, len(outcomes))
	for _, o := range outcomes {
		rows = append(rows, formatter.BatchRow{
			RollNumber: o.Request.RollNumber,
			Date:       o.Request.Date,
			SessionID:  o.Session.ID,
			Status:     o.Session.Status,
			Message:    o.Session.Message,
			Results:    o.Session.Results,
		})
	}
	return rows
}
