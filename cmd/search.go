package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/seatx/internal/formatter"
	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
	"github.com/desertthunder/seatx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Search submits a search and polls it to a terminal state, printing progress along the way.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	roll := firstNonEmpty(cmd.String("roll"), cmd.StringArg("roll"))
	date := firstNonEmpty(cmd.String("date"), cmd.StringArg("date"))
	asJSON := cmd.Bool("json")

	finder := r.newFinder(!cmd.Bool("no-history"))
	defer finder.Poller().Stop()

	r.logger.Info("submitting search", "roll", roll, "date", date)
	s, err := finder.Begin(ctx, roll, date, tasks.BeginOpts{ClearPrevious: !cmd.Bool("keep-sessions")})
	if err != nil {
		return err
	}

	if !asJSON {
		r.writePlain("🔍 Searching for %s on %s\n", s.Request.RollNumber, s.Request.Date)
	}
	final, err := finder.Await(ctx, s, r.progressPrinter(asJSON))
	if err != nil {
		return err
	}

	if err := r.reportSession(final, asJSON); err != nil {
		return err
	}

	if format := cmd.String("format"); format != "" && final.Status == models.StatusCompleted {
		path, err := formatter.WriteExport(final.Results, format, cmd.String("output"))
		if err != nil {
			return err
		}
		r.logger.Info("results saved", "path", path)
		if !asJSON {
			r.writePlain("✓ Saved to %s\n", path)
		}
	}
	return tasks.OutcomeError(final)
}

// Watch attaches to an existing session and polls it to a terminal state.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("session-id")
	if id == "" {
		return fmt.Errorf("%w: session ID is required", shared.ErrMissingArgument)
	}
	asJSON := cmd.Bool("json")

	finder := r.newFinder(false)
	defer finder.Poller().Stop()

	s, err := finder.Watch(ctx, id)
	if err != nil {
		return err
	}

	final, err := finder.Await(ctx, s, r.progressPrinter(asJSON))
	if err != nil {
		return err
	}
	if err := r.reportSession(final, asJSON); err != nil {
		return err
	}
	return tasks.OutcomeError(final)
}

// Progress fetches a session's progress once without polling.
func (r *Runner) Progress(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("session-id")
	if id == "" {
		return fmt.Errorf("%w: session ID is required", shared.ErrMissingArgument)
	}

	resp, err := r.seats.Progress(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(resp, true)
	}

	r.writePlain("Status: %s\n", resp.Status)
	r.writePlain("Progress: %d%%\n", shared.Clamp(resp.Progress, 0, 100))
	if resp.Message != "" {
		r.writePlain("Message: %s\n", resp.Message)
	}
	if len(resp.Results) > 0 {
		return r.printResults(resp.Results)
	}
	return nil
}

// progressPrinter prints each distinct progress step. JSON output stays quiet until the end.
func (r *Runner) progressPrinter(asJSON bool) func(models.Session) {
	if asJSON {
		return nil
	}

	last := -1
	return func(s models.Session) {
		if s.Progress == last {
			return
		}
		last = s.Progress
		r.writePlain("   %3d%% %s\n", s.Progress, s.Message)
	}
}

// reportSession prints a terminal session.
func (r *Runner) reportSession(s models.Session, asJSON bool) error {
	if asJSON {
		return r.writeJSON(s, true)
	}

	if s.Status != models.StatusCompleted {
		r.writePlain("\n✗ %s\n", s.Message)
		return nil
	}

	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("✓ Found %d exam seat(s)", len(s.Results)))
	if err := r.printResults(s.Results); err != nil {
		return err
	}
	if s.ID != "" {
		r.writePlain("\nSession: %s\n", s.ID)
	}
	return nil
}

func (r *Runner) printResults(results []models.SeatResult) error {
	text, err := formatter.ResultsToText(results)
	if err != nil {
		return err
	}
	return r.writePlain("%s", text)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
