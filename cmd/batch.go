package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
	"github.com/desertthunder/seatx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Batch looks up every roll,date row of a CSV file.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: CSV file is required", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open batch file: %w", err)
	}
	defer f.Close()

	reqs, err := readBatch(f)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		return fmt.Errorf("%w: %s has no rows", shared.ErrInvalidInput, path)
	}

	opts := tasks.BulkSearchOpts{
		NumWorkers: r.config.Batch.Workers,
		RateLimit:  r.config.Batch.RateLimit,
		ReportPath: cmd.String("report"),
	}
	if cmd.IsSet("workers") {
		opts.NumWorkers = cmd.Int("workers")
	}
	if cmd.IsSet("rate") {
		opts.RateLimit = cmd.Float("rate")
	}

	asJSON := cmd.Bool("json")
	finder := r.newFinder(!cmd.Bool("no-history"))

	r.logger.Info("starting batch lookup", "file", path, "rows", len(reqs), "workers", opts.NumWorkers)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if asJSON {
				continue
			}
			switch update.Phase {
			case tasks.BatchLookup:
				if update.Step == 0 {
					r.writePlain("📋 %s\n\n", update.Message)
				} else {
					r.writePlain("%s\n", update.Message)
				}
			case tasks.SubmitSearch:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := finder.BulkSearch(ctx, progressCh, reqs, opts)
	close(progressCh)
	<-done

	if result == nil {
		return err
	}

	if asJSON {
		if werr := r.writeJSON(batchJSON(result), true); werr != nil {
			return werr
		}
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Batch Complete!")
	r.writePlain("Lookups: %d\n", result.Total)
	r.writePlain("Found: %d\n", result.Succeeded)
	r.writePlain("Failed: %d\n", result.Failed)

	if result.Failed > 0 {
		r.writePlain("\nWithout seats:\n")
		for _, o := range result.Outcomes {
			if !o.Success {
				r.writePlain("  - %s %s: %s\n", o.Request.RollNumber, o.Request.Date, shared.Truncate(o.Session.Message, 72))
			}
		}
	}
	if result.ReportPath != "" {
		r.writePlain("\nReport: %s\n", result.ReportPath)
	}
	return err
}

// readBatch parses roll,date rows. A header row, blank lines and # comments are skipped.
func readBatch(in io.Reader) ([]models.SearchRequest, error) {
	cr := csv.NewReader(in)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var reqs []models.SearchRequest
	for n := 1; ; n++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}

		if len(row) < 2 {
			return nil, fmt.Errorf("%w: row %d: expected roll,date", shared.ErrInvalidInput, n)
		}
		if n == 1 && isBatchHeader(row[0]) {
			continue
		}
		reqs = append(reqs, models.SearchRequest{RollNumber: strings.TrimSpace(row[0]), Date: strings.TrimSpace(row[1])})
	}
	return reqs, nil
}

func isBatchHeader(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "roll", "roll_number", "rollnumber", "roll number":
		return true
	}
	return false
}

type batchOutcomeJSON struct {
	Roll    string              `json:"roll_number"`
	Date    string              `json:"date"`
	Session string              `json:"session_id,omitempty"`
	Status  models.Status       `json:"status"`
	Message string              `json:"message,omitempty"`
	Results []models.SeatResult `json:"results,omitempty"`
}

func batchJSON(result *tasks.BatchResult) map[string]any {
	outcomes := make([]batchOutcomeJSON, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		outcomes = append(outcomes, batchOutcomeJSON{
			Roll:    o.Request.RollNumber,
			Date:    o.Request.Date,
			Session: o.Session.ID,
			Status:  o.Session.Status,
			Message: o.Session.Message,
			Results: o.Session.Results,
		})
	}
	return map[string]any{
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"report":    result.ReportPath,
		"outcomes":  outcomes,
	}
}
