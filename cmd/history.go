package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
	"github.com/urfave/cli/v3"
)

// historyEntry is the JSON shape of a recorded search.
type historyEntry struct {
	ID        string              `json:"id"`
	Sequence  int                 `json:"sequence"`
	Roll      string              `json:"roll_number"`
	Date      string              `json:"exam_date"`
	SessionID string              `json:"session_id,omitempty"`
	Status    models.Status       `json:"status"`
	Message   string              `json:"message,omitempty"`
	Progress  int                 `json:"progress"`
	Results   []models.SeatResult `json:"results"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

func newHistoryEntry(rec *models.SearchRecord) historyEntry {
	results := rec.Results()
	if results == nil {
		results = []models.SeatResult{}
	}
	return historyEntry{
		ID:        rec.ID(),
		Sequence:  rec.Sequence(),
		Roll:      rec.RollNumber(),
		Date:      rec.ExamDate(),
		SessionID: rec.SessionID(),
		Status:    rec.Status(),
		Message:   rec.Message(),
		Progress:  rec.Progress(),
		Results:   results,
		CreatedAt: rec.CreatedAt(),
		UpdatedAt: rec.UpdatedAt(),
	}
}

// HistoryList lists recorded searches, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.openHistory()
	if err != nil {
		return err
	}

	criteria := map[string]any{
		"roll_number": cmd.String("roll"),
		"status":      cmd.String("status"),
		"limit":       cmd.Int("limit"),
	}
	if date := cmd.String("date"); date != "" {
		iso, err := models.NormalizeDate(date)
		if err != nil {
			return err
		}
		criteria["exam_date"] = iso
	}

	records, err := repo.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		entries := make([]historyEntry, 0, len(records))
		for _, rec := range records {
			entries = append(entries, newHistoryEntry(rec))
		}
		return r.writeJSON(entries, true)
	}

	if len(records) == 0 {
		return r.writePlain("No searches recorded\n")
	}

	r.writePlainHeader(fmt.Sprintf("%d recorded search(es)", len(records)))
	for _, rec := range records {
		r.writePlain("#%-4d %s  %s  %-10s %d seat(s)  %s\n",
			rec.Sequence(), rec.RollNumber(), rec.ExamDate(), rec.Status(), len(rec.Results()), rec.ID())
	}
	return nil
}

// HistoryShow prints one recorded search with its seats.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	rec, err := r.historyRecord(cmd)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(newHistoryEntry(rec), true)
	}

	r.writePlainHeader(fmt.Sprintf("Search #%d", rec.Sequence()))
	r.writePlain("ID: %s\n", rec.ID())
	r.writePlain("Roll number: %s\n", rec.RollNumber())
	r.writePlain("Exam date: %s\n", rec.ExamDate())
	if rec.SessionID() != "" {
		r.writePlain("Session: %s\n", rec.SessionID())
	}
	r.writePlain("Status: %s (%d%%)\n", rec.Status(), rec.Progress())
	if rec.Message() != "" {
		r.writePlain("Message: %s\n", rec.Message())
	}
	r.writePlain("Searched: %s\n\n", rec.CreatedAt().Local().Format(time.DateTime))

	if len(rec.Results()) > 0 {
		return r.printResults(rec.Results())
	}
	return nil
}

// HistoryDelete removes a recorded search.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	rec, err := r.historyRecord(cmd)
	if err != nil {
		return err
	}

	repo, _ := r.openHistory()
	if err := repo.Delete(rec.ID()); err != nil {
		return err
	}
	return r.writePlain("✓ Deleted search %s\n", rec.ID())
}

func (r *Runner) historyRecord(cmd *cli.Command) (*models.SearchRecord, error) {
	id := cmd.StringArg("id")
	if id == "" {
		return nil, fmt.Errorf("%w: search ID is required", shared.ErrMissingArgument)
	}

	repo, err := r.openHistory()
	if err != nil {
		return nil, err
	}

	rec, err := repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", id, err)
	}
	return rec, nil
}
