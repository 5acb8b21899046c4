package repositories

import (
	"fmt"

	"github.com/desertthunder/seatx/internal/models"
)

// HistoryAdapter implements tasks.HistoryRecorder using SearchRepository.
type HistoryAdapter struct {
	repo *SearchRepository
}

// NewHistoryAdapter creates a new HistoryAdapter with the given repository
func NewHistoryAdapter(repo *SearchRepository) *HistoryAdapter {
	return &HistoryAdapter{repo: repo}
}

// RecordSearch stores a submitted search. A non-empty sessionID marks it as searching.
func (a *HistoryAdapter) RecordSearch(req models.SearchRequest, sessionID string) (string, error) {
	rec := models.NewSearchRecord(0, req)
	if sessionID != "" {
		rec.Apply(models.Session{ID: sessionID, Status: models.StatusSearching})
	}

	if err := a.repo.Create(rec); err != nil {
		return "", fmt.Errorf("failed to record search: %w", err)
	}
	return rec.ID(), nil
}

// RecordOutcome stores the latest snapshot of a recorded search.
func (a *HistoryAdapter) RecordOutcome(recordID string, s models.Session) error {
	rec, err := a.repo.Get(recordID)
	if err != nil {
		return fmt.Errorf("failed to load search %s: %w", recordID, err)
	}

	rec.Apply(s)
	if err := a.repo.Update(rec); err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}
	return nil
}
