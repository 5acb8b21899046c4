package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
)

var _ models.Repository[*models.SearchRecord] = (*SearchRepository)(nil)

const searchColumns = `id, sequence, roll_number, exam_date, session_id, status, message, progress, results, created_at, updated_at, deleted_at`

// SearchRepository implements models.Repository[*models.SearchRecord] for search history.
type SearchRepository struct {
	db *sql.DB
}

// NewSearchRepository creates a new SearchRepository with the given database connection
func NewSearchRepository(db *sql.DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Create inserts a new [models.SearchRecord] with generated ID and sequence
func (r *SearchRepository) Create(rec *models.SearchRecord) error {
	sequence, err := NextSequence(r.db, "searches")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	rec.SetID(shared.GenerateID())
	rec.SetSequence(sequence)

	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	results, err := encodeResults(rec.Results())
	if err != nil {
		return err
	}

	query := `
		INSERT INTO searches (id, sequence, roll_number, exam_date, session_id, status, message, progress, results, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		rec.ID(),
		sequence,
		rec.RollNumber(),
		rec.ExamDate(),
		rec.SessionID(),
		string(rec.Status()),
		rec.Message(),
		rec.Progress(),
		results,
		rec.CreatedAt(),
		rec.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert search: %w", err)
	}

	return nil
}

// Get retrieves a search by ID, excluding soft-deleted searches
func (r *SearchRepository) Get(id string) (*models.SearchRecord, error) {
	query := `SELECT ` + searchColumns + ` FROM searches WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetBySessionID retrieves the most recent search tracking a backend session
func (r *SearchRepository) GetBySessionID(sessionID string) (*models.SearchRecord, error) {
	query := `
		SELECT ` + searchColumns + `
		FROM searches
		WHERE session_id = ? AND deleted_at IS NULL
		ORDER BY sequence DESC
		LIMIT 1
	`
	return r.scan(r.db.QueryRow(query, sessionID))
}

// Update stores the session state of an existing search
func (r *SearchRepository) Update(rec *models.SearchRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	results, err := encodeResults(rec.Results())
	if err != nil {
		return err
	}

	now := time.Now()
	rec.SetUpdatedAt(now)

	query := `
		UPDATE searches
		SET session_id = ?, status = ?, message = ?, progress = ?, results = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		rec.SessionID(),
		string(rec.Status()),
		rec.Message(),
		rec.Progress(),
		results,
		now,
		rec.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update search: %w", err)
	}

	return expectAffected(result, rec.ID())
}

// Delete soft-deletes a search by ID
func (r *SearchRepository) Delete(id string) error {
	query := `
		UPDATE searches
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete search: %w", err)
	}

	return expectAffected(result, id)
}

// List retrieves searches matching the given criteria, newest first.
//
// Supported criteria: "roll_number", "exam_date", "status", "session_id" (strings) and "limit" (int).
func (r *SearchRepository) List(criteria map[string]any) ([]*models.SearchRecord, error) {
	query := `SELECT ` + searchColumns + ` FROM searches WHERE deleted_at IS NULL`
	args := []any{}

	for _, col := range []string{"roll_number", "exam_date", "status", "session_id"} {
		if v, ok := criteria[col].(string); ok && v != "" {
			query += " AND " + col + " = ?"
			args = append(args, v)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query searches: %w", err)
	}
	defer rows.Close()

	var records []*models.SearchRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scan reads one row from either [sql.Row] or [sql.Rows]
func (r *SearchRepository) scan(row scanner) (*models.SearchRecord, error) {
	var (
		id         string
		sequence   int
		rollNumber string
		examDate   string
		sessionID  string
		status     string
		message    string
		progress   int
		results    string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &rollNumber, &examDate, &sessionID, &status, &message, &progress, &results, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan search: %w", err)
	}

	var seats []models.SeatResult
	if err := json.Unmarshal([]byte(results), &seats); err != nil {
		return nil, fmt.Errorf("failed to decode results for search %s: %w", id, err)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreSearchRecord(
		id, sequence, rollNumber, examDate, sessionID, models.Status(status), message,
		progress, seats, createdAt, updatedAt, deleted,
	), nil
}

func encodeResults(results []models.SeatResult) (string, error) {
	if results == nil {
		results = []models.SeatResult{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}
	return string(data), nil
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: search %s", shared.ErrRecordNotFound, id)
	}
	return nil
}
