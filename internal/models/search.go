package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/seatx/internal/shared"
)

var _ Model = (*SearchRecord)(nil)

// SearchRecord is a persisted search attempt and its latest known outcome.
type SearchRecord struct {
	id         string
	sequence   int
	rollNumber string
	examDate   string
	sessionID  string
	status     Status
	message    string
	progress   int
	results    []SeatResult
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewSearchRecord creates an idle record for a validated request.
func NewSearchRecord(sequence int, req SearchRequest) *SearchRecord {
	now := time.Now()
	return &SearchRecord{
		sequence:   sequence,
		rollNumber: req.RollNumber,
		examDate:   req.Date,
		status:     StatusIdle,
		createdAt:  now,
		updatedAt:  now,
	}
}

// RestoreSearchRecord rebuilds a record from stored columns.
func RestoreSearchRecord(
	id string, sequence int, rollNumber, examDate, sessionID string, status Status, message string,
	progress int, results []SeatResult, createdAt, updatedAt time.Time, deletedAt *time.Time,
) *SearchRecord {
	return &SearchRecord{
		id:         id,
		sequence:   sequence,
		rollNumber: rollNumber,
		examDate:   examDate,
		sessionID:  sessionID,
		status:     status,
		message:    message,
		progress:   progress,
		results:    results,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		deletedAt:  deletedAt,
	}
}

func (r *SearchRecord) ID() string               { return r.id }
func (r *SearchRecord) Sequence() int            { return r.sequence }
func (r *SearchRecord) RollNumber() string       { return r.rollNumber }
func (r *SearchRecord) ExamDate() string         { return r.examDate }
func (r *SearchRecord) SessionID() string        { return r.sessionID }
func (r *SearchRecord) Status() Status           { return r.status }
func (r *SearchRecord) Message() string          { return r.message }
func (r *SearchRecord) Progress() int            { return r.progress }
func (r *SearchRecord) Results() []SeatResult    { return r.results }
func (r *SearchRecord) CreatedAt() time.Time     { return r.createdAt }
func (r *SearchRecord) UpdatedAt() time.Time     { return r.updatedAt }
func (r *SearchRecord) DeletedAt() *time.Time    { return r.deletedAt }
func (r *SearchRecord) SetID(id string)          { r.id = id }
func (r *SearchRecord) SetSequence(seq int)      { r.sequence = seq }
func (r *SearchRecord) SetSessionID(id string)   { r.sessionID = id }
func (r *SearchRecord) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// Apply copies the state of a session snapshot onto the record.
func (r *SearchRecord) Apply(s Session) {
	if s.ID != "" {
		r.sessionID = s.ID
	}
	r.status = s.Status
	r.message = s.Message
	r.progress = s.Progress
	r.results = append([]SeatResult(nil), s.Results...)
}

// Session converts the record back into a session snapshot.
func (r *SearchRecord) Session() Session {
	return Session{
		ID:       r.sessionID,
		Status:   r.status,
		Progress: r.progress,
		Message:  r.message,
		Results:  append([]SeatResult(nil), r.results...),
	}
}

// Validate checks required fields.
func (r *SearchRecord) Validate() error {
	if r.id == "" {
		return fmt.Errorf("%w: search record ID is required", shared.ErrInvalidInput)
	}
	if r.rollNumber == "" {
		return fmt.Errorf("%w: roll number is required", shared.ErrInvalidInput)
	}
	if r.examDate == "" {
		return fmt.Errorf("%w: exam date is required", shared.ErrInvalidInput)
	}
	switch r.status {
	case StatusIdle, StatusSearching, StatusCompleted, StatusErrored:
	default:
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidInput, r.status)
	}
	if r.progress < 0 || r.progress > 100 {
		return fmt.Errorf("%w: progress %d out of range", shared.ErrInvalidInput, r.progress)
	}
	return nil
}
