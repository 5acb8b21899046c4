package tasks

import (
	"fmt"

	"github.com/desertthunder/seatx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ValidateInput Phase = iota
	ClearSessions
	SubmitSearch
	PollProgress
	RecordHistory
	BatchLookup
)

func (p Phase) String() string {
	switch p {
	case ValidateInput:
		return "validate_input"
	case ClearSessions:
		return "clear_sessions"
	case SubmitSearch:
		return "submit_search"
	case PollProgress:
		return "poll_progress"
	case RecordHistory:
		return "record_history"
	case BatchLookup:
		return "batch_lookup"
	default:
		return ""
	}
}

func batchStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchLookup,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Looking up %d student(s)...", total),
	}
}

func submittingUpdate(step, total int, req models.SearchRequest) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SubmitSearch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Submitting %s (%s)...", step, total, req.RollNumber, req.Date),
	}
}

func pollingUpdate(step, total int, s models.Session) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PollProgress,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%s] %d%% %s", s.ID, s.Progress, s.Message),
		Data:    s,
	}
}

func lookupCompletedUpdate(step, total int, o BatchOutcome) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchLookup,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d exam(s))", step, total, o.Request.RollNumber, len(o.Session.Results)),
		Data:    o,
	}
}

func lookupFailedUpdate(step, total int, o BatchOutcome) ProgressUpdate {
	reason := o.Session.Message
	if o.Err != nil {
		reason = o.Err.Error()
	}
	return ProgressUpdate{
		Phase:   BatchLookup,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, o.Request.RollNumber, reason),
		Data:    o,
	}
}
