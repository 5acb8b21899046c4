package models

// Status is the lifecycle state of a client-side [Session].
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSearching Status = "searching"
	StatusCompleted Status = "completed"
	StatusErrored   Status = "errored"
)

// Terminal reports whether no further polling happens in this state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusErrored
}

// Backend status strings reported by GET /api/progress/{id}.
const (
	RemoteSearching = "searching"
	RemoteCompleted = "completed"
	RemoteError     = "error"
	RemoteNotFound  = "not_found"
)

// Session is a snapshot of one search attempt as seen by the client.
type Session struct {
	ID         string       `json:"id"`
	Status     Status       `json:"status"`
	Progress   int          `json:"progress"`
	Message    string       `json:"message"`
	Results    []SeatResult `json:"results,omitempty"`
	ErrorCount int          `json:"error_count"`
}

// NewSession returns an idle session for id.
func NewSession(id string) Session {
	return Session{ID: id, Status: StatusIdle}
}

// Clone returns a copy that shares no slice memory with s.
func (s Session) Clone() Session {
	if s.Results != nil {
		s.Results = append([]SeatResult(nil), s.Results...)
	}
	return s
}

// SeatResult is one seat assignment for a student on a date and session.
type SeatResult struct {
	RoomNumber         string `json:"room_number" toml:"room_number"`
	SeatNumber         string `json:"seat_number" toml:"seat_number"`
	Session            string `json:"session" toml:"session"`
	SessionName        string `json:"session_name" toml:"session_name"`
	Date               string `json:"date" toml:"date"`
	Department         string `json:"department" toml:"department"`
	RegistrationNumber string `json:"registration_number" toml:"registration_number"`
	VenueCode          string `json:"venue_code" toml:"venue_code"`
	VenueName          string `json:"venue_name" toml:"venue_name"`
}

// SessionLabel returns "Forenoon (FN)" style text, deriving the name from the code when absent.
func (r SeatResult) SessionLabel() string {
	name := r.SessionName
	if name == "" {
		name = SessionName(r.Session)
	}
	if r.Session == "" {
		return name
	}
	return name + " (" + r.Session + ")"
}

// SessionName maps a session code to its display name.
func SessionName(code string) string {
	if code == "FN" {
		return "Forenoon"
	}
	return "Afternoon"
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	RollNumber string `json:"rollNumber"`
	Date       string `json:"date"`
}

// SearchResponse is the body returned by POST /api/search.
//
// Results is nil when the backend omitted it or sent null, and non-nil (possibly empty) when present.
type SearchResponse struct {
	Success   bool         `json:"success"`
	SessionID string       `json:"sessionId,omitempty"`
	Message   string       `json:"message,omitempty"`
	Results   []SeatResult `json:"results"`
}

// Settled reports whether the search finished within the request and needs no polling.
func (r SearchResponse) Settled() bool {
	return r.Results != nil
}

// ProgressResponse is the body of GET /api/progress/{id}.
type ProgressResponse struct {
	Status   string       `json:"status"`
	Progress int          `json:"progress"`
	Message  string       `json:"message"`
	Results  []SeatResult `json:"results"`
}

// ActionResponse is returned by clear-sessions and session extension.
type ActionResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ExportFormat is one entry of available_formats from GET /api/export/{id}/options.
type ExportFormat struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Icon        string `json:"icon"`
	External    bool   `json:"external,omitempty"`
}

// ExportOptions is the body of GET /api/export/{id}/options.
type ExportOptions struct {
	AvailableFormats []ExportFormat `json:"available_formats"`
	Error            string         `json:"error,omitempty"`
}

// HealthStatus is the subset of GET /api/health the client reports.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
	Version   string `json:"version"`
	Error     string `json:"error,omitempty"`
	Sessions  struct {
		Active  int    `json:"active_sessions"`
		Storage string `json:"session_storage"`
	} `json:"sessions"`
}

// Healthy reports whether the backend described itself as healthy.
func (h HealthStatus) Healthy() bool {
	return h.Status == "healthy"
}
