package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrTimeout       = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrMalformedResponse  = fmt.Errorf("malformed response body")
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrSearchRejected     = fmt.Errorf("search rejected")
	ErrExportUnavailable  = fmt.Errorf("export unavailable")

	// Search outcome errors
	ErrNoResults      = fmt.Errorf("no exam seats found")
	ErrConnectionLost = fmt.Errorf("connection lost")
	ErrSearchFailed   = fmt.Errorf("search failed")
	ErrSearchStopped  = fmt.Errorf("search stopped before a result")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Persistence errors
	ErrRecordNotFound = fmt.Errorf("record not found")
)
