// package services defines interface SeatFinder for interacting with the seat lookup backend
package services

import (
	"context"
	"io"

	"github.com/desertthunder/seatx/internal/models"
)

// SeatFinder is the client side of the seat lookup backend.
type SeatFinder interface {
	// Search submits a roll number and date. The returned response keeps the distinction
	// between absent and empty results (see [models.SearchResponse.Settled]).
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)

	// Progress fetches the current state of a search session.
	// Returns [shared.ErrSessionNotFound] when the backend has no such session.
	Progress(ctx context.Context, sessionID string) (*models.ProgressResponse, error)

	// ClearSessions drops every session held by the backend.
	ClearSessions(ctx context.Context) (*models.ActionResponse, error)

	// ExtendSession resets the expiry of a session.
	ExtendSession(ctx context.Context, sessionID string) (*models.ActionResponse, error)

	// ExportOptions lists the export formats offered for a completed session.
	ExportOptions(ctx context.Context, sessionID string) ([]models.ExportFormat, error)

	// DownloadExport copies the document at url into w and returns the number of bytes written.
	DownloadExport(ctx context.Context, url string, w io.Writer) (int64, error)

	// Health reports backend status.
	Health(ctx context.Context) (*models.HealthStatus, error)
}
