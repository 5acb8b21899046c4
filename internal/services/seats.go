package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
)

var _ SeatFinder = (*SeatService)(nil)

// SeatService implements [SeatFinder] on top of [APIService].
type SeatService struct {
	api    *APIService
	logger *log.Logger
}

// NewSeatService wraps api. A nil logger discards output.
func NewSeatService(api *APIService, logger *log.Logger) *SeatService {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &SeatService{api: api, logger: logger}
}

// API exposes the underlying raw client.
func (s *SeatService) API() *APIService { return s.api }

func (s *SeatService) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	resp, err := s.api.Post(ctx, "/api/search", payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	var out models.SearchResponse
	if err := resp.Decode(&out); err != nil {
		if !resp.OK() {
			return nil, fmt.Errorf("%w: search returned status %d", shared.ErrAPIRequest, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}

	if !out.Success {
		msg := out.Message
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return &out, fmt.Errorf("%w: %s", shared.ErrSearchRejected, msg)
	}

	s.logger.Debug("search submitted", "session", out.SessionID, "settled", out.Settled())
	return &out, nil
}

func (s *SeatService) Progress(ctx context.Context, sessionID string) (*models.ProgressResponse, error) {
	resp, err := s.api.Get(ctx, "/api/progress/"+url.PathEscape(sessionID))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, sessionID)
	case !resp.OK():
		return nil, fmt.Errorf("%w: progress returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var out models.ProgressResponse
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}
	return &out, nil
}

func (s *SeatService) ClearSessions(ctx context.Context) (*models.ActionResponse, error) {
	resp, err := s.api.Post(ctx, "/api/clear-sessions", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	return decodeAction(resp, "clear sessions")
}

func (s *SeatService) ExtendSession(ctx context.Context, sessionID string) (*models.ActionResponse, error) {
	resp, err := s.api.Post(ctx, "/api/sessions/extend/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, sessionID)
	}
	return decodeAction(resp, "extend session")
}

func (s *SeatService) ExportOptions(ctx context.Context, sessionID string) ([]models.ExportFormat, error) {
	resp, err := s.api.Get(ctx, "/api/export/"+url.PathEscape(sessionID)+"/options")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}

	var out models.ExportOptions
	if err := resp.Decode(&out); err != nil {
		if !resp.OK() {
			return nil, fmt.Errorf("%w: export options returned status %d", shared.ErrAPIRequest, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}

	if out.Error != "" {
		return nil, fmt.Errorf("%w: %s", shared.ErrExportUnavailable, out.Error)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d", shared.ErrExportUnavailable, resp.StatusCode)
	}
	return out.AvailableFormats, nil
}

func (s *SeatService) DownloadExport(ctx context.Context, target string, w io.Writer) (int64, error) {
	var written int64
	err := s.api.Stream(ctx, target, func(resp *http.Response) error {
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			var errResp struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
				return fmt.Errorf("%w: %s", shared.ErrExportUnavailable, errResp.Error)
			}
			return fmt.Errorf("%w: download returned status %d", shared.ErrAPIRequest, resp.StatusCode)
		}

		n, err := io.Copy(w, resp.Body)
		written = n
		if err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		return nil
	})
	if err != nil {
		return written, err
	}

	s.logger.Debug("export downloaded", "url", target, "bytes", written)
	return written, nil
}

func (s *SeatService) Health(ctx context.Context) (*models.HealthStatus, error) {
	resp, err := s.api.Get(ctx, "/api/health")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}

	var out models.HealthStatus
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}
	if !resp.OK() || !out.Healthy() {
		reason := out.Error
		if reason == "" {
			reason = fmt.Sprintf("status %q", out.Status)
		}
		return &out, fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, reason)
	}
	return &out, nil
}

func decodeAction(resp *APIResponse, op string) (*models.ActionResponse, error) {
	var out models.ActionResponse
	if err := resp.Decode(&out); err != nil {
		if !resp.OK() {
			return nil, fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, op, resp.StatusCode)
		}
		return nil, fmt.Errorf("%w: %w", shared.ErrMalformedResponse, err)
	}

	if !resp.OK() || (!out.Success && out.Error != "") {
		msg := out.Error
		if msg == "" {
			msg = out.Message
		}
		return &out, fmt.Errorf("%w: %s failed: %s", shared.ErrAPIRequest, op, msg)
	}
	return &out, nil
}
