package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
	tu "github.com/desertthunder/seatx/internal/testing"
)

func newSeatServer(t *testing.T, h http.HandlerFunc) *SeatService {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewSeatService(NewAPIService(server.URL, nil), nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func TestSeatService(t *testing.T) {
	ctx := context.Background()

	t.Run("Search", func(t *testing.T) {
		t.Run("Sends Request Body", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/search" || r.Method != http.MethodPost {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				var req models.SearchRequest
				json.NewDecoder(r.Body).Decode(&req)
				if req.RollNumber != "RA2211003010123" || req.Date != "2025-05-12" {
					t.Errorf("unexpected request body %+v", req)
				}
				w.Write([]byte(`{"success": true, "sessionId": "s-1", "message": "Search started"}`))
			})

			resp, err := svc.Search(ctx, models.SearchRequest{RollNumber: "RA2211003010123", Date: "2025-05-12"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.SessionID != "s-1" {
				t.Errorf("expected session s-1, got %s", resp.SessionID)
			}
			if resp.Settled() {
				t.Error("expected response without results to need polling")
			}
		})

		t.Run("Empty Results Are Settled", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"success": true, "sessionId": "s-2", "results": []}`))
			})

			resp, err := svc.Search(ctx, models.SearchRequest{})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.Settled() || len(resp.Results) != 0 {
				t.Errorf("expected settled empty results, got %+v", resp.Results)
			}
		})

		t.Run("Rejected Search", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Invalid roll number format"})
			})

			resp, err := svc.Search(ctx, models.SearchRequest{})
			if !errors.Is(err, shared.ErrSearchRejected) {
				t.Fatalf("expected ErrSearchRejected, got %v", err)
			}
			if !strings.Contains(err.Error(), "Invalid roll number format") {
				t.Errorf("expected server message in error, got %v", err)
			}
			if resp == nil || resp.Success {
				t.Error("expected the rejected response to be returned")
			}
		})

		t.Run("Non-JSON Error Status", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("<html>bad gateway</html>"))
			})

			if _, err := svc.Search(ctx, models.SearchRequest{}); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("dial tcp: refused"))}
			svc := NewSeatService(NewAPIService("http://example.com", client), nil)

			if _, err := svc.Search(ctx, models.SearchRequest{}); !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("Progress", func(t *testing.T) {
		t.Run("Decodes Snapshot", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/progress/s-1" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				writeJSON(w, http.StatusOK, models.ProgressResponse{
					Status: models.RemoteCompleted, Progress: 100, Message: "done", Results: tu.SampleResults(),
				})
			})

			resp, err := svc.Progress(ctx, "s-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.Status != models.RemoteCompleted || resp.Progress != 100 || len(resp.Results) != 2 {
				t.Errorf("unexpected snapshot %+v", resp)
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusNotFound, map[string]any{"status": "not_found", "progress": 0})
			})

			if _, err := svc.Progress(ctx, "gone"); !errors.Is(err, shared.ErrSessionNotFound) {
				t.Errorf("expected ErrSessionNotFound, got %v", err)
			}
		})

		t.Run("Server Error", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			})

			_, err := svc.Progress(ctx, "s-1")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if errors.Is(err, shared.ErrSessionNotFound) {
				t.Error("server error must not look like a missing session")
			}
		})

		t.Run("Malformed Body", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status": `))
			})

			if _, err := svc.Progress(ctx, "s-1"); !errors.Is(err, shared.ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})

		t.Run("Escapes Session ID", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.EscapedPath() != "/api/progress/a%2Fb" {
					t.Errorf("expected escaped path, got %s", r.URL.EscapedPath())
				}
				w.Write([]byte(`{"status": "searching"}`))
			})

			if _, err := svc.Progress(ctx, "a/b"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	})

	t.Run("ClearSessions", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/clear-sessions" || r.Method != http.MethodPost {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				w.Write([]byte(`{"success": true, "message": "All sessions cleared successfully"}`))
			})

			resp, err := svc.ClearSessions(ctx)
			if err != nil || !resp.Success {
				t.Fatalf("expected success, got %+v, %v", resp, err)
			}
		})

		t.Run("Failure Status", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": "Error clearing sessions"})
			})

			_, err := svc.ClearSessions(ctx)
			if !errors.Is(err, shared.ErrAPIRequest) || !strings.Contains(err.Error(), "Error clearing sessions") {
				t.Errorf("expected ErrAPIRequest with message, got %v", err)
			}
		})
	})

	t.Run("ExtendSession", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/sessions/extend/s-1" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(`{"success": true, "message": "Session extended successfully", "session_id": "s-1"}`))
			})

			resp, err := svc.ExtendSession(ctx, "s-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.SessionID != "s-1" {
				t.Errorf("expected session_id s-1, got %s", resp.SessionID)
			}
		})

		t.Run("Not Found", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Session not found. Please search again."})
			})

			if _, err := svc.ExtendSession(ctx, "s-1"); !errors.Is(err, shared.ErrSessionNotFound) {
				t.Errorf("expected ErrSessionNotFound, got %v", err)
			}
		})
	})

	t.Run("ExportOptions", func(t *testing.T) {
		t.Run("Passes Formats Through", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"available_formats": [
					{"type": "whatsapp", "name": "WhatsApp Message", "url": "https://wa.me/?text=hi", "external": true},
					{"type": "pdf", "name": "PDF Document", "url": "/api/export/s-1/pdf"}
				]}`))
			})

			formats, err := svc.ExportOptions(ctx, "s-1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(formats) != 2 {
				t.Fatalf("expected 2 formats, got %d", len(formats))
			}
			if !formats[0].External || formats[1].URL != "/api/export/s-1/pdf" {
				t.Errorf("unexpected formats %+v", formats)
			}
		})

		t.Run("Error Body", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No results available"})
			})

			_, err := svc.ExportOptions(ctx, "s-1")
			if !errors.Is(err, shared.ErrExportUnavailable) || !strings.Contains(err.Error(), "No results available") {
				t.Errorf("expected ErrExportUnavailable with message, got %v", err)
			}
		})
	})

	t.Run("DownloadExport", func(t *testing.T) {
		t.Run("Copies Body", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/pdf")
				w.Write([]byte("%PDF-1.4 body"))
			})

			var buf bytes.Buffer
			n, err := svc.DownloadExport(ctx, "/api/export/s-1/pdf", &buf)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if n != int64(buf.Len()) || buf.String() != "%PDF-1.4 body" {
				t.Errorf("unexpected download %d %q", n, buf.String())
			}
		})

		t.Run("Error Body", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "Session not found. Please search again to generate fresh results."})
			})

			var buf bytes.Buffer
			if _, err := svc.DownloadExport(ctx, "/api/export/s-1/pdf", &buf); !errors.Is(err, shared.ErrExportUnavailable) {
				t.Errorf("expected ErrExportUnavailable, got %v", err)
			}
			if buf.Len() != 0 {
				t.Error("expected nothing written on error")
			}
		})

		t.Run("Write Failure", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("%PDF-1.4"))
			})

			_, err := svc.DownloadExport(ctx, "/api/export/s-1/pdf", &tu.FWriter{})
			if err == nil || !strings.Contains(err.Error(), "failed to write export") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("Health", func(t *testing.T) {
		t.Run("Healthy", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"status": "healthy", "version": "4.0.0", "sessions": {"active_sessions": 3, "session_storage": "Memory"}}`))
			})

			h, err := svc.Health(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if h.Sessions.Active != 3 || h.Sessions.Storage != "Memory" {
				t.Errorf("unexpected sessions %+v", h.Sessions)
			}
		})

		t.Run("Unhealthy", func(t *testing.T) {
			svc := newSeatServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "unhealthy", "error": "redis down"})
			})

			h, err := svc.Health(ctx)
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Fatalf("expected ErrServiceUnavailable, got %v", err)
			}
			if h == nil || h.Healthy() {
				t.Error("expected unhealthy status to be returned")
			}
		})
	})
}
