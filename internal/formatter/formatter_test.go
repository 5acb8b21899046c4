package formatter

import (
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
	th "github.com/desertthunder/seatx/internal/testing"
)

func TestExporters(t *testing.T) {
	results := th.SampleResults()

	t.Run("ResultsToCSV", func(t *testing.T) {
		data, err := ResultsToCSV(results)
		if err != nil {
			t.Fatalf("ResultsToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Registration,Date,Session,Room,Seat,Venue,Department") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "RA2211003010123,12/05/2025,Forenoon (FN),TP-401,17,Tech Park,CSE") {
			t.Errorf("CSV missing first row, got: %s", output)
		}

		lines := strings.Split(strings.TrimSpace(output), "\n")
		if len(lines) != 3 {
			t.Errorf("expected 3 lines, got %d", len(lines))
		}
	})

	t.Run("ResultsToMarkdown", func(t *testing.T) {
		t.Run("Multiple Exams", func(t *testing.T) {
			data, err := ResultsToMarkdown(results)
			if err != nil {
				t.Fatalf("ResultsToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Exam Schedule",
				"**Registration**: RA2211003010123",
				"**Exams**: 2",
				"| 2 | 12/05/2025 | Afternoon (AN) | UB-210 | 4 | University Building |",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("markdown missing %q, got:\n%s", want, output)
				}
			}
		})

		t.Run("Single Exam", func(t *testing.T) {
			data, _ := ResultsToMarkdown(results[:1])
			if !strings.HasPrefix(string(data), "# Exam Details") {
				t.Errorf("expected single exam heading, got:\n%s", data)
			}
		})
	})

	t.Run("ResultsToText", func(t *testing.T) {
		data, err := ResultsToText(results)
		if err != nil {
			t.Fatalf("ResultsToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "1. 12/05/2025 Forenoon (FN) - Room TP-401, Seat 17 (Tech Park)") {
			t.Errorf("text missing first line, got:\n%s", output)
		}
	})

	t.Run("Render", func(t *testing.T) {
		t.Run("JSON", func(t *testing.T) {
			data, err := Render(results, FormatJSON)
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}

			var decoded []models.SeatResult
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if decoded[1].VenueCode != "ub" {
				t.Errorf("expected venue code ub, got %s", decoded[1].VenueCode)
			}
		})

		t.Run("Unknown Format", func(t *testing.T) {
			if _, err := Render(results, "xlsx"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})
}

func TestShare(t *testing.T) {
	results := th.SampleResults()

	t.Run("Single Exam Message", func(t *testing.T) {
		msg := WhatsAppMessage(results[:1])

		for _, want := range []string{"SRM Exam Details", "Room: TP-401", "Seat: 17", "Session: Forenoon", "Venue: Tech Park", "Department: CSE"} {
			if !strings.Contains(msg, want) {
				t.Errorf("message missing %q, got:\n%s", want, msg)
			}
		}
		if strings.Contains(msg, "Exam 1:") {
			t.Error("single exam message should not number exams")
		}
	})

	t.Run("Multiple Exam Message", func(t *testing.T) {
		msg := WhatsAppMessage(results)

		for _, want := range []string{"SRM Exam Schedule", "Exam 1:", "Exam 2:", "Session: Afternoon (AN)", "Room: UB-210"} {
			if !strings.Contains(msg, want) {
				t.Errorf("message missing %q, got:\n%s", want, msg)
			}
		}
		if !strings.HasSuffix(msg, shareFooter) {
			t.Error("expected footer at the end")
		}
	})

	t.Run("Empty Results", func(t *testing.T) {
		if msg := WhatsAppMessage(nil); msg != "" {
			t.Errorf("expected empty message, got %q", msg)
		}
	})

	t.Run("ShareURL", func(t *testing.T) {
		link := ShareURL(results)

		if !strings.HasPrefix(link, "https://wa.me/?text=") {
			t.Fatalf("unexpected link %s", link)
		}
		if strings.Contains(link, "+") || strings.Contains(link, " ") {
			t.Errorf("spaces should be encoded as %%20, got %s", link)
		}

		u, err := url.Parse(link)
		if err != nil {
			t.Fatalf("invalid URL: %v", err)
		}
		if got := u.Query().Get("text"); got != WhatsAppMessage(results) {
			t.Errorf("decoded text mismatch:\n%s", got)
		}
	})
}

func TestFiles(t *testing.T) {
	results := th.SampleResults()

	t.Run("ExportFilename", func(t *testing.T) {
		now := time.Date(2025, 5, 12, 9, 30, 0, 0, time.UTC)

		if got := ExportFilename(results[:1], "pdf", now); got != "exam_document_20250512_093000.pdf" {
			t.Errorf("unexpected single filename %s", got)
		}
		if got := ExportFilename(results, ".pdf", now); got != "exam_schedule_20250512_093000.pdf" {
			t.Errorf("unexpected schedule filename %s", got)
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		t.Run("Explicit Path", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "seats.md")

			written, err := WriteExport(results, FormatMarkdown, path)
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if written != path {
				t.Errorf("expected %s, got %s", path, written)
			}
			th.AssertFileExists(t, path)
		})

		t.Run("Default Path", func(t *testing.T) {
			original := th.MustGetwd(t)
			th.MustChdir(t, t.TempDir())
			defer th.MustChdir(t, original)

			written, err := WriteExport(results, FormatText, "")
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if written != "RA2211003010123_seats.txt" {
				t.Errorf("unexpected default path %s", written)
			}
			if !strings.Contains(th.MustReadFile(t, written), "Exams: 2") {
				t.Error("text export missing summary")
			}
		})

		t.Run("Invalid Format", func(t *testing.T) {
			if _, err := WriteExport(results, "xml", filepath.Join(t.TempDir(), "x")); err == nil {
				t.Error("expected error for unknown format")
			}
		})
	})

	t.Run("SaveDownload", func(t *testing.T) {
		t.Run("Writes File", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "doc.pdf")

			n, err := SaveDownload(path, func(w io.Writer) (int64, error) {
				c, err := io.WriteString(w, "%PDF-1.4")
				return int64(c), err
			})
			if err != nil {
				t.Fatalf("SaveDownload failed: %v", err)
			}
			if n != 8 || th.MustReadFile(t, path) != "%PDF-1.4" {
				t.Errorf("unexpected content (%d bytes)", n)
			}
		})

		t.Run("Removes Partial File", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "doc.pdf")

			_, err := SaveDownload(path, func(w io.Writer) (int64, error) {
				io.WriteString(w, "%PDF")
				return 4, shared.ErrExportUnavailable
			})
			if !errors.Is(err, shared.ErrExportUnavailable) {
				t.Fatalf("expected fetch error, got %v", err)
			}
			if _, err := os.Stat(path); !os.IsNotExist(err) {
				t.Error("partial file should be removed")
			}
		})
	})

	t.Run("WriteBatchReport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.csv")
		rows := []BatchRow{
			{RollNumber: "RA2211003010123", Date: "2025-05-12", SessionID: "s-1", Status: models.StatusCompleted, Results: results},
			{RollNumber: "RA2211003010999", Date: "2025-05-12", Status: models.StatusErrored, Message: noSeatsMessage},
		}

		if err := WriteBatchReport(rows, path); err != nil {
			t.Fatalf("WriteBatchReport failed: %v", err)
		}

		content := th.MustReadFile(t, path)
		if !strings.Contains(content, "RA2211003010123,2025-05-12,completed,2,TP-401,17,Tech Park,s-1,") {
			t.Errorf("missing completed row:\n%s", content)
		}
		if !strings.Contains(content, "RA2211003010999,2025-05-12,errored,0,,,,,"+noSeatsMessage) {
			t.Errorf("missing errored row:\n%s", content)
		}
	})
}

const noSeatsMessage = "No exam seats found for the given details."
