// package formatter renders seat results to files and share text (CSV, Markdown, plain text, JSON, WhatsApp)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/seatx/internal/models"
	"github.com/desertthunder/seatx/internal/shared"
)

// Supported export formats for [WriteExport].
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

const shareFooter = "✨ Generated by SRM Seat Finder"

// Formats lists the accepted format names.
func Formats() []string {
	return []string{FormatCSV, FormatMarkdown, FormatText, FormatJSON}
}

// ResultsToCSV converts seat results to CSV with one row per exam.
func ResultsToCSV(results []models.SeatResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Registration", "Date", "Session", "Room", "Seat", "Venue", "Department"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range results {
		record := []string{
			r.RegistrationNumber,
			r.Date,
			r.SessionLabel(),
			r.RoomNumber,
			r.SeatNumber,
			r.VenueName,
			r.Department,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ResultsToMarkdown converts seat results to a Markdown document with a summary table.
func ResultsToMarkdown(results []models.SeatResult) ([]byte, error) {
	var buf bytes.Buffer

	if len(results) == 1 {
		buf.WriteString("# Exam Details\n\n")
	} else {
		buf.WriteString("# Exam Schedule\n\n")
	}

	if len(results) > 0 {
		first := results[0]
		buf.WriteString(fmt.Sprintf("**Registration**: %s\n", first.RegistrationNumber))
		if first.Department != "" {
			buf.WriteString(fmt.Sprintf("**Department**: %s\n", first.Department))
		}
		buf.WriteString("\n")
	}

	buf.WriteString(fmt.Sprintf("**Exams**: %d\n\n", len(results)))
	buf.WriteString("| # | Date | Session | Room | Seat | Venue |\n")
	buf.WriteString("|---|------|---------|------|------|-------|\n")
	for i, r := range results {
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			i+1, r.Date, r.SessionLabel(), r.RoomNumber, r.SeatNumber, r.VenueName))
	}

	return buf.Bytes(), nil
}

// ResultsToText converts seat results to plain text.
func ResultsToText(results []models.SeatResult) ([]byte, error) {
	var buf bytes.Buffer

	if len(results) > 0 {
		buf.WriteString(fmt.Sprintf("Registration: %s\n", results[0].RegistrationNumber))
	}
	buf.WriteString(fmt.Sprintf("Exams: %d\n\n", len(results)))

	for i, r := range results {
		buf.WriteString(fmt.Sprintf("%d. %s %s - Room %s, Seat %s (%s)\n",
			i+1, r.Date, r.SessionLabel(), r.RoomNumber, r.SeatNumber, r.VenueName))
	}

	return buf.Bytes(), nil
}

// WhatsAppMessage builds the share text. A single exam includes its venue and department inline,
// multiple exams are listed one block each.
func WhatsAppMessage(results []models.SeatResult) string {
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	first := results[0]

	if len(results) == 1 {
		b.WriteString("🎓 SRM Exam Details\n\n")
		fmt.Fprintf(&b, "📝 Registration: %s\n", first.RegistrationNumber)
		fmt.Fprintf(&b, "🏢 Room: %s\n", first.RoomNumber)
		fmt.Fprintf(&b, "💺 Seat: %s\n", first.SeatNumber)
		fmt.Fprintf(&b, "📅 Date: %s\n", first.Date)
		fmt.Fprintf(&b, "⏰ Session: %s\n", sessionName(first))
		fmt.Fprintf(&b, "🏫 Venue: %s\n", first.VenueName)
		fmt.Fprintf(&b, "🎯 Department: %s\n\n", first.Department)
		b.WriteString(shareFooter)
		return b.String()
	}

	b.WriteString("🎓 SRM Exam Schedule\n\n")
	fmt.Fprintf(&b, "📝 Registration: %s\n", first.RegistrationNumber)
	fmt.Fprintf(&b, "🎯 Department: %s\n\n", first.Department)
	for i, r := range results {
		fmt.Fprintf(&b, "📋 Exam %d:\n", i+1)
		fmt.Fprintf(&b, "📅 Date: %s\n", r.Date)
		fmt.Fprintf(&b, "⏰ Session: %s\n", r.SessionLabel())
		fmt.Fprintf(&b, "🏢 Room: %s\n", r.RoomNumber)
		fmt.Fprintf(&b, "💺 Seat: %s\n", r.SeatNumber)
		fmt.Fprintf(&b, "🏫 Venue: %s\n\n", r.VenueName)
	}
	b.WriteString(shareFooter)
	return b.String()
}

// ShareURL returns a wa.me link prefilled with [WhatsAppMessage]. Spaces are encoded as %20.
func ShareURL(results []models.SeatResult) string {
	text := strings.ReplaceAll(url.QueryEscape(WhatsAppMessage(results)), "+", "%20")
	return "https://wa.me/?text=" + text
}

func sessionName(r models.SeatResult) string {
	if r.SessionName != "" {
		return r.SessionName
	}
	return models.SessionName(r.Session)
}

// ExportFilename names a downloaded document: exam_document_* for one exam, exam_schedule_* otherwise.
func ExportFilename(results []models.SeatResult, ext string, now time.Time) string {
	prefix := "exam_schedule"
	if len(results) == 1 {
		prefix = "exam_document"
	}
	return fmt.Sprintf("%s_%s.%s", prefix, now.Format("20060102_150405"), strings.TrimPrefix(ext, "."))
}

// Render converts results to the named format.
func Render(results []models.SeatResult, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ResultsToCSV(results)
	case FormatMarkdown, "md":
		return ResultsToMarkdown(results)
	case FormatText, "text":
		return ResultsToText(results)
	case FormatJSON:
		return shared.MarshalJSON(results, true)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteExport writes results to path in the given format.
//
// Defaults to {roll}_seats.{ext} in the working directory when path is empty.
func WriteExport(results []models.SeatResult, format, path string) (string, error) {
	data, err := Render(results, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		base := "seats"
		if len(results) > 0 {
			base = shared.SafeFilename(results[0].RegistrationNumber) + "_seats"
		}
		path = base + "." + Extension(format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// Extension returns the file extension for a format name, without the dot.
func Extension(format string) string {
	switch format {
	case FormatMarkdown, "md":
		return "md"
	case FormatText, "text":
		return "txt"
	default:
		return format
	}
}

// SaveDownload creates path and streams into it with fetch. A partial file is removed on failure.
func SaveDownload(path string, fetch func(io.Writer) (int64, error)) (int64, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	n, err := fetch(f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close file: %w", cerr)
	}
	if err != nil {
		os.Remove(path)
		return n, err
	}
	return n, nil
}

// BatchRow is one line of a batch lookup report.
type BatchRow struct {
	RollNumber string
	Date       string
	SessionID  string
	Status     models.Status
	Message    string
	Results    []models.SeatResult
}

// BatchReportCSV renders batch rows with one line per request and the first seat found.
func BatchReportCSV(rows []BatchRow) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Roll Number", "Date", "Status", "Exams", "Room", "Seat", "Venue", "Session ID", "Message"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range rows {
		var room, seat, venue string
		if len(row.Results) > 0 {
			room, seat, venue = row.Results[0].RoomNumber, row.Results[0].SeatNumber, row.Results[0].VenueName
		}
		record := []string{
			row.RollNumber,
			row.Date,
			string(row.Status),
			strconv.Itoa(len(row.Results)),
			room,
			seat,
			venue,
			row.SessionID,
			row.Message,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteBatchReport writes [BatchReportCSV] output to path.
func WriteBatchReport(rows []BatchRow, path string) error {
	data, err := BatchReportCSV(rows)
	if err != nil {
		return fmt.Errorf("failed to generate batch report: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write batch report: %w", err)
	}
	return nil
}
