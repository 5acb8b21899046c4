package server

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

var (
	pdfHeaderFill = [3]int{27, 75, 115}
	pdfStripeFill = [3]int{248, 250, 252}
)

// seatTable is the content of a one-page seat allocation export.
type seatTable struct {
	Title   string
	Details []string  // Lines printed under the title
	Columns []string  // Table header
	Widths  []float64 // Column widths in mm
	Rows    [][]string
}

// renderPDF lays out t on a single A4 page: a title cell, detail lines, then one table row per seat.
func renderPDF(t seatTable) ([]byte, error) {
	if len(t.Columns) != len(t.Widths) {
		return nil, fmt.Errorf("pdf table has %d columns but %d widths", len(t.Columns), len(t.Widths))
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetTitle(t.Title, false)
	pdf.SetCreator(StubVersion, false)
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr(t.Title), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	for _, line := range t.Details {
		pdf.CellFormat(0, 7, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(pdfHeaderFill[0], pdfHeaderFill[1], pdfHeaderFill[2])
	pdf.SetTextColor(255, 255, 255)
	for i, col := range t.Columns {
		pdf.CellFormat(t.Widths[i], 9, tr(col), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(pdfStripeFill[0], pdfStripeFill[1], pdfStripeFill[2])
	for n, row := range t.Rows {
		for i := range t.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pdf.CellFormat(t.Widths[i], 8, tr(cell), "1", 0, "C", n%2 == 1, 0, "")
		}
		pdf.Ln(-1)
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return out.Bytes(), nil
}
