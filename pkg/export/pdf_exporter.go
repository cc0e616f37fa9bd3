package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders tables into a letterheaded tabular PDF.
type PDFExporter struct {
	letterhead string
}

// NewPDFExporter constructs a PDF exporter. The letterhead is printed on
// every document when non-empty.
func NewPDFExporter(letterhead string) *PDFExporter {
	return &PDFExporter{letterhead: letterhead}
}

// Render creates a PDF document with a letterhead, title and table body.
func (e *PDFExporter) Render(table Table, title string) ([]byte, error) {
	if len(table.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if e.letterhead != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, e.letterhead, "", 1, "C", false, 0, "")
	}
	if title != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 9, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(table.Headers))
	for _, header := range table.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range table.Rows {
		for _, header := range table.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Letter creates a single-page letter with a letterhead, title and body
// paragraphs. Used for admission letters.
func (e *PDFExporter) Letter(title string, paragraphs []string) ([]byte, error) {
	if title == "" {
		return nil, fmt.Errorf("letter requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	if e.letterhead != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, e.letterhead, "", 1, "C", false, 0, "")
		pdf.Ln(4)
	}

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 9, strings.ToUpper(title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Arial", "", 11)
	for _, paragraph := range paragraphs {
		pdf.MultiCell(0, 6, paragraph, "", "L", false)
		pdf.Ln(3)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render letter: %w", err)
	}
	return buf.Bytes(), nil
}
