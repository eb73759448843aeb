package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const pageWidth = 277.0 // A4 landscape minus margins

// PDFExporter renders datasets into a landscape table, one section per group.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate("pdf"); err != nil {
		return nil, err
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if data.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(data.Title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	columns := make([]string, 0, len(data.Headers))
	for _, header := range data.Headers {
		if header != data.GroupBy {
			columns = append(columns, header)
		}
	}
	if len(columns) == 0 {
		columns = data.Headers
	}
	colWidth := pageWidth / float64(len(columns))

	writeHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for _, header := range columns {
			pdf.CellFormat(colWidth, 7, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}

	current := ""
	started := false
	for _, row := range data.Rows {
		if data.GroupBy != "" && (!started || row[data.GroupBy] != current) {
			current = row[data.GroupBy]
			if started {
				pdf.Ln(3)
			}
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, tr(current), "", 1, "L", false, 0, "")
			writeHeader()
		} else if !started {
			writeHeader()
		}
		started = true

		pdf.SetFont("Arial", "", 9)
		for _, header := range columns {
			pdf.CellFormat(colWidth, 6, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
	if !started {
		writeHeader()
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
