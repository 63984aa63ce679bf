package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Column widths in mm, tuned so the title column absorbs most of an A4 page.
var pdfColumnWidths = []float64{24, 16, 80, 26, 14, 30}

// PDFExporter renders a schedule as a one-table PDF document.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with the project title, the segment table and a
// runtime summary line.
func (e *PDFExporter) Render(schedule Schedule) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if schedule.ProjectTitle != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, schedule.ProjectTitle, "", 1, "C", false, 0, "")
	}
	if !schedule.GeneratedAt.IsZero() {
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 6, "Generated "+schedule.GeneratedAt.Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	for i, column := range scheduleColumns {
		pdf.CellFormat(pdfColumnWidths[i], 8, column, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, entry := range schedule.Entries {
		for i, value := range entry.record() {
			align := ""
			if i >= 3 { // numeric and flag columns
				align = "C"
			}
			pdf.CellFormat(pdfColumnWidths[i], 7, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.SetFont("Arial", "I", 9)
	summary := fmt.Sprintf("%d segments, %d minutes total", len(schedule.Entries), schedule.TotalMinutes())
	pdf.CellFormat(0, 6, summary, "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
