package report

import (
	"fmt"
	"io"

	"clausewise/internal/models"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders the report as a simple A4 document with the same section
// order as Markdown.
func WritePDF(r *models.Report, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	// core fonts are cp1252, translate from UTF-8
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	heading := func(size float64, text string) {
		pdf.SetFont("Helvetica", "B", size)
		pdf.CellFormat(0, 8, tr(text), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
	}
	para := func(text string) {
		pdf.MultiCell(0, 5, tr(text), "", "L", false)
		pdf.Ln(2)
	}

	heading(16, r.Filename)
	para(fmt.Sprintf("Format: %s, %d characters, %d clauses", r.Format, r.Characters, len(r.Clauses)))

	heading(14, "Document type")
	para(fmt.Sprintf("%s (%.1f%%)", r.Classification.Label, r.Classification.Score*100))
	for _, ls := range r.Classification.AllLabels {
		pdf.CellFormat(80, 6, tr(ls.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.3f", ls.Score), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	heading(14, "Named entities")
	if len(r.Entities) == 0 {
		para("No entities found.")
	}
	for _, e := range r.Entities {
		para(fmt.Sprintf("%s [%s] %d-%d (%.2f)", e.Text, e.Type, e.Start, e.End, e.Confidence))
	}

	heading(14, "Clauses")
	for _, c := range r.Clauses {
		heading(12, fmt.Sprintf("Clause %d", c.Index))
		para(c.Text)
		if c.Simplified != "" {
			pdf.SetFont("Helvetica", "I", 11)
			para("Plain English: " + c.Simplified)
			pdf.SetFont("Helvetica", "", 11)
		}
	}
	if r.Truncated {
		para("Only the first clauses were simplified.")
	}

	return pdf.Output(w)
}
