package report

import (
	"io"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF typesets the Markdown document line by line into a Letter-format
// PDF. This is a layout pass, not a Markdown engine: it understands exactly
// the constructs RenderMarkdown emits.
func RenderPDF(markdown string, w io.Writer) error {
	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(36, 36, 36)
	pdf.SetAutoPageBreak(true, 36)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, raw := range strings.Split(markdown, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "":
			pdf.Ln(10)
		case line == "---":
			pdf.Ln(6)
		case strings.HasPrefix(line, "# "):
			pdf.SetFont("Helvetica", "B", 18)
			pdf.MultiCell(0, 22, tr(plainText(strings.TrimPrefix(line, "# "))), "", "L", false)
		case strings.HasPrefix(line, "## "):
			pdf.Ln(12)
			pdf.SetFont("Helvetica", "B", 14)
			pdf.MultiCell(0, 18, tr(plainText(strings.TrimPrefix(line, "## "))), "", "L", false)
		case strings.HasPrefix(line, "### "):
			pdf.Ln(8)
			pdf.SetFont("Helvetica", "B", 12)
			pdf.MultiCell(0, 16, tr(plainText(strings.TrimPrefix(line, "### "))), "", "L", false)
		case strings.HasPrefix(line, "- "):
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 14, tr("• "+plainText(strings.TrimPrefix(line, "- "))), "", "L", false)
		default:
			pdf.SetFont("Helvetica", "", 11)
			pdf.MultiCell(0, 14, tr(plainText(line)), "", "L", false)
		}
	}

	return pdf.Output(w)
}

// plainText drops inline bold/italic markers; the PDF carries weight through
// fonts, not markup.
func plainText(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.ReplaceAll(s, "_None_", "None")
}
