package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"go-pos-terminal/internal/models"

	"github.com/jung-kurt/gofpdf"
	"github.com/pkg/errors"
)

// PDFOptions describe the report page.
type PDFOptions struct {
	Title    string
	Subtitle string
	Currency string
	Location *time.Location
}

// pdfCurrency replaces symbols the core PDF fonts cannot draw.
func pdfCurrency(symbol string) string {
	switch symbol {
	case "₱":
		return "PHP "
	case "":
		return ""
	}
	for _, r := range symbol {
		if r > 0xff {
			return "PHP "
		}
	}
	return symbol
}

// WriteSalesPDF writes an A4 sales report: a title, the summary figures
// and one table row per sale.
func WriteSalesPDF(w io.Writer, sales []models.Sale, opts PDFOptions) error {
	currency := pdfCurrency(opts.Currency)
	title := opts.Title
	if title == "" {
		title = "Sales Report"
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(title), "", 1, "C", false, 0, "")
	if opts.Subtitle != "" {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(0, 8, tr(opts.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 11)
	for _, line := range summaryLines(sales, currency) {
		pdf.CellFormat(0, 7, fmt.Sprintf("%s: %s", line[0], line[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	widths := []float64{20, 42, 88, 15, 25}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range Header {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i, r := range Rows(sales, opts.Location) {
		items := tr(r.Items)
		if pdf.GetStringWidth(items) > widths[2]-2 {
			items = truncate(pdf, items, widths[2]-2)
		}
		pdf.CellFormat(widths[0], 7, tr(r.OrderID), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[1], 7, r.DateTime, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 7, items, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%d", r.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[4], 7, currency+sales[i].Total.StringFixed(2), "1", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "render pdf")
	}
	return nil
}

func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	const ellipsis = "..."
	for len(s) > 0 && pdf.GetStringWidth(s+ellipsis) > width {
		s = s[:len(s)-1]
	}
	return strings.TrimSpace(s) + ellipsis
}
