// Package export renders the sales history as CSV, XLSX and PDF reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/reports"

	"github.com/pkg/errors"
)

// DateTimeLayout is how sale dates appear in every report.
const DateTimeLayout = "1/2/2006, 3:04:05 PM"

// Header is the column row shared by the CSV and XLSX reports.
var Header = []string{"Order ID", "Date & Time", "Items", "Quantity", "Total"}

// Row is one sale flattened for a report.
type Row struct {
	OrderID  string
	DateTime string
	Items    string
	Quantity int
	Total    string
}

// Rows flattens sales in their stored order. Dates are shown in loc.
func Rows(sales []models.Sale, loc *time.Location) []Row {
	if loc == nil {
		loc = time.Local
	}
	rows := make([]Row, len(sales))
	for i, s := range sales {
		rows[i] = Row{
			OrderID:  string(s.ID),
			DateTime: s.Date.In(loc).Format(DateTimeLayout),
			Items:    ItemsList(s.Items),
			Quantity: s.ItemCount(),
			Total:    s.Total.String(),
		}
	}
	return rows
}

// ItemsList renders "Classic MilkTea (2x); Taro MilkTea (1x)".
func ItemsList(items []models.SaleLine) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = fmt.Sprintf("%s (%dx)", item.Name, item.Quantity)
	}
	return strings.Join(parts, "; ")
}

// FileName is the suggested download name for a report in format ext.
func FileName(t time.Time, ext string) string {
	return "sales_report_" + t.Format("2006-01-02") + "." + ext
}

// WriteSalesCSV writes the sales report as CSV.
func WriteSalesCSV(w io.Writer, sales []models.Sale, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, r := range Rows(sales, loc) {
		record := []string{r.OrderID, r.DateTime, r.Items, strconv.Itoa(r.Quantity), r.Total}
		if err := cw.Write(record); err != nil {
			return errors.Wrapf(err, "write csv row %s", r.OrderID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

// summaryLines are the figures printed under the XLSX and PDF tables.
func summaryLines(sales []models.Sale, currency string) [][2]string {
	sum := reports.Summarize(sales)
	return [][2]string{
		{"Orders", strconv.Itoa(sum.Orders)},
		{"Items Sold", strconv.Itoa(sum.TotalItems)},
		{"Revenue", currency + sum.Revenue.StringFixed(2)},
		{"Average Order", currency + sum.AverageOrder.StringFixed(2)},
	}
}
