package export

import (
	"io"
	"time"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/reports"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	SalesSheet   = "Sales"
	SummarySheet = "Summary"
)

// WriteSalesXLSX writes a workbook with the sales table on one sheet and
// the totals and top sellers on another.
func WriteSalesXLSX(w io.Writer, sales []models.Sale, loc *time.Location, currency string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SalesSheet); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "create style")
	}

	for col, title := range Header {
		if err := setCell(f, SalesSheet, col+1, 1, title); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(SalesSheet, "A1", "E1", bold); err != nil {
		return errors.Wrap(err, "style header")
	}
	for i, r := range Rows(sales, loc) {
		total, _ := sales[i].Total.Float64()
		for col, v := range []interface{}{r.OrderID, r.DateTime, r.Items, r.Quantity, total} {
			if err := setCell(f, SalesSheet, col+1, i+2, v); err != nil {
				return err
			}
		}
	}
	if err := setWidths(f, SalesSheet, map[string]float64{"B": 22, "C": 60}); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return errors.Wrap(err, "create summary sheet")
	}
	row := 1
	for _, line := range summaryLines(sales, currency) {
		if err := setCell(f, SummarySheet, 1, row, line[0]); err != nil {
			return err
		}
		if err := setCell(f, SummarySheet, 2, row, line[1]); err != nil {
			return err
		}
		row++
	}

	row++
	for col, title := range []string{"Top Item", "Quantity", "Revenue"} {
		if err := setCell(f, SummarySheet, col+1, row, title); err != nil {
			return err
		}
	}
	headerRow := row
	for _, item := range reports.TopItems(sales, 5) {
		row++
		revenue, _ := item.Revenue.Float64()
		for col, v := range []interface{}{item.Name, item.Quantity, revenue} {
			if err := setCell(f, SummarySheet, col+1, row, v); err != nil {
				return err
			}
		}
	}
	from, err := excelize.CoordinatesToCellName(1, headerRow)
	if err != nil {
		return errors.Wrap(err, "cell name")
	}
	to, err := excelize.CoordinatesToCellName(3, headerRow)
	if err != nil {
		return errors.Wrap(err, "cell name")
	}
	if err := f.SetCellStyle(SummarySheet, from, to, bold); err != nil {
		return errors.Wrap(err, "style summary")
	}
	if err := setWidths(f, SummarySheet, map[string]float64{"A": 24}); err != nil {
		return err
	}

	return errors.Wrap(f.Write(w), "write workbook")
}

func setWidths(f *excelize.File, sheet string, widths map[string]float64) error {
	for col, width := range widths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return errors.Wrapf(err, "width of %s!%s", sheet, col)
		}
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return errors.Wrap(err, "cell name")
	}
	return errors.Wrapf(f.SetCellValue(sheet, cell, v), "set %s!%s", sheet, cell)
}
