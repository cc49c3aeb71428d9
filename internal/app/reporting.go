package app

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"go-pos-terminal/internal/backup"
	"go-pos-terminal/internal/export"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/reports"

	"github.com/pkg/errors"
)

var ErrUnknownFormat = errors.New("unknown export format")

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

func (a *App) Dashboard(ctx context.Context, r reports.Range) (reports.Dashboard, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	products, err := a.catalog.ListProducts(ctx)
	if err != nil {
		return reports.Dashboard{}, err
	}
	return reports.BuildDashboard(a.recorder.Store().List(ctx), products, r, a.now(), a.currency), nil
}

func (a *App) RangeTotals(ctx context.Context, r reports.Range) (reports.Totals, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return reports.RangeTotals(a.recorder.Store().List(ctx), r, a.now()), nil
}

func (a *App) TopItems(ctx context.Context, r reports.Range, limit int) ([]reports.ItemStat, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return reports.TopItems(reports.Filter(a.recorder.Store().List(ctx), r, a.now()), limit), nil
}

// SalesIn lists the sales inside r.
func (a *App) SalesIn(ctx context.Context, r reports.Range) []models.Sale {
	a.mu.Lock()
	defer a.mu.Unlock()
	return reports.Filter(a.recorder.Store().List(ctx), r, a.now())
}

// ExportSales writes the sales inside r in format and returns the content
// type and the suggested file name.
func (a *App) ExportSales(ctx context.Context, w io.Writer, format string, r reports.Range) (contentType, fileName string, err error) {
	list := a.SalesIn(ctx, r)
	now := a.now()
	loc := now.Location()

	switch format = strings.ToLower(format); format {
	case FormatCSV, "":
		return "text/csv", export.FileName(now, FormatCSV), export.WriteSalesCSV(w, list, loc)
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.FileName(now, FormatXLSX),
			export.WriteSalesXLSX(w, list, loc, a.currency)
	case FormatPDF:
		from, to := r.Bounds(now)
		subtitle := "All sales"
		if !from.IsZero() || !to.IsZero() {
			subtitle = rangeLabel(from, to)
		}
		opts := export.PDFOptions{Title: "Sales Report", Subtitle: subtitle, Currency: a.currency, Location: loc}
		return "application/pdf", export.FileName(now, FormatPDF), export.WriteSalesPDF(w, list, opts)
	}
	return "", "", errors.Wrapf(ErrUnknownFormat, "%q", format)
}

// rangeLabel names the days of [from, to); a zero bound is open.
func rangeLabel(from, to time.Time) string {
	const layout = "Jan 2, 2006"
	switch {
	case from.IsZero():
		return "Until " + to.AddDate(0, 0, -1).Format(layout)
	case to.IsZero():
		return "Since " + from.Format(layout)
	}
	last := to.AddDate(0, 0, -1)
	if last.Equal(from) {
		return from.Format(layout)
	}
	return from.Format(layout) + " - " + last.Format(layout)
}

// Notifications returns the log and how many entries are unread.
func (a *App) Notifications(ctx context.Context) ([]models.Notification, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notes.List(ctx), a.notes.UnreadCount(ctx)
}

func (a *App) MarkNotificationsRead(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notes.MarkAllRead(ctx)
}

func (a *App) ClearNotifications(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.notes.Clear(ctx)
}

func (a *App) Settings(ctx context.Context) (models.Settings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings.Get(ctx)
}

func (a *App) SetDarkMode(ctx context.Context, on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings.SetDarkMode(ctx, on)
}

func (a *App) SetPrinterDevice(ctx context.Context, device json.RawMessage) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings.SetPrinterDevice(ctx, device)
}

func (a *App) ForgetPrinter(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settings.ForgetPrinter(ctx)
}

// WriteBackup encodes a full backup to w.
func (a *App) WriteBackup(ctx context.Context, w io.Writer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.backup.Write(ctx, w)
}

// BackupFileName is the suggested name for a backup taken now.
func (a *App) BackupFileName() string {
	return backup.FileName(a.now())
}

// RestoreBackup replaces the stores present in the backup read from r and
// empties the cart.
func (a *App) RestoreBackup(ctx context.Context, r io.Reader) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.backup.Import(ctx, r); err != nil {
		return err
	}
	a.cart.Clear()
	a.reopened = nil
	return nil
}
