// Package notify keeps the bounded log of sale events shown on the terminal.
package notify

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/storage"

	log "github.com/sirupsen/logrus"
)

// DefaultLimit is how many notifications are kept.
const DefaultLimit = 50

// Log stores notifications newest first.
type Log struct {
	kv     storage.KV
	limit  int
	now    func() time.Time
	lastID int64
}

func NewLog(kv storage.KV, limit int, now func() time.Time) *Log {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if now == nil {
		now = time.Now
	}
	return &Log{kv: kv, limit: limit, now: now}
}

// List returns the stored notifications. Unreadable data reads as none.
func (l *Log) List(ctx context.Context) []models.Notification {
	var notes []models.Notification
	if _, err := storage.LoadJSON(ctx, l.kv, storage.KeyNotifications, &notes); err != nil {
		log.WithError(err).Warn("failed to load notifications")
		return []models.Notification{}
	}
	if notes == nil {
		notes = []models.Notification{}
	}
	return notes
}

func (l *Log) save(ctx context.Context, notes []models.Notification) error {
	if len(notes) > l.limit {
		notes = notes[:l.limit]
	}
	return storage.SaveJSON(ctx, l.kv, storage.KeyNotifications, notes)
}

// nextID is the current unix millisecond, bumped past anything already
// handed out so two events in the same millisecond stay distinct.
func (l *Log) nextID(notes []models.Notification) int64 {
	id := l.now().UnixMilli()
	for _, n := range notes {
		if n.ID > l.lastID {
			l.lastID = n.ID
		}
	}
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	return id
}

func snapshot(sale *models.Sale) *models.Sale {
	if sale == nil {
		return nil
	}
	cp := sale.Clone()
	return &cp
}

// Add prepends a notification and drops the oldest beyond the limit.
func (l *Log) Add(ctx context.Context, message string, sale *models.Sale) (models.Notification, error) {
	notes := l.List(ctx)
	n := models.Notification{
		ID:        l.nextID(notes),
		Message:   message,
		Timestamp: l.now().UTC().Truncate(time.Millisecond),
		OrderData: snapshot(sale),
	}
	notes = append([]models.Notification{n}, notes...)
	if err := l.save(ctx, notes); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// about reports whether n is about the sale recorded as id at date. Daily
// ids repeat, so the id alone does not tell two days' sales apart.
func about(n models.Notification, id models.SaleID, date time.Time) bool {
	return n.OrderData != nil && n.OrderData.ID == id && n.OrderData.Date.Equal(date)
}

// UpsertForSale rewrites the notification about the sale recorded as id at
// date so it describes sale, or prepends a new one when there is none.
func (l *Log) UpsertForSale(ctx context.Context, id models.SaleID, date time.Time, message string, sale *models.Sale) (models.Notification, error) {
	notes := l.List(ctx)
	for i := range notes {
		if !about(notes[i], id, date) {
			continue
		}
		notes[i].Message = message
		notes[i].OrderData = snapshot(sale)
		notes[i].Timestamp = l.now().UTC().Truncate(time.Millisecond)
		if err := l.save(ctx, notes); err != nil {
			return models.Notification{}, err
		}
		return notes[i], nil
	}
	return l.Add(ctx, message, sale)
}

// RemoveForSale drops the notifications about the sale recorded as id at
// date. Other days' sales sharing the id keep theirs.
func (l *Log) RemoveForSale(ctx context.Context, id models.SaleID, date time.Time) (int, error) {
	notes := l.List(ctx)
	kept := notes[:0]
	for _, n := range notes {
		if about(n, id, date) {
			continue
		}
		kept = append(kept, n)
	}
	removed := len(notes) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, l.save(ctx, kept)
}

func (l *Log) MarkAllRead(ctx context.Context) error {
	notes := l.List(ctx)
	for i := range notes {
		notes[i].Read = true
	}
	return l.save(ctx, notes)
}

func (l *Log) UnreadCount(ctx context.Context) int {
	n := 0
	for _, note := range l.List(ctx) {
		if !note.Read {
			n++
		}
	}
	return n
}

func (l *Log) Clear(ctx context.Context) error {
	return l.save(ctx, []models.Notification{})
}

// ReplaceAll swaps the log wholesale, keeping at most the limit.
func (l *Log) ReplaceAll(ctx context.Context, notes []models.Notification) error {
	if notes == nil {
		notes = []models.Notification{}
	}
	return l.save(ctx, notes)
}

// ItemsSummary renders "Classic MilkTea (2x) + Pearls, Taro MilkTea (1x)".
func ItemsSummary(items []models.SaleLine) string {
	parts := make([]string, len(items))
	for i, item := range items {
		text := item.Name + " (" + strconv.Itoa(item.Quantity) + "x)"
		if len(item.Addons) > 0 {
			names := make([]string, len(item.Addons))
			for j, a := range item.Addons {
				names[j] = a.Name
			}
			text += " + " + strings.Join(names, ", ")
		}
		parts[i] = text
	}
	return strings.Join(parts, ", ")
}

// CompletedMessage is the message logged when a sale is confirmed.
func CompletedMessage(sale models.Sale, currency string) string {
	return "🎉 " + string(sale.OrderType) + " order completed! Order " + string(sale.ID) +
		" - " + ItemsSummary(sale.Items) +
		" - " + string(sale.PaymentMethod) + " payment - " + currency + sale.Total.StringFixed(2)
}

// EditedMessage is the message logged when a sale is changed afterwards.
func EditedMessage(sale models.Sale, currency string) string {
	return "✏️ Order " + string(sale.ID) + " edited! " + string(sale.OrderType) +
		" - " + ItemsSummary(sale.Items) +
		" - " + string(sale.PaymentMethod) + " - " + currency + sale.Total.StringFixed(2)
}
