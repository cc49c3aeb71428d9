package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

var saleDay = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func sale(id models.SaleID) *models.Sale {
	return saleOn(id, saleDay)
}

func saleOn(id models.SaleID, date time.Time) *models.Sale {
	return &models.Sale{
		ID:   id,
		Date: date,
		Items: []models.SaleLine{{
			ProductID: 1, Name: "Classic MilkTea", Price: decimal.NewFromInt(104), BasePrice: decimal.NewFromInt(89), Quantity: 2,
			Addons: models.Addons{{ID: "pearls", Name: "Pearls", Price: decimal.NewFromInt(15), Quantity: 1}},
		}},
		Total:         decimal.NewFromInt(208),
		OrderType:     models.TakeOut,
		PaymentMethod: models.GCash,
	}
}

func TestAddKeepsNewestFiftyWithUniqueIDs(t *testing.T) {
	ctx := context.Background()
	l := NewLog(storage.NewMemoryKV(), DefaultLimit, fixedClock())

	for i := 1; i <= 55; i++ {
		_, err := l.Add(ctx, fmt.Sprintf("event %d", i), nil)
		require.NoError(t, err)
	}

	notes := l.List(ctx)
	require.Len(t, notes, 50)
	assert.Equal(t, "event 55", notes[0].Message)
	assert.Equal(t, "event 6", notes[49].Message)

	seen := map[int64]bool{}
	for _, n := range notes {
		assert.False(t, seen[n.ID], "duplicate id %d", n.ID)
		seen[n.ID] = true
	}
	assert.Greater(t, notes[0].ID, notes[1].ID)
	assert.Equal(t, 50, l.UnreadCount(ctx))
}

func TestUpsertAndRemoveForSale(t *testing.T) {
	ctx := context.Background()
	l := NewLog(storage.NewMemoryKV(), DefaultLimit, fixedClock())

	_, err := l.Add(ctx, "first", sale("#01"))
	require.NoError(t, err)
	_, err = l.Add(ctx, "unrelated", nil)
	require.NoError(t, err)

	edited := sale("#01")
	edited.Items[0].Quantity = 3
	_, err = l.UpsertForSale(ctx, edited.ID, edited.Date, "edited", edited)
	require.NoError(t, err)

	notes := l.List(ctx)
	require.Len(t, notes, 2)
	assert.Equal(t, "edited", notes[1].Message)
	assert.Equal(t, 3, notes[1].OrderData.Items[0].Quantity)

	_, err = l.UpsertForSale(ctx, "#02", saleDay, "new", sale("#02"))
	require.NoError(t, err)
	assert.Len(t, l.List(ctx), 3)

	removed, err := l.RemoveForSale(ctx, "#01", saleDay)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	for _, n := range l.List(ctx) {
		if n.OrderData != nil {
			assert.NotEqual(t, models.SaleID("#01"), n.OrderData.ID)
		}
	}
}

func TestSameIDOnAnotherDay(t *testing.T) {
	ctx := context.Background()
	l := NewLog(storage.NewMemoryKV(), DefaultLimit, fixedClock())

	yesterday := saleOn("#01", saleDay)
	today := saleOn("#01", saleDay.AddDate(0, 0, 1))
	_, err := l.Add(ctx, "yesterday", yesterday)
	require.NoError(t, err)
	_, err = l.Add(ctx, "today", today)
	require.NoError(t, err)

	_, err = l.UpsertForSale(ctx, yesterday.ID, yesterday.Date, "yesterday edited", yesterday)
	require.NoError(t, err)
	notes := l.List(ctx)
	require.Len(t, notes, 2)
	assert.Equal(t, "today", notes[0].Message)
	assert.Equal(t, "yesterday edited", notes[1].Message)

	removed, err := l.RemoveForSale(ctx, today.ID, today.Date)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	notes = l.List(ctx)
	require.Len(t, notes, 1)
	assert.Equal(t, "yesterday edited", notes[0].Message)
}

func TestRemoveMatchesLegacyNumericIDs(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Put(ctx, storage.KeyNotifications, `[{"id":1,"message":"old","orderData":{"id":1712345678901,"items":[]}}]`))
	l := NewLog(kv, DefaultLimit, nil)

	removed, err := l.RemoveForSale(ctx, "1712345678901", time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestMarkAllReadAndClear(t *testing.T) {
	ctx := context.Background()
	l := NewLog(storage.NewMemoryKV(), DefaultLimit, nil)
	_, _ = l.Add(ctx, "a", nil)
	_, _ = l.Add(ctx, "b", nil)

	require.NoError(t, l.MarkAllRead(ctx))
	assert.Equal(t, 0, l.UnreadCount(ctx))

	require.NoError(t, l.Clear(ctx))
	assert.Empty(t, l.List(ctx))
}

func TestCorruptLogReadsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	require.NoError(t, kv.Put(ctx, storage.KeyNotifications, "[{"))
	l := NewLog(kv, DefaultLimit, nil)
	assert.Empty(t, l.List(ctx))

	_, err := l.Add(ctx, "recovered", nil)
	require.NoError(t, err)
	assert.Len(t, l.List(ctx), 1)
}

func TestMessages(t *testing.T) {
	s := sale("#07")
	assert.Equal(t,
		"🎉 Take Out order completed! Order #07 - Classic MilkTea (2x) + Pearls - GCash payment - ₱208.00",
		CompletedMessage(*s, "₱"))
	assert.Equal(t,
		"✏️ Order #07 edited! Take Out - Classic MilkTea (2x) + Pearls - GCash - ₱208.00",
		EditedMessage(*s, "₱"))
}
