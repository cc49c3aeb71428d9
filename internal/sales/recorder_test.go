package sales

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/notify"
	"go-pos-terminal/internal/sequence"
	"go-pos-terminal/internal/storage"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	classic = models.Product{ID: 1, Name: "Classic MilkTea", Price: decimal.NewFromInt(89), Category: "MilkTea Series", Active: true, InStock: true}
	taro    = models.Product{ID: 2, Name: "Taro MilkTea", Price: decimal.NewFromInt(95), Category: "MilkTea Series", Active: true, InStock: true}
)

type fixture struct {
	kv       *storage.MemoryKV
	recorder *Recorder
	notes    *notify.Log
}

func newFixture() fixture {
	kv := storage.NewMemoryKV()
	now := func() time.Time { return time.Date(2024, 3, 15, 14, 5, 0, 0, time.UTC) }
	notes := notify.NewLog(kv, notify.DefaultLimit, now)
	r := NewRecorder(NewStore(kv), sequence.NewGenerator(kv, now), notes, now, "₱")
	return fixture{kv: kv, recorder: r, notes: notes}
}

func cartOf(lines ...models.CartLine) []models.CartLine { return lines }

func line(p models.Product, qty int) models.CartLine {
	l := models.NewCartLine(p, nil)
	l.Quantity = qty
	return l
}

func TestConfirmSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	sale, err := f.recorder.ConfirmSale(ctx, cartOf(line(classic, 1), line(taro, 2)), models.TakeOut, models.GCash)
	require.NoError(t, err)
	assert.Equal(t, models.SaleID("#01"), sale.ID)
	assert.Equal(t, "279", sale.Total.String())

	t.Run("total survives a reload", func(t *testing.T) {
		raw, _, _ := f.kv.Get(ctx, storage.KeySales)
		var reloaded []models.Sale
		require.NoError(t, json.Unmarshal([]byte(raw), &reloaded))
		require.Len(t, reloaded, 1)
		assert.True(t, reloaded[0].Total.Equal(decimal.NewFromInt(279)))
		assert.Equal(t, models.TakeOut, reloaded[0].OrderType)
		assert.Equal(t, models.GCash, reloaded[0].PaymentMethod)
		assert.True(t, reloaded[0].Date.Equal(sale.Date))

		again, err := json.Marshal(reloaded)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(again))
	})

	t.Run("a notification describes the order", func(t *testing.T) {
		notes := f.notes.List(ctx)
		require.Len(t, notes, 1)
		assert.Equal(t, "🎉 Take Out order completed! Order #01 - Classic MilkTea (1x), Taro MilkTea (2x) - GCash payment - ₱279.00", notes[0].Message)
		assert.Equal(t, sale.ID, notes[0].OrderData.ID)
	})

	t.Run("next sale gets the next id", func(t *testing.T) {
		next, err := f.recorder.ConfirmSale(ctx, cartOf(line(classic, 1)), "", "")
		require.NoError(t, err)
		assert.Equal(t, models.SaleID("#02"), next.ID)
		assert.Equal(t, models.DineIn, next.OrderType)
		assert.Equal(t, models.Cash, next.PaymentMethod)

		last, ok := f.recorder.Last()
		require.True(t, ok)
		assert.Equal(t, next.ID, last.ID)
	})
}

func TestConfirmSaleCopiesLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	lines := cartOf(models.NewCartLine(classic, models.Addons{{ID: "pearls", Name: "Pearls", Price: decimal.NewFromInt(15), Quantity: 1}}))

	sale, err := f.recorder.ConfirmSale(ctx, lines, models.DineIn, models.Cash)
	require.NoError(t, err)
	lines[0].Name = "changed"
	lines[0].Addons[0].Name = "changed"

	stored, ok := f.recorder.Store().Find(ctx, sale.ID)
	require.True(t, ok)
	assert.Equal(t, "Classic MilkTea", stored.Items[0].Name)
	assert.Equal(t, "Pearls", stored.Items[0].Addons[0].Name)
	assert.Equal(t, "104", stored.Total.String())
}

func TestConfirmSaleRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.recorder.ConfirmSale(ctx, nil, models.DineIn, models.Cash)
	assert.Equal(t, ErrEmptyCart, err)

	_, err = f.recorder.ConfirmSale(ctx, cartOf(line(classic, 1)), "Drive Thru", models.Cash)
	assert.True(t, errors.Is(err, models.ErrInvalidOrderType))

	_, err = f.recorder.ConfirmSale(ctx, cartOf(line(classic, 1)), models.DineIn, "Card")
	assert.True(t, errors.Is(err, models.ErrInvalidPaymentMethod))

	st, _ := sequence.NewGenerator(f.kv, nil).Peek(ctx)
	assert.Equal(t, 0, st.Counter, "rejected checkouts do not consume an id")

	t.Run("storage failure is surfaced", func(t *testing.T) {
		f.kv.FailWrites = errors.New("quota exceeded")
		_, err := f.recorder.ConfirmSale(ctx, cartOf(line(classic, 1)), models.DineIn, models.Cash)
		assert.True(t, storage.IsWriteError(err))
	})
}

func TestEditSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sale, err := f.recorder.ConfirmSale(ctx, cartOf(line(classic, 1), line(taro, 2)), models.DineIn, models.Cash)
	require.NoError(t, err)

	edited, err := f.recorder.EditSale(ctx, sale.ID, Chain(
		SetQuantity(0, 3),
		AddProduct(taro),
		SetPaymentMethod(models.GCash),
		SetOrderType(models.Delivery),
	))
	require.NoError(t, err)
	assert.Equal(t, 3, edited.Items[0].Quantity)
	assert.Equal(t, 3, edited.Items[1].Quantity)
	assert.Equal(t, "552", edited.Total.String())
	assert.Equal(t, models.GCash, edited.PaymentMethod)

	notes := f.notes.List(ctx)
	require.Len(t, notes, 1, "the notification is updated in place")
	assert.Equal(t, "552", notes[0].OrderData.Total.String())
	assert.Contains(t, notes[0].Message, "edited")

	t.Run("failed edits leave the sale alone", func(t *testing.T) {
		_, err := f.recorder.EditSale(ctx, sale.ID, Chain(SetQuantity(0, 10), RemoveItem(5)))
		assert.True(t, errors.Is(err, ErrItemNotFound))

		_, err = f.recorder.EditSale(ctx, sale.ID, SetQuantity(0, 0))
		assert.True(t, errors.Is(err, ErrInvalidQuantity))

		stored, _ := f.recorder.Store().Find(ctx, sale.ID)
		assert.Equal(t, 3, stored.Items[0].Quantity)
	})

	t.Run("last item cannot be removed", func(t *testing.T) {
		_, err := f.recorder.EditSale(ctx, sale.ID, Chain(RemoveItem(1), RemoveItem(0)))
		assert.Equal(t, ErrLastItem, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := f.recorder.EditSale(ctx, "#99", SetQuantity(0, 1))
		assert.True(t, errors.Is(err, ErrSaleNotFound))
	})
}

func TestEditThenDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sale, err := f.recorder.ConfirmSale(ctx, cartOf(line(classic, 1)), models.DineIn, models.Cash)
	require.NoError(t, err)
	other, err := f.recorder.ConfirmSale(ctx, cartOf(line(taro, 1)), models.DineIn, models.Cash)
	require.NoError(t, err)

	_, err = f.recorder.EditSale(ctx, sale.ID, SetQuantity(0, 2))
	require.NoError(t, err)
	require.NoError(t, f.recorder.DeleteSale(ctx, sale.ID))

	_, ok := f.recorder.Store().Find(ctx, sale.ID)
	assert.False(t, ok)
	for _, n := range f.notes.List(ctx) {
		require.NotNil(t, n.OrderData)
		assert.NotEqual(t, sale.ID, n.OrderData.ID)
	}
	_, ok = f.recorder.Store().Find(ctx, other.ID)
	assert.True(t, ok)

	assert.True(t, errors.Is(f.recorder.DeleteSale(ctx, sale.ID), ErrSaleNotFound))
}

func TestSameIDOnTwoDays(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV()
	clock := time.Date(2024, 3, 15, 14, 5, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	notes := notify.NewLog(kv, notify.DefaultLimit, now)
	r := NewRecorder(NewStore(kv), sequence.NewGenerator(kv, now), notes, now, "₱")

	yesterday, err := r.ConfirmSale(ctx, cartOf(line(classic, 1)), models.DineIn, models.Cash)
	require.NoError(t, err)
	clock = time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC)
	today, err := r.ConfirmSale(ctx, cartOf(line(taro, 1)), models.DineIn, models.Cash)
	require.NoError(t, err)
	require.Equal(t, yesterday.ID, today.ID)

	found, ok := r.Store().Find(ctx, "#01")
	require.True(t, ok)
	assert.True(t, found.Date.Equal(today.Date), "the newest sale wins")

	_, err = r.EditSale(ctx, "#01", SetPaymentMethod(models.GCash))
	require.NoError(t, err)
	all := r.Store().List(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, models.Cash, all[0].PaymentMethod)
	assert.Equal(t, models.GCash, all[1].PaymentMethod)
	assert.True(t, all[1].Date.Equal(today.Date), "editing keeps the sale date")

	list := notes.List(ctx)
	require.Len(t, list, 2)
	assert.Contains(t, list[0].Message, "edited")
	assert.Contains(t, list[0].Message, "Taro MilkTea")
	assert.Contains(t, list[1].Message, "completed")
	assert.Contains(t, list[1].Message, "Classic MilkTea")

	require.NoError(t, r.DeleteSale(ctx, "#01"))
	all = r.Store().List(ctx)
	require.Len(t, all, 1)
	assert.Equal(t, "Classic MilkTea", all[0].Items[0].Name)

	list = notes.List(ctx)
	require.Len(t, list, 1)
	assert.True(t, list[0].OrderData.Date.Equal(yesterday.Date))
}

func TestLegacyNumericIDLookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	require.NoError(t, f.kv.Put(ctx, storage.KeySales, `[{"id":1712345678901,"date":"2024-04-05T10:00:00Z","items":[{"id":1,"name":"Classic MilkTea","price":89,"quantity":1}],"total":89}]`))

	edited, err := f.recorder.EditSale(ctx, "1712345678901", SetQuantity(0, 2))
	require.NoError(t, err)
	assert.Equal(t, "178", edited.Total.String())
	assert.Equal(t, models.DineIn, edited.OrderType)
}

func TestReopenAndReconfirm(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	sale, err := f.recorder.ConfirmSale(ctx, cartOf(line(classic, 1)), models.DineIn, models.Cash)
	require.NoError(t, err)

	reopened, err := f.recorder.ReopenSale(ctx, sale.ID)
	require.NoError(t, err)
	assert.Empty(t, f.recorder.Store().List(ctx))

	again, err := f.recorder.ReconfirmSale(ctx, reopened, append(reopened.Items, line(taro, 1)), models.DineIn, models.Cash)
	require.NoError(t, err)
	assert.Equal(t, sale.ID, again.ID)
	assert.Equal(t, "184", again.Total.String())
	assert.Len(t, f.notes.List(ctx), 1)

	next, err := f.recorder.ConfirmSale(ctx, cartOf(line(taro, 1)), models.DineIn, models.Cash)
	require.NoError(t, err)
	assert.Equal(t, models.SaleID("#02"), next.ID)
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	_, err := f.recorder.ConfirmSale(ctx, cartOf(line(classic, 1)), models.DineIn, models.Cash)
	require.NoError(t, err)

	require.NoError(t, f.recorder.ClearAll(ctx))
	assert.Empty(t, f.recorder.Store().List(ctx))
	assert.Empty(t, f.notes.List(ctx))
	_, ok := f.recorder.Last()
	assert.False(t, ok)

	sale, err := f.recorder.ConfirmSale(ctx, cartOf(line(classic, 1)), models.DineIn, models.Cash)
	require.NoError(t, err)
	assert.Equal(t, models.SaleID("#01"), sale.ID)
}
