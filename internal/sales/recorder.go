// Package sales records confirmed orders and keeps them editable afterwards.
package sales

import (
	"context"
	"time"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/notify"
	"go-pos-terminal/internal/sequence"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrSaleNotFound    = errors.New("sale not found")
	ErrLastItem        = errors.New("cannot remove the last item, delete the order instead")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrItemNotFound    = errors.New("order item not found")
)

// Recorder turns carts into sales and keeps the notification log in step.
type Recorder struct {
	store    *Store
	seq      *sequence.Generator
	notes    *notify.Log
	now      func() time.Time
	currency string
	last     *models.Sale
}

func NewRecorder(store *Store, seq *sequence.Generator, notes *notify.Log, now func() time.Time, currency string) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{store: store, seq: seq, notes: notes, now: now, currency: currency}
}

func (r *Recorder) Store() *Store { return r.store }

// ConfirmSale records lines as a new sale with the next daily id. The cart
// is left alone; clearing it is up to the caller. When the sale was stored
// but its notification was not, both the sale and the error are returned.
func (r *Recorder) ConfirmSale(ctx context.Context, lines []models.CartLine, orderType models.OrderType, payment models.PaymentMethod) (*models.Sale, error) {
	sale, err := r.buildSale(lines, orderType, payment)
	if err != nil {
		return nil, err
	}
	if sale.ID, err = r.seq.Next(ctx); err != nil {
		return nil, err
	}
	if err := r.append(ctx, sale); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"sale_id": sale.ID, "total": sale.Total.String(), "payment": sale.PaymentMethod})
	logger.Info("sale recorded")

	if _, err := r.notes.Add(ctx, notify.CompletedMessage(*sale, r.currency), sale); err != nil {
		logger.WithError(err).Error("sale recorded but its notification was not saved")
		return sale, err
	}
	return sale, nil
}

// ReconfirmSale records lines under the id of reopened, a sale that was
// taken back for changes. Its notification is rewritten.
func (r *Recorder) ReconfirmSale(ctx context.Context, reopened models.Sale, lines []models.CartLine, orderType models.OrderType, payment models.PaymentMethod) (*models.Sale, error) {
	sale, err := r.buildSale(lines, orderType, payment)
	if err != nil {
		return nil, err
	}
	sale.ID = reopened.ID
	if err := r.append(ctx, sale); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"sale_id": sale.ID, "total": sale.Total.String()}).Info("reopened sale recorded")

	if _, err := r.notes.UpsertForSale(ctx, reopened.ID, reopened.Date, notify.EditedMessage(*sale, r.currency), sale); err != nil {
		return sale, err
	}
	return sale, nil
}

func (r *Recorder) buildSale(lines []models.CartLine, orderType models.OrderType, payment models.PaymentMethod) (*models.Sale, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if orderType == "" {
		orderType = models.DineIn
	}
	if payment == "" {
		payment = models.Cash
	}
	if !orderType.Valid() {
		return nil, errors.Wrapf(models.ErrInvalidOrderType, "%q", orderType)
	}
	if !payment.Valid() {
		return nil, errors.Wrapf(models.ErrInvalidPaymentMethod, "%q", payment)
	}

	items := make([]models.SaleLine, len(lines))
	for i, l := range lines {
		if l.Quantity < 1 {
			return nil, errors.Wrapf(ErrInvalidQuantity, "line %d", i)
		}
		items[i] = l.Clone()
	}
	sale := &models.Sale{
		Date:          r.now().UTC().Truncate(time.Millisecond),
		Items:         items,
		OrderType:     orderType,
		PaymentMethod: payment,
	}
	sale.Recalculate()
	return sale, nil
}

func (r *Recorder) append(ctx context.Context, sale *models.Sale) error {
	all := append(r.store.List(ctx), *sale)
	if err := r.store.Save(ctx, all); err != nil {
		return err
	}
	cp := sale.Clone()
	r.last = &cp
	return nil
}

// EditSale applies mutate to a copy of the newest sale with id, checks the
// result and stores it with its total recomputed.
func (r *Recorder) EditSale(ctx context.Context, id models.SaleID, mutate Mutator) (*models.Sale, error) {
	all := r.store.List(ctx)
	idx := indexOf(all, id)
	if idx < 0 {
		return nil, errors.Wrapf(ErrSaleNotFound, "%s", id)
	}

	original := all[idx]
	edited := original.Clone()
	if err := mutate(&edited); err != nil {
		return nil, err
	}
	edited.ID = id
	edited.Date = original.Date
	if err := validate(edited); err != nil {
		return nil, err
	}
	edited.Recalculate()

	all[idx] = edited
	if err := r.store.Save(ctx, all); err != nil {
		return nil, err
	}
	if r.isLast(original) {
		cp := edited.Clone()
		r.last = &cp
	}
	log.WithFields(log.Fields{"sale_id": id, "total": edited.Total.String()}).Info("sale edited")

	if _, err := r.notes.UpsertForSale(ctx, id, original.Date, notify.EditedMessage(edited, r.currency), &edited); err != nil {
		return &edited, err
	}
	return &edited, nil
}

func validate(sale models.Sale) error {
	if len(sale.Items) == 0 {
		return ErrLastItem
	}
	for i, item := range sale.Items {
		if item.Quantity < 1 {
			return errors.Wrapf(ErrInvalidQuantity, "item %d", i)
		}
	}
	if !sale.OrderType.Valid() {
		return errors.Wrapf(models.ErrInvalidOrderType, "%q", sale.OrderType)
	}
	if !sale.PaymentMethod.Valid() {
		return errors.Wrapf(models.ErrInvalidPaymentMethod, "%q", sale.PaymentMethod)
	}
	return nil
}

// DeleteSale removes the newest sale with id and the notifications about
// that sale.
func (r *Recorder) DeleteSale(ctx context.Context, id models.SaleID) error {
	all := r.store.List(ctx)
	idx := indexOf(all, id)
	if idx < 0 {
		return errors.Wrapf(ErrSaleNotFound, "%s", id)
	}
	target := all[idx]
	all = append(all[:idx], all[idx+1:]...)
	if err := r.store.Save(ctx, all); err != nil {
		return err
	}
	if r.isLast(target) {
		r.last = nil
	}
	if _, err := r.notes.RemoveForSale(ctx, id, target.Date); err != nil {
		return err
	}
	log.WithField("sale_id", id).Info("sale deleted")
	return nil
}

// ReopenSale takes a sale out of the history so its lines can be rung up
// again under the same id. Its notification stays until the sale is
// reconfirmed.
func (r *Recorder) ReopenSale(ctx context.Context, id models.SaleID) (models.Sale, error) {
	all := r.store.List(ctx)
	idx := indexOf(all, id)
	if idx < 0 {
		return models.Sale{}, errors.Wrapf(ErrSaleNotFound, "%s", id)
	}
	sale := all[idx]
	all = append(all[:idx], all[idx+1:]...)
	if err := r.store.Save(ctx, all); err != nil {
		return models.Sale{}, err
	}
	r.last = nil
	log.WithField("sale_id", id).Info("sale reopened")
	return sale, nil
}

// ClearAll wipes the sales history, restarts the daily counter and empties
// the notification log.
func (r *Recorder) ClearAll(ctx context.Context) error {
	if err := r.store.Save(ctx, nil); err != nil {
		return err
	}
	if err := r.seq.Reset(ctx); err != nil {
		return err
	}
	if err := r.notes.Clear(ctx); err != nil {
		return err
	}
	r.last = nil
	log.Warn("all sales cleared")
	return nil
}

// Last is the most recently confirmed sale of this session, for reprints.
func (r *Recorder) Last() (models.Sale, bool) {
	if r.last == nil {
		return models.Sale{}, false
	}
	return r.last.Clone(), true
}

func (r *Recorder) isLast(sale models.Sale) bool {
	return r.last != nil && r.last.ID == sale.ID && r.last.Date.Equal(sale.Date)
}

// indexOf finds the newest sale with id. Daily ids repeat, and the newest
// is the one on the current day's list.
func indexOf(all []models.Sale, id models.SaleID) int {
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].ID == id {
			return i
		}
	}
	return -1
}
