package app

import (
	"context"
	"sort"

	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/sales"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNothingToReopen = errors.New("there is no order to reopen")
	ErrCartNotEmpty    = errors.New("finish or clear the current order first")
	ErrInvalidEdit     = errors.New("invalid order edit")
)

// CartView is the cart as the terminal shows it.
type CartView struct {
	Lines     []models.CartLine `json:"lines"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	ItemCount int               `json:"itemCount"`
	Reopened  models.SaleID     `json:"reopened,omitempty"`
}

func (a *App) view() CartView {
	v := CartView{
		Lines:     a.cart.Lines(),
		Subtotal:  a.cart.Subtotal(),
		ItemCount: a.cart.ItemCount(),
	}
	if a.reopened != nil {
		v.Reopened = a.reopened.ID
	}
	return v
}

func (a *App) Cart() CartView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view()
}

// AddToCart adds one of a product with the chosen add-ons.
func (a *App) AddToCart(ctx context.Context, productID int64, selections []cart.Selection) (CartView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, err := a.catalog.GetProduct(ctx, productID)
	if err != nil {
		return a.view(), err
	}
	addons, err := cart.ResolveAddons(p, selections)
	if err != nil {
		return a.view(), err
	}
	if err := a.cart.AddLine(p, addons); err != nil {
		return a.view(), err
	}
	return a.view(), nil
}

func (a *App) ChangeQuantity(i, delta int) (CartView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.cart.ChangeQuantity(i, delta)
	return a.view(), err
}

func (a *App) RemoveLine(i int) (CartView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	err := a.cart.RemoveLine(i)
	return a.view(), err
}

// ClearCart empties the cart. A reopened sale that is cleared away stays
// deleted.
func (a *App) ClearCart() CartView {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cart.Clear()
	if a.reopened != nil {
		log.WithField("sale_id", a.reopened.ID).Warn("reopened order discarded")
		a.reopened = nil
	}
	return a.view()
}

// Receipt is the outcome of a checkout. Warnings report follow-up steps
// that failed after the sale was stored.
type Receipt struct {
	Sale     *models.Sale `json:"sale"`
	Printed  bool         `json:"printed"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Checkout records the cart as a sale and clears it. A reopened sale keeps
// its id. Once the sale is stored the call succeeds, even when the
// notification or the receipt print fails.
func (a *App) Checkout(ctx context.Context, orderType models.OrderType, payment models.PaymentMethod) (*Receipt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	lines := a.cart.Lines()
	var (
		sale *models.Sale
		err  error
	)
	if a.reopened != nil {
		sale, err = a.recorder.ReconfirmSale(ctx, *a.reopened, lines, orderType, payment)
	} else {
		sale, err = a.recorder.ConfirmSale(ctx, lines, orderType, payment)
	}
	if sale == nil {
		return nil, err
	}

	receipt := &Receipt{Sale: sale}
	if err != nil {
		receipt.Warnings = append(receipt.Warnings, "notification not saved: "+err.Error())
	}
	a.cart.Clear()
	a.reopened = nil

	if a.printer != nil {
		if perr := a.printer.Print(ctx, *sale); perr != nil {
			log.WithError(perr).WithField("sale_id", sale.ID).Error("receipt print failed")
			receipt.Warnings = append(receipt.Warnings, "receipt not printed: "+perr.Error())
		} else {
			receipt.Printed = true
		}
	}
	return receipt, nil
}

// ReopenLastSale takes the newest sale back into the cart to be changed
// and rung up again under the same id.
func (a *App) ReopenLastSale(ctx context.Context) (CartView, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cart.Len() > 0 {
		return a.view(), ErrCartNotEmpty
	}
	last, ok := a.recorder.Last()
	if !ok {
		all := a.recorder.Store().List(ctx)
		if len(all) == 0 {
			return a.view(), ErrNothingToReopen
		}
		last = all[len(all)-1]
	}
	sale, err := a.recorder.ReopenSale(ctx, last.ID)
	if err != nil {
		return a.view(), err
	}
	a.cart.Load(sale.Items)
	a.reopened = &sale
	return a.view(), nil
}

// Sales lists the recorded sales, newest last.
func (a *App) Sales(ctx context.Context) []models.Sale {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recorder.Store().List(ctx)
}

func (a *App) Sale(ctx context.Context, id models.SaleID) (models.Sale, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.recorder.Store().Find(ctx, id)
	if !ok {
		return models.Sale{}, errors.Wrapf(sales.ErrSaleNotFound, "%s", id)
	}
	return s, nil
}

// EditOp is one change to a recorded sale.
type EditOp struct {
	Op        string `json:"op"` // add, quantity, remove, payment, orderType
	Index     int    `json:"index"`
	Quantity  int    `json:"quantity"`
	ProductID int64  `json:"productId"`
	Value     string `json:"value"`
}

// EditSale applies ops in order. Either all of them take effect or none.
func (a *App) EditSale(ctx context.Context, id models.SaleID, ops []EditOp) (*models.Sale, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(ops) == 0 {
		return nil, errors.Wrap(ErrInvalidEdit, "no changes")
	}
	mutators := make([]sales.Mutator, 0, len(ops))
	var removals []int
	for _, op := range ops {
		switch op.Op {
		case "add":
			p, err := a.catalog.GetProduct(ctx, op.ProductID)
			if err != nil {
				return nil, err
			}
			mutators = append(mutators, sales.AddProduct(p))
		case "quantity":
			mutators = append(mutators, sales.SetQuantity(op.Index, op.Quantity))
		case "remove":
			removals = append(removals, op.Index)
		case "payment":
			pm, err := models.ParsePaymentMethod(op.Value)
			if err != nil {
				return nil, err
			}
			mutators = append(mutators, sales.SetPaymentMethod(pm))
		case "orderType":
			ot, err := models.ParseOrderType(op.Value)
			if err != nil {
				return nil, err
			}
			mutators = append(mutators, sales.SetOrderType(ot))
		default:
			return nil, errors.Wrapf(ErrInvalidEdit, "unknown op %q", op.Op)
		}
	}
	// Removals run last and from the highest index down so earlier indexes
	// keep pointing at the lines the caller saw.
	sort.Sort(sort.Reverse(sort.IntSlice(removals)))
	for _, i := range removals {
		mutators = append(mutators, sales.RemoveItem(i))
	}
	return a.recorder.EditSale(ctx, id, sales.Chain(mutators...))
}

func (a *App) DeleteSale(ctx context.Context, id models.SaleID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recorder.DeleteSale(ctx, id)
}

// ClearSales wipes the sales history and restarts the daily counter.
func (a *App) ClearSales(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.recorder.ClearAll(ctx)
}

// Reprint prints a recorded sale again.
func (a *App) Reprint(ctx context.Context, id models.SaleID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.printer == nil {
		return ErrNoPrinter
	}
	s, ok := a.recorder.Store().Find(ctx, id)
	if !ok {
		return errors.Wrapf(sales.ErrSaleNotFound, "%s", id)
	}
	return a.printer.Print(ctx, s)
}
