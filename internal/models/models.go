package models

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as plain JSON numbers so stored and exported documents
	// keep the shape older backups already have.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	ErrInvalidProduct       = errors.New("invalid product")
	ErrInvalidOrderType     = errors.New("unknown order type")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
)

// Product - a menu entry owned by the catalog
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image,omitempty"` // data URL or plain reference, never stored in the record
	Active      bool            `json:"active"`
	InStock     bool            `json:"inStock"`
	Description string          `json:"description,omitempty"`
}

// UnmarshalJSON resolves the optional flags once: records written before
// the flags existed are active and in stock.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	aux := struct {
		*plain
		Active  *bool `json:"active"`
		InStock *bool `json:"inStock"`
	}{plain: (*plain)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Active = aux.Active == nil || *aux.Active
	p.InStock = aux.InStock == nil || *aux.InStock
	return nil
}

// Validate checks the fields an admin must provide.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.Wrap(ErrInvalidProduct, "name is required")
	}
	if strings.TrimSpace(p.Category) == "" {
		return errors.Wrap(ErrInvalidProduct, "category is required")
	}
	if !p.Price.IsPositive() {
		return errors.Wrap(ErrInvalidProduct, "price must be greater than zero")
	}
	return nil
}

// Category - an explicitly declared menu section
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Addon - a priced modifier selected per line item
type Addon struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type Addons []Addon

// Normalize drops zero quantities, merges repeated ids and sorts by id so
// two selections can be compared directly.
func (a Addons) Normalize() Addons {
	if len(a) == 0 {
		return nil
	}
	byID := make(map[string]int)
	var out Addons
	for _, addon := range a {
		if addon.Quantity <= 0 {
			continue
		}
		if i, ok := byID[addon.ID]; ok {
			out[i].Quantity += addon.Quantity
			continue
		}
		byID[addon.ID] = len(out)
		out = append(out, addon)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) == 0 {
		return nil
	}
	return out
}

// Equal reports whether both selections hold the same ids with the same quantities.
func (a Addons) Equal(b Addons) bool {
	x, y := a.Normalize(), b.Normalize()
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i].ID != y[i].ID || x[i].Quantity != y[i].Quantity {
			return false
		}
	}
	return true
}

// Total is the per-unit cost of the selection.
func (a Addons) Total() decimal.Decimal {
	total := decimal.Zero
	for _, addon := range a {
		total = total.Add(addon.Price.Mul(decimal.NewFromInt(int64(addon.Quantity))))
	}
	return total
}

// Names lists add-on names, repeating the quantity when above one.
func (a Addons) Names() []string {
	names := make([]string, 0, len(a))
	for _, addon := range a {
		if addon.Quantity > 1 {
			names = append(names, addon.Name+" x"+strconv.Itoa(addon.Quantity))
			continue
		}
		names = append(names, addon.Name)
	}
	return names
}

// CartLine - one entry of the order being assembled.
// Price is the unit price with add-ons folded in; it is computed once when
// the line is built and every total uses it.
type CartLine struct {
	ProductID int64           `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"basePrice"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category,omitempty"`
	Quantity  int             `json:"quantity"`
	Addons    Addons          `json:"addons,omitempty"`
}

// NewCartLine copies the product fields a line needs.
func NewCartLine(p Product, addons Addons) CartLine {
	addons = addons.Normalize()
	return CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		BasePrice: p.Price,
		Price:     p.Price.Add(addons.Total()),
		Category:  p.Category,
		Quantity:  1,
		Addons:    addons,
	}
}

// LineTotal is price × quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Clone returns a copy that shares no slices with the receiver.
func (l CartLine) Clone() CartLine {
	if l.Addons != nil {
		l.Addons = append(Addons(nil), l.Addons...)
	}
	return l
}

// SaleLine is a CartLine frozen at checkout.
type SaleLine = CartLine

type OrderType string

const (
	DineIn   OrderType = "Dine In"
	TakeOut  OrderType = "Take Out"
	Delivery OrderType = "Delivery"
)

// ParseOrderType accepts "dine-in", "DineIn", "take out" and similar spellings.
// An empty value means the default.
func ParseOrderType(s string) (OrderType, error) {
	switch squash(s) {
	case "", "dinein":
		return DineIn, nil
	case "takeout":
		return TakeOut, nil
	case "delivery":
		return Delivery, nil
	}
	return "", errors.Wrapf(ErrInvalidOrderType, "%q", s)
}

// Valid reports whether o is one of the known order types.
func (o OrderType) Valid() bool {
	return o == DineIn || o == TakeOut || o == Delivery
}

type PaymentMethod string

const (
	Cash  PaymentMethod = "Cash"
	GCash PaymentMethod = "GCash"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch squash(s) {
	case "", "cash":
		return Cash, nil
	case "gcash":
		return GCash, nil
	}
	return "", errors.Wrapf(ErrInvalidPaymentMethod, "%q", s)
}

func (p PaymentMethod) Valid() bool {
	return p == Cash || p == GCash
}

func squash(s string) string {
	r := strings.NewReplacer(" ", "", "-", "", "_", "")
	return strings.ToLower(r.Replace(strings.TrimSpace(s)))
}

// SaleID is the daily sequence id ("#01"). Older data stored numeric ids;
// those decode to their decimal string so lookups only compare strings.
type SaleID string

func (id *SaleID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = SaleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "sale id")
	}
	*id = SaleID(n.String())
	return nil
}

// Sale - a finalized order
type Sale struct {
	ID            SaleID          `json:"id"`
	Date          time.Time       `json:"date"`
	Items         []SaleLine      `json:"items"`
	Total         decimal.Decimal `json:"total"`
	OrderType     OrderType       `json:"orderType"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
}

// UnmarshalJSON fills the defaults older records left out.
func (s *Sale) UnmarshalJSON(data []byte) error {
	type plain Sale
	if err := json.Unmarshal(data, (*plain)(s)); err != nil {
		return err
	}
	if s.OrderType == "" {
		s.OrderType = DineIn
	}
	if s.PaymentMethod == "" {
		s.PaymentMethod = Cash
	}
	return nil
}

// Recalculate keeps Total equal to the sum of price × quantity.
func (s *Sale) Recalculate() {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.LineTotal())
	}
	s.Total = total
}

// ItemCount is the number of units sold.
func (s Sale) ItemCount() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

// Clone deep-copies the sale.
func (s Sale) Clone() Sale {
	items := make([]SaleLine, len(s.Items))
	for i, item := range s.Items {
		items[i] = item.Clone()
	}
	s.Items = items
	return s
}

// Notification - an entry of the sale event log
type Notification struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	OrderData *Sale     `json:"orderData"`
	Read      bool      `json:"read"`
}

// Settings - terminal preferences and the sequence state
type Settings struct {
	DarkMode      bool            `json:"darkMode"`
	OrderCounter  int             `json:"orderCounter"`
	LastOrderDate string          `json:"lastOrderDate"`
	PrinterDevice json.RawMessage `json:"thermalPrinterDevice,omitempty"`
}
