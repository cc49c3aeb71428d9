// Package cart builds the order being rung up. It lives in memory only.
package cart

import (
	"go-pos-terminal/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrInactiveProduct = errors.New("product is not on the menu")
	ErrLineNotFound    = errors.New("cart line not found")
)

// Cart is the list of lines of the current order.
type Cart struct {
	lines []models.CartLine
}

func New() *Cart {
	return &Cart{}
}

// AddLine bumps the quantity of the line with the same product and the same
// add-ons, or appends a new line.
func (c *Cart) AddLine(p models.Product, addons models.Addons) error {
	if !p.InStock {
		return errors.Wrapf(ErrOutOfStock, "%s", p.Name)
	}
	if !p.Active {
		return errors.Wrapf(ErrInactiveProduct, "%s", p.Name)
	}
	addons = addons.Normalize()
	for i := range c.lines {
		if c.lines[i].ProductID == p.ID && c.lines[i].Addons.Equal(addons) {
			c.lines[i].Quantity++
			return nil
		}
	}
	c.lines = append(c.lines, models.NewCartLine(p, addons))
	return nil
}

// ChangeQuantity adds delta to the line's quantity. A line that would drop
// below one is removed.
func (c *Cart) ChangeQuantity(i, delta int) error {
	if i < 0 || i >= len(c.lines) {
		return errors.Wrapf(ErrLineNotFound, "index %d", i)
	}
	q := c.lines[i].Quantity + delta
	if q < 1 {
		return c.RemoveLine(i)
	}
	c.lines[i].Quantity = q
	return nil
}

func (c *Cart) RemoveLine(i int) error {
	if i < 0 || i >= len(c.lines) {
		return errors.Wrapf(ErrLineNotFound, "index %d", i)
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return nil
}

func (c *Cart) Clear() {
	c.lines = nil
}

// Load replaces the cart with lines as they are, prices included. It is
// used to ring up a reopened sale again.
func (c *Cart) Load(lines []models.CartLine) {
	c.lines = make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 {
			continue
		}
		c.lines = append(c.lines, l.Clone())
	}
}

// Lines returns a copy of the lines.
func (c *Cart) Lines() []models.CartLine {
	out := make([]models.CartLine, len(c.lines))
	for i, l := range c.lines {
		out[i] = l.Clone()
	}
	return out
}

func (c *Cart) Len() int {
	return len(c.lines)
}

// ItemCount is the number of units in the cart.
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Subtotal is the sum of price × quantity.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}
