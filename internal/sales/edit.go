package sales

import (
	"go-pos-terminal/internal/models"

	"github.com/pkg/errors"
)

// Mutator changes a sale being edited.
type Mutator func(*models.Sale) error

// Chain runs mutators in order and stops at the first error.
func Chain(ms ...Mutator) Mutator {
	return func(s *models.Sale) error {
		for _, m := range ms {
			if err := m(s); err != nil {
				return err
			}
		}
		return nil
	}
}

// AddProduct adds one of p, merging into an existing line of the same
// product that has no add-ons.
func AddProduct(p models.Product) Mutator {
	return func(s *models.Sale) error {
		for i := range s.Items {
			if s.Items[i].ProductID == p.ID && len(s.Items[i].Addons) == 0 {
				s.Items[i].Quantity++
				return nil
			}
		}
		s.Items = append(s.Items, models.NewCartLine(p, nil))
		return nil
	}
}

func SetQuantity(i, quantity int) Mutator {
	return func(s *models.Sale) error {
		if i < 0 || i >= len(s.Items) {
			return errors.Wrapf(ErrItemNotFound, "index %d", i)
		}
		if quantity < 1 {
			return ErrInvalidQuantity
		}
		s.Items[i].Quantity = quantity
		return nil
	}
}

// RemoveItem drops an item. The last item cannot be removed.
func RemoveItem(i int) Mutator {
	return func(s *models.Sale) error {
		if i < 0 || i >= len(s.Items) {
			return errors.Wrapf(ErrItemNotFound, "index %d", i)
		}
		if len(s.Items) == 1 {
			return ErrLastItem
		}
		s.Items = append(s.Items[:i], s.Items[i+1:]...)
		return nil
	}
}

func SetPaymentMethod(p models.PaymentMethod) Mutator {
	return func(s *models.Sale) error {
		if !p.Valid() {
			return errors.Wrapf(models.ErrInvalidPaymentMethod, "%q", p)
		}
		s.PaymentMethod = p
		return nil
	}
}

func SetOrderType(o models.OrderType) Mutator {
	return func(s *models.Sale) error {
		if !o.Valid() {
			return errors.Wrapf(models.ErrInvalidOrderType, "%q", o)
		}
		s.OrderType = o
		return nil
	}
}
