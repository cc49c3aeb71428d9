package sales

import (
	"context"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/storage"

	log "github.com/sirupsen/logrus"
)

// Store is the sales collection in the key-value namespace.
type Store struct {
	kv storage.KV
}

func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// List returns every sale in the order they were recorded. Unreadable data
// reads as no sales.
func (s *Store) List(ctx context.Context) []models.Sale {
	var sales []models.Sale
	if _, err := storage.LoadJSON(ctx, s.kv, storage.KeySales, &sales); err != nil {
		log.WithError(err).Warn("failed to load sales")
		return []models.Sale{}
	}
	if sales == nil {
		sales = []models.Sale{}
	}
	return sales
}

// Find returns the newest sale with id.
func (s *Store) Find(ctx context.Context, id models.SaleID) (models.Sale, bool) {
	all := s.List(ctx)
	if idx := indexOf(all, id); idx >= 0 {
		return all[idx], true
	}
	return models.Sale{}, false
}

// Save replaces the whole collection.
func (s *Store) Save(ctx context.Context, sales []models.Sale) error {
	if sales == nil {
		sales = []models.Sale{}
	}
	return storage.SaveJSON(ctx, s.kv, storage.KeySales, sales)
}
