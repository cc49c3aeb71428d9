package catalog

import (
	"context"
	_ "embed"
	"encoding/json"

	"go-pos-terminal/internal/models"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

//go:embed defaults.json
var defaultMenu []byte

type menu struct {
	Products   []models.Product `json:"products"`
	Categories []string         `json:"categories"`
}

// DefaultProducts returns the built-in menu.
func DefaultProducts() ([]models.Product, []models.Category, error) {
	var m menu
	if err := json.Unmarshal(defaultMenu, &m); err != nil {
		return nil, nil, errors.Wrap(err, "decode default menu")
	}
	categories := make([]models.Category, len(m.Categories))
	for i, name := range m.Categories {
		categories[i] = models.Category{ID: int64(i + 1), Name: name}
	}
	return m.Products, categories, nil
}

// SeedDefaults loads the built-in menu when the catalog is empty. It
// reports whether anything was written.
func (s *Store) SeedDefaults(ctx context.Context) (bool, error) {
	if len(s.loadProducts(ctx)) > 0 {
		return false, nil
	}
	products, categories, err := DefaultProducts()
	if err != nil {
		return false, err
	}
	if err := s.ReplaceAll(ctx, products); err != nil {
		return false, err
	}
	existing, _ := s.ListCategories(ctx)
	if len(existing) == 0 {
		if err := s.ReplaceCategories(ctx, categories); err != nil {
			return false, err
		}
	}
	log.WithField("products", len(products)).Info("seeded default menu")
	return true, nil
}
