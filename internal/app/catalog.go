package app

import (
	"context"

	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/catalog"
	"go-pos-terminal/internal/models"

	"github.com/shopspring/decimal"
)

// ProductFilter narrows the product list. Empty fields match everything.
type ProductFilter struct {
	Category   string
	Query      string
	ActiveOnly bool
}

func (a *App) Products(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	products, err := a.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	products = catalog.Search(catalog.ProductsInCategory(products, f.Category), f.Query)
	if !f.ActiveOnly {
		return products, nil
	}
	active := []models.Product{}
	for _, p := range products {
		if p.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

// ListProducts returns the whole catalog.
func (a *App) ListProducts(ctx context.Context) ([]models.Product, error) {
	return a.Products(ctx, ProductFilter{})
}

func (a *App) Product(ctx context.Context, id int64) (models.Product, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog.GetProduct(ctx, id)
}

// SaveProduct creates or updates a product. image is an optional upload.
func (a *App) SaveProduct(ctx context.Context, p models.Product, image []byte) (models.Product, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog.UpsertProduct(ctx, p, image)
}

// UpdatePrice changes only the price of a product.
func (a *App) UpdatePrice(ctx context.Context, id int64, price decimal.Decimal) (models.Product, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, err := a.catalog.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	p.Price = price
	p.Image = ""
	return a.catalog.UpsertProduct(ctx, p, nil)
}

func (a *App) DeleteProduct(ctx context.Context, id int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog.DeleteProduct(ctx, id)
}

func (a *App) SetAvailability(ctx context.Context, id int64, active, inStock *bool) (models.Product, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog.SetAvailability(ctx, id, active, inStock)
}

// Categories lists the declared categories and the effective set shown in
// the category bar.
type Categories struct {
	Declared  []models.Category `json:"declared"`
	Effective []string          `json:"effective"`
}

func (a *App) Categories(ctx context.Context) (Categories, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	declared, err := a.catalog.ListCategories(ctx)
	if err != nil {
		return Categories{}, err
	}
	products, err := a.catalog.ListProducts(ctx)
	if err != nil {
		return Categories{}, err
	}
	return Categories{Declared: declared, Effective: catalog.EffectiveCategories(products, declared)}, nil
}

func (a *App) AddCategory(ctx context.Context, name string) (models.Category, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog.UpsertCategory(ctx, name)
}

func (a *App) DeleteCategory(ctx context.Context, id int64) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog.DeleteCategory(ctx, id)
}

// Addons is the add-on menu offered with a product.
func (a *App) Addons(ctx context.Context, productID int64) ([]cart.AddonOption, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, err := a.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	options := cart.AddonsFor(p)
	if options == nil {
		options = []cart.AddonOption{}
	}
	return options, nil
}

// Seed loads the default menu into an empty catalog.
func (a *App) Seed(ctx context.Context) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.catalog.SeedDefaults(ctx)
}
