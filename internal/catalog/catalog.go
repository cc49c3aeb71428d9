// Package catalog owns the product and category records and the product
// images kept in the blob store.
package catalog

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"go-pos-terminal/internal/imaging"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/storage"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrInvalidCategory   = errors.New("category name is required")
	ErrDuplicateCategory = errors.New("category already exists")
	ErrInvalidImage      = errors.New("image could not be processed")
)

// ContentTypeReference marks a blob that holds an image path or URL
// instead of image bytes.
const ContentTypeReference = "text/uri-list"

// Store is the catalog over the key-value namespace and the blob store.
type Store struct {
	kv    storage.KV
	blobs storage.Blobs
	opts  imaging.Options
}

func NewStore(kv storage.KV, blobs storage.Blobs, opts imaging.Options) *Store {
	return &Store{kv: kv, blobs: blobs, opts: opts}
}

// loadProducts reads the product records without images. Unreadable data
// is logged and treated as an empty catalog.
func (s *Store) loadProducts(ctx context.Context) []models.Product {
	var products []models.Product
	if _, err := storage.LoadJSON(ctx, s.kv, storage.KeyProducts, &products); err != nil {
		log.WithError(err).Warn("failed to load products, starting from an empty catalog")
		return []models.Product{}
	}
	if products == nil {
		products = []models.Product{}
	}
	return products
}

func (s *Store) saveProducts(ctx context.Context, products []models.Product) error {
	stripped := make([]models.Product, len(products))
	for i, p := range products {
		p.Image = ""
		stripped[i] = p
	}
	return storage.SaveJSON(ctx, s.kv, storage.KeyProducts, stripped)
}

// ListProducts returns every product with its image reconstituted from the
// blob store.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := s.loadProducts(ctx)
	for i := range products {
		s.attachImage(ctx, &products[i])
	}
	return products, nil
}

func (s *Store) attachImage(ctx context.Context, p *models.Product) {
	blob, ok, err := s.blobs.GetBlob(ctx, p.ID)
	if err != nil {
		log.WithError(err).WithField("product_id", p.ID).Warn("failed to read product image")
		return
	}
	if !ok {
		return
	}
	if blob.ContentType == ContentTypeReference {
		p.Image = string(blob.Data)
		return
	}
	p.Image = imaging.EncodeDataURL(blob.ContentType, blob.Data)
}

// GetProduct returns one product with its image.
func (s *Store) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	for _, p := range s.loadProducts(ctx) {
		if p.ID == id {
			s.attachImage(ctx, &p)
			return p, nil
		}
	}
	return models.Product{}, errors.Wrapf(ErrProductNotFound, "id %d", id)
}

// UpsertProduct validates and saves p. A zero id means a new product and
// gets the next id from the product counter. image, when given, is compressed before anything is
// written; otherwise p.Image may carry a data URL or a plain reference, and
// an empty p.Image keeps the stored image.
func (s *Store) UpsertProduct(ctx context.Context, p models.Product, image []byte) (models.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	if err := p.Validate(); err != nil {
		return models.Product{}, err
	}

	blob, hasBlob, err := s.prepareImage(p.Image, image)
	if err != nil {
		return models.Product{}, err
	}

	products := s.loadProducts(ctx)
	idx := -1
	if p.ID == 0 {
		if p.ID, err = s.nextProductID(ctx, products); err != nil {
			return models.Product{}, err
		}
	} else {
		for i := range products {
			if products[i].ID == p.ID {
				idx = i
				break
			}
		}
	}

	if hasBlob {
		if err := s.blobs.PutBlob(ctx, p.ID, blob); err != nil {
			return models.Product{}, &storage.WriteError{Key: "image", Err: err}
		}
	}

	if idx >= 0 {
		products[idx] = p
	} else {
		products = append(products, p)
	}
	if err := s.saveProducts(ctx, products); err != nil {
		return models.Product{}, err
	}

	log.WithFields(log.Fields{"product_id": p.ID, "name": p.Name, "new": idx < 0}).Info("product saved")
	p.Image = ""
	s.attachImage(ctx, &p)
	return p, nil
}

// prepareImage turns the upload or the image field into the blob to store.
func (s *Store) prepareImage(field string, upload []byte) (storage.Blob, bool, error) {
	if len(upload) > 0 {
		data, err := imaging.Compress(upload, s.opts)
		if err != nil {
			return storage.Blob{}, false, errors.Wrap(ErrInvalidImage, err.Error())
		}
		return storage.Blob{ContentType: imaging.ContentTypeJPEG, Data: data}, true, nil
	}
	if field == "" {
		return storage.Blob{}, false, nil
	}
	if !imaging.IsDataURL(field) {
		return storage.Blob{ContentType: ContentTypeReference, Data: []byte(field)}, true, nil
	}
	_, raw, err := imaging.DecodeDataURL(field)
	if err != nil {
		return storage.Blob{}, false, errors.Wrap(ErrInvalidImage, err.Error())
	}
	data, err := imaging.Compress(raw, s.opts)
	if err != nil {
		return storage.Blob{}, false, errors.Wrap(ErrInvalidImage, err.Error())
	}
	return storage.Blob{ContentType: imaging.ContentTypeJPEG, Data: data}, true, nil
}

// nextProductID hands out one past the highest id ever issued. The counter
// survives deletes, so ids are never reused.
func (s *Store) nextProductID(ctx context.Context, products []models.Product) (int64, error) {
	var high int64
	raw, ok, err := s.kv.Get(ctx, storage.KeyProductCounter)
	if err != nil {
		log.WithError(err).Warn("failed to read the product counter")
	} else if ok {
		if n, perr := strconv.ParseInt(raw, 10, 64); perr == nil {
			high = n
		} else {
			log.WithField("value", raw).Warn("ignoring an unreadable product counter")
		}
	}
	for _, p := range products {
		if p.ID > high {
			high = p.ID
		}
	}
	id := high + 1
	if err := s.kv.Put(ctx, storage.KeyProductCounter, strconv.FormatInt(id, 10)); err != nil {
		return 0, &storage.WriteError{Key: storage.KeyProductCounter, Err: err}
	}
	return id, nil
}

// DeleteProduct removes the image and the record.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	products := s.loadProducts(ctx)
	kept := products[:0]
	found := false
	for _, p := range products {
		if p.ID == id {
			found = true
			continue
		}
		kept = append(kept, p)
	}
	if !found {
		return errors.Wrapf(ErrProductNotFound, "id %d", id)
	}
	if err := s.blobs.DeleteBlob(ctx, id); err != nil {
		return &storage.WriteError{Key: "image", Err: err}
	}
	if err := s.saveProducts(ctx, kept); err != nil {
		return err
	}
	log.WithField("product_id", id).Info("product deleted")
	return nil
}

// SetAvailability updates the active and in-stock flags. Nil leaves a flag as is.
func (s *Store) SetAvailability(ctx context.Context, id int64, active, inStock *bool) (models.Product, error) {
	products := s.loadProducts(ctx)
	for i := range products {
		if products[i].ID != id {
			continue
		}
		if active != nil {
			products[i].Active = *active
		}
		if inStock != nil {
			products[i].InStock = *inStock
		}
		if err := s.saveProducts(ctx, products); err != nil {
			return models.Product{}, err
		}
		p := products[i]
		s.attachImage(ctx, &p)
		return p, nil
	}
	return models.Product{}, errors.Wrapf(ErrProductNotFound, "id %d", id)
}

// ReplaceAll swaps the whole catalog for products, images included. Images
// arrive as data URLs or references and are stored as they are.
func (s *Store) ReplaceAll(ctx context.Context, products []models.Product) error {
	if err := s.blobs.ClearBlobs(ctx); err != nil {
		return &storage.WriteError{Key: "image", Err: err}
	}
	for _, p := range products {
		if p.Image == "" {
			continue
		}
		blob := storage.Blob{ContentType: ContentTypeReference, Data: []byte(p.Image)}
		if imaging.IsDataURL(p.Image) {
			contentType, data, err := imaging.DecodeDataURL(p.Image)
			if err != nil {
				log.WithError(err).WithField("product_id", p.ID).Warn("dropping unreadable image")
				continue
			}
			blob = storage.Blob{ContentType: contentType, Data: data}
		}
		if err := s.blobs.PutBlob(ctx, p.ID, blob); err != nil {
			return &storage.WriteError{Key: "image", Err: err}
		}
	}
	if products == nil {
		products = []models.Product{}
	}
	return s.saveProducts(ctx, products)
}

// ListCategories returns the declared categories. Unreadable data is logged
// and treated as none.
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if _, err := storage.LoadJSON(ctx, s.kv, storage.KeyCategories, &categories); err != nil {
		log.WithError(err).Warn("failed to load categories")
		return []models.Category{}, nil
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// UpsertCategory declares a new category.
func (s *Store) UpsertCategory(ctx context.Context, name string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, ErrInvalidCategory
	}
	categories, _ := s.ListCategories(ctx)
	var maxID int64
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return models.Category{}, errors.Wrapf(ErrDuplicateCategory, "%q", c.Name)
		}
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	category := models.Category{ID: maxID + 1, Name: name}
	if err := storage.SaveJSON(ctx, s.kv, storage.KeyCategories, append(categories, category)); err != nil {
		return models.Category{}, err
	}
	log.WithField("category", name).Info("category added")
	return category, nil
}

// DeleteCategory removes a declared category. Products keep their category
// string.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	categories, _ := s.ListCategories(ctx)
	for i, c := range categories {
		if c.ID == id {
			categories = append(categories[:i], categories[i+1:]...)
			return storage.SaveJSON(ctx, s.kv, storage.KeyCategories, categories)
		}
	}
	return errors.Wrapf(ErrCategoryNotFound, "id %d", id)
}

// ReplaceCategories swaps the declared categories wholesale.
func (s *Store) ReplaceCategories(ctx context.Context, categories []models.Category) error {
	if categories == nil {
		categories = []models.Category{}
	}
	return storage.SaveJSON(ctx, s.kv, storage.KeyCategories, categories)
}

// EffectiveCategories is the union of declared categories and the ones
// products reference, compared and sorted without regard to case.
func EffectiveCategories(products []models.Product, categories []models.Category) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, name)
	}
	for _, c := range categories {
		add(c.Name)
	}
	for _, p := range products {
		add(p.Category)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	if out == nil {
		out = []string{}
	}
	return out
}

// ProductsInCategory filters by category name without regard to case.
// An empty name or "all" matches everything.
func ProductsInCategory(products []models.Product, name string) []models.Product {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "all") {
		return products
	}
	out := []models.Product{}
	for _, p := range products {
		if strings.EqualFold(strings.TrimSpace(p.Category), name) {
			out = append(out, p)
		}
	}
	return out
}

// Search matches products whose name contains query, ignoring case.
func Search(products []models.Product, query string) []models.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return products
	}
	out := []models.Product{}
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), query) {
			out = append(out, p)
		}
	}
	return out
}
