// Package storage persists the terminal's state in two places: a string
// key-value namespace holding JSON documents, and a blob table holding one
// image payload per product.
package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Logical keys of the key-value namespace.
const (
	KeyProducts       = "products"
	KeySales          = "sales"
	KeyCategories     = "categories"
	KeyNotifications  = "notifications"
	KeyOrderCounter   = "orderCounter"
	KeyLastOrderDate  = "lastOrderDate"
	KeyProductCounter = "productCounter"
	KeyDarkMode       = "darkMode"
	KeyPrinterDevice  = "thermalPrinterDevice"
	KeySchemaVersion  = "schemaVersion"
)

// CurrentSchemaVersion is the layout Migrate brings the namespace to.
const CurrentSchemaVersion = 1

// KV is the structured key-value store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Blob is one stored image payload.
type Blob struct {
	ContentType string
	Data        []byte
}

// Blobs is the image store keyed by product id.
type Blobs interface {
	PutBlob(ctx context.Context, id int64, blob Blob) error
	GetBlob(ctx context.Context, id int64) (Blob, bool, error)
	// DeleteBlob succeeds when the blob is already absent.
	DeleteBlob(ctx context.Context, id int64) error
	ClearBlobs(ctx context.Context) error
}

// WriteError marks a failed write. Callers surface it to the user as a
// storage problem rather than a validation one.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage write %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// IsWriteError reports whether err wraps a WriteError.
func IsWriteError(err error) bool {
	var we *WriteError
	return errors.As(err, &we)
}

// LoadJSON decodes the value at key into dst. found is false when the key
// is absent; a decode failure is returned so callers can decide to degrade.
func LoadJSON(ctx context.Context, kv KV, key string, dst interface{}) (bool, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return false, errors.Wrapf(err, "read %s", key)
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return true, errors.Wrapf(err, "decode %s", key)
	}
	return true, nil
}

// SaveJSON encodes v and writes it at key.
func SaveJSON(ctx context.Context, kv KV, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return &WriteError{Key: key, Err: errors.Wrap(err, "encode")}
	}
	if err := kv.Put(ctx, key, string(raw)); err != nil {
		return &WriteError{Key: key, Err: err}
	}
	return nil
}

// Remove deletes key, reporting failures as write errors.
func Remove(ctx context.Context, kv KV, key string) error {
	if err := kv.Delete(ctx, key); err != nil {
		return &WriteError{Key: key, Err: err}
	}
	return nil
}
