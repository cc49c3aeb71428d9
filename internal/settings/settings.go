// Package settings keeps the terminal preferences that are not part of the
// catalog or the sales history.
package settings

import (
	"context"
	"encoding/json"
	"strconv"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/sequence"
	"go-pos-terminal/internal/storage"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidDevice = errors.New("printer device must be a JSON object")

type Store struct {
	kv  storage.KV
	seq *sequence.Generator
}

func NewStore(kv storage.KV, seq *sequence.Generator) *Store {
	return &Store{kv: kv, seq: seq}
}

// Get reads every preference. Unreadable values fall back to their zero
// value.
func (s *Store) Get(ctx context.Context) (models.Settings, error) {
	var out models.Settings

	raw, ok, err := s.kv.Get(ctx, storage.KeyDarkMode)
	if err != nil {
		return out, errors.Wrap(err, "read dark mode")
	}
	if ok && raw != "" {
		if out.DarkMode, err = strconv.ParseBool(raw); err != nil {
			log.WithField("value", raw).Warn("unreadable dark mode flag")
		}
	}

	st, err := s.seq.Peek(ctx)
	if err != nil {
		return out, err
	}
	out.OrderCounter = st.Counter
	out.LastOrderDate = st.LastOrderDate

	if raw, ok, err = s.kv.Get(ctx, storage.KeyPrinterDevice); err != nil {
		return out, errors.Wrap(err, "read printer device")
	}
	if ok && json.Valid([]byte(raw)) {
		out.PrinterDevice = json.RawMessage(raw)
	}
	return out, nil
}

func (s *Store) SetDarkMode(ctx context.Context, on bool) error {
	if err := s.kv.Put(ctx, storage.KeyDarkMode, strconv.FormatBool(on)); err != nil {
		return &storage.WriteError{Key: storage.KeyDarkMode, Err: err}
	}
	return nil
}

// SetPrinterDevice remembers the paired printer. The descriptor is opaque
// to the terminal and stored as given.
func (s *Store) SetPrinterDevice(ctx context.Context, device json.RawMessage) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(device, &fields); err != nil || fields == nil {
		return ErrInvalidDevice
	}
	if err := s.kv.Put(ctx, storage.KeyPrinterDevice, string(device)); err != nil {
		return &storage.WriteError{Key: storage.KeyPrinterDevice, Err: err}
	}
	log.Info("printer paired")
	return nil
}

// ForgetPrinter drops the paired printer.
func (s *Store) ForgetPrinter(ctx context.Context) error {
	return storage.Remove(ctx, s.kv, storage.KeyPrinterDevice)
}
