// Package backup exports the terminal's data as one JSON document and
// restores it again.
package backup

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"go-pos-terminal/internal/catalog"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/notify"
	"go-pos-terminal/internal/sales"
	"go-pos-terminal/internal/storage"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Version is written into every exported document.
const Version = "1.0"

var ErrInvalidBackup = errors.New("invalid backup file format")

// Document is the backup file. Every field of Data is optional on import;
// only the ones present are restored.
type Document struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Terminal  string    `json:"terminal,omitempty"`
	Data      *Data     `json:"data"`
}

type Data struct {
	Products      *[]models.Product      `json:"products,omitempty"`
	Sales         *[]models.Sale         `json:"sales,omitempty"`
	Categories    *[]models.Category     `json:"categories,omitempty"`
	Notifications *[]models.Notification `json:"notifications,omitempty"`
	Settings      *Settings              `json:"settings,omitempty"`
}

// Settings hold the stored values as written, normally JSON strings. Older
// files may carry bare booleans or numbers, which are kept as their text.
// A null or missing value was never set.
type Settings struct {
	DarkMode       json.RawMessage `json:"darkMode"`
	OrderCounter   json.RawMessage `json:"orderCounter"`
	LastOrderDate  json.RawMessage `json:"lastOrderDate"`
	ProductCounter json.RawMessage `json:"productCounter,omitempty"`
}

func (st *Settings) fields() map[string]*json.RawMessage {
	return map[string]*json.RawMessage{
		storage.KeyDarkMode:       &st.DarkMode,
		storage.KeyOrderCounter:   &st.OrderCounter,
		storage.KeyLastOrderDate:  &st.LastOrderDate,
		storage.KeyProductCounter: &st.ProductCounter,
	}
}

// scalarText turns a settings value into the string to store. Null, empty
// strings, objects and arrays give false.
func scalarText(raw json.RawMessage) (string, bool) {
	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		return "", false
	}
	switch text[0] {
	case '"':
		var v string
		if err := json.Unmarshal(raw, &v); err != nil || v == "" {
			return "", false
		}
		return v, true
	case '{', '[':
		return "", false
	}
	return text, true
}

// Service reads and writes every store a backup covers.
type Service struct {
	kv       storage.KV
	catalog  *catalog.Store
	sales    *sales.Store
	notes    *notify.Log
	terminal string
	now      func() time.Time
}

func NewService(kv storage.KV, cat *catalog.Store, salesStore *sales.Store, notes *notify.Log, terminal string, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{kv: kv, catalog: cat, sales: salesStore, notes: notes, terminal: terminal, now: now}
}

// Export collects the current state. Product images are embedded as data
// URLs or references.
func (s *Service) Export(ctx context.Context) (*Document, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	allSales := s.sales.List(ctx)
	notes := s.notes.List(ctx)

	settings := &Settings{}
	for key, dst := range settings.fields() {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", key)
		}
		if !ok {
			continue
		}
		encoded, err := json.Marshal(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s", key)
		}
		*dst = encoded
	}

	return &Document{
		Version:   Version,
		Timestamp: s.now().UTC(),
		Terminal:  s.terminal,
		Data: &Data{
			Products:      &products,
			Sales:         &allSales,
			Categories:    &categories,
			Notifications: &notes,
			Settings:      settings,
		},
	}, nil
}

// Write exports and encodes the document as indented JSON.
func (s *Service) Write(ctx context.Context, w io.Writer) error {
	doc, err := s.Export(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(doc), "encode backup")
}

// FileName is the suggested download name for a backup taken at t.
func FileName(t time.Time) string {
	return "POS_Backup_" + t.Format("2006-01-02") + ".json"
}

// Read decodes and checks a backup without restoring it.
func Read(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(ErrInvalidBackup, err.Error())
	}
	if doc.Version == "" || doc.Data == nil {
		return nil, ErrInvalidBackup
	}
	return &doc, nil
}

// Import replaces the stores present in the backup read from r. The whole
// document is decoded before anything is written.
func (s *Service) Import(ctx context.Context, r io.Reader) error {
	doc, err := Read(r)
	if err != nil {
		return err
	}
	return s.Restore(ctx, doc)
}

// Restore writes the present parts of doc. Empty settings values are
// skipped.
func (s *Service) Restore(ctx context.Context, doc *Document) error {
	if doc == nil || doc.Version == "" || doc.Data == nil {
		return ErrInvalidBackup
	}
	logger := log.WithFields(log.Fields{"version": doc.Version, "terminal": doc.Terminal, "taken_at": doc.Timestamp})
	if doc.Version != Version {
		logger.Warn("restoring a backup written by a different version")
	}

	d := doc.Data
	if d.Products != nil {
		if err := s.catalog.ReplaceAll(ctx, *d.Products); err != nil {
			return errors.Wrap(err, "restore products")
		}
	}
	if d.Sales != nil {
		if err := s.sales.Save(ctx, *d.Sales); err != nil {
			return errors.Wrap(err, "restore sales")
		}
	}
	if d.Categories != nil {
		if err := s.catalog.ReplaceCategories(ctx, *d.Categories); err != nil {
			return errors.Wrap(err, "restore categories")
		}
	}
	if d.Notifications != nil {
		if err := s.notes.ReplaceAll(ctx, *d.Notifications); err != nil {
			return errors.Wrap(err, "restore notifications")
		}
	}
	if st := d.Settings; st != nil {
		for key, raw := range st.fields() {
			v, ok := scalarText(*raw)
			if !ok {
				continue
			}
			if err := s.kv.Put(ctx, key, v); err != nil {
				return &storage.WriteError{Key: key, Err: err}
			}
		}
	}

	logger.Info("backup restored")
	return nil
}
