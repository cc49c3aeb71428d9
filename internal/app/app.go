// Package app is the terminal's application state: it owns every store and
// the current cart, and runs each operation one at a time.
package app

import (
	"context"
	"sync"
	"time"

	"go-pos-terminal/internal/backup"
	"go-pos-terminal/internal/cart"
	"go-pos-terminal/internal/catalog"
	"go-pos-terminal/internal/imaging"
	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/notify"
	"go-pos-terminal/internal/sales"
	"go-pos-terminal/internal/sequence"
	"go-pos-terminal/internal/settings"
	"go-pos-terminal/internal/storage"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Options configure a terminal. Zero values get defaults.
type Options struct {
	Currency          string
	NotificationLimit int
	Image             imaging.Options
	SeedDefaults      bool
	Terminal          string
	Printer           Printer
	Now               func() time.Time
}

// App serializes every operation behind one mutex. The daily sequence and
// the read-modify-write stores rely on there being a single writer.
type App struct {
	mu sync.Mutex

	kv       storage.KV
	blobs    storage.Blobs
	catalog  *catalog.Store
	cart     *cart.Cart
	seq      *sequence.Generator
	notes    *notify.Log
	recorder *sales.Recorder
	settings *settings.Store
	backup   *backup.Service

	printer  Printer
	now      func() time.Time
	currency string
	terminal string
	seed     bool

	// reopened is the sale taken back into the cart, nil when none is.
	reopened *models.Sale
}

func New(kv storage.KV, blobs storage.Blobs, opts Options) *App {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Currency == "" {
		opts.Currency = "₱"
	}
	if opts.Image.MaxDimension == 0 {
		opts.Image = imaging.DefaultOptions()
	}

	cat := catalog.NewStore(kv, blobs, opts.Image)
	seq := sequence.NewGenerator(kv, opts.Now)
	notes := notify.NewLog(kv, opts.NotificationLimit, opts.Now)
	store := sales.NewStore(kv)

	return &App{
		kv:       kv,
		blobs:    blobs,
		catalog:  cat,
		cart:     cart.New(),
		seq:      seq,
		notes:    notes,
		recorder: sales.NewRecorder(store, seq, notes, opts.Now, opts.Currency),
		settings: settings.NewStore(kv, seq),
		backup:   backup.NewService(kv, cat, store, notes, opts.Terminal, opts.Now),
		printer:  opts.Printer,
		now:      opts.Now,
		currency: opts.Currency,
		terminal: opts.Terminal,
		seed:     opts.SeedDefaults,
	}
}

// Load brings stored data up to the current layout and seeds the default
// menu into an empty catalog.
func (a *App) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.load(ctx)
}

func (a *App) load(ctx context.Context) error {
	if err := storage.Migrate(ctx, a.kv); err != nil {
		return errors.Wrap(err, "migrate storage")
	}
	if a.seed {
		if _, err := a.catalog.SeedDefaults(ctx); err != nil {
			return errors.Wrap(err, "seed default menu")
		}
	}
	return nil
}

// Reset wipes every key and image, empties the cart and loads again as on
// a fresh install.
func (a *App) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	keys, err := a.kv.Keys(ctx)
	if err != nil {
		return errors.Wrap(err, "list keys")
	}
	for _, k := range keys {
		if err := storage.Remove(ctx, a.kv, k); err != nil {
			return err
		}
	}
	if err := a.blobs.ClearBlobs(ctx); err != nil {
		return &storage.WriteError{Key: "image", Err: err}
	}
	a.cart.Clear()
	a.reopened = nil
	log.Warn("terminal reset")
	return a.load(ctx)
}

// Status summarizes the terminal for the status endpoint.
type Status struct {
	Terminal      string `json:"terminal"`
	Products      int    `json:"products"`
	Sales         int    `json:"sales"`
	Unread        int    `json:"unread"`
	OrderCounter  int    `json:"orderCounter"`
	LastOrderDate string `json:"lastOrderDate"`
}

func (a *App) Status(ctx context.Context) (Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	products, err := a.catalog.ListProducts(ctx)
	if err != nil {
		return Status{}, err
	}
	st, err := a.seq.Peek(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Terminal:      a.terminal,
		Products:      len(products),
		Sales:         len(a.recorder.Store().List(ctx)),
		Unread:        a.notes.UnreadCount(ctx),
		OrderCounter:  st.Counter,
		LastOrderDate: st.LastOrderDate,
	}, nil
}

// Currency is the symbol prices are shown with.
func (a *App) Currency() string { return a.currency }

// Location is the time zone days and hours are counted in.
func (a *App) Location() *time.Location { return a.now().Location() }
