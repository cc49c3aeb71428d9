// Package sequence hands out the human-readable order numbers that restart
// at #01 every day.
package sequence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-pos-terminal/internal/models"
	"go-pos-terminal/internal/storage"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DateLayout is how the day of the last order is stored.
const DateLayout = "Mon Jan 02 2006"

// State is the stored counter and the day it belongs to.
type State struct {
	Counter       int    `json:"orderCounter"`
	LastOrderDate string `json:"lastOrderDate"`
}

// Generator reads and advances the daily counter. It assumes a single
// writer; callers serialize access.
type Generator struct {
	kv  storage.KV
	now func() time.Time
}

func NewGenerator(kv storage.KV, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{kv: kv, now: now}
}

// Peek returns the stored state without changing it. A missing or
// unreadable counter reads as zero.
func (g *Generator) Peek(ctx context.Context) (State, error) {
	var st State
	raw, ok, err := g.kv.Get(ctx, storage.KeyOrderCounter)
	if err != nil {
		return st, errors.Wrap(err, "read order counter")
	}
	if ok && raw != "" {
		if st.Counter, err = strconv.Atoi(strings.TrimSpace(raw)); err != nil {
			log.WithField("value", raw).Warn("unreadable order counter, starting from zero")
			st.Counter = 0
		}
	}
	if st.LastOrderDate, _, err = g.kv.Get(ctx, storage.KeyLastOrderDate); err != nil {
		return st, errors.Wrap(err, "read last order date")
	}
	return st, nil
}

// Next advances the counter, restarting it when the day changed, and
// returns the formatted id.
func (g *Generator) Next(ctx context.Context) (models.SaleID, error) {
	st, err := g.Peek(ctx)
	if err != nil {
		return "", err
	}
	today := g.now().Format(DateLayout)
	if st.LastOrderDate != today {
		st.Counter = 0
		st.LastOrderDate = today
	}
	st.Counter++

	if err := g.Restore(ctx, st); err != nil {
		return "", err
	}
	return Format(st.Counter), nil
}

// Reset zeroes the counter and forgets the day.
func (g *Generator) Reset(ctx context.Context) error {
	return g.Restore(ctx, State{})
}

// Restore writes st as is.
func (g *Generator) Restore(ctx context.Context, st State) error {
	if err := g.kv.Put(ctx, storage.KeyLastOrderDate, st.LastOrderDate); err != nil {
		return &storage.WriteError{Key: storage.KeyLastOrderDate, Err: err}
	}
	if err := g.kv.Put(ctx, storage.KeyOrderCounter, strconv.Itoa(st.Counter)); err != nil {
		return &storage.WriteError{Key: storage.KeyOrderCounter, Err: err}
	}
	return nil
}

// Format renders n as "#" plus at least two digits.
func Format(n int) models.SaleID {
	return models.SaleID(fmt.Sprintf("#%02d", n))
}
