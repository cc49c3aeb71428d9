package reports

import (
	"strings"
	"time"

	"go-pos-terminal/internal/models"

	"github.com/pkg/errors"
)

// Kind names a reporting period.
type Kind string

const (
	Today  Kind = "today"
	Week   Kind = "week"
	Month  Kind = "month"
	Custom Kind = "custom"
	All    Kind = "all"
)

// DateLayout is how custom range days are written.
const DateLayout = "2006-01-02"

var ErrInvalidRange = errors.New("invalid report range")

// Range is a reporting period. Start and End are only read for Custom and
// are whole days; either may be zero to leave that side open.
type Range struct {
	Kind  Kind      `json:"kind"`
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// ParseRange reads a period name and, for custom ranges, YYYY-MM-DD days
// in loc. An empty kind means today.
func ParseRange(kind, start, end string, loc *time.Location) (Range, error) {
	if loc == nil {
		loc = time.Local
	}
	r := Range{Kind: Kind(strings.ToLower(strings.TrimSpace(kind)))}
	switch r.Kind {
	case "":
		r.Kind = Today
	case Today, Week, Month, All:
	case Custom:
		var err error
		if start != "" {
			if r.Start, err = time.ParseInLocation(DateLayout, start, loc); err != nil {
				return Range{}, errors.Wrapf(ErrInvalidRange, "start %q", start)
			}
		}
		if end != "" {
			if r.End, err = time.ParseInLocation(DateLayout, end, loc); err != nil {
				return Range{}, errors.Wrapf(ErrInvalidRange, "end %q", end)
			}
		}
		if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
			return Range{}, errors.Wrap(ErrInvalidRange, "end is before start")
		}
	default:
		return Range{}, errors.Wrapf(ErrInvalidRange, "kind %q", kind)
	}
	return r, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Bounds returns [from, to) in now's location. Every day in the period is
// covered from 00:00 to the last instant before the next midnight; weeks run
// Sunday to Saturday. A zero bound is open.
func (r Range) Bounds(now time.Time) (from, to time.Time) {
	day := startOfDay(now)
	switch r.Kind {
	case Today, "":
		return day, day.AddDate(0, 0, 1)
	case Week:
		sunday := day.AddDate(0, 0, -int(day.Weekday()))
		return sunday, sunday.AddDate(0, 0, 7)
	case Month:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return first, first.AddDate(0, 1, 0)
	case Custom:
		if !r.Start.IsZero() {
			from = startOfDay(r.Start.In(now.Location()))
		}
		if !r.End.IsZero() {
			to = startOfDay(r.End.In(now.Location())).AddDate(0, 0, 1)
		}
		return from, to
	}
	return time.Time{}, time.Time{}
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t, now time.Time) bool {
	from, to := r.Bounds(now)
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}

// Filter keeps the sales dated inside r, in their original order.
func Filter(sales []models.Sale, r Range, now time.Time) []models.Sale {
	out := make([]models.Sale, 0, len(sales))
	for _, s := range sales {
		if r.Contains(s.Date, now) {
			out = append(out, s)
		}
	}
	return out
}
