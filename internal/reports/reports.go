// Package reports derives dashboard figures from the sales history. Nothing
// here is stored; every function is a pure view over the sales it is given.
package reports

import (
	"fmt"
	"sort"
	"time"

	"go-pos-terminal/internal/models"

	"github.com/shopspring/decimal"
)

// OtherCategory collects items recorded without a category.
const OtherCategory = "Other"

// NoData is the peak hour label when there are no sales.
const NoData = "No data"

var hundred = decimal.NewFromInt(100)

type Totals struct {
	Revenue    decimal.Decimal `json:"revenue"`
	OrderCount int             `json:"orderCount"`
}

// RangeTotals sums revenue and counts orders inside r.
func RangeTotals(sales []models.Sale, r Range, now time.Time) Totals {
	t := Totals{Revenue: decimal.Zero}
	for _, s := range Filter(sales, r, now) {
		t.Revenue = t.Revenue.Add(s.Total)
		t.OrderCount++
	}
	return t
}

type ItemStat struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Revenue  decimal.Decimal `json:"revenue"`
}

// TopItems groups lines by item name and returns the limit best by revenue.
// Equal revenue keeps first-sold order.
func TopItems(sales []models.Sale, limit int) []ItemStat {
	stats := itemStats(sales)
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Revenue.GreaterThan(stats[j].Revenue)
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

func itemStats(sales []models.Sale) []ItemStat {
	index := make(map[string]int)
	stats := []ItemStat{}
	for _, s := range sales {
		for _, item := range s.Items {
			i, ok := index[item.Name]
			if !ok {
				i = len(stats)
				index[item.Name] = i
				stats = append(stats, ItemStat{Name: item.Name, Revenue: decimal.Zero})
			}
			stats[i].Quantity += item.Quantity
			stats[i].Revenue = stats[i].Revenue.Add(item.LineTotal())
		}
	}
	return stats
}

type PeakHour struct {
	Hour    int             `json:"hour"`
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
}

// FindPeakHour buckets sale totals by hour of day in loc and returns the
// busiest hour. The earliest hour wins a tie.
func FindPeakHour(sales []models.Sale, loc *time.Location) PeakHour {
	if len(sales) == 0 {
		return PeakHour{Hour: -1, Label: NoData, Revenue: decimal.Zero}
	}
	if loc == nil {
		loc = time.Local
	}
	var buckets [24]decimal.Decimal
	for _, s := range sales {
		h := s.Date.In(loc).Hour()
		buckets[h] = buckets[h].Add(s.Total)
	}
	best := 0
	for h := 1; h < 24; h++ {
		if buckets[h].GreaterThan(buckets[best]) {
			best = h
		}
	}
	return PeakHour{Hour: best, Label: HourLabel(best), Revenue: buckets[best]}
}

// HourLabel renders an hour of day on a 12-hour clock: 0 is "12 AM".
func HourLabel(h int) string {
	switch {
	case h == 0:
		return "12 AM"
	case h < 12:
		return fmt.Sprintf("%d AM", h)
	case h == 12:
		return "12 PM"
	}
	return fmt.Sprintf("%d PM", h-12)
}

type CategoryStat struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Percent  decimal.Decimal `json:"percent"`
}

// CategoryShare sums line totals per category, largest first, with each
// share as a percent of the sum over all categories.
func CategoryShare(sales []models.Sale) []CategoryStat {
	index := make(map[string]int)
	stats := []CategoryStat{}
	total := decimal.Zero
	for _, s := range sales {
		for _, item := range s.Items {
			cat := item.Category
			if cat == "" {
				cat = OtherCategory
			}
			i, ok := index[cat]
			if !ok {
				i = len(stats)
				index[cat] = i
				stats = append(stats, CategoryStat{Category: cat, Amount: decimal.Zero})
			}
			amount := item.LineTotal()
			stats[i].Amount = stats[i].Amount.Add(amount)
			total = total.Add(amount)
		}
	}
	for i := range stats {
		stats[i].Percent = decimal.Zero
		if total.IsPositive() {
			stats[i].Percent = stats[i].Amount.Mul(hundred).DivRound(total, 2)
		}
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Amount.GreaterThan(stats[j].Amount)
	})
	return stats
}

type Summary struct {
	Revenue      decimal.Decimal `json:"revenue"`
	Orders       int             `json:"orders"`
	AverageOrder decimal.Decimal `json:"averageOrder"`
	TotalItems   int             `json:"totalItems"`
}

func Summarize(sales []models.Sale) Summary {
	s := Summary{Revenue: decimal.Zero, AverageOrder: decimal.Zero}
	for _, sale := range sales {
		s.Revenue = s.Revenue.Add(sale.Total)
		s.Orders++
		s.TotalItems += sale.ItemCount()
	}
	if s.Orders > 0 {
		s.AverageOrder = s.Revenue.DivRound(decimal.NewFromInt(int64(s.Orders)), 2)
	}
	return s
}

type DayTotal struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
}

var weekdays = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// WeekdayTotals sums sale totals per day of the week, Sunday first.
func WeekdayTotals(sales []models.Sale, loc *time.Location) []DayTotal {
	if loc == nil {
		loc = time.Local
	}
	out := make([]DayTotal, 7)
	for i := range out {
		out[i] = DayTotal{Day: weekdays[i], Revenue: decimal.Zero}
	}
	for _, s := range sales {
		d := s.Date.In(loc).Weekday()
		out[d].Revenue = out[d].Revenue.Add(s.Total)
	}
	return out
}

// Trending picks the three best sellers by quantity in each category. With
// no sales it falls back to the first two products of every category.
func Trending(sales []models.Sale, products []models.Product) []int64 {
	categoryOf := make(map[int64]string, len(products))
	for _, p := range products {
		categoryOf[p.ID] = p.Category
	}

	type sold struct {
		id       int64
		category string
		qty      int
	}
	index := make(map[int64]int)
	var all []sold
	for _, s := range sales {
		for _, item := range s.Items {
			i, ok := index[item.ProductID]
			if !ok {
				cat := item.Category
				if cat == "" {
					cat = categoryOf[item.ProductID]
				}
				if cat == "" {
					cat = OtherCategory
				}
				i = len(all)
				index[item.ProductID] = i
				all = append(all, sold{id: item.ProductID, category: cat})
			}
			all[i].qty += item.Quantity
		}
	}

	var order []string
	byCategory := make(map[string][]sold)
	for _, p := range all {
		if _, ok := byCategory[p.category]; !ok {
			order = append(order, p.category)
		}
		byCategory[p.category] = append(byCategory[p.category], p)
	}

	ids := []int64{}
	for _, cat := range order {
		list := byCategory[cat]
		sort.SliceStable(list, func(i, j int) bool { return list[i].qty > list[j].qty })
		for i := 0; i < len(list) && i < 3; i++ {
			ids = append(ids, list[i].id)
		}
	}
	if len(ids) > 0 {
		return ids
	}

	perCategory := make(map[string]int)
	for _, p := range products {
		if perCategory[p.Category] < 2 {
			perCategory[p.Category]++
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// Recent returns up to n sales, newest first.
func Recent(sales []models.Sale, n int) []models.Sale {
	out := make([]models.Sale, 0, n)
	for i := len(sales) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, sales[i])
	}
	return out
}

// Insights are the one-line observations shown under the dashboard.
func Insights(all, inRange []models.Sale, loc *time.Location, currency string) []string {
	var lines []string
	if peak := FindPeakHour(all, loc); peak.Hour >= 0 {
		lines = append(lines, fmt.Sprintf("⏰ Peak sales time: %s - %s (%s%s revenue)",
			peak.Label, HourLabel((peak.Hour+1)%24), currency, peak.Revenue.StringFixed(2)))
	}
	if top := TopItems(inRange, 1); len(top) > 0 {
		total := decimal.Zero
		for _, it := range itemStats(inRange) {
			total = total.Add(it.Revenue)
		}
		lines = append(lines, fmt.Sprintf("🏆 %q is your top seller (%s%% of revenue)", top[0].Name, percent(top[0].Revenue, total)))
	}
	if sum := Summarize(all); sum.Orders > 0 {
		lines = append(lines, fmt.Sprintf("💰 Average customer spends %s%s per visit", currency, sum.AverageOrder.StringFixed(2)))
	}
	if cats := CategoryShare(all); len(cats) > 0 {
		lines = append(lines, fmt.Sprintf("📊 %s category leads with %s%% of sales", cats[0].Category, cats[0].Percent.StringFixed(1)))
	}
	if len(lines) == 0 {
		lines = append(lines, "💡 Start making sales to see business insights")
	}
	return lines
}

func percent(part, total decimal.Decimal) string {
	if !total.IsPositive() {
		return "0"
	}
	return part.Mul(hundred).Div(total).StringFixed(1)
}

// Dashboard bundles the figures of the dashboard screen.
type Dashboard struct {
	Range        Range          `json:"range"`
	Totals       Totals         `json:"totals"`
	Summary      Summary        `json:"summary"`
	TopItems     []ItemStat     `json:"topItems"`
	PeakHour     PeakHour       `json:"peakHour"`
	Categories   []CategoryStat `json:"categories"`
	Weekdays     []DayTotal     `json:"weekdays"`
	Recent       []models.Sale  `json:"recent"`
	Insights     []string       `json:"insights"`
	TrendingIDs  []int64        `json:"trending"`
	ProductCount int            `json:"productCount"`
}

// BuildDashboard computes every dashboard figure. Range-bound figures use
// the sales inside r; peak hour, categories and weekdays use all sales.
func BuildDashboard(all []models.Sale, products []models.Product, r Range, now time.Time, currency string) Dashboard {
	inRange := Filter(all, r, now)
	loc := now.Location()
	return Dashboard{
		Range:        r,
		Totals:       RangeTotals(all, r, now),
		Summary:      Summarize(inRange),
		TopItems:     TopItems(inRange, 5),
		PeakHour:     FindPeakHour(all, loc),
		Categories:   CategoryShare(all),
		Weekdays:     WeekdayTotals(all, loc),
		Recent:       Recent(inRange, 8),
		Insights:     Insights(all, inRange, loc, currency),
		TrendingIDs:  Trending(all, products),
		ProductCount: len(products),
	}
}
