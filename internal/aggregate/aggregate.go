// Package aggregate derives the dashboard statistics from a set of canonical
// orders. Every call builds a fresh AggregateStats and never touches its input.
package aggregate

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/chrisdamba/orderlens/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	TopRestaurants = 10
	TopItems       = 10

	monthKeyLayout   = "2006-01"
	monthLabelLayout = "Jan 2006"
)

// Engine buckets months in Location. The zero value uses UTC.
type Engine struct {
	Location *time.Location
}

func New(loc *time.Location) *Engine {
	return &Engine{Location: loc}
}

var defaultEngine = &Engine{}

// Aggregate computes the stats for filter using UTC month buckets.
func Aggregate(orders []models.CanonicalOrder, filter models.ServiceType) models.AggregateStats {
	return defaultEngine.Aggregate(orders, filter)
}

// AggregateAll computes the stats for every filter value concurrently.
func AggregateAll(ctx context.Context, orders []models.CanonicalOrder) (map[models.ServiceType]models.AggregateStats, error) {
	return defaultEngine.AggregateAll(ctx, orders)
}

func (e *Engine) location() *time.Location {
	if e == nil || e.Location == nil {
		return time.UTC
	}
	return e.Location
}

func (e *Engine) Aggregate(orders []models.CanonicalOrder, filter models.ServiceType) models.AggregateStats {
	filter = models.ParseServiceFilter(string(filter))
	filtered := Filter(orders, filter)

	stats := models.AggregateStats{
		Filter:           filter,
		TotalOrders:      len(filtered),
		ServiceBreakdown: Breakdown(orders),
	}
	for _, o := range filtered {
		stats.TotalSpent += o.Amount
		stats.TotalDiscount += o.Discount
		stats.TotalDeliveryFees += o.DeliveryFee
		if o.CouponApplied {
			stats.OrdersWithCoupons++
		}
	}
	if stats.TotalOrders > 0 {
		stats.AvgOrderValue = stats.TotalSpent / float64(stats.TotalOrders)
	}

	stats.MonthlyData = e.monthly(filtered)
	stats.RestaurantData = restaurants(filtered)
	stats.ItemData = items(filtered)
	stats.RecentOrders = recent(filtered)
	return stats
}

func (e *Engine) AggregateAll(ctx context.Context, orders []models.CanonicalOrder) (map[models.ServiceType]models.AggregateStats, error) {
	var mu sync.Mutex
	results := make(map[models.ServiceType]models.AggregateStats, len(models.ServiceFilters))

	g, ctx := errgroup.WithContext(ctx)
	for _, f := range models.ServiceFilters {
		f := f
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stats := e.Aggregate(orders, f)
			mu.Lock()
			results[f] = stats
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Filter returns the orders whose service tag matches filter, in input order.
// ServiceAll keeps everything.
func Filter(orders []models.CanonicalOrder, filter models.ServiceType) []models.CanonicalOrder {
	out := make([]models.CanonicalOrder, 0, len(orders))
	for _, o := range orders {
		if filter == models.ServiceAll || o.ServiceTag() == filter {
			out = append(out, o)
		}
	}
	return out
}

// Breakdown counts orders per concrete service tag. Every tag is present,
// unknown order types are not counted.
func Breakdown(orders []models.CanonicalOrder) map[models.ServiceType]int {
	counts := make(map[models.ServiceType]int, len(models.ServiceTypes))
	for _, t := range models.ServiceTypes {
		counts[t] = 0
	}
	for _, o := range orders {
		if _, ok := counts[o.ServiceTag()]; ok {
			counts[o.ServiceTag()]++
		}
	}
	return counts
}

func (e *Engine) monthly(orders []models.CanonicalOrder) []models.MonthlyStat {
	loc := e.location()
	byKey := make(map[string]*models.MonthlyStat)
	for _, o := range orders {
		d := o.Date.In(loc)
		key := d.Format(monthKeyLayout)
		m, ok := byKey[key]
		if !ok {
			m = &models.MonthlyStat{MonthKey: key, MonthLabel: d.Format(monthLabelLayout)}
			byKey[key] = m
		}
		m.Amount += o.Amount
		m.OrderCount++
	}

	out := make([]models.MonthlyStat, 0, len(byKey))
	for _, m := range byKey {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MonthKey < out[j].MonthKey })
	return out
}

func restaurants(orders []models.CanonicalOrder) []models.RestaurantStat {
	index := make(map[string]int)
	out := make([]models.RestaurantStat, 0)
	for _, o := range orders {
		i, ok := index[o.Restaurant]
		if !ok {
			i = len(out)
			index[o.Restaurant] = i
			out = append(out, models.RestaurantStat{Name: o.Restaurant})
		}
		out[i].Amount += o.Amount
		out[i].OrderCount++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	if len(out) > TopRestaurants {
		out = out[:TopRestaurants]
	}
	return out
}

func items(orders []models.CanonicalOrder) []models.ItemStat {
	index := make(map[string]int)
	out := make([]models.ItemStat, 0)
	for _, o := range orders {
		for _, it := range o.Items {
			qty := it.Quantity
			if qty < 1 {
				qty = 1
			}
			price := it.Price
			if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
				price = 0
			}

			i, ok := index[it.Name]
			if !ok {
				i = len(out)
				index[it.Name] = i
				out = append(out, models.ItemStat{Name: it.Name})
			}
			out[i].Count += qty
			out[i].TotalSpent += price * float64(qty)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > TopItems {
		out = out[:TopItems]
	}
	return out
}

func recent(orders []models.CanonicalOrder) []models.CanonicalOrder {
	out := make([]models.CanonicalOrder, len(orders))
	copy(out, orders)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
