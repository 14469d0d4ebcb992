package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/chrisdamba/orderlens/internal/factories"
	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/chrisdamba/orderlens/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func order(id, restaurant, orderType string, amount float64, date time.Time, items ...models.OrderItem) models.CanonicalOrder {
	return models.CanonicalOrder{
		ID:         id,
		Date:       date,
		Restaurant: restaurant,
		Amount:     amount,
		Items:      items,
		OrderType:  orderType,
		IsPaid:     true,
	}
}

func fixture() []models.CanonicalOrder {
	return []models.CanonicalOrder{
		order("1", "Truffles", "delivery", 400, day(2024, time.January, 5), models.OrderItem{Name: "Burger", Quantity: 2, Price: 150}),
		order("2", "Truffles", "", 200, day(2024, time.March, 1), models.OrderItem{Name: "Burger", Quantity: 1, Price: 150}),
		order("3", "Instamart", "INSTAMART", 650, day(2024, time.February, 10), models.OrderItem{Name: "Milk", Quantity: 3, Price: 30}),
		order("4", "Toit", "dineout", 1200, day(2024, time.January, 20)),
		order("5", "Genie", "genie", 90, day(2023, time.December, 31)),
		order("6", "Someplace", "pickup", 50, day(2024, time.March, 3)),
	}
}

func sumMonthly(stats models.AggregateStats) float64 {
	total := 0.0
	for _, m := range stats.MonthlyData {
		total += m.Amount
	}
	return total
}

func TestAggregateAll(t *testing.T) {
	orders := fixture()
	stats := Aggregate(orders, models.ServiceAll)

	assert.Equal(t, models.ServiceAll, stats.Filter)
	assert.Equal(t, len(orders), stats.TotalOrders)
	assert.Len(t, stats.RecentOrders, stats.TotalOrders)
	assert.InDelta(t, 2590.0, stats.TotalSpent, 1e-9)
	assert.InDelta(t, 2590.0/6, stats.AvgOrderValue, 1e-9)
	assert.InDelta(t, stats.TotalSpent, sumMonthly(stats), 1e-9)

	assert.Equal(t, map[models.ServiceType]int{
		models.ServiceFood:      2,
		models.ServiceInstamart: 1,
		models.ServiceDineout:   1,
		models.ServiceGenie:     1,
	}, stats.ServiceBreakdown)
}

func TestAggregateFilter(t *testing.T) {
	orders := fixture()
	stats := Aggregate(orders, models.ServiceFood)

	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 600.0, stats.TotalSpent)
	assert.Equal(t, 300.0, stats.AvgOrderValue)
	// breakdown ignores the filter
	assert.Equal(t, 1, stats.ServiceBreakdown[models.ServiceGenie])

	require.Len(t, stats.ItemData, 1)
	assert.Equal(t, models.ItemStat{Name: "Burger", Count: 3, TotalSpent: 450}, stats.ItemData[0])

	instamart := Aggregate(orders, "Instamart")
	assert.Equal(t, models.ServiceInstamart, instamart.Filter)
	assert.Equal(t, 1, instamart.TotalOrders)
}

func TestAggregateUnknownFilterMeansAll(t *testing.T) {
	orders := fixture()
	assert.Equal(t, Aggregate(orders, models.ServiceAll), Aggregate(orders, "takeaway"))
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil, models.ServiceAll)

	assert.Zero(t, stats.TotalOrders)
	assert.Zero(t, stats.AvgOrderValue)
	assert.NotNil(t, stats.MonthlyData)
	assert.NotNil(t, stats.RestaurantData)
	assert.NotNil(t, stats.ItemData)
	assert.NotNil(t, stats.RecentOrders)
	assert.Len(t, stats.ServiceBreakdown, 4)

	none := Aggregate(fixture(), models.ServiceDineout)
	assert.Equal(t, 1, none.TotalOrders)
}

func TestMonthlySortedByKey(t *testing.T) {
	stats := Aggregate(fixture(), models.ServiceAll)

	keys := make([]string, 0, len(stats.MonthlyData))
	for _, m := range stats.MonthlyData {
		keys = append(keys, m.MonthKey)
	}
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-02", "2024-03"}, keys)
	assert.Equal(t, "Dec 2023", stats.MonthlyData[0].MonthLabel)
	assert.Equal(t, models.MonthlyStat{MonthKey: "2024-01", MonthLabel: "Jan 2024", Amount: 1600, OrderCount: 2}, stats.MonthlyData[1])
}

func TestMonthlyUsesEngineLocation(t *testing.T) {
	orders := []models.CanonicalOrder{
		order("1", "A", "", 100, time.Date(2024, time.January, 31, 20, 0, 0, 0, time.UTC)),
	}
	kolkata := time.FixedZone("IST", 5*3600+1800)

	assert.Equal(t, "2024-01", Aggregate(orders, models.ServiceAll).MonthlyData[0].MonthKey)
	assert.Equal(t, "2024-02", New(kolkata).Aggregate(orders, models.ServiceAll).MonthlyData[0].MonthKey)
}

func TestRestaurantsTopTen(t *testing.T) {
	var orders []models.CanonicalOrder
	for i := 0; i < 15; i++ {
		name := fmt.Sprintf("R%02d", i)
		orders = append(orders, order(fmt.Sprintf("%d", i), name, "", float64(100+i*10), day(2024, time.May, 1)))
	}
	// two restaurants with the same spend keep first-seen order
	orders = append(orders, order("x", "R00", "", 130, day(2024, time.May, 2)))

	stats := Aggregate(orders, models.ServiceAll)

	require.Len(t, stats.RestaurantData, TopRestaurants)
	for i := 1; i < len(stats.RestaurantData); i++ {
		assert.GreaterOrEqual(t, stats.RestaurantData[i-1].Amount, stats.RestaurantData[i].Amount)
	}
	assert.Equal(t, "R14", stats.RestaurantData[0].Name)
	assert.Equal(t, models.RestaurantStat{Name: "R00", Amount: 230, OrderCount: 2}, stats.RestaurantData[1])
	assert.Equal(t, "R13", stats.RestaurantData[2].Name)
}

func TestItemsCoerceQuantityAndPrice(t *testing.T) {
	orders := []models.CanonicalOrder{
		order("1", "A", "", 100, day(2024, time.June, 1),
			models.OrderItem{Name: "Tea", Quantity: 0, Price: 20},
			models.OrderItem{Name: "Tea", Quantity: 3, Price: math.NaN()},
			models.OrderItem{Name: "Bun", Quantity: 2, Price: -5},
		),
	}

	stats := Aggregate(orders, models.ServiceAll)

	require.Len(t, stats.ItemData, 2)
	assert.Equal(t, models.ItemStat{Name: "Tea", Count: 4, TotalSpent: 20}, stats.ItemData[0])
	assert.Equal(t, models.ItemStat{Name: "Bun", Count: 2, TotalSpent: 0}, stats.ItemData[1])
}

func TestItemsTopTen(t *testing.T) {
	var items []models.OrderItem
	for i := 0; i < 12; i++ {
		items = append(items, models.OrderItem{Name: fmt.Sprintf("I%d", i), Quantity: i + 1, Price: 1})
	}
	stats := Aggregate([]models.CanonicalOrder{order("1", "A", "", 10, day(2024, time.June, 1), items...)}, models.ServiceAll)

	require.Len(t, stats.ItemData, TopItems)
	assert.Equal(t, "I11", stats.ItemData[0].Name)
	assert.Equal(t, 12, stats.ItemData[0].Count)
}

func TestRecentOrdersIsFreshAndSorted(t *testing.T) {
	orders := fixture()
	before := make([]models.CanonicalOrder, len(orders))
	copy(before, orders)

	stats := Aggregate(orders, models.ServiceAll)

	assert.Equal(t, before, orders, "input must not be reordered")
	for i := 1; i < len(stats.RecentOrders); i++ {
		assert.False(t, stats.RecentOrders[i].Date.After(stats.RecentOrders[i-1].Date))
	}
	assert.Equal(t, "6", stats.RecentOrders[0].ID)
	stats.RecentOrders[0].ID = "changed"
	assert.Equal(t, "1", orders[0].ID)
}

func TestPizzaExample(t *testing.T) {
	raw := models.RawOrderRecord{
		"order_total": json.Number("500"),
		"order_time":  json.Number("1700000000"),
		"order_items": []interface{}{
			map[string]interface{}{"name": "Pizza", "quantity": json.Number("2"), "price": json.Number("150")},
		},
	}
	o, _ := normalize.Normalize(raw, 0)

	stats := Aggregate([]models.CanonicalOrder{o}, models.ServiceAll)

	assert.Equal(t, 500.0, stats.TotalSpent)
	require.Len(t, stats.ItemData, 1)
	assert.Equal(t, models.ItemStat{Name: "Pizza", Count: 2, TotalSpent: 300}, stats.ItemData[0])
}

func TestAggregateInvariantsOnSampleData(t *testing.T) {
	orders := factories.NewOrderFactory(rand.NewSource(7), nil).CreateOrders(200)

	for _, f := range models.ServiceFilters {
		stats := Aggregate(orders, f)
		assert.Equal(t, stats.TotalOrders, len(stats.RecentOrders))
		assert.InDelta(t, stats.TotalSpent, sumMonthly(stats), 1e-6)
		assert.LessOrEqual(t, len(stats.RestaurantData), TopRestaurants)
		assert.LessOrEqual(t, len(stats.ItemData), TopItems)
		if stats.TotalOrders > 0 {
			assert.InDelta(t, stats.TotalSpent/float64(stats.TotalOrders), stats.AvgOrderValue, 1e-9)
		}
	}
	assert.Equal(t, len(orders), Aggregate(orders, models.ServiceAll).TotalOrders)
}

func TestAggregateIsIdempotent(t *testing.T) {
	orders := factories.NewOrderFactory(rand.NewSource(3), nil).CreateOrders(60)
	assert.Equal(t, Aggregate(orders, models.ServiceFood), Aggregate(orders, models.ServiceFood))
}

func TestAggregateAllFilters(t *testing.T) {
	orders := fixture()

	all, err := AggregateAll(context.Background(), orders)
	require.NoError(t, err)

	assert.Len(t, all, len(models.ServiceFilters))
	for _, f := range models.ServiceFilters {
		assert.Equal(t, Aggregate(orders, f), all[f])
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = AggregateAll(ctx, orders)
	assert.ErrorIs(t, err, context.Canceled)
}
