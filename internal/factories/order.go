package factories

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/chrisdamba/orderlens/internal/models"
	"github.com/jaswdr/faker"
)

const (
	DefaultSampleCount = 30

	sampleWindowDays = 90
	minSampleAmount  = 150
	maxSampleAmount  = 950 // exclusive
	maxSampleItems   = 5
)

type sampleRestaurant struct {
	Name    string
	Cuisine string
}

var sampleRestaurants = []sampleRestaurant{
	{"Pizza Hut", "Pizza"},
	{"Dominos", "Pizza"},
	{"KFC", "Burgers"},
	{"McDonalds", "Burgers"},
	{"Burger King", "Burgers"},
	{"Subway", "Salad"},
	{"Starbucks", "Beverages"},
	{"Cafe Coffee Day", "Beverages"},
	{"Haldirams", "Indian"},
	{"Barbeque Nation", "Grill"},
}

var sampleDishes = map[string][]string{
	"Pizza":     {"Margherita", "Pepperoni", "Farmhouse", "Veggie Supreme", "Garlic Bread"},
	"Burgers":   {"Classic Cheeseburger", "Veggie Burger", "Chicken Zinger", "Fries", "Chicken Wings"},
	"Salad":     {"Paneer Tikka Sub", "Chicken Teriyaki Sub", "Caesar Salad", "Cookie"},
	"Beverages": {"Cappuccino", "Cold Coffee", "Caramel Frappe", "Blueberry Muffin"},
	"Indian":    {"Chole Bhature", "Raj Kachori", "Pav Bhaji", "Gulab Jamun", "Masala Dosa"},
	"Grill":     {"Grilled Chicken", "Paneer Tikka", "Mutton Seekh Kebab", "Kulfi"},
}

var sampleVegDishes = map[string]bool{
	"Margherita": true, "Farmhouse": true, "Veggie Supreme": true, "Garlic Bread": true,
	"Veggie Burger": true, "Fries": true, "Paneer Tikka Sub": true, "Caesar Salad": true,
	"Cookie": true, "Cappuccino": true, "Cold Coffee": true, "Caramel Frappe": true,
	"Blueberry Muffin": true, "Chole Bhature": true, "Raj Kachori": true, "Pav Bhaji": true,
	"Gulab Jamun": true, "Masala Dosa": true, "Paneer Tikka": true, "Kulfi": true,
}

// OrderFactory produces synthetic orders that satisfy every CanonicalOrder
// invariant. It backs the extractor's fallback path.
type OrderFactory struct {
	fake faker.Faker
	now  func() time.Time
}

// NewOrderFactory seeds the generator from src (clock-seeded when nil) and
// anchors dates to now (wall clock when nil).
func NewOrderFactory(src rand.Source, now func() time.Time) *OrderFactory {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	if now == nil {
		now = time.Now
	}
	return &OrderFactory{fake: faker.NewWithSeed(src), now: now}
}

// CreateOrders returns count orders, DefaultSampleCount when count <= 0.
func (of *OrderFactory) CreateOrders(count int) []models.CanonicalOrder {
	if count <= 0 {
		count = DefaultSampleCount
	}
	now := of.now().UTC().Truncate(time.Second)
	orders := make([]models.CanonicalOrder, count)
	for i := 0; i < count; i++ {
		orders[i] = of.CreateOrder(i, now)
	}
	return orders
}

// CreateOrder builds the i-th sample order dated within the 90 days before now.
func (of *OrderFactory) CreateOrder(i int, now time.Time) models.CanonicalOrder {
	restaurant := sampleRestaurants[of.fake.IntBetween(0, len(sampleRestaurants)-1)]

	daysAgo := of.fake.IntBetween(0, sampleWindowDays-1)
	secondsAgo := of.fake.IntBetween(0, 86399)
	date := now.AddDate(0, 0, -daysAgo).Add(-time.Duration(secondsAgo) * time.Second)

	amount := of.fake.IntBetween(minSampleAmount, maxSampleAmount-1)
	items := of.createItems(restaurant.Cuisine, amount)

	paymentMethod := models.PaymentMethodCOD
	if of.fake.Bool() {
		paymentMethod = models.PaymentMethodOnline
	}

	return models.CanonicalOrder{
		ID:            fmt.Sprintf("ORD%d", 1000+i),
		Date:          date,
		Restaurant:    restaurant.Name,
		Cuisine:       restaurant.Cuisine,
		Amount:        float64(amount),
		ItemTotal:     float64(amount),
		Items:         items,
		Status:        models.OrderStatusDelivered,
		PaymentMethod: paymentMethod,
		IsPaid:        true,
		OrderType:     models.OrderTypeDelivery,
		Platform:      models.PlatformApp,
	}
}

// createItems splits amount over 1-5 single-quantity items; the last item
// absorbs the remainder so prices sum to the amount exactly.
func (of *OrderFactory) createItems(cuisine string, amount int) []models.OrderItem {
	count := of.fake.IntBetween(1, maxSampleItems)
	dishes := sampleDishes[cuisine]
	share := amount / count

	items := make([]models.OrderItem, count)
	for j := 0; j < count; j++ {
		price := share
		if j == count-1 {
			price = amount - share*(count-1)
		}
		name := fmt.Sprintf("Item %d", j+1)
		if len(dishes) > 0 {
			name = dishes[of.fake.IntBetween(0, len(dishes)-1)]
		}
		items[j] = models.OrderItem{
			Name:     name,
			Quantity: 1,
			Price:    float64(price),
			IsVeg:    sampleVegDishes[name],
		}
	}
	return items
}
