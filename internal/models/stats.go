package models

// AggregateStats is the dashboard view derived from a set of orders. A new
// value is built on every recomputation; nothing holds on to old ones.
type AggregateStats struct {
	Filter            ServiceType         `json:"filter"`
	TotalSpent        float64             `json:"totalSpent"`
	TotalOrders       int                 `json:"totalOrders"`
	AvgOrderValue     float64             `json:"avgOrderValue"`
	TotalDiscount     float64             `json:"totalDiscount"`
	TotalDeliveryFees float64             `json:"totalDeliveryFees"`
	OrdersWithCoupons int                 `json:"ordersWithCoupons"`
	ServiceBreakdown  map[ServiceType]int `json:"serviceBreakdown"` // always over the unfiltered set
	MonthlyData       []MonthlyStat       `json:"monthlyData"`
	RestaurantData    []RestaurantStat    `json:"restaurantData"`
	ItemData          []ItemStat          `json:"itemData"`
	RecentOrders      []CanonicalOrder    `json:"recentOrders"`
}

type MonthlyStat struct {
	MonthKey   string  `json:"monthKey"`   // YYYY-MM
	MonthLabel string  `json:"monthLabel"` // Jan 2006
	Amount     float64 `json:"amount"`
	OrderCount int     `json:"orderCount"`
}

type RestaurantStat struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	OrderCount int     `json:"orderCount"`
}

type ItemStat struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	TotalSpent float64 `json:"totalSpent"`
}
