package models

import "time"

// RawOrderRecord is one element of the upstream `data.orders` array, decoded
// with json.Decoder.UseNumber so numeric fields arrive as json.Number.
type RawOrderRecord map[string]interface{}

// CanonicalOrder is the normalized, schema-stable form of one purchase.
// Values are built once by the normalizer or the sample factory and never
// modified afterwards.
type CanonicalOrder struct {
	ID             string      `json:"id"`
	Date           time.Time   `json:"date"`
	DeliveryTime   *int64      `json:"deliveryTime"` // seconds
	Restaurant     string      `json:"restaurant"`
	RestaurantID   *string     `json:"restaurantId"`
	RestaurantCity string      `json:"restaurantCity"`
	Cuisine        string      `json:"cuisine"`
	Amount         float64     `json:"amount"`
	ItemTotal      float64     `json:"itemTotal"`
	DeliveryFee    float64     `json:"deliveryFee"`
	Discount       float64     `json:"discount"`
	Taxes          float64     `json:"taxes"`
	Tip            float64     `json:"tip"`
	CouponApplied  bool        `json:"couponApplied"`
	CouponCode     *string     `json:"couponCode"`
	OfferApplied   *string     `json:"offerApplied"`
	Items          []OrderItem `json:"items"`
	Status         string      `json:"status"`        // e.g., "delivered", "cancelled"
	PaymentMethod  string      `json:"paymentMethod"` // e.g., "Online", "COD", "UPI"
	IsPaid         bool        `json:"isPaid"`
	OrderType      string      `json:"orderType"` // delivery, instamart, dineout, genie
	Platform       string      `json:"platform"`  // app, web, mobile web
	RainMode       bool        `json:"rainMode"`
}

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	IsVeg    bool    `json:"isVeg"`
}

// ServiceTag classifies the order for filtering. An empty or "delivery"
// order type is food delivery.
func (o CanonicalOrder) ServiceTag() ServiceType {
	return ServiceTypeOf(o.OrderType)
}
