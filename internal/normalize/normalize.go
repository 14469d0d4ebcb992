// Package normalize maps raw upstream order records onto models.CanonicalOrder.
//
// Normalization never fails. Every missing or malformed field resolves to a
// documented default and the anomaly is reported as a models.Diagnostic.
package normalize

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/chrisdamba/orderlens/internal/models"
)

// Normalizer carries the only inputs a record does not: the clock used when a
// record has no usable timestamp, and the zone for zone-less date strings.
type Normalizer struct {
	Now      func() time.Time
	Location *time.Location
}

// New returns a Normalizer using the wall clock and UTC.
func New() *Normalizer {
	return &Normalizer{Now: time.Now, Location: time.UTC}
}

// Normalize converts raw with the default Normalizer.
func Normalize(raw models.RawOrderRecord, fallbackIndex int) (models.CanonicalOrder, models.Diagnostics) {
	return New().Normalize(raw, fallbackIndex)
}

type recorder struct {
	at    time.Time
	id    string
	diags models.Diagnostics
}

func (r *recorder) notef(format string, args ...interface{}) {
	r.diags = append(r.diags, models.Diagnostic{
		At:      r.at,
		Stage:   models.StageNormalize,
		Message: fmt.Sprintf("order %s: ", r.id) + fmt.Sprintf(format, args...),
	})
}

// Normalize converts one raw record. fallbackIndex is used to synthesize
// ORD_<index> when the record carries no identifier.
func (n *Normalizer) Normalize(raw models.RawOrderRecord, fallbackIndex int) (models.CanonicalOrder, models.Diagnostics) {
	now := n.now()
	rec := &recorder{at: now}

	id, ok := firstString(raw, idFields)
	if !ok {
		id = fmt.Sprintf("ORD_%d", fallbackIndex)
	}
	rec.id = id

	order := models.CanonicalOrder{
		ID:             id,
		Date:           n.resolveDate(raw, now, rec),
		DeliveryTime:   n.deliveryTime(raw, rec),
		Restaurant:     stringOr(raw, restaurantFields, models.UnknownRestaurant),
		RestaurantID:   optionalString(raw, restaurantIDFields),
		RestaurantCity: stringOr(raw, restaurantCityFields, ""),
		Cuisine:        stringOr(raw, cuisineFields, ""),
		Amount:         money(raw, amountFields, "amount", rec),
		ItemTotal:      money(raw, itemTotalFields, "itemTotal", rec),
		DeliveryFee:    money(raw, deliveryFeeFields, "deliveryFee", rec),
		Discount:       money(raw, discountFields, "discount", rec),
		Taxes:          money(raw, taxFields, "taxes", rec),
		Tip:            money(raw, tipFields, "tip", rec),
		CouponApplied:  truthy(raw, couponAppliedFields),
		CouponCode:     optionalString(raw, couponCodeFields),
		OfferApplied:   optionalString(raw, offerFields),
		Items:          n.items(raw, rec),
		Status:         stringOr(raw, statusFields, models.OrderStatusDelivered),
		PaymentMethod:  stringOr(raw, paymentFields, models.PaymentMethodUnknown),
		IsPaid:         isPaid(raw, rec),
		OrderType:      orderType(raw, rec),
		Platform:       platform(raw),
		RainMode:       truthy(raw, rainModeFields),
	}
	return order, rec.diags
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now()
	}
	return n.Now()
}

func (n *Normalizer) location() *time.Location {
	if n.Location == nil {
		return time.UTC
	}
	return n.Location
}

func stringOr(raw map[string]interface{}, keys []string, def string) string {
	if s, ok := firstString(raw, keys); ok {
		return s
	}
	return def
}

// money resolves the first numeric candidate. Unparseable candidates are
// skipped, negative values clamp to zero.
func money(raw map[string]interface{}, keys []string, attr string, rec *recorder) float64 {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		f, err := asFloat(v)
		if err != nil {
			rec.notef("%s: ignoring non-numeric %s=%v", attr, k, v)
			continue
		}
		if f < 0 {
			rec.notef("%s: clamping negative %s=%v to 0", attr, k, f)
			return 0
		}
		return f
	}
	return 0
}

func (n *Normalizer) deliveryTime(raw map[string]interface{}, rec *recorder) *int64 {
	k, v, ok := lookup(raw, deliveryTimeFields)
	if !ok {
		return nil
	}
	f, err := asFloat(v)
	if err != nil || f < 0 {
		rec.notef("deliveryTime: ignoring %s=%v", k, v)
		return nil
	}
	secs := int64(f)
	return &secs
}

func (n *Normalizer) items(raw map[string]interface{}, rec *recorder) []models.OrderItem {
	items := make([]models.OrderItem, 0)
	k, v, ok := lookup(raw, itemsFields)
	if !ok {
		return items
	}
	list, ok := v.([]interface{})
	if !ok {
		rec.notef("items: %s is %T, not a list", k, v)
		return items
	}
	for i, entry := range list {
		m, ok := entry.(map[string]interface{})
		if !ok {
			rec.notef("items: skipping entry %d of type %T", i, entry)
			continue
		}
		items = append(items, item(m, i, rec))
	}
	return items
}

// quantities above this are treated as malformed
const maxItemQuantity = math.MaxInt32

func item(m map[string]interface{}, idx int, rec *recorder) models.OrderItem {
	it := models.OrderItem{
		Name:     stringOr(m, itemNameFields, models.UnknownItem),
		Quantity: 1,
		Price:    money(m, itemPriceFields, fmt.Sprintf("items[%d].price", idx), rec),
		IsVeg:    truthy(m, itemVegFields),
	}
	if k, v, ok := lookup(m, itemQuantityFields); ok {
		q, err := asFloat(v)
		switch {
		case err != nil:
			rec.notef("items[%d]: non-numeric %s=%v, using 1", idx, k, v)
		case q < 1:
			rec.notef("items[%d]: %s=%v below 1, using 1", idx, k, v)
		case q > maxItemQuantity:
			rec.notef("items[%d]: %s=%v out of range, using 1", idx, k, v)
		default:
			it.Quantity = int(q)
		}
	}
	return it
}

// isPaid defaults to true; an explicit flag from the record wins.
func isPaid(raw map[string]interface{}, rec *recorder) bool {
	k, v, ok := lookup(raw, isPaidFields)
	if !ok {
		return true
	}
	b, err := asBool(v)
	if err != nil {
		rec.notef("isPaid: unreadable %s=%v, assuming paid", k, v)
		return true
	}
	return b
}

func orderType(raw map[string]interface{}, rec *recorder) string {
	t, ok := firstString(raw, orderTypeFields)
	if !ok {
		return models.OrderTypeDelivery
	}
	switch lt := strings.ToLower(t); lt {
	case models.OrderTypeDelivery, models.OrderTypeInstamart, models.OrderTypeDineout, models.OrderTypeGenie:
		return lt
	default:
		rec.notef("orderType: unknown %q, defaulting to %s", t, models.OrderTypeDelivery)
		return models.OrderTypeDelivery
	}
}

func platform(raw map[string]interface{}) string {
	switch {
	case truthy(raw, mwebFields):
		return models.PlatformMobileWeb
	case truthy(raw, appFields):
		return models.PlatformApp
	default:
		return models.PlatformWeb
	}
}
