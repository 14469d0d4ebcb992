package models

import "strings"

const (
	OrderStatusDelivered = "delivered"

	OrderTypeDelivery  = "delivery"
	OrderTypeInstamart = "instamart"
	OrderTypeDineout   = "dineout"
	OrderTypeGenie     = "genie"

	PaymentMethodUnknown = "N/A"
	PaymentMethodOnline  = "Online"
	PaymentMethodCOD     = "COD"

	PlatformApp       = "app"
	PlatformWeb       = "web"
	PlatformMobileWeb = "mobile web"

	UnknownRestaurant = "Unknown"
	UnknownItem       = "Unknown item"
)

// ServiceType is both the per-order service tag and the dashboard filter value.
type ServiceType string

const (
	ServiceAll       ServiceType = "all"
	ServiceFood      ServiceType = "food"
	ServiceInstamart ServiceType = "instamart"
	ServiceDineout   ServiceType = "dineout"
	ServiceGenie     ServiceType = "genie"
)

// ServiceTypes lists the concrete service tags in breakdown order.
var ServiceTypes = []ServiceType{ServiceFood, ServiceInstamart, ServiceDineout, ServiceGenie}

// ServiceFilters lists every accepted filter value, "all" first.
var ServiceFilters = []ServiceType{ServiceAll, ServiceFood, ServiceInstamart, ServiceDineout, ServiceGenie}

// ServiceTypeOf maps a raw order type to its service tag. Unknown order types
// keep their lower-cased value so they only match "all".
func ServiceTypeOf(orderType string) ServiceType {
	t := strings.ToLower(strings.TrimSpace(orderType))
	if t == "" || t == OrderTypeDelivery {
		return ServiceFood
	}
	return ServiceType(t)
}

// ParseServiceFilter accepts any case; unknown values fall back to ServiceAll.
func ParseServiceFilter(value string) ServiceType {
	v := ServiceType(strings.ToLower(strings.TrimSpace(value)))
	for _, f := range ServiceFilters {
		if f == v {
			return f
		}
	}
	return ServiceAll
}
