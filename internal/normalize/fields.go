package normalize

// Candidate source keys per canonical attribute, highest priority first.
// The upstream renames fields between service types; a new alias is one more
// entry in the relevant list.
var (
	idFields           = []string{"order_id", "order_number"}
	timeFields         = []string{"order_time", "pg_response_time"}
	deliveryTimeFields = []string{"delivery_time_in_seconds"}

	restaurantFields     = []string{"restaurant_name"}
	restaurantIDFields   = []string{"restaurant_id"}
	restaurantCityFields = []string{"restaurant_city_name", "restaurant_area_name"}
	cuisineFields        = []string{"restaurant_cuisine"}

	amountFields      = []string{"order_total_with_tip", "order_total", "grand_total"}
	itemTotalFields   = []string{"item_total"}
	deliveryFeeFields = []string{"delivery_fee"}
	discountFields    = []string{"total_discount", "discount"}
	taxFields         = []string{"taxes", "tax_amount"}
	tipFields         = []string{"tip"}

	couponAppliedFields = []string{"coupon_applied"}
	couponCodeFields    = []string{"coupon_code"}
	offerFields         = []string{"free_del_break_up_message"}

	itemsFields = []string{"order_items"}

	statusFields    = []string{"order_status"}
	paymentFields   = []string{"payment_method_type", "payment_method"}
	isPaidFields    = []string{"is_paid"}
	orderTypeFields = []string{"order_type"}
	rainModeFields  = []string{"rain_mode"}
	mwebFields      = []string{"mweb"}
	appFields       = []string{"app_version"}
)

// item level
var (
	itemNameFields     = []string{"name", "item_name"}
	itemQuantityFields = []string{"quantity"}
	itemPriceFields    = []string{"price", "final_price"}
	itemVegFields      = []string{"is_veg"}
)
