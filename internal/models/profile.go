package models

// Profile is the best-effort user record returned next to the orders. The
// upstream shape is loose, so only a handful of keys are typed and the rest
// are kept verbatim.
type Profile struct {
	Name       string                 `mapstructure:"name" json:"name,omitempty"`
	Email      string                 `mapstructure:"email" json:"email,omitempty"`
	Mobile     string                 `mapstructure:"mobile" json:"mobile,omitempty"`
	CustomerID string                 `mapstructure:"customer_id" json:"customerId,omitempty"`
	Extra      map[string]interface{} `mapstructure:",remain" json:"extra,omitempty"`
}
