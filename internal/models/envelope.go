package models

import "time"

const (
	SourceAPI                = "api"
	SourceSampleDataFallback = "sample_data_fallback"

	FallbackErrorDetails = "Check the extractor diagnostics for details. Make sure the session cookies are valid."
)

// Outcome tags how an extraction run ended.
type Outcome int

const (
	OutcomeLive Outcome = iota
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLive:
		return "live"
	case OutcomeFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Source is the provenance tag carried in the envelope.
func (o Outcome) Source() string {
	if o == OutcomeLive {
		return SourceAPI
	}
	return SourceSampleDataFallback
}

// ExtractionResult is the envelope handed to the dashboard and the sinks.
// Success is true for both outcomes; provenance lives in Data.Source.
type ExtractionResult struct {
	RunID       string         `json:"runId"`
	Success     bool           `json:"success"`
	Outcome     Outcome        `json:"-"`
	Data        ExtractionData `json:"data"`
	Diagnostics Diagnostics    `json:"diagnostics,omitempty"`
}

type ExtractionData struct {
	Orders       []CanonicalOrder `json:"orders"`
	User         *Profile         `json:"user"`
	ExtractedAt  time.Time        `json:"extractedAt"`
	Source       string           `json:"source"`
	TotalOrders  int              `json:"totalOrders"`
	Error        string           `json:"error,omitempty"`
	ErrorDetails string           `json:"errorDetails,omitempty"`
}

// IsFallback reports whether the orders are synthetic. It relies on the
// source tag so envelopes decoded from JSON answer correctly too.
func (r ExtractionResult) IsFallback() bool {
	return r.Data.Source != SourceAPI
}
