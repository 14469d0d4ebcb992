package models

import "time"

const (
	StageCredential = "credential"
	StageProfile    = "profile"
	StageFetch      = "fetch"
	StageNormalize  = "normalize"
	StageFallback   = "fallback"
)

// Diagnostic is one timestamped anomaly noticed during a run.
type Diagnostic struct {
	At      time.Time `json:"at"`
	Stage   string    `json:"stage"`
	Message string    `json:"message"`
}

type Diagnostics []Diagnostic

// Count returns how many diagnostics were recorded for stage.
func (d Diagnostics) Count(stage string) int {
	n := 0
	for _, e := range d {
		if e.Stage == stage {
			n++
		}
	}
	return n
}
