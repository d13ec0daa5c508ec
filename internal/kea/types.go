package kea

import (
	"encoding/json"

	"keaview/internal/stats"
)

// Request is the Kea Control Agent command format.
type Request struct {
	Command string   `json:"command"`
	Service []string `json:"service,omitempty"`
}

// Response is the Kea Control Agent response format.
// Some Kea versions wrap the response in an array.
type Response struct {
	Result    int                        `json:"result"`
	Text      string                     `json:"text,omitempty"`
	Arguments map[string]json.RawMessage `json:"arguments"`
}

// Stats holds parsed Kea statistics separated into global and per-subnet maps.
// Values are decimal strings until normalized with stats.Normalize or
// stats.NormalizeMap.
type Stats struct {
	Global  stats.Statistics
	Subnets map[int64]stats.Statistics // keyed by subnet ID
}

// Normalize converts all counters to *big.Int.
func (s *Stats) Normalize() {
	stats.NormalizeMap(s.Global)
	for _, sub := range s.Subnets {
		stats.NormalizeMap(sub)
	}
}
