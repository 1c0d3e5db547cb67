package domain

import (
	"math"
	"sort"
	"time"
)

// Run is the canonical record of one completed running activity.
// Ingestion adapters construct it once; it is immutable afterwards.
type Run struct {
	StartTime time.Time `json:"start_time"`
	DistanceM float64   `json:"distance_m"`
	DurationS float64   `json:"duration_s"`
	AvgHR     *float64  `json:"avg_hr,omitempty"`
}

// PaceSecPerKm returns the pace in seconds per kilometre. Runs without a
// positive distance report +Inf so they can never be classified as fast.
func (r Run) PaceSecPerKm() float64 {
	km := r.DistanceM / 1000.0
	if km <= 0 {
		return math.Inf(1)
	}
	return r.DurationS / km
}

// Valid reports whether the run is a usable training data point. Runs with
// non-positive distance or duration must be excluded before aggregation.
func (r Run) Valid() bool {
	return r.DistanceM > 0 && r.DurationS > 0
}

// NormalizeRuns drops invalid runs and returns the remainder sorted ascending
// by start time, which is the order the aggregator requires.
func NormalizeRuns(runs []Run) []Run {
	out := make([]Run, 0, len(runs))
	for _, r := range runs {
		if r.Valid() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}
