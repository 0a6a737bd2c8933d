package airdata

import (
	"sort"
	"time"
)

// Stats is the aggregate bundle computed over a measurement series.
// Valid is false when no measurement in the input carried a value; the
// remaining fields are then meaningless.
type Stats struct {
	Valid bool

	Min   float64
	MinAt time.Time
	Max   float64
	MaxAt time.Time
	Avg   float64

	// TrendSlope is the ordinary-least-squares slope of value against
	// elapsed time in seconds since the first sample. Zero when all
	// samples share one timestamp.
	TrendSlope float64
}

// ComputeStats filters the series to measurements with a present value,
// sorts by timestamp, and computes min/max (with first-occurring timestamps),
// arithmetic mean and the linear trend slope. An empty filtered series yields
// the undefined bundle rather than an error.
func ComputeStats(ms []Measurement) Stats {
	filt := make([]Measurement, 0, len(ms))
	for _, m := range ms {
		if m.Value != nil {
			filt = append(filt, m)
		}
	}
	if len(filt) == 0 {
		return Stats{}
	}

	sort.SliceStable(filt, func(i, j int) bool {
		return filt[i].At.Before(filt[j].At)
	})

	st := Stats{
		Valid: true,
		Min:   *filt[0].Value,
		MinAt: filt[0].At,
		Max:   *filt[0].Value,
		MaxAt: filt[0].At,
	}

	var sum float64
	for _, m := range filt {
		v := *m.Value
		sum += v
		// Strict comparisons keep the first occurrence on ties.
		if v < st.Min {
			st.Min = v
			st.MinAt = m.At
		}
		if v > st.Max {
			st.Max = v
			st.MaxAt = m.At
		}
	}
	st.Avg = sum / float64(len(filt))
	st.TrendSlope = trendSlope(filt)

	return st
}

// trendSlope computes cov(x,y)/var(x) with x the elapsed seconds from the
// first sample. Input must be non-empty and sorted by timestamp.
func trendSlope(ms []Measurement) float64 {
	n := float64(len(ms))
	t0 := ms[0].At

	var sumX, sumY, sumXY, sumX2 float64
	for _, m := range ms {
		x := m.At.Sub(t0).Seconds()
		y := *m.Value
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}

	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
