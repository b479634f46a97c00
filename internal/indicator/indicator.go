// Package indicator provides technical indicator calculations over close prices.
//
// Every indicator is a streaming recurrence implementing the Indicator
// interface. The series functions (EMA, RSI, ROC, MACD) drive a fresh
// recurrence over a whole close series and mark undefined positions with NaN.
package indicator

import "math"

// Indicator is the interface for all streaming technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "SMA_20", "EMA_9").
	Name() string

	// Update feeds the next close price and recalculates.
	Update(price float64)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}

// run feeds closes through ind and records Value() wherever Ready() holds.
func run(ind Indicator, closes []float64) []float64 {
	out := nanSeries(len(closes))
	for i, c := range closes {
		ind.Update(c)
		if ind.Ready() {
			out[i] = ind.Value()
		}
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
