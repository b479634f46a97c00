package model

import (
	"fmt"
	"sort"
	"time"
)

// PricePoint is one OHLCV bar for a single security.
// Series of PricePoints are ordered by Time ascending with no duplicate timestamps.
type PricePoint struct {
	Time   time.Time `json:"time"` // bar open time (UTC)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Closes extracts the close prices of a series, in order.
func Closes(prices []PricePoint) []float64 {
	out := make([]float64, len(prices))
	for i, p := range prices {
		out[i] = p.Close
	}
	return out
}

// ValidateSeries reports the first ordering violation in a series.
// A nil error means timestamps are strictly increasing.
func ValidateSeries(prices []PricePoint) error {
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1].Time, prices[i].Time
		switch {
		case cur.Equal(prev):
			return fmt.Errorf("duplicate timestamp %s at index %d", cur.Format(time.RFC3339), i)
		case cur.Before(prev):
			return fmt.Errorf("timestamp %s at index %d precedes %s", cur.Format(time.RFC3339), i, prev.Format(time.RFC3339))
		}
	}
	return nil
}

// SortSeries orders a series by time in place and drops duplicate timestamps,
// keeping the last bar seen for each one. The returned slice shares storage
// with the input.
func SortSeries(prices []PricePoint) []PricePoint {
	if len(prices) < 2 {
		return prices
	}
	sort.SliceStable(prices, func(i, j int) bool { return prices[i].Time.Before(prices[j].Time) })

	out := prices[:1]
	for _, p := range prices[1:] {
		last := &out[len(out)-1]
		if p.Time.Equal(last.Time) {
			*last = p
			continue
		}
		out = append(out, p)
	}
	return out
}
