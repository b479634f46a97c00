// Package features turns a price series into indicator feature records,
// optionally labelled with the forward percent change used for training.
//
// The same Build function runs at training time and at inference time, so
// feature values for a given bar never depend on which mode produced them.
package features

import (
	"math"

	"stockforecast/internal/indicator"
)

// Horizon is the number of bars between a record and its label price.
const Horizon = 15

var (
	emaSpans     = [4]int{5, 15, 21, 50}
	rocPeriods   = [4]int{5, 15, 21, 50}
	rocSmoothing = 5
	rsiPeriod    = 14

	macdFast, macdSlow, macdSignal = 12, 26, 9
)

// schema lists the feature columns in vector order.
var schema = []string{
	"ema_5",
	"ema_15",
	"ema_21",
	"ema_50",
	"crossover_5_50",
	"rsi_14",
	"roc_5_sma_5",
	"roc_15_sma_5",
	"roc_21_sma_5",
	"roc_50_sma_5",
	"macd_hist_12_26_9",
}

// Schema returns the ordered feature column names.
func Schema() []string {
	out := make([]string, len(schema))
	copy(out, schema)
	return out
}

// Width is the number of feature columns.
func Width() int { return len(schema) }

// Specs returns the indicator specs backing the feature columns.
// The crossover column is derived from ema_5 and ema_50.
func Specs() []indicator.Spec {
	specs := make([]indicator.Spec, 0, 10)
	for _, p := range emaSpans {
		specs = append(specs, indicator.Spec{Kind: indicator.KindEMA, Period: p})
	}
	specs = append(specs, indicator.Spec{Kind: indicator.KindRSI, Period: rsiPeriod})
	for _, p := range rocPeriods {
		specs = append(specs, indicator.Spec{Kind: indicator.KindROC, Period: p, Smoothing: rocSmoothing})
	}
	specs = append(specs, indicator.Spec{
		Kind: indicator.KindMACD, Period: macdFast, Slow: macdSlow, Signal: macdSignal,
	})
	return specs
}

// Warmup is the first bar index at which every feature is defined.
func Warmup() int {
	w := 0
	for _, s := range Specs() {
		if s.Warmup() > w {
			w = s.Warmup()
		}
	}
	return w
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
