package features

import (
	"stockforecast/internal/indicator"
	"stockforecast/internal/model"
)

// Build derives feature records from a price series.
//
// With withLabel set, bars without a price Horizon bars ahead are dropped and
// every record carries its forward percent change. Without it, records are
// produced for every bar whose features are defined, including the most
// recent ones. Records are ordered by source index. Empty or short input
// yields no records.
func Build(prices []model.PricePoint, withLabel bool) []Record {
	n := len(prices)
	if n == 0 {
		return nil
	}

	closes := model.Closes(prices)
	var (
		ema  [4][]float64
		roc  [4][]float64
		rsi  = indicator.RSISeries(closes, rsiPeriod)
		macd = indicator.MACDSeries(closes, macdFast, macdSlow, macdSignal)
	)
	for k, p := range emaSpans {
		ema[k] = indicator.EMASeries(closes, p)
	}
	for k, p := range rocPeriods {
		roc[k] = indicator.ROCSeries(closes, p, rocSmoothing)
	}

	last := n
	if withLabel {
		last = n - Horizon
	}

	records := make([]Record, 0, max(0, last-Warmup()))
	for i := 0; i < last; i++ {
		r := Record{
			Index:     i,
			Time:      prices[i].Time,
			Close:     closes[i],
			Crossover: ema[0][i] - ema[3][i],
			RSI:       rsi[i],
			MACD:      macd[i],
		}
		for k := range emaSpans {
			r.EMA[k] = ema[k][i]
			r.ROC[k] = roc[k][i]
		}
		if withLabel {
			r.Label = (closes[i+Horizon] - closes[i]) / closes[i]
			r.HasLabel = true
		}
		if r.Valid() {
			records = append(records, r)
		}
	}
	return records
}
