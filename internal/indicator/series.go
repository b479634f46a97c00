package indicator

// Series functions evaluate one indicator over a full close series.
// Each call owns its recurrence state, so calls never interfere.
// The output has len(closes) entries; positions before warm-up are NaN.
// Non-positive periods produce an all-NaN series.

// SMASeries returns the simple moving average of values.
func SMASeries(values []float64, period int) []float64 {
	if period <= 0 {
		return nanSeries(len(values))
	}
	return run(NewSMA(period), values)
}

// EMASeries returns the SMA-seeded exponential moving average,
// first defined at index period-1.
func EMASeries(closes []float64, period int) []float64 {
	if period <= 0 {
		return nanSeries(len(closes))
	}
	return run(NewEMA(period), closes)
}

// RSISeries returns Wilder's RSI, first defined at index period.
func RSISeries(closes []float64, period int) []float64 {
	if period <= 0 {
		return nanSeries(len(closes))
	}
	return run(NewRSI(period), closes)
}

// ROCSeries returns the percent rate of change smoothed by an SMA,
// first defined at index period+smoothing-1.
func ROCSeries(closes []float64, period, smoothing int) []float64 {
	if period <= 0 || smoothing <= 0 {
		return nanSeries(len(closes))
	}
	return run(NewROC(period, smoothing), closes)
}

// MACDSeries returns the MACD histogram, first defined at index slow+signal-2.
func MACDSeries(closes []float64, fast, slow, signal int) []float64 {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return nanSeries(len(closes))
	}
	return run(NewMACD(fast, slow, signal), closes)
}
