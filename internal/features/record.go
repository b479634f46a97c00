package features

import "time"

// Record is the feature vector for one bar, plus its provenance.
type Record struct {
	Index int       `json:"index"` // position in the source series
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`

	EMA       [4]float64 `json:"ema"` // spans 5, 15, 21, 50
	Crossover float64    `json:"crossover"`
	RSI       float64    `json:"rsi"`
	ROC       [4]float64 `json:"roc"` // periods 5, 15, 21, 50, SMA(5) smoothed
	MACD      float64    `json:"macd"`

	Label    float64 `json:"label"` // (close[i+Horizon]-close[i])/close[i]
	HasLabel bool    `json:"has_label"`
}

// Vector returns the feature values in Schema order.
func (r *Record) Vector() []float64 {
	return []float64{
		r.EMA[0], r.EMA[1], r.EMA[2], r.EMA[3],
		r.Crossover,
		r.RSI,
		r.ROC[0], r.ROC[1], r.ROC[2], r.ROC[3],
		r.MACD,
	}
}

// Valid reports whether every feature, and the label when present, is finite.
func (r *Record) Valid() bool {
	for _, v := range r.Vector() {
		if !finite(v) {
			return false
		}
	}
	return !r.HasLabel || finite(r.Label)
}

// Matrix splits records into a row-major feature matrix and label vector.
func Matrix(records []Record) (x [][]float64, y []float64) {
	x = make([][]float64, len(records))
	y = make([]float64, len(records))
	for i := range records {
		x[i] = records[i].Vector()
		y[i] = records[i].Label
	}
	return x, y
}
