package learn

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics are regression quality scores on held-out rows.
type Metrics struct {
	R2   float64 `json:"r2"`
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	RMSE float64 `json:"rmse"`
}

// Evaluate scores predictions against targets. R² is NaN when the targets
// have no variance.
func Evaluate(actual, predicted []float64) Metrics {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return Metrics{R2: math.NaN(), MAE: math.NaN(), MSE: math.NaN(), RMSE: math.NaN()}
	}
	var abs, sq float64
	for i := range actual {
		e := actual[i] - predicted[i]
		abs += math.Abs(e)
		sq += e * e
	}
	n := float64(len(actual))
	m := Metrics{MAE: abs / n, MSE: sq / n}
	m.RMSE = math.Sqrt(m.MSE)

	if stat.Variance(actual, nil) == 0 || len(actual) < 2 {
		m.R2 = math.NaN()
	} else {
		m.R2 = stat.RSquaredFrom(predicted, actual, nil)
	}
	return m
}

// meanMetrics averages each score over the folds where it is finite.
func meanMetrics(folds []Metrics) Metrics {
	pick := []func(*Metrics) *float64{
		func(m *Metrics) *float64 { return &m.R2 },
		func(m *Metrics) *float64 { return &m.MAE },
		func(m *Metrics) *float64 { return &m.MSE },
		func(m *Metrics) *float64 { return &m.RMSE },
	}
	var out Metrics
	for _, field := range pick {
		sum, n := 0.0, 0
		for i := range folds {
			v := *field(&folds[i])
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			sum += v
			n++
		}
		if n == 0 {
			*field(&out) = math.NaN()
		} else {
			*field(&out) = sum / float64(n)
		}
	}
	return out
}
