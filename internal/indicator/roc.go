package indicator

import "strconv"

// ROC calculates the percent Rate of Change over period bars,
// 100*(price - price[period ago]) / price[period ago], smoothed by an SMA
// of the given length. A smoothing of 1 leaves the raw ROC.
type ROC struct {
	period    int
	smoothing int
	hist      []float64 // last period+1 prices, circular
	idx       int
	count     int
	sma       *SMA
}

// NewROC creates a smoothed ROC indicator.
func NewROC(period, smoothing int) *ROC {
	if smoothing < 1 {
		smoothing = 1
	}
	return &ROC{
		period:    period,
		smoothing: smoothing,
		hist:      make([]float64, period+1),
		sma:       NewSMA(smoothing),
	}
}

func (r *ROC) Name() string {
	return "ROC_" + strconv.Itoa(r.period) + "_" + strconv.Itoa(r.smoothing)
}

func (r *ROC) Update(price float64) {
	r.hist[r.idx] = price
	r.idx = (r.idx + 1) % len(r.hist)
	r.count++

	if r.count <= r.period {
		return
	}
	// r.idx now points at the oldest retained price
	prior := r.hist[r.idx]
	r.sma.Update(100 * (price - prior) / prior)
}

func (r *ROC) Value() float64 { return r.sma.Value() }
func (r *ROC) Ready() bool    { return r.sma.Ready() }
