package indicator

import "strconv"

// EMA is the exponential moving average with smoothing 2/(period+1),
// seeded with the SMA of the first period values.
type EMA struct {
	seed
	alpha float64
	value float64
}

// NewEMA creates a new EMA indicator with the given period.
func NewEMA(period int) *EMA {
	return &EMA{
		seed:  seed{period: period},
		alpha: 2 / float64(period+1),
	}
}

func (e *EMA) Name() string { return "EMA_" + strconv.Itoa(e.period) }

func (e *EMA) Update(price float64) {
	if !e.done() {
		if mean, ok := e.feed(price); ok {
			e.value = mean
		}
		return
	}
	e.value += e.alpha * (price - e.value)
}

func (e *EMA) Value() float64 { return e.value }
func (e *EMA) Ready() bool    { return e.done() }
