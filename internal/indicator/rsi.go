package indicator

import (
	"math"
	"strconv"
)

// RSI is the Relative Strength Index with Wilder smoothing: gains and
// losses each feed an SMMA of the same period, so the first value appears
// after period+1 prices. A zero average loss yields 100.
type RSI struct {
	period int
	prev   float64
	primed bool
	gains  *SMMA
	losses *SMMA
	value  float64
}

// NewRSI creates a new RSI indicator with the given period (typically 14).
func NewRSI(period int) *RSI {
	return &RSI{
		period: period,
		gains:  NewSMMA(period),
		losses: NewSMMA(period),
	}
}

func (r *RSI) Name() string { return "RSI_" + strconv.Itoa(r.period) }

func (r *RSI) Update(price float64) {
	if !r.primed {
		r.prev, r.primed = price, true
		return
	}
	delta := price - r.prev
	r.prev = price

	r.gains.Update(math.Max(delta, 0))
	r.losses.Update(math.Max(-delta, 0))
	if !r.losses.Ready() {
		return
	}
	if avgLoss := r.losses.Value(); avgLoss == 0 {
		r.value = 100
	} else {
		r.value = 100 - 100/(1+r.gains.Value()/avgLoss)
	}
}

func (r *RSI) Value() float64 { return r.value }
func (r *RSI) Ready() bool    { return r.losses.Ready() }
