package indicator

import "strconv"

// seed averages the first period inputs of a recursive average.
type seed struct {
	period int
	n      int
	sum    float64
}

// feed adds v and returns the seed mean on the period-th input.
func (s *seed) feed(v float64) (mean float64, complete bool) {
	s.n++
	s.sum += v
	return s.sum / float64(s.period), s.n == s.period
}

func (s *seed) done() bool { return s.n >= s.period }

// SMMA is Wilder's smoothed moving average: seeded with SMA(period), then
// each input moves the average by 1/period of the gap.
type SMMA struct {
	seed
	value float64
}

// NewSMMA creates a new SMMA indicator with the given period.
func NewSMMA(period int) *SMMA {
	return &SMMA{seed: seed{period: period}}
}

func (s *SMMA) Name() string { return "SMMA_" + strconv.Itoa(s.period) }

func (s *SMMA) Update(price float64) {
	if !s.done() {
		if mean, ok := s.feed(price); ok {
			s.value = mean
		}
		return
	}
	s.value += (price - s.value) / float64(s.period)
}

func (s *SMMA) Value() float64 { return s.value }
func (s *SMMA) Ready() bool    { return s.done() }
