package indicator

import "strconv"

// SMA is the arithmetic mean of the last period values, kept as a running
// sum over a fixed window.
type SMA struct {
	window []float64
	next   int
	filled bool
	sum    float64
}

// NewSMA creates a new SMA indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{window: make([]float64, period)}
}

func (s *SMA) Name() string { return "SMA_" + strconv.Itoa(len(s.window)) }

func (s *SMA) Update(price float64) {
	s.sum += price - s.window[s.next]
	s.window[s.next] = price
	if s.next++; s.next == len(s.window) {
		s.next = 0
		s.filled = true
	}
}

func (s *SMA) Value() float64 {
	if !s.filled {
		return 0
	}
	return s.sum / float64(len(s.window))
}

func (s *SMA) Ready() bool { return s.filled }
