package indicator

import "strconv"

// MACD calculates the Moving Average Convergence/Divergence histogram:
// line = EMA(fast) - EMA(slow), signal = EMA(signal) of line, value = line - signal.
// The signal EMA starts once the slow EMA is ready, so the first value
// appears after slow+signal-1 prices.
type MACD struct {
	fast, slow, signal int

	fastEMA   *EMA
	slowEMA   *EMA
	signalEMA *EMA
	line      float64
}

// NewMACD creates a new MACD indicator (typically 12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:      fast,
		slow:      slow,
		signal:    signal,
		fastEMA:   NewEMA(fast),
		slowEMA:   NewEMA(slow),
		signalEMA: NewEMA(signal),
	}
}

func (m *MACD) Name() string {
	return "MACD_" + strconv.Itoa(m.fast) + "_" + strconv.Itoa(m.slow) + "_" + strconv.Itoa(m.signal)
}

func (m *MACD) Update(price float64) {
	m.fastEMA.Update(price)
	m.slowEMA.Update(price)
	if !m.fastEMA.Ready() || !m.slowEMA.Ready() {
		return
	}
	m.line = m.fastEMA.Value() - m.slowEMA.Value()
	m.signalEMA.Update(m.line)
}

// Line returns the MACD line (fast EMA minus slow EMA).
func (m *MACD) Line() float64 { return m.line }

// Signal returns the signal line.
func (m *MACD) Signal() float64 { return m.signalEMA.Value() }

func (m *MACD) Value() float64 { return m.line - m.signalEMA.Value() }
func (m *MACD) Ready() bool    { return m.signalEMA.Ready() }
