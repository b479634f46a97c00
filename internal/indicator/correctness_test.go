package indicator

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

// ────────────────────────────────────────────────────────────
// SMA Correctness
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness_Period3(t *testing.T) {
	// Prices: 100, 102, 104, 103, 105
	// SMA after price 3: (100+102+104)/3 = 102.0
	// SMA after price 4: (102+104+103)/3 = 103.0
	// SMA after price 5: (104+103+105)/3 = 104.0
	sma := NewSMA(3)
	prices := []float64{100, 102, 104, 103, 105}
	expected := []float64{0, 0, 102.0, 103.0, 104.0}
	ready := []bool{false, false, true, true, true}

	for i, p := range prices {
		sma.Update(p)
		if sma.Ready() != ready[i] {
			t.Errorf("price %d: Ready()=%v, want %v", i, sma.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "SMA(3)", sma.Value(), expected[i], 0.0001)
		}
	}
}

func TestSMA_WindowDropsOldest(t *testing.T) {
	sma := NewSMA(2)
	sma.Update(10)
	if sma.Ready() || sma.Value() != 0 {
		t.Fatalf("SMA(2) after one value: ready=%v value=%.4f", sma.Ready(), sma.Value())
	}
	sma.Update(20)
	assertClose(t, "SMA(2) full", sma.Value(), 15, 1e-9)
	sma.Update(40)
	assertClose(t, "SMA(2) slid", sma.Value(), 30, 1e-9)
	if sma.Name() != "SMA_2" {
		t.Errorf("Name() = %q", sma.Name())
	}
}

// ────────────────────────────────────────────────────────────
// EMA Correctness
// ────────────────────────────────────────────────────────────

func TestEMA_Correctness_Period3(t *testing.T) {
	// EMA(3): multiplier = 2/(3+1) = 0.5
	// Price 3: seed = (100+102+104)/3 = 102.0
	// Price 4: 103*0.5 + 102.0*0.5 = 102.5
	// Price 5: 105*0.5 + 102.5*0.5 = 103.75
	ema := NewEMA(3)
	prices := []float64{100, 102, 104, 103, 105}
	expected := []float64{0, 0, 102.0, 102.5, 103.75}
	ready := []bool{false, false, true, true, true}

	for i, p := range prices {
		ema.Update(p)
		if ema.Ready() != ready[i] {
			t.Errorf("price %d: Ready()=%v, want %v", i, ema.Ready(), ready[i])
		}
		if ready[i] {
			assertClose(t, "EMA(3)", ema.Value(), expected[i], 0.0001)
		}
	}
}

func TestEMASeries_WarmupIsNaN(t *testing.T) {
	out := EMASeries([]float64{1, 2, 3, 4, 5, 6}, 4)
	for i := 0; i < 3; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("index %d: expected NaN before warm-up, got %.4f", i, out[i])
		}
	}
	assertClose(t, "EMA(4) seed", out[3], 2.5, 1e-9)
	// k = 0.4: 5*0.4 + 2.5*0.6 = 3.5
	assertClose(t, "EMA(4) index 4", out[4], 3.5, 1e-9)
}

// ────────────────────────────────────────────────────────────
// SMMA Correctness (Wilder's Smoothing)
// ────────────────────────────────────────────────────────────

func TestSMMA_Correctness_Period3(t *testing.T) {
	// Seed = (100+102+104)/3 = 102.0
	// Price 4: (102.0*2 + 103)/3 = 102.3333
	// Price 5: (102.3333*2 + 105)/3 = 103.2222
	smma := NewSMMA(3)
	prices := []float64{100, 102, 104, 103, 105}
	expected := []float64{0, 0, 102.0, 102.3333, 103.2222}

	for i, p := range prices {
		smma.Update(p)
		if i >= 2 {
			assertClose(t, "SMMA(3)", smma.Value(), expected[i], 0.001)
		}
	}
}

// ────────────────────────────────────────────────────────────
// RSI Correctness (Wilder's Method)
// ────────────────────────────────────────────────────────────

func TestRSI_Correctness_Period5(t *testing.T) {
	// Deltas over the first six prices: +0.34 -0.25 -0.48 +0.72 +0.50
	//   avgGain = 1.56/5 = 0.312, avgLoss = 0.73/5 = 0.146
	//   RSI = 100 - 100/(1+2.13699) = 68.112
	// Then Wilder smoothing: 72.219, 76.658, 81.509
	rsi := NewRSI(5)
	prices := []float64{44.00, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84}
	want := map[int]float64{5: 68.112, 6: 72.219, 7: 76.658, 8: 81.509}

	for i, p := range prices {
		rsi.Update(p)
		if rsi.Ready() != (i >= 5) {
			t.Errorf("price %d: Ready()=%v", i, rsi.Ready())
		}
		if w, ok := want[i]; ok {
			assertClose(t, "RSI(5)", rsi.Value(), w, 0.2)
		}
	}
}

func TestRSI_AllUp_Is100(t *testing.T) {
	out := RSISeries(linear(100, 1, 20), 5)
	assertClose(t, "RSI all up", out[19], 100.0, 0.001)
}

func TestRSI_AllDown_Is0(t *testing.T) {
	out := RSISeries(linear(200, -1, 20), 5)
	assertClose(t, "RSI all down", out[19], 0.0, 0.001)
}

func TestRSI_Flat_Is100(t *testing.T) {
	// Zero average loss maps to 100 even when there are no gains either.
	out := RSISeries(linear(100, 0, 20), 5)
	assertClose(t, "RSI flat", out[19], 100.0, 0.001)
}

func TestRSISeries_FirstDefinedAtPeriod(t *testing.T) {
	out := RSISeries(linear(50, 0.5, 30), 14)
	if !math.IsNaN(out[13]) {
		t.Errorf("index 13: expected NaN, got %.4f", out[13])
	}
	if math.IsNaN(out[14]) {
		t.Error("index 14: expected a value")
	}
}

// ────────────────────────────────────────────────────────────
// ROC Correctness
// ────────────────────────────────────────────────────────────

func TestROC_Raw(t *testing.T) {
	// ROC(2) of 100, 110, 121: 100*(121-100)/100 = 21
	out := ROCSeries([]float64{100, 110, 121, 110}, 2, 1)
	if !math.IsNaN(out[1]) {
		t.Errorf("index 1: expected NaN, got %.4f", out[1])
	}
	assertClose(t, "ROC(2) index 2", out[2], 21.0, 1e-9)
	assertClose(t, "ROC(2) index 3", out[3], 0.0, 1e-9)
}

func TestROC_Smoothed(t *testing.T) {
	// Raw ROC(1) of 100, 110, 99, 99: 10, -10, 0. SMA(3) at index 3 = 0.
	out := ROCSeries([]float64{100, 110, 99, 99}, 1, 3)
	for i := 0; i < 3; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("index %d: expected NaN, got %.4f", i, out[i])
		}
	}
	assertClose(t, "ROC(1) SMA(3)", out[3], 0.0, 1e-9)
}

// ────────────────────────────────────────────────────────────
// MACD Correctness
// ────────────────────────────────────────────────────────────

func TestMACD_WarmupIndex(t *testing.T) {
	closes := zigzag(100, 80)
	out := MACDSeries(closes, 12, 26, 9)
	if !math.IsNaN(out[32]) {
		t.Errorf("index 32: expected NaN, got %.6f", out[32])
	}
	if math.IsNaN(out[33]) {
		t.Error("index 33: expected a value")
	}
}

func TestMACD_HistogramIsLineMinusSignal(t *testing.T) {
	closes := zigzag(100, 60)
	fast := EMASeries(closes, 12)
	slow := EMASeries(closes, 26)

	line := make([]float64, 0, len(closes))
	for i := 25; i < len(closes); i++ {
		line = append(line, fast[i]-slow[i])
	}
	signal := EMASeries(line, 9)
	hist := MACDSeries(closes, 12, 26, 9)

	for i := 33; i < len(closes); i++ {
		want := line[i-25] - signal[i-25]
		assertClose(t, "MACD histogram", hist[i], want, 1e-9)
	}
}

func TestMACD_ConstantSeriesIsZero(t *testing.T) {
	out := MACDSeries(linear(42, 0, 50), 12, 26, 9)
	assertClose(t, "MACD flat", out[49], 0, 1e-12)
}

// ────────────────────────────────────────────────────────────
// Edge cases
// ────────────────────────────────────────────────────────────

func TestSeries_ShortAndEmptyInput(t *testing.T) {
	if got := EMASeries(nil, 5); len(got) != 0 {
		t.Errorf("EMA of empty input: expected empty, got %d values", len(got))
	}
	out := RSISeries([]float64{1, 2, 3}, 14)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("index %d: expected NaN for short input, got %.4f", i, v)
		}
	}
}

func TestSeries_NonPositivePeriodIsAllNaN(t *testing.T) {
	for _, out := range [][]float64{
		EMASeries([]float64{1, 2, 3}, 0),
		SMASeries([]float64{1, 2, 3}, -1),
		ROCSeries([]float64{1, 2, 3}, 1, 0),
		MACDSeries([]float64{1, 2, 3}, 0, 2, 1),
	} {
		for i, v := range out {
			if !math.IsNaN(v) {
				t.Errorf("index %d: expected NaN, got %.4f", i, v)
			}
		}
	}
}

func TestSeries_Causal(t *testing.T) {
	// Values up to index i must not change when later prices change.
	base := zigzag(100, 70)
	altered := append([]float64(nil), base...)
	for i := 60; i < len(altered); i++ {
		altered[i] *= 3
	}
	a := MACDSeries(base, 12, 26, 9)
	b := MACDSeries(altered, 12, 26, 9)
	for i := 0; i < 60; i++ {
		if math.IsNaN(a[i]) != math.IsNaN(b[i]) || (!math.IsNaN(a[i]) && a[i] != b[i]) {
			t.Fatalf("index %d changed after altering the future: %.6f vs %.6f", i, a[i], b[i])
		}
	}
}

// ────────────────────────────────────────────────────────────
// Cross-indicator: same data → correct ordering
// ────────────────────────────────────────────────────────────

func TestIndicators_TrendingUp_Ordering(t *testing.T) {
	sma5 := NewSMA(5)
	sma20 := NewSMA(20)
	ema5 := NewEMA(5)

	for _, p := range linear(100, 1, 30) {
		sma5.Update(p)
		sma20.Update(p)
		ema5.Update(p)
	}

	if sma5.Value() <= sma20.Value() {
		t.Errorf("SMA(5) should be > SMA(20) in uptrend: SMA5=%.2f, SMA20=%.2f", sma5.Value(), sma20.Value())
	}
	if ema5.Value() <= sma20.Value() {
		t.Errorf("EMA(5) should be > SMA(20) in uptrend: EMA5=%.2f, SMA20=%.2f", ema5.Value(), sma20.Value())
	}
}

func linear(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// zigzag is a rising series with alternating pullbacks.
func zigzag(start float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		swing := 1.5
		if i%3 == 0 {
			swing = -2.0
		}
		out[i] = start + 0.4*float64(i) + swing
	}
	return out
}
