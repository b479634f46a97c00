package indicator

import (
	"math"
	"testing"
)

func TestEngine_ComputeOrderAndNames(t *testing.T) {
	engine, err := NewEngine([]Spec{
		{Kind: KindEMA, Period: 5},
		{Kind: KindRSI, Period: 14},
		{Kind: KindROC, Period: 15, Smoothing: 5},
		{Kind: KindMACD, Period: 12, Slow: 26, Signal: 9},
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	wantNames := []string{"EMA_5", "RSI_14", "ROC_15_5", "MACD_12_26_9"}
	for i, n := range engine.Names() {
		if n != wantNames[i] {
			t.Errorf("name %d: got %s, want %s", i, n, wantNames[i])
		}
	}
	if engine.Warmup() != 33 {
		t.Errorf("expected warm-up 33, got %d", engine.Warmup())
	}

	closes := zigzag(100, 60)
	out := engine.Compute(closes)
	if len(out) != 4 {
		t.Fatalf("expected 4 series, got %d", len(out))
	}
	ema := EMASeries(closes, 5)
	for i := range closes {
		if math.IsNaN(ema[i]) {
			continue
		}
		assertClose(t, "engine EMA matches series", out[0][i], ema[i], 0)
	}
}

func TestEngine_IndependentCalls(t *testing.T) {
	engine, _ := NewEngine([]Spec{{Kind: KindEMA, Period: 3}})
	first := engine.Compute([]float64{1, 2, 3, 4})
	engine.Compute([]float64{100, 200, 300, 400})
	again := engine.Compute([]float64{1, 2, 3, 4})
	for i := 2; i < 4; i++ {
		assertClose(t, "repeat compute", again[0][i], first[0][i], 0)
	}
}

func TestEngine_RejectsInvalidSpec(t *testing.T) {
	cases := []Spec{
		{Kind: KindEMA, Period: 0},
		{Kind: KindROC, Period: 5},
		{Kind: KindMACD, Period: 26, Slow: 12, Signal: 9},
		{Kind: "VWAP", Period: 5},
	}
	for _, c := range cases {
		if _, err := NewEngine([]Spec{c}); err == nil {
			t.Errorf("expected error for %+v", c)
		}
	}
}

func TestSpec_Warmup(t *testing.T) {
	cases := []struct {
		spec Spec
		want int
	}{
		{Spec{Kind: KindEMA, Period: 50}, 49},
		{Spec{Kind: KindRSI, Period: 14}, 14},
		{Spec{Kind: KindROC, Period: 50, Smoothing: 5}, 54},
		{Spec{Kind: KindMACD, Period: 12, Slow: 26, Signal: 9}, 33},
	}
	for _, c := range cases {
		if got := c.spec.Warmup(); got != c.want {
			t.Errorf("%s: warm-up got %d, want %d", c.spec.Name(), got, c.want)
		}
		out := Compute(zigzag(100, 80), c.spec)
		if math.IsNaN(out[c.want]) || !math.IsNaN(out[c.want-1]) {
			t.Errorf("%s: first defined index is not %d", c.spec.Name(), c.want)
		}
	}
}

func TestParseSpecs(t *testing.T) {
	specs := ParseSpecs("EMA:8, ema:34,RSI:14,ROC:15:5,ROC:3,MACD:12:26:9,BAD,MACD:1:2,EMA:x,SMA:0")
	want := []string{"EMA_8", "EMA_34", "RSI_14", "ROC_15_5", "ROC_3_1", "MACD_12_26_9"}
	if len(specs) != len(want) {
		t.Fatalf("expected %d specs, got %d: %+v", len(want), len(specs), specs)
	}
	for i, s := range specs {
		if s.Name() != want[i] {
			t.Errorf("spec %d: got %s, want %s", i, s.Name(), want[i])
		}
	}
	if ParseSpecs("  ") != nil {
		t.Error("expected nil for empty input")
	}
}
