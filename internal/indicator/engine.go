package indicator

import (
	"fmt"
	"log"
	"strconv"
	"strings"
)

// Kind names an indicator family.
type Kind string

const (
	KindSMA  Kind = "SMA"
	KindEMA  Kind = "EMA"
	KindRSI  Kind = "RSI"
	KindROC  Kind = "ROC"
	KindMACD Kind = "MACD"
)

// Spec specifies a single indicator to compute.
//
//	SMA/EMA/RSI: Period
//	ROC:         Period, Smoothing (SMA length applied to the raw ROC)
//	MACD:        Period (fast), Slow, Signal
type Spec struct {
	Kind      Kind
	Period    int
	Smoothing int
	Slow      int
	Signal    int
}

// Validate reports whether the spec's parameters are usable.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindSMA, KindEMA, KindRSI:
		if s.Period <= 0 {
			return fmt.Errorf("%s: period must be positive, got %d", s.Kind, s.Period)
		}
	case KindROC:
		if s.Period <= 0 || s.Smoothing <= 0 {
			return fmt.Errorf("ROC: period and smoothing must be positive, got %d/%d", s.Period, s.Smoothing)
		}
	case KindMACD:
		if s.Period <= 0 || s.Slow <= 0 || s.Signal <= 0 {
			return fmt.Errorf("MACD: periods must be positive, got %d/%d/%d", s.Period, s.Slow, s.Signal)
		}
		if s.Period >= s.Slow {
			return fmt.Errorf("MACD: fast period %d must be below slow period %d", s.Period, s.Slow)
		}
	default:
		return fmt.Errorf("unknown indicator kind %q", s.Kind)
	}
	return nil
}

// Name returns the series name, e.g. "EMA_21", "ROC_15_5", "MACD_12_26_9".
func (s Spec) Name() string {
	name := string(s.Kind) + "_" + strconv.Itoa(s.Period)
	switch s.Kind {
	case KindROC:
		name += "_" + strconv.Itoa(s.Smoothing)
	case KindMACD:
		name += "_" + strconv.Itoa(s.Slow) + "_" + strconv.Itoa(s.Signal)
	}
	return name
}

// Warmup returns the index of the first defined value.
func (s Spec) Warmup() int {
	switch s.Kind {
	case KindRSI:
		return s.Period
	case KindROC:
		return s.Period + s.Smoothing - 1
	case KindMACD:
		return s.Slow + s.Signal - 2
	default:
		return s.Period - 1
	}
}

// Compute evaluates one spec over a close series. Invalid specs yield all NaN.
func Compute(closes []float64, s Spec) []float64 {
	if err := s.Validate(); err != nil {
		return nanSeries(len(closes))
	}
	switch s.Kind {
	case KindSMA:
		return SMASeries(closes, s.Period)
	case KindEMA:
		return EMASeries(closes, s.Period)
	case KindRSI:
		return RSISeries(closes, s.Period)
	case KindROC:
		return ROCSeries(closes, s.Period, s.Smoothing)
	default:
		return MACDSeries(closes, s.Period, s.Slow, s.Signal)
	}
}

// Engine evaluates a fixed, ordered list of indicator specs over price series.
// It holds no per-series state and is safe for concurrent use.
type Engine struct {
	specs []Spec
}

// NewEngine validates specs and creates an engine.
func NewEngine(specs []Spec) (*Engine, error) {
	for _, s := range specs {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	cp := make([]Spec, len(specs))
	copy(cp, specs)
	return &Engine{specs: cp}, nil
}

// Specs returns the engine's specs in evaluation order.
func (e *Engine) Specs() []Spec {
	out := make([]Spec, len(e.specs))
	copy(out, e.specs)
	return out
}

// Names returns the series names in evaluation order.
func (e *Engine) Names() []string {
	names := make([]string, len(e.specs))
	for i, s := range e.specs {
		names[i] = s.Name()
	}
	return names
}

// Warmup returns the first index at which every series is defined.
func (e *Engine) Warmup() int {
	w := 0
	for _, s := range e.specs {
		if s.Warmup() > w {
			w = s.Warmup()
		}
	}
	return w
}

// Compute evaluates every spec over closes. Result i belongs to spec i.
func (e *Engine) Compute(closes []float64) [][]float64 {
	out := make([][]float64, len(e.specs))
	for i, s := range e.specs {
		out[i] = Compute(closes, s)
	}
	return out
}

// ParseSpecs parses "TYPE:P[:P2[:P3]],..." into specs, for example
// "EMA:8,EMA:34,RSI:14,ROC:15:5,MACD:12:26:9". ROC smoothing defaults to 1.
// Invalid entries are skipped with a log line. Empty input returns nil.
func ParseSpecs(s string) []Spec {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var specs []Spec
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		tokens := strings.Split(part, ":")
		if len(tokens) < 2 {
			log.Printf("[indicator] skipping invalid indicator spec: %q", part)
			continue
		}
		nums := make([]int, 0, len(tokens)-1)
		ok := true
		for _, tok := range tokens[1:] {
			n, err := strconv.Atoi(strings.TrimSpace(tok))
			if err != nil {
				ok = false
				break
			}
			nums = append(nums, n)
		}
		if !ok {
			log.Printf("[indicator] skipping invalid indicator spec: %q", part)
			continue
		}

		spec := Spec{Kind: Kind(strings.ToUpper(strings.TrimSpace(tokens[0]))), Period: nums[0]}
		switch spec.Kind {
		case KindROC:
			spec.Smoothing = 1
			if len(nums) > 1 {
				spec.Smoothing = nums[1]
			}
		case KindMACD:
			if len(nums) != 3 {
				log.Printf("[indicator] skipping MACD spec without fast:slow:signal: %q", part)
				continue
			}
			spec.Slow, spec.Signal = nums[1], nums[2]
		}
		if err := spec.Validate(); err != nil {
			log.Printf("[indicator] skipping indicator spec %q: %v", part, err)
			continue
		}
		specs = append(specs, spec)
	}
	return specs
}
