package indicator

import (
	"math"
	"testing"

	"github.com/markcheno/go-talib"
)

// go-talib serves as an independent reference. It reports undefined
// positions as 0, so comparisons start at each indicator's warm-up index.

func TestEMA_MatchesTalib(t *testing.T) {
	closes := zigzag(100, 120)
	for _, p := range []int{5, 15, 21, 50} {
		ours := EMASeries(closes, p)
		ref := talib.Ema(closes, p)
		for i := p - 1; i < len(closes); i++ {
			assertClose(t, "EMA vs talib", ours[i], ref[i], 1e-9)
		}
	}
}

func TestRSI_MatchesTalib(t *testing.T) {
	closes := zigzag(100, 120)
	ours := RSISeries(closes, 14)
	ref := talib.Rsi(closes, 14)
	for i := 14; i < len(closes); i++ {
		assertClose(t, "RSI vs talib", ours[i], ref[i], 1e-6)
	}
}

func TestROC_MatchesTalib(t *testing.T) {
	closes := zigzag(100, 120)
	for _, p := range []int{5, 15, 21, 50} {
		raw := ROCSeries(closes, p, 1)
		ref := talib.Roc(closes, p)
		for i := p; i < len(closes); i++ {
			assertClose(t, "ROC vs talib", raw[i], ref[i], 1e-9)
		}

		// smoothed ROC is an SMA(5) over the raw values
		smoothed := ROCSeries(closes, p, 5)
		for i := p + 4; i < len(closes); i++ {
			sum := 0.0
			for j := i - 4; j <= i; j++ {
				sum += ref[j]
			}
			assertClose(t, "smoothed ROC", smoothed[i], sum/5, 1e-9)
		}
		if !math.IsNaN(smoothed[p+3]) {
			t.Errorf("ROC(%d) smoothed: expected NaN at %d", p, p+3)
		}
	}
}
