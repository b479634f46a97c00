package features

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockforecast/internal/indicator"
	"stockforecast/internal/model"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// trend builds n daily bars drifting by slope per bar with seeded noise.
func trend(n int, start, slope float64, seed int64) []model.PricePoint {
	rng := rand.New(rand.NewSource(seed))
	out := make([]model.PricePoint, n)
	for i := range out {
		c := start + slope*float64(i) + rng.NormFloat64()*0.5
		out[i] = model.PricePoint{
			Time: t0.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1000,
		}
	}
	return out
}

func TestSchema(t *testing.T) {
	s := Schema()
	require.Len(t, s, 11)
	assert.Equal(t, Width(), len(s))
	assert.Equal(t, "ema_5", s[0])
	assert.Equal(t, "macd_hist_12_26_9", s[10])

	s[0] = "mutated"
	assert.Equal(t, "ema_5", Schema()[0], "Schema must return a copy")
}

func TestWarmup(t *testing.T) {
	assert.Equal(t, 54, Warmup())
}

func TestBuild_EmptyAndShort(t *testing.T) {
	assert.Empty(t, Build(nil, true))
	assert.Empty(t, Build(nil, false))
	assert.Empty(t, Build(trend(1, 100, 1, 1), false))
	assert.Empty(t, Build(trend(54, 100, 1, 1), false))
	assert.Len(t, Build(trend(55, 100, 1, 1), false), 1)
	assert.Empty(t, Build(trend(69, 100, 1, 1), true))
	assert.Len(t, Build(trend(70, 100, 1, 1), true), 1)
}

func TestBuild_TrainingMode(t *testing.T) {
	prices := trend(200, 100, 0.5, 7)
	records := Build(prices, true)

	require.Len(t, records, 200-Horizon-Warmup())
	assert.Equal(t, Warmup(), records[0].Index)
	assert.Equal(t, 200-Horizon-1, records[len(records)-1].Index)

	for k, r := range records {
		require.True(t, r.HasLabel)
		require.True(t, r.Valid(), "record %d", k)
		if k > 0 {
			require.Greater(t, r.Index, records[k-1].Index)
		}
		want := (prices[r.Index+Horizon].Close - prices[r.Index].Close) / prices[r.Index].Close
		assert.InDelta(t, want, r.Label, 1e-12)
		assert.Equal(t, prices[r.Index].Time, r.Time)
		assert.Equal(t, prices[r.Index].Close, r.Close)
	}
}

func TestBuild_InferenceMode(t *testing.T) {
	prices := trend(200, 100, 0.5, 7)
	records := Build(prices, false)

	require.Len(t, records, 200-Warmup())
	assert.Equal(t, 199, records[len(records)-1].Index)
	for _, r := range records {
		assert.False(t, r.HasLabel)
	}
}

func TestBuild_TrainServeParity(t *testing.T) {
	prices := trend(150, 80, -0.2, 3)
	train := Build(prices, true)
	serve := Build(prices, false)

	byIndex := make(map[int][]float64, len(serve))
	for _, r := range serve {
		byIndex[r.Index] = r.Vector()
	}
	for _, r := range train {
		v, ok := byIndex[r.Index]
		require.True(t, ok, "index %d missing from inference output", r.Index)
		assert.Equal(t, v, r.Vector())
	}
}

func TestBuild_FeatureValues(t *testing.T) {
	prices := trend(120, 50, 0.3, 11)
	closes := model.Closes(prices)
	records := Build(prices, false)
	r := records[len(records)-1]
	i := r.Index

	ema5 := indicator.EMASeries(closes, 5)
	ema50 := indicator.EMASeries(closes, 50)
	assert.InDelta(t, ema5[i], r.EMA[0], 1e-12)
	assert.InDelta(t, ema50[i], r.EMA[3], 1e-12)
	assert.InDelta(t, ema5[i]-ema50[i], r.Crossover, 1e-12)
	assert.InDelta(t, indicator.RSISeries(closes, 14)[i], r.RSI, 1e-12)
	assert.InDelta(t, indicator.ROCSeries(closes, 21, 5)[i], r.ROC[2], 1e-12)
	assert.InDelta(t, indicator.MACDSeries(closes, 12, 26, 9)[i], r.MACD, 1e-12)
	assert.GreaterOrEqual(t, r.RSI, 0.0)
	assert.LessOrEqual(t, r.RSI, 100.0)
}

func TestBuild_DropsNonFinite(t *testing.T) {
	prices := trend(200, 100, 0.5, 5)
	prices[120].Close = math.NaN()

	records := Build(prices, true)
	require.NotEmpty(t, records)
	for _, r := range records {
		assert.True(t, r.Valid())
		assert.Less(t, r.Index, 120)
		assert.NotEqual(t, 120-Horizon, r.Index, "label reads the NaN close")
	}
}

func TestMatrix(t *testing.T) {
	records := Build(trend(100, 100, 1, 2), true)
	x, y := Matrix(records)
	require.Len(t, x, len(records))
	require.Len(t, y, len(records))
	assert.Len(t, x[0], Width())
	assert.Equal(t, records[3].Label, y[3])
}

func TestBuildAll_Deterministic(t *testing.T) {
	series := map[string][]model.PricePoint{
		"MSFT": trend(120, 300, 1, 1),
		"AAPL": trend(100, 150, -0.5, 2),
		"IBM":  trend(30, 120, 0.1, 3),
	}

	first, err := BuildAll(context.Background(), series, 3)
	require.NoError(t, err)
	second, err := BuildAll(context.Background(), series, 1)
	require.NoError(t, err)

	require.Len(t, first, 3)
	assert.Equal(t, []string{"AAPL", "IBM", "MSFT"}, []string{first[0].Ticker, first[1].Ticker, first[2].Ticker})
	assert.Empty(t, first[1].Records)
	assert.Equal(t, Flatten(first), Flatten(second))
	assert.Len(t, Flatten(first), len(Build(series["AAPL"], true))+len(Build(series["MSFT"], true)))
}

func TestBuildAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildAll(ctx, map[string][]model.PricePoint{"A": trend(80, 10, 1, 1)}, 2)
	assert.ErrorIs(t, err, context.Canceled)
}
