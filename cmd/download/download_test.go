package main

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockforecast/internal/model"
	sqlitestore "stockforecast/internal/store/sqlite"
)

var now = time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

type fakeSource struct {
	calls map[string][2]time.Time
}

func (f *fakeSource) Symbols(context.Context) ([]string, error)                { return nil, nil }
func (f *fakeSource) Profile(context.Context, string) (*model.Profile, error) { return nil, nil }
func (f *fakeSource) Quote(context.Context, string) (*model.Quote, error)     { return nil, nil }

func (f *fakeSource) Bars(_ context.Context, sym string, from, to time.Time, _ model.Resolution) ([]model.PricePoint, error) {
	f.calls[sym] = [2]time.Time{from, to}
	if sym == "FAIL" {
		return nil, errors.New("upstream down")
	}
	var bars []model.PricePoint
	for t := from.Truncate(24 * time.Hour); !t.After(to); t = t.Add(24 * time.Hour) {
		bars = append(bars, model.PricePoint{Time: t, Open: 10, High: 11, Low: 9, Close: 10, Volume: 1})
	}
	return bars, nil
}

func newDownloader(t *testing.T) (*downloader, *fakeSource, *sqlitestore.Reader) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.db")
	w, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	r, err := sqlitestore.NewReader(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	src := &fakeSource{calls: map[string][2]time.Time{}}
	return &downloader{source: src, writer: w, now: func() time.Time { return now }}, src, r
}

func TestRun_StoresEveryTicker(t *testing.T) {
	d, _, r := newDownloader(t)
	ctx := context.Background()

	results := d.run(ctx, &Universe{Days: 10, Symbols: []string{"AAPL", "FAIL", "MSFT"}})
	require.Len(t, results, 3)
	assert.Equal(t, 11, results[0].Bars)
	assert.Error(t, results[1].Err)
	assert.NoError(t, results[2].Err)

	tickers, err := r.Tickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)

	prices, err := r.Prices(ctx, "MSFT")
	require.NoError(t, err)
	assert.Len(t, prices, 11)
}

func TestRun_Incremental(t *testing.T) {
	d, src, _ := newDownloader(t)
	ctx := context.Background()
	u := &Universe{Days: 30, Symbols: []string{"KO"}}

	d.run(ctx, u)
	assert.Equal(t, now.AddDate(0, 0, -30), src.calls["KO"][0])

	d.incremental = true
	d.now = func() time.Time { return now.AddDate(0, 0, 5) }
	results := d.run(ctx, u)
	assert.Equal(t, now.Add(24*time.Hour), src.calls["KO"][0], "resumes the day after the last stored bar")
	assert.Equal(t, 5, results[0].Bars)

	delete(src.calls, "KO")
	results = d.run(ctx, u)
	require.NoError(t, results[0].Err)
	assert.Zero(t, results[0].Bars)
	assert.NotContains(t, src.calls, "KO", "up to date with the last closed session")
}

func TestRun_Cancelled(t *testing.T) {
	d, _, _ := newDownloader(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Empty(t, d.run(ctx, &Universe{Days: 5, Symbols: []string{"A", "B"}}))
}

func TestDropIncomplete(t *testing.T) {
	bars := []model.PricePoint{
		{Open: 1, High: 1, Low: 1, Close: 1},
		{Open: 1, High: 1, Low: 1, Close: math.NaN()},
		{Open: 0, High: 1, Low: 1, Close: 1},
		{Open: 2, High: 2, Low: 2, Close: 2},
	}
	out := dropIncomplete(bars)
	require.Len(t, out, 2)
	assert.Equal(t, 2.0, out[1].Close)
}
