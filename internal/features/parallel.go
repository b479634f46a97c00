package features

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"stockforecast/internal/model"
)

// TickerSet is the per-ticker output of BuildAll.
type TickerSet struct {
	Ticker  string
	Bars    int
	Records []Record
}

// BuildAll builds labelled records for many tickers on a bounded worker pool.
// Each ticker is built independently; results are returned sorted by ticker
// so the concatenated dataset is deterministic. workers <= 0 uses GOMAXPROCS.
func BuildAll(ctx context.Context, series map[string][]model.PricePoint, workers int) ([]TickerSet, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	tickers := make([]string, 0, len(series))
	for t := range series {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	jobs := make(chan int)
	out := make([]TickerSet, len(tickers))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				t := tickers[idx]
				prices := series[t]
				out[idx] = TickerSet{Ticker: t, Bars: len(prices), Records: Build(prices, true)}
				slog.Debug("features built",
					slog.String("component", "features"),
					slog.String("ticker", t),
					slog.Int("bars", len(prices)),
					slog.Int("records", len(out[idx].Records)),
				)
			}
		}()
	}

	var err error
dispatch:
	for i := range tickers {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return out, nil
}

// Flatten concatenates per-ticker records in order.
func Flatten(sets []TickerSet) []Record {
	n := 0
	for _, s := range sets {
		n += len(s.Records)
	}
	all := make([]Record, 0, n)
	for _, s := range sets {
		all = append(all, s.Records...)
	}
	return all
}
