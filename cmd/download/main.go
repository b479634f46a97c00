// cmd/download fetches daily price history from Finnhub for a universe of
// tickers and writes it into the SQLite training database.
//
// Usage:
//
//	FINNHUB_TOKEN=... go run ./cmd/download --universe=universe.yaml --db=data/mltrainingdata.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockforecast/config"
	"stockforecast/internal/logger"
	"stockforecast/internal/markethours"
	"stockforecast/internal/model"
	sqlitestore "stockforecast/internal/store/sqlite"
	"stockforecast/pkg/finnhub"
)

func main() {
	cfg := config.Load()
	logger.Init("download", logger.ParseLevel(cfg.LogLevel))

	universePath := flag.String("universe", "", "YAML universe file (default: built-in Dow 30)")
	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite training database")
	days := flag.Int("days", 0, "Days of history to fetch (0 = universe setting)")
	incremental := flag.Bool("incremental", false, "Only fetch bars after the last stored date")
	pace := flag.Duration("pace", 1100*time.Millisecond, "Minimum delay between Finnhub requests")
	flag.Parse()

	u, err := loadUniverse(*universePath)
	if err != nil {
		log.Fatalf("[download] %v", err)
	}
	if *days > 0 {
		u.Days = *days
	}

	writer, err := sqlitestore.New(sqlitestore.WriterConfig{DBPath: *dbPath})
	if err != nil {
		log.Fatalf("[download] sqlite open failed: %v", err)
	}
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	d := &downloader{
		source:      finnhub.New(finnhub.Config{Token: cfg.RequireFinnhub()}),
		writer:      writer,
		pace:        *pace,
		incremental: *incremental,
		now:         time.Now,
	}
	start := time.Now()
	results := d.run(ctx, u)

	total, failed := 0, 0
	for _, r := range results {
		total += r.Bars
		if r.Err != nil {
			failed++
		}
	}
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Println("║        DOWNLOAD COMPLETE             ║")
	fmt.Println("╠══════════════════════════════════════╣")
	fmt.Printf("║  Tickers:           %-16d ║\n", len(results))
	fmt.Printf("║  Failed:            %-16d ║\n", failed)
	fmt.Printf("║  Bars written:      %-16d ║\n", total)
	fmt.Printf("║  Elapsed:           %-16s ║\n", time.Since(start).Round(time.Second))
	fmt.Println("╚══════════════════════════════════════╝")
	if failed > 0 {
		os.Exit(1)
	}
}

type lastDater interface {
	LastDate(ctx context.Context, ticker string) (time.Time, bool, error)
}

// downloader fetches and stores one ticker at a time, pacing requests to
// stay under the source's rate limit.
type downloader struct {
	source      model.PriceSource
	writer      model.PriceWriter
	pace        time.Duration
	incremental bool
	now         func() time.Time
}

type tickerResult struct {
	Symbol string
	Bars   int
	Err    error
}

func (d *downloader) run(ctx context.Context, u *Universe) []tickerResult {
	var results []tickerResult
	var last time.Time
	for _, sym := range u.Symbols {
		if wait := d.pace - time.Since(last); !last.IsZero() && wait > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(wait):
			}
		}
		if ctx.Err() != nil {
			return results
		}
		last = time.Now()

		n, err := d.fetch(ctx, sym, u.Days)
		if err != nil {
			slog.Error("ticker failed", slog.String("symbol", sym), slog.String("error", err.Error()))
		} else {
			slog.Info("ticker stored", slog.String("symbol", sym), slog.Int("bars", n))
		}
		results = append(results, tickerResult{Symbol: sym, Bars: n, Err: err})
	}
	return results
}

func (d *downloader) fetch(ctx context.Context, sym string, days int) (int, error) {
	to := d.now().UTC()
	from := to.AddDate(0, 0, -days)
	if ld, ok := d.writer.(lastDater); ok && d.incremental {
		lastDate, found, err := ld.LastDate(ctx, sym)
		if err != nil {
			return 0, err
		}
		if found {
			if !lastDate.Before(markethours.LastSession(to)) {
				return 0, nil
			}
			from = lastDate.Add(24 * time.Hour)
		}
	}
	if !from.Before(to) {
		return 0, nil
	}

	bars, err := d.source.Bars(ctx, sym, from, to, model.Day)
	if err != nil {
		return 0, err
	}
	bars = dropIncomplete(bars)

	if err := d.writer.SaveTicker(ctx, sym); err != nil {
		return 0, err
	}
	if err := d.writer.SavePrices(ctx, sym, bars); err != nil {
		return 0, err
	}
	return len(bars), nil
}

// dropIncomplete removes bars with a missing or non-positive price.
func dropIncomplete(bars []model.PricePoint) []model.PricePoint {
	out := bars[:0]
	for _, b := range bars {
		ok := true
		for _, v := range []float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, b)
		}
	}
	return out
}
