// cmd/train builds the feature dataset from the SQLite training database,
// cross-validates every configured learner and stores the best model.
//
// Usage:
//
//	go run ./cmd/train --db=data/mltrainingdata.db --model=data/model.json --folds=10 --policy=average
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"stockforecast/config"
	"stockforecast/internal/artifact"
	"stockforecast/internal/features"
	"stockforecast/internal/learn"
	"stockforecast/internal/logger"
	"stockforecast/internal/metrics"
	"stockforecast/internal/store"
	sqlitestore "stockforecast/internal/store/sqlite"
)

func main() {
	cfg := config.Load()
	logger.Init("train", logger.ParseLevel(cfg.LogLevel))

	dbPath := flag.String("db", cfg.SQLitePath, "Path to SQLite training database")
	modelPath := flag.String("model", cfg.ModelPath, "Artifact path (file store)")
	storeKind := flag.String("store", cfg.ModelStore, "Artifact store: file or redis")
	folds := flag.Int("folds", cfg.CVFolds, "Cross-validation folds")
	policyStr := flag.String("policy", cfg.FoldPolicy, "Fold policy: average or best-fold")
	workers := flag.Int("workers", cfg.BuildWorkers, "Feature build workers (0=GOMAXPROCS)")
	learnerStr := flag.String("learners", cfg.Learners, "Comma-separated learners: gbt,ridge,linear (empty=all)")
	metricsFile := flag.String("metrics-file", "", "Write training metrics in Prometheus text format to this file")
	flag.Parse()

	cfg.ModelPath, cfg.ModelStore = *modelPath, *storeKind

	policy, err := learn.ParseFoldPolicy(*policyStr)
	if err != nil {
		log.Fatalf("[train] %v", err)
	}
	learners, err := learn.ParseLearners(*learnerStr)
	if err != nil {
		log.Fatalf("[train] %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Warn("interrupted, cancelling training")
		cancel()
	}()

	start := time.Now()

	// Load history
	reader, err := sqlitestore.NewReader(*dbPath)
	if err != nil {
		log.Fatalf("[train] sqlite open failed: %v", err)
	}
	series, err := reader.LoadAll(ctx)
	reader.Close()
	if err != nil {
		log.Fatalf("[train] load prices: %v", err)
	}
	slog.Info("loaded price history", slog.Int("tickers", len(series)), slog.String("db", *dbPath))

	// Features
	sets, err := features.BuildAll(ctx, series, *workers)
	if err != nil {
		log.Fatalf("[train] build features: %v", err)
	}
	records := features.Flatten(sets)
	for _, s := range sets {
		slog.Debug("ticker features", slog.String("ticker", s.Ticker), slog.Int("bars", s.Bars), slog.Int("records", len(s.Records)))
	}

	// Train
	trainer := &learn.Trainer{Learners: learners, Folds: *folds, Policy: policy, Logger: slog.Default()}
	res, err := trainer.Train(ctx, records)
	if err != nil {
		log.Fatalf("[train] %v", err)
	}

	art, err := artifact.New(res, time.Now())
	if err != nil {
		log.Fatalf("[train] %v", err)
	}

	st, closeStore, err := store.OpenModelStore(cfg)
	if err != nil {
		log.Fatalf("[train] model store: %v", err)
	}
	defer closeStore()
	if err := st.Save(ctx, art); err != nil {
		log.Fatalf("[train] save model: %v", err)
	}

	elapsed := time.Since(start)
	if *metricsFile != "" {
		reg := prometheus.NewRegistry()
		metrics.NewMetricsWith(reg).ObserveTraining(res, elapsed)
		if err := prometheus.WriteToTextfile(*metricsFile, reg); err != nil {
			slog.Warn("metrics file not written", slog.String("error", err.Error()))
		}
	}

	printSummary(res, len(sets), st.Location(), elapsed)
}

func printSummary(res *learn.Result, tickers int, location string, elapsed time.Duration) {
	fmt.Println("╔══════════════════════════════════════════════╗")
	fmt.Println("║              TRAINING COMPLETE               ║")
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Tickers:        %-27d ║\n", tickers)
	fmt.Printf("║  Rows:           %-27d ║\n", res.Rows)
	fmt.Printf("║  Folds/policy:   %-27s ║\n", fmt.Sprintf("%d / %s", res.Folds, res.Policy))
	fmt.Println("╠══════════════════════════════════════════════╣")
	for _, c := range res.Candidates {
		if c.Failed() {
			fmt.Printf("║  %-8s  FAILED %-26.26s ║\n", c.Learner, c.Err.Error())
			continue
		}
		fmt.Printf("║  %-8s  R²=%-10.4f  %-18s ║\n", c.Learner, c.Metrics.R2, c.Elapsed.Round(time.Millisecond))
	}
	fmt.Println("╠══════════════════════════════════════════════╣")
	m := res.Best.Metrics
	fmt.Printf("║  Best model:     %-27s ║\n", res.Best.Learner)
	fmt.Printf("║  R²:             %-27.6f ║\n", m.R2)
	fmt.Printf("║  MAE:            %-27.6f ║\n", m.MAE)
	fmt.Printf("║  MSE:            %-27.6f ║\n", m.MSE)
	fmt.Printf("║  RMSE:           %-27.6f ║\n", m.RMSE)
	fmt.Println("╠══════════════════════════════════════════════╣")
	fmt.Printf("║  Saved to:       %-27.27s ║\n", location)
	fmt.Printf("║  Elapsed:        %-27s ║\n", elapsed.Round(time.Millisecond))
	fmt.Println("╚══════════════════════════════════════════════╝")
}
