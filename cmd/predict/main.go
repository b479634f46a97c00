// cmd/predict prints a one-shot forecast for a symbol using the stored model
// and live Finnhub prices.
//
// Usage:
//
//	FINNHUB_TOKEN=... go run ./cmd/predict --symbol=AAPL --range=MONTH
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"stockforecast/config"
	"stockforecast/internal/artifact"
	"stockforecast/internal/forecast"
	"stockforecast/internal/logger"
	"stockforecast/internal/model"
	"stockforecast/internal/store"
	"stockforecast/pkg/finnhub"
)

func main() {
	cfg := config.Load()
	logger.Init("predict", logger.ParseLevel(cfg.LogLevel))

	symbol := flag.String("symbol", "", "Ticker symbol, e.g. AAPL")
	rangeStr := flag.String("range", "DAY", "Chart range: DAY, WEEK, MONTH, YTD, YEAR")
	modelPath := flag.String("model", cfg.ModelPath, "Artifact path (file store)")
	storeKind := flag.String("store", cfg.ModelStore, "Artifact store: file or redis")
	asJSON := flag.Bool("json", false, "Print the forecast as JSON")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall deadline")
	flag.Parse()

	if *symbol == "" {
		log.Fatal("[predict] --symbol is required")
	}
	rng, err := model.ParseChartRange(*rangeStr)
	if err != nil {
		log.Fatalf("[predict] %v", err)
	}
	cfg.ModelPath, cfg.ModelStore = *modelPath, *storeKind

	ctx, cancel := context.WithTimeout(logger.WithTraceID(context.Background(), logger.NewTraceID()), *timeout)
	defer cancel()

	st, closeStore, err := store.OpenModelStore(cfg)
	if err != nil {
		log.Fatalf("[predict] model store: %v", err)
	}
	defer closeStore()

	art, err := st.Load(ctx)
	if errors.Is(err, artifact.ErrNotFound) {
		log.Fatalf("[predict] no model at %s, run cmd/train first", st.Location())
	}
	if err != nil {
		log.Fatalf("[predict] load model: %v", err)
	}

	predictor, err := forecast.NewPredictor(art)
	if err != nil {
		log.Fatalf("[predict] %v", err)
	}
	source := finnhub.New(finnhub.Config{Token: cfg.RequireFinnhub()})

	fc, err := predictor.PredictSymbol(ctx, source, strings.ToUpper(*symbol), rng)
	if err != nil {
		log.Fatalf("[predict] %v", err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(fc)
		return
	}

	fmt.Printf("%s %s forecast (%s model, %d bars, %s steps)\n", fc.Symbol, fc.Range, art.Learner, fc.Bars, fc.Resolution)
	if len(fc.Points) == 0 {
		fmt.Println("  no forecast: not enough history")
		return
	}
	for i, p := range fc.Points {
		fmt.Printf("  %2d  %s  %10.2f  %+7.2f%%\n", i+1, p.Time.Format("2006-01-02 15:04"), p.Price, 100*p.Change)
	}
}
