// cmd/forecastd serves forecasts, quotes and chart overlays over HTTP and
// websocket using the trained model artifact.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sony/gobreaker/v2"

	"stockforecast/config"
	"stockforecast/internal/gateway"
	"stockforecast/internal/logger"
	"stockforecast/internal/metrics"
	"stockforecast/internal/store"
	redisstore "stockforecast/internal/store/redis"
	"stockforecast/pkg/finnhub"
)

func main() {
	cfg := config.Load()
	logger.Init("forecastd", logger.ParseLevel(cfg.LogLevel))

	addr := flag.String("addr", cfg.HTTPAddr, "HTTP listen address")
	reloadEvery := flag.Duration("reload", 5*time.Minute, "Model store poll interval")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()

	source := finnhub.New(finnhub.Config{
		Token: cfg.RequireFinnhub(),
		OnStateChange: func(name string, _, to gobreaker.State) {
			m.SetBreakerState(name, int(to))
		},
	})

	srv := gateway.NewServer(gateway.Config{
		Source:  source,
		Metrics: m,
		Health:  health,
	})

	models, closeStore, err := store.OpenModelStore(cfg)
	if err != nil {
		log.Fatalf("[forecastd] model store: %v", err)
	}
	defer closeStore()

	r := &reloader{store: models, target: srv, log: slog.Default().With(slog.String("component", "reloader"))}
	loaded, err := r.reload(ctx)
	if err != nil {
		log.Fatalf("[forecastd] load model from %s: %v", models.Location(), err)
	}
	if !loaded {
		log.Printf("[forecastd] WARNING: no model at %s; forecasts return 503 until one is trained", models.Location())
	}

	var notify <-chan string
	if rs, ok := models.(*redisstore.ModelStore); ok {
		health.CheckRedis(ctx, rs.Client())
		health.StartLivenessChecker(ctx, rs.Client(), 15*time.Second)
		if notify, err = rs.Watch(ctx); err != nil {
			log.Printf("[forecastd] WARNING: %v; falling back to polling", err)
		}
	}
	go r.run(ctx, *reloadEvery, notify)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[forecastd] listening on %s", *addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[forecastd] http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("[forecastd] received %v, shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Hub().Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("[forecastd] shutdown: %v", err)
	}
	log.Println("[forecastd] stopped")
}
