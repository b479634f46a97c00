// Package gateway serves forecasts over REST and websocket.
//
// Routes:
//
//	GET /api/forecast/{symbol}?range=     forward price curve
//	GET /api/quote/{symbol}               latest quote
//	GET /api/profile/{symbol}             company profile
//	GET /api/symbols?prefix=&limit=       symbol search
//	GET /api/indicators/{symbol}?specs=   chart overlays
//	GET /api/model                        loaded artifact metadata
//	GET /healthz, GET /metrics, GET /ws
package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stockforecast/internal/artifact"
	"stockforecast/internal/forecast"
	"stockforecast/internal/logger"
	"stockforecast/internal/metrics"
	"stockforecast/internal/model"
)

var errNoModel = errors.New("model not loaded")

// Config wires the server's dependencies. Source is required.
type Config struct {
	Source   model.PriceSource
	Metrics  *metrics.Metrics      // optional
	Health   *metrics.HealthStatus // default: new status
	Gatherer prometheus.Gatherer   // default: prometheus.DefaultGatherer

	Timeout   time.Duration    // per-request deadline for /api (default 30s)
	SymbolTTL time.Duration    // symbol list cache lifetime (default 1h)
	Clock     func() time.Time // default time.Now
}

// Server is the forecast gateway. The loaded model may be swapped at any
// time with SetModel; in-flight requests keep the model they started with.
type Server struct {
	source   model.PriceSource
	metrics  *metrics.Metrics
	health   *metrics.HealthStatus
	gatherer prometheus.Gatherer
	timeout  time.Duration
	now      func() time.Time

	current atomic.Pointer[loadedModel]
	symbols *symbolCache
	hub     *Hub
	log     *slog.Logger
}

type loadedModel struct {
	art       *artifact.Artifact
	predictor *forecast.Predictor
}

// NewServer creates a server with no model loaded.
func NewServer(cfg Config) *Server {
	if cfg.Health == nil {
		cfg.Health = metrics.NewHealthStatus()
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.SymbolTTL <= 0 {
		cfg.SymbolTTL = time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	s := &Server{
		source:   cfg.Source,
		metrics:  cfg.Metrics,
		health:   cfg.Health,
		gatherer: cfg.Gatherer,
		timeout:  cfg.Timeout,
		now:      cfg.Clock,
		symbols:  &symbolCache{ttl: cfg.SymbolTTL},
		log:      slog.Default().With(slog.String("component", "gateway")),
	}
	s.hub = newHub(s)
	return s
}

// SetModel validates an artifact and makes it the serving model.
func (s *Server) SetModel(a *artifact.Artifact) error {
	p, err := forecast.NewPredictor(a, forecast.WithObserver(s), forecast.WithClock(s.now))
	if err != nil {
		return err
	}
	s.current.Store(&loadedModel{art: a, predictor: p})
	s.health.SetModel(a.Learner, a.TrainedAt)
	s.log.Info("model loaded",
		slog.String("learner", a.Learner),
		slog.Time("trained_at", a.TrainedAt),
	)
	return nil
}

// Model returns the serving artifact, or nil.
func (s *Server) Model() *artifact.Artifact {
	if m := s.current.Load(); m != nil {
		return m.art
	}
	return nil
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Health returns the health status served on /healthz.
func (s *Server) Health() *metrics.HealthStatus { return s.health }

// ObserveForecast implements forecast.Observer.
func (s *Server) ObserveForecast(points int, elapsed time.Duration) {
	s.health.SetSourceOK(true)
	if s.metrics != nil {
		s.metrics.ObserveForecast(points, elapsed)
	}
}

// ObserveSourceError implements forecast.Observer.
func (s *Server) ObserveSourceError(symbol string) {
	s.health.SetSourceOK(false)
	if s.metrics != nil {
		s.metrics.ObserveSourceError(symbol)
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(traceMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(corsMiddleware)

	r.Handle("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/ws", s.handleWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))

		r.Get("/forecast/{symbol}", s.handleForecast)
		r.Get("/quote/{symbol}", s.handleQuote)
		r.Get("/profile/{symbol}", s.handleProfile)
		r.Get("/symbols", s.handleSymbols)
		r.Get("/indicators/{symbol}", s.handleIndicators)
		r.Get("/model", s.handleModel)
	})

	return r
}

// traceMiddleware tags each request with a trace ID, reusing X-Request-ID when sent.
func traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tid := r.Header.Get("X-Request-ID")
		if tid == "" {
			tid = logger.NewTraceID()
		}
		w.Header().Set("X-Request-ID", tid)
		next.ServeHTTP(w, r.WithContext(logger.WithTraceID(r.Context(), tid)))
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.metrics.RecordHTTPRequest(r.Method, route, status, time.Since(start))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
