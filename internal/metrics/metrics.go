package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"stockforecast/internal/learn"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for training and forecasting.
type Metrics struct {
	// Training
	TrainingDur     prometheus.Histogram
	DatasetRows     prometheus.Gauge
	LearnerR2       *prometheus.GaugeVec   // labels: learner
	LearnerFailures *prometheus.CounterVec // labels: learner
	ModelR2         prometheus.Gauge
	ModelRMSE       prometheus.Gauge

	// Forecasting
	ForecastsTotal      prometheus.Counter
	EmptyForecastsTotal prometheus.Counter
	ForecastDur         prometheus.Histogram
	SourceErrorsTotal   *prometheus.CounterVec // labels: symbol

	// Price source circuit breaker
	BreakerState *prometheus.GaugeVec // labels: name; 0=closed, 1=half-open, 2=open

	// Gateway
	WSClients    prometheus.Gauge
	HTTPRequests *prometheus.CounterVec   // labels: method, route, code
	HTTPDuration *prometheus.HistogramVec // labels: method, route
}

// NewMetrics registers all metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers all metrics on reg.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TrainingDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_training_duration_seconds",
			Help:    "Wall time of a full training run",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		DatasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_training_rows",
			Help: "Feature records in the last training dataset",
		}),
		LearnerR2: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "forecast_learner_cv_r2",
			Help: "Cross-validated R² per candidate learner",
		}, []string{"learner"}),
		LearnerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_learner_failures_total",
			Help: "Candidate learners that failed to fit",
		}, []string{"learner"}),
		ModelR2: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_model_r2",
			Help: "R² of the selected model",
		}),
		ModelRMSE: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_model_rmse",
			Help: "RMSE of the selected model",
		}),

		ForecastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_requests_total",
			Help: "Forecasts produced",
		}),
		EmptyForecastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_empty_total",
			Help: "Forecasts with no points (insufficient history or source failure)",
		}),
		ForecastDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_duration_seconds",
			Help:    "Latency of a symbol forecast including the price fetch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SourceErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_source_errors_total",
			Help: "Price source failures while forecasting",
		}, []string{"symbol"}),

		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "forecast_source_breaker_state",
			Help: "Price source circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),

		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_ws_clients",
			Help: "Connected websocket clients",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_http_requests_total",
			Help: "HTTP requests served by the gateway",
		}, []string{"method", "route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forecast_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.TrainingDur,
		m.DatasetRows,
		m.LearnerR2,
		m.LearnerFailures,
		m.ModelR2,
		m.ModelRMSE,
		m.ForecastsTotal,
		m.EmptyForecastsTotal,
		m.ForecastDur,
		m.SourceErrorsTotal,
		m.BreakerState,
		m.WSClients,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// ObserveTraining records the outcome of a training run.
func (m *Metrics) ObserveTraining(res *learn.Result, elapsed time.Duration) {
	m.TrainingDur.Observe(elapsed.Seconds())
	m.DatasetRows.Set(float64(res.Rows))
	for _, c := range res.Candidates {
		if c.Failed() {
			m.LearnerFailures.WithLabelValues(c.Learner).Inc()
			continue
		}
		m.LearnerR2.WithLabelValues(c.Learner).Set(c.Metrics.R2)
	}
	if res.Best != nil {
		m.ModelR2.Set(res.Best.Metrics.R2)
		m.ModelRMSE.Set(res.Best.Metrics.RMSE)
	}
}

// ObserveForecast implements forecast.Observer.
func (m *Metrics) ObserveForecast(points int, elapsed time.Duration) {
	m.ForecastsTotal.Inc()
	if points == 0 {
		m.EmptyForecastsTotal.Inc()
	}
	m.ForecastDur.Observe(elapsed.Seconds())
}

// ObserveSourceError implements forecast.Observer.
func (m *Metrics) ObserveSourceError(symbol string) {
	m.ForecastsTotal.Inc()
	m.EmptyForecastsTotal.Inc()
	m.SourceErrorsTotal.WithLabelValues(symbol).Inc()
}

// SetBreakerState records a circuit breaker transition.
func (m *Metrics) SetBreakerState(name string, state int) {
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, code int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// HealthStatus represents the forecast service health.
type HealthStatus struct {
	mu sync.RWMutex

	ModelLoaded    bool      `json:"model_loaded"`
	ModelLearner   string    `json:"model_learner"`
	ModelTrainedAt time.Time `json:"model_trained_at"`
	SourceOK       bool      `json:"source_ok"`
	RedisEnabled   bool      `json:"redis_enabled"`
	RedisConnected bool      `json:"redis_connected"`

	RedisLatencyMs float64   `json:"redis_latency_ms"`
	LastCheckAt    time.Time `json:"last_check_at"`
	StartedAt      time.Time `json:"started_at"`
}

// NewHealthStatus returns a default health status.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{
		StartedAt: time.Now(),
		SourceOK:  true,
	}
}

// SetModel records the loaded model.
func (h *HealthStatus) SetModel(learner string, trainedAt time.Time) {
	h.mu.Lock()
	h.ModelLoaded = true
	h.ModelLearner = learner
	h.ModelTrainedAt = trainedAt
	h.mu.Unlock()
}

func (h *HealthStatus) SetSourceOK(v bool) {
	h.mu.Lock()
	h.SourceOK = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisEnabled = true
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks until ctx is done.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, interval time.Duration) {
	if rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				h.CheckRedis(probeCtx, rdb)
				cancel()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.SourceOK || (h.RedisEnabled && !h.RedisConnected) {
		overallStatus = "degraded"
	}
	if !h.ModelLoaded {
		overallStatus = "unhealthy"
		httpCode = http.StatusServiceUnavailable
	}

	status := struct {
		Status         string  `json:"status"`
		Uptime         string  `json:"uptime"`
		ModelLoaded    bool    `json:"model_loaded"`
		ModelLearner   string  `json:"model_learner"`
		ModelTrainedAt string  `json:"model_trained_at"`
		SourceOK       bool    `json:"source_ok"`
		RedisConnected bool    `json:"redis_connected"`
		RedisLatencyMs float64 `json:"redis_latency_ms"`
		LastCheckAt    string  `json:"last_check_at"`
	}{
		Status:         overallStatus,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		ModelLoaded:    h.ModelLoaded,
		ModelLearner:   h.ModelLearner,
		ModelTrainedAt: h.ModelTrainedAt.Format(time.RFC3339),
		SourceOK:       h.SourceOK,
		RedisConnected: h.RedisConnected,
		RedisLatencyMs: h.RedisLatencyMs,
		LastCheckAt:    h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}
