package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"stockforecast/internal/indicator"
	"stockforecast/internal/logger"
	"stockforecast/internal/model"
	"stockforecast/pkg/finnhub"
)

type errorBody struct {
	Error   string            `json:"error"`
	Details []ValidationError `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details []ValidationError) {
	writeJSON(w, status, errorBody{Error: msg, Details: details})
}

// sourceStatus maps a price source failure to an HTTP status.
func sourceStatus(err error) int {
	switch {
	case errors.Is(err, finnhub.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, finnhub.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) sourceFailed(ctx context.Context, w http.ResponseWriter, op, symbol string, err error) {
	s.health.SetSourceOK(false)
	s.log.With(logger.LogWithTrace(ctx)...).Warn("price source failed",
		slog.String("op", op),
		slog.String("symbol", symbol),
		slog.String("error", err.Error()),
	)
	writeError(w, sourceStatus(err), err.Error(), nil)
}

// forecast runs one validated request against the current model.
func (s *Server) forecast(ctx context.Context, req forecastRequest) (*ForecastOut, error) {
	m := s.current.Load()
	if m == nil {
		return nil, errNoModel
	}
	rng, err := model.ParseChartRange(req.Range)
	if err != nil {
		return nil, err
	}
	fc, err := m.predictor.PredictSymbol(ctx, s.source, strings.ToUpper(req.Symbol), rng)
	if err != nil {
		return nil, err
	}
	return toForecastOut(fc, m.art.Learner), nil
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req := forecastRequest{
		Symbol: chi.URLParam(r, "symbol"),
		Range:  strings.ToUpper(r.URL.Query().Get("range")),
	}
	if verrs := bind(ctx, &req); verrs != nil {
		writeError(w, http.StatusBadRequest, "invalid request", verrs)
		return
	}

	out, err := s.forecast(ctx, req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, out)
	case errors.Is(err, errNoModel):
		writeError(w, http.StatusServiceUnavailable, err.Error(), nil)
	case ctx.Err() != nil:
		writeError(w, http.StatusGatewayTimeout, err.Error(), nil)
	default:
		s.log.With(logger.LogWithTrace(ctx)...).Error("forecast failed",
			slog.String("symbol", req.Symbol),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, err.Error(), nil)
	}
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	q, err := s.source.Quote(ctx, symbol)
	if err != nil {
		s.sourceFailed(ctx, w, "quote", symbol, err)
		return
	}
	s.health.SetSourceOK(true)
	if q == nil {
		writeError(w, http.StatusNotFound, "no quote for "+symbol, nil)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteOut(symbol, q))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	p, err := s.source.Profile(ctx, symbol)
	if err != nil {
		s.sourceFailed(ctx, w, "profile", symbol, err)
		return
	}
	s.health.SetSourceOK(true)
	if p == nil {
		writeError(w, http.StatusNotFound, "unknown symbol "+symbol, nil)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	req := symbolsRequest{Prefix: q.Get("prefix")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request",
				[]ValidationError{{Code: "ERR_NUMBER", Field: "limit", Message: "limit must be an integer"}})
			return
		}
		req.Limit = n
	}
	if verrs := bind(ctx, &req); verrs != nil {
		writeError(w, http.StatusBadRequest, "invalid request", verrs)
		return
	}

	all, err := s.symbols.get(ctx, s.source, s.now())
	if err != nil {
		s.sourceFailed(ctx, w, "symbols", "", err)
		return
	}
	writeJSON(w, http.StatusOK, filterSymbols(all, req.Prefix, req.Limit))
}

func (s *Server) handleIndicators(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	req := indicatorsRequest{
		Symbol: chi.URLParam(r, "symbol"),
		Range:  strings.ToUpper(q.Get("range")),
		Specs:  q.Get("specs"),
	}
	if verrs := bind(ctx, &req); verrs != nil {
		writeError(w, http.StatusBadRequest, "invalid request", verrs)
		return
	}
	engine, err := indicator.NewEngine(indicator.ParseSpecs(req.Specs))
	if err != nil || len(engine.Specs()) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request",
			[]ValidationError{{Code: "ERR_SPECS", Field: "specs", Message: "specs must list at least one valid indicator"}})
		return
	}

	symbol := strings.ToUpper(req.Symbol)
	rng, _ := model.ParseChartRange(req.Range)
	from, to, res := rng.Window(s.now())
	bars, err := s.source.Bars(ctx, symbol, from, to, res)
	if err != nil {
		s.sourceFailed(ctx, w, "bars", symbol, err)
		return
	}
	s.health.SetSourceOK(true)
	bars = model.SortSeries(bars)

	values := engine.Compute(model.Closes(bars))
	out := &IndicatorsOut{Symbol: symbol, Range: string(rng), Resolution: res.String(), Series: make([]SeriesOut, len(values))}
	for i, name := range engine.Names() {
		series := SeriesOut{Name: name, Points: []ValueOut{}}
		for j, v := range values[i] {
			if finite(v) {
				series.Points = append(series.Points, ValueOut{Time: stamp(bars[j].Time), Value: round(v, 4)})
			}
		}
		out.Series[i] = series
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	a := s.Model()
	if a == nil {
		writeError(w, http.StatusServiceUnavailable, errNoModel.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, toModelOut(a))
}

// symbolCache holds the source's symbol list for ttl.
type symbolCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	fetched time.Time
	list    []string
}

func (c *symbolCache) get(ctx context.Context, src model.PriceSource, now time.Time) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.list != nil && now.Sub(c.fetched) < c.ttl {
		return c.list, nil
	}
	list, err := src.Symbols(ctx)
	if err != nil {
		if c.list != nil {
			return c.list, nil // serve stale
		}
		return nil, err
	}
	sorted := make([]string, len(list))
	copy(sorted, list)
	sort.Strings(sorted)
	c.list, c.fetched = sorted, now
	return c.list, nil
}

// filterSymbols returns up to limit symbols starting with prefix, case-insensitively.
func filterSymbols(all []string, prefix string, limit int) []string {
	prefix = strings.ToUpper(prefix)
	out := []string{}
	for _, sym := range all {
		if strings.HasPrefix(strings.ToUpper(sym), prefix) {
			out = append(out, sym)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}
