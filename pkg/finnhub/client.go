// Package finnhub is a REST client for the Finnhub stock API covering the
// symbol list, company profiles, quotes and OHLCV candles.
//
// Every request runs through a circuit breaker so a failing upstream is not
// hammered. Requests are never retried.
//
//	c := finnhub.New(finnhub.Config{Token: os.Getenv("FINNHUB_TOKEN")})
//	bars, err := c.Bars(ctx, "AAPL", from, to, model.Day)
package finnhub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"stockforecast/internal/model"
)

const defaultBaseURL = "https://finnhub.io/api/v1"

var (
	// ErrRateLimited is returned on HTTP 429.
	ErrRateLimited = errors.New("finnhub: rate limited")
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("finnhub: unavailable, circuit breaker open")
)

// StatusError is a non-2xx response.
type StatusError struct {
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("finnhub %s: HTTP %d", e.Path, e.Status)
}

// ---- Config & client ----

type Config struct {
	Token   string
	BaseURL string        // default: https://finnhub.io/api/v1
	Timeout time.Duration // default: 10s

	// Breaker settings; zero values use defaults.
	MaxRequests uint32        // probes allowed while half-open (default 1)
	Interval    time.Duration // closed-state count reset period (default 1m)
	OpenTimeout time.Duration // open-state duration before probing (default 30s)

	// OnStateChange is invoked on every breaker transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// Client implements model.PriceSource against Finnhub.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

var _ model.PriceSource = (*Client)(nil)

// New creates a Finnhub client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "finnhub",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Client errors other than 429 say nothing about upstream health.
			var se *StatusError
			if errors.As(err, &se) {
				return se.Status >= 400 && se.Status < 500 && se.Status != http.StatusTooManyRequests
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[finnhub] circuit breaker %s: %s -> %s", name, from, to)
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	return &Client{
		token:      cfg.Token,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

// State returns the breaker state.
func (c *Client) State() gobreaker.State { return c.breaker.State() }

// get fetches path with query params through the breaker and returns the body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	body, err := c.breaker.Execute(func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		reqURL := c.baseURL + path
		if len(params) > 0 {
			reqURL += "?" + params.Encode()
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("finnhub %s: build request: %w", path, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Finnhub-Token", c.token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("finnhub %s: %w", path, err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("finnhub %s: read body: %w", path, err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %w", ErrRateLimited, &StatusError{Path: path, Status: resp.StatusCode})
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{Path: path, Status: resp.StatusCode}
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, path)
	}
	return body, err
}

// ---- API methods ----

// Symbols lists every US-listed symbol.
func (c *Client) Symbols(ctx context.Context) ([]string, error) {
	data, err := c.get(ctx, "/stock/symbol", url.Values{"exchange": {"US"}})
	if err != nil {
		return nil, err
	}
	var entries []struct {
		Symbol string `json:"symbol"`
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("finnhub symbols: decode: %w", err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Symbol != "" {
			out = append(out, e.Symbol)
		}
	}
	return out, nil
}

// Profile returns company details, or nil for an unknown symbol.
func (c *Client) Profile(ctx context.Context, symbol string) (*model.Profile, error) {
	data, err := c.get(ctx, "/stock/profile2", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	var p struct {
		Name   string `json:"name"`
		Ticker string `json:"ticker"`
		Logo   string `json:"logo"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("finnhub profile %s: decode: %w", symbol, err)
	}
	if p.Ticker == "" && p.Name == "" {
		return nil, nil
	}
	if _, err := url.ParseRequestURI(p.Logo); err != nil {
		p.Logo = ""
	}
	return &model.Profile{Name: p.Name, Ticker: p.Ticker, Logo: p.Logo}, nil
}

// Quote returns the latest quote. All of o, h, l, c and pc must be numeric.
func (c *Client) Quote(ctx context.Context, symbol string) (*model.Quote, error) {
	data, err := c.get(ctx, "/quote", url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, err
	}
	var q struct {
		O  *float64 `json:"o"`
		H  *float64 `json:"h"`
		L  *float64 `json:"l"`
		C  *float64 `json:"c"`
		PC *float64 `json:"pc"`
		T  int64    `json:"t"`
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("finnhub quote %s: decode: %w", symbol, err)
	}
	if q.O == nil || q.H == nil || q.L == nil || q.C == nil || q.PC == nil {
		return nil, fmt.Errorf("finnhub quote %s: malformed response", symbol)
	}
	ts := time.Now().UTC()
	if q.T > 0 {
		ts = time.Unix(q.T, 0).UTC()
	}
	return &model.Quote{Open: *q.O, High: *q.H, Low: *q.L, Current: *q.C, PrevClose: *q.PC, Time: ts}, nil
}

type candleResponse struct {
	S string    `json:"s"`
	T []int64   `json:"t"`
	O []float64 `json:"o"`
	H []float64 `json:"h"`
	L []float64 `json:"l"`
	C []float64 `json:"c"`
	V []float64 `json:"v"`
}

// Bars returns candles in [from, to], sorted by time with duplicates removed.
// A "no_data" status yields an empty slice.
func (c *Client) Bars(ctx context.Context, symbol string, from, to time.Time, res model.Resolution) ([]model.PricePoint, error) {
	params := url.Values{
		"symbol":     {symbol},
		"resolution": {res.Code()},
		"from":       {strconv.FormatInt(from.Unix(), 10)},
		"to":         {strconv.FormatInt(to.Unix(), 10)},
	}
	data, err := c.get(ctx, "/stock/candle", params)
	if err != nil {
		return nil, err
	}

	var cr candleResponse
	if err := json.Unmarshal(data, &cr); err != nil {
		return nil, fmt.Errorf("finnhub candles %s: decode: %w", symbol, err)
	}
	if cr.S != "ok" {
		return []model.PricePoint{}, nil
	}
	n := len(cr.T)
	if len(cr.O) != n || len(cr.H) != n || len(cr.L) != n || len(cr.C) != n || len(cr.V) != n {
		return nil, fmt.Errorf("finnhub candles %s: column lengths differ", symbol)
	}

	bars := make([]model.PricePoint, n)
	for i := range bars {
		bars[i] = model.PricePoint{
			Time:   time.Unix(cr.T[i], 0).UTC(),
			Open:   cr.O[i],
			High:   cr.H[i],
			Low:    cr.L[i],
			Close:  cr.C[i],
			Volume: int64(cr.V[i]),
		}
	}
	return model.SortSeries(bars), nil
}
