// Package forecast turns a trained model into a forward price curve.
//
// Each of the most recent Horizon bars yields one percent-change estimate,
// which is applied to that bar's own close. The resulting prices are laid out
// at successive resolution steps after the last observed bar.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"stockforecast/internal/artifact"
	"stockforecast/internal/features"
	"stockforecast/internal/logger"
	"stockforecast/internal/model"
)

// Point is one forecast price.
type Point struct {
	Time   time.Time `json:"time"`
	Price  float64   `json:"price"`
	Change float64   `json:"change"` // predicted fractional change from Anchor
	Anchor float64   `json:"anchor"` // close of the bar the estimate came from
}

// Forecast is a forecast for one symbol and chart range.
type Forecast struct {
	Symbol     string           `json:"symbol"`
	Range      model.ChartRange `json:"range"`
	Resolution model.Resolution `json:"-"`
	Bars       int              `json:"bars"` // history bars used
	Points     []Point          `json:"points"`
}

// Model is the part of a trained artifact the predictor needs.
type Model interface {
	Predict(vector []float64) float64
}

// Observer receives forecast telemetry. All methods must be safe for concurrent use.
type Observer interface {
	ObserveForecast(points int, elapsed time.Duration)
	ObserveSourceError(symbol string)
}

// Predictor produces forecasts from a loaded model. It holds no mutable state
// and is safe for concurrent use.
type Predictor struct {
	model    Model
	observer Observer
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Predictor.
type Option func(*Predictor)

// WithObserver attaches telemetry.
func WithObserver(o Observer) Option { return func(p *Predictor) { p.observer = o } }

// WithClock overrides the wall clock used to place chart windows.
func WithClock(now func() time.Time) Option { return func(p *Predictor) { p.now = now } }

// NewPredictor validates the artifact's feature schema and wraps its model.
func NewPredictor(a *artifact.Artifact, opts ...Option) (*Predictor, error) {
	if a == nil {
		return nil, errors.New("forecast: nil artifact")
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return newPredictor(a, opts...), nil
}

func newPredictor(m Model, opts ...Option) *Predictor {
	p := &Predictor{
		model: m,
		now:   time.Now,
		log:   slog.Default().With(slog.String("component", "forecast")),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Predict forecasts from a price series sampled at res.
//
// The last Horizon feature records each give one point; with fewer records,
// fewer points are returned, and none for an empty or too-short series.
// Point i (1-based) is stamped last bar time + i*res.Step(). An unordered
// series is an error.
func (p *Predictor) Predict(prices []model.PricePoint, res model.Resolution) ([]Point, error) {
	if err := model.ValidateSeries(prices); err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}
	records := features.Build(prices, false)
	if len(records) == 0 {
		return []Point{}, nil
	}
	if len(records) > features.Horizon {
		records = records[len(records)-features.Horizon:]
	}

	last := prices[len(prices)-1].Time
	step := res.Step()
	points := make([]Point, len(records))
	for i := range records {
		r := &records[i]
		pct := p.model.Predict(r.Vector())
		points[i] = Point{
			Time:   last.Add(time.Duration(i+1) * step),
			Price:  r.Close + pct*r.Close,
			Change: pct,
			Anchor: r.Close,
		}
	}
	return points, nil
}

// PredictSymbol fetches the forecast window for a chart range from source and
// forecasts it. A source failure is logged and yields an empty forecast.
func (p *Predictor) PredictSymbol(ctx context.Context, source model.PriceSource, symbol string, rng model.ChartRange) (*Forecast, error) {
	start := time.Now()
	from, to, res := rng.ForecastWindow(p.now())
	fc := &Forecast{Symbol: symbol, Range: rng, Resolution: res, Points: []Point{}}

	log := p.log.With(logger.LogWithTrace(ctx)...)
	bars, err := source.Bars(ctx, symbol, from, to, res)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("price source failed, returning empty forecast",
			slog.String("symbol", symbol),
			slog.String("range", string(rng)),
			slog.String("error", err.Error()),
		)
		if p.observer != nil {
			p.observer.ObserveSourceError(symbol)
		}
		return fc, nil
	}
	fc.Bars = len(bars)

	points, err := p.Predict(model.SortSeries(bars), res)
	if err != nil {
		return nil, err
	}
	fc.Points = points

	elapsed := time.Since(start)
	if p.observer != nil {
		p.observer.ObserveForecast(len(points), elapsed)
	}
	log.Debug("forecast served",
		slog.String("symbol", symbol),
		slog.String("range", string(rng)),
		slog.Int("bars", len(bars)),
		slog.Int("points", len(points)),
		slog.Duration("elapsed", elapsed),
	)
	return fc, nil
}
