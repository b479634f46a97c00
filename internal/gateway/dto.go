package gateway

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"stockforecast/internal/artifact"
	"stockforecast/internal/forecast"
	"stockforecast/internal/model"
)

// ForecastOut is the REST and websocket shape of a forecast.
type ForecastOut struct {
	Symbol     string     `json:"symbol"`
	Range      string     `json:"range"`
	Resolution string     `json:"resolution"`
	Bars       int        `json:"bars"`
	Learner    string     `json:"learner"`
	Points     []PointOut `json:"points"`
}

// PointOut is one forecast price, rounded to cents.
type PointOut struct {
	Time      string  `json:"time"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"change_pct"`
}

// QuoteOut is the response for /api/quote.
type QuoteOut struct {
	Symbol        string  `json:"symbol"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Current       float64 `json:"current"`
	PrevClose     float64 `json:"prev_close"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Time          string  `json:"time"`
}

// ModelOut describes the loaded model artifact.
type ModelOut struct {
	Learner    string               `json:"learner"`
	Kind       string               `json:"kind"`
	Schema     []string             `json:"schema"`
	Horizon    int                  `json:"horizon"`
	Policy     string               `json:"policy"`
	Folds      int                  `json:"folds"`
	Rows       int                  `json:"rows"`
	TrainedAt  string               `json:"trained_at"`
	Scores     artifact.Scores      `json:"scores"`
	Candidates []artifact.Candidate `json:"candidates"`
}

// SeriesOut is one indicator overlay.
type SeriesOut struct {
	Name   string     `json:"name"`
	Points []ValueOut `json:"points"`
}

// ValueOut is one defined indicator value.
type ValueOut struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// IndicatorsOut is the response for /api/indicators.
type IndicatorsOut struct {
	Symbol     string      `json:"symbol"`
	Range      string      `json:"range"`
	Resolution string      `json:"resolution"`
	Series     []SeriesOut `json:"series"`
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

func cents(v float64) float64 { return round(v, 2) }

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func toForecastOut(fc *forecast.Forecast, learner string) *ForecastOut {
	out := &ForecastOut{
		Symbol:     fc.Symbol,
		Range:      string(fc.Range),
		Resolution: fc.Resolution.String(),
		Bars:       fc.Bars,
		Learner:    learner,
		Points:     make([]PointOut, 0, len(fc.Points)),
	}
	for _, p := range fc.Points {
		if !finite(p.Price) || !finite(p.Change) {
			continue
		}
		out.Points = append(out.Points, PointOut{
			Time:      stamp(p.Time),
			Price:     cents(p.Price),
			ChangePct: round(100*p.Change, 4),
		})
	}
	return out
}

func toQuoteOut(symbol string, q *model.Quote) *QuoteOut {
	return &QuoteOut{
		Symbol:        symbol,
		Open:          cents(q.Open),
		High:          cents(q.High),
		Low:           cents(q.Low),
		Current:       cents(q.Current),
		PrevClose:     cents(q.PrevClose),
		Change:        cents(q.Change()),
		ChangePercent: round(q.ChangePercent(), 4),
		Time:          stamp(q.Time),
	}
}

func toModelOut(a *artifact.Artifact) *ModelOut {
	return &ModelOut{
		Learner:    a.Learner,
		Kind:       a.Kind,
		Schema:     a.Schema,
		Horizon:    a.Horizon,
		Policy:     a.Policy,
		Folds:      a.Folds,
		Rows:       a.Rows,
		TrainedAt:  stamp(a.TrainedAt),
		Scores:     a.Scores,
		Candidates: a.Candidates,
	}
}
