package model

import (
	"context"
	"time"
)

// ── Port Interfaces ──
// These interfaces decouple the forecasting core from concrete data sources
// (Finnhub, SQLite). Each implementation satisfies one or more of them.

// PriceSource is a remote market data provider.
type PriceSource interface {
	// Symbols lists every tradeable symbol the source knows.
	Symbols(ctx context.Context) ([]string, error)

	// Profile returns company details. Returns nil, nil for unknown symbols.
	Profile(ctx context.Context, symbol string) (*Profile, error)

	// Quote returns the latest quote for a symbol.
	Quote(ctx context.Context, symbol string) (*Quote, error)

	// Bars returns bars in [from, to] at the given resolution, ascending.
	// A window with no data yields an empty slice and a nil error.
	Bars(ctx context.Context, symbol string, from, to time.Time, res Resolution) ([]PricePoint, error)
}

// PriceStore reads the historical training set.
type PriceStore interface {
	// Tickers lists the symbols present in the store.
	Tickers(ctx context.Context) ([]string, error)

	// Prices returns the full daily history for a ticker, ascending.
	Prices(ctx context.Context, ticker string) ([]PricePoint, error)

	// Close releases underlying resources.
	Close() error
}

// PriceWriter persists downloaded history into the training store.
type PriceWriter interface {
	// SaveTicker registers a ticker in the universe.
	SaveTicker(ctx context.Context, ticker string) error

	// SavePrices upserts bars for a ticker in a single batch.
	SavePrices(ctx context.Context, ticker string, prices []PricePoint) error

	// Close releases underlying resources.
	Close() error
}
