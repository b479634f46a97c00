package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"stockforecast/internal/model"
)

// Reader provides read access to the training database.
type Reader struct {
	db *sql.DB
}

var _ model.PriceStore = (*Reader)(nil)

// NewReader opens a SQLite connection for reading.
func NewReader(dbPath string) (*Reader, error) {
	db, err := open(dbPath, 2)
	if err != nil {
		return nil, err
	}
	log.Printf("[sqlite-reader] opened %s", dbPath)
	return &Reader{db: db}, nil
}

// Tickers lists the training universe in lexical order.
func (r *Reader) Tickers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT ticker FROM stock_info ORDER BY ticker ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query stock_info: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("sqlite scan stock_info: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// Prices returns the full history of a ticker ordered by date ascending.
// An unknown ticker yields an empty slice.
func (r *Reader) Prices(ctx context.Context, ticker string) ([]model.PricePoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, open, high, low, close, COALESCE(volume, 0)
		FROM stock_prices
		WHERE ticker = ?
		ORDER BY date ASC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("sqlite query stock_prices: %w", err)
	}
	defer rows.Close()

	prices := []model.PricePoint{}
	for rows.Next() {
		var p model.PricePoint
		var ts int64
		if err := rows.Scan(&ts, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan stock_prices: %w", err)
		}
		p.Time = time.Unix(ts, 0).UTC()
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// LoadAll reads every ticker's history. Tickers with no bars are omitted.
func (r *Reader) LoadAll(ctx context.Context) (map[string][]model.PricePoint, error) {
	tickers, err := r.Tickers(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]model.PricePoint, len(tickers))
	for _, t := range tickers {
		prices, err := r.Prices(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", t, err)
		}
		if len(prices) > 0 {
			out[t] = prices
		}
	}
	return out, nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
