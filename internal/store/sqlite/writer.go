package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"stockforecast/internal/model"

	"github.com/golang-migrate/migrate/v4"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// WriterConfig configures the SQLite writer.
type WriterConfig struct {
	DBPath string // path to SQLite database file, e.g. "data/mltrainingdata.db"
}

// Writer persists downloaded history into the training database.
// It holds a single connection so writes are serialized.
type Writer struct {
	db *sql.DB
}

var _ model.PriceWriter = (*Writer)(nil)

// DB returns the underlying sql.DB for health checks.
func (w *Writer) DB() *sql.DB { return w.db }

// New opens (or creates) the training database in WAL mode and migrates it
// to the latest schema.
func New(cfg WriterConfig) (*Writer, error) {
	db, err := open(cfg.DBPath, 1)
	if err != nil {
		return nil, err
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	log.Printf("[sqlite] opened database at %s", cfg.DBPath)
	return &Writer{db: db}, nil
}

func open(path string, conns int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(conns)
	db.SetMaxIdleConns(conns)
	return db, nil
}

// migrateUp applies the embedded schema migrations.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := msqlite.WithInstance(db, &msqlite.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return err
	}
	// m.Close would close db as well, so it is left to the caller.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// SaveTicker adds a ticker to the training universe.
func (w *Writer) SaveTicker(ctx context.Context, ticker string) error {
	if _, err := w.db.ExecContext(ctx, `INSERT OR IGNORE INTO stock_info (ticker) VALUES (?)`, ticker); err != nil {
		return fmt.Errorf("sqlite insert ticker %s: %w", ticker, err)
	}
	return nil
}

// SavePrices upserts bars for a ticker in a single transaction.
// Existing rows with the same (date, ticker) are replaced.
func (w *Writer) SavePrices(ctx context.Context, ticker string, prices []model.PricePoint) error {
	if len(prices) == 0 {
		return nil
	}
	start := time.Now()

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO stock_prices (date, ticker, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("sqlite prepare: %w", err)
	}
	defer stmt.Close()

	for _, p := range prices {
		if _, err := stmt.ExecContext(ctx, p.Time.Unix(), ticker, p.Open, p.High, p.Low, p.Close, p.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("sqlite insert %s @ %s: %w", ticker, p.Time.Format(time.DateOnly), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	log.Printf("[sqlite] committed %d bars for %s in %v", len(prices), ticker, time.Since(start))
	return nil
}

// LastDate returns the most recent stored bar time for a ticker.
// ok is false when the ticker has no bars.
func (w *Writer) LastDate(ctx context.Context, ticker string) (last time.Time, ok bool, err error) {
	var ts sql.NullInt64
	err = w.db.QueryRowContext(ctx,
		`SELECT MAX(date) FROM stock_prices WHERE ticker = ?`, ticker,
	).Scan(&ts)
	if err != nil {
		return time.Time{}, false, err
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}
	return time.Unix(ts.Int64, 0).UTC(), true, nil
}

// Close closes the database.
func (w *Writer) Close() error {
	return w.db.Close()
}
