package marketdata

import (
	"context"
	"fmt"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Meet7773/ChronoStox/internal/model"
	"github.com/Meet7773/ChronoStox/internal/ticker"
)

// PostgresProvider serves daily bars from a local price_bars mirror:
//
//	CREATE TABLE price_bars (
//	    ticker TEXT NOT NULL,
//	    ts     TIMESTAMPTZ NOT NULL,
//	    open   NUMERIC NOT NULL,
//	    high   NUMERIC NOT NULL,
//	    low    NUMERIC NOT NULL,
//	    close  NUMERIC NOT NULL,
//	    volume BIGINT NOT NULL DEFAULT 0,
//	    PRIMARY KEY (ticker, ts)
//	);
//
// It carries no company info or news; those calls return ErrNotFound so a
// Chain falls through to the next provider.
type PostgresProvider struct {
	pool *pgxpool.Pool
}

// NewPool opens a pool with NUMERIC columns decoded as decimal.Decimal.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewPostgresProvider creates a provider backed by pool.
func NewPostgresProvider(pool *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{pool: pool}
}

func (s *PostgresProvider) History(ctx context.Context, sym string, start, end time.Time) (model.Series, error) {
	sym = ticker.Normalize(sym)
	rows, err := s.pool.Query(ctx,
		`SELECT ts, open, high, low, close, volume
		 FROM price_bars
		 WHERE ticker = $1 AND ts >= $2 AND ts <= $3
		 ORDER BY ts`, sym, start, end)
	if err != nil {
		return model.Series{}, fmt.Errorf("query bars %s: %w", sym, err)
	}
	defer rows.Close()

	bars, err := scanBars(rows)
	if err != nil {
		return model.Series{}, fmt.Errorf("scan bars %s: %w", sym, err)
	}
	return model.Series{Ticker: sym, Bars: bars}, nil
}

func (s *PostgresProvider) QuoteInfo(_ context.Context, sym string) (model.QuoteInfo, error) {
	return model.QuoteInfo{}, fmt.Errorf("%w: postgres mirror has no info for %s", ErrNotFound, sym)
}

func (s *PostgresProvider) News(_ context.Context, sym string) ([]model.NewsItem, error) {
	return nil, fmt.Errorf("%w: postgres mirror has no news for %s", ErrNotFound, sym)
}

// pgxRows is the subset of pgx.Rows used by scanBars.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanBars(rows pgxRows) ([]model.Bar, error) {
	var bars []model.Bar
	for rows.Next() {
		var b model.Bar
		if err := rows.Scan(&b.Time, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}
