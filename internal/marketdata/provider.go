// Package marketdata defines the market-data provider interface and its
// implementations: Yahoo Finance (network), PostgreSQL (history mirror),
// in-memory (fixtures), plus decorators for fallback chains, per-call
// timeouts and read-through caching (in-memory or Redis).
package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/Meet7773/ChronoStox/internal/model"
)

// ErrNotFound is returned when a provider has nothing for the request.
var ErrNotFound = errors.New("marketdata: not found")

// Provider is the market-data interface consumed by the simulator, the
// overview and the dashboard. Every call is cancellable through ctx and an
// empty result is a valid answer meaning "no data".
type Provider interface {
	// History returns daily bars for ticker in [start, end], oldest first.
	History(ctx context.Context, ticker string, start, end time.Time) (model.Series, error)

	// QuoteInfo returns descriptive company fields.
	QuoteInfo(ctx context.Context, ticker string) (model.QuoteInfo, error)

	// News returns recent articles about ticker.
	News(ctx context.Context, ticker string) ([]model.NewsItem, error)
}

// LiveHistoryDays is the lookback window of the live surface.
const LiveHistoryDays = 730

// Call kinds used for cache keys, TTLs and metrics.
const (
	CallHistory = "history"
	CallInfo    = "info"
	CallNews    = "news"
)

// dateKey renders a date for cache keys and query parameters.
func dateKey(t time.Time) string { return t.UTC().Format("2006-01-02") }
