// Package simulator binds a fetched price series to a cursor and routes
// trades at the cursor's close into a ledger account.
//
// A Surface starts unloaded. A successful Load replaces the series and
// moves the cursor to the newest bar; a failed Load keeps whatever was
// loaded before. The live surface keeps its cursor pinned to the newest
// bar; the scenario surface can be moved anywhere inside the series.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Meet7773/ChronoStox/internal/ledger"
	"github.com/Meet7773/ChronoStox/internal/marketdata"
	"github.com/Meet7773/ChronoStox/internal/metrics"
	"github.com/Meet7773/ChronoStox/internal/model"
	"github.com/Meet7773/ChronoStox/internal/scenario"
	"github.com/Meet7773/ChronoStox/internal/ticker"
)

var (
	// ErrNoData means the provider had nothing for the requested range.
	ErrNoData = errors.New("simulator: no data available")
	// ErrNotLoaded is returned by operations that need a series.
	ErrNotLoaded = errors.New("simulator: no series loaded")
	// ErrCursorPinned is returned when moving the live surface's cursor.
	ErrCursorPinned = errors.New("simulator: live cursor is pinned to the latest bar")
)

// RecentBars is how many bars up to the cursor a snapshot carries.
const RecentBars = 200

// Kind names a trading surface.
type Kind string

const (
	Live     Kind = "live"
	Scenario Kind = "scenario"
)

// Executor is the part of a ledger account a surface trades against.
type Executor interface {
	Execute(sym string, side model.Side, qty int64, price decimal.Decimal, ts time.Time, scenario string) (model.Trade, error)
	ObservePrice(sym string, price decimal.Decimal)
	Position(sym string) model.Position
}

// Surface is one trading surface of a session.
type Surface struct {
	kind     Kind
	provider marketdata.Provider
	account  Executor
	now      func() time.Time
	log      zerolog.Logger

	mu     sync.Mutex
	series model.Series
	label  string
	cursor int
}

// New creates an unloaded surface of the given kind.
func New(kind Kind, p marketdata.Provider, account Executor, log zerolog.Logger) *Surface {
	return &Surface{
		kind:     kind,
		provider: p,
		account:  account,
		now:      time.Now,
		log:      log.With().Str("component", "simulator").Str("surface", string(kind)).Logger(),
	}
}

// Kind returns the surface kind.
func (s *Surface) Kind() Kind { return s.kind }

// Load fetches sym over [start, end] and, when bars come back, replaces
// the series, moves the cursor to the newest bar and records its close
// as the ticker's last known price. label tags fills with their scenario.
func (s *Surface) Load(ctx context.Context, sym string, start, end time.Time, label string) error {
	parsed, err := ticker.Parse(sym)
	if err != nil {
		return err
	}
	sym = parsed.Symbol

	series, err := s.provider.History(ctx, sym, start, end)
	if err != nil {
		s.log.Warn().Err(err).Str("ticker", sym).Msg("history fetch failed")
		return fmt.Errorf("%w: %s", ErrNoData, sym)
	}
	if series.Empty() {
		s.log.Info().Str("ticker", sym).Time("start", start).Time("end", end).Msg("no history for range")
		return fmt.Errorf("%w: %s", ErrNoData, sym)
	}
	series.Ticker = sym

	s.mu.Lock()
	s.series = series
	s.label = label
	s.cursor = series.Len() - 1
	price := series.Bars[s.cursor].Close
	s.mu.Unlock()

	s.account.ObservePrice(sym, price)
	s.log.Debug().Str("ticker", sym).Int("bars", series.Len()).Str("scenario", label).Msg("series loaded")
	return nil
}

// LoadLive loads the last LiveHistoryDays of sym ending now.
func (s *Surface) LoadLive(ctx context.Context, sym string) error {
	end := s.now()
	start := end.AddDate(0, 0, -marketdata.LiveHistoryDays)
	return s.Load(ctx, sym, start, end, "")
}

// LoadScenario loads sc's window for sym, or for the scenario's default
// ticker when sym is blank.
func (s *Surface) LoadScenario(ctx context.Context, sc scenario.Scenario, sym string) error {
	if ticker.Normalize(sym) == "" {
		sym = sc.DefaultTicker
	}
	return s.Load(ctx, sym, sc.Start, sc.End, sc.Name)
}

// Loaded reports whether a series is loaded.
func (s *Surface) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.series.Empty()
}

// SetCursor moves the scenario cursor, clamping i into [0, len-1], and
// returns the index actually used.
func (s *Surface) SetCursor(i int) (int, error) {
	if s.kind == Live {
		return 0, ErrCursorPinned
	}

	s.mu.Lock()
	if s.series.Empty() {
		s.mu.Unlock()
		return 0, ErrNotLoaded
	}
	if i < 0 {
		i = 0
	}
	if last := s.series.Len() - 1; i > last {
		i = last
	}
	s.cursor = i
	sym, price := s.series.Ticker, s.series.Bars[i].Close
	s.mu.Unlock()

	s.account.ObservePrice(sym, price)
	return i, nil
}

// CurrentBar returns the bar under the cursor.
func (s *Surface) CurrentBar() (model.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.series.Empty() {
		return model.Bar{}, ErrNotLoaded
	}
	return s.series.Bars[s.cursor], nil
}

// CurrentPrice returns the close of the bar under the cursor.
func (s *Surface) CurrentPrice() (decimal.Decimal, error) {
	bar, err := s.CurrentBar()
	if err != nil {
		return decimal.Zero, err
	}
	return bar.Close, nil
}

// Buy executes a BUY of qty at the current price.
func (s *Surface) Buy(qty int64) (model.Trade, error) { return s.Trade(model.Buy, qty) }

// Sell executes a SELL of qty at the current price.
func (s *Surface) Sell(qty int64) (model.Trade, error) { return s.Trade(model.Sell, qty) }

// Trade executes side for qty at the current price. Live fills are stamped
// with the wall clock, scenario fills with the cursor bar's time.
func (s *Surface) Trade(side model.Side, qty int64) (model.Trade, error) {
	s.mu.Lock()
	if s.series.Empty() {
		s.mu.Unlock()
		return model.Trade{}, ErrNotLoaded
	}
	sym := s.series.Ticker
	bar := s.series.Bars[s.cursor]
	label := s.label
	s.mu.Unlock()

	ts := bar.Time
	if s.kind == Live {
		ts = s.now()
	}

	t, err := s.account.Execute(sym, side, qty, bar.Close, ts, label)
	if err != nil {
		if kind := ledger.Kind(err); kind != "" {
			metrics.TradeRejections.WithLabelValues(kind).Inc()
			s.log.Warn().Str("kind", kind).Str("ticker", sym).Str("side", string(side)).Int64("qty", qty).Msg("trade rejected")
		}
		return model.Trade{}, err
	}
	metrics.TradesTotal.WithLabelValues(string(side), string(s.kind)).Inc()
	return t, nil
}

// Series returns the loaded series and cursor.
func (s *Surface) Series() (model.Series, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.series.Empty() {
		return model.Series{}, 0, ErrNotLoaded
	}
	return s.series, s.cursor, nil
}

// Snapshot summarizes the surface at its cursor.
type Snapshot struct {
	Surface    Kind            `json:"surface"`
	Ticker     string          `json:"ticker"`
	Scenario   string          `json:"scenario,omitempty"`
	Cursor     int             `json:"cursor"`
	Length     int             `json:"length"`
	Bar        model.Bar       `json:"bar"`
	Price      decimal.Decimal `json:"price"`
	StartPrice decimal.Decimal `json:"start_price"`
	Change     decimal.Decimal `json:"change"`
	// ChangePct is absent when the start price is not positive.
	ChangePct *decimal.Decimal `json:"change_pct,omitempty"`
	// BuyHoldReturn is the percent return of holding from the first bar.
	BuyHoldReturn *decimal.Decimal `json:"buy_hold_return,omitempty"`
	Held          int64            `json:"held"`
	Recent        []model.Bar      `json:"recent,omitempty"`
}

var hundred = decimal.NewFromInt(100)

// Snapshot returns the cursor's view of the series. Scenario snapshots
// carry up to RecentBars bars ending at the cursor.
func (s *Surface) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	if s.series.Empty() {
		s.mu.Unlock()
		return Snapshot{}, ErrNotLoaded
	}
	bars := s.series.Bars
	snap := Snapshot{
		Surface:    s.kind,
		Ticker:     s.series.Ticker,
		Scenario:   s.label,
		Cursor:     s.cursor,
		Length:     len(bars),
		Bar:        bars[s.cursor],
		Price:      bars[s.cursor].Close,
		StartPrice: bars[0].Close,
	}
	if s.kind == Scenario {
		from := s.cursor + 1 - RecentBars
		if from < 0 {
			from = 0
		}
		snap.Recent = append([]model.Bar(nil), bars[from:s.cursor+1]...)
	}
	s.mu.Unlock()

	snap.Change = snap.Price.Sub(snap.StartPrice)
	if snap.StartPrice.IsPositive() {
		pct := snap.Change.Div(snap.StartPrice).Mul(hundred)
		snap.ChangePct = &pct
		bh := snap.Price.Div(snap.StartPrice).Sub(decimal.NewFromInt(1)).Mul(hundred)
		snap.BuyHoldReturn = &bh
	}
	snap.Held = s.account.Position(snap.Ticker).Quantity
	return snap, nil
}
