// Package ledger owns a paper-trading account: cash, holdings, the
// append-only trade log and the last known price per ticker.
//
// Every mutation goes through Account.Execute, which validates and applies
// a fill under one mutex so cash and quantities never go negative.
// All monetary values use shopspring/decimal, never float64.
package ledger

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Meet7773/ChronoStox/internal/model"
	"github.com/Meet7773/ChronoStox/internal/ticker"
)

// DefaultInitialCash is the starting balance of a fresh account.
var DefaultInitialCash = decimal.NewFromInt(100000)

// Account is one session's portfolio. The zero value is not usable; build
// it with NewAccount.
type Account struct {
	mu        sync.Mutex
	cash      decimal.Decimal
	holdings  map[string]model.Position
	trades    []model.Trade
	lastPrice map[string]decimal.Decimal
	log       zerolog.Logger
	newID     func() string
}

// NewAccount creates an account holding only cash.
func NewAccount(initialCash decimal.Decimal, log zerolog.Logger) *Account {
	return &Account{
		cash:      initialCash,
		holdings:  make(map[string]model.Position),
		lastPrice: make(map[string]decimal.Decimal),
		log:       log.With().Str("component", "ledger").Logger(),
		newID:     func() string { return uuid.New().String() },
	}
}

// Execute validates and applies one fill. Checks run in order and the
// first failure wins: quantity, price, ticker, side, then funds for BUY
// or holdings for SELL. A rejected call leaves the account untouched.
func (a *Account) Execute(sym string, side model.Side, qty int64, price decimal.Decimal, ts time.Time, scenario string) (model.Trade, error) {
	if qty <= 0 {
		return model.Trade{}, fmt.Errorf("%w: got %d", ErrInvalidQuantity, qty)
	}
	if !price.IsPositive() {
		return model.Trade{}, fmt.Errorf("%w: got %s", ErrInvalidPrice, price)
	}
	sym = ticker.Normalize(sym)
	if sym == "" {
		return model.Trade{}, ErrInvalidTicker
	}
	if !side.Valid() {
		return model.Trade{}, fmt.Errorf("%w: got %q", ErrInvalidSide, side)
	}

	notional := price.Mul(decimal.NewFromInt(qty))

	// Serialize the read-validate-write sequence.
	a.mu.Lock()
	defer a.mu.Unlock()

	pos := a.holdings[sym]

	switch side {
	case model.Buy:
		if a.cash.LessThan(notional) {
			return model.Trade{}, fmt.Errorf("%w: need %s, have %s",
				ErrInsufficientFunds, notional.StringFixed(2), a.cash.StringFixed(2))
		}
		newQty := pos.Quantity + qty
		cost := pos.AvgPrice.Mul(decimal.NewFromInt(pos.Quantity)).Add(notional)
		pos = model.Position{
			Quantity: newQty,
			AvgPrice: cost.Div(decimal.NewFromInt(newQty)),
		}
		a.cash = a.cash.Sub(notional)

	case model.Sell:
		if qty > pos.Quantity {
			return model.Trade{}, fmt.Errorf("%w: selling %d of %s, holding %d",
				ErrInsufficientHoldings, qty, sym, pos.Quantity)
		}
		pos.Quantity -= qty
		if pos.Quantity == 0 {
			pos.AvgPrice = decimal.Zero
		}
		a.cash = a.cash.Add(notional)
	}

	if pos.Quantity == 0 {
		delete(a.holdings, sym)
	} else {
		a.holdings[sym] = pos
	}

	trade := model.Trade{
		ID:        a.newID(),
		Timestamp: ts,
		Ticker:    sym,
		Side:      side,
		Quantity:  qty,
		Price:     price,
		Value:     notional,
		Scenario:  scenario,
	}
	a.trades = append(a.trades, trade)
	a.lastPrice[sym] = price

	a.log.Info().
		Str("trade_id", trade.ID).
		Str("ticker", sym).
		Str("side", string(side)).
		Int64("qty", qty).
		Str("price", price.String()).
		Str("value", notional.String()).
		Str("scenario", scenario).
		Str("cash", a.cash.String()).
		Msg("trade executed")

	return trade, nil
}

// ObservePrice records a freshly seen quote for valuation. It never affects
// execution prices. Non-positive prices are ignored.
func (a *Account) ObservePrice(sym string, price decimal.Decimal) {
	sym = ticker.Normalize(sym)
	if sym == "" || !price.IsPositive() {
		return
	}
	a.mu.Lock()
	a.lastPrice[sym] = price
	a.mu.Unlock()
}

// LastPrice returns the last known price for a ticker.
func (a *Account) LastPrice(sym string) (decimal.Decimal, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.lastPrice[ticker.Normalize(sym)]
	return p, ok
}

// Cash returns the current cash balance.
func (a *Account) Cash() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cash
}

// Position returns the holding for a ticker; absent tickers yield the zero
// Position.
func (a *Account) Position(sym string) model.Position {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.holdings[ticker.Normalize(sym)]
}

// Trades returns a copy of the log in execution order.
func (a *Account) Trades() []model.Trade {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Trade, len(a.trades))
	copy(out, a.trades)
	return out
}

// TradeCount returns the length of the log.
func (a *Account) TradeCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.trades)
}

// ValuePosition marks a holding at its last known price, falling back to
// the average cost when no price has been seen.
func (a *Account) ValuePosition(sym string) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.valueLocked(ticker.Normalize(sym))
}

func (a *Account) valueLocked(sym string) decimal.Decimal {
	pos, ok := a.holdings[sym]
	if !ok || pos.Quantity <= 0 {
		return decimal.Zero
	}
	ref, seen := a.lastPrice[sym]
	if !seen {
		ref = pos.AvgPrice
	}
	return ref.Mul(decimal.NewFromInt(pos.Quantity))
}

// UnrealizedPnL returns (last known price − avg price) × quantity. The
// second result is false when the ticker is held but no price has ever
// been observed for it, in which case the P&L is not computable.
func (a *Account) UnrealizedPnL(sym string) (decimal.Decimal, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pnlLocked(ticker.Normalize(sym))
}

func (a *Account) pnlLocked(sym string) (decimal.Decimal, bool) {
	pos, ok := a.holdings[sym]
	if !ok || pos.Quantity <= 0 {
		return decimal.Zero, true
	}
	ref, seen := a.lastPrice[sym]
	if !seen {
		return decimal.Zero, false
	}
	return ref.Sub(pos.AvgPrice).Mul(decimal.NewFromInt(pos.Quantity)), true
}

// TotalValue is cash plus every open position at its marked value.
func (a *Account) TotalValue() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := a.cash
	for sym := range a.holdings {
		total = total.Add(a.valueLocked(sym))
	}
	return total
}

// TotalPositions is the sum of held quantities across tickers.
func (a *Account) TotalPositions() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var n int64
	for _, p := range a.holdings {
		if p.Quantity > 0 {
			n += p.Quantity
		}
	}
	return n
}

// Holding is a display row for one open position.
type Holding struct {
	Ticker        string           `json:"ticker"`
	Quantity      int64            `json:"quantity"`
	AvgPrice      decimal.Decimal  `json:"avg_price"`
	LastPrice     *decimal.Decimal `json:"last_price"`
	Value         decimal.Decimal  `json:"value"`
	UnrealizedPnL *decimal.Decimal `json:"unrealized_pnl"`
}

// Holdings lists open positions sorted by ticker.
func (a *Account) Holdings() []Holding {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Holding, 0, len(a.holdings))
	for sym, pos := range a.holdings {
		if pos.Quantity <= 0 {
			continue
		}
		h := Holding{
			Ticker:   sym,
			Quantity: pos.Quantity,
			AvgPrice: pos.AvgPrice,
			Value:    a.valueLocked(sym),
		}
		if p, ok := a.lastPrice[sym]; ok {
			p := p
			h.LastPrice = &p
		}
		if pnl, ok := a.pnlLocked(sym); ok {
			h.UnrealizedPnL = &pnl
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}
