package ledger

import (
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Meet7773/ChronoStox/internal/model"
	"github.com/Meet7773/ChronoStox/internal/ticker"
)

// LegacyHolding is the older list form of a holding record.
type LegacyHolding struct {
	Ticker   string          `json:"ticker"`
	Quantity int64           `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// NormalizeLegacy converts list-form holdings into the keyed map. Duplicate
// tickers merge at their weighted average cost; blank tickers, non-positive
// quantities and negative prices are dropped.
func NormalizeLegacy(list []LegacyHolding) map[string]model.Position {
	out := make(map[string]model.Position, len(list))
	for _, h := range list {
		sym := ticker.Normalize(h.Ticker)
		if sym == "" || h.Quantity <= 0 || h.AvgPrice.IsNegative() {
			continue
		}
		cur := out[sym]
		qty := cur.Quantity + h.Quantity
		cost := cur.AvgPrice.Mul(decimal.NewFromInt(cur.Quantity)).
			Add(h.AvgPrice.Mul(decimal.NewFromInt(h.Quantity)))
		out[sym] = model.Position{
			Quantity: qty,
			AvgPrice: cost.Div(decimal.NewFromInt(qty)),
		}
	}
	return out
}

// NewAccountFromLegacy builds an account seeded with list-form holdings.
// The trade log starts empty.
func NewAccountFromLegacy(cash decimal.Decimal, list []LegacyHolding, log zerolog.Logger) *Account {
	a := NewAccount(cash, log)
	a.holdings = NormalizeLegacy(list)
	return a
}
