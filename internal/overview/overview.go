// Package overview builds the market-indices snapshot shown on the
// dashboard's landing page.
package overview

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/Meet7773/ChronoStox/internal/marketdata"
	"github.com/Meet7773/ChronoStox/internal/model"
)

// Index is one tracked market index.
type Index struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// DefaultIndices are the Indian benchmarks shown on the overview.
var DefaultIndices = []Index{
	{Name: "NIFTY 50", Symbol: "^NSEI"},
	{Name: "SENSEX", Symbol: "^BSESN"},
	{Name: "NIFTY BANK", Symbol: "^NSEBANK"},
	{Name: "NIFTY IT", Symbol: "^CNXIT"},
}

// Quote is the overview card of one index. When Available is false only
// Name and Symbol are set.
type Quote struct {
	Name       string           `json:"name"`
	Symbol     string           `json:"symbol"`
	Available  bool             `json:"available"`
	LastClose  decimal.Decimal  `json:"last_close"`
	Change     decimal.Decimal  `json:"change"`
	ChangePct  decimal.Decimal  `json:"change_pct"`
	Volatility *decimal.Decimal `json:"volatility,omitempty"` // sample std dev of daily % returns
	Bars       []model.Bar      `json:"bars,omitempty"`
}

// Service fetches index quotes through a provider.
type Service struct {
	provider marketdata.Provider
	indices  []Index
	now      func() time.Time
	log      zerolog.Logger
}

// New creates a service for indices; none means DefaultIndices.
func New(p marketdata.Provider, log zerolog.Logger, indices ...Index) *Service {
	if len(indices) == 0 {
		indices = DefaultIndices
	}
	return &Service{
		provider: p,
		indices:  indices,
		now:      time.Now,
		log:      log.With().Str("component", "overview").Logger(),
	}
}

// Snapshot fetches one month of history for every index concurrently and
// returns the cards in index order. A failing index is reported as
// unavailable and never fails the others.
func (s *Service) Snapshot(ctx context.Context) []Quote {
	end := s.now()
	start := end.AddDate(0, -1, 0)

	out := make([]Quote, len(s.indices))
	var eg errgroup.Group
	for i, idx := range s.indices {
		i, idx := i, idx
		eg.Go(func() error {
			series, err := s.provider.History(ctx, idx.Symbol, start, end)
			if err != nil {
				s.log.Warn().Err(err).Str("index", idx.Symbol).Msg("index history unavailable")
			}
			out[i] = Summarize(idx, series)
			return nil
		})
	}
	_ = eg.Wait()
	return out
}

var hundred = decimal.NewFromInt(100)

// Summarize computes an index card from its bars. Fewer than two bars, or
// a non-positive previous close, make the index unavailable.
func Summarize(idx Index, series model.Series) Quote {
	q := Quote{Name: idx.Name, Symbol: idx.Symbol}
	n := series.Len()
	if n < 2 {
		return q
	}
	last := series.Bars[n-1].Close
	prev := series.Bars[n-2].Close
	if !prev.IsPositive() {
		return q
	}

	q.Available = true
	q.LastClose = last
	q.Change = last.Sub(prev)
	q.ChangePct = q.Change.Div(prev).Mul(hundred)
	q.Bars = series.Bars

	if rets := dailyReturns(series.Closes()); len(rets) >= 2 {
		v := decimal.NewFromFloat(stat.StdDev(rets, nil))
		q.Volatility = &v
	}
	return q
}

// dailyReturns returns close-to-close percent changes, skipping pairs with
// a non-positive base.
func dailyReturns(closes []float64) []float64 {
	out := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			continue
		}
		out = append(out, (closes[i]/closes[i-1]-1)*100)
	}
	return out
}
