package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Meet7773/ChronoStox/internal/model"
)

// Chain asks each provider in turn and returns the first non-empty answer.
// When every provider comes back empty or failing, the last error (if any)
// is returned with an empty result.
type Chain struct {
	providers []Provider
	log       zerolog.Logger
}

// NewChain creates a fallback chain; order is priority.
func NewChain(log zerolog.Logger, providers ...Provider) *Chain {
	return &Chain{
		providers: providers,
		log:       log.With().Str("component", "provider-chain").Logger(),
	}
}

func (c *Chain) History(ctx context.Context, sym string, start, end time.Time) (model.Series, error) {
	var errs []error
	for i, p := range c.providers {
		s, err := p.History(ctx, sym, start, end)
		if err == nil && !s.Empty() {
			return s, nil
		}
		if err != nil {
			c.log.Debug().Err(err).Int("provider", i).Str("ticker", sym).Msg("history fallback")
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return model.Series{Ticker: sym}, c.failure(errs)
}

func (c *Chain) QuoteInfo(ctx context.Context, sym string) (model.QuoteInfo, error) {
	var errs []error
	for i, p := range c.providers {
		info, err := p.QuoteInfo(ctx, sym)
		if err == nil && !info.Empty() {
			return info, nil
		}
		if err != nil {
			c.log.Debug().Err(err).Int("provider", i).Str("ticker", sym).Msg("info fallback")
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return model.QuoteInfo{Ticker: sym}, c.failure(errs)
}

func (c *Chain) News(ctx context.Context, sym string) ([]model.NewsItem, error) {
	var errs []error
	for i, p := range c.providers {
		items, err := p.News(ctx, sym)
		if err == nil && len(items) > 0 {
			return items, nil
		}
		if err != nil {
			c.log.Debug().Err(err).Int("provider", i).Str("ticker", sym).Msg("news fallback")
			errs = append(errs, err)
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, c.failure(errs)
}

// failure reports the last real error. ErrNotFound answers count as empty.
func (c *Chain) failure(errs []error) error {
	for i := len(errs) - 1; i >= 0; i-- {
		if !errors.Is(errs[i], ErrNotFound) {
			return errs[i]
		}
	}
	return nil
}
