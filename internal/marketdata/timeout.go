package marketdata

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Meet7773/ChronoStox/internal/metrics"
	"github.com/Meet7773/ChronoStox/internal/model"
)

// TimeoutProvider bounds every call with a deadline. A call that runs out
// of time answers with an empty result and no error, so callers see the
// same "no data" they would for an unknown ticker.
type TimeoutProvider struct {
	next    Provider
	timeout time.Duration
	log     zerolog.Logger
}

// WithTimeout wraps next so each call gets at most d.
func WithTimeout(next Provider, d time.Duration, log zerolog.Logger) *TimeoutProvider {
	return &TimeoutProvider{
		next:    next,
		timeout: d,
		log:     log.With().Str("component", "provider-timeout").Logger(),
	}
}

func (p *TimeoutProvider) History(ctx context.Context, sym string, start, end time.Time) (model.Series, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	s, err := p.next.History(ctx, sym, start, end)
	if p.timedOut(ctx, err, CallHistory, sym) {
		return model.Series{Ticker: sym}, nil
	}
	observe(CallHistory, err, s.Empty())
	return s, err
}

func (p *TimeoutProvider) QuoteInfo(ctx context.Context, sym string) (model.QuoteInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	info, err := p.next.QuoteInfo(ctx, sym)
	if p.timedOut(ctx, err, CallInfo, sym) {
		return model.QuoteInfo{Ticker: sym}, nil
	}
	observe(CallInfo, err, info.Empty())
	return info, err
}

func (p *TimeoutProvider) News(ctx context.Context, sym string) ([]model.NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	items, err := p.next.News(ctx, sym)
	if p.timedOut(ctx, err, CallNews, sym) {
		return nil, nil
	}
	observe(CallNews, err, len(items) == 0)
	return items, err
}

func (p *TimeoutProvider) timedOut(ctx context.Context, err error, call, sym string) bool {
	if err == nil {
		return false
	}
	if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return false
	}
	metrics.ProviderRequests.WithLabelValues(call, "timeout").Inc()
	p.log.Warn().Str("call", call).Str("ticker", sym).Dur("timeout", p.timeout).Msg("provider call timed out")
	return true
}

func observe(call string, err error, empty bool) {
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case empty:
		outcome = "empty"
	}
	metrics.ProviderRequests.WithLabelValues(call, outcome).Inc()
}
