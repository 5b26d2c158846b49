package marketdata

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Meet7773/ChronoStox/internal/model"
	"github.com/Meet7773/ChronoStox/internal/ticker"
)

// MemoryProvider implements Provider with in-memory maps. Used for tests,
// demos and offline development.
type MemoryProvider struct {
	mu    sync.RWMutex
	bars  map[string][]model.Bar
	info  map[string]model.QuoteInfo
	news  map[string][]model.NewsItem
	calls map[string]int
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		bars:  make(map[string][]model.Bar),
		info:  make(map[string]model.QuoteInfo),
		news:  make(map[string][]model.NewsItem),
		calls: make(map[string]int),
	}
}

// SetBars replaces the bars of a ticker; they are kept sorted by time.
func (p *MemoryProvider) SetBars(sym string, bars []model.Bar) {
	cp := make([]model.Bar, len(bars))
	copy(cp, bars)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Time.Before(cp[j].Time) })

	p.mu.Lock()
	defer p.mu.Unlock()
	p.bars[ticker.Normalize(sym)] = cp
}

// SetInfo stores company info for a ticker.
func (p *MemoryProvider) SetInfo(sym string, info model.QuoteInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.info[ticker.Normalize(sym)] = info
}

// SetNews stores articles for a ticker.
func (p *MemoryProvider) SetNews(sym string, items []model.NewsItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.news[ticker.Normalize(sym)] = append([]model.NewsItem(nil), items...)
}

// Calls returns how many times a call kind was served, for cache tests.
func (p *MemoryProvider) Calls(kind string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.calls[kind]
}

func (p *MemoryProvider) History(ctx context.Context, sym string, start, end time.Time) (model.Series, error) {
	if err := ctx.Err(); err != nil {
		return model.Series{}, err
	}
	sym = ticker.Normalize(sym)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[CallHistory]++

	// Return a copy to avoid external mutation.
	var out []model.Bar
	for _, b := range p.bars[sym] {
		if b.Time.Before(start) || b.Time.After(end) {
			continue
		}
		out = append(out, b)
	}
	return model.Series{Ticker: sym, Bars: out}, nil
}

func (p *MemoryProvider) QuoteInfo(ctx context.Context, sym string) (model.QuoteInfo, error) {
	if err := ctx.Err(); err != nil {
		return model.QuoteInfo{}, err
	}
	sym = ticker.Normalize(sym)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[CallInfo]++

	info, ok := p.info[sym]
	if !ok {
		return model.QuoteInfo{}, fmt.Errorf("%w: info for %s", ErrNotFound, sym)
	}
	return info, nil
}

func (p *MemoryProvider) News(ctx context.Context, sym string) ([]model.NewsItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sym = ticker.Normalize(sym)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[CallNews]++

	return append([]model.NewsItem(nil), p.news[sym]...), nil
}
