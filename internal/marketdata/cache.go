package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"

	"github.com/Meet7773/ChronoStox/internal/metrics"
	"github.com/Meet7773/ChronoStox/internal/model"
	"github.com/Meet7773/ChronoStox/internal/ticker"
)

// Cache is a byte-oriented TTL store. Implementations must be safe for
// concurrent use. A failed Get is a miss; a failed Set is dropped.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

// TTLPolicy sets how long each kind of response stays fresh.
type TTLPolicy struct {
	History     time.Duration // ranges that ended before today
	LiveHistory time.Duration // ranges reaching today
	Info        time.Duration
	News        time.Duration
}

// DefaultTTLs mirrors the dashboard refresh cadence.
func DefaultTTLs() TTLPolicy {
	return TTLPolicy{
		History:     time.Hour,
		LiveHistory: 10 * time.Minute,
		Info:        time.Hour,
		News:        5 * time.Minute,
	}
}

// --- In-memory backend ---

type memEntry struct {
	val     []byte
	expires time.Time
}

// MemoryCache is a process-local Cache with lazy expiry.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memEntry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.val, true
}

func (c *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memEntry{val: val, expires: c.now().Add(ttl)}
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// --- Read-through provider ---

// CachedProvider wraps a Provider with a read-through Cache keyed by call
// kind, ticker and date range. Empty and failed results are not cached.
// Concurrent misses for the same key share one upstream call.
type CachedProvider struct {
	next  Provider
	cache Cache
	ttl   TTLPolicy
	group singleflight.Group
	now   func() time.Time
	log   zerolog.Logger
}

// NewCachedProvider creates a cached wrapper around next.
func NewCachedProvider(next Provider, cache Cache, ttl TTLPolicy, log zerolog.Logger) *CachedProvider {
	return &CachedProvider{
		next:  next,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
		log:   log.With().Str("component", "provider-cache").Logger(),
	}
}

func (p *CachedProvider) History(ctx context.Context, sym string, start, end time.Time) (model.Series, error) {
	sym = ticker.Normalize(sym)
	key := historyKey(sym, start, end)

	if data, ok := p.cache.Get(ctx, key); ok {
		var dto seriesDTO
		if err := msgpack.Unmarshal(data, &dto); err == nil {
			metrics.CacheRequests.WithLabelValues(CallHistory, "hit").Inc()
			return dto.series(), nil
		}
	}
	metrics.CacheRequests.WithLabelValues(CallHistory, "miss").Inc()

	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		s, err := p.next.History(ctx, sym, start, end)
		if err != nil || s.Empty() {
			return s, err
		}
		p.store(ctx, key, newSeriesDTO(s), p.historyTTL(end))
		return s, nil
	})
	if err != nil {
		return model.Series{}, err
	}
	return v.(model.Series), nil
}

func (p *CachedProvider) QuoteInfo(ctx context.Context, sym string) (model.QuoteInfo, error) {
	sym = ticker.Normalize(sym)
	key := infoKey(sym)

	if data, ok := p.cache.Get(ctx, key); ok {
		var dto infoDTO
		if err := msgpack.Unmarshal(data, &dto); err == nil {
			metrics.CacheRequests.WithLabelValues(CallInfo, "hit").Inc()
			return dto.info(), nil
		}
	}
	metrics.CacheRequests.WithLabelValues(CallInfo, "miss").Inc()

	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		info, err := p.next.QuoteInfo(ctx, sym)
		if err != nil || info.Empty() {
			return info, err
		}
		p.store(ctx, key, newInfoDTO(info), p.ttl.Info)
		return info, nil
	})
	if err != nil {
		return model.QuoteInfo{}, err
	}
	return v.(model.QuoteInfo), nil
}

func (p *CachedProvider) News(ctx context.Context, sym string) ([]model.NewsItem, error) {
	sym = ticker.Normalize(sym)
	key := newsKey(sym)

	if data, ok := p.cache.Get(ctx, key); ok {
		var items []model.NewsItem
		if err := msgpack.Unmarshal(data, &items); err == nil {
			metrics.CacheRequests.WithLabelValues(CallNews, "hit").Inc()
			return items, nil
		}
	}
	metrics.CacheRequests.WithLabelValues(CallNews, "miss").Inc()

	v, err, _ := p.group.Do(key, func() (interface{}, error) {
		items, err := p.next.News(ctx, sym)
		if err != nil || len(items) == 0 {
			return items, err
		}
		p.store(ctx, key, items, p.ttl.News)
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	items, _ := v.([]model.NewsItem)
	return append([]model.NewsItem(nil), items...), nil
}

func (p *CachedProvider) store(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	data, err := msgpack.Marshal(v)
	if err != nil {
		p.log.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	p.cache.Set(ctx, key, data, ttl)
}

// historyTTL treats ranges ending today or later as live.
func (p *CachedProvider) historyTTL(end time.Time) time.Duration {
	if !end.Before(p.now().Truncate(24 * time.Hour)) {
		return p.ttl.LiveHistory
	}
	return p.ttl.History
}

// --- Cache keys ---

func historyKey(sym string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s:%s", CallHistory, sym, dateKey(start), dateKey(end))
}
func infoKey(sym string) string { return fmt.Sprintf("%s:%s", CallInfo, sym) }
func newsKey(sym string) string { return fmt.Sprintf("%s:%s", CallNews, sym) }

// --- Wire forms; decimals travel as strings ---

type barDTO struct {
	T int64  `msgpack:"t"`
	O string `msgpack:"o"`
	H string `msgpack:"h"`
	L string `msgpack:"l"`
	C string `msgpack:"c"`
	V int64  `msgpack:"v"`
}

type seriesDTO struct {
	Ticker string   `msgpack:"ticker"`
	Bars   []barDTO `msgpack:"bars"`
}

func newSeriesDTO(s model.Series) seriesDTO {
	dto := seriesDTO{Ticker: s.Ticker, Bars: make([]barDTO, len(s.Bars))}
	for i, b := range s.Bars {
		dto.Bars[i] = barDTO{
			T: b.Time.Unix(),
			O: b.Open.String(), H: b.High.String(), L: b.Low.String(), C: b.Close.String(),
			V: b.Volume,
		}
	}
	return dto
}

func (dto seriesDTO) series() model.Series {
	s := model.Series{Ticker: dto.Ticker, Bars: make([]model.Bar, len(dto.Bars))}
	for i, b := range dto.Bars {
		s.Bars[i] = model.Bar{
			Time:   time.Unix(b.T, 0).UTC(),
			Open:   decimalOrZero(b.O),
			High:   decimalOrZero(b.H),
			Low:    decimalOrZero(b.L),
			Close:  decimalOrZero(b.C),
			Volume: b.V,
		}
	}
	return s
}

type infoDTO struct {
	Ticker    string `msgpack:"ticker"`
	Name      string `msgpack:"name"`
	Sector    string `msgpack:"sector"`
	Industry  string `msgpack:"industry"`
	MarketCap *int64 `msgpack:"market_cap"`
	High52    string `msgpack:"high52"`
	Low52     string `msgpack:"low52"`
	ForwardPE string `msgpack:"forward_pe"`
	Summary   string `msgpack:"summary"`
	Website   string `msgpack:"website"`
	Price     string `msgpack:"price"`
}

func newInfoDTO(q model.QuoteInfo) infoDTO {
	return infoDTO{
		Ticker: q.Ticker, Name: q.Name, Sector: q.Sector, Industry: q.Industry,
		MarketCap: q.MarketCap,
		High52:    decimalString(q.FiftyTwoWeekHigh),
		Low52:     decimalString(q.FiftyTwoWeekLow),
		ForwardPE: decimalString(q.ForwardPE),
		Summary:   q.Summary, Website: q.Website,
		Price: decimalString(q.Price),
	}
}

func (dto infoDTO) info() model.QuoteInfo {
	return model.QuoteInfo{
		Ticker: dto.Ticker, Name: dto.Name, Sector: dto.Sector, Industry: dto.Industry,
		MarketCap:        dto.MarketCap,
		FiftyTwoWeekHigh: decimalPtr(dto.High52),
		FiftyTwoWeekLow:  decimalPtr(dto.Low52),
		ForwardPE:        decimalPtr(dto.ForwardPE),
		Summary:          dto.Summary, Website: dto.Website,
		Price: decimalPtr(dto.Price),
	}
}

func decimalString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func decimalPtr(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func decimalOrZero(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}
