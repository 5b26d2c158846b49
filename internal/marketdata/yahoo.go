package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	yfticker "github.com/wnjoon/go-yfinance/pkg/ticker"
	"golang.org/x/sync/errgroup"

	"github.com/Meet7773/ChronoStox/internal/model"
	"github.com/Meet7773/ChronoStox/internal/ticker"
)

// DefaultYahooBaseURL is the public Yahoo Finance API host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

const (
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	maxBodyBytes = 8 << 20
	newsCount    = 20
)

// Fundamentals are the company fields read through go-yfinance.
type Fundamentals struct {
	LongName     string
	ShortName    string
	Industry     string
	MarketCap    int64
	ForwardPE    float64
	CurrentPrice float64
}

// FundamentalsSource looks up company fundamentals for one symbol.
type FundamentalsSource interface {
	Fundamentals(ctx context.Context, symbol string) (Fundamentals, error)
}

// Yahoo implements Provider against the Yahoo Finance HTTP API.
// History and news are fetched directly and walked with gjson; company
// fundamentals come from go-yfinance, the asset profile and 52-week range
// from quoteSummary and chart metadata.
type Yahoo struct {
	baseURL      string
	client       *http.Client
	fundamentals FundamentalsSource
	log          zerolog.Logger
}

// YahooOption customizes a Yahoo provider.
type YahooOption func(*Yahoo)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(y *Yahoo) { y.client = c }
}

// WithFundamentals replaces the fundamentals source.
func WithFundamentals(src FundamentalsSource) YahooOption {
	return func(y *Yahoo) { y.fundamentals = src }
}

// NewYahoo creates a Yahoo provider rooted at baseURL.
func NewYahoo(baseURL string, log zerolog.Logger, opts ...YahooOption) *Yahoo {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	y := &Yahoo{
		baseURL:      baseURL,
		client:       &http.Client{Timeout: 30 * time.Second},
		fundamentals: YFinance{},
		log:          log.With().Str("client", "yahoo").Logger(),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// History fetches daily bars in [start, end]. Rows without a close are
// skipped.
func (y *Yahoo) History(ctx context.Context, sym string, start, end time.Time) (model.Series, error) {
	sym = ticker.Normalize(sym)
	q := url.Values{}
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.Add(24*time.Hour).Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")

	body, err := y.get(ctx, "/v8/finance/chart/"+url.PathEscape(sym), q)
	if err != nil {
		return model.Series{Ticker: sym}, fmt.Errorf("history %s: %w", sym, err)
	}

	bars, err := parseChart(body)
	if err != nil {
		return model.Series{Ticker: sym}, fmt.Errorf("history %s: %w", sym, err)
	}

	// Drop anything Yahoo returned past the requested end.
	filtered := bars[:0]
	for _, b := range bars {
		if b.Time.Before(start) || b.Time.After(end.Add(24*time.Hour)) {
			continue
		}
		filtered = append(filtered, b)
	}
	return model.Series{Ticker: sym, Bars: filtered}, nil
}

// QuoteInfo merges fundamentals, the asset profile and chart metadata.
// Each source is optional; the call fails only when all come back empty.
func (y *Yahoo) QuoteInfo(ctx context.Context, sym string) (model.QuoteInfo, error) {
	sym = ticker.Normalize(sym)

	var (
		fund    Fundamentals
		profile gjson.Result
		meta    gjson.Result
	)

	var eg errgroup.Group
	eg.Go(func() error {
		f, err := y.fundamentals.Fundamentals(ctx, sym)
		if err != nil {
			y.log.Debug().Err(err).Str("ticker", sym).Msg("fundamentals unavailable")
			return nil
		}
		fund = f
		return nil
	})
	eg.Go(func() error {
		q := url.Values{"modules": {"assetProfile"}}
		body, err := y.get(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(sym), q)
		if err != nil {
			y.log.Debug().Err(err).Str("ticker", sym).Msg("asset profile unavailable")
			return nil
		}
		profile = gjson.GetBytes(body, "quoteSummary.result.0.assetProfile")
		return nil
	})
	eg.Go(func() error {
		q := url.Values{"range": {"5d"}, "interval": {"1d"}}
		body, err := y.get(ctx, "/v8/finance/chart/"+url.PathEscape(sym), q)
		if err != nil {
			y.log.Debug().Err(err).Str("ticker", sym).Msg("chart meta unavailable")
			return nil
		}
		meta = gjson.GetBytes(body, "chart.result.0.meta")
		return nil
	})
	_ = eg.Wait()

	info := model.QuoteInfo{
		Ticker:           sym,
		Name:             firstNonEmpty(fund.LongName, meta.Get("longName").String(), fund.ShortName, meta.Get("shortName").String()),
		Sector:           profile.Get("sector").String(),
		Industry:         firstNonEmpty(fund.Industry, profile.Get("industry").String()),
		Summary:          profile.Get("longBusinessSummary").String(),
		Website:          profile.Get("website").String(),
		FiftyTwoWeekHigh: positiveDecimal(meta.Get("fiftyTwoWeekHigh")),
		FiftyTwoWeekLow:  positiveDecimal(meta.Get("fiftyTwoWeekLow")),
	}
	if fund.MarketCap > 0 {
		mc := fund.MarketCap
		info.MarketCap = &mc
	}
	if fund.ForwardPE != 0 {
		pe := decimal.NewFromFloat(fund.ForwardPE)
		info.ForwardPE = &pe
	}
	if fund.CurrentPrice > 0 {
		p := decimal.NewFromFloat(fund.CurrentPrice)
		info.Price = &p
	} else {
		info.Price = positiveDecimal(meta.Get("regularMarketPrice"))
	}

	if info.Empty() {
		return info, fmt.Errorf("%w: info for %s", ErrNotFound, sym)
	}
	return info, nil
}

// News fetches recent articles through the search endpoint.
func (y *Yahoo) News(ctx context.Context, sym string) ([]model.NewsItem, error) {
	sym = ticker.Normalize(sym)
	q := url.Values{}
	q.Set("q", sym)
	q.Set("quotesCount", "0")
	q.Set("newsCount", strconv.Itoa(newsCount))

	body, err := y.get(ctx, "/v1/finance/search", q)
	if err != nil {
		return nil, fmt.Errorf("news %s: %w", sym, err)
	}
	return ParseNews(body), nil
}

func (y *Yahoo) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	reqURL := y.baseURL + path
	if len(q) > 0 {
		reqURL += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}
	return body, nil
}

// parseChart reads bars out of a v8 chart response.
func parseChart(body []byte) ([]model.Bar, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid chart payload")
	}
	if desc := gjson.GetBytes(body, "chart.error.description"); desc.Exists() && desc.String() != "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, desc.String())
	}
	res := gjson.GetBytes(body, "chart.result.0")
	if !res.Exists() {
		return nil, nil
	}

	stamps := res.Get("timestamp").Array()
	quote := res.Get("indicators.quote.0")
	opens := quote.Get("open").Array()
	highs := quote.Get("high").Array()
	lows := quote.Get("low").Array()
	closes := quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	bars := make([]model.Bar, 0, len(stamps))
	for i, ts := range stamps {
		c := at(closes, i)
		if c.Type != gjson.Number || c.Float() <= 0 {
			continue
		}
		close := decimal.NewFromFloat(c.Float())
		bars = append(bars, model.Bar{
			Time:   time.Unix(ts.Int(), 0).UTC(),
			Open:   orDefault(at(opens, i), close),
			High:   orDefault(at(highs, i), close),
			Low:    orDefault(at(lows, i), close),
			Close:  close,
			Volume: at(volumes, i).Int(),
		})
	}
	return bars, nil
}

func at(arr []gjson.Result, i int) gjson.Result {
	if i < len(arr) {
		return arr[i]
	}
	return gjson.Result{}
}

func orDefault(r gjson.Result, def decimal.Decimal) decimal.Decimal {
	if r.Type != gjson.Number || r.Float() <= 0 {
		return def
	}
	return decimal.NewFromFloat(r.Float())
}

func positiveDecimal(r gjson.Result) *decimal.Decimal {
	if r.Type != gjson.Number || r.Float() <= 0 {
		return nil
	}
	d := decimal.NewFromFloat(r.Float())
	return &d
}

// YFinance reads fundamentals through go-yfinance.
type YFinance struct{}

// Fundamentals runs the blocking go-yfinance lookup and abandons it when
// ctx ends first.
func (YFinance) Fundamentals(ctx context.Context, symbol string) (Fundamentals, error) {
	type result struct {
		f   Fundamentals
		err error
	}
	ch := make(chan result, 1)

	go func() {
		t, err := yfticker.New(symbol)
		if err != nil {
			ch <- result{err: fmt.Errorf("create ticker: %w", err)}
			return
		}
		defer t.Close()

		info, err := t.Info()
		if err != nil {
			ch <- result{err: fmt.Errorf("fetch info: %w", err)}
			return
		}
		ch <- result{f: Fundamentals{
			LongName:     info.LongName,
			ShortName:    info.ShortName,
			Industry:     info.Industry,
			MarketCap:    info.MarketCap,
			ForwardPE:    info.ForwardPE,
			CurrentPrice: info.CurrentPrice,
		}}
	}()

	select {
	case <-ctx.Done():
		return Fundamentals{}, ctx.Err()
	case r := <-ch:
		return r.f, r.err
	}
}
