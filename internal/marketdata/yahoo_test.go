package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{
  "meta":{"regularMarketPrice":2950.5,"fiftyTwoWeekHigh":3200,"fiftyTwoWeekLow":2200,"longName":"Reliance Industries Limited"},
  "timestamp":[1704153600,1704240000,1704326400],
  "indicators":{"quote":[{
    "open":[2600,2610,2630],
    "high":[2620,2640,2660],
    "low":[2590,2600,2620],
    "close":[2610,null,2650.5],
    "volume":[1000,2000,3000]
  }]}
}],"error":null}}`

const profileBody = `{"quoteSummary":{"result":[{"assetProfile":{
  "sector":"Energy","industry":"Oil & Gas Refining","website":"https://www.ril.com",
  "longBusinessSummary":"Reliance Industries engages in hydrocarbon exploration."
}}]}}`

type stubFundamentals struct {
	f   Fundamentals
	err error
}

func (s stubFundamentals) Fundamentals(context.Context, string) (Fundamentals, error) {
	return s.f, s.err
}

func newYahooServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		for prefix, body := range routes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestYahooHistory_SkipsMissingCloses(t *testing.T) {
	srv := newYahooServer(t, map[string]string{"/v8/finance/chart/RELIANCE.NS": chartBody})
	y := NewYahoo(srv.URL, zerolog.Nop(), WithFundamentals(stubFundamentals{}))

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	s, err := y.History(context.Background(), "reliance.ns", start, end)
	require.NoError(t, err)

	assert.Equal(t, "RELIANCE.NS", s.Ticker)
	require.Len(t, s.Bars, 2)
	assert.True(t, s.Bars[0].Close.Equal(decimal.NewFromInt(2610)))
	assert.True(t, s.Bars[1].Close.Equal(decimal.RequireFromString("2650.5")))
	assert.Equal(t, int64(3000), s.Bars[1].Volume)
}

func TestYahooHistory_UnknownTicker(t *testing.T) {
	srv := newYahooServer(t, nil)
	y := NewYahoo(srv.URL, zerolog.Nop(), WithFundamentals(stubFundamentals{}))

	_, err := y.History(context.Background(), "NOPE.NS", time.Now().AddDate(0, -1, 0), time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestYahooQuoteInfo_MergesSources(t *testing.T) {
	srv := newYahooServer(t, map[string]string{
		"/v8/finance/chart/":         chartBody,
		"/v10/finance/quoteSummary/": profileBody,
	})
	fund := stubFundamentals{f: Fundamentals{
		LongName:  "Reliance Industries Ltd",
		MarketCap: 19_000_000_000_000,
		ForwardPE: 24.5,
	}}
	y := NewYahoo(srv.URL, zerolog.Nop(), WithFundamentals(fund))

	info, err := y.QuoteInfo(context.Background(), "RELIANCE.NS")
	require.NoError(t, err)

	assert.Equal(t, "Reliance Industries Ltd", info.Name)
	assert.Equal(t, "Energy", info.Sector)
	assert.Equal(t, "Oil & Gas Refining", info.Industry)
	assert.Equal(t, "https://www.ril.com", info.Website)
	require.NotNil(t, info.MarketCap)
	assert.Equal(t, int64(19_000_000_000_000), *info.MarketCap)
	require.NotNil(t, info.FiftyTwoWeekHigh)
	assert.True(t, info.FiftyTwoWeekHigh.Equal(decimal.NewFromInt(3200)))
	require.NotNil(t, info.Price)
	assert.True(t, info.Price.Equal(decimal.RequireFromString("2950.5")))
}

func TestYahooQuoteInfo_FundamentalsFailureIsTolerated(t *testing.T) {
	srv := newYahooServer(t, map[string]string{"/v8/finance/chart/": chartBody})
	y := NewYahoo(srv.URL, zerolog.Nop(), WithFundamentals(stubFundamentals{err: errors.New("rate limited")}))

	info, err := y.QuoteInfo(context.Background(), "RELIANCE.NS")
	require.NoError(t, err)
	assert.Equal(t, "Reliance Industries Limited", info.Name)
	assert.Empty(t, info.Sector)
	assert.Nil(t, info.MarketCap)
}

func TestYahooQuoteInfo_NothingAvailable(t *testing.T) {
	srv := newYahooServer(t, nil)
	y := NewYahoo(srv.URL, zerolog.Nop(), WithFundamentals(stubFundamentals{err: errors.New("down")}))

	_, err := y.QuoteInfo(context.Background(), "NOPE.NS")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestYahooNews(t *testing.T) {
	body := `{"news":[
	  {"title":"Reliance posts record profit","publisher":"Mint","link":"https://x/1","providerPublishTime":1704153600},
	  {"title":"Jio subscriber growth"}
	]}`
	srv := newYahooServer(t, map[string]string{"/v1/finance/search": body})
	y := NewYahoo(srv.URL, zerolog.Nop(), WithFundamentals(stubFundamentals{}))

	items, err := y.News(context.Background(), "RELIANCE.NS")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Mint", items[0].Publisher)
	assert.Equal(t, "Unknown", items[1].Publisher)
	assert.Equal(t, "#", items[1].Link)
}

func TestYahooHistory_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	y := NewYahoo(srv.URL, zerolog.Nop(), WithFundamentals(stubFundamentals{}))

	_, err := y.History(context.Background(), "TCS.NS", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
