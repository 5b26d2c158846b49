// Package model defines the core domain types shared across the engine.
// All monetary values use shopspring/decimal, never float64.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a trade.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Valid reports whether s is BUY or SELL.
func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

// Trade is an immutable record of one fill against an Account.
// Once created, these are never modified or deleted.
type Trade struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Ticker    string          `json:"ticker"`
	Side      Side            `json:"side"`
	Quantity  int64           `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Value     decimal.Decimal `json:"value"`              // price × quantity
	Scenario  string          `json:"scenario,omitempty"` // empty for live fills
}

// Position is the held quantity of one ticker plus its average cost.
type Position struct {
	Quantity int64           `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

// Bar is one OHLCV sample.
type Bar struct {
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Series is an ordered-by-time run of bars for one ticker.
type Series struct {
	Ticker string `json:"ticker"`
	Bars   []Bar  `json:"bars"`
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Empty reports whether the series carries no bars.
func (s Series) Empty() bool { return len(s.Bars) == 0 }

// Closes returns the close prices as float64 for indicator math.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close.InexactFloat64()
	}
	return out
}

// QuoteInfo holds descriptive company fields. Any field may be missing.
type QuoteInfo struct {
	Ticker           string           `json:"ticker"`
	Name             string           `json:"name,omitempty"`
	Sector           string           `json:"sector,omitempty"`
	Industry         string           `json:"industry,omitempty"`
	MarketCap        *int64           `json:"market_cap,omitempty"`
	FiftyTwoWeekHigh *decimal.Decimal `json:"fifty_two_week_high,omitempty"`
	FiftyTwoWeekLow  *decimal.Decimal `json:"fifty_two_week_low,omitempty"`
	ForwardPE        *decimal.Decimal `json:"forward_pe,omitempty"`
	Summary          string           `json:"long_business_summary,omitempty"`
	Website          string           `json:"website,omitempty"`
	Price            *decimal.Decimal `json:"regular_market_price,omitempty"`
}

// Empty reports whether no descriptive field was populated.
func (q QuoteInfo) Empty() bool {
	return q.Name == "" && q.Sector == "" && q.Industry == "" &&
		q.MarketCap == nil && q.FiftyTwoWeekHigh == nil && q.FiftyTwoWeekLow == nil &&
		q.ForwardPE == nil && q.Summary == "" && q.Website == "" && q.Price == nil
}

// NewsItem is one article about a ticker.
type NewsItem struct {
	Title     string     `json:"title"`
	Summary   string     `json:"summary,omitempty"`
	Link      string     `json:"link"`
	Publisher string     `json:"publisher"`
	Published *time.Time `json:"published,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
}

// PublishedLabel renders the publish time, or "Unknown Date".
func (n NewsItem) PublishedLabel() string {
	if n.Published == nil {
		return "Unknown Date"
	}
	return n.Published.Format("2006-01-02 15:04")
}
