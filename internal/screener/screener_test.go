package screener

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func tickers(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Ticker
	}
	return out
}

func sampleUniverse(t *testing.T) *Universe {
	t.Helper()
	u, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	return u
}

func TestScreenTextMatchesTickerOrName(t *testing.T) {
	u := sampleUniverse(t)

	res, err := Screen(u, Query{Text: "  reliance "})
	require.NoError(t, err)
	assert.Equal(t, []string{"RELIANCE.NS"}, tickers(res.Rows))

	res, err = Screen(u, Query{Text: "consultancy"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS.NS"}, tickers(res.Rows))
}

func TestScreenCategoriesAndRange(t *testing.T) {
	u := sampleUniverse(t)

	res, err := Screen(u, Query{Categories: []string{"IT"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS.NS", "INFY.NS", "WIPRO.NS"}, tickers(res.Rows))

	// Rows without a market cap never satisfy a range.
	res, err = Screen(u, Query{Categories: []string{"IT"}, Min: ptr(0), Max: ptr(2_000_000)})
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS.NS", "WIPRO.NS"}, tickers(res.Rows))

	res, err = Screen(u, Query{Min: ptr(1_200_000), Max: ptr(1_500_000)})
	require.NoError(t, err)
	assert.Equal(t, []string{"TCS.NS", "HDFCBANK.NS"}, tickers(res.Rows), "bounds are inclusive")
}

func TestScreenSortNullsLast(t *testing.T) {
	u := sampleUniverse(t)

	res, err := Screen(u, Query{SortBy: ColMarketCap})
	require.NoError(t, err)
	assert.Equal(t, []string{"RELIANCE.NS", "TCS.NS", "HDFCBANK.NS", "WIPRO.NS", "INFY.NS"}, tickers(res.Rows))

	res, err = Screen(u, Query{SortBy: ColMarketCap, Asc: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"WIPRO.NS", "HDFCBANK.NS", "TCS.NS", "RELIANCE.NS", "INFY.NS"}, tickers(res.Rows))

	res, err = Screen(u, Query{SortBy: "Price", Asc: true})
	require.NoError(t, err)
	assert.Equal(t, "TCS.NS", res.Rows[len(res.Rows)-1].Ticker)
}

func TestScreenSortIsStable(t *testing.T) {
	u := NewUniverse([]Row{
		{Ticker: "A", Metrics: map[string]float64{"PE": 10}},
		{Ticker: "B", Metrics: map[string]float64{"PE": 10}},
		{Ticker: "C"},
		{Ticker: "D", Metrics: map[string]float64{"PE": 10}},
		{Ticker: "E"},
	}, "PE")

	res, err := Screen(u, Query{SortBy: "PE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "D", "C", "E"}, tickers(res.Rows))
}

func TestScreenPagination(t *testing.T) {
	rows := make([]Row, 23)
	for i := range rows {
		rows[i] = Row{Ticker: string(rune('A' + i))}
	}
	u := NewUniverse(rows)

	res, err := Screen(u, Query{PerPage: 10, Page: 3})
	require.NoError(t, err)
	assert.Equal(t, 23, res.Total)
	assert.Equal(t, 3, res.Pages)
	assert.Len(t, res.Rows, 3)

	res, err = Screen(u, Query{PerPage: 10, Page: 99})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Page, "page is clamped")

	res, err = Screen(u, Query{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, res.PerPage)
	assert.Equal(t, 1, res.Page)

	_, err = Screen(u, Query{PerPage: 7})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestScreenEmptyHasOnePage(t *testing.T) {
	res, err := Screen(NewUniverse(nil), Query{Page: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Total)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, 1, res.Page)
	assert.Empty(t, res.Rows)
}

func TestScreenUnknownSortColumn(t *testing.T) {
	_, err := Screen(sampleUniverse(t), Query{SortBy: "Exchange"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestCategories(t *testing.T) {
	u := NewUniverse([]Row{
		{Ticker: "A", Category: "Pharma"}, {Ticker: "B", Category: "Auto"},
		{Ticker: "C", Category: "IT"}, {Ticker: "D", Category: "Banking"},
		{Ticker: "E", Category: "Energy"}, {Ticker: "F", Category: "IT"},
	})
	assert.Equal(t, []string{"Auto", "Banking", "Energy", "IT", "Pharma"}, Categories(u))
	assert.Equal(t, []string{"Auto", "Banking", "Energy", "IT"}, DefaultCategories(u))
}

func TestWriteCSV(t *testing.T) {
	u := sampleUniverse(t)
	rows, err := Filter(u, Query{Categories: []string{"IT"}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows, true))
	assert.Equal(t,
		"Ticker,Name,Category Name,Market Cap\n"+
			"TCS.NS,Tata Consultancy Services,IT,1500000\n"+
			"INFY.NS,Infosys,IT,\n"+
			"WIPRO.NS,Wipro,IT,250000\n",
		buf.String())

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, rows[:1], false))
	assert.Equal(t, "Ticker,Name,Category Name\nTCS.NS,Tata Consultancy Services,IT\n", buf.String())
}
