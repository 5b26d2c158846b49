package chart

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Meet7773/ChronoStox/internal/model"
)

func testSeries(n int) model.Series {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	s := model.Series{Ticker: "RELIANCE.NS"}
	for i := 0; i < n; i++ {
		px := decimal.NewFromInt(int64(1000 + i))
		s.Bars = append(s.Bars, model.Bar{
			Time: start.AddDate(0, 0, i),
			Open: px.Sub(decimal.NewFromInt(2)), High: px.Add(decimal.NewFromInt(5)),
			Low: px.Sub(decimal.NewFromInt(5)), Close: px,
			Volume: int64(10000 + i),
		})
	}
	return s
}

func TestRenderIncludesOverlayAndVolume(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testSeries(30), Options{Cursor: -1}))

	html := buf.String()
	assert.Contains(t, html, "RELIANCE.NS")
	assert.Contains(t, html, "SMA 20")
	assert.Contains(t, html, "Volume")
	assert.Contains(t, html, "2020-01-30")
	assert.NotContains(t, html, "Sim date")
}

func TestRenderMarksCursor(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, testSeries(10), Options{Title: "COVID-19 Crash", Cursor: 3}))

	html := buf.String()
	assert.Contains(t, html, "COVID-19 Crash")
	assert.Contains(t, html, "Sim date")
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Render(&buf, model.Series{Ticker: "X"}, Options{}), ErrEmptySeries)
	assert.Zero(t, buf.Len())
}

func TestSMALineWarmup(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	line := smaLine(closes, 20)
	require.Len(t, line, 25)
	assert.Nil(t, line[18].Value)
	assert.Equal(t, 10.5, line[19].Value)
	assert.Equal(t, 15.5, line[24].Value)

	short := smaLine(closes[:5], 20)
	for _, d := range short {
		assert.Nil(t, d.Value)
	}
}
