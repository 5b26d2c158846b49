// Package chart renders price series as standalone HTML pages: a
// candlestick with a moving-average overlay and a volume panel.
package chart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	talib "github.com/markcheno/go-talib"

	"github.com/Meet7773/ChronoStox/internal/model"
)

// ErrEmptySeries is returned when there is nothing to draw.
var ErrEmptySeries = errors.New("chart: empty series")

// DefaultSMAPeriod is the moving-average window of the price overlay.
const DefaultSMAPeriod = 20

const (
	colorBull = "#16a34a"
	colorBear = "#dc2626"
	colorSMA  = "#f59e0b"

	width        = "1100px"
	priceHeight  = "520px"
	volumeHeight = "200px"
	dateLayout   = "2006-01-02"
)

// Options tune a rendered chart.
type Options struct {
	Title string
	// Cursor marks one bar with a vertical line; negative means no marker.
	Cursor    int
	SMAPeriod int
}

// Render writes an HTML page charting s.
func Render(w io.Writer, s model.Series, o Options) error {
	if s.Empty() {
		return ErrEmptySeries
	}
	if o.SMAPeriod <= 0 {
		o.SMAPeriod = DefaultSMAPeriod
	}
	if o.Title == "" {
		o.Title = s.Ticker
	}

	xAxis := make([]string, s.Len())
	for i, b := range s.Bars {
		xAxis[i] = b.Time.UTC().Format(dateLayout)
	}

	kline := priceChart(s, xAxis, o)
	volume := volumeChart(s, xAxis)

	page := components.NewPage()
	page.PageTitle = o.Title
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(kline, volume)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func priceChart(s model.Series, xAxis []string, o Options) *charts.Kline {
	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  width,
			Height: priceHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Left: "left"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			SplitLine: &opts.SplitLine{Show: opts.Bool(false)},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			SplitLine: &opts.SplitLine{Show: opts.Bool(true), LineStyle: &opts.LineStyle{Opacity: opts.Float(0.2)}},
		}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
	)

	data := make([]opts.KlineData, s.Len())
	for i, b := range s.Bars {
		data[i] = opts.KlineData{Value: [4]float64{
			b.Open.InexactFloat64(), b.Close.InexactFloat64(),
			b.Low.InexactFloat64(), b.High.InexactFloat64(),
		}}
	}

	seriesOpts := []charts.SeriesOpts{
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	}
	if o.Cursor >= 0 && o.Cursor < s.Len() {
		seriesOpts = append(seriesOpts,
			charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{
				Name:  "Sim date",
				XAxis: xAxis[o.Cursor],
			}),
		)
	}

	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", data, seriesOpts...)

	sma := charts.NewLine()
	sma.SetXAxis(xAxis)
	sma.AddSeries(fmt.Sprintf("SMA %d", o.SMAPeriod), smaLine(s.Closes(), o.SMAPeriod),
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: colorSMA, Width: 2}),
	)
	kline.Overlap(sma)
	return kline
}

func volumeChart(s model.Series, xAxis []string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:  types.ThemeWesteros,
			Width:  width,
			Height: volumeHeight,
		}),
		charts.WithTitleOpts(opts.Title{Title: "Volume", Left: "left"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{AxisLabel: &opts.AxisLabel{Show: opts.Bool(false)}}),
	)

	vols := make([]opts.BarData, s.Len())
	for i, b := range s.Bars {
		color := colorBear
		if b.Close.GreaterThanOrEqual(b.Open) {
			color = colorBull
		}
		vols[i] = opts.BarData{
			Value:     b.Volume,
			ItemStyle: &opts.ItemStyle{Color: color, Opacity: opts.Float(0.5)},
		}
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("Volume", vols)
	return bar
}

// smaLine computes the simple moving average; the warm-up bars are blank.
func smaLine(closes []float64, period int) []opts.LineData {
	out := make([]opts.LineData, len(closes))
	if len(closes) < period {
		return out
	}
	sma := talib.Sma(closes, period)
	for i, v := range sma {
		if i < period-1 || math.IsNaN(v) {
			continue
		}
		out[i] = opts.LineData{Value: math.Round(v*100) / 100}
	}
	return out
}
