// Package visual renders an indicative candle frame to a self-contained HTML
// chart: the kline with every derived column overlaid as a line, plus a
// volume pane. Output is plain HTML; viewing it needs nothing but a browser.
package visual

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"ctos/internal/market"
)

const (
	colorBull      = "#34d399"
	colorBear      = "#f87171"
	colorText      = "#1f2933"
	chartWidthPx   = 1400
	klineHeightPx  = 560
	volumeHeightPx = 220
)

var overlayColors = []string{"#3b82f6", "#fbbf24", "#f472b6", "#22d3ee", "#a78bfa", "#fb7185"}

// Render writes the chart page for one enriched frame.
func Render(w io.Writer, symbol, interval string, f *market.Indicative) error {
	s := f.Series()
	if s.Len() == 0 {
		return fmt.Errorf("visual: no candles for %s %s", symbol, interval)
	}
	xAxis := buildXAxis(s)

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", klineHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      fmt.Sprintf("%s %s", strings.ToUpper(symbol), interval),
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorText, FontSize: 18},
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)
	kline.SetSeriesOptions(
		charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        colorBull,
			Color0:       colorBear,
			BorderColor:  colorBull,
			BorderColor0: colorBear,
		}),
	)
	kline.SetXAxis(xAxis)
	kline.AddSeries("Price", buildKlineSeries(s))

	if overlay := buildOverlay(xAxis, f); overlay != nil {
		kline.Overlap(overlay)
	}

	page := components.NewPage()
	page.AddCharts(kline, buildVolumeChart(xAxis, s))
	return page.Render(w)
}

func buildXAxis(s market.Series) []string {
	x := make([]string, s.Len())
	for i := 0; i < s.Len(); i++ {
		x[i] = s.At(i).CloseTime.UTC().Format("01-02 15:04")
	}
	return x
}

func buildKlineSeries(s market.Series) []opts.KlineData {
	data := make([]opts.KlineData, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		c := s.At(i)
		data = append(data, opts.KlineData{Value: [4]float64{c.Open, c.Close, c.Low, c.High}})
	}
	return data
}

// buildOverlay draws every derived column as a line on the price pane.
// Warm-up NaNs become gaps.
func buildOverlay(xAxis []string, f *market.Indicative) *charts.Line {
	names := f.DerivedNames()
	if len(names) == 0 {
		return nil
	}
	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithXAxisOpts(opts.XAxis{Type: "category"}))
	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
	line.SetXAxis(xAxis)
	for i, name := range names {
		vals, err := f.Column(name)
		if err != nil {
			continue
		}
		data := make([]opts.LineData, len(vals))
		for j, v := range vals {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				data[j] = opts.LineData{Value: nil}
				continue
			}
			data[j] = opts.LineData{Value: v}
		}
		color := overlayColors[i%len(overlayColors)]
		line.AddSeries(name, data, charts.WithLineStyleOpts(opts.LineStyle{Color: color, Width: 2}))
	}
	return line
}

func buildVolumeChart(xAxis []string, s market.Series) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  fmt.Sprintf("%dpx", chartWidthPx),
			Height: fmt.Sprintf("%dpx", volumeHeightPx),
		}),
		charts.WithTitleOpts(opts.Title{Title: "Volume", Left: "left", TitleStyle: &opts.TextStyle{Color: colorText}}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
	)
	vols := make([]opts.BarData, s.Len())
	for i := 0; i < s.Len(); i++ {
		vols[i] = opts.BarData{Value: s.At(i).Volume}
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("Volume", vols)
	return bar
}

// Filename suggests a stable chart file name for one stream snapshot.
func Filename(symbol, interval string, at time.Time) string {
	return fmt.Sprintf("%s_%s_%s.html", strings.ToLower(strings.ReplaceAll(symbol, "/", "")), interval, at.UTC().Format("20060102T150405"))
}
