package report

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/stwalsh4118/wealthmap/internal/models"
	"github.com/wcharczuk/go-chart/v2"
)

// Chart canvas size in pixels
const (
	chartWidth  = 1024
	chartHeight = 512
)

// ErrNoChartData is returned when a chart has nothing to plot.
var ErrNoChartData = errors.New("no data to chart")

// Chart is one PDF page worth of plot. Render writes a PNG.
type Chart struct {
	Render func(props []models.Property, w io.Writer) error
	Name   string
	Title  string
}

// DefaultCharts is the chart set of every PDF report.
func DefaultCharts() []Chart {
	return []Chart{
		{Name: "histogram", Title: "Price distribution", Render: renderHistogram},
		{Name: "trend", Title: fmt.Sprintf("Valuation trend %d-%d", TrendFromYear, TrendToYear), Render: renderTrend},
		{Name: "top", Title: fmt.Sprintf("Top %d properties by price", TopCount), Render: renderTopPrices},
	}
}

func renderHistogram(props []models.Property, w io.Writer) error {
	bins := Histogram(prices(props))
	if len(bins) == 0 {
		return ErrNoChartData
	}

	bars := make([]chart.Value, 0, len(bins))
	var top float64
	for _, b := range bins {
		top = math.Max(top, float64(b.Count))
		bars = append(bars, chart.Value{
			Value: float64(b.Count),
			Label: fmt.Sprintf("%s-%s", shortMoney(b.Lo), shortMoney(b.Hi)),
		})
	}

	graph := chart.BarChart{
		Title:      "Price distribution",
		Width:      chartWidth,
		Height:     chartHeight,
		BarWidth:   barWidth(len(bars)),
		BarSpacing: 4,
		YAxis:      chart.YAxis{Range: valueRange(top)},
		Bars:       bars,
	}
	return graph.Render(chart.PNG, w)
}

func renderTrend(props []models.Property, w io.Writer) error {
	points := ValuationTrend(props)
	if len(points) == 0 {
		return ErrNoChartData
	}

	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	var top float64
	for _, p := range points {
		xs = append(xs, float64(p.Year))
		ys = append(ys, p.Mean)
		top = math.Max(top, p.Mean)
	}

	graph := chart.Chart{
		Title:  "Mean valuation by year",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Name:  "Year",
			Range: &chart.ContinuousRange{Min: TrendFromYear, Max: TrendToYear},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		YAxis: chart.YAxis{Name: "Mean valuation", Range: valueRange(top)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Mean valuation",
				XValues: xs,
				YValues: ys,
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

func renderTopPrices(props []models.Property, w io.Writer) error {
	top := TopByPrice(props, TopCount)
	if len(top) == 0 {
		return ErrNoChartData
	}

	bars := make([]chart.Value, 0, len(top))
	for i := range top {
		bars = append(bars, chart.Value{Value: top[i].Price, Label: truncate(top[i].Address, 24)})
	}

	graph := chart.BarChart{
		Title:    "Top properties by price",
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: barWidth(len(bars)),
		YAxis:    chart.YAxis{Range: valueRange(top[0].Price)},
		Bars:     bars,
	}
	return graph.Render(chart.PNG, w)
}

// valueRange anchors a value axis at zero so a single value, or a run of
// equal values, still spans a drawable range.
func valueRange(peak float64) *chart.ContinuousRange {
	if peak <= 0 {
		return &chart.ContinuousRange{Min: 0, Max: 1}
	}
	return &chart.ContinuousRange{Min: 0, Max: peak * 1.1}
}

// barWidth fits n bars into the canvas.
func barWidth(n int) int {
	w := (chartWidth-120)/n - 4
	if w < 4 {
		return 4
	}
	if w > 120 {
		return 120
	}
	return w
}

func shortMoney(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.0fk", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
