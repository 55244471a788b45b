// Package components provides reusable UI components for the TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/stockpace/internal/ui/styles"
)

// Chart series colors. The lipgloss values are used by legends and match
// the ANSI colors passed to asciigraph.
var (
	ChartPredictedColor = lipgloss.Color("4")
	ChartLowerColor     = lipgloss.Color("2")
	ChartUpperColor     = lipgloss.Color("1")
	ChartPrimaryColor   = lipgloss.Color("36")
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func clampChartSize(width, height int) (int, int) {
	return max(width, 20), max(height, 3)
}

// RenderLineChart creates a single-series ASCII line chart.
func RenderLineChart(data []float64, width, height int, caption string) string {
	if len(data) == 0 {
		return styles.HelpStyle.Render("No data available")
	}
	width, height = clampChartSize(width, height)

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
	)
}

// RenderForecastBand plots the predicted series between its lower and upper
// bounds. Shorter series are padded with their last value.
func RenderForecastBand(predicted, lower, upper []float64, width, height int, caption string) string {
	n := max(len(predicted), len(lower), len(upper))
	if n == 0 {
		return styles.HelpStyle.Render("No forecast available")
	}
	width, height = clampChartSize(width, height)

	series := [][]float64{
		padSeries(predicted, n),
		padSeries(lower, n),
		padSeries(upper, n),
	}

	return asciigraph.PlotMany(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Blue,
			asciigraph.Green,
			asciigraph.Red,
		),
	)
}

func padSeries(values []float64, n int) []float64 {
	out := make([]float64, n)
	copy(out, values)
	if len(values) > 0 && len(values) < n {
		last := values[len(values)-1]
		for i := len(values); i < n; i++ {
			out[i] = last
		}
	}
	return out
}

// RenderBarChart creates a simple horizontal bar chart.
func RenderBarChart(values []float64, labels []string, width int) string {
	if len(values) == 0 {
		return ""
	}

	maxVal := seriesMax(values)

	maxLabelLen := 0
	for _, l := range labels {
		maxLabelLen = max(maxLabelLen, len(l))
	}

	barWidth := max(width-maxLabelLen-10, 10)

	lines := make([]string, 0, len(values))
	for i, v := range values {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}

		barLen := max(int((v/maxVal)*float64(barWidth)), 0)
		bar := lipgloss.NewStyle().Foreground(ChartPrimaryColor).Render(strings.Repeat("█", barLen))

		lines = append(lines, fmt.Sprintf("%*s │%s %.2f", maxLabelLen, label, bar, v))
	}

	return strings.Join(lines, "\n")
}

// RenderWeeklyPattern renders one sparkline cell per weekday.
func RenderWeeklyPattern(patterns []float64, dayNames []string) string {
	if len(patterns) != 7 {
		padded := make([]float64, 7)
		copy(padded, patterns)
		patterns = padded
	}
	if len(dayNames) != 7 {
		dayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	}

	maxVal := seriesMax(patterns)

	parts := make([]string, 0, 7)
	for i, v := range patterns {
		parts = append(parts, fmt.Sprintf("%s %c", dayNames[i], sparkChars[sparkIndex(v, maxVal)]))
	}
	return strings.Join(parts, " ")
}

// RenderSparkline creates a compact inline sparkline chart, sampling values
// down to width cells.
func RenderSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := seriesMax(values)

	step := max(float64(len(values))/float64(width), 1)

	var result strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		result.WriteRune(sparkChars[sparkIndex(values[int(float64(i)*step)], maxVal)])
	}
	return result.String()
}

// RenderColoredSparkline is RenderSparkline with each cell colored by how
// close it is to empty. Low values render red.
func RenderColoredSparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	maxVal := seriesMax(values)
	step := max(float64(len(values))/float64(width), 1)

	var result strings.Builder
	for i := 0; i < width && int(float64(i)*step) < len(values); i++ {
		val := values[int(float64(i)*step)]
		style := styles.GetStockStyle(val / maxVal * 100)
		result.WriteString(style.Render(string(sparkChars[sparkIndex(val, maxVal)])))
	}
	return result.String()
}

func seriesMax(values []float64) float64 {
	maxVal := 0.0
	for _, v := range values {
		maxVal = max(maxVal, v)
	}
	if maxVal == 0 {
		return 1
	}
	return maxVal
}

func sparkIndex(v, maxVal float64) int {
	idx := int((v / maxVal) * float64(len(sparkChars)-1))
	return min(max(idx, 0), len(sparkChars)-1)
}

// LegendItem represents a single legend entry.
type LegendItem struct {
	Label string
	Color lipgloss.Color
}

// RenderLegend creates a chart legend.
func RenderLegend(items []LegendItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		colorBox := lipgloss.NewStyle().Foreground(item.Color).Render("■")
		parts = append(parts, fmt.Sprintf("%s %s", colorBox, item.Label))
	}
	return strings.Join(parts, "  ")
}
