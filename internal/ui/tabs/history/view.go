package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/stockpace/internal/ui/components"
	"github.com/j-veylop/stockpace/internal/ui/styles"
)

const chartHeight = 8

// View renders the history tab.
func (m *Model) View() string {
	if m.loading {
		return m.renderLoading()
	}
	if m.errorMsg != "" {
		return m.renderError()
	}
	if m.historyData == nil || !m.historyData.HasData() {
		return m.renderEmpty()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.renderConsumptionChart(),
		m.renderForecast(),
		m.renderWeeklyPattern(),
		m.renderDaysRemaining(),
	)
	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderLoading() string {
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(styles.HelpStyle.Render("Loading history data..."))
}

func (m *Model) renderError() string {
	content := fmt.Sprintf("%s %s",
		styles.ErrorTextStyle.Render("Error:"),
		m.errorMsg,
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) renderEmpty() string {
	hint := "Select an item on the dashboard to see its history."
	if m.itemID != "" {
		hint = "No consumption recorded in this range. Press 't' to widen it."
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.TitleStyle.Render("History"),
		"",
		styles.HelpStyle.Render("No historical data available yet."),
		styles.HelpStyle.Render(hint),
	)
	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(content)
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 40)
}

func (m *Model) chartWidth() int {
	return max(m.cardWidth()-12, 30)
}

func card(title string, rows ...string) string {
	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	all := append([]string{fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render(title)), ""}, rows...)
	all = append(all, "")
	return lipgloss.JoinVertical(lipgloss.Left, all...)
}

func indent(block string) []string {
	var rows []string
	for line := range strings.SplitSeq(block, "\n") {
		rows = append(rows, "  "+line)
	}
	return rows
}

func (m *Model) renderHeader() string {
	name := m.historyData.ItemName
	if len(name) > 40 {
		name = name[:37] + "..."
	}

	title := styles.TitleStyle.Render("History: " + name)

	rangeStyle := lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.Primary)

	header := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", rangeStyle.Render("[t] "+m.timeRange.String()))

	var subtitle string
	if !m.historyData.FirstDataPoint.IsZero() {
		subtitle = styles.HelpStyle.Render(fmt.Sprintf("Data: %s → %s (%d days)",
			m.historyData.FirstDataPoint.Format("Jan 2, 2006"),
			m.historyData.LastDataPoint.Format("Jan 2, 2006"),
			m.historyData.TotalDataDays,
		))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, subtitle, "")
}

func (m *Model) renderConsumptionChart() string {
	daily := m.historyData.Daily

	var rows []string
	if len(daily) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No consumption recorded"))
	} else {
		values := make([]float64, len(daily))
		total := 0.0
		for i, d := range daily {
			values[i] = d.Quantity
			total += d.Quantity
		}

		caption := fmt.Sprintf("%d days with consumption, %.1f total", len(daily), total)
		rows = append(rows, indent(components.RenderLineChart(values, m.chartWidth(), chartHeight, caption))...)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(card("Daily Consumption", rows...))
}

func (m *Model) renderForecast() string {
	var rows []string

	if len(m.band.predicted) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No forecast available"))
	} else {
		caption := fmt.Sprintf("Cumulative use over the next %d days", len(m.band.predicted))
		rows = append(rows, indent(components.RenderForecastBand(
			m.band.predicted, m.band.lower, m.band.upper, m.chartWidth(), chartHeight, caption))...)

		rows = append(rows, "", "  "+components.RenderLegend([]components.LegendItem{
			{Label: "Predicted", Color: components.ChartPredictedColor},
			{Label: "Lower", Color: components.ChartLowerColor},
			{Label: "Upper", Color: components.ChartUpperColor},
		}))

		if f := m.historyData.Forecast; f != nil {
			rows = append(rows, fmt.Sprintf("  %s %.1f (%.1f to %.1f), trend %s, confidence %.0f%%",
				styles.HelpStyle.Render("Expected:"),
				f.PredictedTotal, f.LowerBound, f.UpperBound,
				f.TrendDirection, f.ConfidenceScore*100,
			))
		}
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(card("Forecast", rows...))
}

func (m *Model) renderWeeklyPattern() string {
	weekly := m.historyData.WeekdayPatterns

	var rows []string
	if len(weekly) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No weekly data available"))
	} else {
		values := make([]float64, 7)
		dayNames := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
		for _, w := range weekly {
			if w.DayOfWeek >= 0 && w.DayOfWeek < 7 {
				values[w.DayOfWeek] = w.AvgConsumed
			}
		}

		rows = append(rows, indent(components.RenderBarChart(values, dayNames, m.chartWidth()))...)
		rows = append(rows, "", "  "+components.RenderWeeklyPattern(values, dayNames))

		peakDay, peakVal := m.historyData.GetPeakDay()
		rows = append(rows, "", fmt.Sprintf("  Peak day: %s (avg %.2f used)",
			lipgloss.NewStyle().Bold(true).Foreground(styles.Primary).Render(peakDay),
			peakVal,
		))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(card("Weekly Pattern", rows...))
}

func (m *Model) renderDaysRemaining() string {
	series := m.historyData.DaysRemainingSeries()

	var rows []string
	if len(series) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No stock snapshots yet"))
	} else {
		last := m.historyData.Snapshots[len(m.historyData.Snapshots)-1]
		rows = append(rows,
			"  "+components.RenderColoredSparkline(series, m.chartWidth()),
			"",
			fmt.Sprintf("  %d snapshots, latest %s: %d on hand, %d days left",
				len(series), last.Day.Format("Jan 2"), last.Quantity, last.DaysRemaining),
		)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(card("Days Remaining", rows...))
}
