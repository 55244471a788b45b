package info

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/stockpace/internal/ui/styles"
	"github.com/j-veylop/stockpace/internal/version"
)

// View renders the info tab.
func (m *Model) View() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderConfigCard(),
		m.renderMarketCard(),
		m.renderAboutCard(),
	)

	m.viewport.SetContent(content)

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Info")
	subtitle := styles.HelpStyle.Render("Configuration, market data and build information")

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) cardWidth() int {
	return min(max(m.width-6, 50), 80)
}

func (m *Model) renderConfigCard() string {
	rows := []string{styles.CardTitleStyle.Render("Configuration"), ""}

	if m.config != nil {
		rows = append(rows,
			renderRow("Pantry File", orNone(m.config.PantryPath)),
			renderRow("Database", m.config.DatabasePath),
			renderRow("Market Overrides", orNone(m.config.MarketOverridesPath)),
			renderRow("Refresh", m.config.RefreshInterval.String()),
			renderRow("Forecast Days", strconv.Itoa(m.config.ForecastDays)),
			renderRow("API", orNone(m.config.APIAddr)),
			renderRow("Desktop Alerts", onOff(m.config.Notifications)),
		)
	} else {
		rows = append(rows, styles.HelpStyle.Render("Configuration not loaded"))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderMarketCard() string {
	rows := []string{styles.CardTitleStyle.Render("Market Data"), ""}

	if m.market == nil {
		rows = append(rows, styles.HelpStyle.Render("Market provider not available"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	stats := m.market.GetStats()

	breaker := styles.SuccessTextStyle.Render(stats.BreakerState)
	if stats.BreakerState != "closed" {
		breaker = styles.WarningTextStyle.Render(stats.BreakerState)
	}

	hitRate := "-"
	if total := stats.Hits + stats.Misses; total > 0 {
		hitRate = fmt.Sprintf("%.0f%%", float64(stats.Hits)/float64(total)*100)
	}

	rows = append(rows,
		renderRow("Cached Items", strconv.Itoa(stats.CachedItems)),
		renderRow("Cache Hits", strconv.FormatInt(stats.Hits, 10)),
		renderRow("Cache Misses", strconv.FormatInt(stats.Misses, 10)),
		renderRow("Hit Rate", hitRate),
		renderRow("Failures", strconv.FormatInt(stats.Failures, 10)),
		renderRow("Breaker", breaker),
	)

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderAboutCard() string {
	rows := []string{
		styles.CardTitleStyle.Render("About Stockpace"),
		"",
		renderRow("Version", version.GetVersion()),
		renderRow("Build Date", version.GetDate()),
		renderRow("Git Commit", version.GetCommit()),
		renderRow("Go Version", runtime.Version()),
		renderRow("Platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)),
		"",
		fmt.Sprintf("Items: %s", styles.InfoTextStyle.Render(strconv.Itoa(m.state.GetItemCount()))),
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderRow(label, value string) string {
	labelStyle := lipgloss.NewStyle().
		Width(18).
		Foreground(styles.TextMuted)

	valueStyle := lipgloss.NewStyle().
		Foreground(styles.TextPrimary)

	return labelStyle.Render(label+":") + " " + valueStyle.Render(value)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
