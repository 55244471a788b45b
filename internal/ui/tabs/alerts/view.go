package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/ui/components"
	"github.com/j-veylop/stockpace/internal/ui/styles"
)

const maxAlertLines = 8

// View renders the alerts tab.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	m.updateTableData()

	sections := []string{m.renderTitle()}
	if m.confirmDismiss {
		sections = append(sections, m.renderDismissConfirm())
	}
	sections = append(sections, m.renderTable(), m.renderAlerts(), m.renderFooter())

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Restock Recommendations")

	subtitle := fmt.Sprintf("%d active", len(m.recs))
	if unread := m.state.UnreadAlerts(); unread > 0 {
		subtitle += " · " + styles.WarningTextStyle.Render(fmt.Sprintf("%d unread alerts", unread))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, styles.HelpStyle.Render(subtitle), "")
}

func (m *Model) cardWidth() int {
	return max(m.width-6, 60)
}

func (m *Model) renderTable() string {
	if len(m.recs) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Center,
			"",
			styles.SubTitleStyle.Render("Nothing to buy right now"),
			"",
			styles.HelpStyle.Render("Recommendations appear here when an item needs restocking."),
			"",
		)
		return styles.CardStyle.Width(m.cardWidth()).Render(content)
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(m.table.View())
}

func (m *Model) renderAlerts() string {
	alerts := m.state.GetAlerts()

	rows := []string{styles.CardTitleStyle.Render("Recent Alerts")}
	if len(alerts) == 0 {
		rows = append(rows, styles.HelpStyle.Render("  No stock alerts"))
		return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	for i, alert := range alerts {
		if i == maxAlertLines {
			rows = append(rows, styles.HelpStyle.Render(fmt.Sprintf("  … %d more", len(alerts)-maxAlertLines)))
			break
		}
		rows = append(rows, renderAlertLine(alert))
	}

	return styles.CardStyle.Width(m.cardWidth()).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderAlertLine(alert models.Notification) string {
	marker := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○")
	if !alert.IsRead {
		marker = styles.WarningTextStyle.Render("●")
	}

	msgStyle := styles.HelpStyle
	if alert.Type == models.NotificationUrgentStock {
		msgStyle = styles.ErrorTextStyle
	}

	return fmt.Sprintf("  %s %s  %s",
		marker,
		styles.HelpStyle.Render(formatAge(time.Since(alert.CreatedAt))),
		msgStyle.Render(alert.Message),
	)
}

// formatAge renders a short relative age such as "5m" or "3d".
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func (m *Model) renderDismissConfirm() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.WarningTextStyle.Bold(true).Render("Dismiss Recommendation?"),
		"",
		styles.ErrorTextStyle.Render(m.dismissTarget.ItemName),
		"",
		"It will not come back until the advice changes.",
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonActiveStyle.Render(" (Y)es "),
			"  ",
			styles.ButtonInactiveStyle.Render(" (N)o "),
		),
		"",
	)

	return styles.CenterHorizontal(styles.ModalContentStyle.Width(56).Render(content), m.width)
}

func (m *Model) renderFooter() string {
	var shortcuts []string

	if m.confirmDismiss {
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Y") + " confirm",
			styles.HelpKeyStyle.Render("N") + " cancel",
		}
	} else {
		shortcuts = []string{
			styles.HelpKeyStyle.Render("a") + " acknowledge",
			styles.HelpKeyStyle.Render("d") + " dismiss",
			styles.HelpKeyStyle.Render("m") + " mark read",
			styles.HelpKeyStyle.Render("r") + " refresh",
		}
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(strings.Join(shortcuts, styles.HelpSeparatorStyle.Render(" | ")))
}
