package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/ui/components"
	"github.com/j-veylop/stockpace/internal/ui/styles"
)

const indentSpace = "    "

// View renders the dashboard component.
func (m *Model) View() string {
	if m.state.IsInitialLoading() {
		return components.RenderSpinnerCentered(m.spinner, m.width, m.height)
	}

	sections := []string{m.renderTitle()}

	switch {
	case m.adding:
		sections = append(sections, m.renderAddForm())
	case m.confirmDelete:
		sections = append(sections, m.renderDeleteConfirm(), m.renderItemList())
	default:
		sections = append(sections, m.renderItemList())
	}

	sections = append(sections, m.renderFooter())

	m.viewport.SetContent(lipgloss.JoinVertical(lipgloss.Left, sections...))

	return styles.DocStyle.
		Width(m.width).
		Height(m.height).
		Render(m.viewport.View())
}

func (m *Model) renderTitle() string {
	title := styles.TitleStyle.Render("Stockpace")
	subtitle := styles.HelpStyle.Render("Household stock forecasting")

	if stats := m.state.GetStats(); stats != nil {
		parts := []string{fmt.Sprintf("%d items", stats.TotalItems)}
		if stats.CriticalItems > 0 {
			parts = append(parts, styles.UrgencyCriticalStyle.Render(fmt.Sprintf("%d critical", stats.CriticalItems)))
		}
		if stats.HighItems > 0 {
			parts = append(parts, styles.UrgencyHighStyle.Render(fmt.Sprintf("%d high", stats.HighItems)))
		}
		if stats.SkippedItems > 0 {
			parts = append(parts, styles.WarningTextStyle.Render(fmt.Sprintf("%d skipped", stats.SkippedItems)))
		}
		if stats.MonthlySpend.IsPositive() {
			parts = append(parts, fmt.Sprintf("~%s/month", stats.MonthlySpend.StringFixed(2)))
		}
		subtitle = styles.HelpStyle.Render(strings.Join(parts, " · "))
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "")
}

func (m *Model) renderItemList() string {
	advice := m.state.GetAdvice()
	selected := m.state.GetSelectedIndex()

	cardWidth := max(m.width-6, 40)

	titleIcon := lipgloss.NewStyle().Foreground(styles.Primary).Render("◈")
	rows := []string{fmt.Sprintf("%s %s", titleIcon, styles.CardTitleStyle.Render("Pantry"))}

	if len(advice) == 0 {
		emptyIcon := lipgloss.NewStyle().Foreground(styles.Subtle).Render("○")
		rows = append(rows,
			"",
			fmt.Sprintf("  %s %s", emptyIcon, styles.HelpStyle.Render("No items tracked yet")),
			"",
			styles.InfoTextStyle.Render("  ╰─▶ Press 'n' to add an item or edit the pantry file"),
		)
		return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	}

	divider := lipgloss.NewStyle().Foreground(styles.Subtle).Render(
		"  ├" + strings.Repeat("─", max(cardWidth-8, 20)) + "┤",
	)

	rows = append(rows, "")
	for i := range advice {
		rows = append(rows, m.renderItemCard(&advice[i], i == selected, cardWidth-4))
		if i < len(advice)-1 {
			rows = append(rows, "", divider, "")
		}
	}
	rows = append(rows, "")

	return styles.CardStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderItemCard(advice *models.ItemAdvice, selected bool, width int) string {
	contentWidth := max(width-4, 20)
	rec := advice.Recommendation

	lines := []string{m.renderItemHeader(advice, selected), ""}

	item := advice.Item
	ceiling := item.StockCeiling()
	label := fmt.Sprintf("%d/%d %s", item.CurrentQuantity, ceiling, item.Unit)
	if item.CurrentQuantity <= 0 {
		lines = append(lines, indentSpace+m.stockBar.ViewOutOfStock(label, contentWidth))
	} else {
		lines = append(lines, indentSpace+m.stockBar.View(m.displayPercent(item), label, contentWidth))
	}

	lines = append(lines, indentSpace+components.RenderDaysBar(rec.EstimatedDaysRemaining, m.horizon, contentWidth-20))

	if pace := renderPace(advice); pace != "" {
		lines = append(lines, indentSpace+pace)
	}

	message := advice.DisplayMessage
	if message == "" {
		message = rec.Advice
	}
	if message != "" {
		lines = append(lines, indentSpace+styles.HelpStyle.Render(truncate(message, contentWidth)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) renderItemHeader(advice *models.ItemAdvice, selected bool) string {
	rec := advice.Recommendation

	selectionPrefix := "  "
	if selected {
		selectionPrefix = styles.FocusedStyle.Render("▸ ")
	}

	urgencyStyle := styles.GetUrgencyStyle(rec.Urgency)
	badge := urgencyStyle.Render(fmt.Sprintf("%s %s", styles.UrgencyIcon(rec.Urgency), strings.ToUpper(rec.Urgency.String())))
	action := styles.SubTitleStyle.Render(strings.ReplaceAll(rec.Action.String(), "_", " "))

	name := truncate(advice.Item.Name, 35)
	category := ""
	if advice.Item.Category != "" {
		category = " " + styles.HelpStyle.Render("["+advice.Item.Category+"]")
	}

	return fmt.Sprintf("%s%s%s  %s  %s",
		selectionPrefix,
		lipgloss.NewStyle().Bold(true).Render(name),
		category,
		badge,
		action,
	)
}

// renderPace compares the household pace with the market pace.
func renderPace(advice *models.ItemAdvice) string {
	analysis := advice.Recommendation.AdditionalInfo.ConsumptionAnalysis
	if analysis == nil {
		if advice.Pattern.AverageDailyConsumption <= 0 {
			return ""
		}
		return styles.HelpStyle.Render(fmt.Sprintf("Pace %.2f/day", advice.Pattern.AverageDailyConsumption))
	}

	style := styles.HelpStyle
	switch analysis.PaceComparison {
	case models.PaceFast:
		style = styles.WarningTextStyle
	case models.PaceSlow:
		style = styles.InfoTextStyle
	}

	text := fmt.Sprintf("Pace %.2f/day vs market %.2f/day", analysis.UserPacePerDay, analysis.MarketPacePerDay)
	if analysis.PaceComparison != "" && analysis.PaceComparison != models.PaceStandard {
		text += " (" + strings.ReplaceAll(string(analysis.PaceComparison), "_", " ") + ")"
	}
	if advice.MonthlySpend != nil && advice.MonthlySpend.IsPositive() {
		text += fmt.Sprintf(" · ~%s/month", advice.MonthlySpend.StringFixed(2))
	}
	return style.Render(text)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n || n < 4 {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (m *Model) renderAddForm() string {
	cardWidth := min(max(m.width-10, 50), 80)
	f := &m.form

	rows := []string{styles.CardTitleStyle.Render("Add Pantry Item"), ""}

	for i := range f.inputs {
		field := formField(i)
		labelStyle, borderStyle, prefix := styles.BlurredStyle, styles.BlurredBorderStyle, "  "
		if field == f.focused {
			labelStyle, borderStyle, prefix = styles.FocusedStyle, styles.FocusedBorderStyle, "> "
		}
		rows = append(rows,
			labelStyle.Render(prefix+fieldLabels[field]+":"),
			borderStyle.Width(cardWidth-10).Render(f.inputs[i].View()),
		)
	}
	rows = append(rows, "")

	submitStyle, cancelStyle := styles.ButtonInactiveStyle, styles.ButtonInactiveStyle
	switch f.focused {
	case fieldSubmit:
		submitStyle = styles.ButtonActiveStyle
	case fieldCancel:
		cancelStyle = styles.ButtonActiveStyle
	}
	rows = append(rows,
		lipgloss.JoinHorizontal(lipgloss.Center,
			submitStyle.Render(" Add Item "),
			"  ",
			cancelStyle.Render(" Cancel "),
		),
		"",
	)

	if f.err != "" {
		rows = append(rows, styles.ErrorTextStyle.Render(f.err), "")
	}

	return styles.ModalContentStyle.Width(cardWidth).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderDeleteConfirm() string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		"",
		styles.WarningTextStyle.Bold(true).Render("Remove Item?"),
		"",
		"This removes the item and its history:",
		styles.ErrorTextStyle.Render(m.deleteTarget.Name),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			styles.ButtonActiveStyle.Render(" (Y)es "),
			"  ",
			styles.ButtonInactiveStyle.Render(" (N)o "),
		),
		"",
	)

	return styles.CenterHorizontal(styles.ModalContentStyle.Width(50).Render(content), m.width)
}

func (m *Model) renderFooter() string {
	var shortcuts []string

	switch {
	case m.adding:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Tab") + " next",
			styles.HelpKeyStyle.Render("Enter") + " submit",
			styles.HelpKeyStyle.Render("Esc") + " cancel",
		}
	case m.confirmDelete:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("Y") + " confirm",
			styles.HelpKeyStyle.Render("N") + " cancel",
		}
	default:
		shortcuts = []string{
			styles.HelpKeyStyle.Render("j/k") + " select",
			styles.HelpKeyStyle.Render("u") + " use one",
			styles.HelpKeyStyle.Render("b") + " restock",
			styles.HelpKeyStyle.Render("n") + " add",
			styles.HelpKeyStyle.Render("x") + " remove",
		}
	}

	return lipgloss.NewStyle().
		MarginTop(1).
		Foreground(styles.TextMuted).
		Render(strings.Join(shortcuts, styles.HelpSeparatorStyle.Render(" | ")))
}
