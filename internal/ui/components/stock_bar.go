package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/stockpace/internal/logger"
	"github.com/j-veylop/stockpace/internal/models"
	"github.com/j-veylop/stockpace/internal/ui/styles"
)

const (
	lowColor  = "#ff6b6b"
	highColor = "#51cf66"
)

// StockPercent is the current quantity as a percentage of the item's
// target level, or of twice its minimum when no target is set.
// The result is capped at 100.
func StockPercent(item models.Item) float64 {
	full := 2 * item.MinimumThreshold
	if item.TargetStockLevel != nil && *item.TargetStockLevel > 0 {
		full = *item.TargetStockLevel
	}
	if full <= 0 {
		if item.CurrentQuantity > 0 {
			return 100
		}
		return 0
	}
	return min(float64(item.CurrentQuantity)/float64(full)*100, 100)
}

// StockBar renders a stock level progress bar with label and percentage.
type StockBar struct {
	progress progress.Model
}

// NewStockBar creates a stock bar with a red to green gradient.
func NewStockBar(width int) StockBar {
	return StockBar{
		progress: progress.New(
			progress.WithScaledGradient(lowColor, highColor),
			progress.WithWidth(max(width, 10)),
			progress.WithoutPercentage(),
		),
	}
}

// View renders the bar with a label on the left and the percentage on
// the right.
func (s StockBar) View(percent float64, label string, width int) string {
	s.progress.Width = max(width-30, 10)
	bar := s.progress.ViewAs(percent / 100)

	percentStr := styles.GetStockStyle(percent).
		Width(6).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%.0f%%", percent))

	labelStr := styles.ProgressLabelStyle.Width(15).Render(label)

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, bar, " ", percentStr)
}

// ViewOutOfStock renders an empty bar flagged as out of stock.
func (s StockBar) ViewOutOfStock(label string, width int) string {
	labelStr := styles.ProgressLabelStyle.Width(15).Render(label)

	emptyBar := lipgloss.NewStyle().
		Foreground(styles.Error).
		Render(strings.Repeat("░", max(width-30, 10)))

	statusStr := styles.UrgencyCriticalStyle.
		Width(14).
		Align(lipgloss.Right).
		Render("OUT OF STOCK")

	return lipgloss.JoinHorizontal(lipgloss.Center, labelStr, emptyBar, " ", statusStr)
}

// RenderDaysBar renders how much of the forecast horizon the remaining stock
// covers, followed by the day count.
func RenderDaysBar(daysRemaining, horizon, width int) string {
	percent := 100.0
	if horizon > 0 {
		percent = min(max(float64(daysRemaining)/float64(horizon)*100, 0), 100)
	}

	daysStr := lipgloss.NewStyle().
		Foreground(styles.TextSecondary).
		Width(8).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%dd", daysRemaining))

	return fmt.Sprintf("[%s] %s", RenderGradientBar(percent, max(width-12, 10)), daysStr)
}

// RenderGradientBar renders just the bar part with gradient colors.
func RenderGradientBar(percent float64, width int) string {
	if width < 1 {
		return ""
	}

	filled := min(max(int(float64(width)*percent/100), 0), width)

	var b strings.Builder
	for i := range width {
		if i < filled {
			t := float64(i) / float64(max(1, width-1))
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(interpolateColor(lowColor, highColor, t)))
			b.WriteString(style.Render("█"))
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(styles.Subtle).Render("░"))
		}
	}
	return b.String()
}

func interpolateColor(fromHex, toHex string, t float64) string {
	from := hexToRGB(fromHex)
	to := hexToRGB(toHex)

	r := int(float64(from[0]) + t*(float64(to[0])-float64(from[0])))
	g := int(float64(from[1]) + t*(float64(to[1])-float64(from[1])))
	b := int(float64(from[2]) + t*(float64(to[2])-float64(from[2])))

	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

func hexToRGB(hex string) [3]int {
	hex = strings.TrimPrefix(hex, "#")
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b); err != nil {
		logger.Error("failed to parse hex color", "hex", hex, "error", err)
		return [3]int{0, 0, 0}
	}
	return [3]int{r, g, b}
}
