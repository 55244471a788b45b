// Package styles defines the visual styling for the application.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/stockpace/internal/models"
)

// Color definitions for the stockpace theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("36")  // Teal
	Secondary = lipgloss.Color("178") // Amber
	Subtle    = lipgloss.Color("240") // Gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Caution = lipgloss.Color("208") // Orange
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgDark   = lipgloss.Color("235")
	BgLight  = lipgloss.Color("237")
	BgAccent = lipgloss.Color("236")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// SubTitleStyle is used for section headings.
var SubTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Secondary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

var (
	FocusedStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	BlurredStyle = lipgloss.NewStyle().
			Foreground(TextMuted)

	FocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Primary).
				Padding(0, 1)

	BlurredBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Subtle).
				Padding(0, 1)
)

// ProgressLabelStyle styles progress bar labels.
var ProgressLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(20)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpKeyStyle styles keyboard shortcut keys.
var HelpKeyStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// HelpSeparatorStyle styles separators in help text.
var HelpSeparatorStyle = lipgloss.NewStyle().
	Foreground(Subtle)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// ModalContentStyle styles modal content.
var ModalContentStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 2).
	Background(BgDark)

// ButtonStyle is the base button style.
var ButtonStyle = lipgloss.NewStyle().
	Padding(0, 2).
	MarginRight(1)

// ButtonActiveStyle styles active/focused buttons.
var ButtonActiveStyle = ButtonStyle.
	Background(Primary).
	Foreground(lipgloss.Color("229")).
	Bold(true)

var ButtonInactiveStyle = ButtonStyle.
	Background(BgLight).
	Foreground(TextSecondary)

// Urgency badges, one per level.
var (
	UrgencyLowStyle = lipgloss.NewStyle().
			Foreground(Success)

	UrgencyMediumStyle = lipgloss.NewStyle().
				Foreground(Warning)

	UrgencyHighStyle = lipgloss.NewStyle().
				Foreground(Caution).
				Bold(true)

	UrgencyCriticalStyle = lipgloss.NewStyle().
				Foreground(Error).
				Bold(true).
				Italic(true)
)

// StockHighStyle, StockMediumStyle and StockLowStyle color stock percentages.
var (
	StockHighStyle   = lipgloss.NewStyle().Foreground(Success)
	StockMediumStyle = lipgloss.NewStyle().Foreground(Warning)
	StockLowStyle    = lipgloss.NewStyle().Foreground(Error)
)

// GetUrgencyStyle returns the badge style for an urgency level.
func GetUrgencyStyle(u models.Urgency) lipgloss.Style {
	switch u {
	case models.UrgencyCritical:
		return UrgencyCriticalStyle
	case models.UrgencyHigh:
		return UrgencyHighStyle
	case models.UrgencyMedium:
		return UrgencyMediumStyle
	default:
		return UrgencyLowStyle
	}
}

// UrgencyIcon returns a one-cell marker for an urgency level.
func UrgencyIcon(u models.Urgency) string {
	switch u {
	case models.UrgencyCritical:
		return "✖"
	case models.UrgencyHigh:
		return "▲"
	case models.UrgencyMedium:
		return "◆"
	default:
		return "●"
	}
}

// GetStockStyle returns the style for a stock level percentage.
func GetStockStyle(percent float64) lipgloss.Style {
	switch {
	case percent > 50:
		return StockHighStyle
	case percent > 20:
		return StockMediumStyle
	default:
		return StockLowStyle
	}
}

// CenterHorizontal centers content horizontally within a given width.
func CenterHorizontal(content string, width int) string {
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(content)
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
