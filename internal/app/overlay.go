package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// overlayCentered draws overlay over the middle of base, keeping the base
// content visible on both sides.
func overlayCentered(base, overlay string, width, height int) string {
	baseLines := strings.Split(base, "\n")
	overlayLines := strings.Split(overlay, "\n")

	for len(baseLines) < height {
		baseLines = append(baseLines, "")
	}

	overlayWidth := lipgloss.Width(overlay)
	y := max((height-len(overlayLines))/2, 0)
	x := max((width-overlayWidth)/2, 0)

	for i, overlayLine := range overlayLines {
		row := y + i
		if row >= len(baseLines) {
			break
		}

		line := baseLines[row]
		left := ansi.Truncate(line, x, "")
		if w := lipgloss.Width(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		right := ansi.TruncateLeft(line, x+overlayWidth, "")

		baseLines[row] = left + overlayLine + right
	}

	return strings.Join(baseLines, "\n")
}

// overlayToasts stacks toasts in the top right corner of base.
func overlayToasts(base string, toasts []string, width int) string {
	if len(toasts) == 0 {
		return base
	}

	stack := lipgloss.JoinVertical(lipgloss.Right, toasts...)
	stackLines := strings.Split(stack, "\n")
	baseLines := strings.Split(base, "\n")

	startX := max(width-lipgloss.Width(stack)-2, 0)
	const startY = 2

	for len(baseLines) < startY+len(stackLines) {
		baseLines = append(baseLines, "")
	}

	for i, toastLine := range stackLines {
		row := startY + i

		line := baseLines[row]
		if w := lipgloss.Width(line); w < startX {
			baseLines[row] = line + strings.Repeat(" ", startX-w) + toastLine
		} else {
			baseLines[row] = ansi.Truncate(line, startX, "") + toastLine
		}
	}

	return strings.Join(baseLines, "\n")
}
