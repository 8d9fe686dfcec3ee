package report

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
)

// Bar is a horizontal progress bar.
type Bar struct {
	Label   string
	Percent float64
	Width   int
}

// View renders the bar followed by its percentage.
func (b Bar) View() string {
	var out string
	if b.Label != "" {
		out += labelStyle.Render(b.Label)
	}

	barWidth := b.Width - lipgloss.Width(out) - 6 // "  100%"
	if barWidth < 4 {
		barWidth = 4
	}
	filled := int(float64(barWidth) * b.Percent)
	filled = max(0, min(filled, barWidth))

	out += lipgloss.NewStyle().Background(Secondary).Render(strings.Repeat(" ", filled))
	out += lipgloss.NewStyle().Background(Border).Render(strings.Repeat(" ", barWidth-filled))
	out += lipgloss.NewStyle().Foreground(TextDim).Render(fmt.Sprintf("  %d%%", int(b.Percent*100)))
	return out
}
