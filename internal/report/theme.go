// Package report renders run summaries and per-student statistics for the
// terminal.
package report

import (
	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#8B5CF6") // Vivid Purple
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F97316") // Orange
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	Border    = lipgloss.Color("#334155") // Slate
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	labelStyle = lipgloss.NewStyle().
			Foreground(TextDim).
			Width(12)

	valueStyle = lipgloss.NewStyle().
			Foreground(Text)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Foreground(Text).
			Padding(0, 1)
)

// statusStyle colors a learner status.
func statusStyle(status string) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true)
	switch status {
	case "completed":
		return s.Foreground(Success)
	case "failed":
		return s.Foreground(Error)
	default:
		return s.Foreground(Accent)
	}
}
