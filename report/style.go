package report

import "github.com/charmbracelet/lipgloss"

// Style decorates report lines for terminals.
type Style struct {
	Header lipgloss.Style
	Inline lipgloss.Style
	Hole   lipgloss.Style
}

// DefaultStyle is the palette used by the CLI when writing to a terminal.
func DefaultStyle() Style {
	return Style{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#87CEEB")),
		Inline: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98")),
		Hole: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),
	}
}
