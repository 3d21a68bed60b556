package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Meter renders one-line energy meters for the terminal voice session.
type Meter struct {
	idle   lipgloss.Style
	live   lipgloss.Style
	wait   lipgloss.Style
	fail   lipgloss.Style
	track  lipgloss.Style
	status lipgloss.Style
}

// NewMeter creates a meter with the default theme.
func NewMeter() *Meter {
	return &Meter{
		idle:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681")),
		live:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff9f")),
		wait:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f2cc60")),
		fail:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ff6b6b")),
		track:  lipgloss.NewStyle().Foreground(lipgloss.Color("#30363d")),
		status: lipgloss.NewStyle().Bold(true),
	}
}

// Render draws one meter line: a colored bar proportional to energy plus the
// state label. Energy outside [0, 1] is clamped. The line is meant to be
// redrawn in place with a carriage return.
func (m *Meter) Render(energy float64, state string, width int) string {
	if width < 1 {
		width = 1
	}
	if energy < 0 {
		energy = 0
	}
	if energy > 1 {
		energy = 1
	}

	filled := int(energy * float64(width))
	if filled > width {
		filled = width
	}

	style := m.idle
	switch state {
	case "active":
		style = m.live
	case "starting":
		style = m.wait
	case "failed":
		style = m.fail
	}

	bar := style.Render(strings.Repeat("█", filled)) +
		m.track.Render(strings.Repeat("░", width-filled))
	return bar + " " + m.status.Render(state)
}
