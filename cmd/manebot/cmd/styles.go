package cmd

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette for terminal output
var (
	ColorPrimary = lipgloss.Color("#8B5CF6") // Violet
	ColorSuccess = lipgloss.Color("#10B981") // Emerald
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorMuted   = lipgloss.Color("#6B7280") // Gray
	ColorText    = lipgloss.Color("#F8FAFC") // Slate 50
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	EnumeratorStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginRight(1)
)

// Operator styles, keyed by search.Operator name
var operatorStyles = map[string]lipgloss.Style{
	"unspecified": lipgloss.NewStyle().Foreground(ColorText),
	"include":     lipgloss.NewStyle().Foreground(ColorSuccess),
	"exclude":     lipgloss.NewStyle().Foreground(ColorError),
	"merge":       lipgloss.NewStyle().Foreground(ColorWarning),
}

// Health status styles
var statusStyles = map[string]lipgloss.Style{
	"SERVING":     lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
	"NOT_SERVING": lipgloss.NewStyle().Foreground(ColorError).Bold(true),
}
