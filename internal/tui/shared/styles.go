// Package shared provides styles and key bindings used across the TUI package.
package shared

import "github.com/charmbracelet/lipgloss"

// Color definitions for the TUI
var (
	ColorRed    = lipgloss.Color("#FF5555") // Errors and failed steps
	ColorAmber  = lipgloss.Color("#FFAA00") // Running steps, warnings
	ColorGreen  = lipgloss.Color("#55FF55") // Completed steps
	ColorBorder = lipgloss.Color("#444444")
	ColorDimmed = lipgloss.Color("#666666")
	ColorAccent = lipgloss.Color("#7B68EE") // medium slate blue
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF"))

	// Step status styles
	StatusPendingStyle = lipgloss.NewStyle().
				Foreground(ColorDimmed)

	StatusRunningStyle = lipgloss.NewStyle().
				Foreground(ColorAmber)

	StatusDoneStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	StatusFailedStyle = lipgloss.NewStyle().
				Foreground(ColorRed)

	CountdownStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAmber)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorAmber)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorDimmed).
			Italic(true)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorBorder)
)

// Status indicators
const (
	StatusIndicatorPending = "○"
	StatusIndicatorRunning = "◐"
	StatusIndicatorDone    = "✓"
	StatusIndicatorFailed  = "✗"
)

// RenderDivider creates a horizontal divider of the specified width
func RenderDivider(width int) string {
	return DividerStyle.Render(repeatChar('─', width))
}

// repeatChar returns a string with the character repeated n times
func repeatChar(char rune, n int) string {
	if n <= 0 {
		return ""
	}
	result := make([]rune, n)
	for i := range result {
		result[i] = char
	}
	return string(result)
}
