package ui

import "github.com/charmbracelet/lipgloss"

// CLI color palette. "86" is the accent used across pilotctl output.
const (
	accentColor  = lipgloss.Color("86")
	successGreen = lipgloss.Color("42")
	failureRed   = lipgloss.Color("196")

	boxWidth = 60
)

// Styles defines all lipgloss styles used in the CLI.
var Styles = struct {
	Bold        lipgloss.Style
	Banner      lipgloss.Style
	BannerTitle lipgloss.Style
	SuccessBox  lipgloss.Style
	ErrorBox    lipgloss.Style
}{
	Bold: lipgloss.NewStyle().Bold(true),

	Banner: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(1, 2).
		Align(lipgloss.Center),

	BannerTitle: lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Align(lipgloss.Center).
		Width(boxWidth).
		MarginTop(1).
		MarginBottom(1),

	SuccessBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(successGreen).
		Padding(0, 1).
		Width(boxWidth),

	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(failureRed).
		Padding(0, 1).
		Width(boxWidth),
}
