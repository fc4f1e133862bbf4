package main

import "github.com/charmbracelet/lipgloss"

var (
	surface  = lipgloss.Color("#45475a")
	subtext  = lipgloss.Color("#a6adc8")
	lavender = lipgloss.Color("#b4befe")
	sapphire = lipgloss.Color("#74c7ec")
	green    = lipgloss.Color("#a6e3a1")
	peach    = lipgloss.Color("#fab387")

	titleStyle = lipgloss.NewStyle().Foreground(sapphire).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(subtext)
	hotStyle   = lipgloss.NewStyle().Foreground(peach).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(green)

	pageStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(surface).
			Padding(1, 2)

	gateStyle = pageStyle.BorderForeground(lavender)
)
