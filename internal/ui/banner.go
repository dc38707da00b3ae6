package ui

import "github.com/charmbracelet/lipgloss"

var bannerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#FFFFFF")).
	Background(lipgloss.Color("#B22222")). // firebrick, like the in-page toast
	Bold(true).
	Padding(0, 2).
	Align(lipgloss.Center)

// Banner renders text the way the in-page toast would show it.
func Banner(text string) string {
	return bannerStyle.Render(text)
}
