package cli

import "github.com/charmbracelet/lipgloss"

var (
	answerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
