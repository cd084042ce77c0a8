package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFC857")).
			PaddingLeft(1)

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	commissionerStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#45B7D1"))

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("34"))

	transcriptBorder = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))
)

// speakerColors cycles through team colors in speaking order.
var speakerColors = []string{"#FF6B6B", "#4ECDC4", "#96E6A1", "#FF8E53", "#C39BD3"}
