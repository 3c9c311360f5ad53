package tui

import "github.com/charmbracelet/lipgloss"

const sidebarWidth = 32

var (
	sidebarStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	sidebarFocusedStyle = sidebarStyle.BorderForeground(lipgloss.Color("33"))

	itemStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	activeItemStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	cursorItemStyle = lipgloss.NewStyle().Background(lipgloss.Color("236"))

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))

	userLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	botLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("170"))
	timeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	inputStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).BorderForeground(lipgloss.Color("240"))

	modalStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("245")).Padding(1, 4).Align(lipgloss.Center)
	optionStyle  = lipgloss.NewStyle().Padding(0, 2)
	chosenOption = optionStyle.Bold(true).Foreground(lipgloss.Color("33")).Background(lipgloss.Color("236"))
)
