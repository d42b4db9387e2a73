package client

import "github.com/charmbracelet/lipgloss"

type themeStyles struct {
	User        lipgloss.Style
	Time        lipgloss.Style
	Msg         lipgloss.Style
	Banner      lipgloss.Style
	Mention     lipgloss.Style
	TitleActive lipgloss.Style // title bar of the focused window
	TitleIdle   lipgloss.Style
	BoxActive   lipgloss.Style // frame of the focused window
	BoxIdle     lipgloss.Style
	StatusBar   lipgloss.Style
	Locked      lipgloss.Style
}

func getThemeStyles(theme string) themeStyles {
	switch theme {
	case "midnight":
		return themeStyles{
			User:        lipgloss.NewStyle().Foreground(lipgloss.Color("#7AA2F7")).Bold(true),
			Time:        lipgloss.NewStyle().Foreground(lipgloss.Color("#565F89")),
			Msg:         lipgloss.NewStyle().Foreground(lipgloss.Color("#C0CAF5")),
			Banner:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E")).Bold(true),
			Mention:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0AF68")),
			TitleActive: lipgloss.NewStyle().Background(lipgloss.Color("#7AA2F7")).Foreground(lipgloss.Color("#1A1B26")).Bold(true).Padding(0, 1),
			TitleIdle:   lipgloss.NewStyle().Background(lipgloss.Color("#414868")).Foreground(lipgloss.Color("#C0CAF5")).Padding(0, 1),
			BoxActive:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7AA2F7")),
			BoxIdle:     lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#414868")),
			StatusBar:   lipgloss.NewStyle().Background(lipgloss.Color("#1A1B26")).Foreground(lipgloss.Color("#565F89")).Padding(0, 1),
			Locked:      lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E")),
		}
	case "amber":
		return themeStyles{
			User:        lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB000")).Bold(true),
			Time:        lipgloss.NewStyle().Foreground(lipgloss.Color("#805800")),
			Msg:         lipgloss.NewStyle().Foreground(lipgloss.Color("#FFCC55")),
			Banner:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true),
			Mention:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")),
			TitleActive: lipgloss.NewStyle().Background(lipgloss.Color("#FFB000")).Foreground(lipgloss.Color("#000000")).Bold(true).Padding(0, 1),
			TitleIdle:   lipgloss.NewStyle().Background(lipgloss.Color("#553B00")).Foreground(lipgloss.Color("#FFCC55")).Padding(0, 1),
			BoxActive:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#FFB000")),
			BoxIdle:     lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#805800")),
			StatusBar:   lipgloss.NewStyle().Background(lipgloss.Color("#1A1200")).Foreground(lipgloss.Color("#805800")).Padding(0, 1),
			Locked:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
		}
	default:
		return themeStyles{
			User:        lipgloss.NewStyle().Bold(true),
			Time:        lipgloss.NewStyle().Faint(true),
			Msg:         lipgloss.NewStyle(),
			Banner:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true),
			Mention:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD700")),
			TitleActive: lipgloss.NewStyle().Reverse(true).Bold(true).Padding(0, 1),
			TitleIdle:   lipgloss.NewStyle().Faint(true).Padding(0, 1),
			BoxActive:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#AAAAAA")),
			BoxIdle:     lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("#555555")),
			StatusBar:   lipgloss.NewStyle().Faint(true).Padding(0, 1),
			Locked:      lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
		}
	}
}
