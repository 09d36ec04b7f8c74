package tui

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	TextPrimary lipgloss.AdaptiveColor
	TextMuted   lipgloss.AdaptiveColor
	Accent      lipgloss.AdaptiveColor
	Border      lipgloss.AdaptiveColor
	BorderHi    lipgloss.AdaptiveColor

	TopBar      lipgloss.Style
	TopBarTitle lipgloss.Style
	TopBarMeta  lipgloss.Style

	Pane        lipgloss.Style
	PaneFocused lipgloss.Style
	PaneTitle   lipgloss.Style
	Footer      lipgloss.Style
	InputBox    lipgloss.Style
	InputBoxF   lipgloss.Style

	SidebarItem    lipgloss.Style
	SidebarNow     lipgloss.Style
	SidebarFolder  lipgloss.Style
	SidebarSnippet lipgloss.Style

	RoleYou lipgloss.Style
	RoleAI  lipgloss.Style
	RoleSys lipgloss.Style
	RoleErr lipgloss.Style
}

func NewTheme() Theme {
	t := Theme{
		TextPrimary: lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#E8E8E8"},
		TextMuted:   lipgloss.AdaptiveColor{Light: "#6B6B6B", Dark: "#9A9A9A"},
		Accent:      lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#8B7FFF"},
		Border:      lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#3A3A3A"},
		BorderHi:    lipgloss.AdaptiveColor{Light: "#5A4FCF", Dark: "#8B7FFF"},
	}

	t.TopBar = lipgloss.NewStyle().Padding(0, 1)
	t.TopBarTitle = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.TopBarMeta = lipgloss.NewStyle().Foreground(t.TextMuted)

	t.Pane = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border)
	t.PaneFocused = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.BorderHi)
	t.PaneTitle = lipgloss.NewStyle().Bold(true).Foreground(t.TextMuted).Padding(0, 1)
	t.Footer = lipgloss.NewStyle().Foreground(t.TextMuted).Padding(0, 1)
	t.InputBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Border).Padding(0, 1)
	t.InputBoxF = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.BorderHi).Padding(0, 1)

	t.SidebarItem = lipgloss.NewStyle().Foreground(t.TextPrimary)
	t.SidebarNow = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.SidebarFolder = lipgloss.NewStyle().Bold(true).Foreground(t.TextMuted)
	t.SidebarSnippet = lipgloss.NewStyle().Foreground(t.TextMuted)

	t.RoleYou = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#00695C", Dark: "#4DB6AC"})
	t.RoleAI = lipgloss.NewStyle().Bold(true).Foreground(t.Accent)
	t.RoleSys = lipgloss.NewStyle().Bold(true).Foreground(t.TextMuted)
	t.RoleErr = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#B71C1C", Dark: "#EF5350"})

	return t
}
