package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/opsboard/internal/constants"
)

const (
	colorAccent = lipgloss.Color("205")
	colorTabBg  = lipgloss.Color("236")
	colorMuted  = lipgloss.Color("240")
	colorText   = lipgloss.Color("252")
	colorLate   = lipgloss.Color("196")
	colorWarn   = lipgloss.Color("214")
	colorDone   = lipgloss.Color("42")
	colorNow    = lipgloss.Color("39")
)

var (
	baseTab          = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle   = baseTab.Foreground(colorAccent).Background(colorTabBg).Bold(true)
	inactiveTabStyle = baseTab.Foreground(colorMuted)

	headerStyle  = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	cursorStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	dangerStyle  = lipgloss.NewStyle().Foreground(colorLate).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarn).Italic(true)
	okStyle      = lipgloss.NewStyle().Foreground(colorDone)
	docStyle     = lipgloss.NewStyle().Padding(1, 2)
)

func statusStyle(s constants.BlockStatus) lipgloss.Style {
	switch s {
	case constants.StatusDone:
		return okStyle
	case constants.StatusLate:
		return dangerStyle
	case constants.StatusCurrent:
		return lipgloss.NewStyle().Foreground(colorNow).Bold(true)
	default:
		return mutedStyle
	}
}
