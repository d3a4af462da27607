package dashboard

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/smileynet/atelier/internal/notify"
)

// MinLeftWidth is the minimum character width for the left pane.
const MinLeftWidth = 28

var (
	accentColor = lipgloss.AdaptiveColor{Light: "4", Dark: "12"}
	dimColor    = lipgloss.AdaptiveColor{Light: "240", Dark: "240"}

	mutedText   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "240", Dark: "245"})
	headerText  = lipgloss.NewStyle().Bold(true)
	activeTab   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	currentPage = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
)

// Notification colors by level.
var noticeColors = map[notify.Level]lipgloss.AdaptiveColor{
	notify.LevelSuccess: {Light: "2", Dark: "10"},
	notify.LevelError:   {Light: "1", Dark: "9"},
	notify.LevelInfo:    {Light: "4", Dark: "12"},
}

// NoticeStyle returns the style for a notification of the given level.
func NoticeStyle(level notify.Level) lipgloss.Style {
	c, ok := noticeColors[level]
	if !ok {
		c = noticeColors[notify.LevelInfo]
	}
	return lipgloss.NewStyle().Foreground(c)
}

// FocusedBorder returns a lipgloss style with an accent-colored rounded border.
func FocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor)
}

// UnfocusedBorder returns a lipgloss style with a dim rounded border.
func UnfocusedBorder() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dimColor)
}

// PaneWidths calculates the left and right pane widths from a total width.
// Left pane gets 1/4 (minimum MinLeftWidth), right pane gets the rest.
func PaneWidths(totalWidth int) (left, right int) {
	if totalWidth <= 0 {
		return 0, 0
	}
	left = totalWidth / 4
	if left < MinLeftWidth {
		left = MinLeftWidth
	}
	right = totalWidth - left
	if right < 0 {
		right = 0
	}
	return left, right
}
