package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/epaper/internal/model"
	"github.com/nhle/epaper/internal/theme"
)

// Layout splits the terminal into a one-line header, the view area, and a
// one-line status bar.
type Layout struct {
	Width  int
	Height int
}

// NewLayout creates a Layout for the given terminal size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth returns the width of the view area.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height left between header and status bar.
func (l Layout) ContentHeight() int {
	return max(l.Height-2, 0)
}

// RenderHeader shows the app title on the left and the backend and
// listing status on the right.
func (l Layout) RenderHeader(title, status string) string {
	left := theme.HeaderStyle.Render(title)
	right := theme.HeaderStyle.Render(status)
	return row(theme.HeaderStyle, l.Width, left, right)
}

// RenderStatusBar shows the key hints, or the live notification in its
// place.
func (l Layout) RenderStatusBar(hints string, note *model.Notification) string {
	if note != nil {
		return row(theme.StatusBarStyle, l.Width, theme.NotificationStyle(note.Level).Render(note.Message), "")
	}
	return row(theme.StatusBarStyle, l.Width, theme.StatusBarStyle.Render(hints), "")
}

// RenderWithFrame stacks header, content and status bar.
func (l Layout) RenderWithFrame(header, content, statusBar string) string {
	return lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
}

// row pads the gap between left and right with base's background so the
// bar spans width.
func row(base lipgloss.Style, width int, left, right string) string {
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	filler := lipgloss.NewStyle().
		Width(gap).
		Background(base.GetBackground()).
		Render("")
	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}
