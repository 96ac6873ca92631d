package theme

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/nhle/epaper/internal/model"
)

// Theme names accepted by Apply.
const (
	NameDefault = "default"
	NameMono    = "mono"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue   = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen  = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed    = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorGray   = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite  = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

var current = NameDefault

// Apply selects the named theme. Unknown names fall back to the default.
// The mono theme strips all color from rendered output.
func Apply(name string) {
	switch name {
	case NameMono:
		current = NameMono
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		current = NameDefault
	}
}

// Current returns the active theme name.
func Current() string {
	return current
}

// FormTheme returns the huh theme matching the active theme.
func FormTheme() *huh.Theme {
	if current == NameMono {
		return huh.ThemeBase()
	}
	return huh.ThemeCharm()
}

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// PanelStyle wraps a pane of the browser.
var PanelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// FocusedPanelStyle wraps the pane holding keyboard focus.
var FocusedPanelStyle = PanelStyle.
	BorderForeground(ColorBlue)

// DetailPanelStyle wraps the preview and help content areas.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorTextStyle renders error messages inside content panes.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(ColorRed)

// DimmedStyle renders secondary text such as thumbnail references.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// StateStyle returns a color-coded style for a preview or listing state
// label ("loading", "ready", "errored").
func StateStyle(state string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch state {
	case "loading":
		return base.Foreground(ColorYellow)
	case "ready":
		return base.Foreground(ColorGreen)
	case "errored":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// NotificationStyle returns the status bar style for a notification level.
func NotificationStyle(level model.NotificationLevel) lipgloss.Style {
	base := StatusBarStyle.Bold(true)

	switch level {
	case model.LevelSuccess:
		return base.Foreground(ColorGreen)
	case model.LevelError:
		return base.Foreground(ColorRed)
	default:
		return base
	}
}
