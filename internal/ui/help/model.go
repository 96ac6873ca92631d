package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/epaper/internal/keys"
	"github.com/nhle/epaper/internal/theme"
)

// section is one titled column of the overlay.
type section struct {
	title    string
	bindings []key.Binding
}

// paletteCommands lists what the command palette accepts.
var paletteCommands = []string{
	"refresh          reload folders",
	"folder <name|id> open a folder",
	"preview          preview the page",
	"mail             email the page",
	"help / quit",
}

// Model shows the bindings of each view side by side.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates the help overlay.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, help: help.New(), width: width, height: height}
}

// Init returns nil.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update is a no-op; the root model closes the overlay.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func (m Model) sections() []section {
	k := m.keys
	return []section{
		{"Folders & pages", []key.Binding{k.Up, k.Down, k.NextPane, k.Select, k.Refresh, k.Command}},
		{"Preview", []key.Binding{k.Open, k.Email, k.Back}},
		{"General", []key.Binding{k.Help, k.Quit}},
	}
}

// View renders one column per section plus the palette commands.
func (m Model) View() string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	column := lipgloss.NewStyle().MarginRight(4)

	var cols []string
	for _, s := range m.sections() {
		body := m.help.FullHelpView([][]key.Binding{s.bindings})
		cols = append(cols, column.Render(lipgloss.JoinVertical(lipgloss.Left, heading.Render(s.title), body)))
	}
	cols = append(cols, column.Render(lipgloss.JoinVertical(lipgloss.Left,
		heading.Render("Palette (:)"),
		theme.DimmedStyle.Render(strings.Join(paletteCommands, "\n")),
	)))

	emailNote := theme.HelpStyle.Render("In the email dialog: enter moves to the next field and submits, esc cancels.")

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			heading.MarginBottom(1).Render("Keyboard Shortcuts"),
			lipgloss.JoinHorizontal(lipgloss.Top, cols...),
			"",
			emailNote,
		))
}

// SetSize updates the overlay dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
