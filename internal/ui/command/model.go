package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/epaper/internal/theme"
)

// Name identifies a palette command.
type Name string

const (
	Refresh Name = "refresh"
	Folder  Name = "folder"
	Preview Name = "preview"
	Mail    Name = "mail"
	Help    Name = "help"
	Quit    Name = "quit"
)

var aliases = map[string]Name{
	"refresh": Refresh,
	"r":       Refresh,
	"folder":  Folder,
	"f":       Folder,
	"cd":      Folder,
	"preview": Preview,
	"p":       Preview,
	"mail":    Mail,
	"m":       Mail,
	"email":   Mail,
	"help":    Help,
	"quit":    Quit,
	"q":       Quit,
}

// Command is a parsed palette line.
type Command struct {
	Name Name
	Arg  string
}

// Parse turns a palette line into a Command. The first word picks the
// command; the rest is its argument.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, fmt.Errorf("empty command")
	}

	word, arg, _ := strings.Cut(line, " ")
	name, ok := aliases[strings.ToLower(word)]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q", word)
	}

	c := Command{Name: name, Arg: strings.TrimSpace(arg)}
	if c.Name == Folder && c.Arg == "" {
		return Command{}, fmt.Errorf("folder needs a name or id")
	}
	return c, nil
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Command Command
}

// ErrorMsg is emitted when the entered line does not parse.
type ErrorMsg struct {
	Err error
}

// CancelMsg is emitted when the palette is dismissed.
type CancelMsg struct{}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "refresh | folder <name> | preview | mail | help | quit"
	ti.Prompt = ": "
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Open clears and focuses the input.
func (m *Model) Open() tea.Cmd {
	m.input.Reset()
	return m.input.Focus()
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "esc":
			m.input.Blur()
			return m, func() tea.Msg { return CancelMsg{} }

		case "enter":
			line := m.input.Value()
			m.input.Reset()
			m.input.Blur()
			c, err := Parse(line)
			if err != nil {
				return m, func() tea.Msg { return ErrorMsg{Err: err} }
			}
			return m, func() tea.Msg { return CommandMsg{Command: c} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command Palette")
	input := m.input.View()

	content := lipgloss.JoinVertical(lipgloss.Left, title, input)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}
