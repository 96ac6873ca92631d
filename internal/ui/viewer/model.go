package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/epaper/internal/keys"
	"github.com/nhle/epaper/internal/model"
	"github.com/nhle/epaper/internal/preview"
	"github.com/nhle/epaper/internal/theme"
)

// CloseMsg signals the parent to close the preview and release its
// session.
type CloseMsg struct {
	SessionID string
}

// OpenRequestMsg asks the parent to open a ready document externally.
type OpenRequestMsg struct {
	Handle *preview.Handle
}

// EmailRequestMsg asks the parent to email the previewed file.
type EmailRequestMsg struct {
	File model.FileRecord
}

// LoadedMsg carries the settled outcome of a preview session.
type LoadedMsg struct {
	Outcome preview.Outcome
}

// Model is the preview pane for one file.
type Model struct {
	file     model.FileRecord
	outcome  preview.Outcome
	viewport viewport.Model
	spinner  spinner.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new preview pane model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width-4, height-4)
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorYellow)

	return Model{
		viewport: vp,
		spinner:  sp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Start resets the pane for a new session on file.
func (m *Model) Start(sessionID string, file model.FileRecord) tea.Cmd {
	m.file = file
	m.outcome = preview.Outcome{
		SessionID: sessionID,
		State:     preview.StateLoading,
		Loading:   true,
	}
	m.viewport.SetContent("")
	m.viewport.GotoTop()
	return m.spinner.Tick
}

// SessionID returns the session currently shown.
func (m Model) SessionID() string {
	return m.outcome.SessionID
}

// Update handles messages for the preview pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		// Outcomes of sessions that were closed or replaced are dropped.
		if msg.Outcome.SessionID != m.outcome.SessionID || msg.Outcome.Closed {
			return m, nil
		}
		m.outcome = msg.Outcome
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.outcome.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			id := m.outcome.SessionID
			return m, func() tea.Msg { return CloseMsg{SessionID: id} }

		case key.Matches(msg, m.keys.Open):
			if m.outcome.State == preview.StateReady && m.outcome.Handle != nil {
				h := m.outcome.Handle
				return m, func() tea.Msg { return OpenRequestMsg{Handle: h} }
			}
			return m, nil

		case key.Matches(msg, m.keys.Email):
			f := m.file
			return m, func() tea.Msg { return EmailRequestMsg{File: f} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the preview pane.
func (m Model) View() string {
	if m.outcome.Loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(m.spinner.View() + " Loading " + m.file.Name + "...")
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(m.viewport.View())
}

// renderContent builds the viewport content for a settled outcome.
func (m Model) renderContent() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	b.WriteString(titleStyle.Render(m.file.Name))
	b.WriteString("  ")
	b.WriteString(theme.StateStyle(m.outcome.State.String()).Render(m.outcome.State.String()))
	b.WriteString("\n\n")

	switch m.outcome.State {
	case preview.StateErrored:
		b.WriteString(theme.ErrorTextStyle.Render("The document could not be displayed."))
		b.WriteString("\n\n")
		b.WriteString(m.outcome.Error)
		b.WriteString("\n")

	case preview.StateReady:
		h := m.outcome.Handle
		fmt.Fprintf(&b, "Size:     %s\n", humanize.Bytes(uint64(h.Size)))
		fmt.Fprintf(&b, "Location: %s\n", h.URL)
		if m.file.ThumbnailURL != "" {
			fmt.Fprintf(&b, "Thumb:    %s\n", theme.DimmedStyle.Render(m.file.ThumbnailURL))
		}
		b.WriteString("\n")
		b.WriteString(theme.HelpStyle.Render("o open in viewer · m email · esc close"))
		b.WriteString("\n")
	}

	return b.String()
}

// SetSize updates the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = height - 4
}
