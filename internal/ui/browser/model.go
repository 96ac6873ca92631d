package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/epaper/internal/keys"
	"github.com/nhle/epaper/internal/model"
	"github.com/nhle/epaper/internal/theme"
)

// FolderSelectedMsg is sent when the user opens a folder.
type FolderSelectedMsg struct {
	FolderID string
}

// PreviewRequestMsg is sent when the user asks to preview a file.
type PreviewRequestMsg struct {
	File model.FileRecord
}

// EmailRequestMsg is sent when the user asks to email a file.
type EmailRequestMsg struct {
	File model.FileRecord
}

// Pane identifies which list holds keyboard focus.
type Pane int

const (
	PaneFolders Pane = iota
	PaneFiles
)

// Model is the two-pane folder and file browser.
type Model struct {
	folders list.Model
	files   list.Model
	spinner spinner.Model
	keys    *keys.KeyMap
	focus   Pane

	activeFolder *string
	loading      bool
	errored      bool
	folderErr    string

	width  int
	height int
}

// New creates a new browser model.
func New(k *keys.KeyMap, width, height int) Model {
	active := new(string)
	delegate := itemDelegate{active: active}

	folders := list.New([]list.Item{}, delegate, width/3, height-2)
	folders.Title = "Folders"
	folders.SetShowHelp(false)
	folders.SetFilteringEnabled(false)
	folders.Styles.Title = theme.HeaderStyle

	files := list.New([]list.Item{}, delegate, width-width/3, height-2)
	files.Title = "Pages"
	files.SetShowHelp(false)
	files.SetShowStatusBar(true)
	files.SetFilteringEnabled(true)
	files.Styles.Title = theme.HeaderStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorYellow)

	return Model{
		folders:      folders,
		files:        files,
		spinner:      sp,
		keys:         k,
		activeFolder: active,
		width:        width,
		height:       height,
	}
}

// Init returns the spinner tick.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the browser.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.files.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.NextPane):
			m.toggleFocus()
			return m, nil

		case key.Matches(msg, m.keys.Select):
			return m, m.selectCurrent()

		case key.Matches(msg, m.keys.Email):
			if f, ok := m.SelectedFile(); ok && m.focus == PaneFiles {
				return m, func() tea.Msg { return EmailRequestMsg{File: f} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.focus == PaneFolders {
		m.folders, cmd = m.folders.Update(msg)
	} else {
		m.files, cmd = m.files.Update(msg)
	}
	return m, cmd
}

// selectCurrent emits the message for the highlighted item of the focused
// pane.
func (m *Model) selectCurrent() tea.Cmd {
	if m.focus == PaneFolders {
		it, ok := m.folders.SelectedItem().(FolderItem)
		if !ok {
			return nil
		}
		id := it.Folder.ID
		*m.activeFolder = id
		m.focus = PaneFiles
		return func() tea.Msg { return FolderSelectedMsg{FolderID: id} }
	}

	f, ok := m.SelectedFile()
	if !ok {
		return nil
	}
	return func() tea.Msg { return PreviewRequestMsg{File: f} }
}

// SelectFolder opens the folder whose ID or name matches query. Exact
// matches win over name prefixes. It reports false when nothing matches.
func (m *Model) SelectFolder(query string) (tea.Cmd, bool) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, false
	}

	match := -1
	for i, it := range m.folders.Items() {
		f := it.(FolderItem).Folder
		if f.ID == query || strings.EqualFold(f.Name, query) {
			match = i
			break
		}
		if match < 0 && strings.HasPrefix(strings.ToLower(f.Name), strings.ToLower(query)) {
			match = i
		}
	}
	if match < 0 {
		return nil, false
	}

	m.folders.Select(match)
	m.focus = PaneFolders
	return m.selectCurrent(), true
}

func (m *Model) toggleFocus() {
	if m.focus == PaneFolders {
		m.focus = PaneFiles
	} else {
		m.focus = PaneFolders
	}
}

// Focus returns the focused pane.
func (m Model) Focus() Pane {
	return m.focus
}

// Filtering reports whether the file pane is capturing keys for its filter.
func (m Model) Filtering() bool {
	return m.files.FilterState() == list.Filtering
}

// SetFolders replaces the folder pane and marks selected as the folder
// backing the file pane.
func (m *Model) SetFolders(folders []model.Folder, selected string) tea.Cmd {
	items := make([]list.Item, len(folders))
	for i, f := range folders {
		items[i] = FolderItem{Folder: f}
		if f.ID == selected {
			m.folders.Select(i)
		}
	}
	*m.activeFolder = selected
	m.folderErr = ""
	return m.folders.SetItems(items)
}

// SetFolderError records a folder load failure for display. The current
// folder list is left as is.
func (m *Model) SetFolderError(err error) {
	if err == nil {
		m.folderErr = ""
		return
	}
	m.folderErr = err.Error()
}

// SetLoading marks the file pane as waiting for a listing.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetFiles replaces the file pane. The error placeholder shows while
// errored is set and the file set is empty.
func (m *Model) SetFiles(files []model.FileRecord, loading, errored bool) tea.Cmd {
	items := make([]list.Item, len(files))
	for i, f := range files {
		items[i] = FileItem{File: f}
	}
	m.loading = loading
	m.errored = errored
	m.files.ResetSelected()
	return m.files.SetItems(items)
}

// SelectedFile returns the highlighted file.
func (m Model) SelectedFile() (model.FileRecord, bool) {
	it, ok := m.files.SelectedItem().(FileItem)
	if !ok {
		return model.FileRecord{}, false
	}
	return it.File, true
}

// View renders both panes side by side.
func (m Model) View() string {
	leftW, rightW := splitWidths(m.width)

	leftStyle, rightStyle := theme.PanelStyle, theme.PanelStyle
	if m.focus == PaneFolders {
		leftStyle = theme.FocusedPanelStyle
	} else {
		rightStyle = theme.FocusedPanelStyle
	}

	left := m.folders.View()
	if m.folderErr != "" && len(m.folders.Items()) == 0 {
		left = theme.ErrorTextStyle.Render("Could not load folders:\n" + m.folderErr)
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftStyle.Width(leftW-2).Height(m.height-2).Render(left),
		rightStyle.Width(rightW-2).Height(m.height-2).Render(m.renderFiles()),
	)
}

// renderFiles renders the file pane body for the current listing state.
func (m Model) renderFiles() string {
	_, rightW := splitWidths(m.width)
	placeholder := lipgloss.NewStyle().
		Width(rightW - 4).
		Height(m.height - 4).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	switch {
	case m.loading:
		return placeholder.Render(m.spinner.View() + " Loading pages...")
	case m.errored && len(m.files.Items()) == 0:
		return placeholder.Render(theme.ErrorTextStyle.Render("Failed to load pages.") +
			"\n\nPress r to retry.")
	case len(m.files.Items()) == 0:
		if *m.activeFolder == "" {
			return placeholder.Render("No folder selected.")
		}
		return placeholder.Render("This folder has no pages.")
	}

	return m.files.View()
}

// Summary returns a short description of the file pane for the header.
func (m Model) Summary() string {
	switch {
	case m.loading:
		return "loading"
	case m.errored && len(m.files.Items()) == 0:
		return "errored"
	default:
		return fmt.Sprintf("%d pages", len(m.files.Items()))
	}
}

// SetSize updates the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	leftW, rightW := splitWidths(width)
	m.folders.SetSize(leftW-2, height-2)
	m.files.SetSize(rightW-2, height-2)
}

// splitWidths gives the folder pane roughly a third of width.
func splitWidths(width int) (left, right int) {
	left = width / 3
	if left < 20 {
		left = 20
	}
	if left > width {
		left = width
	}
	return left, width - left
}
