package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/epaper/internal/catalog"
	"github.com/nhle/epaper/internal/keys"
	"github.com/nhle/epaper/internal/listing"
	"github.com/nhle/epaper/internal/mailer"
	"github.com/nhle/epaper/internal/model"
	"github.com/nhle/epaper/internal/preview"
	"github.com/nhle/epaper/internal/ui"
	"github.com/nhle/epaper/internal/ui/browser"
	"github.com/nhle/epaper/internal/ui/command"
	"github.com/nhle/epaper/internal/ui/emailform"
	helpview "github.com/nhle/epaper/internal/ui/help"
	"github.com/nhle/epaper/internal/ui/viewer"
)

// NotificationTTL is how long a status bar notification stays visible.
const NotificationTTL = 4 * time.Second

// foldersLoadedMsg carries the result of a folder catalog load.
type foldersLoadedMsg struct {
	folders  []model.Folder
	selected string
	err      error
}

// sendResultMsg carries the terminal outcome of an email send.
type sendResultMsg struct {
	result mailer.Result
}

// openResultMsg carries the outcome of opening a document externally.
type openResultMsg struct {
	err error
}

// notificationExpiredMsg clears the notification raised at the given time.
type notificationExpiredMsg struct {
	raisedAt time.Time
}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewBrowser ViewState = iota
	ViewPreview
	ViewEmail
	ViewHelp
	ViewCommand
)

// Deps are the services the TUI drives.
type Deps struct {
	BaseURL    string
	Catalog    *catalog.Catalog
	Listing    *listing.Listing
	Previews   *preview.Controller
	Dispatcher *mailer.Dispatcher

	// Opener opens a local file in the system viewer.
	Opener func(path string) error

	Logger *slog.Logger
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the folder, preview, and email flows.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap

	browser   browser.Model
	viewer    viewer.Model
	emailForm emailform.Model
	helpView  helpview.Model
	palette   command.Model

	deps   Deps
	ctx    context.Context
	cancel context.CancelFunc

	notification *model.Notification
	ready        bool
}

// New creates a new root application model. The returned model owns a
// context that is cancelled when the program quits.
func New(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	k := keys.DefaultKeyMap()
	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		currentView: ViewBrowser,
		keys:        k,
		browser:     browser.New(k, 80, 24),
		viewer:      viewer.New(k, 80, 24),
		emailForm:   emailform.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
		palette:     command.New(80, 24),
		deps:        deps,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Init loads the folder catalog and starts listening for listing results.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.browser.Init(),
		m.loadFolders(),
		m.deps.Listing.WaitForNextResult(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.browser.SetSize(contentWidth, contentHeight)
		m.viewer.SetSize(contentWidth, contentHeight)
		m.emailForm.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.palette.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case foldersLoadedMsg:
		if msg.err != nil {
			m.browser.SetFolderError(msg.err)
			m.browser.SetLoading(m.deps.Listing.State().Loading)
			return m, m.notify(model.LevelError, "Failed to load folders")
		}
		m.browser.SetLoading(m.deps.Listing.State().Loading)
		return m, m.browser.SetFolders(msg.folders, msg.selected)

	case listing.ResultMsg:
		state := m.deps.Listing.State()
		cmd := m.browser.SetFiles(state.Files, state.Loading, state.Errored)
		return m, tea.Batch(cmd, m.deps.Listing.WaitForNextResult())

	case browser.FolderSelectedMsg:
		m.deps.Catalog.Select(msg.FolderID)
		m.browser.SetLoading(true)
		return m, nil

	case browser.PreviewRequestMsg:
		return m, m.openPreview(msg.File)

	case viewer.LoadedMsg:
		var cmd tea.Cmd
		m.viewer, cmd = m.viewer.Update(msg)
		return m, cmd

	case viewer.CloseMsg:
		if err := m.deps.Previews.Close(msg.SessionID); err != nil {
			m.deps.Logger.Warn("closing preview", "session", msg.SessionID, "err", err)
		}
		m.currentView = ViewBrowser
		return m, nil

	case viewer.OpenRequestMsg:
		return m, m.openExternally(msg.Handle)

	case openResultMsg:
		if msg.err != nil {
			return m, m.notify(model.LevelError, "Could not open document: "+msg.err.Error())
		}
		return m, nil

	case browser.EmailRequestMsg:
		return m, m.startEmail(msg.File)

	case viewer.EmailRequestMsg:
		return m, m.startEmail(msg.File)

	case emailform.SubmitMsg:
		return m, m.sendEmail(msg)

	case emailform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case sendResultMsg:
		res := msg.result
		if res.Success {
			m.currentView = m.previousView
			return m, m.notify(model.LevelSuccess, res.Notice)
		}
		return m, tea.Batch(
			m.emailForm.Resume(res.Notice),
			m.notify(model.LevelError, res.Notice),
		)

	case command.CommandMsg:
		m.currentView = ViewBrowser
		return m.runCommand(msg.Command)

	case command.ErrorMsg:
		m.currentView = ViewBrowser
		return m, m.notify(model.LevelError, msg.Err.Error())

	case command.CancelMsg:
		m.currentView = ViewBrowser
		return m, nil

	case notificationExpiredMsg:
		if m.notification != nil && m.notification.CreatedAt.Equal(msg.raisedAt) {
			m.notification = nil
		}
		return m, nil

	case tea.KeyMsg:
		// Global keys that work regardless of current view
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()

		case "q":
			if m.currentView == ViewBrowser && !m.browser.Filtering() {
				return m, m.quit()
			}

		case ":":
			if m.currentView == ViewBrowser && !m.browser.Filtering() {
				m.currentView = ViewCommand
				return m, m.palette.Open()
			}

		case "?":
			if m.currentView == ViewEmail || m.currentView == ViewCommand || m.browser.Filtering() {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case "esc":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			// huh only aborts on ctrl+c, which quits the program here.
			if m.currentView == ViewEmail && !m.emailForm.Sending() {
				return m, func() tea.Msg { return emailform.CancelMsg{} }
			}

		case "r":
			if m.currentView == ViewBrowser && !m.browser.Filtering() {
				return m, m.refresh()
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewBrowser:
		m.browser, cmd = m.browser.Update(msg)
	case ViewPreview:
		m.viewer, cmd = m.viewer.Update(msg)
	case ViewEmail:
		m.emailForm, cmd = m.emailForm.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.palette, cmd = m.palette.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("E-Paper", m.headerStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.liveNotification())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewBrowser:
		return m.browser.View()
	case ViewPreview:
		return m.viewer.View()
	case ViewEmail:
		return m.emailForm.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.palette.View()
	default:
		return ""
	}
}

// headerStatus returns the backend and listing summary for the header.
func (m Model) headerStatus() string {
	status := m.browser.Summary()
	if m.deps.Dispatcher != nil && m.deps.Dispatcher.InFlight() {
		status += " | sending"
	}
	return fmt.Sprintf("%s | %s", m.deps.BaseURL, status)
}

// liveNotification returns the notification if it has not expired.
func (m Model) liveNotification() *model.Notification {
	if m.notification == nil || m.notification.Expired(time.Now()) {
		return nil
	}
	return m.notification
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewPreview:
		return "esc close | o open | m email | j/k scroll"
	case ViewEmail:
		return "enter next/submit | esc cancel"
	case ViewCommand:
		return "enter run | esc cancel"
	default:
		if m.browser.Focus() == browser.PaneFolders {
			return "q quit | ? help | : command | enter open folder | tab pages | r refresh"
		}
		return "q quit | ? help | : command | enter preview | m email | / filter | tab folders"
	}
}

// notify raises a transient notification and schedules its expiry.
func (m *Model) notify(level model.NotificationLevel, message string) tea.Cmd {
	now := time.Now()
	m.notification = &model.Notification{
		Level:     level,
		Message:   message,
		CreatedAt: now,
		TTL:       NotificationTTL,
	}
	return tea.Tick(NotificationTTL, func(time.Time) tea.Msg {
		return notificationExpiredMsg{raisedAt: now}
	})
}

// loadFolders returns a command that loads the folder catalog. On success
// the catalog triggers the listing of its first folder.
func (m Model) loadFolders() tea.Cmd {
	c := m.deps.Catalog
	ctx := m.ctx
	return func() tea.Msg {
		folders, err := c.Load(ctx)
		return foldersLoadedMsg{folders: folders, selected: c.Selected(), err: err}
	}
}

// refresh reloads the folder catalog, which selects and relists the first
// folder.
func (m *Model) refresh() tea.Cmd {
	m.browser.SetLoading(true)
	return m.loadFolders()
}

// runCommand executes a palette command against the browser state.
func (m Model) runCommand(c command.Command) (tea.Model, tea.Cmd) {
	switch c.Name {
	case command.Refresh:
		return m, m.refresh()

	case command.Folder:
		cmd, ok := m.browser.SelectFolder(c.Arg)
		if !ok {
			return m, m.notify(model.LevelError, "No folder matches "+c.Arg)
		}
		return m, cmd

	case command.Preview, command.Mail:
		f, ok := m.browser.SelectedFile()
		if !ok {
			return m, m.notify(model.LevelInfo, "No page selected")
		}
		if c.Name == command.Preview {
			return m, m.openPreview(f)
		}
		return m, m.startEmail(f)

	case command.Help:
		m.previousView = ViewBrowser
		m.currentView = ViewHelp
		return m, nil

	case command.Quit:
		return m, m.quit()
	}
	return m, nil
}

// openPreview closes any open preview session and starts a new one for
// file.
func (m *Model) openPreview(file model.FileRecord) tea.Cmd {
	if id := m.viewer.SessionID(); id != "" {
		if err := m.deps.Previews.Close(id); err != nil {
			m.deps.Logger.Warn("closing preview", "session", id, "err", err)
		}
	}

	s := m.deps.Previews.Open(file)
	m.currentView = ViewPreview
	tick := m.viewer.Start(s.ID(), file)

	ctx := m.ctx
	load := func() tea.Msg {
		return viewer.LoadedMsg{Outcome: s.Load(ctx)}
	}
	return tea.Batch(tick, load)
}

// openExternally returns a command that hands the document to the system
// viewer.
func (m Model) openExternally(h *preview.Handle) tea.Cmd {
	opener := m.deps.Opener
	if opener == nil || h == nil {
		return nil
	}
	path := h.Path
	return func() tea.Msg {
		return openResultMsg{err: opener(path)}
	}
}

// startEmail opens the email dialog for file.
func (m *Model) startEmail(file model.FileRecord) tea.Cmd {
	if m.currentView != ViewEmail {
		m.previousView = m.currentView
	}
	m.currentView = ViewEmail
	return m.emailForm.Start(file)
}

// sendEmail returns a command that runs the dispatcher for a submission.
func (m Model) sendEmail(sub emailform.SubmitMsg) tea.Cmd {
	d := m.deps.Dispatcher
	ctx := m.ctx
	return func() tea.Msg {
		return sendResultMsg{result: d.Send(ctx, sub.To, sub.File, sub.Metadata)}
	}
}

// quit cancels outstanding work, releases every preview, and exits.
func (m Model) quit() tea.Cmd {
	m.cancel()
	if err := m.deps.Previews.Shutdown(); err != nil {
		m.deps.Logger.Warn("releasing previews", "err", err)
	}
	return tea.Quit
}
