package emailform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/epaper/internal/mailer"
	"github.com/nhle/epaper/internal/model"
	"github.com/nhle/epaper/internal/theme"
)

// DateLayout is the DD/MM/YYYY format used for the edition date.
const DateLayout = "02/01/2006"

// SubmitMsg is dispatched when the user confirms the form.
type SubmitMsg struct {
	File     model.FileRecord
	To       string
	Metadata model.EmailMetadata
}

// CancelMsg is dispatched when the user dismisses the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	to          string
	publication string
	edition     string
	date        string
}

// Model is the email dialog for one file.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	file    model.FileRecord
	sending bool
	lastErr string
	now     func() time.Time
	width   int
	height  int
}

// New creates a new email form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		now:    time.Now,
		width:  width,
		height: height,
	}
}

// Start opens the dialog for file with empty fields and today's date.
func (m *Model) Start(file model.FileRecord) tea.Cmd {
	m.file = file
	m.sending = false
	m.lastErr = ""
	m.fb.to = ""
	m.fb.publication = ""
	m.fb.edition = ""
	m.fb.date = m.now().Format(DateLayout)
	m.form = m.buildForm()
	return m.form.Init()
}

// Resume reopens the dialog after a failed send, keeping what the user
// typed.
func (m *Model) Resume(reason string) tea.Cmd {
	m.sending = false
	m.lastErr = reason
	m.form = m.buildForm()
	return m.form.Init()
}

// Sending reports whether a submission is in flight.
func (m Model) Sending() bool {
	return m.sending
}

// File returns the file being mailed.
func (m Model) File() model.FileRecord {
	return m.file
}

// Update handles messages for the email form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil || m.sending {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.sending = true
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the email form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Email " + m.file.Name)
	if m.lastErr != "" {
		content += "\n" + theme.ErrorTextStyle.Render(m.lastErr)
	}
	if m.sending {
		content += "\n" + theme.HelpStyle.Render("Sending...")
	} else {
		content += "\n" + m.form.View()
	}

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("To").
				Placeholder("reader@example.com").
				Value(&m.fb.to).
				Validate(validateAddress),
			huh.NewInput().
				Title("Publication").
				Value(&m.fb.publication),
			huh.NewInput().
				Title("Edition").
				Value(&m.fb.edition),
			huh.NewInput().
				Title("Date").
				Placeholder("DD/MM/YYYY").
				Value(&m.fb.date).
				Validate(validateOptionalDate),
		),
	).WithTheme(theme.FormTheme()).
		WithWidth(m.formWidth()).
		WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	sub := SubmitMsg{
		File: m.file,
		To:   strings.TrimSpace(m.fb.to),
		Metadata: model.EmailMetadata{
			Publication: strings.TrimSpace(m.fb.publication),
			Edition:     strings.TrimSpace(m.fb.edition),
			Date:        strings.TrimSpace(m.fb.date),
		},
	}
	return func() tea.Msg { return sub }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}

func validateAddress(s string) error {
	if _, err := mailer.ValidateAddress(s); err != nil {
		return fmt.Errorf("enter a valid email address")
	}
	return nil
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use DD/MM/YYYY")
	}
	return nil
}
