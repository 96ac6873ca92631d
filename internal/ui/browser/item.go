package browser

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/epaper/internal/model"
	"github.com/nhle/epaper/internal/theme"
)

// FolderItem wraps a model.Folder so it can be used in a bubbles/list.
type FolderItem struct {
	Folder model.Folder
}

// FilterValue returns the string used for fuzzy filtering.
func (i FolderItem) FilterValue() string { return i.Folder.Name }

// FileItem wraps a model.FileRecord so it can be used in a bubbles/list.
type FileItem struct {
	File model.FileRecord
}

// FilterValue returns the string used for fuzzy filtering.
func (i FileItem) FilterValue() string { return i.File.Name }

// itemDelegate implements list.ItemDelegate for both panes.
type itemDelegate struct {
	// active marks the folder currently backing the file pane.
	active *string
}

// Height returns the number of lines each item takes.
func (d itemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d itemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	var line string
	switch it := item.(type) {
	case FolderItem:
		marker := "  "
		if d.active != nil && *d.active == it.Folder.ID {
			marker = "▸ "
		}
		line = marker + it.Folder.Name
	case FileItem:
		line = it.File.Name
	default:
		return
	}

	width := m.Width() - 3
	if width > 0 && len([]rune(line)) > width {
		line = string([]rune(line)[:width-1]) + "…"
	}

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(line))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(line))
}
