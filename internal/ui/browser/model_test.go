package browser

import (
	"testing"

	"github.com/nhle/epaper/internal/keys"
	"github.com/nhle/epaper/internal/model"
)

func TestSelectFolder(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 40)
	m.SetFolders([]model.Folder{
		{ID: "f-1", Name: "Chennai"},
		{ID: "f-2", Name: "Chennai City"},
		{ID: "f-3", Name: "Madurai"},
	}, "f-1")

	tests := []struct {
		query  string
		wantID string
		wantOK bool
	}{
		{"f-3", "f-3", true},
		{"chennai city", "f-2", true},
		{"chennai", "f-1", true},
		{"mad", "f-3", true},
		{"trichy", "", false},
		{"  ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			cmd, ok := m.SelectFolder(tt.query)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			msg, isSel := cmd().(FolderSelectedMsg)
			if !isSel || msg.FolderID != tt.wantID {
				t.Errorf("Expected selection of %s, got %#v", tt.wantID, msg)
			}
			if m.Focus() != PaneFiles {
				t.Error("Expected focus on the file pane after selecting")
			}
		})
	}
}

func TestSummary(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 40)
	m.SetLoading(true)
	if m.Summary() != "loading" {
		t.Errorf("Expected loading summary, got %q", m.Summary())
	}

	m.SetFiles([]model.FileRecord{{ID: "a", Name: "a.pdf"}}, false, false)
	if m.Summary() != "1 pages" {
		t.Errorf("Expected page count, got %q", m.Summary())
	}

	m.SetFiles(nil, false, true)
	if m.Summary() != "errored" {
		t.Errorf("Expected errored summary, got %q", m.Summary())
	}
}
