package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/afero"

	"github.com/nhle/epaper/internal/backend"
	"github.com/nhle/epaper/internal/catalog"
	"github.com/nhle/epaper/internal/listing"
	"github.com/nhle/epaper/internal/mailer"
	"github.com/nhle/epaper/internal/model"
	"github.com/nhle/epaper/internal/preview"
	"github.com/nhle/epaper/internal/ui/browser"
	"github.com/nhle/epaper/internal/ui/command"
	"github.com/nhle/epaper/internal/ui/emailform"
	"github.com/nhle/epaper/internal/ui/viewer"
)

func newTestModel(t *testing.T) Model {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case backend.PathFolders:
			_, _ = w.Write([]byte(`[{"id":"f1","name":"Chennai"},{"id":"f2","name":"Madurai"}]`))
		case backend.PathFiles:
			_, _ = w.Write([]byte(`[{"id":"p1","name":"page 1.pdf"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	client := backend.NewClient(srv.URL, "", 5*time.Second)
	files := listing.New(client, 0, nil)
	previews := preview.NewController(client, preview.NewHandleStore(afero.NewMemMapFs(), "/docs"), nil)

	m := New(Deps{
		BaseURL:    client.BaseURL(),
		Catalog:    catalog.New(client, files, nil),
		Listing:    files,
		Previews:   previews,
		Dispatcher: mailer.New(client, "desk@example.com", nil, nil),
	})
	t.Cleanup(m.cancel)
	return m
}

func TestFoldersLoadedSelectsFirstAndListsIt(t *testing.T) {
	m := newTestModel(t)

	msg := m.loadFolders()()
	loaded, ok := msg.(foldersLoadedMsg)
	if !ok {
		t.Fatalf("Expected foldersLoadedMsg, got %T", msg)
	}
	if loaded.err != nil || loaded.selected != "f1" || len(loaded.folders) != 2 {
		t.Fatalf("Unexpected load result %+v", loaded)
	}

	next, _ := m.Update(loaded)
	m = next.(Model)

	result := m.deps.Listing.WaitForNextResult()()
	res, ok := result.(listing.ResultMsg)
	if !ok {
		t.Fatalf("Expected listing.ResultMsg, got %T", result)
	}
	if res.FolderID != "f1" {
		t.Errorf("Expected listing of f1, got %q", res.FolderID)
	}

	next, _ = m.Update(res)
	m = next.(Model)
	f, ok := m.browser.SelectedFile()
	if !ok || f.ID != "p1" {
		t.Errorf("Expected p1 in file pane, got %+v (%v)", f, ok)
	}
}

func TestSendResult_SuccessClosesDialog(t *testing.T) {
	m := newTestModel(t)
	m.startEmail(model.FileRecord{ID: "p1", Name: "page 1.pdf"})
	if m.currentView != ViewEmail {
		t.Fatalf("Expected email view, got %v", m.currentView)
	}

	next, cmd := m.Update(sendResultMsg{result: mailer.Result{Success: true, Notice: mailer.NoticeSent}})
	m = next.(Model)

	if m.currentView != ViewBrowser {
		t.Errorf("Expected dialog closed, got view %v", m.currentView)
	}
	if m.notification == nil || m.notification.Level != model.LevelSuccess {
		t.Fatalf("Expected success notification, got %+v", m.notification)
	}
	if m.notification.Message != "Email sent successfully!" {
		t.Errorf("Unexpected notice %q", m.notification.Message)
	}
	if cmd == nil {
		t.Error("Expected expiry command")
	}
}

func TestSendResult_FailureKeepsDialogOpen(t *testing.T) {
	m := newTestModel(t)
	m.startEmail(model.FileRecord{ID: "p1", Name: "page 1.pdf"})

	next, _ := m.Update(sendResultMsg{result: mailer.Result{Notice: mailer.NoticeAttachFailed}})
	m = next.(Model)

	if m.currentView != ViewEmail {
		t.Errorf("Expected dialog to stay open, got view %v", m.currentView)
	}
	if m.emailForm.Sending() {
		t.Error("Expected form to accept a retry")
	}
	if m.notification == nil || m.notification.Level != model.LevelError {
		t.Fatalf("Expected error notification, got %+v", m.notification)
	}
}

func TestNotificationExpiry(t *testing.T) {
	m := newTestModel(t)
	m.notify(model.LevelInfo, "first")
	first := m.notification.CreatedAt

	time.Sleep(time.Millisecond)
	m.notify(model.LevelInfo, "second")

	next, _ := m.Update(notificationExpiredMsg{raisedAt: first})
	m = next.(Model)
	if m.notification == nil || m.notification.Message != "second" {
		t.Fatalf("Stale expiry should not clear a newer notification, got %+v", m.notification)
	}

	next, _ = m.Update(notificationExpiredMsg{raisedAt: m.notification.CreatedAt})
	m = next.(Model)
	if m.notification != nil {
		t.Error("Expected notification cleared")
	}
}

func TestPreviewCloseReleasesSession(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(browser.PreviewRequestMsg{File: model.FileRecord{ID: "missing", Name: "x.pdf"}})
	m = next.(Model)
	if m.currentView != ViewPreview || m.deps.Previews.Active() != 1 {
		t.Fatalf("Expected one open preview, view=%v active=%d", m.currentView, m.deps.Previews.Active())
	}

	next, _ = m.Update(viewer.CloseMsg{SessionID: m.viewer.SessionID()})
	m = next.(Model)
	if m.currentView != ViewBrowser {
		t.Errorf("Expected browser view, got %v", m.currentView)
	}
	if m.deps.Previews.Active() != 0 {
		t.Errorf("Expected preview released, %d active", m.deps.Previews.Active())
	}
}


func TestPaletteFolderCommand(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(m.loadFolders()())
	m = next.(Model)
	_ = m.deps.Listing.WaitForNextResult()()

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(":")})
	m = next.(Model)
	if m.currentView != ViewCommand {
		t.Fatalf("Expected command view, got %v", m.currentView)
	}

	next, cmd := m.Update(command.CommandMsg{Command: command.Command{Name: command.Folder, Arg: "madurai"}})
	m = next.(Model)
	if m.currentView != ViewBrowser {
		t.Errorf("Expected browser after command, got %v", m.currentView)
	}
	if cmd == nil {
		t.Fatal("Expected folder selection command")
	}
	sel, ok := cmd().(browser.FolderSelectedMsg)
	if !ok || sel.FolderID != "f2" {
		t.Fatalf("Expected selection of f2, got %#v", sel)
	}

	next, _ = m.Update(sel)
	m = next.(Model)
	res := m.deps.Listing.WaitForNextResult()().(listing.ResultMsg)
	if res.FolderID != "f2" {
		t.Errorf("Expected listing of f2, got %q", res.FolderID)
	}
}

func TestPaletteUnknownFolderNotifies(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(command.CommandMsg{Command: command.Command{Name: command.Folder, Arg: "nowhere"}})
	m = next.(Model)
	if m.notification == nil || m.notification.Level != model.LevelError {
		t.Fatalf("Expected error notification, got %+v", m.notification)
	}
}

func TestEscCancelsEmailDialog(t *testing.T) {
	m := newTestModel(t)
	m.startEmail(model.FileRecord{ID: "p1", Name: "page 1.pdf"})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("Expected a cancel command")
	}
	msg := cmd()
	if _, ok := msg.(emailform.CancelMsg); !ok {
		t.Fatalf("Expected emailform.CancelMsg, got %T", msg)
	}

	next, _ = m.Update(msg)
	m = next.(Model)
	if m.currentView != ViewBrowser {
		t.Errorf("Expected browser view after esc, got %v", m.currentView)
	}
}
