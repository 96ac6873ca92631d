package preview

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/nhle/epaper/internal/backend"
	"github.com/nhle/epaper/internal/model"
)

type stubFetcher struct {
	doc   *backend.Document
	err   error
	block chan struct{}
}

func (f *stubFetcher) FetchDocument(ctx context.Context, fileID string) (*backend.Document, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, &backend.NetworkError{
				Method:  "GET",
				URL:     "/document/" + fileID,
				Message: ctx.Err().Error(),
				Err:     ctx.Err(),
			}
		}
	}
	return f.doc, f.err
}

func newTestSession(f DocumentFetcher) (*Session, *HandleStore) {
	handles := NewHandleStore(afero.NewMemMapFs(), "/docs")
	file := model.FileRecord{ID: "file-1", Name: "Front Page.pdf"}
	return NewSession(file, f, handles, nil), handles
}

func TestSession_EmptyBody(t *testing.T) {
	s, _ := newTestSession(&stubFetcher{doc: &backend.Document{
		Body:        nil,
		ContentType: "application/pdf",
	}})

	out := s.Load(context.Background())
	if out.State != StateErrored {
		t.Fatalf("Expected errored, got %s", out.State)
	}
	if out.Error != EmptyResponse {
		t.Errorf("Expected %q, got %q", EmptyResponse, out.Error)
	}
	if out.Handle != nil {
		t.Error("Expected no handle")
	}
	if out.Loading {
		t.Error("Expected loading cleared")
	}
}

func TestSession_MislabeledErrorBodyBecomesMessage(t *testing.T) {
	s, _ := newTestSession(&stubFetcher{doc: &backend.Document{
		Body:        []byte("not found"),
		ContentType: "text/plain",
	}})

	out := s.Load(context.Background())
	if out.State != StateErrored {
		t.Fatalf("Expected errored, got %s", out.State)
	}
	if out.Error != "not found" {
		t.Errorf("Expected 'not found', got %q", out.Error)
	}
}

func TestSession_PDFBecomesReady(t *testing.T) {
	body := []byte("%PDF-1.7\n...")
	s, handles := newTestSession(&stubFetcher{doc: &backend.Document{
		Body:        body,
		ContentType: "application/pdf",
	}})

	out := s.Load(context.Background())
	if out.State != StateReady {
		t.Fatalf("Expected ready, got %s (%s)", out.State, out.Error)
	}
	if out.Handle == nil {
		t.Fatal("Expected a handle")
	}
	if out.Error != "" {
		t.Errorf("Expected no error, got %q", out.Error)
	}
	if !strings.HasSuffix(out.Handle.Path, ".pdf") {
		t.Errorf("Expected .pdf handle, got %s", out.Handle.Path)
	}

	data, err := handles.Open(out.Handle)
	if err != nil {
		t.Fatalf("Open handle: %v", err)
	}
	if string(data) != string(body) {
		t.Errorf("Handle content mismatch")
	}
}

func TestSession_SniffsTypeWhenHeaderMissing(t *testing.T) {
	s, _ := newTestSession(&stubFetcher{doc: &backend.Document{
		Body: []byte("%PDF-1.4\n%âãÏÓ\n1 0 obj\n"),
	}})

	out := s.Load(context.Background())
	if out.State != StateReady {
		t.Fatalf("Expected ready from sniffed type, got %s (%s)", out.State, out.Error)
	}
}

func TestSession_TransportErrorIsSerialized(t *testing.T) {
	s, _ := newTestSession(&stubFetcher{err: &backend.NetworkError{
		Method:     "GET",
		URL:        "http://backend/document/file-1",
		Status:     502,
		StatusText: "Bad Gateway",
		Body:       "upstream down",
		Message:    "Http failure response",
	}})

	out := s.Load(context.Background())
	if out.State != StateErrored {
		t.Fatalf("Expected errored, got %s", out.State)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out.Error), &decoded); err != nil {
		t.Fatalf("Expected JSON diagnostic, got %q", out.Error)
	}
	if decoded["status"].(float64) != 502 {
		t.Errorf("Expected status 502, got %v", decoded["status"])
	}
	if decoded["error"] != "upstream down" {
		t.Errorf("Expected raw body in diagnostic, got %v", decoded["error"])
	}
}

func TestSession_PlainErrorIsSerialized(t *testing.T) {
	s, _ := newTestSession(&stubFetcher{err: errors.New("dial tcp: refused")})

	out := s.Load(context.Background())
	if !strings.Contains(out.Error, "dial tcp: refused") {
		t.Errorf("Expected raw error text, got %q", out.Error)
	}
}

func TestSession_CloseReleasesHandle(t *testing.T) {
	s, handles := newTestSession(&stubFetcher{doc: &backend.Document{
		Body:        []byte("%PDF-1.7"),
		ContentType: "application/pdf",
	}})

	out := s.Load(context.Background())
	if out.Handle == nil {
		t.Fatal("Expected a handle")
	}
	if handles.Live() != 1 {
		t.Fatalf("Expected 1 live handle, got %d", handles.Live())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if handles.Live() != 0 {
		t.Errorf("Expected handle released, %d still live", handles.Live())
	}
	if _, err := handles.Open(out.Handle); err == nil {
		t.Error("Expected handle file to be gone")
	}
	if err := s.Close(); err != nil {
		t.Errorf("Second Close should be a no-op, got %v", err)
	}
}

func TestSession_CloseCancelsInFlightFetch(t *testing.T) {
	fetcher := &stubFetcher{
		doc:   &backend.Document{Body: []byte("%PDF-1.7"), ContentType: "application/pdf"},
		block: make(chan struct{}),
	}
	s, handles := newTestSession(fetcher)

	done := make(chan Outcome, 1)
	go func() { done <- s.Load(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for s.Outcome().State != StateLoading {
		if time.Now().After(deadline) {
			t.Fatal("session never entered loading")
		}
		time.Sleep(time.Millisecond)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case out := <-done:
		if !out.Closed {
			t.Error("Expected closed outcome")
		}
		if out.Handle != nil {
			t.Error("Expected no handle after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Load did not return after Close")
	}
	if handles.Live() != 0 {
		t.Errorf("Expected no live handles, got %d", handles.Live())
	}
}

func TestController_ShutdownClosesSessions(t *testing.T) {
	handles := NewHandleStore(afero.NewMemMapFs(), "/docs")
	c := NewController(&stubFetcher{doc: &backend.Document{
		Body:        []byte("%PDF-1.7"),
		ContentType: "application/pdf",
	}}, handles, nil)

	for _, id := range []string{"a", "b"} {
		s := c.Open(model.FileRecord{ID: id, Name: id + ".pdf"})
		s.Load(context.Background())
	}
	if handles.Live() != 2 {
		t.Fatalf("Expected 2 live handles, got %d", handles.Live())
	}

	if err := c.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if handles.Live() != 0 || c.Active() != 0 {
		t.Errorf("Expected everything released, handles=%d sessions=%d", handles.Live(), c.Active())
	}
}
