package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", "", 5*time.Second)
}

func TestClient_ListFiles_FolderScoped(t *testing.T) {
	var gotQuery url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathFiles {
			t.Errorf("Expected path %s, got %s", PathFiles, r.URL.Path)
		}
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"id":"f1","name":"Page 1.pdf"},{"id":"f2","name":"Page 2.pdf"}]`)
	})

	entries, err := c.ListFiles(context.Background(), "folder-a")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if gotQuery.Get("folder_id") != "folder-a" {
		t.Errorf("Expected folder_id 'folder-a', got %q", gotQuery.Get("folder_id"))
	}
	if len(entries) != 2 || entries[1].ID != "f2" || entries[1].Name != "Page 2.pdf" {
		t.Errorf("Unexpected entries: %+v", entries)
	}
}

func TestClient_ListFiles_DefaultListingHasNoQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("Expected no query, got %q", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `[]`)
	})

	entries, err := c.ListFiles(context.Background(), "")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no entries, got %d", len(entries))
	}
}

func TestClient_ListFolders_MalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"error":"drive unavailable"}`)
	})

	_, err := c.ListFolders(context.Background())
	if !IsValidationError(err) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
}

func TestClient_ListFolders_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
	})

	_, err := c.ListFolders(context.Background())
	if !IsNetworkError(err) {
		t.Fatalf("Expected NetworkError, got %v", err)
	}

	var decoded map[string]interface{}
	if jerr := json.Unmarshal([]byte(err.(*NetworkError).JSON()), &decoded); jerr != nil {
		t.Fatalf("NetworkError JSON did not parse: %v", jerr)
	}
	if decoded["status"].(float64) != 500 {
		t.Errorf("Expected status 500 in JSON, got %v", decoded["status"])
	}
}

func TestClient_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.ListFolders(context.Background())
	if !IsAuthError(err) {
		t.Fatalf("Expected AuthError, got %v", err)
	}
}

func TestClient_BearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret", time.Second)
	if _, err := c.ListFolders(context.Background()); err != nil {
		t.Fatalf("ListFolders failed: %v", err)
	}
}

func TestClient_ThumbnailURL_RoundTrips(t *testing.T) {
	c := NewClient("http://backend:3010/", "", time.Second)

	names := []string{
		"Chennai Edition.pdf",
		"Page 1 & 2.pdf",
		"Issue #42.pdf",
		"a+b=c?.pdf",
	}
	for _, name := range names {
		ref := c.ThumbnailURL(name)
		if !strings.HasPrefix(ref, "http://backend:3010/thumbnail?file_name=") {
			t.Errorf("Unexpected prefix for %q: %s", name, ref)
		}
		if strings.Contains(ref, " ") || strings.Contains(ref, "+") {
			t.Errorf("Reference for %q is not percent-encoded: %s", name, ref)
		}
		u, err := url.Parse(ref)
		if err != nil {
			t.Fatalf("Parsing %s: %v", ref, err)
		}
		if got := u.Query().Get("file_name"); got != name {
			t.Errorf("Round trip mismatch: got %q, want %q", got, name)
		}
	}
}

func TestClient_FetchDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/document/abc" {
			t.Errorf("Expected /document/abc, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = io.WriteString(w, "%PDF-1.4 body")
	})

	doc, err := c.FetchDocument(context.Background(), "abc")
	if err != nil {
		t.Fatalf("FetchDocument failed: %v", err)
	}
	if doc.ContentType != "application/pdf" {
		t.Errorf("Expected application/pdf, got %q", doc.ContentType)
	}
	if string(doc.Body) != "%PDF-1.4 body" {
		t.Errorf("Unexpected body %q", doc.Body)
	}
}

func TestClient_SendEmail_Multipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		for field, want := range map[string]string{
			"to":      "reader@example.com",
			"subject": "PDF File: page.pdf",
			"from":    "desk@example.com",
		} {
			if got := r.FormValue(field); got != want {
				t.Errorf("Field %s: got %q, want %q", field, got, want)
			}
		}
		file, header, err := r.FormFile("attachment")
		if err != nil {
			t.Fatalf("FormFile: %v", err)
		}
		defer file.Close()
		if header.Filename != "page.pdf" {
			t.Errorf("Expected filename page.pdf, got %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "application/pdf" {
			t.Errorf("Expected attachment type application/pdf, got %q", ct)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "%PDF-bytes" {
			t.Errorf("Unexpected attachment data %q", data)
		}
		_, _ = io.WriteString(w, `{"success":"Email sent successfully"}`)
	})

	resp, err := c.SendEmail(context.Background(), EmailSubmission{
		To:      "reader@example.com",
		Subject: "PDF File: page.pdf",
		HTML:    "<p>hi</p>",
		From:    "desk@example.com",
		Attachment: Attachment{
			FileName:    "page.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-bytes"),
		},
	})
	if err != nil {
		t.Fatalf("SendEmail failed: %v", err)
	}
	if !resp.Acknowledged() {
		t.Errorf("Expected acknowledged response, got %+v", resp)
	}
}

func TestSendResponse_Acknowledged(t *testing.T) {
	ack := SuccessAck
	sent := "sent"
	oops := "x"

	tests := []struct {
		name string
		resp SendResponse
		want bool
	}{
		{"exact literal", SendResponse{Success: &ack}, true},
		{"other success text", SendResponse{Success: &sent}, false},
		{"error only", SendResponse{Error: &oops}, false},
		{"empty", SendResponse{}, false},
	}
	for _, tt := range tests {
		if got := tt.resp.Acknowledged(); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestClient_PathURL(t *testing.T) {
	c := NewClient("http://backend:3010/", "", time.Second)

	u, err := url.Parse(c.PathURL("/srv/pages/front page&1.pdf", true))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.Path != PathLegacyPDF {
		t.Errorf("Expected path %s, got %s", PathLegacyPDF, u.Path)
	}
	if got := u.Query().Get("path"); got != "/srv/pages/front page&1.pdf" {
		t.Errorf("path param did not round-trip: %q", got)
	}
	if got := u.Query().Get("download"); got != "true" {
		t.Errorf("Expected download=true, got %q", got)
	}

	inline, _ := url.Parse(c.PathURL("a.pdf", false))
	if inline.Query().Get("download") != "false" {
		t.Errorf("Expected download=false, got %q", inline.Query().Get("download"))
	}
}
