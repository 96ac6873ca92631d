package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// Entry is a folder or file as listed by the backend.
type Entry struct {
	ID   string
	Name string
}

// Client is a thin HTTP client for the document storage and mail-relay
// backend. It handles optional Bearer authentication and maps transport
// failures onto the package's error types. It never retries.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new backend client. The baseURL is the root URL of
// the backend (e.g., http://10.0.0.5:3010). An empty token disables the
// Authorization header.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the normalized backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListFolders retrieves every folder known to the backend.
func (c *Client) ListFolders(ctx context.Context) ([]Entry, error) {
	return c.listEntries(ctx, c.baseURL+PathFolders, PathFolders)
}

// ListFiles retrieves the files of a folder. An empty folderID selects the
// default listing.
func (c *Client) ListFiles(ctx context.Context, folderID string) ([]Entry, error) {
	u := c.baseURL + PathFiles
	if folderID != "" {
		u += "?" + url.Values{"folder_id": {folderID}}.Encode()
	}
	return c.listEntries(ctx, u, PathFiles)
}

// ThumbnailURL builds the lazily-resolved thumbnail reference for a file
// name. The name is percent-encoded the way encodeURIComponent does it, so
// spaces become %20 rather than '+'.
func (c *Client) ThumbnailURL(fileName string) string {
	return c.baseURL + PathThumbnail + "?file_name=" + encodeComponent(fileName)
}

// DownloadURL returns the URL serving the raw bytes of a file.
func (c *Client) DownloadURL(fileID string) string {
	return c.baseURL + PathDownload + "?file_id=" + encodeComponent(fileID)
}

// DocumentURL returns the URL serving a file for inline preview.
func (c *Client) DocumentURL(fileID string) string {
	return c.baseURL + PathDocument + url.PathEscape(fileID)
}

// PathURL returns the legacy URL serving a file by its backend-local path.
func (c *Client) PathURL(path string, download bool) string {
	return c.baseURL + PathLegacyPDF + "?" + url.Values{
		"path":     {path},
		"download": {fmt.Sprintf("%t", download)},
	}.Encode()
}

// FetchDocument retrieves the full preview body for a file along with its
// response headers.
func (c *Client) FetchDocument(ctx context.Context, fileID string) (*Document, error) {
	return c.Fetch(ctx, c.DocumentURL(fileID))
}

// Fetch performs a GET on an absolute URL and returns the binary body.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	body, header, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return &Document{
		Body:        body,
		ContentType: header.Get("Content-Type"),
		Header:      header,
	}, nil
}

// SendEmail posts a multipart submission to the mail relay and decodes its
// JSON reply. A reply that is not JSON is reported as a ValidationError.
func (c *Client) SendEmail(ctx context.Context, sub EmailSubmission) (*SendResponse, error) {
	payload, contentType, err := encodeSubmission(sub)
	if err != nil {
		return nil, fmt.Errorf("encoding submission: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+PathSendEmail, bytes.NewReader(payload),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	body, _, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var resp SendResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ValidationError{
			Endpoint: PathSendEmail,
			Reason:   "response is not a JSON object",
			Err:      err,
		}
	}
	return &resp, nil
}

// listEntries GETs a JSON array of {id, name} records.
func (c *Client) listEntries(ctx context.Context, u, endpoint string) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, _, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var raw []rawEntry
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &ValidationError{
			Endpoint: endpoint,
			Reason:   "expected a JSON array of {id, name}",
			Err:      err,
		}
	}

	entries := make([]Entry, 0, len(raw))
	for i, r := range raw {
		if r.ID == "" {
			return nil, &ValidationError{
				Endpoint: endpoint,
				Reason:   fmt.Sprintf("record %d has no id", i),
			}
		}
		entries = append(entries, Entry{ID: r.ID, Name: r.Name})
	}
	return entries, nil
}

// do executes the request and returns the body of a 2xx response. Every
// other outcome becomes a NetworkError, except 401 which is an AuthError.
func (c *Client) do(req *http.Request) ([]byte, http.Header, error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &NetworkError{
			Method:  req.Method,
			URL:     req.URL.String(),
			Message: err.Error(),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &NetworkError{
			Method:     req.Method,
			URL:        req.URL.String(),
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Message:    fmt.Sprintf("reading response body: %v", err),
			Err:        err,
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, nil, &AuthError{BaseURL: c.baseURL}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &NetworkError{
			Method:     req.Method,
			URL:        req.URL.String(),
			Status:     resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       string(body),
			Message: fmt.Sprintf(
				"Http failure response for %s: %d %s",
				req.URL.String(), resp.StatusCode, http.StatusText(resp.StatusCode),
			),
		}
	}

	return body, resp.Header, nil
}

// encodeSubmission writes the multipart/form-data body for a send-email
// request.
func encodeSubmission(sub EmailSubmission) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"to", sub.To},
		{"subject", sub.Subject},
		{"html", sub.HTML},
		{"from", sub.From},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("writing field %s: %w", f.name, err)
		}
	}

	contentType := sub.Attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(
		`form-data; name="attachment"; filename="%s"`,
		quoteEscaper.Replace(sub.Attachment.FileName),
	))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating attachment part: %w", err)
	}
	if _, err := part.Write(sub.Attachment.Data); err != nil {
		return nil, "", fmt.Errorf("writing attachment: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeComponent escapes s for use as a query value, encoding spaces as
// %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
