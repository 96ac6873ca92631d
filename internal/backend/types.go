package backend

import "net/http"

// Endpoint paths exposed by the storage and mail-relay backend.
const (
	PathFolders   = "/folders"
	PathFiles     = "/files"
	PathThumbnail = "/thumbnail"
	PathDownload  = "/download"
	PathDocument  = "/document/"
	PathSendEmail = "/send-email"
	PathLegacyPDF = "/pdf"
)

// SuccessAck is the exact acknowledgement the mail relay returns when a
// message was accepted.
const SuccessAck = "Email sent successfully"

// rawEntry is a folder or file record as returned by the listing endpoints.
type rawEntry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Document is a binary body together with the response headers it came
// with.
type Document struct {
	Body        []byte
	ContentType string
	Header      http.Header
}

// Attachment is a file part of a send-email submission.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// EmailSubmission is the multipart payload posted to the send-email
// endpoint.
type EmailSubmission struct {
	To         string
	Subject    string
	HTML       string
	From       string
	Attachment Attachment
}

// SendResponse is the JSON body returned by the send-email endpoint. Both
// fields are optional.
type SendResponse struct {
	Success *string `json:"success,omitempty"`
	Error   *string `json:"error,omitempty"`
}

// Acknowledged reports whether the relay confirmed delivery with the exact
// success literal.
func (r SendResponse) Acknowledged() bool {
	return r.Success != nil && *r.Success == SuccessAck
}
