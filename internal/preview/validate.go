package preview

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/wailsapp/mimetype"
	"golang.org/x/net/html/charset"
)

// EmptyResponse is the diagnostic used when a rejected body decodes to
// nothing.
const EmptyResponse = "Empty response"

// Validate decides whether a fetched body is a genuine PDF. A body is
// accepted only if it is non-empty and its declared content type, or the
// sniffed media type when no type was declared, mentions "pdf". For a
// rejected body the returned message is the body decoded as text, which
// is usually the upstream error served with a success status.
func Validate(body []byte, contentType string) (ok bool, message string) {
	if len(body) > 0 && strings.Contains(mediaType(body, contentType), "pdf") {
		return true, ""
	}

	text := decodeText(body, contentType)
	if text == "" {
		return false, EmptyResponse
	}
	return false, text
}

// mediaType returns the declared content type, falling back to the type
// sniffed from the body.
func mediaType(body []byte, contentType string) string {
	if contentType != "" {
		return contentType
	}
	if len(body) == 0 {
		return ""
	}
	return mimetype.Detect(body).String()
}

// decodeText converts body to UTF-8 text using the charset named by
// contentType. Without a declared charset, valid UTF-8 is taken as is and
// anything else is sniffed.
func decodeText(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}
	if declaredCharset(contentType) == "" && utf8.Valid(body) {
		return string(body)
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(out)
}

func declaredCharset(contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}
