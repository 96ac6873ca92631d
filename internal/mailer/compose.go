package mailer

import (
	"fmt"
	"html"
	"strings"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/epaper/internal/backend"
	"github.com/nhle/epaper/internal/model"
)

// Subject returns the subject line for a mailed page.
func Subject(fileName string) string {
	return "PDF File: " + fileName
}

// HTMLBody renders the message body. Every interpolated value is
// HTML-escaped.
func HTMLBody(meta model.EmailMetadata) string {
	var b strings.Builder
	b.WriteString("<p>Please find the PDF file attached.</p>\n<br>\n")
	fmt.Fprintf(&b, "Publication: %s\n<br>\n", html.EscapeString(meta.Publication))
	fmt.Fprintf(&b, "Edition: %s\n<br>\n", html.EscapeString(meta.Edition))
	fmt.Fprintf(&b, "Date: %s\n", html.EscapeString(meta.Date))
	return b.String()
}

// ValidateAddress checks that to is a single RFC 5322 address and returns
// its bare form.
func ValidateAddress(to string) (string, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return "", &backend.ValidationError{
			Endpoint: backend.PathSendEmail,
			Reason:   "destination address is required",
		}
	}
	addr, err := mail.ParseAddress(to)
	if err != nil {
		return "", &backend.ValidationError{
			Endpoint: backend.PathSendEmail,
			Reason:   fmt.Sprintf("invalid destination address %q", to),
			Err:      err,
		}
	}
	return addr.Address, nil
}
