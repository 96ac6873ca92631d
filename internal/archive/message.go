package archive

import (
	"bytes"
	"fmt"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nhle/epaper/internal/backend"
)

// BuildMessage renders sub as an RFC 5322 message: an HTML body followed
// by the attachment.
func BuildMessage(sub backend.EmailSubmission, sentAt time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(sentAt)
	h.SetSubject(sub.Subject)
	h.SetAddressList("From", []*mail.Address{{Address: sub.From}})
	h.SetAddressList("To", []*mail.Address{{Address: sub.To}})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	var ih mail.InlineHeader
	ih.SetContentType("text/html", map[string]string{"charset": "utf-8"})
	body, err := mw.CreateSingleInline(ih)
	if err != nil {
		return nil, fmt.Errorf("creating body part: %w", err)
	}
	if _, err := body.Write([]byte(sub.HTML)); err != nil {
		return nil, fmt.Errorf("writing body: %w", err)
	}
	if err := body.Close(); err != nil {
		return nil, fmt.Errorf("closing body: %w", err)
	}

	contentType := sub.Attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	var ah mail.AttachmentHeader
	ah.Set("Content-Type", contentType)
	ah.SetFilename(sub.Attachment.FileName)
	att, err := mw.CreateAttachment(ah)
	if err != nil {
		return nil, fmt.Errorf("creating attachment part: %w", err)
	}
	if _, err := att.Write(sub.Attachment.Data); err != nil {
		return nil, fmt.Errorf("writing attachment: %w", err)
	}
	if err := att.Close(); err != nil {
		return nil, fmt.Errorf("closing attachment: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}
	return buf.Bytes(), nil
}
