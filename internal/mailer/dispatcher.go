package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/wailsapp/mimetype"

	"github.com/nhle/epaper/internal/backend"
	"github.com/nhle/epaper/internal/model"
)

// User-facing notices for the terminal outcome of a send.
const (
	NoticeSent           = "Email sent successfully!"
	NoticeSendFailed     = "Failed to send email"
	NoticeAttachFailed   = "Failed to fetch and attach the file"
	NoticeAlreadySending = "An email is already being sent"
)

// ArchiveTimeout bounds filing the sent copy of a delivered email.
const ArchiveTimeout = 30 * time.Second

// ErrInFlight is returned when Send is called while another send is
// running.
var ErrInFlight = errors.New("send already in progress")

// Transport is the backend surface the dispatcher needs.
type Transport interface {
	DownloadURL(fileID string) string
	PathURL(path string, download bool) string
	Fetch(ctx context.Context, rawURL string) (*backend.Document, error)
	SendEmail(ctx context.Context, sub backend.EmailSubmission) (*backend.SendResponse, error)
}

// Recorder persists send attempts.
type Recorder interface {
	RecordDispatch(ctx context.Context, d model.Dispatch) error
}

// Archiver files a copy of a delivered email. Archive failures never
// change the outcome of a send.
type Archiver interface {
	Archive(ctx context.Context, sub backend.EmailSubmission, sentAt time.Time) error
}

// Result is the terminal outcome of one send attempt.
type Result struct {
	DispatchID string
	Success    bool
	Notice     string
	Err        error
}

// Dispatcher mails documents as attachments through the relay.
type Dispatcher struct {
	transport Transport
	from      string
	recorder  Recorder
	archiver  Archiver
	logger    *slog.Logger

	archiveTimeout time.Duration
	inFlight       atomic.Bool
}

// New creates a Dispatcher sending from the given fixed address. recorder
// may be nil.
func New(transport Transport, from string, recorder Recorder, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		transport:      transport,
		from:           from,
		recorder:       recorder,
		logger:         logger,
		archiveTimeout: ArchiveTimeout,
	}
}

// WithArchiver sets the archiver used after successful sends.
func (d *Dispatcher) WithArchiver(a Archiver) *Dispatcher {
	d.archiver = a
	return d
}

// InFlight reports whether a send is running.
func (d *Dispatcher) InFlight() bool {
	return d.inFlight.Load()
}

// Send re-fetches file from the backend and mails it to the given address
// with meta in the body. It always returns exactly one Result, and the
// in-flight flag is cleared before it returns.
func (d *Dispatcher) Send(
	ctx context.Context,
	to string,
	file model.FileRecord,
	meta model.EmailMetadata,
) Result {
	if !d.inFlight.CompareAndSwap(false, true) {
		return Result{Notice: NoticeAlreadySending, Err: ErrInFlight}
	}
	defer d.inFlight.Store(false)

	res := d.send(ctx, to, file, meta)
	res.DispatchID = uuid.New().String()

	if res.Success {
		d.logger.Info("email sent", "file", file.ID, "to", to)
	} else {
		d.logger.Warn("email failed", "file", file.ID, "to", to, "err", res.Err)
	}

	d.record(ctx, res, to, file)
	return res
}

func (d *Dispatcher) send(
	ctx context.Context,
	to string,
	file model.FileRecord,
	meta model.EmailMetadata,
) Result {
	addr, err := ValidateAddress(to)
	if err != nil {
		return Result{Notice: NoticeSendFailed, Err: err}
	}

	att, err := d.fetchAttachment(ctx, file)
	if err != nil {
		return Result{Notice: NoticeAttachFailed, Err: err}
	}

	sub := backend.EmailSubmission{
		To:         addr,
		Subject:    Subject(file.Name),
		HTML:       HTMLBody(meta),
		From:       d.from,
		Attachment: att,
	}
	resp, err := d.transport.SendEmail(ctx, sub)
	if err != nil {
		return Result{Notice: NoticeSendFailed, Err: err}
	}

	if !resp.Acknowledged() {
		return Result{Notice: NoticeSendFailed, Err: unacknowledged(resp)}
	}

	d.archive(ctx, sub)
	return Result{Success: true, Notice: NoticeSent}
}

func (d *Dispatcher) archive(ctx context.Context, sub backend.EmailSubmission) {
	if d.archiver == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.archiveTimeout)
	defer cancel()

	if err := d.archiver.Archive(ctx, sub, time.Now()); err != nil {
		d.logger.Warn("archiving sent email", "to", sub.To, "file", sub.Attachment.FileName, "err", err)
	}
}

// fetchAttachment downloads the file's bytes independently of any
// preview of the same file. Records carrying a backend-local path are
// fetched through the legacy path endpoint.
func (d *Dispatcher) fetchAttachment(ctx context.Context, file model.FileRecord) (backend.Attachment, error) {
	u := d.transport.DownloadURL(file.ID)
	if file.HasPath() {
		u = d.transport.PathURL(file.Path, true)
	}

	doc, err := d.transport.Fetch(ctx, u)
	if err != nil {
		return backend.Attachment{}, &backend.FetchError{URL: u, Err: err}
	}
	if len(doc.Body) == 0 {
		return backend.Attachment{}, &backend.FetchError{URL: u, Err: errors.New("empty document")}
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(doc.Body).String()
	}

	return backend.Attachment{
		FileName:    file.Name,
		ContentType: contentType,
		Data:        doc.Body,
	}, nil
}

func (d *Dispatcher) record(ctx context.Context, res Result, to string, file model.FileRecord) {
	if d.recorder == nil {
		return
	}

	outcome := model.OutcomeFailure
	message := res.Notice
	if res.Success {
		outcome = model.OutcomeSuccess
	} else if res.Err != nil {
		message = res.Err.Error()
	}

	err := d.recorder.RecordDispatch(context.WithoutCancel(ctx), model.Dispatch{
		ID:        res.DispatchID,
		FileID:    file.ID,
		FileName:  file.Name,
		ToAddress: to,
		Outcome:   outcome,
		Message:   message,
		CreatedAt: time.Now(),
	})
	if err != nil {
		d.logger.Warn("recording dispatch", "id", res.DispatchID, "err", err)
	}
}

// unacknowledged describes a relay reply that lacks the success literal.
func unacknowledged(resp *backend.SendResponse) error {
	switch {
	case resp.Error != nil:
		return fmt.Errorf("relay error: %s", *resp.Error)
	case resp.Success != nil:
		return fmt.Errorf("relay replied %q, expected %q", *resp.Success, backend.SuccessAck)
	default:
		return errors.New("relay reply has no success field")
	}
}
