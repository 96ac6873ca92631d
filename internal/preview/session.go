package preview

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	gosync "sync"

	"github.com/google/uuid"

	"github.com/nhle/epaper/internal/backend"
	"github.com/nhle/epaper/internal/model"
)

// State is the phase of a preview session.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// DocumentFetcher retrieves the preview body of a file.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, fileID string) (*backend.Document, error)
}

// Outcome is a snapshot of a session. At most one of Error and Handle is
// set, and only once Loading is false.
type Outcome struct {
	SessionID string
	State     State
	Loading   bool
	Error     string
	Handle    *Handle
	Closed    bool
}

// Session governs one preview attempt: Idle → Loading → Ready | Errored.
// Ready and Errored are terminal until Close, which cancels any in-flight
// fetch and releases the handle.
type Session struct {
	id      string
	file    model.FileRecord
	fetcher DocumentFetcher
	handles *HandleStore
	logger  *slog.Logger

	mu     gosync.Mutex
	state  State
	errMsg string
	handle *Handle
	cancel context.CancelFunc
	closed bool
}

// NewSession creates an idle session for file.
func NewSession(
	file model.FileRecord,
	fetcher DocumentFetcher,
	handles *HandleStore,
	logger *slog.Logger,
) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:      uuid.New().String(),
		file:    file,
		fetcher: fetcher,
		handles: handles,
		logger:  logger,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// File returns the file being previewed.
func (s *Session) File() model.FileRecord { return s.file }

// Load fetches and validates the document. It blocks until the session
// settles or ctx is done and returns the resulting outcome. Calling Load
// on a session that already left Idle returns the current outcome.
func (s *Session) Load(ctx context.Context) Outcome {
	s.mu.Lock()
	if s.closed || s.state != StateIdle {
		s.mu.Unlock()
		return s.Outcome()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state = StateLoading
	s.mu.Unlock()
	defer cancel()

	doc, err := s.fetcher.FetchDocument(ctx, s.file.ID)
	if err != nil {
		s.settleError(errorText(err))
		return s.Outcome()
	}

	ok, msg := Validate(doc.Body, doc.ContentType)
	if !ok {
		s.settleError(msg)
		return s.Outcome()
	}

	h, err := s.handles.Allocate(s.file.Name, doc.Body)
	if err != nil {
		s.settleError(err.Error())
		return s.Outcome()
	}
	s.settleReady(h)
	return s.Outcome()
}

// Outcome returns a snapshot of the session.
func (s *Session) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Outcome{
		SessionID: s.id,
		State:     s.state,
		Loading:   s.state == StateLoading,
		Error:     s.errMsg,
		Handle:    s.handle,
		Closed:    s.closed,
	}
}

// Close tears the session down: the in-flight fetch is cancelled and the
// handle, if any, is released. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancel
	h := s.handle
	s.handle = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return s.handles.Release(h)
}

func (s *Session) settleError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Debug("discarding preview error for closed session",
			"session", s.id, "file", s.file.ID)
		return
	}
	s.state = StateErrored
	s.errMsg = msg
	s.logger.Info("preview failed", "session", s.id, "file", s.file.ID)
}

func (s *Session) settleReady(h *Handle) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		if err := s.handles.Release(h); err != nil {
			s.logger.Warn("releasing late handle", "err", err)
		}
		return
	}
	s.state = StateReady
	s.handle = h
	s.mu.Unlock()
}

// errorText serializes a transport error for display without reducing it
// to a category.
func errorText(err error) string {
	var netErr *backend.NetworkError
	if errors.As(err, &netErr) {
		return netErr.JSON()
	}
	data, jerr := json.Marshal(map[string]string{"message": err.Error()})
	if jerr != nil {
		return err.Error()
	}
	return string(data)
}
