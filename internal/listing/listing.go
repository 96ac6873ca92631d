package listing

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/bep/debounce"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/epaper/internal/backend"
	"github.com/nhle/epaper/internal/model"
)

// DefaultWindow is the quiescence period that coalesces listing requests.
const DefaultWindow = 300 * time.Millisecond

// fetchTimeout is the maximum time allowed for a single listing fetch.
const fetchTimeout = 30 * time.Second

// FileLister is the backend surface the listing needs.
type FileLister interface {
	ListFiles(ctx context.Context, folderID string) ([]backend.Entry, error)
	ThumbnailURL(fileName string) string
}

// ResultMsg is a tea.Msg sent when the latest issued listing settles.
// Responses to superseded requests are never delivered.
type ResultMsg struct {
	Seq      uint64
	FolderID string
	Files    []model.FileRecord
	Err      error
}

// State is a snapshot of the listing.
type State struct {
	FolderID string
	Files    []model.FileRecord
	Loading  bool
	Errored  bool
	Seq      uint64
}

// Listing loads the files of a folder. Requests are debounced, and every
// issued request is tagged with a sequence number so that only the
// response to the most recently issued request updates the file set.
type Listing struct {
	client    FileLister
	logger    *slog.Logger
	debounced func(f func())
	resultCh  chan ResultMsg

	mu       gosync.Mutex
	issued   uint64
	pending  bool
	loading  bool
	errored  bool
	folderID string
	files    []model.FileRecord
}

// New creates a Listing over client with the given debounce window.
func New(client FileLister, window time.Duration, logger *slog.Logger) *Listing {
	if logger == nil {
		logger = slog.Default()
	}
	return &Listing{
		client:    client,
		logger:    logger,
		debounced: debounce.New(window),
		resultCh:  make(chan ResultMsg, 16),
	}
}

// Request schedules a listing of folderID ("" selects the default
// listing). Calls arriving within the debounce window replace each other;
// only the last one is issued.
func (l *Listing) Request(folderID string) {
	l.mu.Lock()
	l.pending = true
	l.loading = true
	l.mu.Unlock()

	l.debounced(func() {
		l.issue(context.Background(), folderID)
	})
}

// Load fetches folderID immediately, bypassing the debounce window, and
// applies the result like any other issued request.
func (l *Listing) Load(ctx context.Context, folderID string) ([]model.FileRecord, error) {
	seq := l.next(false)
	files, err := l.fetch(ctx, folderID)
	l.apply(seq, folderID, files, err)
	return files, err
}

// State returns a snapshot of the current listing.
func (l *Listing) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	files := make([]model.FileRecord, len(l.files))
	copy(files, l.files)
	return State{
		FolderID: l.folderID,
		Files:    files,
		Loading:  l.loading,
		Errored:  l.errored,
		Seq:      l.issued,
	}
}

// Results exposes settled listings for non-TUI consumers.
func (l *Listing) Results() <-chan ResultMsg {
	return l.resultCh
}

// WaitForNextResult returns a tea.Cmd that waits for the next settled
// listing. It should be called again after each ResultMsg is handled.
func (l *Listing) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-l.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

// next allocates the sequence number for a request being issued now.
// Only the debounced path consumes the queued trigger.
func (l *Listing) next(debounced bool) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.issued++
	if debounced {
		l.pending = false
	}
	l.loading = true
	return l.issued
}

// issue runs one debounced request to completion.
func (l *Listing) issue(ctx context.Context, folderID string) {
	seq := l.next(true)

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	files, err := l.fetch(ctx, folderID)
	if l.apply(seq, folderID, files, err) {
		l.sendResult(ResultMsg{
			Seq:      seq,
			FolderID: folderID,
			Files:    files,
			Err:      err,
		})
	}
}

// fetch lists folderID and maps the raw entries onto file records.
func (l *Listing) fetch(ctx context.Context, folderID string) ([]model.FileRecord, error) {
	entries, err := l.client.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}

	files := make([]model.FileRecord, 0, len(entries))
	for _, e := range entries {
		files = append(files, model.FileRecord{
			ID:           e.ID,
			Name:         e.Name,
			ThumbnailURL: l.client.ThumbnailURL(e.Name),
		})
	}
	return files, nil
}

// apply installs the outcome of request seq if it is still the latest
// issued request. It reports whether the outcome was applied.
func (l *Listing) apply(seq uint64, folderID string, files []model.FileRecord, err error) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if seq != l.issued {
		l.logger.Debug("discarding superseded listing",
			"seq", seq, "latest", l.issued, "folder", folderID)
		return false
	}

	l.loading = l.pending
	l.folderID = folderID

	if err != nil {
		l.errored = true
		l.files = nil
		l.logger.Warn("loading files failed", "folder", folderID, "err", err)
		return true
	}

	l.files = files
	return true
}

// sendResult sends a ResultMsg on the result channel without blocking.
func (l *Listing) sendResult(msg ResultMsg) {
	select {
	case l.resultCh <- msg:
	default:
		// Drop if channel is full; State still reflects the outcome.
	}
}
