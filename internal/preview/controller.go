package preview

import (
	"errors"
	"log/slog"
	gosync "sync"

	"github.com/nhle/epaper/internal/model"
)

// Controller opens preview sessions and closes whatever is still open on
// shutdown.
type Controller struct {
	fetcher DocumentFetcher
	handles *HandleStore
	logger  *slog.Logger

	mu       gosync.Mutex
	sessions map[string]*Session
}

// NewController creates a preview controller.
func NewController(fetcher DocumentFetcher, handles *HandleStore, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		fetcher:  fetcher,
		handles:  handles,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Open creates an idle session for file. The caller drives it with Load
// and must Close it, directly or through the controller.
func (c *Controller) Open(file model.FileRecord) *Session {
	s := NewSession(file, c.fetcher, c.handles, c.logger)

	c.mu.Lock()
	c.sessions[s.ID()] = s
	c.mu.Unlock()

	return s
}

// Close closes the session with the given ID.
func (c *Controller) Close(id string) error {
	c.mu.Lock()
	s, ok := c.sessions[id]
	delete(c.sessions, id)
	c.mu.Unlock()

	if !ok {
		return nil
	}
	return s.Close()
}

// Active returns the number of open sessions.
func (c *Controller) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Shutdown closes every open session.
func (c *Controller) Shutdown() error {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = make(map[string]*Session)
	c.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
