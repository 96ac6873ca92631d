package preview

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const handlePrefix = "preview-"

// Handle is a displayable reference to a document materialized on the
// local filesystem. It is valid until released.
type Handle struct {
	ID   string
	Path string
	URL  string
	Size int
}

// HandleStore allocates and releases handles on an afero filesystem and
// tracks the ones still live.
type HandleStore struct {
	fs  afero.Fs
	dir string

	mu   gosync.Mutex
	live map[string]*Handle
}

// NewHandleStore creates a store writing under dir.
func NewHandleStore(fs afero.Fs, dir string) *HandleStore {
	return &HandleStore{
		fs:   fs,
		dir:  dir,
		live: make(map[string]*Handle),
	}
}

// Allocate writes data to a new file and returns its handle. The file
// name keeps the extension of name so external viewers recognize it.
func (s *HandleStore) Allocate(name string, data []byte) (*Handle, error) {
	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating document dir %s: %w", s.dir, err)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".pdf"
	}

	f, err := afero.TempFile(s.fs, s.dir, handlePrefix+"*"+ext)
	if err != nil {
		return nil, fmt.Errorf("allocating handle: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = s.fs.Remove(f.Name())
		return nil, fmt.Errorf("writing handle %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(f.Name())
		return nil, fmt.Errorf("closing handle %s: %w", f.Name(), err)
	}

	h := &Handle{
		ID:   uuid.New().String(),
		Path: f.Name(),
		URL:  "file://" + filepath.ToSlash(f.Name()),
		Size: len(data),
	}

	s.mu.Lock()
	s.live[h.ID] = h
	s.mu.Unlock()

	return h, nil
}

// Release deletes the handle's file. Releasing twice is a no-op.
func (s *HandleStore) Release(h *Handle) error {
	if h == nil {
		return nil
	}

	s.mu.Lock()
	_, ok := s.live[h.ID]
	delete(s.live, h.ID)
	s.mu.Unlock()

	if !ok {
		return nil
	}
	if err := s.fs.Remove(h.Path); err != nil {
		return fmt.Errorf("releasing handle %s: %w", h.Path, err)
	}
	return nil
}

// Live returns the number of handles not yet released.
func (s *HandleStore) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.live)
}

// Open returns the content of a live handle.
func (s *HandleStore) Open(h *Handle) ([]byte, error) {
	return afero.ReadFile(s.fs, h.Path)
}

// PruneStale removes handle files older than maxAge that this store does
// not hold, such as those kept by earlier CLI runs. It returns how many
// files were removed.
func (s *HandleStore) PruneStale(maxAge time.Duration) (int, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading document dir %s: %w", s.dir, err)
	}

	s.mu.Lock()
	held := make(map[string]bool, len(s.live))
	for _, h := range s.live {
		held[h.Path] = true
	}
	s.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), handlePrefix) || e.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if held[path] {
			continue
		}
		if err := s.fs.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
