package catalog

import (
	"context"
	"log/slog"
	gosync "sync"

	"github.com/nhle/epaper/internal/backend"
	"github.com/nhle/epaper/internal/model"
)

// FolderLister is the backend surface the catalog needs.
type FolderLister interface {
	ListFolders(ctx context.Context) ([]backend.Entry, error)
}

// ListingTrigger starts a file listing for a folder.
type ListingTrigger interface {
	Request(folderID string)
}

// Catalog holds the folder list and the active folder selection.
type Catalog struct {
	client  FolderLister
	listing ListingTrigger
	logger  *slog.Logger

	mu       gosync.Mutex
	folders  []model.Folder
	selected string
	loadErr  error
}

// New creates a Catalog. Selecting a folder triggers listing.
func New(client FolderLister, listing ListingTrigger, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		client:  client,
		listing: listing,
		logger:  logger,
	}
}

// Load fetches the folder list. On success the list is replaced wholesale
// and, when non-empty, the first folder is selected and its listing is
// triggered. On failure the previous list is left untouched, nothing is
// triggered and the error is logged; callers may ignore it.
func (c *Catalog) Load(ctx context.Context) ([]model.Folder, error) {
	entries, err := c.client.ListFolders(ctx)
	if err != nil {
		c.mu.Lock()
		c.loadErr = err
		c.mu.Unlock()
		c.logger.Warn("failed to load folders", "err", err)
		return nil, err
	}

	folders := make([]model.Folder, 0, len(entries))
	for _, e := range entries {
		folders = append(folders, model.Folder{ID: e.ID, Name: e.Name})
	}

	c.mu.Lock()
	c.folders = folders
	c.loadErr = nil
	c.mu.Unlock()

	c.logger.Debug("folders loaded", "count", len(folders))

	if len(folders) > 0 {
		c.Select(folders[0].ID)
	}

	out := make([]model.Folder, len(folders))
	copy(out, folders)
	return out, nil
}

// Select makes folderID the active folder and triggers its listing.
func (c *Catalog) Select(folderID string) {
	c.mu.Lock()
	c.selected = folderID
	c.mu.Unlock()

	c.listing.Request(folderID)
}

// Folders returns the current folder list.
func (c *Catalog) Folders() []model.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]model.Folder, len(c.folders))
	copy(out, c.folders)
	return out
}

// Selected returns the active folder ID, or "" when none is selected.
func (c *Catalog) Selected() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// LastError returns the error of the most recent failed load, if the
// latest load failed.
func (c *Catalog) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}
