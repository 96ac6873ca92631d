package model

// Folder is a remote grouping of scanned pages. Folders are immutable once
// fetched; which folder is active is selection state held elsewhere.
type Folder struct {
	// ID is the opaque backend identifier.
	ID string `json:"id"`

	// Name is the display name.
	Name string `json:"name"`
}
