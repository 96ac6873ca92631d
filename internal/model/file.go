package model

// FileRecord describes one remotely stored document.
type FileRecord struct {
	// ID is the opaque backend identifier, stable per remote file.
	ID string `json:"id"`

	// Name is the display name, also used as the attachment file name.
	Name string `json:"name"`

	// ThumbnailURL is a constructed retrieval URL. Thumbnail bytes are
	// never held; the renderer resolves the URL when it needs the image.
	ThumbnailURL string `json:"thumbnail_url"`

	// Path is the backend-local file path. Only the legacy listing fills
	// it; callers must not assume it is set.
	Path string `json:"path,omitempty"`
}

// HasPath reports whether the record carries a legacy backend path.
func (f FileRecord) HasPath() bool {
	return f.Path != ""
}
