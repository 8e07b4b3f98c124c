package library

import "time"

// MediaTypeEPUB is the only media type the omnibus pipeline splits.
const MediaTypeEPUB = "application/epub+zip"

// Book is a library item backed by a single archive file.
type Book struct {
	ID             string
	Title          string
	Path           string
	MediaType      string
	OmnibusType    string
	FileSize       int64
	FileModifiedAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Fingerprint models the state of the backing file at a point in time. A
// mismatch with the current file signals that derived data is stale.
type Fingerprint struct {
	Size       int64
	ModifiedAt time.Time
}

// Fingerprint returns the book's current source fingerprint.
func (b *Book) Fingerprint() Fingerprint {
	return Fingerprint{Size: b.FileSize, ModifiedAt: b.FileModifiedAt}
}

// Matches reports whether two fingerprints describe the same file state.
func (f Fingerprint) Matches(other Fingerprint) bool {
	return f.Size == other.Size && f.ModifiedAt.Equal(other.ModifiedAt)
}
