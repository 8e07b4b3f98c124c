package virtual

import "time"

// Metadata is the independently lockable field set of a virtual book. A locked
// field was edited by a user and must survive automated regeneration.
type Metadata struct {
	Title           string
	TitleLock       bool
	Summary         string
	SummaryLock     bool
	Authors         []string
	AuthorsLock     bool
	Tags            []string
	TagsLock        bool
	ISBN            string
	ISBNLock        bool
	ReleaseDate     string
	ReleaseDateLock bool
}

// VirtualBook is a synthesized library entry for one work inside an omnibus.
type VirtualBook struct {
	ID        string
	OmnibusID string
	Title     string
	SortTitle string
	// Number and NumberSort order works within one omnibus; NumberSort matches
	// table-of-contents order and is unique per omnibus.
	Number     string
	NumberSort float64
	// Anchor is the archive-internal reference ("path#fragment") of the work's
	// start, recorded at synthesis time for content resolution.
	Anchor    string
	MediaType string
	Metadata  Metadata
	// Source fingerprint copied from the owning book at creation time.
	SourceFileSize   int64
	SourceModifiedAt time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Page is one page of virtual book results.
type Page struct {
	Items      []*VirtualBook
	Number     int
	Size       int
	TotalItems int
}

// TotalPages derives the page count from the total and page size.
func (p Page) TotalPages() int {
	if p.Size <= 0 {
		if p.TotalItems > 0 {
			return 1
		}
		return 0
	}
	return (p.TotalItems + p.Size - 1) / p.Size
}

// MergeLockedFields copies every locked field value (and its lock flag) from
// prior onto the candidate, preserving user edits across regeneration.
func MergeLockedFields(candidate, prior *Metadata) {
	if candidate == nil || prior == nil {
		return
	}
	if prior.TitleLock {
		candidate.Title = prior.Title
		candidate.TitleLock = true
	}
	if prior.SummaryLock {
		candidate.Summary = prior.Summary
		candidate.SummaryLock = true
	}
	if prior.AuthorsLock {
		candidate.Authors = append([]string(nil), prior.Authors...)
		candidate.AuthorsLock = true
	}
	if prior.TagsLock {
		candidate.Tags = append([]string(nil), prior.Tags...)
		candidate.TagsLock = true
	}
	if prior.ISBNLock {
		candidate.ISBN = prior.ISBN
		candidate.ISBNLock = true
	}
	if prior.ReleaseDateLock {
		candidate.ReleaseDate = prior.ReleaseDate
		candidate.ReleaseDateLock = true
	}
}
