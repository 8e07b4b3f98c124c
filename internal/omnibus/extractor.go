package omnibus

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bindery/internal/epub"
	"bindery/internal/textutil"
)

// Work is a transient descriptor of one embedded title, produced fresh on
// every extraction pass and never persisted.
type Work struct {
	Title       string
	Anchor      string
	Position    int
	Description string
}

// ExtractWorks walks the top-level navigation entries in document order and
// detects work boundaries: an entry starts a new work when it targets a
// different content document than its predecessor. Same-document siblings are
// chapter markers within one work. Returns nil when fewer than minWorks
// distinct works are found, so callers never generate a single virtual book
// that merely duplicates the whole omnibus.
func ExtractWorks(points []epub.NavPoint, minWorks int) []Work {
	if minWorks < 2 {
		minWorks = 2
	}

	var works []Work
	lastPath := ""
	for _, point := range points {
		if point.Path == "" || point.Path == lastPath {
			continue
		}
		lastPath = point.Path
		title := strings.TrimSpace(point.Label)
		if title == "" {
			continue
		}
		works = append(works, Work{
			Title:    title,
			Anchor:   point.Anchor(),
			Position: len(works) + 1,
		})
	}

	if len(works) < minWorks {
		return nil
	}
	return works
}

// AttachDescriptions fills each work's description with a short lead excerpt
// from its start document, capped at limit runes. Best-effort: any failure
// leaves the description empty.
func AttachDescriptions(r *epub.Reader, works []Work, limit int) {
	for i := range works {
		path, _ := epub.SplitAnchor(works[i].Anchor)
		if path == "" {
			continue
		}
		content, err := r.ReadFile(path)
		if err != nil {
			continue
		}
		works[i].Description = leadExcerpt(content, limit)
	}
}

// leadExcerpt pulls the first non-empty paragraph text out of an XHTML document.
func leadExcerpt(content []byte, limit int) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	var excerpt string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.Join(strings.Fields(s.Text()), " ")
		if text == "" {
			return true
		}
		excerpt = text
		return false
	})
	return textutil.Truncate(excerpt, limit)
}
