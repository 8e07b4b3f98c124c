package omnibus

import (
	"strconv"
	"strings"

	"bindery/internal/virtual"
)

// SynthesizeOptions tunes metadata synthesis for one omnibus.
type SynthesizeOptions struct {
	// OmnibusTitle is the title of the source book, referenced in summaries.
	OmnibusTitle string
	// InheritAuthors copies the omnibus author list onto each work. Off by
	// default: derived works carry no attribution to avoid crediting every
	// bundled work to every listed author.
	InheritAuthors bool
	// Authors is the omnibus author list, used only when InheritAuthors is set.
	Authors []string
}

// Synthesize builds the metadata record for one extracted work. Every lock
// flag starts false; tags, isbn, and release date are left empty and are not
// inherited from the omnibus.
func Synthesize(w Work, opts SynthesizeOptions) virtual.Metadata {
	summary := "Part of omnibus: " + strings.TrimSpace(opts.OmnibusTitle)
	if desc := strings.TrimSpace(w.Description); desc != "" {
		summary += "\n\n" + desc
	}

	md := virtual.Metadata{
		Title:   w.Title,
		Summary: summary,
	}
	if opts.InheritAuthors && len(opts.Authors) > 0 {
		md.Authors = append([]string(nil), opts.Authors...)
	}
	return md
}

// NumberForPosition renders a work position as the display number and its
// sortable float form.
func NumberForPosition(position int) (string, float64) {
	return strconv.Itoa(position), float64(position)
}
