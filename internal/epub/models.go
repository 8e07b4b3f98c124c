package epub

import "strings"

// Metadata carries the package-level fields read from the OPF document.
type Metadata struct {
	Title       string
	Publisher   string
	Description string
	Language    string
	Date        string
	ISBN        string
	Creators    []string
}

// NavPoint is one top-level entry of the navigation document, in document
// order. Path is fragment-free and resolved against the OPF directory.
type NavPoint struct {
	Label    string
	Path     string
	Fragment string
}

// Anchor rebuilds the archive-internal reference ("path#fragment") recorded on
// virtual books.
func (p NavPoint) Anchor() string {
	if p.Fragment == "" {
		return p.Path
	}
	return p.Path + "#" + p.Fragment
}

// SplitAnchor is the inverse of NavPoint.Anchor.
func SplitAnchor(anchor string) (path, fragment string) {
	return splitFragment(anchor)
}

// splitFragment splits a source reference into the path and fragment identifier.
func splitFragment(src string) (path, fragment string) {
	if src == "" {
		return "", ""
	}
	parts := strings.SplitN(src, "#", 2)
	path = parts[0]
	if len(parts) == 2 {
		fragment = parts[1]
	}
	return path, fragment
}
