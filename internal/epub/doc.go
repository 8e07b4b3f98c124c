// Package epub opens EPUB containers and exposes the pieces the omnibus
// pipeline needs: package metadata, the navigation document as an ordered list
// of top-level entries, and spine-ordered content access for work extraction.
package epub
