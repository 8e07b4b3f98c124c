// Package omnibus decides whether a book is a multi-work omnibus, extracts the
// embedded works from its navigation document, and synthesizes per-work
// metadata for the generated virtual books.
package omnibus
