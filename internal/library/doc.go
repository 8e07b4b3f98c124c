// Package library defines the Book entity delivered by scan events. Books are
// owned by the wider library server; this pipeline reads them, records the
// omnibus classification, and derives virtual books from their archives.
package library
