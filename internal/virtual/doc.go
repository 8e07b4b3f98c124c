// Package virtual persists virtual books: synthesized library entries that
// represent one work inside an omnibus archive, with no backing file of their
// own. The store backs the lifecycle operations (atomic replace, paginated
// listing, cascade delete) on SQLite.
package virtual
