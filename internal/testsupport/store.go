package testsupport

import (
	"context"
	"testing"
	"time"

	"bindery/internal/config"
	"bindery/internal/library"
	"bindery/internal/virtual"
)

// MustOpenStore opens a virtual.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *virtual.Store {
	t.Helper()

	store, err := virtual.Open(cfg)
	if err != nil {
		t.Fatalf("virtual.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewBook upserts a book row for tests using the provided store.
func NewBook(t testing.TB, store *virtual.Store, title, path string) *library.Book {
	t.Helper()

	book, err := store.UpsertBook(context.Background(), &library.Book{
		Title:          title,
		Path:           path,
		FileSize:       1024,
		FileModifiedAt: time.Now().UTC().Truncate(time.Second),
	})
	if err != nil {
		t.Fatalf("store.UpsertBook: %v", err)
	}
	return book
}
