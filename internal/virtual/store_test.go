package virtual_test

import (
	"context"
	"errors"
	"testing"

	"bindery/internal/services"
	"bindery/internal/testsupport"
	"bindery/internal/virtual"
)

func TestUpsertBookMintsStableID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	book := testsupport.NewBook(t, store, "Collected Works", "/library/collected.epub")
	if book.ID == "" {
		t.Fatal("expected an id to be assigned")
	}

	again := testsupport.NewBook(t, store, "Collected Works, Revised", "/library/collected.epub")
	if again.ID != book.ID {
		t.Fatalf("expected stable id across upserts, got %s then %s", book.ID, again.ID)
	}
	if again.Title != "Collected Works, Revised" {
		t.Fatalf("expected refreshed title, got %q", again.Title)
	}
}

func TestGetBookNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.GetBook(context.Background(), "missing")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func newSet(count int) []*virtual.VirtualBook {
	set := make([]*virtual.VirtualBook, 0, count)
	for i := 1; i <= count; i++ {
		number := string(rune('0' + i))
		set = append(set, &virtual.VirtualBook{
			Title:      "Work " + number,
			SortTitle:  "work " + number,
			Number:     number,
			NumberSort: float64(i),
			Anchor:     "work" + number + ".xhtml",
			Metadata:   virtual.Metadata{Title: "Work " + number},
		})
	}
	return set
}

func TestReplaceForOmnibusOrdersAndAssignsIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.NewBook(t, store, "Omnibus", "/library/omnibus.epub")
	persisted, err := store.ReplaceForOmnibus(ctx, book.ID, newSet(3))
	if err != nil {
		t.Fatalf("ReplaceForOmnibus failed: %v", err)
	}
	if len(persisted) != 3 {
		t.Fatalf("expected 3 virtual books, got %d", len(persisted))
	}
	for i, vb := range persisted {
		if vb.ID == "" {
			t.Fatalf("entry %d has no id", i)
		}
		if vb.NumberSort != float64(i+1) {
			t.Fatalf("expected number_sort %d at index %d, got %v", i+1, i, vb.NumberSort)
		}
	}
}

func TestReplaceForOmnibusIsAtomic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.NewBook(t, store, "Omnibus", "/library/omnibus.epub")
	if _, err := store.ReplaceForOmnibus(ctx, book.ID, newSet(2)); err != nil {
		t.Fatalf("seed ReplaceForOmnibus failed: %v", err)
	}

	// Duplicate number_sort trips the unique constraint partway through the
	// insert loop; the whole replacement must roll back.
	bad := newSet(3)
	bad[2].NumberSort = bad[1].NumberSort
	if _, err := store.ReplaceForOmnibus(ctx, book.ID, bad); err == nil {
		t.Fatal("expected constraint violation")
	}

	remaining, err := store.VirtualBooksForOmnibus(ctx, book.ID)
	if err != nil {
		t.Fatalf("VirtualBooksForOmnibus failed: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected prior set of 2 to survive the failed replace, got %d", len(remaining))
	}
}

func TestReplaceForOmnibusRoundTripsMetadata(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.NewBook(t, store, "Omnibus", "/library/omnibus.epub")
	set := newSet(2)
	set[0].Metadata = virtual.Metadata{
		Title:       "A Study in Scarlet",
		TitleLock:   true,
		Summary:     "Part of omnibus: Omnibus",
		Authors:     []string{"Arthur Conan Doyle"},
		AuthorsLock: true,
		Tags:        []string{"mystery"},
		ISBN:        "9781234567897",
	}

	persisted, err := store.ReplaceForOmnibus(ctx, book.ID, set)
	if err != nil {
		t.Fatalf("ReplaceForOmnibus failed: %v", err)
	}

	got, err := store.GetVirtualBook(ctx, persisted[0].ID)
	if err != nil {
		t.Fatalf("GetVirtualBook failed: %v", err)
	}
	md := got.Metadata
	if md.Title != "A Study in Scarlet" || !md.TitleLock {
		t.Fatalf("title did not round-trip: %#v", md)
	}
	if len(md.Authors) != 1 || md.Authors[0] != "Arthur Conan Doyle" || !md.AuthorsLock {
		t.Fatalf("authors did not round-trip: %#v", md)
	}
	if len(md.Tags) != 1 || md.Tags[0] != "mystery" || md.TagsLock {
		t.Fatalf("tags did not round-trip: %#v", md)
	}
	if md.ISBN != "9781234567897" || md.ISBNLock {
		t.Fatalf("isbn did not round-trip: %#v", md)
	}
}

func TestDeleteBookCascadesVirtualBooks(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.NewBook(t, store, "Omnibus", "/library/omnibus.epub")
	persisted, err := store.ReplaceForOmnibus(ctx, book.ID, newSet(2))
	if err != nil {
		t.Fatalf("ReplaceForOmnibus failed: %v", err)
	}

	deleted, err := store.DeleteBook(ctx, book.ID)
	if err != nil {
		t.Fatalf("DeleteBook failed: %v", err)
	}
	if !deleted {
		t.Fatal("expected deletion to report affected row")
	}

	if _, err := store.GetVirtualBook(ctx, persisted[0].ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected cascade to remove virtual books, got %v", err)
	}
}

func TestListByOmnibusPaginates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.NewBook(t, store, "Omnibus", "/library/omnibus.epub")
	if _, err := store.ReplaceForOmnibus(ctx, book.ID, newSet(5)); err != nil {
		t.Fatalf("ReplaceForOmnibus failed: %v", err)
	}

	page, err := store.ListByOmnibus(ctx, book.ID, 2, 2)
	if err != nil {
		t.Fatalf("ListByOmnibus failed: %v", err)
	}
	if page.TotalItems != 5 {
		t.Fatalf("expected 5 total, got %d", page.TotalItems)
	}
	if page.TotalPages() != 3 {
		t.Fatalf("expected 3 pages, got %d", page.TotalPages())
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items on page 2, got %d", len(page.Items))
	}
	if page.Items[0].NumberSort != 3 || page.Items[1].NumberSort != 4 {
		t.Fatalf("unexpected page ordering: %v, %v", page.Items[0].NumberSort, page.Items[1].NumberSort)
	}
}

func TestResolveOmnibusAndIsOmnibus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	book := testsupport.NewBook(t, store, "Omnibus", "/library/omnibus.epub")

	isOmnibus, err := store.IsOmnibus(ctx, book.ID)
	if err != nil {
		t.Fatalf("IsOmnibus failed: %v", err)
	}
	if isOmnibus {
		t.Fatal("expected book without virtual books to not be an omnibus")
	}

	persisted, err := store.ReplaceForOmnibus(ctx, book.ID, newSet(2))
	if err != nil {
		t.Fatalf("ReplaceForOmnibus failed: %v", err)
	}

	isOmnibus, err = store.IsOmnibus(ctx, book.ID)
	if err != nil {
		t.Fatalf("IsOmnibus failed: %v", err)
	}
	if !isOmnibus {
		t.Fatal("expected book with virtual books to be an omnibus")
	}

	owner, err := store.ResolveOmnibus(ctx, persisted[0].ID)
	if err != nil {
		t.Fatalf("ResolveOmnibus failed: %v", err)
	}
	if owner.ID != book.ID {
		t.Fatalf("expected owner %s, got %s", book.ID, owner.ID)
	}

	if _, err := store.ResolveOmnibus(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestMergeLockedFields(t *testing.T) {
	prior := &virtual.Metadata{
		Title:     "User Title",
		TitleLock: true,
		Summary:   "old summary",
		Tags:      []string{"kept"},
		TagsLock:  true,
	}
	candidate := &virtual.Metadata{
		Title:   "Generated Title",
		Summary: "new summary",
	}

	virtual.MergeLockedFields(candidate, prior)

	if candidate.Title != "User Title" || !candidate.TitleLock {
		t.Fatalf("locked title not preserved: %#v", candidate)
	}
	if candidate.Summary != "new summary" {
		t.Fatalf("unlocked summary should regenerate, got %q", candidate.Summary)
	}
	if len(candidate.Tags) != 1 || candidate.Tags[0] != "kept" || !candidate.TagsLock {
		t.Fatalf("locked tags not preserved: %#v", candidate)
	}
}
