package epub_test

import (
	"path/filepath"
	"strings"
	"testing"

	"bindery/internal/epub"
	"bindery/internal/testsupport"
)

func writeFixture(t *testing.T, spec testsupport.BookSpec) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.epub")
	testsupport.WriteEPUB(t, path, spec)
	return path
}

func threeWorkSpec() testsupport.BookSpec {
	return testsupport.BookSpec{
		Title:     "The Complete Sherlock Holmes",
		Publisher: "Delphi Classics",
		Creators:  []string{"Arthur Conan Doyle"},
		Works: []testsupport.WorkSpec{
			{Title: "A Study in Scarlet", Chapters: 2, Excerpt: "In the year 1878."},
			{Title: "The Sign of the Four", Chapters: 2},
			{Title: "The Hound of the Baskervilles", Chapters: 3},
		},
	}
}

func TestOpenParsesMetadata(t *testing.T) {
	path := writeFixture(t, threeWorkSpec())

	r, err := epub.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	meta := r.Metadata()
	if meta.Title != "The Complete Sherlock Holmes" {
		t.Fatalf("unexpected title %q", meta.Title)
	}
	if meta.Publisher != "Delphi Classics" {
		t.Fatalf("unexpected publisher %q", meta.Publisher)
	}
	if len(meta.Creators) != 1 || meta.Creators[0] != "Arthur Conan Doyle" {
		t.Fatalf("unexpected creators %v", meta.Creators)
	}

	spine := r.SpinePaths()
	if len(spine) != 3 {
		t.Fatalf("expected 3 spine documents, got %d", len(spine))
	}
	if spine[0] != "OEBPS/work1.xhtml" {
		t.Fatalf("unexpected first spine path %q", spine[0])
	}
}

func TestOpenRejectsBadMimetype(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notepub.epub")
	testsupport.WriteZip(t, path, map[string]string{
		"mimetype": "application/zip",
	})

	if _, err := epub.Open(path); err == nil {
		t.Fatal("expected mimetype rejection")
	}
}

func TestNavPointsFromNavDoc(t *testing.T) {
	spec := threeWorkSpec()
	spec.ChapterNav = true
	path := writeFixture(t, spec)

	r, err := epub.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	points, err := r.NavPoints()
	if err != nil {
		t.Fatalf("NavPoints failed: %v", err)
	}
	// 3 works + fragment entries for chapters 2..N of each.
	if len(points) != 3+1+1+2 {
		t.Fatalf("expected 7 nav points, got %d", len(points))
	}
	if points[0].Label != "A Study in Scarlet" || points[0].Path != "OEBPS/work1.xhtml" {
		t.Fatalf("unexpected first point %#v", points[0])
	}
	if points[1].Fragment != "ch2" {
		t.Fatalf("expected fragment entry second, got %#v", points[1])
	}
	if points[1].Anchor() != "OEBPS/work1.xhtml#ch2" {
		t.Fatalf("unexpected anchor %q", points[1].Anchor())
	}
}

func TestNavPointsFromNCX(t *testing.T) {
	spec := threeWorkSpec()
	spec.UseNCX = true
	spec.ChapterNav = true
	path := writeFixture(t, spec)

	r, err := epub.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	points, err := r.NavPoints()
	if err != nil {
		t.Fatalf("NavPoints failed: %v", err)
	}
	// Chapter navPoints are nested; only the top level is read.
	if len(points) != 3 {
		t.Fatalf("expected 3 top-level nav points, got %d", len(points))
	}
	if points[2].Label != "The Hound of the Baskervilles" || points[2].Path != "OEBPS/work3.xhtml" {
		t.Fatalf("unexpected third point %#v", points[2])
	}
}

func TestReadSpineRange(t *testing.T) {
	path := writeFixture(t, threeWorkSpec())

	r, err := epub.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	content, err := r.ReadSpineRange("OEBPS/work1.xhtml", "OEBPS/work2.xhtml")
	if err != nil {
		t.Fatalf("ReadSpineRange failed: %v", err)
	}
	text := string(content)
	if !strings.Contains(text, "A Study in Scarlet") {
		t.Fatalf("range missing first work: %s", text)
	}
	if strings.Contains(text, "The Sign of the Four") {
		t.Fatal("range must stop before the next work")
	}

	tail, err := r.ReadSpineRange("OEBPS/work2.xhtml", "")
	if err != nil {
		t.Fatalf("ReadSpineRange to end failed: %v", err)
	}
	if !strings.Contains(string(tail), "The Hound of the Baskervilles") {
		t.Fatal("open-ended range must reach the last work")
	}

	if _, err := r.ReadSpineRange("OEBPS/missing.xhtml", ""); err == nil {
		t.Fatal("expected error for a path outside the spine")
	}
}

func TestFindCoverImage(t *testing.T) {
	spec := threeWorkSpec()
	spec.IncludeCover = true
	path := writeFixture(t, spec)

	r, err := epub.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	cover, ok := r.FindCoverImage()
	if !ok {
		t.Fatal("expected a cover image")
	}
	if cover != "OEBPS/cover.png" {
		t.Fatalf("unexpected cover path %q", cover)
	}
}

func TestSplitAnchor(t *testing.T) {
	path, fragment := epub.SplitAnchor("OEBPS/work1.xhtml#ch2")
	if path != "OEBPS/work1.xhtml" || fragment != "ch2" {
		t.Fatalf("SplitAnchor = %q, %q", path, fragment)
	}
	path, fragment = epub.SplitAnchor("OEBPS/work1.xhtml")
	if path != "OEBPS/work1.xhtml" || fragment != "" {
		t.Fatalf("SplitAnchor without fragment = %q, %q", path, fragment)
	}
}
