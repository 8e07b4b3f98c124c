package omnibus_test

import (
	"strings"
	"testing"

	"bindery/internal/omnibus"
)

func TestSynthesizeSummary(t *testing.T) {
	work := omnibus.Work{
		Title:       "A Study in Scarlet",
		Position:    1,
		Description: "In the year 1878 I took my degree of Doctor of Medicine.",
	}
	md := omnibus.Synthesize(work, omnibus.SynthesizeOptions{OmnibusTitle: "The Complete Sherlock Holmes"})

	if md.Title != "A Study in Scarlet" {
		t.Fatalf("unexpected title %q", md.Title)
	}
	want := "Part of omnibus: The Complete Sherlock Holmes\n\nIn the year 1878 I took my degree of Doctor of Medicine."
	if md.Summary != want {
		t.Fatalf("unexpected summary %q", md.Summary)
	}
	if md.TitleLock || md.SummaryLock || md.AuthorsLock {
		t.Fatal("synthesized metadata must start unlocked")
	}
}

func TestSynthesizeWithoutDescription(t *testing.T) {
	md := omnibus.Synthesize(omnibus.Work{Title: "The Sign of the Four"}, omnibus.SynthesizeOptions{OmnibusTitle: "Holmes"})
	if md.Summary != "Part of omnibus: Holmes" {
		t.Fatalf("unexpected summary %q", md.Summary)
	}
	if strings.Contains(md.Summary, "\n") {
		t.Fatal("summary without description must stay single line")
	}
}

func TestSynthesizeAuthorInheritance(t *testing.T) {
	authors := []string{"Arthur Conan Doyle"}

	md := omnibus.Synthesize(omnibus.Work{Title: "W"}, omnibus.SynthesizeOptions{OmnibusTitle: "O", Authors: authors})
	if len(md.Authors) != 0 {
		t.Fatalf("authors must not be inherited by default, got %v", md.Authors)
	}

	md = omnibus.Synthesize(omnibus.Work{Title: "W"}, omnibus.SynthesizeOptions{
		OmnibusTitle:   "O",
		InheritAuthors: true,
		Authors:        authors,
	})
	if len(md.Authors) != 1 || md.Authors[0] != "Arthur Conan Doyle" {
		t.Fatalf("expected inherited authors, got %v", md.Authors)
	}
}

func TestNumberForPosition(t *testing.T) {
	number, sort := omnibus.NumberForPosition(3)
	if number != "3" || sort != 3 {
		t.Fatalf("NumberForPosition(3) = %q, %v", number, sort)
	}
}
