package omnibus_test

import (
	"testing"

	"bindery/internal/epub"
	"bindery/internal/omnibus"
)

func TestClassifyPriority(t *testing.T) {
	classifier, err := omnibus.NewClassifier(nil, nil)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	cases := []struct {
		name string
		meta epub.Metadata
		want omnibus.Type
	}{
		{
			name: "publisher beats keyword",
			meta: epub.Metadata{
				Title:     "Complete Works of Charles Dickens",
				Publisher: "Delphi Classics",
				Creators:  []string{"Charles Dickens"},
			},
			want: omnibus.TypeDelphiClassics,
		},
		{
			name: "publisher pattern is case insensitive",
			meta: epub.Metadata{Title: "Novels", Publisher: "DELPHI  CLASSICS"},
			want: omnibus.TypeDelphiClassics,
		},
		{
			name: "title keyword",
			meta: epub.Metadata{Title: "The Sherlock Holmes Omnibus", Publisher: "Penguin"},
			want: omnibus.TypeGeneric,
		},
		{
			name: "keyword matches as substring",
			meta: epub.Metadata{Title: "An Anthology of Ghost Stories"},
			want: omnibus.TypeGeneric,
		},
		{
			name: "multiple creators is the weakest signal",
			meta: epub.Metadata{
				Title:    "Three Novels",
				Creators: []string{"Author One", "Author Two"},
			},
			want: omnibus.TypeGeneric,
		},
		{
			name: "single author plain title",
			meta: epub.Metadata{Title: "Bleak House", Creators: []string{"Charles Dickens"}},
			want: omnibus.TypeNone,
		},
		{
			name: "empty metadata",
			meta: epub.Metadata{},
			want: omnibus.TypeNone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifier.Classify(tc.meta); got != tc.want {
				t.Fatalf("Classify(%q/%q) = %s, want %s", tc.meta.Title, tc.meta.Publisher, got, tc.want)
			}
		})
	}
}

func TestClassifyConfiguredExtensions(t *testing.T) {
	classifier, err := omnibus.NewClassifier(
		map[string][]string{"wordsworth": {`wordsworth\s+editions`}},
		[]string{"bumper edition"},
	)
	if err != nil {
		t.Fatalf("NewClassifier failed: %v", err)
	}

	got := classifier.Classify(epub.Metadata{Title: "Novels", Publisher: "Wordsworth Editions"})
	if got != omnibus.Type("wordsworth") {
		t.Fatalf("expected configured publisher type, got %s", got)
	}

	got = classifier.Classify(epub.Metadata{Title: "The Bumper Edition of Tales"})
	if got != omnibus.TypeGeneric {
		t.Fatalf("expected configured keyword to classify as generic, got %s", got)
	}
}

func TestNewClassifierRejectsBadPattern(t *testing.T) {
	if _, err := omnibus.NewClassifier(map[string][]string{"bad": {"("}}, nil); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestParseType(t *testing.T) {
	if got := omnibus.ParseType("  Delphi_Classics "); got != omnibus.TypeDelphiClassics {
		t.Fatalf("ParseType normalization failed: %s", got)
	}
	if got := omnibus.ParseType(""); got != omnibus.TypeNone {
		t.Fatalf("expected empty to parse as none, got %s", got)
	}
	if omnibus.TypeNone.IsOmnibus() {
		t.Fatal("none must not count as omnibus")
	}
	if !omnibus.TypeGeneric.IsOmnibus() {
		t.Fatal("generic must count as omnibus")
	}
}
