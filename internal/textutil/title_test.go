package textutil_test

import (
	"testing"

	"bindery/internal/textutil"
)

func TestSortTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The Time Machine", "time machine"},
		{"A Study in Scarlet", "study in scarlet"},
		{"An  Anthology   of Tales", "anthology of tales"},
		{"Theodore's Diary", "theodore's diary"},
		{"  Omnibus  ", "omnibus"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := textutil.SortTitle(tc.in); got != tc.want {
			t.Errorf("SortTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"/library/the_complete_works.epub", "The Complete Works"},
		{"/library/sherlock-holmes.vol.1.epub", "Sherlock Holmes Vol 1"},
		{"", "Unknown Book"},
		{"/library/___.epub", "Unknown Book"},
	}
	for _, tc := range cases {
		if got := textutil.DeriveTitle(tc.in); got != tc.want {
			t.Errorf("DeriveTitle(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := textutil.Truncate("short", 10); got != "short" {
		t.Errorf("Truncate under limit = %q", got)
	}
	if got := textutil.Truncate("a longer sentence", 8); got != "a longer…" {
		t.Errorf("Truncate over limit = %q", got)
	}
	if got := textutil.Truncate("anything", 0); got != "anything" {
		t.Errorf("Truncate with zero limit = %q", got)
	}
}
