package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var leadingArticles = []string{"the ", "a ", "an "}

// SortTitle derives a sortable form of a title: leading articles stripped,
// case folded, whitespace collapsed. "The Time Machine" sorts as "time machine".
func SortTitle(title string) string {
	folded := cases.Fold().String(strings.TrimSpace(title))
	for _, article := range leadingArticles {
		if strings.HasPrefix(folded, article) {
			folded = folded[len(article):]
			break
		}
	}
	return strings.Join(strings.Fields(folded), " ")
}

// DeriveTitle builds a display title from a file path when archive metadata
// carries none: separators become spaces, words are title-cased.
func DeriveTitle(sourcePath string) string {
	if sourcePath == "" {
		return "Unknown Book"
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Unknown Book"
	}
	return cases.Title(language.Und).String(title)
}

// Truncate shortens text to at most limit runes, appending an ellipsis when
// content was cut. A non-positive limit returns the text unchanged.
func Truncate(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
