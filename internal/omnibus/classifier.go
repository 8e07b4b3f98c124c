package omnibus

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"bindery/internal/epub"
)

// Type identifies how a book was recognized as an omnibus.
type Type string

const (
	TypeNone           Type = "none"
	TypeGeneric        Type = "generic"
	TypeDelphiClassics Type = "delphi_classics"
)

// IsOmnibus reports whether the type marks a book for splitting.
func (t Type) IsOmnibus() bool {
	return t != TypeNone && t != ""
}

// ParseType normalizes a stored type string.
func ParseType(value string) Type {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return TypeNone
	}
	return normalized
}

// genericTitleKeywords is the built-in keyword set signaling a bundled
// edition. Matched case-insensitively as substrings of the title.
var genericTitleKeywords = []string{
	"collected works",
	"complete works",
	"collected",
	"complete",
	"omnibus",
	"collection",
	"anthology",
}

// builtinPublisherPatterns maps publisher-specific omnibus types to the
// patterns that recognize them. Extended, never replaced, by configuration.
var builtinPublisherPatterns = map[Type][]string{
	TypeDelphiClassics: {`delphi\s+classics`, `^delphi\b`},
}

type publisherRule struct {
	omnibusType Type
	pattern     *regexp.Regexp
}

// Classifier applies the omnibus heuristics in priority order: publisher
// pattern, then title keyword, then multiple creators. Deterministic and free
// of side effects.
type Classifier struct {
	publisherRules []publisherRule
	titleKeywords  []string
}

// NewClassifier builds a classifier from the built-in tables plus optional
// extensions (extra publisher patterns keyed by type name, extra keywords).
func NewClassifier(extraPublishers map[string][]string, extraKeywords []string) (*Classifier, error) {
	c := &Classifier{
		titleKeywords: append([]string(nil), genericTitleKeywords...),
	}

	addRules := func(t Type, patterns []string) error {
		for _, pattern := range patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return fmt.Errorf("publisher pattern %q for type %s: %w", pattern, t, err)
			}
			c.publisherRules = append(c.publisherRules, publisherRule{omnibusType: t, pattern: re})
		}
		return nil
	}

	builtinTypes := make([]Type, 0, len(builtinPublisherPatterns))
	for t := range builtinPublisherPatterns {
		builtinTypes = append(builtinTypes, t)
	}
	sort.Slice(builtinTypes, func(i, j int) bool { return builtinTypes[i] < builtinTypes[j] })
	for _, t := range builtinTypes {
		if err := addRules(t, builtinPublisherPatterns[t]); err != nil {
			return nil, err
		}
	}

	extraTypes := make([]string, 0, len(extraPublishers))
	for name := range extraPublishers {
		extraTypes = append(extraTypes, name)
	}
	sort.Strings(extraTypes)
	for _, name := range extraTypes {
		if err := addRules(ParseType(name), extraPublishers[name]); err != nil {
			return nil, err
		}
	}

	for _, keyword := range extraKeywords {
		if trimmed := strings.ToLower(strings.TrimSpace(keyword)); trimmed != "" {
			c.titleKeywords = append(c.titleKeywords, trimmed)
		}
	}

	return c, nil
}

// Classify decides the omnibus type from archive metadata. First match wins,
// strongest signal first: publisher, title keyword, multiple creators.
func (c *Classifier) Classify(meta epub.Metadata) Type {
	publisher := strings.TrimSpace(meta.Publisher)
	if publisher != "" {
		for _, rule := range c.publisherRules {
			if rule.pattern.MatchString(publisher) {
				return rule.omnibusType
			}
		}
	}

	title := strings.ToLower(meta.Title)
	for _, keyword := range c.titleKeywords {
		if strings.Contains(title, keyword) {
			return TypeGeneric
		}
	}

	// Weakest signal, last resort.
	if len(meta.Creators) > 1 {
		return TypeGeneric
	}

	return TypeNone
}
