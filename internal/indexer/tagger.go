package indexer

import (
	"regexp"
	"sort"
)

// EntityKind names the chunk field a tagger's matches are attached to.
type EntityKind string

const (
	KindSystems  EntityKind = "systems"
	KindFactions EntityKind = "factions"
	KindDates    EntityKind = "dates"
)

// Patterns for the built-in entity families.
const (
	// SystemPattern matches catalog codes (LTT 1234), "<Name> Sector <code>"
	// names and capitalized multi-word runs.
	SystemPattern = `LTT[- ]?\d{4,5}|[A-Z][a-z]+ Sector [A-Z0-9\- ]+|[A-Z][A-Za-z0-9\- ]{2,}`
	// FactionPattern is the closed set of known faction names.
	FactionPattern = `Black Sun Crew|Space Force|Oblivion Fleet|Jerome Archer|Alliance|Empire|Federation`
	// DatePattern matches ISO dates and long-form "Month D, YYYY" dates in the 2000s.
	DatePattern = `\b(20\d{2}-\d{2}-\d{2}|[A-Z][a-z]{2,9}\s+\d{1,2},\s+20\d{2})\b`
)

// Tagger extracts a set of entity strings from text.
type Tagger interface {
	Tag(text string) []string
}

// RegexTagger returns every non-overlapping match of a pattern.
type RegexTagger struct {
	re *regexp.Regexp
}

// NewRegexTagger compiles pattern into a tagger.
func NewRegexTagger(pattern string) (*RegexTagger, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &RegexTagger{re: re}, nil
}

// MustRegexTagger is like NewRegexTagger but panics on an invalid pattern.
func MustRegexTagger(pattern string) *RegexTagger {
	return &RegexTagger{re: regexp.MustCompile(pattern)}
}

// Tag returns the distinct matches in text, sorted.
func (t *RegexTagger) Tag(text string) []string {
	return dedupe(t.re.FindAllString(text, -1))
}

// TagRule binds a tagger to the entity kind its matches belong to.
type TagRule struct {
	Kind   EntityKind
	Tagger Tagger
}

// Annotator applies an ordered list of tag rules to chunks.
// Several rules may share a kind; their matches are merged.
type Annotator struct {
	rules []TagRule
}

// NewAnnotator creates an annotator from rules, applied in order.
func NewAnnotator(rules ...TagRule) *Annotator {
	return &Annotator{rules: rules}
}

// DefaultAnnotator tags systems, factions and dates with the built-in patterns.
func DefaultAnnotator() *Annotator {
	return NewAnnotator(
		TagRule{Kind: KindSystems, Tagger: MustRegexTagger(SystemPattern)},
		TagRule{Kind: KindFactions, Tagger: MustRegexTagger(FactionPattern)},
		TagRule{Kind: KindDates, Tagger: MustRegexTagger(DatePattern)},
	)
}

// Annotate sets the entity fields of c from its text. The three built-in
// kinds are always non-nil; other kinds go to c.Entities.
func (a *Annotator) Annotate(c *Chunk) {
	found := make(map[EntityKind][]string)
	for _, rule := range a.rules {
		found[rule.Kind] = append(found[rule.Kind], rule.Tagger.Tag(c.Text)...)
	}

	c.Systems = dedupe(found[KindSystems])
	c.Factions = dedupe(found[KindFactions])
	c.Dates = dedupe(found[KindDates])

	c.Entities = nil
	for kind, values := range found {
		switch kind {
		case KindSystems, KindFactions, KindDates:
			continue
		}
		if len(values) == 0 {
			continue
		}
		if c.Entities == nil {
			c.Entities = make(map[string][]string)
		}
		c.Entities[string(kind)] = dedupe(values)
	}
}

// dedupe returns the distinct values sorted. The result is never nil so
// empty sets serialize as [].
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
