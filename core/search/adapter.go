package search

import (
	"strings"
	"unicode/utf8"

	"github.com/goto/scout/core/validator"
)

const (
	// DefaultAnalyzer is applied to match clauses when the adapter
	// does not declare one.
	DefaultAnalyzer = "standard"
	// DefaultMatchType is the multi_match type applied when the
	// adapter does not declare one.
	DefaultMatchType = "cross_fields"
)

// Adapter binds a catalog document type to its searchable surface:
// which fields are matched (with optional `field^boost` weights), which
// facets can filter and aggregate it, which sort keys it exposes and
// how matching is analyzed and scored. Adapters are plain configuration
// values; they are declared once at startup and never mutated.
type Adapter struct {
	// DocType is the document type and index name this adapter is
	// registered under.
	DocType string `json:"doc_type" validate:"required"`

	// Fields is the ordered, weighted field list used by match
	// clauses, e.g. "title^2".
	Fields []string `json:"fields" validate:"min=1"`

	// Facets maps facet names (as they appear in request parameters)
	// to their definitions.
	Facets map[string]Facet

	// Sorts maps sort keys to engine field names, e.g.
	// "title" -> "title.raw".
	Sorts map[string]string

	// Analyzer overrides DefaultAnalyzer for match clauses.
	Analyzer string

	// MatchType overrides DefaultMatchType for match clauses.
	MatchType string

	// Fuzzy enables AUTO fuzziness with a prefix length of 2 on match
	// clauses.
	Fuzzy bool

	// Boosters wrap the compiled query in a function_score envelope,
	// in declaration order.
	Boosters []Booster
}

// Validate checks the adapter declaration is complete enough to
// compile queries from.
func (a *Adapter) Validate() error {
	return validator.ValidateStruct(a)
}

func (a *Adapter) analyzer() string {
	if a.Analyzer != "" {
		return a.Analyzer
	}
	return DefaultAnalyzer
}

func (a *Adapter) matchType() string {
	if a.MatchType != "" {
		return a.MatchType
	}
	return DefaultMatchType
}

// completerMinTokenLength drops short fragments (articles, bare
// apostrophe suffixes) from completion tokens.
const completerMinTokenLength = 3

// CompleterTokenize is a quick and dirty tokenizer for the completion
// suggester: it yields the original phrase, every word longer than
// three runes after splitting on spaces and apostrophes, and the
// rejoined simplified phrase, without duplicates.
func CompleterTokenize(value string) []string {
	seen := map[string]bool{value: true}
	out := []string{value}

	var tokens []string
	for _, word := range strings.Fields(value) {
		for _, part := range strings.Split(word, "'") {
			if utf8.RuneCountInString(part) > completerMinTokenLength {
				tokens = append(tokens, part)
			}
		}
	}

	for _, token := range append(tokens, strings.Join(tokens, " ")) {
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}
