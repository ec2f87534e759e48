package lexical

import (
	"regexp"

	"github.com/healthmate-tech/rxscan/internal/lexicon"
)

// Resolver finds canonical medications mentioned in corrected text.
type Resolver struct {
	entries []entryPatterns
}

type entryPatterns struct {
	display  string
	patterns []*regexp.Regexp // canonical first, then aliases
}

// NewResolver precompiles whole-word patterns for every canonical name and
// alias in the lexicon.
func NewResolver(lex *lexicon.Lexicon) *Resolver {
	entries := make([]entryPatterns, 0, lex.Size())
	for _, e := range lex.Entries() {
		terms := append([]string{e.Canonical}, e.Aliases...)
		patterns := make([]*regexp.Regexp, 0, len(terms))
		for _, term := range terms {
			patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(term)+`\b`))
		}
		entries = append(entries, entryPatterns{
			display:  lexicon.Display(e.Canonical),
			patterns: patterns,
		})
	}
	return &Resolver{entries: entries}
}

// Resolve returns the canonical display names of every medication whose
// canonical name or alias appears as a whole word in the text. Each entry
// contributes at most once; the result is sorted lexicographically because
// entries are scanned in canonical order. An empty result means no
// medication matched — callers decide how to report that.
func (r *Resolver) Resolve(text string) []string {
	var found []string
	for _, e := range r.entries {
		for _, p := range e.patterns {
			if p.MatchString(text) {
				found = append(found, e.display)
				break
			}
		}
	}
	return found
}
