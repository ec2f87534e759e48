package lexicon

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Entry is one canonical medication with its known spelling and brand
// variants. All strings are lowercase normalized.
type Entry struct {
	Canonical string   `yaml:"name" json:"name"`
	Aliases   []string `yaml:"aliases" json:"aliases,omitempty"`
}

// Lexicon is the static medication vocabulary. It is loaded once at startup
// and immutable afterwards; concurrent readers need no locking.
type Lexicon struct {
	entries []Entry  // sorted by canonical name
	terms   []string // canonical and alias strings in deterministic scan order
}

// New builds a Lexicon from entries. Canonical names and aliases are
// lowercased and trimmed; duplicate canonical names are rejected.
func New(entries []Entry) (*Lexicon, error) {
	if len(entries) == 0 {
		return nil, errors.New("lexicon is empty")
	}
	normalized := make([]Entry, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		name := strings.ToLower(strings.TrimSpace(e.Canonical))
		if name == "" {
			return nil, errors.New("lexicon entry with empty canonical name")
		}
		if _, ok := seen[name]; ok {
			return nil, fmt.Errorf("duplicate canonical name %q", name)
		}
		seen[name] = struct{}{}
		aliases := make([]string, 0, len(e.Aliases))
		for _, a := range e.Aliases {
			a = strings.ToLower(strings.TrimSpace(a))
			if a != "" && a != name {
				aliases = append(aliases, a)
			}
		}
		normalized = append(normalized, Entry{Canonical: name, Aliases: aliases})
	}
	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].Canonical < normalized[j].Canonical
	})

	terms := make([]string, 0, len(normalized)*2)
	for _, e := range normalized {
		terms = append(terms, e.Canonical)
		terms = append(terms, e.Aliases...)
	}
	return &Lexicon{entries: normalized, terms: terms}, nil
}

type lexiconFile struct {
	Medications []Entry `yaml:"medications"`
}

// LoadFile reads a YAML lexicon file of the form:
//
//	medications:
//	  - name: amoxicillin
//	    aliases: [amoxil, trimox]
func LoadFile(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-provided lexicon path is expected
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}
	lex, err := New(f.Medications)
	if err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return lex, nil
}

// Entries returns the entries sorted by canonical name.
func (l *Lexicon) Entries() []Entry { return l.entries }

// Terms returns every canonical name and alias in a fixed scan order:
// entries sorted by canonical name, canonical before its aliases. Fuzzy
// matching relies on this order for deterministic tie-breaks.
func (l *Lexicon) Terms() []string { return l.terms }

// Size returns the number of canonical entries.
func (l *Lexicon) Size() int { return len(l.entries) }

// Display converts a lowercase canonical name into its outward-facing
// capitalized form.
func Display(canonical string) string {
	return cases.Title(language.English).String(canonical)
}
