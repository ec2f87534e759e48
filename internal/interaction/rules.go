// Package interaction flags known drug-drug interactions over a resolved
// medication set. The rule table is a small curated lookup, not a clinical
// knowledge base.
package interaction

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PairRule warns when two specific medications appear together. Keys are
// order-independent: the rule for (a, b) also fires for (b, a).
type PairRule struct {
	A       string `yaml:"a"`
	B       string `yaml:"b"`
	Message string `yaml:"message"`
}

// KeywordRule warns when any medication containing Anchor is combined with
// any medication containing one of AnyOf. Matching is by lowercase
// substring, so a rule anchored on "statin" covers the whole drug class.
type KeywordRule struct {
	Anchor  string   `yaml:"anchor"`
	AnyOf   []string `yaml:"any_of"`
	Message string   `yaml:"message"`
}

// Table is the static interaction rule set, loaded once at startup and
// read-only afterwards.
type Table struct {
	pairs    map[string]string // normalized "a-b" key (a < b) -> message
	keywords []KeywordRule
}

// pairKey builds the normalized lookup key for an unordered pair.
func pairKey(a, b string) string {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a > b {
		a, b = b, a
	}
	return a + "-" + b
}

// New builds a rule table. Later pair rules for the same pair overwrite
// earlier ones.
func New(pairs []PairRule, keywords []KeywordRule) (*Table, error) {
	index := make(map[string]string, len(pairs))
	for _, p := range pairs {
		if p.A == "" || p.B == "" || p.Message == "" {
			return nil, fmt.Errorf("incomplete pair rule %q/%q", p.A, p.B)
		}
		index[pairKey(p.A, p.B)] = p.Message
	}
	normalized := make([]KeywordRule, 0, len(keywords))
	for _, k := range keywords {
		if k.Anchor == "" || len(k.AnyOf) == 0 || k.Message == "" {
			return nil, errors.New("incomplete keyword rule")
		}
		anyOf := make([]string, len(k.AnyOf))
		for i, s := range k.AnyOf {
			anyOf[i] = strings.ToLower(strings.TrimSpace(s))
		}
		normalized = append(normalized, KeywordRule{
			Anchor:  strings.ToLower(strings.TrimSpace(k.Anchor)),
			AnyOf:   anyOf,
			Message: k.Message,
		})
	}
	return &Table{pairs: index, keywords: normalized}, nil
}

type rulesFile struct {
	Pairs    []PairRule    `yaml:"pairs"`
	Keywords []KeywordRule `yaml:"keywords"`
}

// LoadFile reads a YAML rule file with `pairs` and `keywords` sections.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-provided rules path is expected
	if err != nil {
		return nil, fmt.Errorf("read interaction rules: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse interaction rules: %w", err)
	}
	t, err := New(f.Pairs, f.Keywords)
	if err != nil {
		return nil, fmt.Errorf("interaction rules %s: %w", path, err)
	}
	return t, nil
}

// Check evaluates every rule against the resolved medication list and
// returns the warnings in discovery order: pair-rule hits over unordered
// pairs first, keyword-rule hits second. Warnings are not deduplicated.
func (t *Table) Check(medications []string) []string {
	lowered := make([]string, len(medications))
	for i, m := range medications {
		lowered[i] = strings.ToLower(strings.TrimSpace(m))
	}

	var warnings []string
	for i := 0; i < len(lowered); i++ {
		for j := i + 1; j < len(lowered); j++ {
			msg, ok := t.pairs[pairKey(lowered[i], lowered[j])]
			if !ok {
				continue
			}
			a, b := lowered[i], lowered[j]
			if a > b {
				a, b = b, a
			}
			warnings = append(warnings, fmt.Sprintf("%s + %s: %s", a, b, msg))
		}
	}

	for _, rule := range t.keywords {
		if matchesKeyword(lowered, rule) {
			warnings = append(warnings, rule.Message)
		}
	}
	return warnings
}

func matchesKeyword(meds []string, rule KeywordRule) bool {
	anchorHit := false
	for _, m := range meds {
		if strings.Contains(m, rule.Anchor) {
			anchorHit = true
			break
		}
	}
	if !anchorHit {
		return false
	}
	for _, m := range meds {
		if strings.Contains(m, rule.Anchor) {
			continue
		}
		for _, s := range rule.AnyOf {
			if strings.Contains(m, s) {
				return true
			}
		}
	}
	return false
}
