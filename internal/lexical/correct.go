// Package lexical corrects OCR text against the medication vocabulary and
// resolves which canonical medications the corrected text mentions.
package lexical

import (
	"log/slog"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/healthmate-tech/rxscan/internal/lexicon"
)

// acceptScore is the similarity a token must exceed before it is rewritten
// to a vocabulary term.
const acceptScore = 75

// minTokenLen is the shortest token considered for correction; shorter
// fragments produce too many false matches.
const minTokenLen = 4

var tokenPattern = regexp.MustCompile(`[A-Za-z0-9]+`)

// Ratio is a symmetric, case-insensitive similarity between two strings on
// a 0-100 scale, derived from normalized Levenshtein distance.
func Ratio(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 100
	}
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}
	longest := max(la, lb)
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(d)/float64(longest))))
}

// Corrector rewrites OCR tokens that closely resemble a vocabulary term.
type Corrector struct {
	lex *lexicon.Lexicon
}

// NewCorrector builds a corrector over the given lexicon.
func NewCorrector(lex *lexicon.Lexicon) *Corrector {
	return &Corrector{lex: lex}
}

// Correct scans every distinct alphanumeric token of the text and replaces
// the first whole-word occurrence of each token whose best vocabulary match
// clears the acceptance threshold. Everything else in the text is preserved.
// A token that fails the threshold stays as-is; it may simply never resolve
// to a medication later.
func (c *Corrector) Correct(text string) string {
	seen := make(map[string]struct{})
	for _, token := range tokenPattern.FindAllString(text, -1) {
		folded := strings.ToLower(token)
		if len(folded) < minTokenLen || isNumeric(folded) {
			continue
		}
		if _, done := seen[folded]; done {
			continue
		}
		seen[folded] = struct{}{}

		term, score := c.bestMatch(folded)
		if score <= acceptScore {
			continue
		}
		replaced := replaceFirstWord(text, folded, term)
		if replaced != text {
			slog.Debug("Corrected OCR token", "token", token, "term", term, "score", score)
			text = replaced
		}
	}
	return text
}

// bestMatch returns the highest-scoring vocabulary term for the token. Ties
// keep the earliest term in the lexicon's fixed scan order, making the
// result deterministic.
func (c *Corrector) bestMatch(token string) (string, int) {
	bestTerm := ""
	bestScore := -1
	for _, term := range c.lex.Terms() {
		if score := Ratio(token, term); score > bestScore {
			bestTerm = term
			bestScore = score
		}
	}
	return bestTerm, bestScore
}

// replaceFirstWord substitutes the first case-insensitive whole-word
// occurrence of token in text.
func replaceFirstWord(text, token, replacement string) string {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(token) + `\b`)
	if err != nil {
		return text
	}
	loc := re.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + replacement + text[loc[1]:]
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
