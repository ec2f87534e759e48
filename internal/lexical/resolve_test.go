package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthmate-tech/rxscan/internal/lexicon"
)

func TestResolve_CanonicalAndAlias(t *testing.T) {
	r := NewResolver(testLexicon(t))

	meds := r.Resolve("Patient took amoxil 500mg and lisinopril 10mg")
	assert.Equal(t, []string{"Amoxicillin", "Lisinopril"}, meds)
}

func TestResolve_SortedOutput(t *testing.T) {
	r := NewResolver(testLexicon(t))

	meds := r.Resolve("lisinopril before ibuprofen before amoxicillin")
	assert.Equal(t, []string{"Amoxicillin", "Ibuprofen", "Lisinopril"}, meds)
}

func TestResolve_OneHitPerEntry(t *testing.T) {
	r := NewResolver(testLexicon(t))

	// Canonical and alias of the same entry both present.
	meds := r.Resolve("ibuprofen also sold as advil")
	assert.Equal(t, []string{"Ibuprofen"}, meds)
}

func TestResolve_WholeWordOnly(t *testing.T) {
	r := NewResolver(testLexicon(t))

	assert.Empty(t, r.Resolve("pseudoibuprofenol is not a medication"))
	assert.Empty(t, r.Resolve(""))
	assert.Equal(t, []string{"Ibuprofen"}, r.Resolve("IBUPROFEN."))
}

func TestResolve_CapitalizedCanonicalOutput(t *testing.T) {
	lex := lexicon.Default()
	r := NewResolver(lex)

	meds := r.Resolve("warfarin and coumadin and WARFARIN")
	require.Len(t, meds, 1)
	assert.Equal(t, "Warfarin", meds[0])
}
