package pitchform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAliasTable(t *testing.T) {
	n := NewNameNormalizer()

	assert.Equal(t, "Manchester United", n.Normalize("Man United"))
	assert.Equal(t, "Manchester United", n.Normalize("Man Utd"))
	assert.Equal(t, "Tottenham", n.Normalize("Spurs"))
	assert.Equal(t, "AFC Bournemouth", n.Normalize("Bournemouth"))
	assert.Equal(t, "Wolverhampton", n.Normalize("Wolves"))
}

func TestNormalizePassThrough(t *testing.T) {
	n := NewNameNormalizer()

	// Unknown names come back verbatim, never an error
	assert.Equal(t, "Real Madrid", n.Normalize("Real Madrid"))
	assert.Equal(t, "Arsenal", n.Normalize("  Arsenal  "), "surrounding whitespace is trimmed")
	assert.Equal(t, "", n.Normalize(""))
}

func TestNormalizeFuzzyBackend(t *testing.T) {
	known := []string{"Manchester City", "Manchester United", "Arsenal"}
	n := NewNameNormalizer().
		WithKnownNames(known).
		WithMatcher(LevenshteinMatcher{Threshold: 0.85})

	// One character off clears the threshold
	assert.Equal(t, "Arsenal", n.Normalize("Arsenol"))

	// Distant names fail the threshold and pass through
	assert.Equal(t, "Borussia Dortmund", n.Normalize("Borussia Dortmund"))
}

func TestNormalizeAliasBeatsFuzzy(t *testing.T) {
	n := NewNameNormalizer().
		WithKnownNames([]string{"Manchester City"}).
		WithMatcher(LevenshteinMatcher{Threshold: 0.85})

	// The alias table wins before the fuzzy backend is consulted
	assert.Equal(t, "Manchester United", n.Normalize("Man United"))
}

func TestExactMatcher(t *testing.T) {
	m := ExactMatcher{}

	got, ok := m.Match("arsenal", []string{"Arsenal", "Chelsea"})
	assert.True(t, ok)
	assert.Equal(t, "Arsenal", got)

	got, ok = m.Match("Arsenal FC", []string{"Arsenal", "Chelsea"})
	assert.False(t, ok)
	assert.Equal(t, "Arsenal FC", got)
}

func TestLevenshteinMatcherThreshold(t *testing.T) {
	m := LevenshteinMatcher{Threshold: 0.85}

	got, ok := m.Match("Chelsey", []string{"Chelsea", "Arsenal"})
	assert.True(t, ok, "one character off on a seven letter name")
	assert.Equal(t, "Chelsea", got)

	_, ok = m.Match("Leeds", []string{"Chelsea", "Arsenal"})
	assert.False(t, ok)
}
