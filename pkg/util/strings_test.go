package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevenshteinDistance(t *testing.T) {
	assert.Equal(t, 0, LevenshteinDistance("arsenal", "arsenal"))
	assert.Equal(t, 1, LevenshteinDistance("arsenal", "arsenol"))
	assert.Equal(t, 7, LevenshteinDistance("arsenal", ""))
	assert.Equal(t, 3, LevenshteinDistance("kitten", "sitting"))
}

func TestSimilarityScore(t *testing.T) {
	assert.InDelta(t, 1.0, SimilarityScore("Arsenal", "arsenal"), 1e-9, "case-insensitive")
	assert.InDelta(t, 1.0, SimilarityScore("", ""), 1e-9)
	assert.InDelta(t, 1.0, SimilarityScore(" Arsenal ", "Arsenal"), 1e-9, "whitespace trimmed")

	score := SimilarityScore("Arsenal", "Arsenol")
	assert.InDelta(t, 1.0-1.0/7.0, score, 1e-9)

	assert.Less(t, SimilarityScore("Arsenal", "Chelsea"), 0.5)
}

func TestGetAsString(t *testing.T) {
	s, err := GetAsString(42)
	require.NoError(t, err)
	assert.Equal(t, "42", s)

	s, err = GetAsString(2.5)
	require.NoError(t, err)
	assert.Equal(t, "2.5", s)

	s, err = GetAsString("already")
	require.NoError(t, err)
	assert.Equal(t, "already", s)

	_, err = GetAsString(nil)
	assert.Error(t, err)
}

func TestGetAsInteger(t *testing.T) {
	i, err := GetAsInteger(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, 42, i)

	i, err = GetAsInteger(42.9)
	require.NoError(t, err)
	assert.Equal(t, 42, i, "floats truncate")

	_, err = GetAsInteger("forty-two")
	assert.Error(t, err)
}

func TestGetAsFloat(t *testing.T) {
	f, err := GetAsFloat("2.50")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, f, 1e-9)

	f, err = GetAsFloat(3)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, f, 1e-9)

	_, err = GetAsFloat("evens")
	assert.Error(t, err)
}
