package pitchform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// snapshotQuotes builds one complete de-vigged snapshot for a group
func snapshotQuotes(eventKey, bookmaker string, at time.Time, home, draw, away float64) []*OddsQuote {
	return []*OddsQuote{
		{EventKey: eventKey, Bookmaker: bookmaker, Phase: PhaseOpen, Side: SideHome, SnapshotAt: at, Devig: fp(home)},
		{EventKey: eventKey, Bookmaker: bookmaker, Phase: PhaseOpen, Side: SideDraw, SnapshotAt: at, Devig: fp(draw)},
		{EventKey: eventKey, Bookmaker: bookmaker, Phase: PhaseOpen, Side: SideAway, SnapshotAt: at, Devig: fp(away)},
	}
}

func TestSequencesExcludeShortGroups(t *testing.T) {
	// Exactly lookback snapshots: one short of a single example
	var quotes []*OddsQuote
	for i := 0; i < GetSequenceLookback(); i++ {
		quotes = append(quotes, snapshotQuotes("ev1", "B365", day(0).Add(time.Duration(i)*time.Hour), 0.5, 0.3, 0.2)...)
	}

	examples := BuildLaggedSequences(quotes)
	assert.Empty(t, examples, "groups shorter than lookback+1 are excluded, not padded")
}

func TestSequencesSingleExample(t *testing.T) {
	lookback := GetSequenceLookback()
	var quotes []*OddsQuote
	for i := 0; i <= lookback; i++ {
		p := 0.5 + float64(i)*0.01
		quotes = append(quotes, snapshotQuotes("ev1", "B365", day(0).Add(time.Duration(i)*time.Hour), p, 0.3, 1.0-0.3-p)...)
	}

	examples := BuildLaggedSequences(quotes)
	require.Len(t, examples, 1, "lookback+1 snapshots produce exactly one example")

	ex := examples[0]
	assert.Equal(t, "ev1", ex.EventKey)
	assert.Equal(t, "B365", ex.Bookmaker)
	require.Len(t, ex.X, lookback)

	// Input rows are the oldest snapshots in order; the target is the newest
	assert.InDelta(t, 0.50, ex.X[0][0], 1e-9)
	assert.InDelta(t, 0.50+float64(lookback)*0.01, ex.Y[0], 1e-9)
	assert.Equal(t, day(0).Add(time.Duration(lookback)*time.Hour), ex.TargetTime)
}

func TestSequencesSlideOverLongGroups(t *testing.T) {
	lookback := GetSequenceLookback()
	n := lookback + 3
	var quotes []*OddsQuote
	for i := 0; i < n; i++ {
		quotes = append(quotes, snapshotQuotes("ev1", "B365", day(0).Add(time.Duration(i)*time.Hour), 0.5, 0.3, 0.2)...)
	}

	examples := BuildLaggedSequences(quotes)
	assert.Len(t, examples, n-lookback)
}

func TestSequencesGroupByEventAndBookmaker(t *testing.T) {
	lookback := GetSequenceLookback()
	var quotes []*OddsQuote
	// Each bookmaker alone has only lookback snapshots; they must not pool
	for i := 0; i < lookback; i++ {
		at := day(0).Add(time.Duration(i) * time.Hour)
		quotes = append(quotes, snapshotQuotes("ev1", "B365", at, 0.5, 0.3, 0.2)...)
		quotes = append(quotes, snapshotQuotes("ev1", "PS", at, 0.5, 0.3, 0.2)...)
	}

	examples := BuildLaggedSequences(quotes)
	assert.Empty(t, examples)
}

func TestSequencesSkipIncompleteSnapshots(t *testing.T) {
	lookback := GetSequenceLookback()
	var quotes []*OddsQuote
	for i := 0; i <= lookback; i++ {
		quotes = append(quotes, snapshotQuotes("ev1", "B365", day(0).Add(time.Duration(i)*time.Hour), 0.5, 0.3, 0.2)...)
	}
	// A snapshot whose triplet failed de-vig contributes nothing
	quotes = append(quotes, &OddsQuote{
		EventKey: "ev1", Bookmaker: "B365", Phase: PhaseOpen, Side: SideHome,
		SnapshotAt: day(0).Add(time.Duration(lookback+1) * time.Hour),
	})

	examples := BuildLaggedSequences(quotes)
	assert.Len(t, examples, 1)
}
