package pitchform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fp is a test helper for building pointer-valued probabilities
func fp(v float64) *float64 {
	return &v
}

func tripletQuotes(eventKey, bookmaker, phase string, home, draw, away float64) []*OddsQuote {
	snapshotAt := time.Date(2024, 8, 17, 11, 0, 0, 0, time.UTC)
	return []*OddsQuote{
		{EventKey: eventKey, Bookmaker: bookmaker, Phase: phase, Side: SideHome, Price: home, SnapshotAt: snapshotAt},
		{EventKey: eventKey, Bookmaker: bookmaker, Phase: phase, Side: SideDraw, Price: draw, SnapshotAt: snapshotAt},
		{EventKey: eventKey, Bookmaker: bookmaker, Phase: phase, Side: SideAway, Price: away, SnapshotAt: snapshotAt},
	}
}

func TestImpliedProbability(t *testing.T) {
	p := ImpliedProbability(2.0)
	require.NotNil(t, p)
	assert.InDelta(t, 0.5, *p, 1e-9)

	assert.Nil(t, ImpliedProbability(1.0), "even money minus the stake carries no information")
	assert.Nil(t, ImpliedProbability(0.0))
	assert.Nil(t, ImpliedProbability(-2.5))
}

func TestDevigNormalizesCompleteTriplet(t *testing.T) {
	quotes := tripletQuotes("ev1", "B365", PhaseOpen, 2.00, 3.40, 4.20)
	ComputeDevig(quotes)

	bySide := make(map[string]*OddsQuote)
	for _, q := range quotes {
		bySide[q.Side] = q
	}

	require.NotNil(t, bySide[SideHome].Implied)
	assert.InDelta(t, 0.500, *bySide[SideHome].Implied, 1e-3)
	assert.InDelta(t, 0.294, *bySide[SideDraw].Implied, 1e-3)
	assert.InDelta(t, 0.238, *bySide[SideAway].Implied, 1e-3)

	require.NotNil(t, bySide[SideHome].Devig)
	require.NotNil(t, bySide[SideDraw].Devig)
	require.NotNil(t, bySide[SideAway].Devig)
	assert.InDelta(t, 0.4845, *bySide[SideHome].Devig, 1e-3)
	assert.InDelta(t, 0.2850, *bySide[SideDraw].Devig, 1e-3)
	assert.InDelta(t, 0.2305, *bySide[SideAway].Devig, 1e-3)

	sum := *bySide[SideHome].Devig + *bySide[SideDraw].Devig + *bySide[SideAway].Devig
	assert.InDelta(t, 1.0, sum, GetFloatTolerance(), "de-vig probabilities must sum to 1")
}

func TestDevigIncompleteTripletIsAllOrNone(t *testing.T) {
	quotes := tripletQuotes("ev1", "B365", PhaseOpen, 2.00, 3.40, 4.20)[:2]
	ComputeDevig(quotes)

	for _, q := range quotes {
		assert.Nil(t, q.Devig, "a partial book must never yield de-vig values")
	}
}

func TestDevigUnusablePricePoisonsTriplet(t *testing.T) {
	quotes := tripletQuotes("ev1", "B365", PhaseOpen, 2.00, 0.0, 4.20)
	ComputeDevig(quotes)

	for _, q := range quotes {
		assert.Nil(t, q.Devig)
	}
}

func TestDevigIsolatesBookmakers(t *testing.T) {
	quotes := tripletQuotes("ev1", "B365", PhaseOpen, 2.00, 3.40, 4.20)
	quotes = append(quotes, tripletQuotes("ev1", "PS", PhaseOpen, 2.10, 3.50, 0.0)...)
	ComputeDevig(quotes)

	for _, q := range quotes {
		if q.Bookmaker == "B365" {
			assert.NotNil(t, q.Devig, "a broken book elsewhere must not affect this one")
		} else {
			assert.Nil(t, q.Devig)
		}
	}
}

func TestConsensusAveragesAcrossBookmakers(t *testing.T) {
	quotes := tripletQuotes("ev1", "B365", PhaseOpen, 2.00, 3.40, 4.20)
	quotes = append(quotes, tripletQuotes("ev1", "PS", PhaseOpen, 2.00, 3.40, 4.20)...)
	ComputeDevig(quotes)

	consensus := ComputeConsensus(quotes)
	require.Contains(t, consensus, "ev1")
	c := consensus["ev1"]
	require.NotNil(t, c.Open)
	assert.Nil(t, c.Close, "no closing quotes were supplied")

	// Identical books, so the mean equals each book's de-vig
	assert.InDelta(t, 0.4845, *c.Open.Home, 1e-3)
	sum := *c.Open.Home + *c.Open.Draw + *c.Open.Away
	assert.InDelta(t, 1.0, sum, GetFloatTolerance())
}

func TestConsensusDelta(t *testing.T) {
	c := &Consensus{
		EventKey: "ev1",
		Open:     &SideProbs{Home: fp(0.55), Draw: fp(0.25), Away: fp(0.20)},
		Close:    &SideProbs{Home: fp(0.50), Draw: fp(0.27), Away: fp(0.23)},
	}

	delta := c.Delta()
	require.NotNil(t, delta.Home)
	assert.InDelta(t, -0.05, *delta.Home, 1e-9)
	assert.InDelta(t, 0.02, *delta.Draw, 1e-9)
	assert.InDelta(t, 0.03, *delta.Away, 1e-9)
}

func TestConsensusDeltaMissingPhase(t *testing.T) {
	c := &Consensus{
		EventKey: "ev1",
		Open:     &SideProbs{Home: fp(0.55), Draw: fp(0.25), Away: fp(0.20)},
	}

	delta := c.Delta()
	assert.Nil(t, delta.Home)
	assert.Nil(t, delta.Draw)
	assert.Nil(t, delta.Away)
}
