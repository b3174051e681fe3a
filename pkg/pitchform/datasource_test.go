package pitchform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBookmakerPrefixes(t *testing.T) {
	header := []string{
		"Div", "Date", "Time", "HomeTeam", "AwayTeam", "FTHG", "FTAG", "FTR",
		"B365H", "B365D", "B365A",
		"B365CH", "B365CD", "B365CA",
		"PSH", "PSD", // incomplete: no PSA
		"WHH", "WHD", "WHA",
	}

	prefixes := DetectBookmakerPrefixes(header)
	byPrefix := make(map[string]oddsPrefix)
	for _, p := range prefixes {
		byPrefix[p.Prefix] = p
	}

	require.Len(t, prefixes, 3)

	assert.Equal(t, "B365", byPrefix["B365"].Bookmaker)
	assert.Equal(t, PhaseOpen, byPrefix["B365"].Phase)

	assert.Equal(t, "B365", byPrefix["B365C"].Bookmaker, "trailing C marks the closing book")
	assert.Equal(t, PhaseClose, byPrefix["B365C"].Phase)

	assert.Equal(t, PhaseOpen, byPrefix["WH"].Phase)
	assert.NotContains(t, byPrefix, "PS", "a prefix without all three sides is ignored")
}

func TestParseKickoff(t *testing.T) {
	k, err := parseKickoff("17/08/2024", "15:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 8, 17, 15, 0, 0, 0, time.UTC), k)

	// Two-digit year layout
	k, err = parseKickoff("17/08/24", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 8, 17, Config.DefaultKickoffHour, 0, 0, 0, time.UTC), k,
		"missing time column gets the fixed default hour")

	_, err = parseKickoff("yesterday", "")
	assert.Error(t, err)
}

const sampleResultsCSV = `Div,Date,Time,HomeTeam,AwayTeam,FTHG,FTAG,FTR,B365H,B365D,B365A,B365CH,B365CD,B365CA
E0,17/08/2024,15:00,Arsenal,Wolves,2,0,H,1.50,4.20,7.00,1.45,4.30,7.50
E0,18/08/2024,,Man United,Chelsea,1,1,D,2.50,3.40,2.90,,3.30,2.80
E0,not-a-date,,Leeds,Everton,1,0,H,2.00,3.00,4.00,2.00,3.00,4.00
E0,19/08/2024,20:00,Everton,Leeds,x,0,H,2.00,3.00,4.00,2.00,3.00,4.00
`

func TestParseResultsCSV(t *testing.T) {
	normalizer := NewNameNormalizer()
	matches, quotes, err := ParseResultsCSV(2024, []byte(sampleResultsCSV), normalizer, 0)
	require.NoError(t, err)

	// The unparseable-date and non-numeric-goals rows are dropped
	require.Len(t, matches, 2)

	first := matches[0]
	assert.Equal(t, "2024-Arsenal-Wolverhampton-2024-08-17", first.EventKey)
	assert.Equal(t, 0, first.Seq)
	assert.Equal(t, time.Date(2024, 8, 17, 15, 0, 0, 0, time.UTC), first.Kickoff)
	assert.Equal(t, "Wolverhampton", first.AwayTeam, "raw names are canonicalized at ingestion")
	assert.Equal(t, SideHome, first.Result)

	second := matches[1]
	assert.Equal(t, "Manchester United", second.HomeTeam)
	assert.Equal(t, 1, second.Seq)
	assert.Equal(t, Config.DefaultKickoffHour, second.Kickoff.Hour())
	assert.Equal(t, SideDraw, second.Result)

	// First row: open and close triplets both complete -> 6 quotes.
	// Second row: closing home price missing -> the whole closing triplet
	// is dropped, only the 3 opening quotes survive.
	var firstQuotes, secondQuotes []*OddsQuote
	for _, q := range quotes {
		switch q.EventKey {
		case first.EventKey:
			firstQuotes = append(firstQuotes, q)
		case second.EventKey:
			secondQuotes = append(secondQuotes, q)
		}
	}
	assert.Len(t, firstQuotes, 6)
	assert.Len(t, secondQuotes, 3)
	for _, q := range secondQuotes {
		assert.Equal(t, PhaseOpen, q.Phase)
	}

	// Snapshot times sit at the configured leads before kickoff
	for _, q := range firstQuotes {
		switch q.Phase {
		case PhaseOpen:
			assert.Equal(t, first.Kickoff.Add(-time.Duration(Config.OpenSnapshotLeadHours)*time.Hour), q.SnapshotAt)
		case PhaseClose:
			assert.Equal(t, first.Kickoff.Add(-time.Duration(Config.CloseSnapshotLeadHours)*time.Hour), q.SnapshotAt)
		}
	}
}

func TestParseResultsCSVMissingColumns(t *testing.T) {
	_, _, err := ParseResultsCSV(2024, []byte("Div,Date\nE0,17/08/2024\n"), NewNameNormalizer(), 0)
	assert.Error(t, err)
}

const sampleRatingsCSV = `Rank,Club,Country,Level,Elo,From,To
1,Man City,ENG,1,2050.5,2024-08-01,2024-08-14
2,Arsenal,ENG,1,1990.25,2024-08-01,2024-08-14
,Arsenal,ENG,1,bad,2024-08-15,2024-08-31
`

func TestParseRatingsCSV(t *testing.T) {
	ratings, err := ParseRatingsCSV([]byte(sampleRatingsCSV), NewNameNormalizer())
	require.NoError(t, err)
	require.Len(t, ratings, 2, "the non-numeric elo row is dropped")

	city := ratings[0]
	assert.Equal(t, "Manchester City", city.Team)
	assert.InDelta(t, 2050.5, city.Elo, 1e-9)
	assert.Equal(t, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), city.ValidFrom)
	assert.Equal(t, time.Date(2024, 8, 14, 0, 0, 0, 0, time.UTC), city.ValidTo)
	assert.Equal(t, 1, city.Rank)
}

const sampleSplitsCSV = `date,home,away,market,side,bets_pct,handle_pct
2024-08-17,Arsenal,Wolves,h2h,home,60.0,72.5
2024-08-17,Arsenal,Wolves,h2h,away,25.0,
2024-08-17,Arsenal,Wolves,totals,over,50.0,50.0
`

func TestParseSplitsCSV(t *testing.T) {
	splits, err := ParseSplitsCSV([]byte(sampleSplitsCSV), NewNameNormalizer())
	require.NoError(t, err)
	require.Len(t, splits, 3)

	home := splits[0]
	assert.Equal(t, "Wolverhampton", home.Away)
	require.NotNil(t, home.BetsPct)
	require.NotNil(t, home.HandlePct)

	away := splits[1]
	assert.Nil(t, away.HandlePct, "empty percentages stay nil")
}

func TestComputeSplitEdges(t *testing.T) {
	splits, err := ParseSplitsCSV([]byte(sampleSplitsCSV), NewNameNormalizer())
	require.NoError(t, err)

	edges := ComputeSplitEdges(splits)
	key := SplitJoinKey(time.Date(2024, 8, 17, 12, 0, 0, 0, time.UTC), "Arsenal", "Wolverhampton")
	require.Contains(t, edges, key)

	e := edges[key]
	require.NotNil(t, e.Home)
	assert.InDelta(t, 12.5, *e.Home, 1e-9, "handle share minus bet share")
	assert.Nil(t, e.Away, "a side missing a percentage yields no edge")
	assert.Nil(t, e.Draw)
}
