package pitchform

import (
	"sort"
	"strings"
	"time"
)

// meeting is one prior encounter between a pair of teams. Winner holds the
// canonical name of the winning team, empty for a draw, so the tally can be
// read from either team's perspective.
type meeting struct {
	Date   time.Time
	Seq    int
	Winner string
}

// pairKey builds an order-independent key for a pair of teams
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// HeadToHeadHistory indexes prior meetings between team pairs regardless of
// which side hosted. Tallies cover only meetings strictly before a given
// kickoff, capped at the most recent K.
type HeadToHeadHistory struct {
	meetings map[string][]*meeting
}

// NewHeadToHeadHistory builds the index from played matches
func NewHeadToHeadHistory(matches []*Match) *HeadToHeadHistory {
	h := &HeadToHeadHistory{
		meetings: make(map[string][]*meeting),
	}
	for _, m := range matches {
		if !m.HasBeenPlayed() {
			continue
		}
		h.Record(m)
	}
	for _, ms := range h.meetings {
		sort.Slice(ms, func(i, j int) bool {
			if !ms[i].Date.Equal(ms[j].Date) {
				return ms[i].Date.Before(ms[j].Date)
			}
			return ms[i].Seq < ms[j].Seq
		})
	}
	return h
}

// Record adds one played match to the index
func (h *HeadToHeadHistory) Record(m *Match) {
	winner := ""
	switch DeriveResult(m.HomeGoals, m.AwayGoals) {
	case SideHome:
		winner = m.HomeTeam
	case SideAway:
		winner = m.AwayTeam
	}
	key := pairKey(m.HomeTeam, m.AwayTeam)
	h.meetings[key] = append(h.meetings[key], &meeting{
		Date:   m.Kickoff,
		Seq:    m.Seq,
		Winner: winner,
	})
}

// Tally counts the most recent K meetings between the two teams strictly
// before the given kickoff, classified from the current home team's
// perspective. The same fixture reversed yields mirrored wins and losses.
// With no prior meetings all counts are zero.
func (h *HeadToHeadHistory) Tally(homeTeam, awayTeam string, kickoff time.Time, seq int) (wins, draws, losses int) {
	all := h.meetings[pairKey(homeTeam, awayTeam)]

	// Meetings are sorted ascending, so walk back from the cutoff
	cut := sort.Search(len(all), func(i int) bool {
		if !all[i].Date.Equal(kickoff) {
			return all[i].Date.After(kickoff)
		}
		return all[i].Seq >= seq
	})

	k := GetHeadToHeadK()
	lo := cut - k
	if lo < 0 {
		lo = 0
	}

	for _, m := range all[lo:cut] {
		switch {
		case m.Winner == "":
			draws++
		case strings.EqualFold(m.Winner, homeTeam):
			wins++
		default:
			losses++
		}
	}
	return wins, draws, losses
}
