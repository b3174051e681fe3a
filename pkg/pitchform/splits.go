package pitchform

import (
	"fmt"
	"time"
)

// Moneyline market identifier used by betting-split providers
const MarketMoneyline = "h2h"

// BetSplit is one provider row describing how public money landed on one
// side of a market: the share of ticket count (bets) and of staked money
// (handle). Splits are an optional enrichment source; they are joined by
// date and team pair because providers rarely share event identifiers.
type BetSplit struct {
	Date      time.Time
	Home      string
	Away      string
	Market    string
	Side      string
	BetsPct   *float64
	HandlePct *float64
}

// Edge returns handle share minus bet share, nil when either is missing.
// A positive edge means fewer, larger bets: money leaning harder than
// tickets on this side.
func (s *BetSplit) Edge() *float64 {
	if s.BetsPct == nil || s.HandlePct == nil {
		return nil
	}
	e := *s.HandlePct - *s.BetsPct
	return &e
}

// SplitEdges carries the per-side edge for one match
type SplitEdges struct {
	Home *float64
	Draw *float64
	Away *float64
}

// SplitJoinKey builds the (date, home, away) key splits are merged on.
// Team names must already be canonical.
func SplitJoinKey(date time.Time, home, away string) string {
	return fmt.Sprintf("%s|%s|%s", date.UTC().Format("2006-01-02"), home, away)
}

// ComputeSplitEdges aggregates raw split rows into per-match edges, keyed by
// SplitJoinKey. Only moneyline rows participate; sides with no usable row
// stay nil. A later row for the same side replaces an earlier one, matching
// provider feeds where rows are re-published as the market moves.
func ComputeSplitEdges(splits []*BetSplit) map[string]*SplitEdges {
	out := make(map[string]*SplitEdges)
	for _, s := range splits {
		if s.Market != "" && s.Market != MarketMoneyline {
			continue
		}
		edge := s.Edge()
		if edge == nil {
			continue
		}

		key := SplitJoinKey(s.Date, s.Home, s.Away)
		edges := out[key]
		if edges == nil {
			edges = &SplitEdges{}
			out[key] = edges
		}
		switch s.Side {
		case SideHome:
			edges.Home = edge
		case SideDraw:
			edges.Draw = edge
		case SideAway:
			edges.Away = edge
		}
	}
	return out
}
