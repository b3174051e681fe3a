package pitchform

import (
	"sort"
	"time"
)

// SequenceExample is one supervised training pair for a sequence model: the
// de-vig probability triplets of `lookback` consecutive snapshots as input
// and the following snapshot's triplet as target. Metadata identifies the
// group and target so examples can be traced back to their market.
type SequenceExample struct {
	EventKey   string
	Bookmaker  string
	TargetTime time.Time
	X          [][3]float64 // lookback rows of (home, draw, away)
	Y          [3]float64
}

// snapshot is one complete de-vig triplet at one observation time
type snapshot struct {
	At    time.Time
	Probs [3]float64
}

// BuildLaggedSequences groups de-vig probabilities by (event, bookmaker),
// orders each group's snapshots by observation time and emits every
// fixed-length lagged window. Groups with fewer than lookback+1 complete
// snapshots are excluded entirely, never padded. ComputeDevig must run
// first; quotes whose triplet did not survive de-vig contribute nothing.
func BuildLaggedSequences(quotes []*OddsQuote) []*SequenceExample {
	lookback := GetSequenceLookback()

	type groupKey struct {
		EventKey  string
		Bookmaker string
	}
	type partial struct {
		At    time.Time
		Home  *float64
		Draw  *float64
		Away  *float64
	}
	groups := make(map[groupKey]map[time.Time]*partial)

	for _, q := range quotes {
		if q.Devig == nil {
			continue
		}
		key := groupKey{EventKey: q.EventKey, Bookmaker: q.Bookmaker}
		if groups[key] == nil {
			groups[key] = make(map[time.Time]*partial)
		}
		p := groups[key][q.SnapshotAt]
		if p == nil {
			p = &partial{At: q.SnapshotAt}
			groups[key][q.SnapshotAt] = p
		}
		switch q.Side {
		case SideHome:
			p.Home = q.Devig
		case SideDraw:
			p.Draw = q.Devig
		case SideAway:
			p.Away = q.Devig
		}
	}

	// Deterministic group order
	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].EventKey != keys[j].EventKey {
			return keys[i].EventKey < keys[j].EventKey
		}
		return keys[i].Bookmaker < keys[j].Bookmaker
	})

	var examples []*SequenceExample
	for _, key := range keys {
		var snapshots []*snapshot
		for _, p := range groups[key] {
			if p.Home == nil || p.Draw == nil || p.Away == nil {
				continue
			}
			snapshots = append(snapshots, &snapshot{
				At:    p.At,
				Probs: [3]float64{*p.Home, *p.Draw, *p.Away},
			})
		}
		if len(snapshots) < lookback+1 {
			continue
		}
		sort.Slice(snapshots, func(i, j int) bool {
			return snapshots[i].At.Before(snapshots[j].At)
		})

		for t := lookback; t < len(snapshots); t++ {
			x := make([][3]float64, lookback)
			for i := 0; i < lookback; i++ {
				x[i] = snapshots[t-lookback+i].Probs
			}
			examples = append(examples, &SequenceExample{
				EventKey:   key.EventKey,
				Bookmaker:  key.Bookmaker,
				TargetTime: snapshots[t].At,
				X:          x,
				Y:          snapshots[t].Probs,
			})
		}
	}

	return examples
}
