package pitchform

import (
	"fmt"
	"sort"
	"time"

	"github.com/richard-senior/pitchform/internal/logger"
)

// Compile-time check to ensure TeamRating implements Persistable interface
var _ Persistable = (*TeamRating)(nil)

// TeamRating is one team's strength rating over a validity interval.
// Both interval endpoints are inclusive dates.
type TeamRating struct {
	// Compound primary key
	Team     string    `json:"team" column:"team" dbtype:"TEXT" primary:"true" index:"true"`
	ValidFrom time.Time `json:"validFrom" column:"valid_from" dbtype:"DATETIME" primary:"true"`

	ValidTo time.Time `json:"validTo" column:"valid_to" dbtype:"DATETIME"`
	Elo     float64   `json:"elo" column:"elo" dbtype:"REAL DEFAULT -1.0"`

	// Provider metadata
	Rank    int    `json:"rank" column:"rank" dbtype:"INTEGER DEFAULT -1"`
	Country string `json:"country" column:"country" dbtype:"TEXT"`
	Level   int    `json:"level" column:"level" dbtype:"INTEGER DEFAULT -1"`

	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updatedAt" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// GetTableName returns the table name for team ratings
func (r *TeamRating) GetTableName() string {
	return "team_rating"
}

// GetPrimaryKey returns the compound primary key as a map
func (r *TeamRating) GetPrimaryKey() map[string]interface{} {
	return map[string]any{
		"team":       r.Team,
		"valid_from": r.ValidFrom,
	}
}

// SetPrimaryKey sets the compound primary key from a map
func (r *TeamRating) SetPrimaryKey(pk map[string]interface{}) error {
	team, ok := pk["team"]
	if !ok {
		return fmt.Errorf("primary key 'team' not found")
	}
	teamStr, ok := team.(string)
	if !ok {
		return fmt.Errorf("primary key 'team' must be a string")
	}
	from, ok := pk["valid_from"]
	if !ok {
		return fmt.Errorf("primary key 'valid_from' not found")
	}
	fromTime, ok := from.(time.Time)
	if !ok {
		return fmt.Errorf("primary key 'valid_from' must be a time")
	}
	r.Team = teamStr
	r.ValidFrom = fromTime
	return nil
}

// BeforeSave is called before saving the rating
func (r *TeamRating) BeforeSave() error {
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	return nil
}

func (r *TeamRating) AfterSave() error    { return nil }
func (r *TeamRating) BeforeDelete() error { return nil }
func (r *TeamRating) AfterDelete() error  { return nil }

/////////////////////////////////////////////////////////////////////////
////// Interval Index
/////////////////////////////////////////////////////////////////////////

// RatingIntervalIndex answers point-in-time rating lookups over a set of
// dated validity intervals. Lookups resolve to exactly one interval or
// nothing; zero or multiple covering intervals both yield nil so a broken
// ratings feed degrades features instead of corrupting them.
type RatingIntervalIndex struct {
	byTeam map[string]*ratingSeries
}

// ratingSeries holds one team's intervals sorted by start bound, plus a
// running maximum of end bounds so lookups can rule out coverage by any
// earlier interval without scanning them all
type ratingSeries struct {
	intervals []*TeamRating
	maxTo     []time.Time // maxTo[i] = latest ValidTo among intervals[0..i]
}

// NewRatingIntervalIndex builds an index over the given ratings.
// Overlapping intervals for a team are reported but kept; the lookup treats
// any multiply-covered day as unresolvable.
func NewRatingIntervalIndex(ratings []*TeamRating) *RatingIntervalIndex {
	idx := &RatingIntervalIndex{
		byTeam: make(map[string]*ratingSeries),
	}
	for _, r := range ratings {
		series := idx.byTeam[r.Team]
		if series == nil {
			series = &ratingSeries{}
			idx.byTeam[r.Team] = series
		}
		series.intervals = append(series.intervals, r)
	}

	for team, series := range idx.byTeam {
		intervals := series.intervals
		sort.Slice(intervals, func(i, j int) bool {
			if !intervals[i].ValidFrom.Equal(intervals[j].ValidFrom) {
				return intervals[i].ValidFrom.Before(intervals[j].ValidFrom)
			}
			return intervals[i].ValidTo.Before(intervals[j].ValidTo)
		})

		series.maxTo = make([]time.Time, len(intervals))
		for i, r := range intervals {
			series.maxTo[i] = r.ValidTo
			if i > 0 && series.maxTo[i-1].After(r.ValidTo) {
				series.maxTo[i] = series.maxTo[i-1]
			}
			if i > 0 && !r.ValidFrom.After(series.maxTo[i-1]) {
				// Endpoints are inclusive, so adjacency requires strict
				// ordering
				logger.Warn("Overlapping rating intervals for team", team,
					"around", r.ValidFrom.Format("2006-01-02"))
			}
		}
	}

	return idx
}

// Teams returns the canonical team names present in the index
func (idx *RatingIntervalIndex) Teams() []string {
	teams := make([]string, 0, len(idx.byTeam))
	for team := range idx.byTeam {
		teams = append(teams, team)
	}
	sort.Strings(teams)
	return teams
}

// Lookup returns the rating valid for the team on the given instant, or nil
// when no interval (or more than one) covers it. Interval endpoints have date
// granularity, so the instant's time of day is discarded before comparison.
//
// ValidTo is not monotonic under the ValidFrom sort (a long interval can
// enclose later short ones), so coverage is counted across every interval
// starting on or before the day, not just the latest-starting one. The
// maxTo prefix keeps that scan from running at all when the data is
// disjoint.
func (idx *RatingIntervalIndex) Lookup(team string, at time.Time) *float64 {
	series := idx.byTeam[team]
	if series == nil || len(series.intervals) == 0 {
		return nil
	}
	intervals := series.intervals

	u := at.UTC()
	day := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)

	// First interval starting strictly after the day; everything before it
	// is a coverage candidate
	i := sort.Search(len(intervals), func(i int) bool {
		return intervals[i].ValidFrom.After(day)
	})
	if i == 0 {
		return nil
	}
	if day.After(series.maxTo[i-1]) {
		return nil
	}

	var found *TeamRating
	if !day.After(intervals[i-1].ValidTo) {
		found = intervals[i-1]
	}

	// Earlier intervals can only cover the day when the prefix maximum
	// reaches it
	if i >= 2 && !day.After(series.maxTo[i-2]) {
		for j := i - 2; j >= 0; j-- {
			if day.After(intervals[j].ValidTo) {
				continue
			}
			if found != nil {
				logger.Warn("Ambiguous rating lookup for team", team, "on", day.Format("2006-01-02"))
				return nil
			}
			found = intervals[j]
		}
	}

	if found == nil {
		return nil
	}
	elo := found.Elo
	return &elo
}
