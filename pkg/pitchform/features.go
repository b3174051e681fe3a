package pitchform

import (
	"fmt"
	"sort"
	"time"

	"github.com/richard-senior/pitchform/internal/logger"
)

// Compile-time check to ensure FeatureRow implements Persistable interface
var _ Persistable = (*FeatureRow)(nil)

// FeatureRow is the wide output record, one per match. The schema is fixed:
// every feature is a named, typed column, and a feature whose join source had
// nothing to offer is nil rather than silently absent. Rows are built once
// and never mutated afterwards.
//
// The rolling-form columns cover the default window sizes. Runs configured
// with other windows still compute them in memory but only windows 5 and 10
// are persisted.
type FeatureRow struct {
	// Primary key
	EventKey string `json:"eventKey" column:"event_key" dbtype:"TEXT" primary:"true" index:"true"`

	Seq         int       `json:"seq" column:"seq" dbtype:"INTEGER DEFAULT -1" index:"true"`
	SeasonStart int       `json:"seasonStart" column:"season_start" dbtype:"INTEGER DEFAULT -1" index:"true"`
	Kickoff     time.Time `json:"kickoff" column:"kickoff" dbtype:"DATETIME" index:"true"`
	HomeTeam    string    `json:"homeTeam" column:"home_team" dbtype:"TEXT NOT NULL"`
	AwayTeam    string    `json:"awayTeam" column:"away_team" dbtype:"TEXT NOT NULL"`

	// Ratings at kickoff
	HomeElo *float64 `json:"homeElo" column:"home_elo" dbtype:"REAL"`
	AwayElo *float64 `json:"awayElo" column:"away_elo" dbtype:"REAL"`

	// Consensus probabilities per phase and the close-open delta
	ConsHomeOpen   *float64 `json:"consHomeOpen" column:"cons_home_open" dbtype:"REAL"`
	ConsDrawOpen   *float64 `json:"consDrawOpen" column:"cons_draw_open" dbtype:"REAL"`
	ConsAwayOpen   *float64 `json:"consAwayOpen" column:"cons_away_open" dbtype:"REAL"`
	ConsHomeClose  *float64 `json:"consHomeClose" column:"cons_home_close" dbtype:"REAL"`
	ConsDrawClose  *float64 `json:"consDrawClose" column:"cons_draw_close" dbtype:"REAL"`
	ConsAwayClose  *float64 `json:"consAwayClose" column:"cons_away_close" dbtype:"REAL"`
	ConsHomeDelta  *float64 `json:"consHomeDelta" column:"cons_home_delta" dbtype:"REAL"`
	ConsDrawDelta  *float64 `json:"consDrawDelta" column:"cons_draw_delta" dbtype:"REAL"`
	ConsAwayDelta  *float64 `json:"consAwayDelta" column:"cons_away_delta" dbtype:"REAL"`

	// Rolling form for the home team
	HomeWinRate5  *float64 `json:"homeWinRate5" column:"home_win_rate5" dbtype:"REAL"`
	HomePPG5      *float64 `json:"homePpg5" column:"home_ppg5" dbtype:"REAL"`
	HomeGDAvg5    *float64 `json:"homeGdAvg5" column:"home_gd_avg5" dbtype:"REAL"`
	HomeWinRate10 *float64 `json:"homeWinRate10" column:"home_win_rate10" dbtype:"REAL"`
	HomePPG10     *float64 `json:"homePpg10" column:"home_ppg10" dbtype:"REAL"`
	HomeGDAvg10   *float64 `json:"homeGdAvg10" column:"home_gd_avg10" dbtype:"REAL"`

	// Rolling form for the away team
	AwayWinRate5  *float64 `json:"awayWinRate5" column:"away_win_rate5" dbtype:"REAL"`
	AwayPPG5      *float64 `json:"awayPpg5" column:"away_ppg5" dbtype:"REAL"`
	AwayGDAvg5    *float64 `json:"awayGdAvg5" column:"away_gd_avg5" dbtype:"REAL"`
	AwayWinRate10 *float64 `json:"awayWinRate10" column:"away_win_rate10" dbtype:"REAL"`
	AwayPPG10     *float64 `json:"awayPpg10" column:"away_ppg10" dbtype:"REAL"`
	AwayGDAvg10   *float64 `json:"awayGdAvg10" column:"away_gd_avg10" dbtype:"REAL"`

	// Role-restricted form: home team over its prior home matches, away
	// team over its prior away matches
	HomeRoleWinRate *float64 `json:"homeRoleWinRate" column:"home_role_win_rate" dbtype:"REAL"`
	HomeRolePPG     *float64 `json:"homeRolePpg" column:"home_role_ppg" dbtype:"REAL"`
	HomeRoleGDAvg   *float64 `json:"homeRoleGdAvg" column:"home_role_gd_avg" dbtype:"REAL"`
	AwayRoleWinRate *float64 `json:"awayRoleWinRate" column:"away_role_win_rate" dbtype:"REAL"`
	AwayRolePPG     *float64 `json:"awayRolePpg" column:"away_role_ppg" dbtype:"REAL"`
	AwayRoleGDAvg   *float64 `json:"awayRoleGdAvg" column:"away_role_gd_avg" dbtype:"REAL"`

	// Head-to-head tally from the home team's perspective
	H2HWins   *int `json:"h2hWins" column:"h2h_wins" dbtype:"INTEGER"`
	H2HDraws  *int `json:"h2hDraws" column:"h2h_draws" dbtype:"INTEGER"`
	H2HLosses *int `json:"h2hLosses" column:"h2h_losses" dbtype:"INTEGER"`

	// Recovery gaps
	HomeRestDays *float64 `json:"homeRestDays" column:"home_rest_days" dbtype:"REAL"`
	AwayRestDays *float64 `json:"awayRestDays" column:"away_rest_days" dbtype:"REAL"`

	// Betting-split edges, present only when a splits source was supplied
	SplitEdgeHome *float64 `json:"splitEdgeHome" column:"split_edge_home" dbtype:"REAL"`
	SplitEdgeDraw *float64 `json:"splitEdgeDraw" column:"split_edge_draw" dbtype:"REAL"`
	SplitEdgeAway *float64 `json:"splitEdgeAway" column:"split_edge_away" dbtype:"REAL"`

	// Targets
	Label    string `json:"label" column:"label" dbtype:"TEXT"`
	GoalDiff int    `json:"goalDiff" column:"goal_diff" dbtype:"INTEGER DEFAULT 0"`

	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updatedAt" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// GetTableName returns the table name for feature rows
func (f *FeatureRow) GetTableName() string {
	return "feature_row"
}

// GetPrimaryKey returns the primary key as a map
func (f *FeatureRow) GetPrimaryKey() map[string]interface{} {
	return map[string]any{
		"event_key": f.EventKey,
	}
}

// SetPrimaryKey sets the primary key from a map
func (f *FeatureRow) SetPrimaryKey(pk map[string]interface{}) error {
	if key, ok := pk["event_key"]; ok {
		if keyStr, ok := key.(string); ok {
			f.EventKey = keyStr
			return nil
		}
		return fmt.Errorf("primary key 'event_key' must be a string")
	}
	return fmt.Errorf("primary key 'event_key' not found")
}

// BeforeSave is called before saving the feature row
func (f *FeatureRow) BeforeSave() error {
	now := time.Now()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
	f.UpdatedAt = now
	return nil
}

func (f *FeatureRow) AfterSave() error    { return nil }
func (f *FeatureRow) BeforeDelete() error { return nil }
func (f *FeatureRow) AfterDelete() error  { return nil }

/////////////////////////////////////////////////////////////////////////
////// Assembler
/////////////////////////////////////////////////////////////////////////

// FeatureAssembler joins matches with ratings, consensus odds, rolling form,
// head-to-head history, rest gaps and optional betting splits into one wide
// row per match. Every join is a left join: a missing source nulls its
// features, it never drops the match.
type FeatureAssembler struct {
	ratings *RatingIntervalIndex
	splits  map[string]*SplitEdges
}

// NewFeatureAssembler creates an assembler. Both the ratings index and the
// splits may be nil; their features then come out nil on every row.
func NewFeatureAssembler(ratings *RatingIntervalIndex, splits []*BetSplit) *FeatureAssembler {
	a := &FeatureAssembler{
		ratings: ratings,
	}
	if len(splits) > 0 {
		a.splits = ComputeSplitEdges(splits)
	}
	return a
}

// Assemble builds one FeatureRow per played match. Quotes must be the raw
// quotes for the same matches; de-vig and consensus run here so callers feed
// prices and get probabilities. Rows come back sorted by kickoff then
// ingestion sequence.
func (a *FeatureAssembler) Assemble(matches []*Match, quotes []*OddsQuote) ([]*FeatureRow, error) {
	if len(matches) == 0 {
		return nil, fmt.Errorf("no matches to featurize")
	}

	sorted := make([]*Match, 0, len(matches))
	for _, m := range matches {
		// An unplayed fixture has no result to learn from and must not
		// occupy anyone's form window or rest clock
		if !m.HasBeenPlayed() {
			logger.Debug("Skipping unplayed match", m.EventKey)
			continue
		}
		sorted = append(sorted, m)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Kickoff.Equal(sorted[j].Kickoff) {
			return sorted[i].Kickoff.Before(sorted[j].Kickoff)
		}
		return sorted[i].Seq < sorted[j].Seq
	})

	// Per-team perspective records with rolling form and rest attached
	records := make([]*TeamMatchRecord, 0, len(sorted)*2)
	recordsByEvent := make(map[string][2]*TeamMatchRecord, len(sorted))
	for _, m := range sorted {
		home, away := SplitMatch(m)
		records = append(records, home, away)
		recordsByEvent[m.EventKey] = [2]*TeamMatchRecord{home, away}
	}
	ComputeRollingFeatures(records)

	ComputeDevig(quotes)
	consensus := ComputeConsensus(quotes)

	h2h := NewHeadToHeadHistory(sorted)

	rows := make([]*FeatureRow, 0, len(sorted))
	for _, m := range sorted {
		row := &FeatureRow{
			EventKey:    m.EventKey,
			Seq:         m.Seq,
			SeasonStart: m.SeasonStart,
			Kickoff:     m.Kickoff,
			HomeTeam:    m.HomeTeam,
			AwayTeam:    m.AwayTeam,
			Label:       DeriveResult(m.HomeGoals, m.AwayGoals),
			GoalDiff:    m.GoalDiff(),
		}

		if a.ratings != nil {
			row.HomeElo = a.ratings.Lookup(m.HomeTeam, m.Kickoff)
			row.AwayElo = a.ratings.Lookup(m.AwayTeam, m.Kickoff)
		}

		if c, ok := consensus[m.EventKey]; ok {
			if c.Open != nil {
				row.ConsHomeOpen = c.Open.Home
				row.ConsDrawOpen = c.Open.Draw
				row.ConsAwayOpen = c.Open.Away
			}
			if c.Close != nil {
				row.ConsHomeClose = c.Close.Home
				row.ConsDrawClose = c.Close.Draw
				row.ConsAwayClose = c.Close.Away
			}
			delta := c.Delta()
			row.ConsHomeDelta = delta.Home
			row.ConsDrawDelta = delta.Draw
			row.ConsAwayDelta = delta.Away
		}

		pair := recordsByEvent[m.EventKey]
		applyFormFeatures(row, pair[0], pair[1])

		wins, draws, losses := h2h.Tally(m.HomeTeam, m.AwayTeam, m.Kickoff, m.Seq)
		row.H2HWins = &wins
		row.H2HDraws = &draws
		row.H2HLosses = &losses

		if a.splits != nil {
			if edges, ok := a.splits[SplitJoinKey(m.Kickoff, m.HomeTeam, m.AwayTeam)]; ok {
				row.SplitEdgeHome = edges.Home
				row.SplitEdgeDraw = edges.Draw
				row.SplitEdgeAway = edges.Away
			}
		}

		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no played matches to featurize")
	}

	logger.Info("Assembled feature rows", len(rows))
	return rows, nil
}

// applyFormFeatures copies the computed rolling features from the two
// perspective records onto the wide row
func applyFormFeatures(row *FeatureRow, home, away *TeamMatchRecord) {
	if home != nil {
		if f := home.Form[5]; f != nil {
			row.HomeWinRate5, row.HomePPG5, row.HomeGDAvg5 = f.WinRate, f.PPG, f.GDAvg
		}
		if f := home.Form[10]; f != nil {
			row.HomeWinRate10, row.HomePPG10, row.HomeGDAvg10 = f.WinRate, f.PPG, f.GDAvg
		}
		if f := home.RoleForm; f != nil {
			row.HomeRoleWinRate, row.HomeRolePPG, row.HomeRoleGDAvg = f.WinRate, f.PPG, f.GDAvg
		}
		row.HomeRestDays = home.RestDays
	}
	if away != nil {
		if f := away.Form[5]; f != nil {
			row.AwayWinRate5, row.AwayPPG5, row.AwayGDAvg5 = f.WinRate, f.PPG, f.GDAvg
		}
		if f := away.Form[10]; f != nil {
			row.AwayWinRate10, row.AwayPPG10, row.AwayGDAvg10 = f.WinRate, f.PPG, f.GDAvg
		}
		if f := away.RoleForm; f != nil {
			row.AwayRoleWinRate, row.AwayRolePPG, row.AwayRoleGDAvg = f.WinRate, f.PPG, f.GDAvg
		}
		row.AwayRestDays = away.RestDays
	}
}
