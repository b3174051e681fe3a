package pitchform

import (
	"fmt"
	"time"
)

// Outcome sides as seen from the fixture
const (
	SideHome = "home"
	SideDraw = "draw"
	SideAway = "away"
)

// Market phases for odds quotes
const (
	PhaseOpen  = "open"
	PhaseClose = "close"
)

// Per-team results
const (
	ResultWin  = "win"
	ResultDraw = "draw"
	ResultLoss = "loss"
)

// Compile-time check to ensure Match implements Persistable interface
var _ Persistable = (*Match)(nil)

// Match represents a completed football match with database persistence
// annotations. Matches are immutable once ingested; Seq records the ingestion
// order and acts as the deterministic secondary sort key wherever kickoff
// timestamps collide.
type Match struct {
	// Primary key
	EventKey string `json:"eventKey" column:"event_key" dbtype:"TEXT" primary:"true" index:"true"`

	// Ingestion sequence number, strictly increasing in input order
	Seq int `json:"seq" column:"seq" dbtype:"INTEGER DEFAULT -1" index:"true"`

	// Info
	SeasonStart int       `json:"seasonStart" column:"season_start" dbtype:"INTEGER DEFAULT -1" index:"true"`
	Kickoff     time.Time `json:"kickoff" column:"kickoff" dbtype:"DATETIME" index:"true"`

	// Canonical team names
	HomeTeam string `json:"homeTeam" column:"home_team" dbtype:"TEXT NOT NULL" index:"true"`
	AwayTeam string `json:"awayTeam" column:"away_team" dbtype:"TEXT NOT NULL" index:"true"`

	// Final score
	HomeGoals int `json:"homeGoals" column:"home_goals" dbtype:"INTEGER DEFAULT -1"`
	AwayGoals int `json:"awayGoals" column:"away_goals" dbtype:"INTEGER DEFAULT -1"`

	// Result is "home", "draw" or "away", derived from the final score
	Result string `json:"result" column:"result" dbtype:"TEXT"`

	// Metadata
	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updatedAt" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// NewMatch creates a new Match with default values for numeric fields.
// Goals default to -1 to distinguish from a valid zero score.
func NewMatch() *Match {
	return &Match{
		Seq:         -1,
		SeasonStart: -1,
		HomeGoals:   -1,
		AwayGoals:   -1,
	}
}

// BuildEventKey derives the unique event id from season, teams and date
func BuildEventKey(seasonStart int, homeTeam, awayTeam string, kickoff time.Time) string {
	return fmt.Sprintf("%d-%s-%s-%s", seasonStart, homeTeam, awayTeam, kickoff.UTC().Format("2006-01-02"))
}

// DeriveResult maps a final score to "home", "draw" or "away"
func DeriveResult(homeGoals, awayGoals int) string {
	switch {
	case homeGoals > awayGoals:
		return SideHome
	case homeGoals < awayGoals:
		return SideAway
	default:
		return SideDraw
	}
}

/////////////////////////////////////////////////////////////////////////
////// Persistable Interface Implementation
/////////////////////////////////////////////////////////////////////////

// GetPrimaryKey returns the primary key as a map
func (m *Match) GetPrimaryKey() map[string]interface{} {
	return map[string]any{
		"event_key": m.EventKey,
	}
}

// SetPrimaryKey sets the primary key from a map
func (m *Match) SetPrimaryKey(pk map[string]interface{}) error {
	if key, ok := pk["event_key"]; ok {
		if keyStr, ok := key.(string); ok {
			m.EventKey = keyStr
			return nil
		}
		return fmt.Errorf("primary key 'event_key' must be a string")
	}
	return fmt.Errorf("primary key 'event_key' not found")
}

// GetTableName returns the table name for matches
func (m *Match) GetTableName() string {
	return "match"
}

// BeforeSave is called before saving the match
func (m *Match) BeforeSave() error {
	if m.Result == "" && m.HasBeenPlayed() {
		m.Result = DeriveResult(m.HomeGoals, m.AwayGoals)
	}

	now := time.Now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	return nil
}

// AfterSave is called after saving the match
func (m *Match) AfterSave() error {
	return nil
}

// BeforeDelete is called before deleting the match
func (m *Match) BeforeDelete() error {
	return nil
}

// AfterDelete is called after deleting the match
func (m *Match) AfterDelete() error {
	return nil
}

/////////////////////////////////////////////////////////////////////////
////// Status Query Methods
/////////////////////////////////////////////////////////////////////////

// HasBeenPlayed determines if the match has a recorded final score
func (m *Match) HasBeenPlayed() bool {
	return m.HomeGoals >= 0 && m.AwayGoals >= 0
}

// GoalDiff returns home goals minus away goals
func (m *Match) GoalDiff() int {
	return m.HomeGoals - m.AwayGoals
}

/////////////////////////////////////////////////////////////////////////
////// Per-Team Perspective Records
/////////////////////////////////////////////////////////////////////////

// TeamMatchRecord is one team's view of one match. Two are generated per
// Match, one from the home perspective and one from the away perspective.
// The rolling form, rest and role-split features computed for the record are
// attached after the fact; nil means no prior history, which must stay
// distinguishable from an observed zero.
type TeamMatchRecord struct {
	EventKey     string
	Team         string
	Opponent     string
	IsHome       bool
	Date         time.Time
	Seq          int
	GoalsFor     int
	GoalsAgainst int
	Result       string // "win", "draw" or "loss"
	Points       int    // 3, 1 or 0

	// Computed rolling features, keyed by window size
	Form map[int]*RollingForm
	// Same computation restricted to records sharing this record's
	// home/away role, fixed window
	RoleForm *RollingForm
	// Days since this team's previous match, nil on the first
	RestDays *float64
}

// SplitMatch generates the two per-team perspective records for a match
func SplitMatch(m *Match) (*TeamMatchRecord, *TeamMatchRecord) {
	home := &TeamMatchRecord{
		EventKey:     m.EventKey,
		Team:         m.HomeTeam,
		Opponent:     m.AwayTeam,
		IsHome:       true,
		Date:         m.Kickoff,
		Seq:          m.Seq,
		GoalsFor:     m.HomeGoals,
		GoalsAgainst: m.AwayGoals,
	}
	away := &TeamMatchRecord{
		EventKey:     m.EventKey,
		Team:         m.AwayTeam,
		Opponent:     m.HomeTeam,
		IsHome:       false,
		Date:         m.Kickoff,
		Seq:          m.Seq,
		GoalsFor:     m.AwayGoals,
		GoalsAgainst: m.HomeGoals,
	}

	switch m.Result {
	case SideHome:
		home.Result, home.Points = ResultWin, 3
		away.Result, away.Points = ResultLoss, 0
	case SideAway:
		home.Result, home.Points = ResultLoss, 0
		away.Result, away.Points = ResultWin, 3
	default:
		home.Result, home.Points = ResultDraw, 1
		away.Result, away.Points = ResultDraw, 1
	}

	return home, away
}
