package pitchform

import "time"

// RestClock tracks each team's most recent match and yields the recovery gap
// before the next one. A team's first observed match has no gap, which stays
// nil rather than zero; a zero would claim the team played twice in one day.
type RestClock struct {
	last map[string]time.Time
}

// NewRestClock creates an empty rest clock
func NewRestClock() *RestClock {
	return &RestClock{
		last: make(map[string]time.Time),
	}
}

// Observe records a match for the team at the given kickoff and returns the
// days elapsed since the team's previous match, nil on the first.
// Calls must arrive in chronological order per team.
func (c *RestClock) Observe(team string, kickoff time.Time) *float64 {
	prev, seen := c.last[team]
	c.last[team] = kickoff
	if !seen {
		return nil
	}
	days := kickoff.Sub(prev).Hours() / 24.0
	return &days
}

// Reset clears all recorded match times
func (c *RestClock) Reset() {
	c.last = make(map[string]time.Time)
}
