package pitchform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func record(team string, date time.Time, seq int, isHome bool, result string, gf, ga int) *TeamMatchRecord {
	points := 0
	switch result {
	case ResultWin:
		points = 3
	case ResultDraw:
		points = 1
	}
	return &TeamMatchRecord{
		Team:         team,
		Date:         date,
		Seq:          seq,
		IsHome:       isHome,
		Result:       result,
		Points:       points,
		GoalsFor:     gf,
		GoalsAgainst: ga,
	}
}

func withWindows(t *testing.T, windows []int) {
	t.Helper()
	saved := Config
	cfg := DefaultPitchformConfig()
	cfg.FormWindows = windows
	require.NoError(t, UpdateConfig(cfg))
	t.Cleanup(func() { Config = saved })
}

func TestRollingFormIsCausal(t *testing.T) {
	withWindows(t, []int{2})

	// Win on day 0, loss on day 7, draw on day 10, all at home
	records := []*TeamMatchRecord{
		record("Arsenal", day(0), 0, true, ResultWin, 2, 0),
		record("Arsenal", day(7), 1, true, ResultLoss, 0, 1),
		record("Arsenal", day(10), 2, true, ResultDraw, 1, 1),
	}
	ComputeRollingFeatures(records)

	// The day-10 window covers only days 0 and 7
	form := records[2].Form[2]
	require.NotNil(t, form)
	assert.Equal(t, 2, form.Played)
	require.NotNil(t, form.PPG)
	assert.InDelta(t, 1.5, *form.PPG, 1e-9, "(3+0)/2 from the two prior matches")
	require.NotNil(t, form.WinRate)
	assert.InDelta(t, 0.5, *form.WinRate, 1e-9)
	require.NotNil(t, form.GDAvg)
	assert.InDelta(t, 0.5, *form.GDAvg, 1e-9, "(+2-1)/2")

	require.NotNil(t, records[2].RestDays)
	assert.InDelta(t, 3.0, *records[2].RestDays, 1e-9)
}

func TestFirstMatchHasNullForm(t *testing.T) {
	withWindows(t, []int{5, 10})

	records := []*TeamMatchRecord{
		record("Arsenal", day(0), 0, true, ResultWin, 2, 0),
		record("Arsenal", day(7), 1, false, ResultLoss, 0, 1),
	}
	ComputeRollingFeatures(records)

	first := records[0]
	for _, w := range []int{5, 10} {
		form := first.Form[w]
		require.NotNil(t, form)
		assert.Equal(t, 0, form.Played)
		assert.Nil(t, form.WinRate, "no history must be nil, not zero")
		assert.Nil(t, form.PPG)
		assert.Nil(t, form.GDAvg)
	}
	assert.Nil(t, first.RoleForm.WinRate)
	assert.Nil(t, first.RestDays)
}

func TestRoleFormSplitsByVenue(t *testing.T) {
	withWindows(t, []int{5})

	// Two home wins, one away loss, then a home match to featurize
	records := []*TeamMatchRecord{
		record("Arsenal", day(0), 0, true, ResultWin, 3, 0),
		record("Arsenal", day(3), 1, true, ResultWin, 2, 1),
		record("Arsenal", day(6), 2, false, ResultLoss, 0, 2),
		record("Arsenal", day(9), 3, true, ResultDraw, 1, 1),
	}
	ComputeRollingFeatures(records)

	// Overall form sees all three priors
	overall := records[3].Form[5]
	require.NotNil(t, overall)
	assert.Equal(t, 3, overall.Played)

	// Role form sees only the two prior home matches
	role := records[3].RoleForm
	require.NotNil(t, role)
	assert.Equal(t, 2, role.Played)
	require.NotNil(t, role.WinRate)
	assert.InDelta(t, 1.0, *role.WinRate, 1e-9)

	// The away match's role form has no prior away matches
	awayRole := records[2].RoleForm
	require.NotNil(t, awayRole)
	assert.Equal(t, 0, awayRole.Played)
	assert.Nil(t, awayRole.PPG)
}

func TestFormTieBreakBySequence(t *testing.T) {
	withWindows(t, []int{2})

	// Two matches at the identical kickoff; ingestion order decides which
	// is "before" the other
	kickoff := day(0)
	records := []*TeamMatchRecord{
		record("Arsenal", kickoff, 1, true, ResultLoss, 0, 1),
		record("Arsenal", kickoff, 0, true, ResultWin, 2, 0),
	}
	ComputeRollingFeatures(records)

	var first, second *TeamMatchRecord
	for _, r := range records {
		if r.Seq == 0 {
			first = r
		} else {
			second = r
		}
	}

	assert.Equal(t, 0, first.Form[2].Played)
	require.Equal(t, 1, second.Form[2].Played)
	require.NotNil(t, second.Form[2].WinRate)
	assert.InDelta(t, 1.0, *second.Form[2].WinRate, 1e-9, "seq 0 is prior to seq 1")
}

func TestRestClock(t *testing.T) {
	clock := NewRestClock()

	assert.Nil(t, clock.Observe("Arsenal", day(0)), "first match has no rest gap")

	rest := clock.Observe("Arsenal", day(7))
	require.NotNil(t, rest)
	assert.InDelta(t, 7.0, *rest, 1e-9)

	// Other teams have independent clocks
	assert.Nil(t, clock.Observe("Chelsea", day(7)))

	// Sub-day gaps come out fractional
	halfDay := clock.Observe("Arsenal", day(7).Add(12*time.Hour))
	require.NotNil(t, halfDay)
	assert.InDelta(t, 0.5, *halfDay, 1e-9)
}
