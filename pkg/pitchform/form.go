package pitchform

import "sort"

// RollingForm summarizes a team's results over a window of prior matches.
// Played counts the matches actually available, which may be fewer than the
// window size early in the data. With zero priors all metrics are nil.
type RollingForm struct {
	Played  int
	WinRate *float64 // wins / played
	PPG     *float64 // points per game
	GDAvg   *float64 // mean goal difference
}

// summarize computes rolling form over the given prior records
func summarize(priors []*TeamMatchRecord) *RollingForm {
	form := &RollingForm{Played: len(priors)}
	if len(priors) == 0 {
		return form
	}

	wins := 0
	points := 0
	goalDiff := 0
	for _, r := range priors {
		if r.Result == ResultWin {
			wins++
		}
		points += r.Points
		goalDiff += r.GoalsFor - r.GoalsAgainst
	}

	n := float64(len(priors))
	winRate := float64(wins) / n
	ppg := float64(points) / n
	gdAvg := float64(goalDiff) / n

	form.WinRate = &winRate
	form.PPG = &ppg
	form.GDAvg = &gdAvg
	return form
}

// sortTeamRecords orders records chronologically, breaking kickoff ties by
// ingestion sequence so repeated runs produce identical windows
func sortTeamRecords(records []*TeamMatchRecord) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].Seq < records[j].Seq
	})
}

// ComputeRollingFeatures fills the Form, RoleForm and RestDays fields of
// every record in place. Each record's windows cover only matches strictly
// before it: the window for record i is records [max(0, i-N), i), so a
// match never contributes to its own features.
func ComputeRollingFeatures(records []*TeamMatchRecord) {
	byTeam := make(map[string][]*TeamMatchRecord)
	for _, r := range records {
		byTeam[r.Team] = append(byTeam[r.Team], r)
	}

	windows := GetFormWindows()
	roleWindow := GetRoleFormWindow()

	for team, recs := range byTeam {
		sortTeamRecords(recs)
		clock := NewRestClock()

		for i, rec := range recs {
			rec.Form = make(map[int]*RollingForm, len(windows))
			for _, w := range windows {
				lo := i - w
				if lo < 0 {
					lo = 0
				}
				rec.Form[w] = summarize(recs[lo:i])
			}

			// Most recent prior matches played in the same role, newest
			// first then reversed has no effect on the summary
			var rolePriors []*TeamMatchRecord
			for j := i - 1; j >= 0 && len(rolePriors) < roleWindow; j-- {
				if recs[j].IsHome == rec.IsHome {
					rolePriors = append(rolePriors, recs[j])
				}
			}
			rec.RoleForm = summarize(rolePriors)

			rec.RestDays = clock.Observe(team, rec.Date)
		}
	}
}
