package pitchform

import (
	"fmt"

	"github.com/richard-senior/pitchform/pkg/util"
)

// ParseSeason normalizes any common season representation to the canonical
// YYYY/YYYY form, e.g. "2023-2024", "2023/24" and "2324" all become
// "2023/2024"
func ParseSeason(season any) (string, error) {
	if season == nil {
		return "", fmt.Errorf("must pass a season")
	}
	ss, err := util.GetAsString(season)
	if err != nil {
		return "", err
	}
	// Already the full form, possibly with a hyphen delimiter
	if len(ss) == 9 && ss[4] == '-' {
		return fmt.Sprintf("%s/%s", ss[:4], ss[5:]), nil
	} else if len(ss) == 9 && ss[4] == '/' {
		return ss, nil
	}
	// Short form of the type 2023/24 (delimiter may be a hyphen)
	if len(ss) == 7 && (ss[4] == '-' || ss[4] == '/') {
		return fmt.Sprintf("%s/20%s", ss[:4], ss[5:]), nil
	}
	// Four digits are either a two-digit-pair season code like 2324
	// (consecutive pairs, meaning 2023/2024) or a bare start year like
	// 2023; consecutive pairs are unambiguous because no bare season
	// year reads that way
	if len(ss) == 4 {
		year, err := util.GetAsInteger(ss)
		if err != nil {
			return "", fmt.Errorf("invalid season format: %s", ss)
		}
		first, second := year/100, year%100
		if first+1 == second {
			return fmt.Sprintf("20%02d/20%02d", first, second), nil
		}
		return fmt.Sprintf("%d/%d", year, year+1), nil
	}
	return "", fmt.Errorf("invalid season format: %s", ss)
}

// GetFirstYear returns the starting year of a season in any accepted form
func GetFirstYear(season any) (int, error) {
	s, err := ParseSeason(season)
	if err != nil {
		return 0, err
	}
	return util.GetAsInteger(s[:4])
}

// GetSecondYear returns the finishing year of a season in any accepted form
func GetSecondYear(season any) (int, error) {
	s, err := ParseSeason(season)
	if err != nil {
		return 0, err
	}
	return util.GetAsInteger(s[5:])
}

// IsSameSeason returns true if the two parameters represent the same season
func IsSameSeason(s1 any, s2 any) (bool, error) {
	season1, err := ParseSeason(s1)
	if err != nil {
		return false, err
	}
	season2, err := ParseSeason(s2)
	if err != nil {
		return false, err
	}
	return season1 == season2, nil
}

// SeasonCode encodes a season start year into the two-digit-pair form used
// in results-archive URLs, e.g. 2024 becomes "2425"
func SeasonCode(seasonStart int) string {
	return fmt.Sprintf("%02d%02d", seasonStart%100, (seasonStart+1)%100)
}
