package pitchform

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/richard-senior/pitchform/internal/logger"
	"github.com/richard-senior/pitchform/pkg/transport"
)

const (
	// Results archive, one CSV per season, top flight only
	resultsURLPattern = "https://www.football-data.co.uk/mmz4281/%s/E0.csv"
	// Ratings provider, one CSV per club holding its full interval history
	ratingsURLPattern = "http://api.clubelo.com/%s"
)

/////////////////////////////////////////////////////////////////////////
////// Cached Fetch
/////////////////////////////////////////////////////////////////////////

// fetchCached returns the body for the given URL, serving from the local
// cache when a previous run already fetched it
func fetchCached(name, url string) ([]byte, error) {
	path := filepath.Join(Config.CachePath, name)
	if data, err := os.ReadFile(path); err == nil && len(data) > 0 {
		logger.Debug("Cache hit", path)
		return data, nil
	}

	data, err := transport.GetText(url)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(Config.CachePath, 0o755); err != nil {
		logger.Warn("Failed to create cache directory", err)
	} else if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warn("Failed to write cache file", path, err)
	}

	return data, nil
}

/////////////////////////////////////////////////////////////////////////
////// Results CSV Parsing
/////////////////////////////////////////////////////////////////////////

// oddsPrefix describes one group of bookmaker odds columns in a results CSV
type oddsPrefix struct {
	Prefix    string // column prefix, e.g. "B365" or "B365C"
	Bookmaker string // bookmaker id with any phase marker stripped
	Phase     string // "open" or "close"
}

// DetectBookmakerPrefixes scans a results-CSV header for column groups of
// the shape <prefix>H, <prefix>D, <prefix>A. A prefix with a trailing phase
// marker "C" denotes closing odds under the unmarked bookmaker id; all
// others denote opening odds.
func DetectBookmakerPrefixes(header []string) []oddsPrefix {
	cols := make(map[string]bool, len(header))
	for _, h := range header {
		cols[strings.TrimSpace(h)] = true
	}

	seen := make(map[string]bool)
	var prefixes []oddsPrefix
	for _, h := range header {
		h = strings.TrimSpace(h)
		if !strings.HasSuffix(h, "H") || len(h) < 2 {
			continue
		}
		prefix := h[:len(h)-1]
		if seen[prefix] {
			continue
		}
		if !cols[prefix+"H"] || !cols[prefix+"D"] || !cols[prefix+"A"] {
			continue
		}
		seen[prefix] = true

		p := oddsPrefix{Prefix: prefix, Bookmaker: prefix, Phase: PhaseOpen}
		if strings.HasSuffix(prefix, "C") && len(prefix) > 1 {
			p.Bookmaker = prefix[:len(prefix)-1]
			p.Phase = PhaseClose
		}
		prefixes = append(prefixes, p)
	}
	return prefixes
}

// parseKickoff combines the date and optional time columns into a kickoff
// instant. Sources without a time column get a fixed UTC hour so derived
// keys and orderings stay deterministic across runs.
func parseKickoff(dateStr, timeStr string) (time.Time, error) {
	dateStr = strings.TrimSpace(dateStr)
	var day time.Time
	var err error
	for _, layout := range []string{"02/01/2006", "02/01/06"} {
		day, err = time.ParseInLocation(layout, dateStr, time.UTC)
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q: %w", dateStr, err)
	}

	hour, minute := Config.DefaultKickoffHour, 0
	timeStr = strings.TrimSpace(timeStr)
	if timeStr != "" {
		if t, terr := time.Parse("15:04", timeStr); terr == nil {
			hour, minute = t.Hour(), t.Minute()
		} else {
			logger.Debug("Unparseable kickoff time, using default hour", timeStr)
		}
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC), nil
}

// ParseResultsCSV parses one season's results table into matches and raw
// odds quotes. Rows that fail type coercion are dropped individually; a
// bookmaker triplet with any missing or non-numeric price is dropped as a
// unit. Seq numbering starts at seqStart and follows row order.
func ParseResultsCSV(seasonStart int, data []byte, normalizer *NameNormalizer, seqStart int) ([]*Match, []*OddsQuote, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse results CSV for season %d: %w", seasonStart, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("results CSV for season %d has no data rows", seasonStart)
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"Date", "HomeTeam", "AwayTeam", "FTHG", "FTAG"} {
		if _, ok := col[required]; !ok {
			return nil, nil, fmt.Errorf("results CSV for season %d missing column %s", seasonStart, required)
		}
	}
	prefixes := DetectBookmakerPrefixes(header)
	logger.Debug("Detected bookmaker prefixes", len(prefixes), "for season", seasonStart)

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var matches []*Match
	var quotes []*OddsQuote
	seq := seqStart

	for n, row := range rows[1:] {
		if len(row) == 0 || field(row, "HomeTeam") == "" {
			continue
		}

		kickoff, err := parseKickoff(field(row, "Date"), field(row, "Time"))
		if err != nil {
			logger.Warn("Dropping malformed row", n+2, "in season", seasonStart, err)
			continue
		}
		homeGoals, err := strconv.Atoi(field(row, "FTHG"))
		if err != nil {
			logger.Warn("Dropping row with non-numeric home goals", n+2, "in season", seasonStart)
			continue
		}
		awayGoals, err := strconv.Atoi(field(row, "FTAG"))
		if err != nil {
			logger.Warn("Dropping row with non-numeric away goals", n+2, "in season", seasonStart)
			continue
		}

		home := normalizer.Normalize(field(row, "HomeTeam"))
		away := normalizer.Normalize(field(row, "AwayTeam"))

		m := NewMatch()
		m.EventKey = BuildEventKey(seasonStart, home, away, kickoff)
		m.Seq = seq
		m.SeasonStart = seasonStart
		m.Kickoff = kickoff
		m.HomeTeam = home
		m.AwayTeam = away
		m.HomeGoals = homeGoals
		m.AwayGoals = awayGoals
		m.Result = DeriveResult(homeGoals, awayGoals)
		matches = append(matches, m)
		seq++

		// Approximate snapshot times; the source carries no observation
		// timestamps of its own
		openAt := kickoff.Add(-time.Duration(Config.OpenSnapshotLeadHours) * time.Hour)
		closeAt := kickoff.Add(-time.Duration(Config.CloseSnapshotLeadHours) * time.Hour)

		for _, p := range prefixes {
			triplet, ok := parseTriplet(row, col, p.Prefix)
			if !ok {
				continue
			}
			snapshotAt := openAt
			if p.Phase == PhaseClose {
				snapshotAt = closeAt
			}
			for _, side := range []string{SideHome, SideDraw, SideAway} {
				quotes = append(quotes, &OddsQuote{
					EventKey:   m.EventKey,
					Bookmaker:  p.Bookmaker,
					Phase:      p.Phase,
					Side:       side,
					Price:      triplet[side],
					SnapshotAt: snapshotAt,
				})
			}
		}
	}

	logger.Info("Parsed season", seasonStart, ":", len(matches), "matches,", len(quotes), "quotes")
	return matches, quotes, nil
}

// parseTriplet reads the three prices for one bookmaker prefix. All three
// must parse or the triplet is rejected whole.
func parseTriplet(row []string, col map[string]int, prefix string) (map[string]float64, bool) {
	triplet := make(map[string]float64, 3)
	for suffix, side := range map[string]string{"H": SideHome, "D": SideDraw, "A": SideAway} {
		i, ok := col[prefix+suffix]
		if !ok || i >= len(row) {
			return nil, false
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return nil, false
		}
		triplet[side] = price
	}
	return triplet, true
}

// LoadSeasons fetches and parses every configured season. A season whose
// source cannot be obtained is skipped with a warning; the run only fails
// when no season yields any matches at all.
func LoadSeasons(normalizer *NameNormalizer) ([]*Match, []*OddsQuote, error) {
	var matches []*Match
	var quotes []*OddsQuote
	seq := 0

	for _, seasonStart := range Config.Seasons {
		code := SeasonCode(seasonStart)
		url := fmt.Sprintf(resultsURLPattern, code)
		data, err := fetchCached(fmt.Sprintf("results_%s.csv", code), url)
		if err != nil {
			logger.Warn("Skipping unavailable season", seasonStart, err)
			continue
		}

		m, q, err := ParseResultsCSV(seasonStart, data, normalizer, seq)
		if err != nil {
			logger.Warn("Skipping unparseable season", seasonStart, err)
			continue
		}
		matches = append(matches, m...)
		quotes = append(quotes, q...)
		seq += len(m)
	}

	if len(matches) == 0 {
		return nil, nil, fmt.Errorf("no matches ingested from any configured season")
	}
	return matches, quotes, nil
}

/////////////////////////////////////////////////////////////////////////
////// Ratings
/////////////////////////////////////////////////////////////////////////

// ParseRatingsCSV parses a club's rating history. Expected columns:
// Rank, Club, Country, Level, Elo, From, To. Malformed rows are dropped.
func ParseRatingsCSV(data []byte, normalizer *NameNormalizer) ([]*TeamRating, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse ratings CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("ratings CSV has no data rows")
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{"Club", "Elo", "From", "To"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("ratings CSV missing column %s", required)
		}
	}

	var ratings []*TeamRating
	for n, row := range rows[1:] {
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		elo, err := strconv.ParseFloat(get("Elo"), 64)
		if err != nil {
			logger.Warn("Dropping ratings row with non-numeric elo", n+2)
			continue
		}
		from, err := time.ParseInLocation("2006-01-02", get("From"), time.UTC)
		if err != nil {
			logger.Warn("Dropping ratings row with unparseable From date", n+2)
			continue
		}
		to, err := time.ParseInLocation("2006-01-02", get("To"), time.UTC)
		if err != nil {
			logger.Warn("Dropping ratings row with unparseable To date", n+2)
			continue
		}

		r := &TeamRating{
			Team:      normalizer.Normalize(get("Club")),
			ValidFrom: from,
			ValidTo:   to,
			Elo:       elo,
		}
		if rank, err := strconv.Atoi(get("Rank")); err == nil {
			r.Rank = rank
		} else {
			r.Rank = -1
		}
		r.Country = get("Country")
		if level, err := strconv.Atoi(get("Level")); err == nil {
			r.Level = level
		} else {
			r.Level = -1
		}
		ratings = append(ratings, r)
	}

	return ratings, nil
}

// LoadRatings fetches the full rating history for each team. The provider
// keys clubs by compacted name, so spaces are stripped for the URL. Teams
// the provider does not know are skipped; their lookups later resolve nil.
func LoadRatings(teams []string, normalizer *NameNormalizer) []*TeamRating {
	var ratings []*TeamRating
	for _, team := range teams {
		slug := strings.ReplaceAll(team, " ", "")
		url := fmt.Sprintf(ratingsURLPattern, slug)
		data, err := fetchCached(fmt.Sprintf("elo_%s.csv", slug), url)
		if err != nil {
			logger.Warn("Skipping unavailable ratings for team", team, err)
			continue
		}
		rs, err := ParseRatingsCSV(data, normalizer)
		if err != nil {
			logger.Warn("Skipping unparseable ratings for team", team, err)
			continue
		}
		// Per-club histories come back under the provider's name; force
		// them onto the canonical name we queried with
		for _, r := range rs {
			r.Team = team
		}
		ratings = append(ratings, rs...)
	}
	logger.Info("Loaded", len(ratings), "rating intervals for", len(teams), "teams")
	return ratings
}

/////////////////////////////////////////////////////////////////////////
////// Betting Splits
/////////////////////////////////////////////////////////////////////////

// LoadSplitsFile parses an optional local splits CSV. Expected columns:
// date, home, away, market, side, bets_pct, handle_pct. A missing file is
// not an error; splits are an enrichment, not a requirement.
func LoadSplitsFile(path string, normalizer *NameNormalizer) []*BetSplit {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Info("No splits source at", path, "- split features will be null")
		return nil
	}

	splits, err := ParseSplitsCSV(data, normalizer)
	if err != nil {
		logger.Warn("Skipping unparseable splits file", path, err)
		return nil
	}
	return splits
}

// ParseSplitsCSV parses betting-split rows. Percentage columns may be empty;
// an empty percentage stays nil.
func ParseSplitsCSV(data []byte, normalizer *NameNormalizer) ([]*BetSplit, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse splits CSV: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"date", "home", "away", "side"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("splits CSV missing column %s", required)
		}
	}

	var splits []*BetSplit
	for n, row := range rows[1:] {
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		date, err := time.ParseInLocation("2006-01-02", get("date"), time.UTC)
		if err != nil {
			logger.Warn("Dropping splits row with unparseable date", n+2)
			continue
		}

		s := &BetSplit{
			Date:   date,
			Home:   normalizer.Normalize(get("home")),
			Away:   normalizer.Normalize(get("away")),
			Market: get("market"),
			Side:   strings.ToLower(get("side")),
		}
		if v, err := strconv.ParseFloat(get("bets_pct"), 64); err == nil {
			s.BetsPct = &v
		}
		if v, err := strconv.ParseFloat(get("handle_pct"), 64); err == nil {
			s.HandlePct = &v
		}
		splits = append(splits, s)
	}

	return splits, nil
}
