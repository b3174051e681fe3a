package pitchform

import (
	"strings"

	"github.com/richard-senior/pitchform/internal/logger"
	"github.com/richard-senior/pitchform/pkg/util"
)

// NameMatcher resolves a raw team name against a list of known canonical
// names. Implementations return the chosen candidate and whether a match was
// accepted. Matching is a quality improvement only, never required for
// correctness; callers fall back to the raw name on a miss.
type NameMatcher interface {
	Match(raw string, candidates []string) (string, bool)
}

// ExactMatcher accepts only case-insensitive exact matches
type ExactMatcher struct{}

func (ExactMatcher) Match(raw string, candidates []string) (string, bool) {
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(raw), c) {
			return c, true
		}
	}
	return raw, false
}

// LevenshteinMatcher accepts the closest candidate whose similarity score
// meets the configured threshold
type LevenshteinMatcher struct {
	Threshold float64
}

func (m LevenshteinMatcher) Match(raw string, candidates []string) (string, bool) {
	threshold := m.Threshold
	if threshold <= 0 {
		threshold = GetFuzzyThreshold()
	}

	best := ""
	bestScore := -1.0
	for _, c := range candidates {
		score := util.SimilarityScore(raw, c)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}

	if bestScore >= threshold {
		return best, true
	}
	return raw, false
}

// defaultAliases maps the short or historical team names that appear in raw
// results tables to one canonical name per club
var defaultAliases = map[string]string{
	"Man United":               "Manchester United",
	"Man Utd":                  "Manchester United",
	"Manchester Utd":           "Manchester United",
	"Man City":                 "Manchester City",
	"Wolves":                   "Wolverhampton",
	"Spurs":                    "Tottenham",
	"Tottenham Hotspur":        "Tottenham",
	"West Brom":                "West Bromwich Albion",
	"Brighton and Hove Albion": "Brighton",
	"Brighton & Hove Albion":   "Brighton",
	"Leeds Utd":                "Leeds",
	"Newcastle Utd":            "Newcastle",
	"Sheffield Utd":            "Sheffield United",
	"Nott'm Forest":            "Nottingham Forest",
	"Nott Forest":              "Nottingham Forest",
	"Bournemouth":              "AFC Bournemouth",
	"Cardiff":                  "Cardiff City",
	"Huddersfield":             "Huddersfield Town",
	"Norwich":                  "Norwich City",
	"QPR":                      "Queens Park Rangers",
	"Swansea":                  "Swansea City",
	"Hull":                     "Hull City",
	"Birmingham":               "Birmingham City",
	"Leicester":                "Leicester City",
	"Stoke":                    "Stoke City",
	"West Ham":                 "West Ham United",
}

// NameNormalizer maps raw team-name strings to one canonical name per team.
// An exact alias hit wins; otherwise the optional matcher is consulted
// against the known-name list. Unmapped names pass through verbatim, which
// callers must treat as a potential join miss rather than an error.
type NameNormalizer struct {
	aliases map[string]string
	known   []string
	matcher NameMatcher
}

// NewNameNormalizer creates a normalizer with the built-in alias table and no
// fuzzy backend
func NewNameNormalizer() *NameNormalizer {
	return &NameNormalizer{
		aliases: defaultAliases,
	}
}

// WithKnownNames supplies a reference list of canonical names for the matcher
func (n *NameNormalizer) WithKnownNames(names []string) *NameNormalizer {
	n.known = names
	return n
}

// WithMatcher supplies an optional fuzzy backend consulted after alias misses
func (n *NameNormalizer) WithMatcher(m NameMatcher) *NameNormalizer {
	n.matcher = m
	return n
}

// Normalize returns the canonical name for a raw team-name string.
// Never returns an error; unmapped names pass through unchanged.
func (n *NameNormalizer) Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if canonical, ok := n.aliases[s]; ok {
		return canonical
	}
	if n.matcher != nil && len(n.known) > 0 {
		if candidate, ok := n.matcher.Match(s, n.known); ok {
			if candidate != s {
				logger.Debug("Fuzzy-matched team name", s, "->", candidate)
			}
			return candidate
		}
	}
	return s
}
