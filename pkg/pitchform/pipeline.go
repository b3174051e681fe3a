package pitchform

import (
	"fmt"
	"sort"

	"github.com/richard-senior/pitchform/internal/logger"
)

// Pipeline runs the whole batch: ingest raw tables, normalize odds, compute
// rolling features, assemble the wide table and persist everything. The
// computation itself is a pure function over immutable in-memory tables;
// persistence happens only after assembly succeeds.
type Pipeline struct {
	normalizer *NameNormalizer
	splitsPath string
}

// NewPipeline creates a pipeline with the default name normalizer
func NewPipeline() *Pipeline {
	return &Pipeline{
		normalizer: NewNameNormalizer(),
	}
}

// WithSplitsSource points the pipeline at an optional betting-splits CSV
func (p *Pipeline) WithSplitsSource(path string) *Pipeline {
	p.splitsPath = path
	return p
}

// teamNames collects the distinct canonical team names in the match set
func teamNames(matches []*Match) []string {
	set := make(map[string]bool)
	for _, m := range matches {
		set[m.HomeTeam] = true
		set[m.AwayTeam] = true
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the full batch. Individual missing or malformed sources
// degrade their features to null; the only fatal condition is an empty
// match set after ingestion.
func (p *Pipeline) Run() error {
	matches, quotes, err := LoadSeasons(p.normalizer)
	if err != nil {
		return fmt.Errorf("ingestion produced nothing to featurize: %w", err)
	}
	logger.Info("Ingested", len(matches), "matches and", len(quotes), "quotes")

	teams := teamNames(matches)
	ratings := LoadRatings(teams, p.normalizer)
	index := NewRatingIntervalIndex(ratings)

	var splits []*BetSplit
	if p.splitsPath != "" {
		splits = LoadSplitsFile(p.splitsPath, p.normalizer)
	}

	assembler := NewFeatureAssembler(index, splits)
	rows, err := assembler.Assemble(matches, quotes)
	if err != nil {
		return fmt.Errorf("feature assembly failed: %w", err)
	}

	sequences := BuildLaggedSequences(quotes)
	logger.Info("Built", len(sequences), "lagged sequence examples")

	if err := p.persist(matches, quotes, ratings, rows); err != nil {
		return fmt.Errorf("failed to persist results: %w", err)
	}

	logger.Info("Pipeline complete:", len(rows), "feature rows written")
	return nil
}

// persist writes every table to the database. The long odds table doubles
// as the audit trail of the de-vig step, so quotes go out with their
// implied and devig columns filled.
func (p *Pipeline) persist(matches []*Match, quotes []*OddsQuote, ratings []*TeamRating, rows []*FeatureRow) error {
	if err := CreateTables(); err != nil {
		return err
	}

	objects := make([]Persistable, 0, len(matches)+len(quotes)+len(ratings)+len(rows))
	for _, m := range matches {
		objects = append(objects, m)
	}
	for _, q := range quotes {
		objects = append(objects, q)
	}
	for _, r := range ratings {
		objects = append(objects, r)
	}
	for _, f := range rows {
		objects = append(objects, f)
	}

	return BulkSave(objects)
}
