package pitchform

import (
	"fmt"
	"time"

	"github.com/richard-senior/pitchform/internal/logger"
)

// Compile-time check to ensure OddsQuote implements Persistable interface
var _ Persistable = (*OddsQuote)(nil)

// OddsQuote is one bookmaker's price for one side of one match at one market
// phase. A bookmaker's open or close book for a match is the triplet of its
// home, draw and away quotes; the de-vig computation operates on whole
// triplets only, never on a partial book.
type OddsQuote struct {
	// Compound primary key
	EventKey  string `json:"eventKey" column:"event_key" dbtype:"TEXT" primary:"true" index:"true"`
	Bookmaker string `json:"bookmaker" column:"bookmaker" dbtype:"TEXT" primary:"true" index:"true"`
	Phase     string `json:"phase" column:"phase" dbtype:"TEXT" primary:"true"`
	Side      string `json:"side" column:"side" dbtype:"TEXT" primary:"true"`

	// Quoted decimal price
	Price float64 `json:"price" column:"price" dbtype:"REAL DEFAULT -1.0"`

	// When this price was observed
	SnapshotAt time.Time `json:"snapshotAt" column:"snapshot_at" dbtype:"DATETIME" index:"true"`

	// Raw implied probability 1/price, nil when the price is unusable
	Implied *float64 `json:"implied" column:"implied" dbtype:"REAL"`

	// Overround-free probability, nil until the full triplet normalizes
	Devig *float64 `json:"devig" column:"devig" dbtype:"REAL"`

	// Metadata
	CreatedAt time.Time `json:"createdAt" column:"created_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updatedAt" column:"updated_at" dbtype:"DATETIME DEFAULT CURRENT_TIMESTAMP"`
}

// GetTableName returns the table name for odds quotes
func (q *OddsQuote) GetTableName() string {
	return "odds_quote"
}

// GetPrimaryKey returns the compound primary key as a map
func (q *OddsQuote) GetPrimaryKey() map[string]interface{} {
	return map[string]any{
		"event_key": q.EventKey,
		"bookmaker": q.Bookmaker,
		"phase":     q.Phase,
		"side":      q.Side,
	}
}

// SetPrimaryKey sets the compound primary key from a map
func (q *OddsQuote) SetPrimaryKey(pk map[string]interface{}) error {
	for column, dest := range map[string]*string{
		"event_key": &q.EventKey,
		"bookmaker": &q.Bookmaker,
		"phase":     &q.Phase,
		"side":      &q.Side,
	} {
		value, ok := pk[column]
		if !ok {
			return fmt.Errorf("primary key '%s' not found", column)
		}
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("primary key '%s' must be a string", column)
		}
		*dest = str
	}
	return nil
}

// BeforeSave is called before saving the quote
func (q *OddsQuote) BeforeSave() error {
	now := time.Now()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	return nil
}

func (q *OddsQuote) AfterSave() error    { return nil }
func (q *OddsQuote) BeforeDelete() error { return nil }
func (q *OddsQuote) AfterDelete() error  { return nil }

/////////////////////////////////////////////////////////////////////////
////// Implied Probabilities and De-Vig
/////////////////////////////////////////////////////////////////////////

// ImpliedProbability converts a decimal price to a raw implied probability.
// Prices at or below 1.0 carry no usable information and map to nil.
func ImpliedProbability(price float64) *float64 {
	if price <= 1.0 {
		return nil
	}
	p := 1.0 / price
	return &p
}

// bookKey identifies one bookmaker's book for one match at one phase
type bookKey struct {
	EventKey  string
	Bookmaker string
	Phase     string
}

// ComputeDevig fills the Implied and Devig fields of the given quotes in
// place. De-vig normalizes each complete (home, draw, away) triplet so its
// probabilities sum to 1. Triplets missing a side, carrying an unusable price
// or containing duplicate sides are left with nil Devig on every member, so a
// partial book never leaks a misleadingly precise probability.
func ComputeDevig(quotes []*OddsQuote) {
	books := make(map[bookKey][]*OddsQuote)
	for _, q := range quotes {
		q.Implied = ImpliedProbability(q.Price)
		q.Devig = nil
		key := bookKey{EventKey: q.EventKey, Bookmaker: q.Bookmaker, Phase: q.Phase}
		books[key] = append(books[key], q)
	}

	for key, book := range books {
		sides := make(map[string]*OddsQuote, 3)
		valid := true
		for _, q := range book {
			if _, dup := sides[q.Side]; dup {
				logger.Warn("Duplicate side in odds triplet", key.EventKey, key.Bookmaker, key.Phase, q.Side)
				valid = false
				break
			}
			sides[q.Side] = q
		}
		if !valid {
			continue
		}

		home, hasHome := sides[SideHome]
		draw, hasDraw := sides[SideDraw]
		away, hasAway := sides[SideAway]
		if !hasHome || !hasDraw || !hasAway {
			continue
		}
		if home.Implied == nil || draw.Implied == nil || away.Implied == nil {
			continue
		}

		sum := *home.Implied + *draw.Implied + *away.Implied
		if sum <= 0 {
			continue
		}

		for _, q := range []*OddsQuote{home, draw, away} {
			p := *q.Implied / sum
			q.Devig = &p
		}
	}
}

/////////////////////////////////////////////////////////////////////////
////// Consensus Across Bookmakers
/////////////////////////////////////////////////////////////////////////

// SideProbs holds one probability per side; nil means not computable
type SideProbs struct {
	Home *float64
	Draw *float64
	Away *float64
}

// Consensus is the cross-bookmaker mean of de-vig probabilities for one
// match, held separately per market phase
type Consensus struct {
	EventKey string
	Open     *SideProbs
	Close    *SideProbs
}

// Delta returns close minus open per side. A side where either phase is
// missing stays nil.
func (c *Consensus) Delta() *SideProbs {
	d := &SideProbs{}
	if c.Open == nil || c.Close == nil {
		return d
	}
	d.Home = diff(c.Close.Home, c.Open.Home)
	d.Draw = diff(c.Close.Draw, c.Open.Draw)
	d.Away = diff(c.Close.Away, c.Open.Away)
	return d
}

func diff(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	v := *a - *b
	return &v
}

// ComputeConsensus aggregates de-vig probabilities across bookmakers into one
// consensus book per match and phase. Only bookmakers whose full triplet
// survived de-vig contribute; a phase with no surviving triplet yields nil
// probabilities rather than a guess. ComputeDevig must run first.
func ComputeConsensus(quotes []*OddsQuote) map[string]*Consensus {
	type phaseKey struct {
		EventKey string
		Phase    string
	}
	books := make(map[phaseKey]map[string]*SideProbs)
	for _, q := range quotes {
		if q.Devig == nil {
			continue
		}
		key := phaseKey{EventKey: q.EventKey, Phase: q.Phase}
		if books[key] == nil {
			books[key] = make(map[string]*SideProbs)
		}
		probs := books[key][q.Bookmaker]
		if probs == nil {
			probs = &SideProbs{}
			books[key][q.Bookmaker] = probs
		}
		switch q.Side {
		case SideHome:
			probs.Home = q.Devig
		case SideDraw:
			probs.Draw = q.Devig
		case SideAway:
			probs.Away = q.Devig
		}
	}

	out := make(map[string]*Consensus)
	for key, byBookmaker := range books {
		var homeSum, drawSum, awaySum float64
		n := 0
		for _, probs := range byBookmaker {
			// De-vig is all-or-none per triplet so a bookmaker with any
			// side set has all three, but guard anyway
			if probs.Home == nil || probs.Draw == nil || probs.Away == nil {
				continue
			}
			homeSum += *probs.Home
			drawSum += *probs.Draw
			awaySum += *probs.Away
			n++
		}
		if n == 0 {
			continue
		}

		home := homeSum / float64(n)
		draw := drawSum / float64(n)
		away := awaySum / float64(n)

		c := out[key.EventKey]
		if c == nil {
			c = &Consensus{EventKey: key.EventKey}
			out[key.EventKey] = c
		}
		probs := &SideProbs{Home: &home, Draw: &draw, Away: &away}
		switch key.Phase {
		case PhaseOpen:
			c.Open = probs
		case PhaseClose:
			c.Close = probs
		default:
			logger.Warn("Unknown market phase", key.Phase, "for event", key.EventKey)
		}
	}

	return out
}
