package models

import (
	"time"
)

// MinSourceCount is the coverage threshold for an aggregated fixture.
// Fixtures below it are never persisted, and persisted fixtures whose
// coverage drops below it are deleted in the same cycle.
const MinSourceCount = 2

// AggregatedFixture is the unified cross-source record for one
// real-world fixture. SourceQuotes, BestPrice and the display fields are
// fully replaced every cycle; nothing is carried over from earlier
// cycles for sources that stopped reporting.
type AggregatedFixture struct {
	ID           string                `json:"id"` // surrogate uuid
	CanonicalKey string                `json:"canonical_key"`
	DisplayTeams string                `json:"display_teams"`
	Country      string                `json:"country"`
	Tournament   string                `json:"tournament"`
	StartTime    time.Time             `json:"start_time"`
	SourceQuotes map[string]PriceQuote `json:"source_quotes"`
	BestPrice    PriceQuote            `json:"best_price"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// SourceCount returns the number of sources contributing a quote.
func (f *AggregatedFixture) SourceCount() int {
	return len(f.SourceQuotes)
}

// Eligible reports whether the fixture meets the coverage threshold.
func (f *AggregatedFixture) Eligible() bool {
	return f.SourceCount() >= MinSourceCount
}

// PriceHistoryEntry is one immutable point in a fixture's per-source
// price series. Appended once per (fixture, source) every cycle even
// when the price did not move, pruned only by age. Keyed by the
// fixture's surrogate id, which survives canonical-key drift, so one
// fixture always has one series.
type PriceHistoryEntry struct {
	FixtureID  string     `json:"fixture_id"`
	Source     string     `json:"source"`
	Quote      PriceQuote `json:"quote"`
	Margin     float64    `json:"margin"` // decimal fraction, 0 when quote incomplete
	RecordedAt time.Time  `json:"recorded_at"`
}

// TournamentMarginSnapshot is one point in the append-only average
// margin series for a (source, country, tournament) triple.
type TournamentMarginSnapshot struct {
	Source     string    `json:"source"`
	Country    string    `json:"country"`
	Tournament string    `json:"tournament"`
	AvgMargin  float64   `json:"avg_margin"` // decimal fraction
	Samples    int       `json:"samples"`
	ComputedAt time.Time `json:"computed_at"`
}
