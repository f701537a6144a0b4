package engine

import (
	"time"
)

// CycleStats is the diagnostic summary of one reconciliation cycle.
// Observability only; nothing downstream depends on these numbers.
type CycleStats struct {
	StartedAt        time.Time      `json:"started_at"`
	Duration         string         `json:"duration"`
	Sources          []string       `json:"sources"`
	ListingsBySource map[string]int `json:"listings_by_source"`
	SkippedListings  int            `json:"skipped_listings"`

	// Buckets classifies candidate fixtures by contributing-source count.
	Buckets         map[string]int `json:"buckets"`
	MatchedBySource map[string]int `json:"matched_by_source"`

	AcceptedFixtures  int `json:"accepted_fixtures"`
	SecondaryAttached int `json:"secondary_attached"`

	Persist         PersistStats `json:"persist"`
	MarginSnapshots int          `json:"margin_snapshots"`
}
