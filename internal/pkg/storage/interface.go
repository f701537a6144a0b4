package storage

import (
	"context"

	"github.com/oddsradar/oddsradar/internal/pkg/models"
)

// FixtureStorage is the persistence collaborator for the reconciliation
// engine. Lookup methods return (nil, nil) when no record exists.
type FixtureStorage interface {
	// GetFixtureByCanonicalKey looks up the persisted fixture by its
	// canonical event key.
	GetFixtureByCanonicalKey(ctx context.Context, key string) (*models.AggregatedFixture, error)

	// GetFixtureByDisplayTeams looks up the persisted fixture by its
	// display teams label. Used as fallback when the canonical key
	// drifted between cycles.
	GetFixtureByDisplayTeams(ctx context.Context, displayTeams string) (*models.AggregatedFixture, error)

	// InsertFixture writes a new fixture. Implementations perform an
	// atomic insert-or-update on canonical key conflict, so a concurrent
	// duplicate never fails the cycle.
	InsertFixture(ctx context.Context, f *models.AggregatedFixture) error

	// UpdateFixture fully replaces the record with the given id.
	UpdateFixture(ctx context.Context, id string, f *models.AggregatedFixture) error

	// DeleteFixture removes the record with the given id.
	DeleteFixture(ctx context.Context, id string) error

	// ListFixtures returns all persisted fixtures.
	ListFixtures(ctx context.Context) ([]models.AggregatedFixture, error)

	// AppendPriceHistory appends one immutable history row.
	AppendPriceHistory(ctx context.Context, e *models.PriceHistoryEntry) error

	// AppendMarginSnapshot appends one margin snapshot row.
	AppendMarginSnapshot(ctx context.Context, s *models.TournamentMarginSnapshot) error

	// PruneHistoryOlderThan removes history rows older than the given
	// number of days. Returns the number of rows removed.
	PruneHistoryOlderThan(ctx context.Context, days int) (int64, error)

	// PruneMarginsOlderThan removes margin snapshots older than the
	// given number of days. Returns the number of rows removed.
	PruneMarginsOlderThan(ctx context.Context, days int) (int64, error)

	// ListActiveSources returns the codes of sources enabled for
	// ingestion, in stable order.
	ListActiveSources(ctx context.Context) ([]string, error)

	// SyncSources registers the given source codes and enables them,
	// disabling previously registered codes not in the list.
	SyncSources(ctx context.Context, codes []string) error

	// Close closes the underlying connection.
	Close() error
}

// ListingCache keeps the latest raw listing snapshot per source so the
// most recent fetch survives between cycles for diagnostics.
type ListingCache interface {
	// StoreSnapshot replaces the cached snapshot for the source.
	StoreSnapshot(ctx context.Context, source string, listings []models.RawListing) error

	// GetSnapshot returns the cached snapshot, or nil when absent/expired.
	GetSnapshot(ctx context.Context, source string) ([]models.RawListing, error)

	// Close closes the underlying connection.
	Close() error
}
