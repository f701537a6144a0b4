package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oddsradar/oddsradar/internal/pkg/models"
	"github.com/oddsradar/oddsradar/internal/pkg/storage"
)

// PersistStats summarizes one reconciliation sweep.
type PersistStats struct {
	Inserted      int   `json:"inserted"`
	Updated       int   `json:"updated"`
	Deleted       int   `json:"deleted"`
	HistoryRows   int   `json:"history_rows"`
	Errors        int   `json:"errors"`
	HistoryPruned int64 `json:"history_pruned"`
}

// PersistenceReconciler drives the per-fixture state machine across
// cycles: Absent -> Tracked (coverage met) -> Absent (coverage lost,
// record deleted). Deletion is a full-sweep comparison of the persisted
// set against this cycle's accepted set, recomputed every cycle rather
// than decayed, so a fixture can disappear in a single cycle.
type PersistenceReconciler struct {
	store                storage.FixtureStorage
	workers              int
	historyRetentionDays int
}

func NewPersistenceReconciler(store storage.FixtureStorage, workers, historyRetentionDays int) *PersistenceReconciler {
	if workers <= 0 {
		workers = 4
	}
	return &PersistenceReconciler{
		store:                store,
		workers:              workers,
		historyRetentionDays: historyRetentionDays,
	}
}

// Reconcile upserts this cycle's accepted fixtures, appends their price
// history, deletes persisted fixtures absent from the accepted set and
// prunes aged history. Writes across independent fixtures run in
// parallel; all operations on one fixture stay on one goroutine.
// Per-fixture errors are logged and skipped; only the inability to read
// the persisted set fails the cycle.
func (r *PersistenceReconciler) Reconcile(ctx context.Context, fixtures []*models.AggregatedFixture, now time.Time) (PersistStats, error) {
	var stats PersistStats

	before, err := r.store.ListFixtures(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list persisted fixtures: %w", err)
	}

	accepted := make(map[string]bool, len(fixtures))
	for _, f := range fixtures {
		accepted[f.CanonicalKey] = true
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, f := range fixtures {
		f := f
		g.Go(func() error {
			// The write comes first so the history rows carry the row's
			// surrogate id, which stays stable when the canonical key
			// drifts between cycles.
			inserted, err := r.writeFixture(gctx, f, now)

			historyRows := 0
			if err == nil {
				historyRows = r.appendHistory(gctx, f, now)
			}

			mu.Lock()
			defer mu.Unlock()
			stats.HistoryRows += historyRows
			if err != nil {
				stats.Errors++
				slog.Error("Failed to persist fixture, skipping",
					"canonical_key", f.CanonicalKey,
					"teams", f.DisplayTeams,
					"error", err)
				return nil
			}
			if inserted {
				stats.Inserted++
			} else {
				stats.Updated++
			}
			return nil
		})
	}
	_ = g.Wait()

	// Rows rewritten this cycle keep their id even when the canonical
	// key drifted, so the sweep must never delete an id it just wrote.
	written := make(map[string]bool, len(fixtures))
	for _, f := range fixtures {
		if f.ID != "" {
			written[f.ID] = true
		}
	}

	for i := range before {
		prev := &before[i]
		if accepted[prev.CanonicalKey] || written[prev.ID] {
			continue
		}
		if err := r.store.DeleteFixture(ctx, prev.ID); err != nil {
			stats.Errors++
			slog.Error("Failed to delete stale fixture",
				"canonical_key", prev.CanonicalKey,
				"error", err)
			continue
		}
		stats.Deleted++
		slog.Info("Deleted fixture below coverage threshold",
			"canonical_key", prev.CanonicalKey,
			"teams", prev.DisplayTeams)
	}

	pruned, err := r.store.PruneHistoryOlderThan(ctx, r.historyRetentionDays)
	if err != nil {
		slog.Error("Failed to prune price history", "error", err)
	} else {
		stats.HistoryPruned = pruned
	}

	return stats, nil
}

// appendHistory writes one history row per (fixture, source) pair every
// cycle, even when a price did not move, so the series stays complete.
// Rows key on the fixture's surrogate id; the caller must have written
// the fixture already. Returns the number of rows written.
func (r *PersistenceReconciler) appendHistory(ctx context.Context, f *models.AggregatedFixture, now time.Time) int {
	rows := 0
	for source, quote := range f.SourceQuotes {
		margin, _ := quote.Margin()
		entry := &models.PriceHistoryEntry{
			FixtureID:  f.ID,
			Source:     source,
			Quote:      quote,
			Margin:     margin,
			RecordedAt: now,
		}
		if err := r.store.AppendPriceHistory(ctx, entry); err != nil {
			slog.Error("Failed to append price history",
				"canonical_key", f.CanonicalKey,
				"source", source,
				"error", err)
			continue
		}
		rows++
	}
	return rows
}

// writeFixture locates the persisted record by canonical key, falling
// back to the display teams label to cover identifier drift between
// cycles, and fully replaces it. A missing record is inserted with a
// fresh surrogate id; the insert is an atomic insert-or-update, so a
// duplicate key can never fail the fixture. Reports whether a new row
// was created.
func (r *PersistenceReconciler) writeFixture(ctx context.Context, f *models.AggregatedFixture, now time.Time) (bool, error) {
	existing, err := r.store.GetFixtureByCanonicalKey(ctx, f.CanonicalKey)
	if err != nil {
		return false, err
	}
	if existing == nil {
		existing, err = r.store.GetFixtureByDisplayTeams(ctx, f.DisplayTeams)
		if err != nil {
			return false, err
		}
	}

	f.UpdatedAt = now

	if existing != nil {
		f.ID = existing.ID
		return false, r.store.UpdateFixture(ctx, existing.ID, f)
	}

	f.ID = uuid.NewString()
	return true, r.store.InsertFixture(ctx, f)
}
