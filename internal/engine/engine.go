package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oddsradar/oddsradar/internal/pkg/config"
	"github.com/oddsradar/oddsradar/internal/pkg/models"
	"github.com/oddsradar/oddsradar/internal/pkg/sources"
	"github.com/oddsradar/oddsradar/internal/pkg/storage"
	"github.com/oddsradar/oddsradar/internal/pkg/validation"
)

// Engine runs the reconciliation cycle: fetch all sources, normalize,
// match by canonical key then by team name, aggregate best prices,
// reconcile persisted state and compute margin snapshots. One cycle is
// logically sequential; only the per-source fetches and the independent
// fixture writes run concurrently. The engine performs no cross-cycle
// locking: the scheduler must not start a cycle before the previous
// one's persistence phase completes.
type Engine struct {
	cfg          *config.EngineConfig
	store        storage.FixtureStorage
	cache        storage.ListingCache // optional
	srcs         map[string]sources.Source
	fetchTimeout time.Duration
	validator    *validation.Validator
	notifier     *Notifier

	primary    *PrimaryMatcher
	secondary  *SecondaryMatcher
	reconciler *PersistenceReconciler
	margins    *MarginAggregator

	trigger chan struct{}
	onCycle func(*CycleStats)
}

// New wires the engine from its collaborators. cache and notifier may be
// nil when the corresponding integration is not configured.
func New(cfg *config.EngineConfig, store storage.FixtureStorage, cache storage.ListingCache, srcs []sources.Source, fetchTimeout time.Duration, notifier *Notifier) *Engine {
	byCode := make(map[string]sources.Source, len(srcs))
	for _, s := range srcs {
		byCode[s.Code()] = s
	}

	return &Engine{
		cfg:          cfg,
		store:        store,
		cache:        cache,
		srcs:         byCode,
		fetchTimeout: fetchTimeout,
		validator:    validation.NewValidator(),
		notifier:     notifier,
		primary:      NewPrimaryMatcher(cfg.SourcePriority),
		secondary:    NewSecondaryMatcher(cfg.SecondaryBatchSize),
		reconciler:   NewPersistenceReconciler(store, cfg.PersistWorkers, cfg.HistoryRetentionDays),
		margins:      NewMarginAggregator(store, cfg.MarginRetentionDays),
		trigger:      make(chan struct{}, 1),
	}
}

// OnCycle registers a hook invoked with the stats of every completed
// cycle. Used by the health endpoint.
func (e *Engine) OnCycle(fn func(*CycleStats)) {
	e.onCycle = fn
}

// TriggerCycle requests an on-demand cycle. Non-blocking; a trigger
// arriving while one is already pending is coalesced.
func (e *Engine) TriggerCycle() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Run executes cycles on the configured interval and on demand until the
// context is cancelled. A failing cycle is logged and left for the next
// schedule; previously persisted state stays untouched until the next
// successful cycle's reconciliation sweep.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	slog.Info("Starting reconciliation engine", "interval", e.cfg.Interval)
	e.runAndReport(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping reconciliation engine")
			return nil
		case <-ticker.C:
			e.runAndReport(ctx)
		case <-e.trigger:
			slog.Info("Running on-demand reconciliation cycle")
			e.runAndReport(ctx)
		}
	}
}

func (e *Engine) runAndReport(ctx context.Context) {
	if _, err := e.RunCycle(ctx); err != nil && ctx.Err() == nil {
		slog.Error("Reconciliation cycle failed", "error", err)
		e.notifier.AlertCycleFailure(err)
	}
}

// RunCycle executes one full reconciliation cycle and returns its
// diagnostic stats. It returns an error only on unrecoverable failures
// (e.g. the active source list or the persisted fixture set cannot be
// read); per-source and per-fixture problems are absorbed.
func (e *Engine) RunCycle(ctx context.Context) (*CycleStats, error) {
	started := time.Now()

	codes, err := e.store.ListActiveSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sources: %w", err)
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("no active sources configured")
	}

	listings := e.fetchAll(ctx, codes)

	cc := NewCycleContext(codes, listings, e.validator)
	res := e.primary.Match(cc, started)
	attached := e.secondary.Fill(cc, res.Fixtures)

	pstats, err := e.reconciler.Reconcile(ctx, res.Fixtures, started)
	if err != nil {
		return nil, err
	}

	snapshots := e.margins.Compute(ctx, res.Fixtures, started)

	e.notifier.ScanForAlerts(res.Fixtures, started)

	stats := &CycleStats{
		StartedAt:         started,
		Duration:          time.Since(started).Round(time.Millisecond).String(),
		Sources:           codes,
		ListingsBySource:  countListings(listings),
		SkippedListings:   cc.SkippedListings,
		Buckets:           res.BucketCounts,
		MatchedBySource:   res.MatchedBySource,
		AcceptedFixtures:  len(res.Fixtures),
		SecondaryAttached: attached,
		Persist:           pstats,
		MarginSnapshots:   snapshots,
	}

	slog.Info("Reconciliation cycle complete",
		"duration", stats.Duration,
		"accepted", stats.AcceptedFixtures,
		"inserted", pstats.Inserted,
		"updated", pstats.Updated,
		"deleted", pstats.Deleted)

	if e.onCycle != nil {
		e.onCycle(stats)
	}
	return stats, nil
}

// fetchAll fetches every active source concurrently. A source that
// errors or is not configured contributes zero listings this cycle; the
// other sources proceed normally.
func (e *Engine) fetchAll(ctx context.Context, codes []string) map[string][]models.RawListing {
	var mu sync.Mutex
	listings := make(map[string][]models.RawListing, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	for _, code := range codes {
		code := code
		g.Go(func() error {
			src, ok := e.srcs[code]
			if !ok {
				slog.Warn("Active source has no configured endpoint", "source", code)
				return nil
			}

			fetchCtx, cancel := context.WithTimeout(gctx, e.fetchTimeout)
			defer cancel()

			fetched, err := src.FetchListings(fetchCtx)
			if err != nil {
				slog.Warn("Source fetch failed, treating as zero listings", "source", code, "error", err)
				return nil
			}

			if e.cache != nil {
				if err := e.cache.StoreSnapshot(gctx, code, fetched); err != nil {
					slog.Warn("Failed to cache listing snapshot", "source", code, "error", err)
				}
			}

			mu.Lock()
			listings[code] = fetched
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return listings
}

func countListings(listings map[string][]models.RawListing) map[string]int {
	counts := make(map[string]int, len(listings))
	for source, ls := range listings {
		counts[source] = len(ls)
	}
	return counts
}
