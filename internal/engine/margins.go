package engine

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/oddsradar/oddsradar/internal/pkg/models"
	"github.com/oddsradar/oddsradar/internal/pkg/storage"
)

// MarginAggregator computes per-source per-tournament average margin
// snapshots from each cycle's aggregated fixtures and appends them to
// the snapshot series. Prior cycles' snapshots are never overwritten;
// rows older than the retention window are pruned after each pass.
type MarginAggregator struct {
	store         storage.FixtureStorage
	retentionDays int
}

func NewMarginAggregator(store storage.FixtureStorage, retentionDays int) *MarginAggregator {
	return &MarginAggregator{store: store, retentionDays: retentionDays}
}

type marginTriple struct {
	source     string
	country    string
	tournament string
}

// Compute appends one snapshot per (source, country, tournament) triple
// observed this cycle. Only complete positive-priced quotes qualify;
// triples with zero qualifying fixtures are skipped. Returns the number
// of snapshots appended.
func (a *MarginAggregator) Compute(ctx context.Context, fixtures []*models.AggregatedFixture, now time.Time) int {
	type acc struct {
		sum     float64
		samples int
	}
	sums := make(map[marginTriple]*acc)

	for _, f := range fixtures {
		for source, quote := range f.SourceQuotes {
			margin, ok := quote.Margin()
			if !ok {
				continue
			}
			t := marginTriple{source: source, country: f.Country, tournament: f.Tournament}
			if sums[t] == nil {
				sums[t] = &acc{}
			}
			sums[t].sum += margin
			sums[t].samples++
		}
	}

	triples := make([]marginTriple, 0, len(sums))
	for t := range sums {
		triples = append(triples, t)
	}
	sort.Slice(triples, func(i, j int) bool {
		a, b := triples[i], triples[j]
		if a.source != b.source {
			return a.source < b.source
		}
		if a.country != b.country {
			return a.country < b.country
		}
		return a.tournament < b.tournament
	})

	appended := 0
	for _, t := range triples {
		s := sums[t]
		snapshot := &models.TournamentMarginSnapshot{
			Source:     t.source,
			Country:    t.country,
			Tournament: t.tournament,
			AvgMargin:  s.sum / float64(s.samples),
			Samples:    s.samples,
			ComputedAt: now,
		}
		if err := a.store.AppendMarginSnapshot(ctx, snapshot); err != nil {
			slog.Error("Failed to append margin snapshot",
				"source", t.source,
				"tournament", t.tournament,
				"error", err)
			continue
		}
		appended++
	}

	if pruned, err := a.store.PruneMarginsOlderThan(ctx, a.retentionDays); err != nil {
		slog.Error("Failed to prune margin snapshots", "error", err)
	} else if pruned > 0 {
		slog.Debug("Pruned aged margin snapshots", "rows", pruned)
	}

	slog.Info("Margin aggregation complete", "triples", len(triples), "appended", appended)
	return appended
}
