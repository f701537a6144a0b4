package engine

import (
	"log/slog"

	"github.com/oddsradar/oddsradar/internal/pkg/models"
)

// SecondaryMatcher attaches quotes from sources the primary pass missed,
// joining by normalized team-name key in either team order. The pass is
// a pure partition of the fixture list: batch boundaries exist for
// progress reporting only and never change the final mapping, and
// running the pass twice yields the same working set as running it once.
type SecondaryMatcher struct {
	batchSize int
}

func NewSecondaryMatcher(batchSize int) *SecondaryMatcher {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &SecondaryMatcher{batchSize: batchSize}
}

// Fill looks up every fixture's missing sources in the per-source name
// indices and attaches quotes with the same positive-price rule as the
// primary pass. Quotes already supplied are never overwritten. Returns
// the number of quotes attached.
func (m *SecondaryMatcher) Fill(cc *CycleContext, fixtures []*models.AggregatedFixture) int {
	attached := 0

	for start := 0; start < len(fixtures); start += m.batchSize {
		end := start + m.batchSize
		if end > len(fixtures) {
			end = len(fixtures)
		}

		for _, f := range fixtures[start:end] {
			attached += m.fillFixture(cc, f)
		}

		slog.Debug("Secondary matching progress",
			"processed", end,
			"total", len(fixtures),
			"attached", attached)
	}

	slog.Info("Secondary matching complete", "fixtures", len(fixtures), "attached", attached)
	return attached
}

func (m *SecondaryMatcher) fillFixture(cc *CycleContext, f *models.AggregatedFixture) int {
	nameKey := NormalizeTeamsKey(f.DisplayTeams)
	if nameKey == "" {
		return 0
	}

	attached := 0
	for _, source := range cc.Sources {
		if _, ok := f.SourceQuotes[source]; ok {
			continue
		}

		// FindListingByName tries the key and its swapped ordering, so a
		// source listing the teams the other way round still matches.
		l := cc.FindListingByName(source, nameKey)
		if l == nil || !l.Quote.HasAnyPrice() {
			continue
		}

		f.SourceQuotes[source] = l.Quote
		RecomputeBestPrice(f)
		attached++
	}
	return attached
}
