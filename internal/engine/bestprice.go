package engine

import (
	"github.com/oddsradar/oddsradar/internal/pkg/models"
)

// RecomputeBestPrice rebuilds the fixture's best-price vector from its
// current source quotes: for each outcome the maximum strictly-positive
// price across sources, or zero when no source prices it. Called after
// every quote attachment so the vector is never stale.
func RecomputeBestPrice(f *models.AggregatedFixture) {
	var best models.PriceQuote
	for _, q := range f.SourceQuotes {
		if q.Home > best.Home {
			best.Home = q.Home
		}
		if q.Draw > best.Draw {
			best.Draw = q.Draw
		}
		if q.Away > best.Away {
			best.Away = q.Away
		}
	}
	f.BestPrice = best
}
