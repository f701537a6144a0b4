package engine

import (
	"log/slog"
	"time"

	"github.com/oddsradar/oddsradar/internal/pkg/models"
)

// MatchResult carries the fixtures accepted for aggregation plus the
// diagnostic counters exposed through the health endpoint.
type MatchResult struct {
	// Fixtures are the aggregated fixtures meeting the coverage
	// threshold, in canonical-key observation order.
	Fixtures []*models.AggregatedFixture

	// BucketCounts classifies candidate fixtures by contributing-source
	// count: "1", "2", "3", "4+".
	BucketCounts map[string]int

	// MatchedBySource counts quotes contributed per source in the
	// primary pass.
	MatchedBySource map[string]int
}

// PrimaryMatcher joins listings across sources by canonical event key.
type PrimaryMatcher struct {
	// priority is the ordered list of source codes whose metadata wins.
	priority []string
}

func NewPrimaryMatcher(sourcePriority []string) *PrimaryMatcher {
	return &PrimaryMatcher{priority: sourcePriority}
}

// Match builds one candidate fixture per canonical key observed this
// cycle. A source contributes a quote only when at least one of its
// three prices is strictly positive; all-zero quotes mean the market is
// unavailable and are excluded. Only fixtures with at least
// models.MinSourceCount contributing sources proceed to aggregation.
func (m *PrimaryMatcher) Match(cc *CycleContext, now time.Time) *MatchResult {
	res := &MatchResult{
		BucketCounts:    map[string]int{"1": 0, "2": 0, "3": 0, "4+": 0},
		MatchedBySource: make(map[string]int, len(cc.Sources)),
	}

	for _, key := range cc.CanonicalKeys {
		var meta *models.RawListing
		quotes := make(map[string]models.PriceQuote)

		for _, source := range cc.Sources {
			l := cc.FindListing(source, key)
			if l == nil {
				continue
			}
			if meta == nil {
				// fallback metadata supplier: first source encountered
				meta = l
			}
			if l.Quote.HasAnyPrice() {
				quotes[source] = l.Quote
				res.MatchedBySource[source]++
			}
		}

		if meta == nil || len(quotes) == 0 {
			continue
		}

		// The configured priority list overrides the iteration-order
		// fallback whenever one of its sources has a listing.
		for _, source := range m.priority {
			if l := cc.FindListing(source, key); l != nil {
				meta = l
				break
			}
		}

		res.BucketCounts[bucketFor(len(quotes))]++
		if len(quotes) < models.MinSourceCount {
			continue
		}

		f := &models.AggregatedFixture{
			CanonicalKey: key,
			DisplayTeams: DisplayTeams(meta.Teams),
			Country:      meta.Country,
			Tournament:   meta.Tournament,
			StartTime:    meta.StartTime,
			SourceQuotes: quotes,
			UpdatedAt:    now,
		}
		RecomputeBestPrice(f)
		res.Fixtures = append(res.Fixtures, f)
	}

	slog.Info("Primary matching complete",
		"candidates", len(cc.CanonicalKeys),
		"accepted", len(res.Fixtures),
		"buckets", res.BucketCounts)

	return res
}

func bucketFor(sourceCount int) string {
	switch {
	case sourceCount <= 1:
		return "1"
	case sourceCount == 2:
		return "2"
	case sourceCount == 3:
		return "3"
	default:
		return "4+"
	}
}
