package engine

import (
	"log/slog"

	"github.com/oddsradar/oddsradar/internal/pkg/models"
	"github.com/oddsradar/oddsradar/internal/pkg/validation"
)

// CycleContext holds every per-cycle index the matchers need: raw
// listings per source, the canonical-key reverse multimap, and the
// per-source name indices. It is built fresh each cycle and passed
// between stages, never kept as package state, so concurrent test runs
// stay isolated.
type CycleContext struct {
	// Sources are the active source codes in stable iteration order.
	Sources []string

	// CanonicalKeys are all canonical keys observed this cycle, in
	// first-observation order.
	CanonicalKeys []string

	// SkippedListings counts listings dropped by validation.
	SkippedListings int

	// byRawID indexes each source's listings by raw event identifier.
	byRawID map[string]map[string]*models.RawListing

	// rawIDsByKey is the reverse multimap: canonical key -> all raw
	// identifiers observed for it, across all sources.
	rawIDsByKey map[string][]string

	// byNameKey indexes each source's listings by normalized team-name
	// key, both orderings.
	byNameKey map[string]map[string]*models.RawListing
}

// NewCycleContext builds all per-cycle indices from the fetched
// snapshot. Listings failing validation are skipped and counted.
func NewCycleContext(sourceCodes []string, listings map[string][]models.RawListing, validator *validation.Validator) *CycleContext {
	cc := &CycleContext{
		Sources:     sourceCodes,
		byRawID:     make(map[string]map[string]*models.RawListing, len(sourceCodes)),
		rawIDsByKey: make(map[string][]string),
		byNameKey:   make(map[string]map[string]*models.RawListing, len(sourceCodes)),
	}

	seenRawID := make(map[string]map[string]bool) // canonical key -> raw ID -> seen

	for _, source := range sourceCodes {
		cc.byRawID[source] = make(map[string]*models.RawListing)
		cc.byNameKey[source] = make(map[string]*models.RawListing)

		sourceListings := listings[source]
		for i := range sourceListings {
			l := &sourceListings[i]
			if err := validator.ValidateListing(l); err != nil {
				cc.SkippedListings++
				slog.Debug("Skipping malformed listing", "source", source, "event_id", l.RawEventID, "error", err)
				continue
			}

			cc.byRawID[source][l.RawEventID] = l

			key := CanonicalEventKey(l.RawEventID)
			if seenRawID[key] == nil {
				seenRawID[key] = make(map[string]bool)
				cc.CanonicalKeys = append(cc.CanonicalKeys, key)
			}
			if !seenRawID[key][l.RawEventID] {
				seenRawID[key][l.RawEventID] = true
				cc.rawIDsByKey[key] = append(cc.rawIDsByKey[key], l.RawEventID)
			}

			nameKey := NormalizeTeamsKey(l.Teams)
			if nameKey != "" {
				cc.byNameKey[source][nameKey] = l
				if swapped, ok := SwapTeamsKey(nameKey); ok {
					cc.byNameKey[source][swapped] = l
				}
			}
		}
	}

	return cc
}

// FindListing locates a source's listing for a canonical key, either by
// exact raw-identifier match or through the reverse multimap.
func (cc *CycleContext) FindListing(source, canonicalKey string) *models.RawListing {
	byID := cc.byRawID[source]
	if byID == nil {
		return nil
	}
	if l, ok := byID[canonicalKey]; ok {
		return l
	}
	for _, rawID := range cc.rawIDsByKey[canonicalKey] {
		if l, ok := byID[rawID]; ok {
			return l
		}
	}
	return nil
}

// FindListingByName locates a source's listing by normalized team-name
// key, trying the given ordering and its reverse.
func (cc *CycleContext) FindListingByName(source, nameKey string) *models.RawListing {
	byName := cc.byNameKey[source]
	if byName == nil {
		return nil
	}
	if l, ok := byName[nameKey]; ok {
		return l
	}
	if swapped, ok := SwapTeamsKey(nameKey); ok {
		if l, ok := byName[swapped]; ok {
			return l
		}
	}
	return nil
}

// RawIDsForKey returns the raw identifiers observed for a canonical key.
func (cc *CycleContext) RawIDsForKey(canonicalKey string) []string {
	return cc.rawIDsByKey[canonicalKey]
}
