package models

import (
	"time"
)

// PriceQuote holds decimal 1X2 odds from one source.
// A zero value for an outcome means the market is unavailable.
type PriceQuote struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// HasAnyPrice reports whether at least one outcome carries a strictly
// positive price. All-zero quotes mean the market is suspended or not
// offered and must not count toward source coverage.
func (q PriceQuote) HasAnyPrice() bool {
	return q.Home > 0 || q.Draw > 0 || q.Away > 0
}

// Complete reports whether all three outcomes carry positive prices.
func (q PriceQuote) Complete() bool {
	return q.Home > 0 && q.Draw > 0 && q.Away > 0
}

// Margin returns the bookmaker overround (1/home + 1/draw + 1/away) - 1
// as a decimal fraction. The second return value is false when the quote
// is incomplete and no margin can be computed.
func (q PriceQuote) Margin() (float64, bool) {
	if !q.Complete() {
		return 0, false
	}
	return 1/q.Home + 1/q.Draw + 1/q.Away - 1, true
}

// RawListing is one source's view of one fixture for the current cycle.
// Listings are rebuilt from scratch every cycle and are not persisted
// beyond the per-source latest snapshot kept in the listing cache.
type RawListing struct {
	Source     string     `json:"source"`
	RawEventID string     `json:"event_id"`
	Teams      string     `json:"teams"` // "Home vs Away", separator varies by source
	Country    string     `json:"country"`
	Tournament string     `json:"tournament"`
	StartTime  time.Time  `json:"start_time"`
	Quote      PriceQuote `json:"quote"`
}
