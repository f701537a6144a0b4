package engine

import (
	"regexp"
)

// compositeIDPattern recognizes provider-prefixed identifiers: non-digit
// segments joined by separators in front of a numeric tail, e.g.
// "sr:match:500" or "evt-500". Plain identifiers such as "500" or
// "BET123456" do not match and pass through unchanged.
var compositeIDPattern = regexp.MustCompile(`^\D*[:_\-./ ]\D*(\d+)$`)

// CanonicalEventKey derives the canonical join key from a raw per-source
// event identifier. For composite identifiers the key is the digits-only
// suffix; otherwise the raw identifier is the key.
func CanonicalEventKey(rawID string) string {
	if m := compositeIDPattern.FindStringSubmatch(rawID); m != nil {
		return m[1]
	}
	return rawID
}
