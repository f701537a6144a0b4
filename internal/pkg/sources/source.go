package sources

import (
	"context"

	"github.com/oddsradar/oddsradar/internal/pkg/models"
)

// Source supplies the latest raw listings for one bookmaker. Adapters
// live outside this module; the engine only consumes this interface.
type Source interface {
	// Code returns the source code, e.g. "betpawa_gh".
	Code() string

	// FetchListings fetches the current listings. An error or an empty
	// result is treated as zero listings for this cycle.
	FetchListings(ctx context.Context) ([]models.RawListing, error)
}
