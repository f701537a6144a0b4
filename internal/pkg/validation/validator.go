package validation

import (
	"fmt"
	"math"
	"strings"

	"github.com/oddsradar/oddsradar/internal/pkg/models"
)

// Validator checks raw listings before they enter matching. A listing
// that fails validation is skipped and does not count toward source
// coverage.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateListing validates one raw listing.
func (v *Validator) ValidateListing(l *models.RawListing) error {
	if l == nil {
		return fmt.Errorf("listing cannot be nil")
	}

	if strings.TrimSpace(l.Source) == "" {
		return fmt.Errorf("source cannot be empty")
	}

	if strings.TrimSpace(l.RawEventID) == "" {
		return fmt.Errorf("event ID cannot be empty")
	}

	if strings.TrimSpace(l.Teams) == "" {
		return fmt.Errorf("teams label cannot be empty")
	}

	for outcome, price := range map[string]float64{
		"home": l.Quote.Home,
		"draw": l.Quote.Draw,
		"away": l.Quote.Away,
	} {
		if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
			return fmt.Errorf("invalid %s price: %v", outcome, price)
		}
	}

	return nil
}
