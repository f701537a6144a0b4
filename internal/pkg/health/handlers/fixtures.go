package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/oddsradar/oddsradar/internal/pkg/models"
)

// ListFixturesFunc returns the currently persisted aggregated fixtures.
type ListFixturesFunc func(r *http.Request) ([]models.AggregatedFixture, error)

var listFixturesFunc ListFixturesFunc

// SetListFixturesFunc sets the function to list fixtures
func SetListFixturesFunc(fn ListFixturesFunc) {
	listFixturesFunc = fn
}

type fixturesResponse struct {
	Fixtures []models.AggregatedFixture `json:"fixtures"`
	Meta     struct {
		Count int `json:"count"`
	} `json:"meta"`
}

// HandleFixtures handles /fixtures endpoint: returns the current
// aggregated fixtures with their source quotes and best prices.
func HandleFixtures(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if listFixturesFunc == nil {
		http.Error(w, `{"error": "fixtures not available"}`, http.StatusServiceUnavailable)
		return
	}

	fixtures, err := listFixturesFunc(r)
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error": %q}`, err.Error()), http.StatusInternalServerError)
		return
	}

	var resp fixturesResponse
	resp.Fixtures = fixtures
	resp.Meta.Count = len(fixtures)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode fixtures: %v", err), http.StatusInternalServerError)
		return
	}
}
