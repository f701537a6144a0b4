package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// GetStatsFunc returns the last completed cycle's stats, or nil when no
// cycle has completed yet.
type GetStatsFunc func() interface{}

var getStatsFunc GetStatsFunc

// SetGetStatsFunc sets the function to get the last cycle stats
func SetGetStatsFunc(fn GetStatsFunc) {
	getStatsFunc = fn
}

// HandleStats handles /metrics endpoint
func HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	var stats interface{}
	if getStatsFunc != nil {
		stats = getStatsFunc()
	}
	if stats == nil {
		http.Error(w, `{"error": "no cycle completed yet"}`, http.StatusServiceUnavailable)
		return
	}

	if err := json.NewEncoder(w).Encode(stats); err != nil {
		http.Error(w, fmt.Sprintf("failed to encode stats: %v", err), http.StatusInternalServerError)
		return
	}
}
