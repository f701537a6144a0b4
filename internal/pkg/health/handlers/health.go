package handlers

import (
	"fmt"
	"net/http"
	"time"
)

var startedAt = time.Now()

// HandlePing handles /ping endpoint
func HandlePing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong\n"))
}

// HandleHealth handles /health endpoint: liveness plus process uptime.
// Cycle-level diagnostics live on /metrics.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	fmt.Fprintf(w, "{\"status\": \"ok\", \"service\": \"reconciliation-engine\", \"uptime\": %q}\n",
		time.Since(startedAt).Round(time.Second).String())
}
