package handlers

import (
	"net/http"
)

// TriggerCycleFunc requests an on-demand reconciliation cycle.
type TriggerCycleFunc func()

var triggerCycleFunc TriggerCycleFunc

// SetTriggerCycleFunc sets the function to trigger a cycle
func SetTriggerCycleFunc(fn TriggerCycleFunc) {
	triggerCycleFunc = fn
}

// HandleRun handles /run endpoint: triggers a reconciliation cycle
// without waiting for its completion.
func HandleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if triggerCycleFunc == nil {
		http.Error(w, `{"error": "engine not running"}`, http.StatusServiceUnavailable)
		return
	}

	triggerCycleFunc()
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"status": "cycle triggered"}` + "\n"))
}
