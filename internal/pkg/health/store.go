package health

import (
	"sync"
	"time"
)

// In-memory store for the last completed cycle's diagnostics, shared
// between the engine and the HTTP handlers.
var (
	mu          sync.RWMutex
	lastCycle   interface{}
	cyclesRun   int
	lastCycleAt time.Time
)

// RecordCycle stores the stats of a completed cycle.
func RecordCycle(stats interface{}) {
	mu.Lock()
	defer mu.Unlock()
	lastCycle = stats
	cyclesRun++
	lastCycleAt = time.Now()
}

// LastCycle returns the last recorded cycle stats, or nil.
func LastCycle() interface{} {
	mu.RLock()
	defer mu.RUnlock()
	return lastCycle
}

// CyclesRun returns the number of cycles recorded since startup.
func CyclesRun() (int, time.Time) {
	mu.RLock()
	defer mu.RUnlock()
	return cyclesRun, lastCycleAt
}
