package catalog

import (
	"sync"
	"time"
)

// GlobalRates governs passive message crediting. Unlike catalog entries,
// these are reconfigurable at runtime through the admin settings flow; the
// new values apply to subsequent credits only, never retroactively.
type GlobalRates struct {
	PointsPerMessage int64
	Multiplier       int64
	Cooldown         time.Duration
}

var (
	ratesMu sync.RWMutex
	rates   = GlobalRates{
		PointsPerMessage: 1,
		Multiplier:       1,
		Cooldown:         60 * time.Second,
	}
)

// Rates returns a snapshot of the current global rates
func Rates() GlobalRates {
	ratesMu.RLock()
	defer ratesMu.RUnlock()
	return rates
}

// UpdateRates replaces the global rates. Callers are responsible for the
// admin permission check.
func UpdateRates(r GlobalRates) {
	ratesMu.Lock()
	defer ratesMu.Unlock()
	rates = r
}

// MessagePoints returns the points one passive message is worth right now
func MessagePoints() int64 {
	r := Rates()
	return r.PointsPerMessage * r.Multiplier
}
