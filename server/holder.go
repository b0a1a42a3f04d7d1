package server

import (
	"sync"
	"time"

	"github.com/elisemercury/pmcalc"
)

// Holder keeps the latest successful snapshot and the outcome of the latest attempt.
// A failed attempt never replaces the held snapshot. Safe for concurrent use.
type Holder struct {
	mu          sync.RWMutex
	snapshot    *pmcalc.Snapshot
	lastErr     error
	lastAttempt time.Time
}

// Store records a successful evaluation. The latest call wins.
func (h *Holder) Store(s *pmcalc.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshot = s
	h.lastErr = nil
	h.lastAttempt = s.EvaluatedAt()
}

// Fail records a failed evaluation attempted at at.
func (h *Holder) Fail(err error, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastErr = err
	h.lastAttempt = at
}

// Latest returns the held snapshot (nil if none yet) and the error of the
// latest attempt if it failed.
func (h *Holder) Latest() (*pmcalc.Snapshot, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snapshot, h.lastErr
}

// LastAttempt returns when the latest evaluation finished, successful or not.
func (h *Holder) LastAttempt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastAttempt
}
