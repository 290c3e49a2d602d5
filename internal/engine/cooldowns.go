package engine

import (
	"sync"
	"time"
)

// Cooldown kinds.
const (
	// sellCooldown blocks buys of a token shortly after the signal source
	// sold it, guarding against stale or out-of-order signals.
	sellCooldown = "sell"
	// copyCooldown blocks rapid re-entry into a token we just copied.
	copyCooldown = "copy"
)

// cooldownSet tracks per-mint expiry times for each cooldown kind. Expired
// entries are removed by a single periodic sweep rather than per-entry
// timers.
type cooldownSet struct {
	mu      sync.Mutex
	expires map[string]time.Time // kind+mint -> expiry
}

func newCooldownSet() *cooldownSet {
	return &cooldownSet{expires: make(map[string]time.Time)}
}

func (c *cooldownSet) start(kind, mint string, d time.Duration, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expires[kind+":"+mint] = now.Add(d)
}

// active reports whether the cooldown is still running. Expiry is checked
// against the clock, so correctness never depends on sweep timing.
func (c *cooldownSet) active(kind, mint string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	expiry, ok := c.expires[kind+":"+mint]
	return ok && now.Before(expiry)
}

// sweep drops expired entries and returns how many were removed.
func (c *cooldownSet) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key, expiry := range c.expires {
		if !now.Before(expiry) {
			delete(c.expires, key)
			removed++
		}
	}
	return removed
}
