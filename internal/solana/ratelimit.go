package solana

import (
	"context"
	"sync"
	"time"
)

// rateLimiter is a token bucket that caps request rate against the RPC
// provider. Capacity equals one second of refill, so short bursts are
// allowed but the sustained rate stays at the configured limit.
type rateLimiter struct {
	mu       sync.Mutex
	rate     float64
	capacity float64
	tokens   float64
	last     time.Time
}

func newRateLimiter(perSecond float64) *rateLimiter {
	return &rateLimiter{
		rate:     perSecond,
		capacity: perSecond,
		tokens:   perSecond,
		last:     time.Now(),
	}
}

// wait blocks until a token is available or the context is cancelled.
func (l *rateLimiter) wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()
		l.tokens += now.Sub(l.last).Seconds() * l.rate
		if l.tokens > l.capacity {
			l.tokens = l.capacity
		}
		l.last = now

		if l.tokens >= 1 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}

		deficit := (1 - l.tokens) / l.rate
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(deficit * float64(time.Second))):
		}
	}
}
