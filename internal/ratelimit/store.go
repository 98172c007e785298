// Package ratelimit implements fixed-window request counting per client and endpoint class.
//
// The in-memory store is correct only within a single process: every instance keeps its own
// counters. Deployments running more than one instance need the Redis store.
package ratelimit

import (
	"context"
	"math"
	"time"
)

// Decision is the outcome of a single Check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter returns the whole number of seconds until the window resets, never less than one.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(math.Ceil(d.ResetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}

// Store counts requests per key. Implementations must make the increment and the comparison
// atomic with respect to concurrent callers using the same key.
type Store interface {
	Check(ctx context.Context, key string, maxRequests int, window time.Duration) (Decision, error)
}

// Key joins a policy prefix and a client identifier.
func Key(prefix, clientID string) string {
	return prefix + ":" + clientID
}

func decide(count, maxRequests int, resetAt time.Time) Decision {
	d := Decision{
		Allowed: count <= maxRequests,
		Limit:   maxRequests,
		ResetAt: resetAt,
	}
	if d.Allowed {
		d.Remaining = maxRequests - count
	}
	return d
}
