package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	Reset      time.Time
}

// Limiter provides fixed-window rate limit checks. Implementations must be
// safe for concurrent use; the Redis backing stays correct across server
// instances, the memory backing only within one process.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error)
	Reset(ctx context.Context, key string) error
}
