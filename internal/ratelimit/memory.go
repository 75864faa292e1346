package ratelimit

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	windowStart time.Time
	count       int
}

// MemoryLimiter implements a fixed-window in-memory rate limiter. Counters
// are process-local, so it is only correct for a single-instance
// deployment; multi-instance setups must use the Redis limiter.
type MemoryLimiter struct {
	mu       sync.Mutex
	counters map[string]*memoryEntry
}

// NewMemoryLimiter constructs a MemoryLimiter.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		counters: make(map[string]*memoryEntry),
	}
}

// Allow checks whether the request fits inside the current window.
func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	if limit <= 0 || key == "" {
		return Result{Allowed: true}, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry := l.counters[key]
	if entry == nil || now.Sub(entry.windowStart) >= window {
		entry = &memoryEntry{windowStart: now}
		l.counters[key] = entry
	}

	reset := entry.windowStart.Add(window)
	if entry.count >= limit {
		return Result{Allowed: false, Remaining: 0, RetryAfter: reset.Sub(now), Reset: reset}, nil
	}

	entry.count++
	return Result{Allowed: true, Remaining: limit - entry.count, Reset: reset}, nil
}

// Reset drops the counter for key.
func (l *MemoryLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.counters, key)
	l.mu.Unlock()
	return nil
}

// Sweep removes counters whose window ended before cutoff. Driven by the
// scheduler so the map does not grow without bound.
func (l *MemoryLimiter) Sweep(now time.Time, window time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, entry := range l.counters {
		if now.Sub(entry.windowStart) >= window {
			delete(l.counters, key)
			removed++
		}
	}
	return removed
}
