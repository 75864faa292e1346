package ratelimit

import "github.com/redis/go-redis/v9"

// Limiter backends selectable through configuration. Redis keeps attempt
// counters correct when the API runs as more than one instance; memory is
// for single-instance deployments and local development.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// New builds the limiter for the configured backend. For the memory backend
// the concrete limiter is also returned so a background job can sweep its
// expired windows; for redis it is nil, expiry is handled by the server.
func New(backend string, client *redis.Client, prefix string) (Limiter, *MemoryLimiter) {
	if backend == BackendMemory {
		m := NewMemoryLimiter()
		return m, m
	}
	return NewRedisLimiter(client, prefix), nil
}
