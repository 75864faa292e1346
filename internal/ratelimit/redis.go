package ratelimit

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisIncrScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter implements a fixed-window rate limiter backed by Redis, so
// counters are shared across server instances.
type RedisLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisLimiter constructs a RedisLimiter.
func NewRedisLimiter(client *redis.Client, prefix string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: strings.TrimSpace(prefix),
	}
}

// Allow checks whether the request fits inside the current window.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	if limit <= 0 || key == "" || l == nil || l.client == nil {
		return Result{Allowed: true}, nil
	}

	windowSecs := int64(window / time.Second)
	if windowSecs < 1 {
		windowSecs = 1
	}
	windowStart := now.Unix() - now.Unix()%windowSecs
	reset := time.Unix(windowStart+windowSecs, 0).UTC()
	redisKey := l.buildKey(key, windowStart)

	res, errEval := redisIncrScript.Run(ctx, l.client, []string{redisKey}, windowSecs).Result()
	if errEval != nil {
		return Result{}, errEval
	}
	count, ok := res.(int64)
	if !ok {
		return Result{}, errors.New("rate limit redis: unexpected response type")
	}

	if count > int64(limit) {
		return Result{Allowed: false, Remaining: 0, RetryAfter: reset.Sub(now), Reset: reset}, nil
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: true, Remaining: remaining, Reset: reset}, nil
}

// Reset drops all live windows for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if l == nil || l.client == nil || key == "" {
		return nil
	}
	pattern := l.buildKey(key, 0)
	pattern = pattern[:strings.LastIndex(pattern, ":")+1] + "*"

	iter := l.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := l.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (l *RedisLimiter) buildKey(key string, windowStart int64) string {
	startStr := strconv.FormatInt(windowStart, 10)
	if l.prefix == "" {
		return key + ":" + startStr
	}
	return l.prefix + ":" + key + ":" + startStr
}
