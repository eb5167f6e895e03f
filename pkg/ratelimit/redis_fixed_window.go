package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisKeyPrefix = "ratelimit:"

// RedisFixedWindowLimiter shares one fixed-window budget across proxy
// replicas. INCR creates the counter on first use, PEXPIRE pins the
// window, and the remaining TTL answers when it resets.
type RedisFixedWindowLimiter struct {
	redis        *redis.Client
	limit        int
	window       time.Duration
	timeProvider func() time.Time
}

type RedisFixedWindowOpts struct {
	TimeProvider func() time.Time
}

func NewRedisFixedWindowLimiter(
	redisClient *redis.Client,
	limit int,
	window time.Duration,
	opts *RedisFixedWindowOpts,
) *RedisFixedWindowLimiter {
	timeProvider := time.Now
	if opts != nil && opts.TimeProvider != nil {
		timeProvider = opts.TimeProvider
	}
	return &RedisFixedWindowLimiter{
		redis:        redisClient,
		limit:        limit,
		window:       window,
		timeProvider: timeProvider,
	}
}

func (l *RedisFixedWindowLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	redisKey := redisKeyPrefix + key

	count, err := l.redis.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to increment counter for %s: %w", key, err)
	}

	if count == 1 {
		if err := l.redis.PExpire(ctx, redisKey, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("failed to set window expiry for %s: %w", key, err)
		}
	}

	ttl, err := l.redis.PTTL(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to read window ttl for %s: %w", key, err)
	}
	if ttl < 0 {
		// The counter lost its expiry, re-pin the window.
		if err := l.redis.PExpire(ctx, redisKey, l.window).Err(); err != nil {
			return Decision{}, fmt.Errorf("failed to restore window expiry for %s: %w", key, err)
		}
		ttl = l.window
	}

	now := l.timeProvider()
	d := Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: l.limit - int(count),
		ResetAt:   now.Add(ttl),
	}
	if d.Remaining < 0 {
		d.Remaining = 0
	}
	if !d.Allowed {
		d.RetryAfter = ttl
	}
	return d, nil
}
