package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix = "ratelimit:"
)

// RateLimiter is a fixed-window request counter stored in Redis
type RateLimiter struct {
	client   *Client
	requests int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing requests per window for each key
func NewRateLimiter(client *Client, requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client:   client,
		requests: requests,
		window:   window,
		now:      time.Now,
	}
}

// Allow checks if a request should be allowed based on rate limits
// Returns (allowed, remaining, resetTime, error)
func (r *RateLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	fullKey, windowEnd := r.windowKey(key)

	pipe := r.client.rdb.Pipeline()

	incrCmd := pipe.Incr(ctx, fullKey)

	// Set expiry if key is new
	pipe.ExpireNX(ctx, fullKey, r.window)

	_, err := pipe.Exec(ctx)
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, 0, time.Time{}, fmt.Errorf("failed to execute rate limit check: %w", err)
	}

	count := incrCmd.Val()
	remaining := int(int64(r.requests) - count)
	if remaining < 0 {
		remaining = 0
	}

	return count <= int64(r.requests), remaining, windowEnd, nil
}

// Limit returns the number of requests allowed per window
func (r *RateLimiter) Limit() int {
	return r.requests
}

// Reset resets the rate limit counter for a key in the current window
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	fullKey, _ := r.windowKey(key)
	return r.client.rdb.Del(ctx, fullKey).Err()
}

// windowKey names the counter of key for the current window and returns when that window ends
func (r *RateLimiter) windowKey(key string) (string, time.Time) {
	windowStart := r.now().Truncate(r.window)
	return fmt.Sprintf("%s%s:%d", rateLimitPrefix, key, windowStart.Unix()), windowStart.Add(r.window)
}
