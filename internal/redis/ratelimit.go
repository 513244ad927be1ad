package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// fixedWindow counts one action and starts the window on the first one.
// KEYS[1] is the limiter key, ARGV[1] the ceiling and ARGV[2] the window in ms.
var fixedWindow = goredis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[2])
	end
	if current <= tonumber(ARGV[1]) then
		return 1
	end
	return 0
`)

// RateLimiter is a fixed-window limiter shared by every instance using the same
// Redis. Keys expire on their own, so it needs no sweeper.
type RateLimiter struct {
	client goredis.Cmdable
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client goredis.Cmdable) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow reports whether one more action under key fits in max per window.
func (r *RateLimiter) Allow(ctx context.Context, key string, max int, window time.Duration) (bool, error) {
	res, err := fixedWindow.Run(ctx, r.client, []string{key}, max, window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}
	return res == 1, nil
}
