package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// FixedWindowLimiter is a fixed-window counter over Redis: INCR plus a
// conditional EXPIRE on the first hit of a window. Keys embed the window
// start so counters reset at fixed boundaries, not relative to the first
// attempt. O(1) per check; bursts at window edges are an accepted
// tradeoff.
type FixedWindowLimiter struct {
	redis  redis.UniversalClient
	max    int
	window time.Duration
	now    func() time.Time
}

var _ RateLimiter = (*FixedWindowLimiter)(nil)

// NewFixedWindowLimiter creates a limiter allowing max attempts per
// window for each (scope, client) pair.
func NewFixedWindowLimiter(client redis.UniversalClient, max int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		redis:  client,
		max:    max,
		window: window,
		now:    time.Now,
	}
}

// Admit counts an attempt and returns ErrRateLimited once the client has
// exhausted the current window. It runs before any credential work so
// throttled requests never pay for hashing.
func (l *FixedWindowLimiter) Admit(ctx context.Context, scope, client string) error {
	key := fixedWindowKey(scope, client, l.now(), l.window)

	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrLimiterUnavailable, err)
		}
	}

	if count > int64(l.max) {
		return ErrRateLimited
	}

	return nil
}

func fixedWindowKey(scope, client string, now time.Time, window time.Duration) string {
	bucket := now.Truncate(window).Unix()
	return "rl:" + scope + ":" + client + ":" + strconv.FormatInt(bucket, 10)
}
