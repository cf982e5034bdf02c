package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) *FixedWindowLimiter {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	return NewFixedWindowLimiter(rdb, max, window)
}

func TestFixedWindowLimiterAdmitsUpToMax(t *testing.T) {
	ctx := context.Background()
	limiter := newTestLimiter(t, 5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		assert.NoError(t, limiter.Admit(ctx, "signin", "10.0.0.1"))
	}

	err := limiter.Admit(ctx, "signin", "10.0.0.1")
	assert.ErrorIs(t, err, ErrRateLimited)

	// other clients and scopes keep their own counters
	assert.NoError(t, limiter.Admit(ctx, "signin", "10.0.0.2"))
	assert.NoError(t, limiter.Admit(ctx, "signup", "10.0.0.1"))
}

func TestFixedWindowLimiterResetsAtWindowBoundary(t *testing.T) {
	ctx := context.Background()
	limiter := newTestLimiter(t, 2, 15*time.Minute)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return base }

	require.NoError(t, limiter.Admit(ctx, "signin", "10.0.0.1"))
	require.NoError(t, limiter.Admit(ctx, "signin", "10.0.0.1"))
	require.ErrorIs(t, limiter.Admit(ctx, "signin", "10.0.0.1"), ErrRateLimited)

	// one second into the next window the counter starts fresh
	limiter.now = func() time.Time { return base.Add(15*time.Minute + time.Second) }
	assert.NoError(t, limiter.Admit(ctx, "signin", "10.0.0.1"))
}

func TestFixedWindowLimiterBackendUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	limiter := NewFixedWindowLimiter(rdb, 5, 15*time.Minute)

	err := limiter.Admit(context.Background(), "signin", "10.0.0.1")
	assert.ErrorIs(t, err, ErrLimiterUnavailable)
}

func TestFixedWindowKeyBuckets(t *testing.T) {
	window := 15 * time.Minute
	early := time.Date(2025, 3, 1, 12, 3, 0, 0, time.UTC)
	late := time.Date(2025, 3, 1, 12, 14, 59, 0, time.UTC)
	next := time.Date(2025, 3, 1, 12, 15, 0, 0, time.UTC)

	assert.Equal(t,
		fixedWindowKey("signin", "10.0.0.1", early, window),
		fixedWindowKey("signin", "10.0.0.1", late, window),
	)
	assert.NotEqual(t,
		fixedWindowKey("signin", "10.0.0.1", late, window),
		fixedWindowKey("signin", "10.0.0.1", next, window),
	)
}
