package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roadrank/roadrank/internal/monitoring"
)

func newFallbackLimiter(config Config) *RateLimiter {
	return NewRateLimiter(&RedisClient{enabled: false}, config, monitoring.NewMetrics())
}

func TestRateLimiter_FallbackAllowIP(t *testing.T) {
	limiter := newFallbackLimiter(Config{IPLimitPerMin: 2, DriverCompletionsPerHour: 10, BurstMultiplier: 2})
	defer limiter.Close()

	ctx := context.Background()

	// Burst floor is 5 tokens; the sixth immediate request is denied.
	for i := 0; i < 5; i++ {
		result, err := limiter.AllowIP(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should pass", i+1)
	}

	result, err := limiter.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Greater(t, result.RetryAfter.Seconds(), 0.0)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	limiter := newFallbackLimiter(Config{IPLimitPerMin: 2, DriverCompletionsPerHour: 2, BurstMultiplier: 2})
	defer limiter.Close()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := limiter.AllowIP(ctx, "10.0.0.1")
		require.NoError(t, err)
	}
	blocked, err := limiter.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	// A different IP has its own bucket.
	other, err := limiter.AllowIP(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	// Driver completions use a separate key space.
	driver, err := limiter.AllowDriver(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, driver.Allowed)
}

func TestRateLimiter_GetStats(t *testing.T) {
	limiter := newFallbackLimiter(DefaultConfig())
	defer limiter.Close()

	_, err := limiter.AllowIP(context.Background(), "10.0.0.1")
	require.NoError(t, err)

	stats := limiter.GetStats()
	assert.Equal(t, false, stats["redis_enabled"])
	assert.Equal(t, 1, stats["fallback_limiters"])
}
