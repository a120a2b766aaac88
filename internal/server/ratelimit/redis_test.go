package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func TestNewRedisLimiterInvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      RedisConfig
		expectedErr string
	}{
		{
			name:        "nil client",
			config:      RedisConfig{Limit: 10, Window: time.Minute},
			expectedErr: "redis client is required",
		},
		{
			name:        "zero limit",
			config:      RedisConfig{Client: &redis.Client{}, Window: time.Minute},
			expectedErr: "limit must be greater than 0",
		},
		{
			name:        "zero window",
			config:      RedisConfig{Client: &redis.Client{}, Limit: 10},
			expectedErr: "window must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRedisLimiter(tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestRedisLimiterAllow(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter, err := NewRedisLimiter(RedisConfig{
		Client: client,
		Limit:  3,
		Window: time.Minute,
		Prefix: "test:",
	})
	require.NoError(t, err)

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		info, err := limiter.Allow(ctx, "client-1")
		require.NoError(t, err)
		assert.True(t, info.Allowed, "request %d should be allowed", i)
		assert.Equal(t, 3, info.Limit)
		assert.Equal(t, 3-i-1, info.Remaining)
	}

	info, err := limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	assert.False(t, info.Allowed)
	assert.Equal(t, 0, info.Remaining)
}

func TestRedisLimiterKeysIndependent(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter, err := NewRedisLimiter(RedisConfig{
		Client: client,
		Limit:  1,
		Window: time.Minute,
		Prefix: "test:",
	})
	require.NoError(t, err)

	ctx := context.Background()

	info, err := limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, info.Allowed)

	info, err = limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	assert.False(t, info.Allowed)

	info, err = limiter.Allow(ctx, "client-2")
	require.NoError(t, err)
	assert.True(t, info.Allowed)
}

func TestRedisLimiterWindowSlides(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter, err := NewRedisLimiter(RedisConfig{
		Client: client,
		Limit:  2,
		Window: 200 * time.Millisecond,
		Prefix: "test:",
	})
	require.NoError(t, err)

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		info, err := limiter.Allow(ctx, "client-1")
		require.NoError(t, err)
		require.True(t, info.Allowed)
	}

	info, err := limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	require.False(t, info.Allowed)

	// Entries recorded more than a window ago fall out of the count.
	time.Sleep(250 * time.Millisecond)

	info, err = limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, info.Allowed)
}

func TestRedisLimiterReset(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter, err := NewRedisLimiter(RedisConfig{
		Client: client,
		Limit:  1,
		Window: time.Minute,
		Prefix: "test:",
	})
	require.NoError(t, err)

	ctx := context.Background()

	info, err := limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	require.True(t, info.Allowed)

	info, err = limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	require.False(t, info.Allowed)

	require.NoError(t, limiter.Reset(ctx, "client-1"))

	info, err = limiter.Allow(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, info.Allowed)
}

func TestRedisLimiterCount(t *testing.T) {
	client, _ := setupTestRedis(t)

	limiter, err := NewRedisLimiter(RedisConfig{
		Client: client,
		Limit:  10,
		Window: time.Minute,
		Prefix: "test:",
	})
	require.NoError(t, err)

	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := limiter.Allow(ctx, "client-1")
		require.NoError(t, err)
	}

	count, err := limiter.Count(ctx, "client-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	count, err = limiter.Count(ctx, "untouched")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
