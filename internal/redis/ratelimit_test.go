package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewClient(Config{Host: mr.Host(), Port: mr.Port()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRateLimiter_Allow(t *testing.T) {
	mr, client := newTestClient(t)
	limiter := NewRateLimiter(client, RateLimitConfig{
		MessageLimit: 2,
		RequestLimit: 1,
		Window:       time.Minute,
	})
	ctx := context.Background()

	first, err := limiter.Allow(ctx, ActionMessage, "user-1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)
	assert.Equal(t, 2, first.Limit)
	assert.Equal(t, time.Minute, first.ResetIn)

	second, err := limiter.Allow(ctx, ActionMessage, "user-1")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third, err := limiter.Allow(ctx, ActionMessage, "user-1")
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Equal(t, 0, third.Remaining)
	assert.Greater(t, third.ResetIn, time.Duration(0))

	// The rejected call does not bump the counter.
	v, err := mr.Get("ratelimit:user-1:messages")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
	assert.Equal(t, time.Minute, mr.TTL("ratelimit:user-1:messages"))
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	_, client := newTestClient(t)
	limiter := NewRateLimiter(client, RateLimitConfig{MessageLimit: 1, RequestLimit: 1, Window: time.Minute})
	ctx := context.Background()

	res, err := limiter.Allow(ctx, ActionMessage, "user-1")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, ActionRequest, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "other action has its own window")

	res, err = limiter.Allow(ctx, ActionMessage, "user-2")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "other user has its own window")
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	mr, client := newTestClient(t)
	limiter := NewRateLimiter(client, RateLimitConfig{WebSocketLimit: 1, Window: 30 * time.Second})
	ctx := context.Background()

	res, err := limiter.Allow(ctx, ActionWebSocket, "user-1")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	res, err = limiter.Allow(ctx, ActionWebSocket, "user-1")
	require.NoError(t, err)
	require.False(t, res.Allowed)

	mr.FastForward(30 * time.Second)

	res, err = limiter.Allow(ctx, ActionWebSocket, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRateLimiter_Reset(t *testing.T) {
	mr, client := newTestClient(t)
	limiter := NewRateLimiter(client, RateLimitConfig{MessageLimit: 1, RequestLimit: 1, Window: time.Minute})
	ctx := context.Background()

	_, err := limiter.Allow(ctx, ActionMessage, "user-1")
	require.NoError(t, err)
	_, err = limiter.Allow(ctx, ActionRequest, "user-1")
	require.NoError(t, err)

	require.NoError(t, limiter.Reset(ctx, "user-1"))
	assert.False(t, mr.Exists("ratelimit:user-1:messages"))
	assert.False(t, mr.Exists("ratelimit:user-1:requests"))

	res, err := limiter.Allow(ctx, ActionMessage, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRateLimiter_UnknownActionIsDenied(t *testing.T) {
	_, client := newTestClient(t)
	limiter := NewRateLimiter(client, DefaultRateLimitConfig())

	res, err := limiter.Allow(context.Background(), Action("uploads"), "user-1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Limit)
}

func TestHealthCheck(t *testing.T) {
	mr, client := newTestClient(t)

	require.NoError(t, HealthCheck(context.Background(), client))

	mr.Close()
	assert.Error(t, HealthCheck(context.Background(), client))
}
