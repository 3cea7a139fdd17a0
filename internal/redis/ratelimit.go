package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Rate limiting key patterns:
// - ratelimit:{user_id}:messages - per-minute message sends
// - ratelimit:{user_id}:requests - per-minute help requests
// - ratelimit:{user_id}:websocket - per-minute socket connects

// Action names a rate limited operation.
type Action string

const (
	ActionMessage   Action = "messages"
	ActionRequest   Action = "requests"
	ActionWebSocket Action = "websocket"
)

// RateLimitConfig contains configuration for rate limiting
type RateLimitConfig struct {
	MessageLimit   int
	RequestLimit   int
	WebSocketLimit int
	Window         time.Duration
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MessageLimit:   60,
		RequestLimit:   10,
		WebSocketLimit: 20,
		Window:         60 * time.Second,
	}
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

// RateLimiter handles fixed window rate limiting using Redis
type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// The check and increment run as one script so concurrent callers cannot
// both take the last slot.
var allowScript = goredis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')
	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end

	if current < limit then
		redis.call('INCR', key)
		if current == 0 then
			redis.call('EXPIRE', key, window)
		end
		return {1, limit - current - 1, ttl}
	end
	return {0, 0, ttl}
`)

// Allow consumes one slot of action for userID when available.
func (r *RateLimiter) Allow(ctx context.Context, action Action, userID string) (*RateLimitResult, error) {
	limit := r.limitFor(action)
	key := fmt.Sprintf("ratelimit:%s:%s", userID, action)

	result, err := allowScript.Run(ctx, r.client, []string{key}, limit, int(r.config.Window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	resultSlice, ok := result.([]interface{})
	if !ok || len(resultSlice) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}
	allowed, _ := resultSlice[0].(int64)
	remaining, _ := resultSlice[1].(int64)
	ttl, _ := resultSlice[2].(int64)

	return &RateLimitResult{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetIn:   time.Duration(ttl) * time.Second,
		Limit:     limit,
	}, nil
}

// Reset clears every counter for a user
func (r *RateLimiter) Reset(ctx context.Context, userID string) error {
	keys := []string{
		fmt.Sprintf("ratelimit:%s:%s", userID, ActionMessage),
		fmt.Sprintf("ratelimit:%s:%s", userID, ActionRequest),
		fmt.Sprintf("ratelimit:%s:%s", userID, ActionWebSocket),
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RateLimiter) limitFor(action Action) int {
	switch action {
	case ActionMessage:
		return r.config.MessageLimit
	case ActionRequest:
		return r.config.RequestLimit
	case ActionWebSocket:
		return r.config.WebSocketLimit
	}
	return 0
}
