package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"helpbridge/internal/domain/match"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - match:{match_id}:participants - match membership and status

// CacheStore handles caching in Redis
type CacheStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewCacheStore(client *goredis.Client, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CacheStore{client: client, ttl: ttl}
}

func participantsKey(matchID uuid.UUID) string {
	return fmt.Sprintf("match:%s:participants", matchID.String())
}

// GetMatchParticipants returns false on a cache miss.
func (c *CacheStore) GetMatchParticipants(ctx context.Context, matchID uuid.UUID) (match.Participants, bool, error) {
	data, err := c.client.Get(ctx, participantsKey(matchID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return match.Participants{}, false, nil
	}
	if err != nil {
		return match.Participants{}, false, err
	}

	var p match.Participants
	if err := json.Unmarshal(data, &p); err != nil {
		return match.Participants{}, false, err
	}
	return p, true, nil
}

func (c *CacheStore) SetMatchParticipants(ctx context.Context, p match.Participants) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, participantsKey(p.MatchID), data, c.ttl).Err()
}

func (c *CacheStore) InvalidateMatchParticipants(ctx context.Context, matchID uuid.UUID) error {
	return c.client.Del(ctx, participantsKey(matchID)).Err()
}
