package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Presence key patterns:
// - presence:{user_id}:sessions - open socket count, expires without heartbeats

// PresenceStore tracks which users have at least one open realtime session.
// A user with several tabs stays online until the last one closes.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &PresenceStore{client: client, ttl: ttl}
}

func sessionsKey(userID uuid.UUID) string {
	return fmt.Sprintf("presence:%s:sessions", userID.String())
}

var disconnectScript = goredis.NewScript(`
	local left = redis.call('DECR', KEYS[1])
	if left <= 0 then
		redis.call('DEL', KEYS[1])
		left = 0
	end
	return left
`)

// Connect records one more open session for userID.
func (p *PresenceStore) Connect(ctx context.Context, userID uuid.UUID) error {
	pipe := p.client.TxPipeline()
	pipe.Incr(ctx, sessionsKey(userID))
	pipe.Expire(ctx, sessionsKey(userID), p.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// Refresh extends the session counter while sockets keep answering pings.
func (p *PresenceStore) Refresh(ctx context.Context, userID uuid.UUID) error {
	return p.client.Expire(ctx, sessionsKey(userID), p.ttl).Err()
}

// Disconnect drops one session; the counter is removed at zero.
func (p *PresenceStore) Disconnect(ctx context.Context, userID uuid.UUID) error {
	return disconnectScript.Run(ctx, p.client, []string{sessionsKey(userID)}).Err()
}

// Online reports, for each id, whether it has an open session. Missing keys
// read as offline.
func (p *PresenceStore) Online(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]bool, error) {
	out := make(map[uuid.UUID]bool, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionsKey(id)
	}
	vals, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		out[ids[i]] = v != nil
	}
	return out, nil
}
