package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceStore_SessionsCountDown(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewPresenceStore(client, time.Minute)
	ctx := context.Background()
	user := uuid.New()
	key := sessionsKey(user)

	require.NoError(t, store.Connect(ctx, user))
	require.NoError(t, store.Connect(ctx, user))

	v, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "2", v)
	assert.Equal(t, time.Minute, mr.TTL(key))

	require.NoError(t, store.Disconnect(ctx, user))
	online, err := store.Online(ctx, user)
	require.NoError(t, err)
	assert.True(t, online[user], "one tab still open")

	require.NoError(t, store.Disconnect(ctx, user))
	assert.False(t, mr.Exists(key))
	online, err = store.Online(ctx, user)
	require.NoError(t, err)
	assert.False(t, online[user])
}

func TestPresenceStore_DisconnectNeverGoesNegative(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewPresenceStore(client, time.Minute)
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, store.Disconnect(ctx, user))
	assert.False(t, mr.Exists(sessionsKey(user)))

	require.NoError(t, store.Connect(ctx, user))
	v, err := mr.Get(sessionsKey(user))
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestPresenceStore_ExpiresWithoutRefresh(t *testing.T) {
	mr, client := newTestClient(t)
	store := NewPresenceStore(client, time.Minute)
	ctx := context.Background()
	user := uuid.New()

	require.NoError(t, store.Connect(ctx, user))

	mr.FastForward(45 * time.Second)
	require.NoError(t, store.Refresh(ctx, user))
	assert.Equal(t, time.Minute, mr.TTL(sessionsKey(user)))

	mr.FastForward(45 * time.Second)
	online, err := store.Online(ctx, user)
	require.NoError(t, err)
	assert.True(t, online[user])

	mr.FastForward(time.Minute)
	online, err = store.Online(ctx, user)
	require.NoError(t, err)
	assert.False(t, online[user])
}

func TestPresenceStore_OnlineMany(t *testing.T) {
	_, client := newTestClient(t)
	store := NewPresenceStore(client, 0)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, store.Connect(ctx, a))

	online, err := store.Online(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]bool{a: true, b: false}, online)

	empty, err := store.Online(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
