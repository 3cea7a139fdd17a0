package websocket

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	id     string
	userID uuid.UUID

	mu       sync.Mutex
	received [][]byte
	full     bool
}

func newFakeSession(userID uuid.UUID) *fakeSession {
	return &fakeSession{id: uuid.NewString(), userID: userID}
}

func (s *fakeSession) ID() string        { return s.id }
func (s *fakeSession) UserID() uuid.UUID { return s.userID }

func (s *fakeSession) Send(payload []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full {
		return false
	}
	s.received = append(s.received, payload)
	return true
}

func (s *fakeSession) frames(t *testing.T) []Frame {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Frame, 0, len(s.received))
	for _, raw := range s.received {
		out = append(out, decodeFrame(t, raw))
	}
	return out
}

func (s *fakeSession) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func TestHub_JoinIsIdempotent(t *testing.T) {
	hub := NewHub()
	s := newFakeSession(uuid.New())
	room := uuid.New()

	assert.True(t, hub.Join(s, room))
	assert.False(t, hub.Join(s, room))
	assert.Equal(t, 1, hub.RoomSize(room))

	delivered := hub.Publish(room, []byte(`{"event":"receive_message"}`))
	assert.Equal(t, 1, delivered)
	assert.Equal(t, 1, s.count())
}

func TestHub_PublishReachesEveryMemberOnce(t *testing.T) {
	hub := NewHub()
	room, other := uuid.New(), uuid.New()
	sender := newFakeSession(uuid.New())
	peer := newFakeSession(uuid.New())
	outsider := newFakeSession(uuid.New())

	hub.Join(sender, room)
	hub.Join(peer, room)
	hub.Join(outsider, other)

	assert.Equal(t, 2, hub.Publish(room, []byte(`{}`)))
	assert.Equal(t, 1, sender.count())
	assert.Equal(t, 1, peer.count())
	assert.Equal(t, 0, outsider.count())

	assert.Equal(t, 0, hub.Publish(uuid.New(), []byte(`{}`)))
}

func TestHub_LeaveAndLeaveAll(t *testing.T) {
	hub := NewHub()
	s := newFakeSession(uuid.New())
	a, b := uuid.New(), uuid.New()
	hub.Join(s, a)
	hub.Join(s, b)

	hub.Leave(s, a)
	assert.False(t, hub.InRoom(s, a))
	assert.True(t, hub.InRoom(s, b))

	hub.Join(s, a)
	hub.LeaveAll(s)
	assert.Equal(t, 0, hub.RoomSize(a))
	assert.Equal(t, 0, hub.RoomSize(b))

	// Leaving again is harmless.
	hub.LeaveAll(s)
	hub.Leave(s, a)
}

func TestHub_UnregisterDropsRoomsAndUserIndex(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	first, second := newFakeSession(userID), newFakeSession(userID)
	room := uuid.New()

	hub.Register(first)
	hub.Register(second)
	hub.Join(first, room)
	assert.Equal(t, 2, hub.SessionCount())
	assert.Equal(t, 2, hub.PublishToUser(userID, []byte(`{}`)))

	hub.Unregister(first)
	assert.Equal(t, 1, hub.SessionCount())
	assert.Equal(t, 0, hub.RoomSize(room))
	assert.Equal(t, 1, hub.PublishToUser(userID, []byte(`{}`)))
}

func TestHub_FullSessionDoesNotBlockOthers(t *testing.T) {
	hub := NewHub()
	room := uuid.New()
	stuck := newFakeSession(uuid.New())
	stuck.full = true
	ok := newFakeSession(uuid.New())
	hub.Join(stuck, room)
	hub.Join(ok, room)

	assert.Equal(t, 1, hub.Publish(room, []byte(`{}`)))
	assert.Equal(t, 1, ok.count())
}

func TestHub_ConcurrentMembership(t *testing.T) {
	hub := NewHub()
	room := uuid.New()
	const n = 50
	sessions := make([]*fakeSession, n)
	for i := range sessions {
		sessions[i] = newFakeSession(uuid.New())
	}

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(3)
		go func(s *fakeSession) { defer wg.Done(); hub.Join(s, room) }(s)
		go func(s *fakeSession) { defer wg.Done(); hub.Join(s, room) }(s)
		go func() { defer wg.Done(); hub.Publish(room, []byte(`{}`)) }()
	}
	wg.Wait()
	require.Equal(t, n, hub.RoomSize(room))

	for _, s := range sessions[:n/2] {
		wg.Add(1)
		go func(s *fakeSession) { defer wg.Done(); hub.LeaveAll(s) }(s)
	}
	wg.Wait()
	assert.Equal(t, n-n/2, hub.RoomSize(room))
}
