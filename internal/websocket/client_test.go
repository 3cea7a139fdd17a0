package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) CanJoinRoom(ctx context.Context, userID, matchID uuid.UUID) error {
	return m.Called(userID, matchID).Error(0)
}

type mockPresence struct {
	mock.Mock
}

func (m *mockPresence) Connect(ctx context.Context, userID uuid.UUID) error {
	return m.Called(userID).Error(0)
}

func (m *mockPresence) Refresh(ctx context.Context, userID uuid.UUID) error {
	return m.Called(userID).Error(0)
}

func (m *mockPresence) Disconnect(ctx context.Context, userID uuid.UUID) error {
	return m.Called(userID).Error(0)
}

func decodeFrame(t *testing.T, raw []byte) Frame {
	t.Helper()
	var f Frame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case b := <-c.send:
			out = append(out, b)
		default:
			return out
		}
	}
}

func lastFrame(t *testing.T, c *Client) Frame {
	t.Helper()
	sent := drain(c)
	require.NotEmpty(t, sent)
	return decodeFrame(t, sent[len(sent)-1])
}

func joinFrame(room string) []byte {
	return encodeFrame(Frame{Event: EventJoinChat, Room: room})
}

func TestClient_JoinAuthorized(t *testing.T) {
	hub := NewHub()
	auth := &mockAuthorizer{}
	userID, matchID := uuid.New(), uuid.New()
	auth.On("CanJoinRoom", userID, matchID).Return(nil)
	c := NewClient(hub, auth, nil, userID)

	c.handleMessage(context.Background(), joinFrame(matchID.String()))
	f := lastFrame(t, c)
	assert.Equal(t, EventJoined, f.Event)
	assert.Equal(t, matchID.String(), f.Room)
	assert.True(t, hub.InRoom(c, matchID))

	// A second join is acknowledged without a second membership.
	c.handleMessage(context.Background(), joinFrame(matchID.String()))
	assert.Equal(t, EventJoined, lastFrame(t, c).Event)
	assert.Equal(t, 1, hub.RoomSize(matchID))
	auth.AssertExpectations(t)
}

func TestClient_JoinRejected(t *testing.T) {
	hub := NewHub()
	auth := &mockAuthorizer{}
	userID := uuid.New()
	forbidden, missing := uuid.New(), uuid.New()
	auth.On("CanJoinRoom", userID, forbidden).Return(helpbridge_errors.ErrForbidden)
	auth.On("CanJoinRoom", userID, missing).Return(helpbridge_errors.ErrNotFound)
	c := NewClient(hub, auth, nil, userID)

	c.handleMessage(context.Background(), joinFrame(forbidden.String()))
	f := lastFrame(t, c)
	assert.Equal(t, EventError, f.Event)
	assert.Equal(t, "not a participant of this match", f.Error)
	assert.Equal(t, 0, hub.RoomSize(forbidden))

	c.handleMessage(context.Background(), joinFrame(missing.String()))
	assert.Equal(t, "match not found", lastFrame(t, c).Error)

	c.handleMessage(context.Background(), joinFrame("not-a-uuid"))
	assert.Equal(t, "invalid room", lastFrame(t, c).Error)
}

func TestClient_LeavePingAndBadFrames(t *testing.T) {
	hub := NewHub()
	auth := &mockAuthorizer{}
	userID, matchID := uuid.New(), uuid.New()
	auth.On("CanJoinRoom", userID, matchID).Return(nil)
	c := NewClient(hub, auth, nil, userID)

	c.handleMessage(context.Background(), joinFrame(matchID.String()))
	c.handleMessage(context.Background(), encodeFrame(Frame{Event: EventLeaveChat, Room: matchID.String()}))
	assert.Equal(t, EventLeft, lastFrame(t, c).Event)
	assert.False(t, hub.InRoom(c, matchID))

	c.handleMessage(context.Background(), encodeFrame(Frame{Event: EventPing}))
	assert.Equal(t, EventPong, lastFrame(t, c).Event)

	c.handleMessage(context.Background(), []byte("{nope"))
	assert.Equal(t, "malformed frame", lastFrame(t, c).Error)

	c.handleMessage(context.Background(), encodeFrame(Frame{Event: "send_message"}))
	assert.Equal(t, "unknown event", lastFrame(t, c).Error)
}

func TestClient_SendAfterStopIsDropped(t *testing.T) {
	c := NewClient(NewHub(), &mockAuthorizer{}, nil, uuid.New())
	assert.True(t, c.Send([]byte("a")))
	c.stop()
	assert.False(t, c.Send([]byte("b")))
}

func TestClientRateLimiter(t *testing.T) {
	rl := NewClientRateLimiter(RateLimits{MaxRoomChanges: 2, MaxPings: 1})
	assert.True(t, rl.Allow(EventJoinChat))
	assert.True(t, rl.Allow(EventLeaveChat))
	assert.False(t, rl.Allow(EventJoinChat))
	assert.True(t, rl.Allow(EventPing))
	assert.False(t, rl.Allow(EventPing))
	assert.False(t, rl.Allow("other"))
}

func TestClient_TrackPresence(t *testing.T) {
	userID := uuid.New()
	presence := &mockPresence{}
	presence.On("Connect", userID).Return(nil).Once()
	presence.On("Refresh", userID).Return(errors.New("redis down")).Once()
	presence.On("Disconnect", userID).Return(nil).Once()

	c := NewClient(NewHub(), &mockAuthorizer{}, nil, userID)
	c.presence = presence

	ctx := context.Background()
	c.trackPresence(ctx, "connect", c.presenceConnect)
	c.trackPresence(ctx, "refresh", c.presenceRefresh)
	c.trackPresence(ctx, "disconnect", c.presenceDisconnect)

	presence.AssertExpectations(t)
}

func TestClient_TrackPresenceWithoutStore(t *testing.T) {
	c := NewClient(NewHub(), &mockAuthorizer{}, nil, uuid.New())
	assert.NotPanics(t, func() {
		c.trackPresence(context.Background(), "connect", c.presenceConnect)
	})
}
