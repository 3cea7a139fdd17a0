package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
	sendBuffer     = 256
	authorizeWait  = 5 * time.Second
)

var (
	newline = []byte{'\n'}
	space   = []byte{' '}
)

// RoomAuthorizer decides whether a user may join the room of a match.
// proxy.AccessControl satisfies it.
type RoomAuthorizer interface {
	CanJoinRoom(ctx context.Context, userID, matchID uuid.UUID) error
}

// Presence records open sessions per user. redis.PresenceStore satisfies it.
type Presence interface {
	Connect(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, userID uuid.UUID) error
	Disconnect(ctx context.Context, userID uuid.UUID) error
}

// Rate limits per minute
type RateLimits struct {
	MaxRoomChanges int
	MaxPings       int
}

var DefaultRateLimits = RateLimits{
	MaxRoomChanges: 60,
	MaxPings:       60,
}

// ClientRateLimiter tracks inbound frame budgets per connection
type ClientRateLimiter struct {
	limits     RateLimits
	roomTokens int
	pingTokens int
	lastRefill time.Time
	mu         sync.Mutex
}

func NewClientRateLimiter(limits RateLimits) *ClientRateLimiter {
	return &ClientRateLimiter{
		limits:     limits,
		roomTokens: limits.MaxRoomChanges,
		pingTokens: limits.MaxPings,
		lastRefill: time.Now(),
	}
}

func (rl *ClientRateLimiter) Allow(event string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastRefill) >= time.Minute {
		rl.roomTokens = rl.limits.MaxRoomChanges
		rl.pingTokens = rl.limits.MaxPings
		rl.lastRefill = now
	}

	switch event {
	case EventJoinChat, EventLeaveChat:
		if rl.roomTokens > 0 {
			rl.roomTokens--
			return true
		}
	case EventPing:
		if rl.pingTokens > 0 {
			rl.pingTokens--
			return true
		}
	}
	return false
}

// Client is a single socket connection of an authenticated user.
type Client struct {
	hub         *Hub
	authorizer  RoomAuthorizer
	presence    Presence
	conn        *websocket.Conn
	send        chan []byte
	done        chan struct{}
	closeOnce   sync.Once
	userID      uuid.UUID
	clientID    string
	rateLimiter *ClientRateLimiter
	connectedAt time.Time
	logger      *WebSocketLogger
}

func NewClient(hub *Hub, authorizer RoomAuthorizer, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:         hub,
		authorizer:  authorizer,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		done:        make(chan struct{}),
		userID:      userID,
		clientID:    uuid.NewString(),
		rateLimiter: NewClientRateLimiter(DefaultRateLimits),
		connectedAt: time.Now(),
		logger:      NewWebSocketLogger(),
	}
}

func (c *Client) ID() string        { return c.clientID }
func (c *Client) UserID() uuid.UUID { return c.userID }

// Send never blocks; a full buffer or a closed client drops the payload.
func (c *Client) Send(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Serve runs the pumps until the connection ends and then removes the
// client from the hub.
func (c *Client) Serve(ctx context.Context) {
	c.hub.Register(c)
	c.trackPresence(ctx, "connect", c.presenceConnect)
	c.logger.Info("connected", c.userID, c.clientID)

	go c.writePump()
	c.readPump(ctx)

	c.hub.Unregister(c)
	c.stop()
	c.trackPresence(ctx, "disconnect", c.presenceDisconnect)
	c.logger.Info("disconnected", c.userID, c.clientID, zap.Duration("duration", time.Since(c.connectedAt)))
}

func (c *Client) presenceConnect(ctx context.Context) error {
	return c.presence.Connect(ctx, c.userID)
}

func (c *Client) presenceRefresh(ctx context.Context) error {
	return c.presence.Refresh(ctx, c.userID)
}

func (c *Client) presenceDisconnect(ctx context.Context) error {
	return c.presence.Disconnect(ctx, c.userID)
}

// trackPresence is a no-op without a presence store. Failures only log.
func (c *Client) trackPresence(ctx context.Context, op string, fn func(context.Context) error) {
	if c.presence == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, authorizeWait)
	defer cancel()
	if err := fn(ctx); err != nil {
		c.logger.Warn("presence_"+op+"_failed", c.userID, c.clientID, zap.Error(err))
	}
}

func (c *Client) stop() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) readPump(ctx context.Context) {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.trackPresence(ctx, "refresh", c.presenceRefresh)
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("unexpected_close", c.userID, c.clientID, err)
			}
			return
		}
		raw = bytes.TrimSpace(bytes.Replace(raw, newline, space, -1))
		c.handleMessage(ctx, raw)
	}
}

func (c *Client) handleMessage(ctx context.Context, raw []byte) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		c.Send(errorFrame("", "malformed frame"))
		return
	}

	switch f.Event {
	case EventJoinChat, EventLeaveChat, EventPing:
	default:
		c.Send(errorFrame(f.Room, "unknown event"))
		return
	}

	if !c.rateLimiter.Allow(f.Event) {
		c.logger.Warn("rate_limited", c.userID, c.clientID, zap.String("frame", f.Event))
		c.Send(errorFrame(f.Room, "rate limit exceeded"))
		return
	}

	switch f.Event {
	case EventJoinChat:
		c.handleJoin(ctx, f.Room)
	case EventLeaveChat:
		c.handleLeave(f.Room)
	case EventPing:
		c.Send(encodeFrame(Frame{Event: EventPong}))
	}
}

func (c *Client) handleJoin(ctx context.Context, room string) {
	matchID, err := uuid.Parse(room)
	if err != nil {
		c.Send(errorFrame(room, "invalid room"))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, authorizeWait)
	defer cancel()
	if err := c.authorizer.CanJoinRoom(ctx, c.userID, matchID); err != nil {
		c.logger.Warn("join_rejected", c.userID, c.clientID, zap.String("match_id", room), zap.Error(err))
		c.Send(errorFrame(room, joinError(err)))
		return
	}

	c.hub.Join(c, matchID)
	c.Send(encodeFrame(Frame{Event: EventJoined, Room: room}))
}

func (c *Client) handleLeave(room string) {
	matchID, err := uuid.Parse(room)
	if err != nil {
		c.Send(errorFrame(room, "invalid room"))
		return
	}
	c.hub.Leave(c, matchID)
	c.Send(encodeFrame(Frame{Event: EventLeft, Room: room}))
}

func joinError(err error) string {
	switch {
	case errors.Is(err, helpbridge_errors.ErrNotFound):
		return "match not found"
	case errors.Is(err, helpbridge_errors.ErrForbidden):
		return "not a participant of this match"
	default:
		return "could not join room"
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.stop()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.stop()
				return
			}
		}
	}
}
