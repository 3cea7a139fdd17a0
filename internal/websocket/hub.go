package websocket

import (
	"sync"

	"github.com/google/uuid"
)

// Session is one live socket as seen by the hub.
type Session interface {
	ID() string
	UserID() uuid.UUID
	// Send queues payload without blocking and reports whether it was accepted.
	Send(payload []byte) bool
}

// Hub tracks which sessions sit in which match room and which sessions belong
// to which user. One Hub lives for the whole process.
type Hub struct {
	mu sync.RWMutex

	// rooms maps match id to the sessions joined to it
	rooms map[uuid.UUID]map[Session]struct{}

	// joined is the reverse index used by LeaveAll
	joined map[Session]map[uuid.UUID]struct{}

	// users maps user id to that user's connected sessions
	users map[uuid.UUID]map[Session]struct{}

	log *WebSocketLogger
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[Session]struct{}),
		joined: make(map[Session]map[uuid.UUID]struct{}),
		users:  make(map[uuid.UUID]map[Session]struct{}),
		log:    NewWebSocketLogger(),
	}
}

// Register makes s reachable through PublishToUser.
func (h *Hub) Register(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.users[s.UserID()]
	if !ok {
		set = make(map[Session]struct{})
		h.users[s.UserID()] = set
	}
	set[s] = struct{}{}
}

// Unregister drops s from every room and from the user index.
func (h *Hub) Unregister(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveAllLocked(s)
	if set, ok := h.users[s.UserID()]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(h.users, s.UserID())
		}
	}
}

// Join adds s to the room of matchID. Joining twice is a no-op; the result
// reports whether s was newly added.
func (h *Hub) Join(s Session, matchID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[matchID]
	if !ok {
		room = make(map[Session]struct{})
		h.rooms[matchID] = room
	}
	if _, already := room[s]; already {
		return false
	}
	room[s] = struct{}{}

	rooms, ok := h.joined[s]
	if !ok {
		rooms = make(map[uuid.UUID]struct{})
		h.joined[s] = rooms
	}
	rooms[matchID] = struct{}{}
	return true
}

func (h *Hub) Leave(s Session, matchID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, matchID)
}

// LeaveAll removes s from every room it joined.
func (h *Hub) LeaveAll(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveAllLocked(s)
}

// Publish delivers payload once to every session in the room of matchID and
// returns how many sessions accepted it.
func (h *Hub) Publish(matchID uuid.UUID, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deliver(h.rooms[matchID], payload)
}

// PublishToUser delivers payload to every session of userID.
func (h *Hub) PublishToUser(userID uuid.UUID, payload []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.deliver(h.users[userID], payload)
}

func (h *Hub) RoomSize(matchID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[matchID])
}

func (h *Hub) InRoom(s Session, matchID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.rooms[matchID][s]
	return ok
}

func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.users {
		n += len(set)
	}
	return n
}

func (h *Hub) deliver(set map[Session]struct{}, payload []byte) int {
	delivered := 0
	for s := range set {
		if s.Send(payload) {
			delivered++
			continue
		}
		h.log.Warn("send_buffer_full", s.UserID(), s.ID())
	}
	return delivered
}

func (h *Hub) leaveLocked(s Session, matchID uuid.UUID) {
	if room, ok := h.rooms[matchID]; ok {
		delete(room, s)
		if len(room) == 0 {
			delete(h.rooms, matchID)
		}
	}
	if rooms, ok := h.joined[s]; ok {
		delete(rooms, matchID)
		if len(rooms) == 0 {
			delete(h.joined, s)
		}
	}
}

func (h *Hub) leaveAllLocked(s Session) {
	for matchID := range h.joined[s] {
		h.leaveLocked(s, matchID)
	}
}
