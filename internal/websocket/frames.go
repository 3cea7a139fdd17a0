package websocket

import "encoding/json"

// Frame events.
const (
	// client -> server
	EventJoinChat  = "join_chat"
	EventLeaveChat = "leave_chat"
	EventPing      = "ping"

	// server -> client
	EventJoined           = "joined"
	EventLeft             = "left"
	EventPong             = "pong"
	EventError            = "error"
	EventReceiveMessage   = "receive_message"
	EventMatchStatus      = "match_status"
	EventRequestReceived  = "request_received"
	EventRequestAccepted  = "request_accepted"
	EventRequestDeclined  = "request_declined"
	EventRequestCancelled = "request_cancelled"
)

// Frame is the JSON unit exchanged over a socket in both directions. Room
// carries a match id.
type Frame struct {
	Event string          `json:"event"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

func encodeFrame(f Frame) []byte {
	b, err := json.Marshal(f)
	if err != nil {
		// Frame only holds strings and pre-encoded JSON.
		panic(err)
	}
	return b
}

func errorFrame(room, msg string) []byte {
	return encodeFrame(Frame{Event: EventError, Room: room, Error: msg})
}
