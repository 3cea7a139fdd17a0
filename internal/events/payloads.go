package events

import (
	"time"

	"helpbridge/internal/domain/message"

	"github.com/google/uuid"
)

// RequestPayload is published to the counterpart's user channel whenever a
// help request changes state.
type RequestPayload struct {
	RequestID  uuid.UUID  `json:"requestId"`
	ReceiverID uuid.UUID  `json:"receiverId"`
	HelperID   uuid.UUID  `json:"helperId"`
	Category   string     `json:"category"`
	Reason     string     `json:"reason"`
	Status     string     `json:"status"`
	MatchID    *uuid.UUID `json:"matchId,omitempty"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// MatchStatusPayload is published to a match channel when an admin changes
// the match status.
type MatchStatusPayload struct {
	MatchID uuid.UUID `json:"matchId"`
	Status  string    `json:"status"`
}

// MessagePayload is the realtime representation of a persisted message.
type MessagePayload struct {
	ID         uuid.UUID `json:"id"`
	MatchID    uuid.UUID `json:"matchId"`
	SenderID   uuid.UUID `json:"senderId"`
	ReceiverID uuid.UUID `json:"receiverId"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewMessagePayload(m message.Message) MessagePayload {
	return MessagePayload{
		ID:         m.ID,
		MatchID:    m.MatchID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}
