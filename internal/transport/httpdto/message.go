package httpdto

import (
	"time"

	"helpbridge/internal/domain/message"
)

// SendMessageRequest is used for POST /api/messages
type SendMessageRequest struct {
	MatchID string `json:"matchId" binding:"required"`
	Content string `json:"content"`
}

type MessageDTO struct {
	ID         string    `json:"id"`
	MatchID    string    `json:"matchId"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Content    string    `json:"content"`
	IsRead     bool      `json:"isRead"`
	CreatedAt  time.Time `json:"createdAt"`
}

type MarkReadResponse struct {
	Updated int64 `json:"updated"`
}

func FromMessage(m message.Message) MessageDTO {
	return MessageDTO{
		ID:         m.ID.String(),
		MatchID:    m.MatchID.String(),
		SenderID:   m.SenderID.String(),
		ReceiverID: m.ReceiverID.String(),
		Content:    m.Content,
		IsRead:     m.IsRead,
		CreatedAt:  m.CreatedAt,
	}
}

func FromMessages(in []message.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(in))
	for _, m := range in {
		out = append(out, FromMessage(m))
	}
	return out
}
