package httpdto

import (
	"time"

	"helpbridge/internal/domain/match"
	"helpbridge/internal/domain/user"

	"github.com/google/uuid"
)

type LastMessageDTO struct {
	Content   string    `json:"content"`
	SenderID  string    `json:"senderId"`
	Timestamp time.Time `json:"timestamp"`
}

type MatchDTO struct {
	ID          string          `json:"id"`
	RequestID   string          `json:"requestId"`
	HelperID    string          `json:"helperId"`
	ReceiverID  string          `json:"receiverId"`
	Status      string          `json:"status"`
	LastMessage *LastMessageDTO `json:"lastMessage"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// UserSummaryDTO is the participant info embedded in match responses
type UserSummaryDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	City         string `json:"city,omitempty"`
	ProfileImage string `json:"profileImage,omitempty"`
	IsOnline     bool   `json:"isOnline"`
}

// MatchDetailDTO is a match with both participants resolved
type MatchDetailDTO struct {
	MatchDTO
	Helper   UserSummaryDTO `json:"helper"`
	Receiver UserSummaryDTO `json:"receiver"`
}

// UpdateMatchStatusRequest is used for PUT /api/admin/matches/:id/status
type UpdateMatchStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func FromMatch(m match.Match) MatchDTO {
	return MatchDTO{
		ID:          m.ID.String(),
		RequestID:   m.RequestID.String(),
		HelperID:    m.HelperID.String(),
		ReceiverID:  m.ReceiverID.String(),
		Status:      string(m.Status),
		LastMessage: FromLastMessage(m.Preview()),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func FromLastMessage(lm *match.LastMessage) *LastMessageDTO {
	if lm == nil {
		return nil
	}
	return &LastMessageDTO{
		Content:   lm.Content,
		SenderID:  lm.SenderID.String(),
		Timestamp: lm.Timestamp,
	}
}

func FromSummary(s user.Summary) UserSummaryDTO {
	return UserSummaryDTO{
		ID:           s.ID.String(),
		Name:         s.Name,
		City:         s.City,
		ProfileImage: s.ProfileImage,
	}
}

// NewMatchDetail builds the detail view; preview overrides the stored one
// when the read path reconciled it.
func NewMatchDetail(m match.Match, helper, receiver user.Summary, preview *match.LastMessage, online map[uuid.UUID]bool) MatchDetailDTO {
	dto := MatchDetailDTO{
		MatchDTO: FromMatch(m),
		Helper:   FromSummary(helper),
		Receiver: FromSummary(receiver),
	}
	dto.Helper.IsOnline = online[m.HelperID]
	dto.Receiver.IsOnline = online[m.ReceiverID]
	if preview != nil {
		dto.LastMessage = FromLastMessage(preview)
	}
	return dto
}
