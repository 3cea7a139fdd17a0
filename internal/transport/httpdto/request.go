package httpdto

import (
	"time"

	"helpbridge/internal/domain/request"
)

// CreateHelpRequest is used for POST /api/requests
type CreateHelpRequest struct {
	HelperID string `json:"helperId" binding:"required"`
	Category string `json:"category"`
	Reason   string `json:"reason"`
	Details  string `json:"details"`
}

type HelpRequestDTO struct {
	ID         string    `json:"id"`
	ReceiverID string    `json:"receiverId"`
	HelperID   string    `json:"helperId"`
	Category   string    `json:"category"`
	Reason     string    `json:"reason"`
	Details    string    `json:"details,omitempty"`
	Status     string    `json:"status"`
	MatchID    *string   `json:"matchId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func FromHelpRequest(hr request.HelpRequest) HelpRequestDTO {
	dto := HelpRequestDTO{
		ID:         hr.ID.String(),
		ReceiverID: hr.ReceiverID.String(),
		HelperID:   hr.HelperID.String(),
		Category:   hr.Category,
		Reason:     hr.Reason,
		Details:    hr.Details,
		Status:     string(hr.Status),
		CreatedAt:  hr.CreatedAt,
		UpdatedAt:  hr.UpdatedAt,
	}
	if hr.MatchID.Valid {
		id := hr.MatchID.UUID.String()
		dto.MatchID = &id
	}
	return dto
}

func FromHelpRequests(in []request.HelpRequest) []HelpRequestDTO {
	out := make([]HelpRequestDTO, 0, len(in))
	for _, hr := range in {
		out = append(out, FromHelpRequest(hr))
	}
	return out
}

// AcceptRequestResponse is returned by PUT /api/requests/:id/accept
type AcceptRequestResponse struct {
	Match MatchDTO `json:"match"`
}
