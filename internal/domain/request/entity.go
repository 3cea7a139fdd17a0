package request

import (
	"strings"
	"time"
	"unicode/utf8"

	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusClosed   Status = "closed"
)

const (
	MaxCategoryLength = 64
	MaxReasonLength   = 150
	MaxDetailsLength  = 2000
)

// HelpRequest represents the help_requests table.
// At most one row per (receiver_id, helper_id) may be pending; the partial
// unique index ux_help_requests_pending_pair enforces it.
type HelpRequest struct {
	ID         uuid.UUID     `gorm:"type:uuid;primaryKey"`
	ReceiverID uuid.UUID     `gorm:"type:uuid;not null;index:idx_help_requests_receiver"`
	HelperID   uuid.UUID     `gorm:"type:uuid;not null;index:idx_help_requests_helper"`
	Category   string        `gorm:"type:varchar(64);not null"`
	Reason     string        `gorm:"type:varchar(150);not null"`
	Details    string        `gorm:"type:varchar(2000)"`
	Status     Status        `gorm:"type:varchar(16);not null"`
	MatchID    uuid.NullUUID `gorm:"type:uuid"`
	CreatedAt  time.Time     `gorm:"not null"`
	UpdatedAt  time.Time     `gorm:"not null"`
}

func (HelpRequest) TableName() string {
	return "help_requests"
}

// New builds a pending request after checking the caller supplied fields.
func New(receiverID, helperID uuid.UUID, category, reason, details string, now time.Time) (HelpRequest, error) {
	if receiverID == uuid.Nil || helperID == uuid.Nil {
		return HelpRequest{}, helpbridge_errors.ErrInvalidInput
	}
	if receiverID == helperID {
		return HelpRequest{}, helpbridge_errors.ErrInvalidOperation
	}

	category = strings.TrimSpace(category)
	reason = strings.TrimSpace(reason)
	details = strings.TrimSpace(details)
	if category == "" || reason == "" {
		return HelpRequest{}, helpbridge_errors.ErrInvalidInput
	}
	if utf8.RuneCountInString(category) > MaxCategoryLength ||
		utf8.RuneCountInString(reason) > MaxReasonLength ||
		utf8.RuneCountInString(details) > MaxDetailsLength {
		return HelpRequest{}, helpbridge_errors.ErrInvalidInput
	}

	return HelpRequest{
		ID:         uuid.New(),
		ReceiverID: receiverID,
		HelperID:   helperID,
		Category:   category,
		Reason:     reason,
		Details:    details,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (r HelpRequest) IsPending() bool {
	return r.Status == StatusPending
}

// ActorFor returns the participant allowed to move r into target.
func (r HelpRequest) ActorFor(target Status) (uuid.UUID, bool) {
	switch target {
	case StatusAccepted, StatusDeclined:
		return r.HelperID, true
	case StatusClosed:
		return r.ReceiverID, true
	}
	return uuid.Nil, false
}

// CheckTransition validates that actor may move r into target.
// Authorization is checked before state so that outsiders learn nothing
// about the request's progress.
func (r HelpRequest) CheckTransition(actor uuid.UUID, target Status) error {
	allowed, ok := r.ActorFor(target)
	if !ok {
		return helpbridge_errors.ErrInvalidOperation
	}
	if allowed != actor {
		return helpbridge_errors.ErrForbidden
	}
	if !r.IsPending() {
		return helpbridge_errors.ErrInvalidState
	}
	return nil
}
