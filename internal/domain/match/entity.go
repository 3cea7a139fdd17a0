package match

import (
	"database/sql"
	"time"

	"helpbridge/internal/domain/request"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Match represents the matches table. HelperID and ReceiverID are copied from
// the origin request when the match is created and never re-derived.
type Match struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RequestID           uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	HelperID            uuid.UUID      `gorm:"type:uuid;not null;index:idx_matches_helper"`
	ReceiverID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_matches_receiver"`
	Status              Status         `gorm:"type:varchar(16);not null"`
	LastMessageContent  sql.NullString `gorm:"type:text"`
	LastMessageSenderID uuid.NullUUID  `gorm:"type:uuid"`
	LastMessageAt       sql.NullTime
	CreatedAt           time.Time `gorm:"not null"`
	UpdatedAt           time.Time `gorm:"not null"`
}

func (Match) TableName() string {
	return "matches"
}

// LastMessage is the inbox preview of the most recent message.
type LastMessage struct {
	Content   string
	SenderID  uuid.UUID
	Timestamp time.Time
}

// FromRequest creates the active match for an accepted request.
func FromRequest(r request.HelpRequest, now time.Time) Match {
	return Match{
		ID:         uuid.New(),
		RequestID:  r.ID,
		HelperID:   r.HelperID,
		ReceiverID: r.ReceiverID,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (m Match) HasParticipant(userID uuid.UUID) bool {
	return userID != uuid.Nil && (m.HelperID == userID || m.ReceiverID == userID)
}

// Preview returns the stored last message, or nil when none was recorded.
func (m Match) Preview() *LastMessage {
	if !m.LastMessageContent.Valid || !m.LastMessageAt.Valid {
		return nil
	}
	return &LastMessage{
		Content:   m.LastMessageContent.String,
		SenderID:  m.LastMessageSenderID.UUID,
		Timestamp: m.LastMessageAt.Time,
	}
}

func (m *Match) SetPreview(lm LastMessage) {
	m.LastMessageContent = sql.NullString{String: lm.Content, Valid: true}
	m.LastMessageSenderID = uuid.NullUUID{UUID: lm.SenderID, Valid: true}
	m.LastMessageAt = sql.NullTime{Time: lm.Timestamp, Valid: true}
}

// Participants is the immutable membership of a match plus its status.
// It is what access checks and the participant cache work with.
type Participants struct {
	MatchID    uuid.UUID `json:"match_id"`
	HelperID   uuid.UUID `json:"helper_id"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	Status     Status    `json:"status"`
}

func (m Match) Participants() Participants {
	return Participants{MatchID: m.ID, HelperID: m.HelperID, ReceiverID: m.ReceiverID, Status: m.Status}
}

func (p Participants) Has(userID uuid.UUID) bool {
	return userID != uuid.Nil && (p.HelperID == userID || p.ReceiverID == userID)
}

// Counterpart returns the other participant.
func (p Participants) Counterpart(userID uuid.UUID) (uuid.UUID, bool) {
	switch userID {
	case p.HelperID:
		return p.ReceiverID, true
	case p.ReceiverID:
		return p.HelperID, true
	}
	return uuid.Nil, false
}
