package message

import (
	"strings"
	"time"
	"unicode/utf8"

	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
)

const MaxContentLength = 4000

// Message represents the messages table. Rows are append-only; CreatedAt is
// assigned by the server and is the ordering key within a match.
type Message struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	MatchID    uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_match_created,priority:1"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index"`
	Content    string    `gorm:"type:text;not null"`
	IsRead     bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;index:idx_messages_match_created,priority:2"`
}

func (Message) TableName() string {
	return "messages"
}

// NormalizeContent trims content and rejects empty or oversized bodies.
func NormalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > MaxContentLength {
		return "", helpbridge_errors.ErrInvalidInput
	}
	return content, nil
}
