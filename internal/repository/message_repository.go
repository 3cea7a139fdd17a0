package repository

import (
	"context"

	"helpbridge/internal/domain/message"
	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return helpbridge_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) ListByMatch(ctx context.Context, matchID uuid.UUID) ([]message.Message, error) {
	var msgs []message.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error
	return msgs, err
}

func (r *PostgresMessageRepository) GetLatest(ctx context.Context, matchID uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("created_at DESC").
		Order("id DESC").
		First(&m).Error
	if err != nil {
		return message.Message{}, notFound(err)
	}
	return m, nil
}

func (r *PostgresMessageRepository) MarkRead(ctx context.Context, matchID, receiverID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("match_id = ? AND receiver_id = ? AND is_read = ?", matchID, receiverID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
