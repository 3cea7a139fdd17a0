package repository

import (
	"context"
	"time"

	"helpbridge/internal/domain/match"
	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresMatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) MatchRepository {
	return &PostgresMatchRepository{db: db}
}

func (r *PostgresMatchRepository) Create(ctx context.Context, m *match.Match) error {
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return helpbridge_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMatchRepository) GetByID(ctx context.Context, id uuid.UUID) (match.Match, error) {
	var m match.Match
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		return match.Match{}, notFound(err)
	}
	return m, nil
}

func (r *PostgresMatchRepository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]match.Match, error) {
	var matches []match.Match
	err := r.db.WithContext(ctx).
		Where("helper_id = ? OR receiver_id = ?", userID, userID).
		Order("COALESCE(last_message_at, created_at) DESC").
		Find(&matches).Error
	return matches, err
}

func (r *PostgresMatchRepository) HasActiveForPair(ctx context.Context, receiverID, helperID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&match.Match{}).
		Where("receiver_id = ? AND helper_id = ? AND status = ?", receiverID, helperID, match.StatusActive).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresMatchRepository) UpdateLastMessage(ctx context.Context, id uuid.UUID, lm match.LastMessage) error {
	res := r.db.WithContext(ctx).
		Model(&match.Match{}).
		Where("id = ?", id).
		Where("last_message_at IS NULL OR last_message_at <= ?", lm.Timestamp).
		Updates(map[string]interface{}{
			"last_message_content":   lm.Content,
			"last_message_sender_id": lm.SenderID,
			"last_message_at":        lm.Timestamp,
			"updated_at":             time.Now(),
		})
	return res.Error
}

func (r *PostgresMatchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status match.Status) error {
	res := r.db.WithContext(ctx).
		Model(&match.Match{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return helpbridge_errors.ErrNotFound
	}
	return nil
}
