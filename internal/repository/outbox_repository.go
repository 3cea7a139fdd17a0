package repository

import (
	"context"
	"time"

	"helpbridge/internal/domain/outbox"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresOutboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &PostgresOutboxRepository{db: db}
}

func (r *PostgresOutboxRepository) Create(ctx context.Context, event *outbox.OutboxEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *PostgresOutboxRepository) GetPending(ctx context.Context, limit, maxRetries int) ([]outbox.OutboxEvent, error) {
	var events []outbox.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < ?", outbox.StatusPending, maxRetries).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	return events, err
}

func (r *PostgresOutboxRepository) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, map[string]interface{}{
		"status": outbox.StatusProcessing,
	})
}

func (r *PostgresOutboxRepository) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return r.setStatus(ctx, id, map[string]interface{}{
		"status":       outbox.StatusCompleted,
		"processed_at": &now,
	})
}

func (r *PostgresOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.setStatus(ctx, id, map[string]interface{}{
		"status": outbox.StatusFailed,
		"error":  errorMsg,
	})
}

// IncrementRetry puts the event back in the pending queue.
func (r *PostgresOutboxRepository) IncrementRetry(ctx context.Context, id uuid.UUID, errorMsg string) error {
	return r.setStatus(ctx, id, map[string]interface{}{
		"status":      outbox.StatusPending,
		"retry_count": gorm.Expr("retry_count + 1"),
		"error":       errorMsg,
	})
}

func (r *PostgresOutboxRepository) setStatus(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return r.db.WithContext(ctx).
		Model(&outbox.OutboxEvent{}).
		Where("id = ?", id).
		Updates(fields).Error
}
