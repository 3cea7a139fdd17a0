package repository

import (
	"context"
	"time"

	"helpbridge/internal/domain/request"
	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresRequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &PostgresRequestRepository{db: db}
}

func (r *PostgresRequestRepository) Create(ctx context.Context, hr *request.HelpRequest) error {
	res := r.db.WithContext(ctx).Create(hr)
	if res.Error != nil {
		// ux_help_requests_pending_pair is the only unique index besides the key.
		if isUniqueViolation(res.Error) {
			return helpbridge_errors.ErrDuplicatePending
		}
		return res.Error
	}
	return nil
}

func (r *PostgresRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (request.HelpRequest, error) {
	var hr request.HelpRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&hr).Error
	if err != nil {
		return request.HelpRequest{}, notFound(err)
	}
	return hr, nil
}

func (r *PostgresRequestRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (request.HelpRequest, error) {
	var hr request.HelpRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&hr).Error
	if err != nil {
		return request.HelpRequest{}, notFound(err)
	}
	return hr, nil
}

func (r *PostgresRequestRepository) ListByHelper(ctx context.Context, helperID uuid.UUID) ([]request.HelpRequest, error) {
	var reqs []request.HelpRequest
	err := r.db.WithContext(ctx).
		Where("helper_id = ?", helperID).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *PostgresRequestRepository) ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]request.HelpRequest, error) {
	var reqs []request.HelpRequest
	err := r.db.WithContext(ctx).
		Where("receiver_id = ?", receiverID).
		Order("created_at DESC").
		Find(&reqs).Error
	return reqs, err
}

func (r *PostgresRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to request.Status, matchID uuid.NullUUID) error {
	res := r.db.WithContext(ctx).
		Model(&request.HelpRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"match_id":   matchID,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&request.HelpRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return helpbridge_errors.ErrNotFound
	}
	return helpbridge_errors.ErrInvalidState
}
