package repository

import (
	"context"
	"errors"

	"helpbridge/internal/domain/user"
	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	res := r.db.WithContext(ctx).Create(u)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return helpbridge_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).
		Preload("HelperProfile").
		Preload("ReceiverProfile").
		Where("id = ?", id).
		First(&u).Error
	if err != nil {
		return user.User{}, notFound(err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []user.User
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&users).Error
	return users, err
}

func (r *PostgresUserRepository) ListHelpers(ctx context.Context, page, limit int) ([]user.User, int64, error) {
	page, limit = normalizePage(page, limit)

	var users []user.User
	var total int64

	q := r.db.WithContext(ctx).
		Model(&user.User{}).
		Where("role = ?", user.RoleHelper)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := q.
		Preload("HelperProfile").
		Order("name ASC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u user.User) error {
	res := r.db.WithContext(ctx).
		Model(&user.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"name":          u.Name,
			"bio":           u.Bio,
			"city":          u.City,
			"profile_image": u.ProfileImage,
			"updated_at":    u.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return helpbridge_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) SaveHelperProfile(ctx context.Context, p *user.HelperProfile) error {
	return r.upsertProfile(ctx, p)
}

func (r *PostgresUserRepository) SaveReceiverProfile(ctx context.Context, p *user.ReceiverProfile) error {
	return r.upsertProfile(ctx, p)
}

func (r *PostgresUserRepository) upsertProfile(ctx context.Context, p interface{}) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return helpbridge_errors.ErrNotFound
		}
		return err
	}
	return nil
}
