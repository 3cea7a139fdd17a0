package repository

import (
	"context"

	"gorm.io/gorm"
)

type GormUnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

func (u *GormUnitOfWork) WithinTx(ctx context.Context, fn func(Stores) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormStores{tx: tx})
	})
}

// gormStores binds fresh repositories to a single transaction handle.
type gormStores struct {
	tx *gorm.DB
}

func (s gormStores) Requests() RequestRepository { return NewRequestRepository(s.tx) }
func (s gormStores) Matches() MatchRepository    { return NewMatchRepository(s.tx) }
func (s gormStores) Messages() MessageRepository { return NewMessageRepository(s.tx) }
func (s gormStores) Outbox() OutboxRepository    { return NewOutboxRepository(s.tx) }
