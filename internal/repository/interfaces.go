package repository

import (
	"context"

	"github.com/google/uuid"

	"helpbridge/internal/domain/match"
	"helpbridge/internal/domain/message"
	"helpbridge/internal/domain/outbox"
	"helpbridge/internal/domain/request"
	"helpbridge/internal/domain/user"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error)
	ListHelpers(ctx context.Context, page, limit int) ([]user.User, int64, error)
	Update(ctx context.Context, u user.User) error

	SaveHelperProfile(ctx context.Context, p *user.HelperProfile) error
	SaveReceiverProfile(ctx context.Context, p *user.ReceiverProfile) error
}

type RequestRepository interface {
	// Create returns ErrDuplicatePending when the pair already has a pending request.
	Create(ctx context.Context, r *request.HelpRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (request.HelpRequest, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (request.HelpRequest, error)
	ListByHelper(ctx context.Context, helperID uuid.UUID) ([]request.HelpRequest, error)
	ListByReceiver(ctx context.Context, receiverID uuid.UUID) ([]request.HelpRequest, error)
	// UpdateStatus moves the request from -> to and returns ErrInvalidState when
	// the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to request.Status, matchID uuid.NullUUID) error
}

type MatchRepository interface {
	Create(ctx context.Context, m *match.Match) error
	GetByID(ctx context.Context, id uuid.UUID) (match.Match, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]match.Match, error)
	HasActiveForPair(ctx context.Context, receiverID, helperID uuid.UUID) (bool, error)
	// UpdateLastMessage stores lm unless a newer preview is already recorded.
	UpdateLastMessage(ctx context.Context, id uuid.UUID, lm match.LastMessage) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status match.Status) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	// ListByMatch returns the full history ordered by created_at ascending.
	ListByMatch(ctx context.Context, matchID uuid.UUID) ([]message.Message, error)
	GetLatest(ctx context.Context, matchID uuid.UUID) (message.Message, error)
	MarkRead(ctx context.Context, matchID, receiverID uuid.UUID) (int64, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *outbox.OutboxEvent) error
	GetPending(ctx context.Context, limit, maxRetries int) ([]outbox.OutboxEvent, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkCompleted(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMsg string) error
	IncrementRetry(ctx context.Context, id uuid.UUID, errorMsg string) error
}

// Stores gives access to repositories that share one transaction.
type Stores interface {
	Requests() RequestRepository
	Matches() MatchRepository
	Messages() MessageRepository
	Outbox() OutboxRepository
}

// UnitOfWork runs fn atomically. Everything written through the Stores passed
// to fn commits together or not at all; fn must not use repositories obtained
// elsewhere for writes that belong to the unit.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(Stores) error) error
}
