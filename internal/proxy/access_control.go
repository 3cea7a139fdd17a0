package proxy

import (
	"context"

	"helpbridge/internal/domain/match"
	"helpbridge/internal/repository"
	helpbridge_errors "helpbridge/pkg/errors"
	"helpbridge/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParticipantCache is satisfied by redis.CacheStore.
type ParticipantCache interface {
	GetMatchParticipants(ctx context.Context, matchID uuid.UUID) (match.Participants, bool, error)
	SetMatchParticipants(ctx context.Context, p match.Participants) error
	InvalidateMatchParticipants(ctx context.Context, matchID uuid.UUID) error
}

// AccessControl answers "may this user touch this match" for every match
// scoped read and write. Membership never changes after a match is created,
// so it is served from cache when possible.
type AccessControl struct {
	matchRepo repository.MatchRepository
	cache     ParticipantCache
}

func NewAccessControl(matchRepo repository.MatchRepository, cache ParticipantCache) *AccessControl {
	return &AccessControl{matchRepo: matchRepo, cache: cache}
}

// CanViewMatch returns ErrNotFound for unknown matches and ErrForbidden for
// users outside the match.
func (a *AccessControl) CanViewMatch(ctx context.Context, userID, matchID uuid.UUID) (match.Participants, error) {
	return a.ensureParticipant(ctx, matchID, userID)
}

func (a *AccessControl) CanSendMessage(ctx context.Context, userID, matchID uuid.UUID) (match.Participants, error) {
	return a.ensureParticipant(ctx, matchID, userID)
}

func (a *AccessControl) CanJoinRoom(ctx context.Context, userID, matchID uuid.UUID) error {
	_, err := a.ensureParticipant(ctx, matchID, userID)
	return err
}

// Invalidate drops the cached entry after the match status changes.
func (a *AccessControl) Invalidate(ctx context.Context, matchID uuid.UUID) {
	if a.cache == nil {
		return
	}
	if err := a.cache.InvalidateMatchParticipants(ctx, matchID); err != nil {
		logger.FromContext(ctx).Warn("invalidate match participants", zap.String("match_id", matchID.String()), zap.Error(err))
	}
}

func (a *AccessControl) ensureParticipant(ctx context.Context, matchID, userID uuid.UUID) (match.Participants, error) {
	p, err := a.participants(ctx, matchID)
	if err != nil {
		return match.Participants{}, err
	}
	if !p.Has(userID) {
		return match.Participants{}, helpbridge_errors.ErrForbidden
	}
	return p, nil
}

func (a *AccessControl) participants(ctx context.Context, matchID uuid.UUID) (match.Participants, error) {
	if a.cache != nil {
		p, ok, err := a.cache.GetMatchParticipants(ctx, matchID)
		if err != nil {
			logger.FromContext(ctx).Warn("read match participants cache", zap.String("match_id", matchID.String()), zap.Error(err))
		} else if ok {
			return p, nil
		}
	}

	m, err := a.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Participants{}, helpbridge_errors.Internal(err)
	}
	p := m.Participants()

	if a.cache != nil {
		if err := a.cache.SetMatchParticipants(ctx, p); err != nil {
			logger.FromContext(ctx).Warn("write match participants cache", zap.String("match_id", matchID.String()), zap.Error(err))
		}
	}
	return p, nil
}
