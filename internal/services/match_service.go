package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"helpbridge/internal/domain/match"
	"helpbridge/internal/domain/user"
	"helpbridge/internal/events"
	"helpbridge/internal/proxy"
	"helpbridge/internal/repository"
	helpbridge_errors "helpbridge/pkg/errors"
	"helpbridge/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MatchView is a match with its participants' display info resolved.
type MatchView struct {
	Match    match.Match
	Helper   user.Summary
	Receiver user.Summary
	Preview  *match.LastMessage
	// Online holds realtime presence per participant; empty when presence
	// is not tracked.
	Online map[uuid.UUID]bool
}

// PresenceReader is satisfied by redis.PresenceStore.
type PresenceReader interface {
	Online(ctx context.Context, ids ...uuid.UUID) (map[uuid.UUID]bool, error)
}

type MatchService struct {
	matchRepo   repository.MatchRepository
	messageRepo repository.MessageRepository
	uow         repository.UnitOfWork
	access      *proxy.AccessControl
	users       *UserService
	presence    PresenceReader
}

func NewMatchService(matchRepo repository.MatchRepository, messageRepo repository.MessageRepository, uow repository.UnitOfWork, access *proxy.AccessControl, users *UserService) *MatchService {
	return &MatchService{
		matchRepo:   matchRepo,
		messageRepo: messageRepo,
		uow:         uow,
		access:      access,
		users:       users,
	}
}

// SetPresence enables online flags on match views.
func (s *MatchService) SetPresence(p PresenceReader) {
	s.presence = p
}

func (s *MatchService) Get(ctx context.Context, matchID, userID uuid.UUID) (MatchView, error) {
	if _, err := s.access.CanViewMatch(ctx, userID, matchID); err != nil {
		return MatchView{}, err
	}
	m, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return MatchView{}, helpbridge_errors.Internal(err)
	}

	views, err := s.views(ctx, []match.Match{m})
	if err != nil {
		return MatchView{}, err
	}
	return views[0], nil
}

// Inbox lists the caller's matches, most recent activity first.
func (s *MatchService) Inbox(ctx context.Context, userID uuid.UUID) ([]MatchView, error) {
	matches, err := s.matchRepo.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, helpbridge_errors.Internal(err)
	}
	views, err := s.views(ctx, matches)
	if err != nil {
		return nil, err
	}
	// Stored previews may lag behind; order by the derived ones.
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].activity().After(views[j].activity())
	})
	return views, nil
}

// UpdateStatus lets an admin complete or cancel a match.
func (s *MatchService) UpdateStatus(ctx context.Context, actor Identity, matchID uuid.UUID, status match.Status) (match.Match, error) {
	if actor.Role != user.RoleAdmin {
		return match.Match{}, helpbridge_errors.ErrForbidden
	}
	if !status.Valid() {
		return match.Match{}, helpbridge_errors.ErrInvalidInput
	}

	var updated match.Match
	err := s.uow.WithinTx(ctx, func(tx repository.Stores) error {
		if err := tx.Matches().UpdateStatus(ctx, matchID, status); err != nil {
			return err
		}
		m, err := tx.Matches().GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		updated = m
		return createOutboxEvent(ctx, tx.Outbox(), events.MatchChannel(matchID),
			events.AggregateMatch, events.EventTypeMatchStatusChanged, matchID,
			events.MatchStatusPayload{MatchID: matchID, Status: string(status)})
	})
	if err != nil {
		return match.Match{}, helpbridge_errors.Internal(err)
	}

	s.access.Invalidate(ctx, matchID)
	return updated, nil
}

func (s *MatchService) views(ctx context.Context, matches []match.Match) ([]MatchView, error) {
	ids := make([]uuid.UUID, 0, len(matches)*2)
	for _, m := range matches {
		ids = append(ids, m.HelperID, m.ReceiverID)
	}
	summaries, err := s.users.Summaries(ctx, ids...)
	if err != nil {
		return nil, err
	}
	online := s.online(ctx, ids)

	views := make([]MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, MatchView{
			Match:    m,
			Helper:   summaries[m.HelperID],
			Receiver: summaries[m.ReceiverID],
			Preview:  s.preview(ctx, m),
			Online:   online,
		})
	}
	return views, nil
}

func (s *MatchService) online(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]bool {
	if s.presence == nil || len(ids) == 0 {
		return map[uuid.UUID]bool{}
	}
	online, err := s.presence.Online(ctx, ids...)
	if err != nil {
		logger.FromContext(ctx).Warn("load presence", zap.Error(err))
		return map[uuid.UUID]bool{}
	}
	return online
}

// preview derives the last message from history. The stored copy is only
// trusted when it is at least as new as the latest message; a missing or
// older copy is repaired on the way.
func (s *MatchService) preview(ctx context.Context, m match.Match) *match.LastMessage {
	stored := m.Preview()

	latest, err := s.messageRepo.GetLatest(ctx, m.ID)
	if err != nil {
		if !errors.Is(err, helpbridge_errors.ErrNotFound) {
			logger.FromContext(ctx).Warn("load latest message", zap.String("match_id", m.ID.String()), zap.Error(err))
		}
		return stored
	}

	lm := match.LastMessage{Content: latest.Content, SenderID: latest.SenderID, Timestamp: latest.CreatedAt}
	if stored != nil && !stored.Timestamp.Before(lm.Timestamp) {
		return stored
	}
	if err := s.matchRepo.UpdateLastMessage(ctx, m.ID, lm); err != nil {
		logger.FromContext(ctx).Warn("repair match preview", zap.String("match_id", m.ID.String()), zap.Error(err))
	}
	return &lm
}

// activity is the inbox sort key: the newest message, else creation time.
func (v MatchView) activity() time.Time {
	if v.Preview != nil {
		return v.Preview.Timestamp
	}
	return v.Match.CreatedAt
}
