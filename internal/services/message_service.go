package services

import (
	"context"
	"time"

	"helpbridge/internal/domain/match"
	"helpbridge/internal/domain/message"
	"helpbridge/internal/proxy"
	"helpbridge/internal/repository"
	helpbridge_errors "helpbridge/pkg/errors"
	"helpbridge/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fanout delivers a persisted message to the realtime room of its match.
type Fanout interface {
	Publish(ctx context.Context, m message.Message) error
}

type MessageService struct {
	messageRepo repository.MessageRepository
	matchRepo   repository.MatchRepository
	access      *proxy.AccessControl
	fanout      Fanout
	now         func() time.Time
}

func NewMessageService(messageRepo repository.MessageRepository, matchRepo repository.MatchRepository, access *proxy.AccessControl, fanout Fanout) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		matchRepo:   matchRepo,
		access:      access,
		fanout:      fanout,
		now:         time.Now,
	}
}

// SetClock replaces the time source used for message timestamps.
func (s *MessageService) SetClock(now func() time.Time) {
	s.now = now
}

// Send persists a message from senderID to the other participant of the
// match. Once the insert commits the call succeeds; preview and realtime
// delivery failures are only logged.
func (s *MessageService) Send(ctx context.Context, matchID, senderID uuid.UUID, content string) (message.Message, error) {
	p, err := s.access.CanSendMessage(ctx, senderID, matchID)
	if err != nil {
		return message.Message{}, err
	}
	content, err = message.NormalizeContent(content)
	if err != nil {
		return message.Message{}, err
	}

	receiverID, ok := p.Counterpart(senderID)
	if !ok {
		return message.Message{}, helpbridge_errors.ErrForbidden
	}

	msg := message.Message{
		ID:         uuid.New(),
		MatchID:    matchID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		IsRead:     false,
		CreatedAt:  s.now().UTC().Truncate(time.Microsecond),
	}
	if err := s.messageRepo.Create(ctx, &msg); err != nil {
		return message.Message{}, helpbridge_errors.Internal(err)
	}

	log := logger.FromContext(ctx).With(zap.String("match_id", matchID.String()), zap.String("message_id", msg.ID.String()))

	lm := match.LastMessage{Content: msg.Content, SenderID: msg.SenderID, Timestamp: msg.CreatedAt}
	if err := s.matchRepo.UpdateLastMessage(ctx, matchID, lm); err != nil {
		log.Warn("record last message", zap.Error(err))
	}

	if s.fanout != nil {
		if err := s.fanout.Publish(ctx, msg); err != nil {
			log.Warn("fanout message", zap.Error(err))
		}
	}

	return msg, nil
}

// History returns every message of the match, oldest first.
func (s *MessageService) History(ctx context.Context, matchID, userID uuid.UUID) ([]message.Message, error) {
	if _, err := s.access.CanViewMatch(ctx, userID, matchID); err != nil {
		return nil, err
	}
	msgs, err := s.messageRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, helpbridge_errors.Internal(err)
	}
	if msgs == nil {
		msgs = []message.Message{}
	}
	return msgs, nil
}

// MarkRead flags every message addressed to userID in the match as read.
func (s *MessageService) MarkRead(ctx context.Context, matchID, userID uuid.UUID) (int64, error) {
	if _, err := s.access.CanViewMatch(ctx, userID, matchID); err != nil {
		return 0, err
	}
	n, err := s.messageRepo.MarkRead(ctx, matchID, userID)
	if err != nil {
		return 0, helpbridge_errors.Internal(err)
	}
	return n, nil
}
