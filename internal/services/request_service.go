package services

import (
	"context"
	"errors"
	"time"

	"helpbridge/internal/domain/match"
	"helpbridge/internal/domain/request"
	"helpbridge/internal/domain/user"
	"helpbridge/internal/events"
	"helpbridge/internal/repository"
	helpbridge_errors "helpbridge/pkg/errors"

	"github.com/google/uuid"
)

// RequestService owns the request ledger and is the only place that writes
// a request and its match together.
type RequestService struct {
	requests repository.RequestRepository
	uow      repository.UnitOfWork
	now      func() time.Time
}

func NewRequestService(requests repository.RequestRepository, uow repository.UnitOfWork) *RequestService {
	return &RequestService{
		requests: requests,
		uow:      uow,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

type CreateRequestInput struct {
	HelperID uuid.UUID
	Category string
	Reason   string
	Details  string
}

func (s *RequestService) Create(ctx context.Context, receiverID uuid.UUID, in CreateRequestInput) (request.HelpRequest, error) {
	hr, err := request.New(receiverID, in.HelperID, in.Category, in.Reason, in.Details, s.now())
	if err != nil {
		return request.HelpRequest{}, err
	}

	err = s.uow.WithinTx(ctx, func(tx repository.Stores) error {
		// An ongoing match counts as an outstanding request for the pair.
		active, err := tx.Matches().HasActiveForPair(ctx, hr.ReceiverID, hr.HelperID)
		if err != nil {
			return err
		}
		if active {
			return helpbridge_errors.ErrDuplicatePending
		}
		if err := tx.Requests().Create(ctx, &hr); err != nil {
			return err
		}
		return createOutboxEvent(ctx, tx.Outbox(), events.UserChannel(hr.HelperID),
			events.AggregateRequest, events.EventTypeRequestCreated, hr.ID, requestPayload(hr))
	})
	if err != nil {
		return request.HelpRequest{}, helpbridge_errors.Internal(err)
	}
	return hr, nil
}

// ListForUser returns inbound requests for helpers and outbound requests for
// everyone else, newest first.
func (s *RequestService) ListForUser(ctx context.Context, id Identity) ([]request.HelpRequest, error) {
	var (
		reqs []request.HelpRequest
		err  error
	)
	if id.Role == user.RoleHelper {
		reqs, err = s.requests.ListByHelper(ctx, id.UserID)
	} else {
		reqs, err = s.requests.ListByReceiver(ctx, id.UserID)
	}
	if err != nil {
		return nil, helpbridge_errors.Internal(err)
	}
	if reqs == nil {
		reqs = []request.HelpRequest{}
	}
	return reqs, nil
}

// Accept turns a pending request addressed to helperID into an active match.
// The match insert and the request update commit together or not at all.
func (s *RequestService) Accept(ctx context.Context, requestID, helperID uuid.UUID) (match.Match, error) {
	var created match.Match
	err := s.uow.WithinTx(ctx, func(tx repository.Stores) error {
		hr, err := s.loadForTransition(ctx, tx, requestID, helperID, request.StatusAccepted)
		if err != nil {
			return err
		}

		now := s.now()
		m := match.FromRequest(hr, now)

		// Stage the request write first; the match insert shares its commit.
		matchID := uuid.NullUUID{UUID: m.ID, Valid: true}
		if err := tx.Requests().UpdateStatus(ctx, hr.ID, request.StatusPending, request.StatusAccepted, matchID); err != nil {
			return err
		}
		if err := tx.Matches().Create(ctx, &m); err != nil {
			return err
		}
		hr.Status = request.StatusAccepted
		hr.MatchID = matchID
		hr.UpdatedAt = now

		if err := createOutboxEvent(ctx, tx.Outbox(), events.UserChannel(hr.ReceiverID),
			events.AggregateRequest, events.EventTypeRequestAccepted, hr.ID, requestPayload(hr)); err != nil {
			return err
		}

		created = m
		return nil
	})
	if err != nil {
		return match.Match{}, helpbridge_errors.Internal(err)
	}
	return created, nil
}

func (s *RequestService) Decline(ctx context.Context, requestID, helperID uuid.UUID) (request.HelpRequest, error) {
	return s.transition(ctx, requestID, helperID, request.StatusDeclined, events.EventTypeRequestDeclined)
}

// Cancel closes a pending request on behalf of the receiver who sent it.
func (s *RequestService) Cancel(ctx context.Context, requestID, receiverID uuid.UUID) (request.HelpRequest, error) {
	return s.transition(ctx, requestID, receiverID, request.StatusClosed, events.EventTypeRequestCancelled)
}

func (s *RequestService) transition(ctx context.Context, requestID, actorID uuid.UUID, target request.Status, eventType string) (request.HelpRequest, error) {
	var updated request.HelpRequest
	err := s.uow.WithinTx(ctx, func(tx repository.Stores) error {
		hr, err := s.loadForTransition(ctx, tx, requestID, actorID, target)
		if err != nil {
			return err
		}
		if err := tx.Requests().UpdateStatus(ctx, hr.ID, request.StatusPending, target, uuid.NullUUID{}); err != nil {
			return err
		}
		hr.Status = target
		hr.UpdatedAt = s.now()

		// Notify whoever did not act.
		notify := hr.ReceiverID
		if actorID == hr.ReceiverID {
			notify = hr.HelperID
		}
		if err := createOutboxEvent(ctx, tx.Outbox(), events.UserChannel(notify),
			events.AggregateRequest, eventType, hr.ID, requestPayload(hr)); err != nil {
			return err
		}

		updated = hr
		return nil
	})
	if err != nil {
		return request.HelpRequest{}, helpbridge_errors.Internal(err)
	}
	return updated, nil
}

// loadForTransition locks the request and checks that actorID may move it to
// target. Helpers acting on a request not addressed to them get ErrNotFound
// so they cannot enumerate other helpers' requests.
func (s *RequestService) loadForTransition(ctx context.Context, tx repository.Stores, requestID, actorID uuid.UUID, target request.Status) (request.HelpRequest, error) {
	hr, err := tx.Requests().GetByIDForUpdate(ctx, requestID)
	if err != nil {
		return request.HelpRequest{}, err
	}
	err = hr.CheckTransition(actorID, target)
	if errors.Is(err, helpbridge_errors.ErrForbidden) && target != request.StatusClosed {
		return request.HelpRequest{}, helpbridge_errors.ErrNotFound
	}
	if err != nil {
		return request.HelpRequest{}, err
	}
	return hr, nil
}
