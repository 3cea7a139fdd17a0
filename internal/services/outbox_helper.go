package services

import (
	"context"
	"encoding/json"
	"time"

	"helpbridge/internal/domain/outbox"
	"helpbridge/internal/domain/request"
	"helpbridge/internal/events"
	"helpbridge/internal/repository"

	"github.com/google/uuid"
)

// createOutboxEvent queues payload for channel. Call it with the outbox
// repository of the transaction that performs the state change.
func createOutboxEvent(ctx context.Context, repo repository.OutboxRepository, channel, aggregateType, eventType string, aggregateID uuid.UUID, payload interface{}) error {
	if repo == nil {
		return nil
	}
	data := []byte("{}")
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		data = raw
	}
	now := time.Now().UTC()
	return repo.Create(ctx, &outbox.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Channel:       channel,
		Payload:       data,
		Status:        outbox.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func requestPayload(hr request.HelpRequest) events.RequestPayload {
	p := events.RequestPayload{
		RequestID:  hr.ID,
		ReceiverID: hr.ReceiverID,
		HelperID:   hr.HelperID,
		Category:   hr.Category,
		Reason:     hr.Reason,
		Status:     string(hr.Status),
		UpdatedAt:  hr.UpdatedAt,
	}
	if hr.MatchID.Valid {
		id := hr.MatchID.UUID
		p.MatchID = &id
	}
	return p
}
