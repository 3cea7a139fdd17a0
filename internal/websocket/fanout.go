package websocket

import (
	"context"
	"encoding/json"

	"helpbridge/internal/domain/message"
	"helpbridge/internal/events"
)

// RedisFanout publishes sent messages to their match channel. Every API
// instance's RedisBridge then delivers them to its local room members.
type RedisFanout struct {
	publisher events.Publisher
}

func NewRedisFanout(publisher events.Publisher) *RedisFanout {
	return &RedisFanout{publisher: publisher}
}

func (f *RedisFanout) Publish(ctx context.Context, m message.Message) error {
	env, err := events.NewEnvelope(events.EventTypeMessageCreated, events.AggregateMessage, m.ID.String(), events.NewMessagePayload(m))
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return f.publisher.Publish(ctx, events.MatchChannel(m.MatchID), data)
}
