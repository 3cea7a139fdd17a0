package websocket

import (
	"context"
	"encoding/json"
	"time"

	"helpbridge/internal/events"

	"go.uber.org/zap"
)

const resubscribeDelay = 2 * time.Second

// RedisBridge forwards events published on Redis to the sessions connected
// to this process.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
	log        *zap.Logger
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub) *RedisBridge {
	return &RedisBridge{
		subscriber: subscriber,
		hub:        hub,
		log:        zap.L().Named("redis_bridge"),
	}
}

// Run subscribes to every service channel and resubscribes after connection
// failures until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) {
	for {
		err := b.subscriber.Subscribe(ctx, []string{events.Pattern}, func(channel string, payload []byte) {
			b.Dispatch(channel, payload)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			b.log.Error("subscription ended", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(resubscribeDelay):
		}
	}
}

// Dispatch routes one published envelope to the hub and returns the number
// of sessions it reached.
func (b *RedisBridge) Dispatch(channel string, payload []byte) int {
	kind, id := events.ParseChannel(channel)
	if kind == events.ChannelUnknown {
		return 0
	}

	var env events.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		b.log.Warn("malformed envelope", zap.String("channel", channel), zap.Error(err))
		return 0
	}
	name, ok := frameEvent(env.EventType)
	if !ok {
		b.log.Debug("unrouted event", zap.String("event_type", env.EventType))
		return 0
	}

	switch kind {
	case events.ChannelMatch:
		frame := encodeFrame(Frame{Event: name, Room: id.String(), Data: env.Payload})
		return b.hub.Publish(id, frame)
	case events.ChannelUser:
		frame := encodeFrame(Frame{Event: name, Data: env.Payload})
		return b.hub.PublishToUser(id, frame)
	}
	return 0
}

func frameEvent(eventType string) (string, bool) {
	switch eventType {
	case events.EventTypeMessageCreated:
		return EventReceiveMessage, true
	case events.EventTypeMatchStatusChanged:
		return EventMatchStatus, true
	case events.EventTypeRequestCreated:
		return EventRequestReceived, true
	case events.EventTypeRequestAccepted:
		return EventRequestAccepted, true
	case events.EventTypeRequestDeclined:
		return EventRequestDeclined, true
	case events.EventTypeRequestCancelled:
		return EventRequestCancelled, true
	}
	return "", false
}
