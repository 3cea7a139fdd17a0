package outbox

import (
	"context"
	"encoding/json"
	"time"

	"helpbridge/internal/events"
	"helpbridge/internal/repository"

	"go.uber.org/zap"
)

// Processor publishes committed outbox events to their Redis channel.
type Processor struct {
	repo       repository.OutboxRepository
	publisher  events.Publisher
	log        *zap.Logger
	batchSize  int
	interval   time.Duration
	maxRetries int
}

func NewProcessor(repo repository.OutboxRepository, publisher events.Publisher, batchSize int, interval time.Duration, maxRetries int) *Processor {
	return &Processor{
		repo:       repo,
		publisher:  publisher,
		log:        zap.L().Named("outbox"),
		batchSize:  batchSize,
		interval:   interval,
		maxRetries: maxRetries,
	}
}

func (p *Processor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publishes up to batchSize pending events and returns how many
// were delivered.
func (p *Processor) ProcessBatch(ctx context.Context) int {
	batch, err := p.repo.GetPending(ctx, p.batchSize, p.maxRetries)
	if err != nil {
		p.log.Error("load pending outbox events", zap.Error(err))
		return 0
	}

	delivered := 0
	for _, e := range batch {
		if err := p.repo.MarkProcessing(ctx, e.ID); err != nil {
			p.log.Warn("mark outbox event processing", zap.String("event_id", e.ID.String()), zap.Error(err))
			continue
		}

		env := events.Envelope{
			EventType:     e.EventType,
			AggregateType: e.AggregateType,
			AggregateID:   e.AggregateID.String(),
			OccurredAt:    e.CreatedAt.UTC(),
			Payload:       json.RawMessage(e.Payload),
		}
		payload, err := json.Marshal(env)
		if err != nil {
			_ = p.repo.MarkFailed(ctx, e.ID, err.Error())
			continue
		}

		if err := p.publisher.Publish(ctx, e.Channel, payload); err != nil {
			p.log.Warn("publish outbox event",
				zap.String("event_id", e.ID.String()),
				zap.String("channel", e.Channel),
				zap.Int("retry", e.RetryCount+1),
				zap.Error(err),
			)
			if e.RetryCount+1 >= p.maxRetries {
				_ = p.repo.MarkFailed(ctx, e.ID, err.Error())
			} else {
				_ = p.repo.IncrementRetry(ctx, e.ID, err.Error())
			}
			continue
		}

		if err := p.repo.MarkCompleted(ctx, e.ID); err != nil {
			p.log.Warn("mark outbox event completed", zap.String("event_id", e.ID.String()), zap.Error(err))
		}
		delivered++
	}
	return delivered
}
