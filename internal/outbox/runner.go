package outbox

import (
	"context"
	"time"

	"helpbridge/config"
	"helpbridge/internal/events"
	"helpbridge/internal/repository"
)

type Runner struct {
	processor *Processor
}

func NewRunner(processor *Processor) *Runner {
	return &Runner{processor: processor}
}

func (r *Runner) Start(ctx context.Context) {
	go r.processor.Run(ctx)
}

func DefaultProcessor(repo repository.OutboxRepository, publisher events.Publisher) *Processor {
	return NewProcessor(repo, publisher, 100, time.Second*2, 5)
}

// ProcessorFromConfig falls back to DefaultProcessor values for unset keys.
func ProcessorFromConfig(cfg *config.Config, repo repository.OutboxRepository, publisher events.Publisher) *Processor {
	p := DefaultProcessor(repo, publisher)
	if cfg.OutboxBatch > 0 {
		p.batchSize = cfg.OutboxBatch
	}
	if cfg.OutboxIntervalMS > 0 {
		p.interval = time.Duration(cfg.OutboxIntervalMS) * time.Millisecond
	}
	if cfg.OutboxMaxRetries > 0 {
		p.maxRetries = cfg.OutboxMaxRetries
	}
	return p
}
