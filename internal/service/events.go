package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/household-ledger/internal/queue"
)

// EventPublisher delivers activity events after a write commits.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ActivityEvent) error
}

const publishTimeout = 3 * time.Second

// publish is best effort: the write has already committed, so a broker
// failure is logged and otherwise ignored.
func publish(ctx context.Context, p EventPublisher, log *zap.Logger, ev queue.ActivityEvent) {
	if p == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn("activity event dropped", zap.String("type", ev.Type), zap.Error(err))
	}
}
