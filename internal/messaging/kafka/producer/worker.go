package producer

import (
	"context"
	"time"

	"github.com/bp848/prod-bperp/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const drainBatchSize = 50

// Delivered events are kept around for a week so operators can trace
// notification history before rows disappear.
const sentRetention = 7 * 24 * time.Hour

// ProcessOutboxEvents polls the outbox and publishes due events until
// the context is cancelled. An hourly sweep purges delivered rows past
// the retention window.
func ProcessOutboxEvents(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	logger *zap.Logger,
	pollInterval time.Duration,
) {
	if pollInterval <= 0 {
		pollInterval = 3 * time.Second
	}

	log := logger.Named("kafka.producer.worker")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	cleanup := time.NewTicker(1 * time.Hour)
	defer cleanup.Stop()

	log.Info("outbox worker started", zap.Duration("poll_interval", pollInterval))

	for {
		select {
		case <-ctx.Done():
			log.Info("outbox worker stopped")
			return
		case <-ticker.C:
			sent, failed, err := drainOnce(ctx, repo, writer, log)
			if err != nil {
				log.Error("drain outbox failed", zap.Error(err))
				continue
			}
			if sent > 0 || failed > 0 {
				log.Info("outbox drained", zap.Int("sent", sent), zap.Int("failed", failed))
			}
		case <-cleanup.C:
			purged, err := repo.DeleteSentBefore(ctx, sentRetention)
			if err != nil {
				log.Error("purge sent outbox events failed", zap.Error(err))
				continue
			}
			if purged > 0 {
				log.Info("purged sent outbox events", zap.Int64("count", purged))
			}
		}
	}
}

// drainOnce publishes one batch. When an event fails, later events for
// the same aggregate are skipped for this round; publishing them ahead
// of the failed one would reorder that aggregate's history.
func drainOnce(
	ctx context.Context,
	repo kafka.OutboxRepository,
	writer *kafkago.Writer,
	logger *zap.Logger,
) (sent, failed int, err error) {
	events, err := repo.ListPending(ctx, drainBatchSize)
	if err != nil {
		return 0, 0, err
	}

	blocked := make(map[string]struct{})
	for _, event := range events {
		if _, held := blocked[event.AggregateID]; held {
			continue
		}

		if err := publishEvent(ctx, writer, event); err != nil {
			logger.Error("publish outbox event failed",
				zap.String("outbox_id", event.ID),
				zap.String("event_type", event.EventType),
				zap.String("aggregate_id", event.AggregateID),
				zap.Error(err),
			)
			_ = repo.MarkFailed(ctx, event.ID, err.Error())
			blocked[event.AggregateID] = struct{}{}
			failed++
			continue
		}

		if err := repo.MarkSent(ctx, event.ID); err != nil {
			logger.Error("mark outbox sent failed",
				zap.String("outbox_id", event.ID),
				zap.Error(err),
			)
			blocked[event.AggregateID] = struct{}{}
			continue
		}
		sent++
	}

	return sent, failed, nil
}
