package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bp848/prod-bperp/internal/events"
	"github.com/bp848/prod-bperp/internal/notification"
	"github.com/bp848/prod-bperp/internal/user"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeApplicationLifecycle turns lifecycle events into user
// notifications: the next approver hears about work waiting on them,
// the applicant hears about the final outcome. Notification failures
// are logged and the message is committed anyway; a decision is never
// replayed because a mail could not be sent.
func ConsumeApplicationLifecycle(
	ctx context.Context,
	reader *kafkago.Reader,
	userRepo user.Repository,
	notifier notification.Notifier,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.application_lifecycle")
	log.Info("application lifecycle consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("application lifecycle consumer stopped")
				return
			}
			log.Error("fetch application lifecycle message failed", zap.Error(err))
			continue
		}

		var event events.ApplicationLifecycleEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode application lifecycle event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		for _, m := range buildNotifications(ctx, event, userRepo, log) {
			if err := notifier.Notify(ctx, m); err != nil {
				log.Error("notify failed",
					zap.String("application_id", event.ApplicationID),
					zap.String("event_type", event.EventType),
					zap.String("recipient", m.Recipient),
					zap.Error(err),
				)
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit application lifecycle message failed", zap.Error(err))
			continue
		}

		log.Info("application lifecycle event handled",
			zap.String("application_id", event.ApplicationID),
			zap.String("event_type", event.EventType),
		)
	}
}

func buildNotifications(
	ctx context.Context,
	event events.ApplicationLifecycleEvent,
	userRepo user.Repository,
	log *zap.Logger,
) []notification.Message {
	var msgs []notification.Message

	switch event.EventType {
	case events.ApplicationSubmitted, events.ApplicationStepAdvanced:
		if email, ok := resolveEmail(ctx, userRepo, event.NextApproverID, log); ok {
			msgs = append(msgs, notification.Message{
				Recipient: email,
				Subject:   fmt.Sprintf("Approval requested: %s", event.ApplicationNumber),
				Body: fmt.Sprintf("Application %s is waiting for your decision at level %d.",
					event.ApplicationNumber, event.CurrentLevel),
			})
		}
	case events.ApplicationApproved:
		if email, ok := resolveEmail(ctx, userRepo, event.ApplicantID, log); ok {
			msgs = append(msgs, notification.Message{
				Recipient: email,
				Subject:   fmt.Sprintf("Application approved: %s", event.ApplicationNumber),
				Body:      fmt.Sprintf("Application %s has completed approval.", event.ApplicationNumber),
			})
		}
	case events.ApplicationRejected:
		if email, ok := resolveEmail(ctx, userRepo, event.ApplicantID, log); ok {
			msgs = append(msgs, notification.Message{
				Recipient: email,
				Subject:   fmt.Sprintf("Application rejected: %s", event.ApplicationNumber),
				Body: fmt.Sprintf("Application %s was rejected: %s",
					event.ApplicationNumber, event.Reason),
			})
		}
	default:
		log.Warn("unknown application lifecycle event type",
			zap.String("event_type", event.EventType),
		)
	}

	return msgs
}

func resolveEmail(ctx context.Context, userRepo user.Repository, userID string, log *zap.Logger) (string, bool) {
	if userID == "" {
		return "", false
	}

	u, err := userRepo.FindByID(ctx, userID)
	if err != nil {
		log.Error("resolve notification recipient failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return "", false
	}
	return u.Email, true
}
