package kafka

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	OutboxStatusPending = "pending"
	OutboxStatusSent    = "sent"
	OutboxStatusFailed  = "failed"
)

type OutboxEvent struct {
	ID            string
	RequestID     string
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	Payload       []byte
	Status        string
	RetryCount    int
	NextRetryAt   time.Time
}

// NewEvent builds a pending outbox row for an aggregate mutation. The
// caller persists it with Create inside the same transaction as the
// mutation itself.
func NewEvent(requestID, aggregateType, aggregateID, eventType, topic string, payload []byte) OutboxEvent {
	return OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     requestID,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Topic:         topic,
		Payload:       payload,
		Status:        OutboxStatusPending,
	}
}

//go:generate mockgen -source=outbox_repo.go -destination=mock/outbox_repo_mock.go -package=mock

type OutboxRepository interface {
	WithTx(tx *sql.Tx) OutboxRepository
	Create(ctx context.Context, event OutboxEvent) error
	ListPending(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
	DeleteSentBefore(ctx context.Context, retention time.Duration) (int64, error)
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type outboxRepository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewOutboxRepository(db *sql.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) WithTx(tx *sql.Tx) OutboxRepository {
	return &outboxRepository{db: r.db, tx: tx}
}

func (r *outboxRepository) conn() dbtx {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *outboxRepository) Create(ctx context.Context, event OutboxEvent) error {
	if event.ID == "" || event.Topic == "" || len(event.Payload) == 0 {
		return errors.New("outbox event requires id, topic and payload")
	}

	_, err := r.conn().ExecContext(ctx,
		`INSERT INTO outbox_events
			(id, request_id, aggregate_type, aggregate_id, event_type, topic, payload, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.RequestID, event.AggregateType, event.AggregateID,
		event.EventType, event.Topic, event.Payload, event.Status,
	)
	return err
}

// ListPending returns pending rows plus failed rows whose backoff has
// elapsed, oldest first, so per-aggregate publish order is preserved.
func (r *outboxRepository) ListPending(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := r.conn().QueryContext(ctx,
		`SELECT id::text, aggregate_type, aggregate_id::text, event_type, topic,
			payload, status, retry_count, COALESCE(next_retry_at, created_at)
		 FROM outbox_events
		 WHERE status IN ($1, $2)
			AND (next_retry_at IS NULL OR next_retry_at <= NOW())
		 ORDER BY created_at ASC
		 LIMIT $3`,
		OutboxStatusPending, OutboxStatusFailed, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]OutboxEvent, 0, limit)
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(
			&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Topic,
			&e.Payload, &e.Status, &e.RetryCount, &e.NextRetryAt,
		); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *outboxRepository) MarkSent(ctx context.Context, id string) error {
	_, err := r.conn().ExecContext(ctx,
		`UPDATE outbox_events
		 SET status = $2, processed_at = NOW(), error_message = NULL, updated_at = NOW()
		 WHERE id = $1`,
		id, OutboxStatusSent,
	)
	return err
}

// MarkFailed records the failure and schedules a retry with exponential
// backoff, capped at roughly a quarter hour.
func (r *outboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	_, err := r.conn().ExecContext(ctx,
		`UPDATE outbox_events
		 SET status = $2,
			retry_count = retry_count + 1,
			error_message = LEFT($3, 500),
			next_retry_at = NOW() + (INTERVAL '15 seconds' * POWER(2, LEAST(retry_count, 6))),
			updated_at = NOW()
		 WHERE id = $1`,
		id, OutboxStatusFailed, reason,
	)
	return err
}

// DeleteSentBefore purges delivered events older than the retention
// window. Pending and failed rows are never touched.
func (r *outboxRepository) DeleteSentBefore(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := r.conn().ExecContext(ctx,
		`DELETE FROM outbox_events
		 WHERE status = $1 AND processed_at < NOW() - $2::interval`,
		OutboxStatusSent, retention.String(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
