package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.Payload == nil {
		return fmt.Errorf("event payload cannot be nil")
	}

	query := `
		INSERT INTO outbox_events (
			id, aggregate_id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
	`
	event.ID = uuid.New()
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt
	event.Status = string(model.OutboxStatusPending)

	_, err := r.ext(ctx).ExecContext(ctx, query,
		event.ID,
		event.AggregateID,
		event.EventType,
		[]byte(event.Payload),
		event.Status,
		event.RetryCount,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", classify(err))
	}
	return nil
}

// GetPendingEventsWithLock must run inside a transaction for the row locks to hold.
func (r *outboxRepository) GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, status, error_message, retry_count, created_at, processed_at, updated_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`
	var events []*model.OutboxEvent
	if err := sqlx.SelectContext(ctx, r.ext(ctx), &events, query, string(model.OutboxStatusPending), limit); err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", classify(err))
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	query := `
		UPDATE outbox_events
		SET status = $1,
			error_message = $2,
			retry_count = retry_count + CASE WHEN $1 = 'FAILED' THEN 1 ELSE 0 END,
			processed_at = CASE WHEN $1 = 'PROCESSED' THEN NOW() ELSE processed_at END,
			updated_at = NOW()
		WHERE id = $3
	`
	res, err := r.ext(ctx).ExecContext(ctx, query, string(status), errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update outbox event: %w", classify(err))
	}
	if err := expectOne(res); err != nil {
		return fmt.Errorf("failed to update outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = $1
		AND processed_at < $2
	`
	result, err := r.ext(ctx).ExecContext(ctx, query, string(model.OutboxStatusProcessed), before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}
