package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
	"github.com/jwalitptl/barber-api/pkg/clock"
)

type EventService struct {
	outboxRepo repository.OutboxRepository
	clock      clock.Clock
}

func NewEventService(outboxRepo repository.OutboxRepository, clk clock.Clock) *EventService {
	return &EventService{
		outboxRepo: outboxRepo,
		clock:      clk,
	}
}

// Emit stores a pending event. Publishing happens later in the outbox processor.
func (s *EventService) Emit(ctx context.Context, aggregateID uuid.UUID, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	now := s.clock.Now()
	event := &model.OutboxEvent{
		ID:          uuid.New(),
		AggregateID: aggregateID,
		EventType:   eventType,
		Payload:     payloadJSON,
		Status:      string(model.OutboxStatusPending),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
