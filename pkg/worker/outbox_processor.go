package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jwalitptl/barber-api/internal/model"
	"github.com/jwalitptl/barber-api/internal/repository"
	"github.com/jwalitptl/barber-api/pkg/logger"
	"github.com/jwalitptl/barber-api/pkg/messaging"
	"github.com/jwalitptl/barber-api/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	TopicPrefix   string
}

// OutboxProcessor publishes pending outbox events. Each batch is claimed with
// FOR UPDATE SKIP LOCKED inside one transaction so several processors can run side by side.
type OutboxProcessor struct {
	tx      repository.Transactor
	repo    repository.OutboxRepository
	broker  messaging.Broker
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewOutboxProcessor(
	tx repository.Transactor,
	repo repository.OutboxRepository,
	broker messaging.Broker,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *OutboxProcessor {
	// Config validation instead of defaults
	if config.BatchSize <= 0 {
		panic("BatchSize must be greater than 0")
	}
	if config.PollInterval <= 0 {
		panic("PollInterval must be greater than 0")
	}
	if config.RetryAttempts <= 0 {
		panic("RetryAttempts must be greater than 0")
	}
	if config.RetryDelay <= 0 {
		panic("RetryDelay must be greater than 0")
	}

	return &OutboxProcessor{
		tx:      tx,
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger.WithComponent("outbox_processor"),
		metrics: metrics,
	}
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessOnce handles one batch and returns how many events were published.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	published := 0
	err := p.tx.WithinTx(ctx, func(ctx context.Context) error {
		events, err := p.repo.GetPendingEventsWithLock(ctx, p.config.BatchSize)
		if err != nil {
			p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "error").Inc()
			return fmt.Errorf("failed to get pending events: %w", err)
		}
		p.metrics.DatabaseOperations.WithLabelValues("get_pending_events", "success").Inc()

		for _, event := range events {
			ok, err := p.processEvent(ctx, event)
			if err != nil {
				return err
			}
			if ok {
				published++
			}
		}
		return nil
	})
	return published, err
}

// processEvent only returns an error when the status update fails, which aborts the batch.
func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) (bool, error) {
	msg := messaging.Message{
		ID:          event.ID.String(),
		Type:        event.EventType,
		AggregateID: event.AggregateID.String(),
		Payload:     event.Payload,
		OccurredAt:  event.CreatedAt,
	}
	topic := messaging.Topic(p.config.TopicPrefix, event.EventType)

	attempt := 0
	err := retry(ctx, p.config.RetryAttempts, p.config.RetryDelay, func() error {
		if attempt > 0 {
			p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
		}
		attempt++
		return p.broker.Publish(ctx, topic, msg)
	})

	if err != nil {
		p.metrics.OutboxEventsFailed.Inc()
		p.logger.Error(err, "Failed to publish event",
			"event_id", event.ID.String(),
			"event_type", event.EventType)
		errStr := err.Error()
		if updateErr := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusFailed, &errStr); updateErr != nil {
			return false, fmt.Errorf("failed to mark event %s failed: %w", event.ID, updateErr)
		}
		return false, nil
	}

	p.metrics.OutboxEventsProcessed.Inc()
	if err := p.repo.UpdateStatus(ctx, event.ID, model.OutboxStatusProcessed, nil); err != nil {
		return false, fmt.Errorf("failed to mark event %s processed: %w", event.ID, err)
	}
	return true, nil
}

// Helper retry function
func retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}
