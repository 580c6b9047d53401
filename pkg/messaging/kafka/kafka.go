package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/jwalitptl/barber-api/pkg/circuitbreaker"
	"github.com/jwalitptl/barber-api/pkg/messaging"
)

type Config struct {
	Brokers string
	// GroupID is used by Subscribe. Empty reads without a consumer group.
	GroupID string
}

// KafkaBroker publishes each channel as a topic, keyed by aggregate id so one
// appointment's events stay ordered within a partition.
type KafkaBroker struct {
	brokers []string
	groupID string
	writer  *kafka.Writer
	cb      *circuitbreaker.CircuitBreaker
	logger  *zerolog.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
}

func NewKafkaBroker(config Config, logger *zerolog.Logger) (messaging.Broker, error) {
	brokers := messaging.SplitBrokers(config.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
	}

	return &KafkaBroker{
		brokers: brokers,
		groupID: config.GroupID,
		writer:  writer,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:             "kafka-broker",
			MaxRequests:      1,
			Interval:         10 * time.Second,
			Timeout:          5 * time.Second,
			FailureThreshold: 5,
		}),
		logger: logger,
	}, nil
}

func (b *KafkaBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	value, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	msg := kafka.Message{Topic: channel, Value: value}
	if keyed, ok := message.(messaging.Keyed); ok {
		msg.Key = []byte(keyed.Key())
	}
	if m, ok := message.(messaging.Message); ok {
		msg.Headers = []kafka.Header{
			{Key: "event_id", Value: []byte(m.ID)},
			{Key: "event_type", Value: []byte(m.Type)},
		}
	}

	return b.cb.Execute(func() error {
		return b.writer.WriteMessages(ctx, msg)
	})
}

func (b *KafkaBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: b.brokers,
		GroupID: b.groupID,
		Topic:   channel,
	})
	b.mu.Lock()
	b.readers = append(b.readers, reader)
	b.mu.Unlock()

	msgChan := make(chan []byte, 100)
	go func() {
		defer close(msgChan)
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil && !errors.Is(err, io.EOF) {
					b.logger.Error().Err(err).Str("topic", channel).Msg("kafka read failed")
				}
				return
			}
			select {
			case msgChan <- msg.Value:
			case <-ctx.Done():
				return
			}
		}
	}()
	return msgChan, nil
}

// Ping dials the first broker.
func (b *KafkaBroker) Ping(ctx context.Context) error {
	dialer := kafka.Dialer{Timeout: 2 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return err
	}
	return conn.Close()
}

func (b *KafkaBroker) Close() error {
	b.mu.Lock()
	readers := b.readers
	b.readers = nil
	b.mu.Unlock()

	errs := []error{b.writer.Close()}
	for _, r := range readers {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
