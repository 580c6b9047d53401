package messaging

import (
	"context"
	"encoding/json"
	"time"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Keyed messages choose their partition on brokers that partition.
type Keyed interface {
	Key() string
}

// Message is the envelope published for every outbox event.
type Message struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

func (m Message) Key() string { return m.AggregateID }

// Pinger is implemented by brokers that can report connectivity for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
