package messaging

import (
	"context"
	"strings"
	"sync"
)

// Topic builds the channel name for an event type, e.g. "barber.appointment.booked".
func Topic(prefix, eventType string) string {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		return eventType
	}
	return prefix + "." + eventType
}

// SplitBrokers parses a comma separated broker list.
func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// MemoryBroker keeps published messages in memory. It backs events.broker=none and tests.
type MemoryBroker struct {
	mu        sync.Mutex
	published map[string][]interface{}
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{published: make(map[string][]interface{})}
}

func (b *MemoryBroker) Publish(_ context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published[channel] = append(b.published[channel], message)
	return nil
}

func (b *MemoryBroker) Subscribe(ctx context.Context, _ string) (<-chan []byte, error) {
	ch := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (b *MemoryBroker) Close() error { return nil }

// Published returns a copy of what was sent to channel.
func (b *MemoryBroker) Published(channel string) []interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]interface{}(nil), b.published[channel]...)
}
