package messaging

import (
	"context"
	"time"
)

// Message is a single event published to a topic. ID and Timestamp are
// filled by the broker when empty.
type Message struct {
	ID        string                 `json:"id"`
	Topic     string                 `json:"topic"`
	Type      string                 `json:"type"`
	Payload   []byte                 `json:"payload"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Handler processes a delivered message. Returning an error leaves the
// message eligible for redelivery.
type Handler func(ctx context.Context, msg *Message) error

// Broker connects the outbox processor to downstream consumers.
type Broker interface {
	Publish(ctx context.Context, topic string, msg *Message) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
