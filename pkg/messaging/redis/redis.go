package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/edforge/lms-api/pkg/circuitbreaker"
	"github.com/edforge/lms-api/pkg/messaging"
)

// Broker publishes outbox events over Redis pub/sub. Publishes run
// through a circuit breaker so a dead Redis does not stall the
// processor loop on every event.
type Broker struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	subs    []*redis.PubSub
}

func NewBroker(client *redis.Client) *Broker {
	return &Broker{
		client: client,
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-broker",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
	}
}

func (b *Broker) Publish(ctx context.Context, topic string, msg *messaging.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	msg.Topic = topic

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return b.breaker.Execute(func() error {
		return b.client.Publish(ctx, topic, data).Err()
	})
}

func (b *Broker) Subscribe(ctx context.Context, topic string, handler messaging.Handler) error {
	sub := b.client.Subscribe(ctx, topic)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	b.subs = append(b.subs, sub)

	ch := sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var msg messaging.Message
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					continue
				}
				_ = handler(ctx, &msg)
			}
		}
	}()
	return nil
}

func (b *Broker) Close() error {
	var firstErr error
	for _, sub := range b.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
