package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

const ChannelPrefix = "restaurant:orders:"

// RedisBroker publishes on restaurant:orders:<topic> and, while Run is
// active, relays every message on that prefix into the local hub. Processes
// sharing one Redis therefore see each other's updates.
type RedisBroker struct {
	client *redis.Client
	hub    *Hub
}

var _ Publisher = (*RedisBroker)(nil)

func NewRedisBroker(client *redis.Client, hub *Hub) *RedisBroker {
	return &RedisBroker{client: client, hub: hub}
}

func (b *RedisBroker) Publish(ctx context.Context, topic string, payload interface{}) error {
	msg, err := NewMessage(topic, payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}
	envelope, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", topic, err)
	}

	if err := b.client.Publish(ctx, ChannelPrefix+topic, envelope).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}

// Run subscribes to every order channel and forwards messages to the hub
// until ctx is cancelled.
func (b *RedisBroker) Run(ctx context.Context) error {
	pubsub := b.client.PSubscribe(ctx, ChannelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s*: %w", ChannelPrefix, err)
	}
	log.Info().Str("pattern", ChannelPrefix+"*").Msg("relaying order broadcasts from Redis")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return fmt.Errorf("redis subscription closed")
			}
			msg, err := decodeMessage(m)
			if err != nil {
				log.Error().Err(err).Str("channel", m.Channel).Msg("discarding malformed broadcast")
				continue
			}
			b.hub.Deliver(msg)
		}
	}
}

func decodeMessage(m *redis.Message) (Message, error) {
	var msg Message
	if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
		return Message{}, err
	}
	if msg.Topic == "" {
		msg.Topic = strings.TrimPrefix(m.Channel, ChannelPrefix)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return msg, nil
}
