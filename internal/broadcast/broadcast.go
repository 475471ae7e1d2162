// Package broadcast delivers order updates to every connected client.
//
// A Publisher sends a payload on a topic. The Hub fans messages out to local
// subscribers (SSE clients, gRPC watch streams). RedisBroker carries messages
// between processes and feeds what it receives into a Hub.
package broadcast

import (
	"context"
	"encoding/json"
	"time"
)

type Publisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Message is one broadcast as seen by subscribers.
type Message struct {
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewMessage(topic string, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Topic: topic, Payload: data, Timestamp: time.Now()}, nil
}
