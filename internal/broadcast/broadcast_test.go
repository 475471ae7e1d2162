package broadcast

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_EverySubscriberReceivesEveryMessageInOrder(t *testing.T) {
	hub := NewHub(16)
	a, cancelA := hub.Subscribe()
	defer cancelA()
	b, cancelB := hub.Subscribe()
	defer cancelB()

	for i := 1; i <= 3; i++ {
		require.NoError(t, hub.Publish(context.Background(), "new_order_to_admin", map[string]int{"n": i}))
	}

	for _, ch := range []<-chan Message{a, b} {
		for i := 1; i <= 3; i++ {
			msg := <-ch
			assert.Equal(t, "new_order_to_admin", msg.Topic)
			var body map[string]int
			require.NoError(t, json.Unmarshal(msg.Payload, &body))
			assert.Equal(t, i, body["n"])
		}
	}
}

func TestHub_CancelClosesChannel(t *testing.T) {
	hub := NewHub(1)
	ch, cancel := hub.Subscribe()
	assert.Equal(t, 1, hub.SubscriberCount())

	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	hub := NewHub(1)
	slow, cancelSlow := hub.Subscribe()
	defer cancelSlow()
	fast, cancelFast := hub.Subscribe()
	defer cancelFast()

	require.NoError(t, hub.Publish(context.Background(), "t", 1))
	<-fast
	require.NoError(t, hub.Publish(context.Background(), "t", 2))

	// slow still holds message 1, so message 2 overflowed it.
	<-slow
	_, open := <-slow
	assert.False(t, open)

	msg, open := <-fast
	require.True(t, open)
	assert.JSONEq(t, "2", string(msg.Payload))
	assert.Equal(t, 1, hub.SubscriberCount())
}

func TestHub_PublishRejectsUnmarshalablePayload(t *testing.T) {
	hub := NewHub(1)
	err := hub.Publish(context.Background(), "t", make(chan int))
	assert.Error(t, err)
}

func TestDecodeMessage(t *testing.T) {
	t.Run("envelope", func(t *testing.T) {
		msg, err := decodeMessage(&redis.Message{
			Channel: ChannelPrefix + "order_paid_success",
			Payload: `{"topic":"order_paid_success","payload":{"_id":"o1"}}`,
		})
		require.NoError(t, err)
		assert.Equal(t, "order_paid_success", msg.Topic)
		assert.JSONEq(t, `{"_id":"o1"}`, string(msg.Payload))
		assert.False(t, msg.Timestamp.IsZero())
	})

	t.Run("topic from channel", func(t *testing.T) {
		msg, err := decodeMessage(&redis.Message{
			Channel: ChannelPrefix + "kitchen_finish_success",
			Payload: `{"payload":{"_id":"o2"}}`,
		})
		require.NoError(t, err)
		assert.Equal(t, "kitchen_finish_success", msg.Topic)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := decodeMessage(&redis.Message{Channel: ChannelPrefix + "x", Payload: "not json"})
		assert.Error(t, err)
	})
}
