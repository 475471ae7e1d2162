package broadcast

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

const DefaultSubscriberBuffer = 64

// Hub is an in-process topic fan-out. Every subscriber receives every
// message in publish order. A subscriber whose buffer fills up is dropped and
// its channel closed, so one stalled client never blocks the others.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Message
	nextID uint64
	buffer int
}

var _ Publisher = (*Hub)(nil)

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	return &Hub{
		subs:   make(map[uint64]chan Message),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The returned cancel func is safe to
// call more than once.
func (h *Hub) Subscribe() (<-chan Message, func()) {
	ch := make(chan Message, h.buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.remove(id) })
	}
}

// Publish marshals payload and delivers it to local subscribers.
func (h *Hub) Publish(_ context.Context, topic string, payload interface{}) error {
	msg, err := NewMessage(topic, payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", topic, err)
	}
	h.Deliver(msg)
	return nil
}

func (h *Hub) Deliver(msg Message) {
	var slow []uint64

	h.mu.RLock()
	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			slow = append(slow, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range slow {
		log.Warn().Uint64("subscriber", id).Str("topic", msg.Topic).Msg("dropping slow subscriber")
		h.remove(id)
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}
