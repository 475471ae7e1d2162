package terminal

import (
	"encoding/json"
	"time"

	"resto-system/internal/database/models"
	"resto-system/internal/orders"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginReply struct {
	Token     string      `json:"token"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

type SubmitOrderRequest struct {
	TableNumber string             `json:"tableNumber"`
	IsTakeAway  bool               `json:"isTakeAway"`
	Items       []orders.ItemDelta `json:"items"`
	Notes       string             `json:"notes,omitempty"`
}

type PayOrderRequest struct {
	TableNumber string `json:"tableNumber"`
	InvoiceCode string `json:"invoiceCode,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type KitchenFinishRequest struct {
	OrderID string `json:"orderId"`
}

// OrderReply reports what an event changed. Applied is false when the event
// was a no-op; a deleted order comes back with status "deleted".
type OrderReply struct {
	Applied bool          `json:"applied"`
	Topic   string        `json:"topic,omitempty"`
	Order   *models.Order `json:"order,omitempty"`
}

// WatchRequest selects topics to receive. No topics means all of them.
type WatchRequest struct {
	Topics []string `json:"topics,omitempty"`
}

type Event struct {
	Topic     string          `json:"topic"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// Order decodes the payload of an order event.
func (e *Event) Order() (models.Order, error) {
	var o models.Order
	err := json.Unmarshal(e.Payload, &o)
	return o, err
}
