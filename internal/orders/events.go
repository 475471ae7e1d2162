package orders

import (
	"errors"
	"strings"

	"resto-system/internal/database/models"

	"github.com/shopspring/decimal"
)

// Topics every order transition is broadcast on.
const (
	TopicNewOrder      = "new_order_to_admin"
	TopicOrderPaid     = "order_paid_success"
	TopicKitchenFinish = "kitchen_finish_success"
)

// MaxItemQuantity bounds a single delta in either direction.
const MaxItemQuantity = 1000

var (
	ErrInvalidEvent  = errors.New("invalid order event")
	ErrOrderNotFound = errors.New("order not found")
)

// ItemDelta is a signed quantity change for one product on a table's order.
type ItemDelta struct {
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type SendOrder struct {
	TableNumber string      `json:"tableNumber"`
	IsTakeAway  bool        `json:"isTakeAway"`
	Items       []ItemDelta `json:"items"`
	Notes       string      `json:"notes,omitempty"`
}

type PayOrder struct {
	TableNumber string `json:"tableNumber"`
	InvoiceCode string `json:"invoiceCode,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type KitchenFinish struct {
	OrderID string `json:"orderId"`
}

// Table returns the table the event is filed under.
func (e SendOrder) Table() string {
	if e.IsTakeAway {
		return models.TakeAwayTable
	}
	return strings.TrimSpace(e.TableNumber)
}

// Change is the outcome of an applied event: what was broadcast and on which topic.
type Change struct {
	Topic string
	Order models.Order
}

// Deleted reports whether the change removed the order.
func (c Change) Deleted() bool {
	return c.Order.Status == models.OrderDeleted
}

// DeletedOrder is the broadcast payload for an order that lost its last line.
type DeletedOrder struct {
	ID          string             `json:"_id"`
	TableNumber string             `json:"tableNumber"`
	Status      models.OrderStatus `json:"status"`
	Items       models.LineItems   `json:"items"`
}
