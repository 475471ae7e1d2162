package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
	// OrderDeleted is never stored; it only marks a broadcast for a removed order.
	OrderDeleted OrderStatus = "deleted"
)

// TakeAwayTable is the table identifier every take-away order is filed under.
const TakeAwayTable = "0"

type LineItem struct {
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineItems is stored as a single JSONB document inside the order row.
type LineItems []LineItem

func (a *LineItems) Scan(value interface{}) error {
	if value == nil {
		*a = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to scan LineItems: %v", value)
	}

	return json.Unmarshal(bytes, a)
}

func (a LineItems) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

type Order struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"_id"`
	TableNumber string          `gorm:"type:varchar(32);not null;uniqueIndex:idx_orders_pending_table,where:status = 'pending'" json:"tableNumber"`
	Items       LineItems       `gorm:"type:jsonb;not null" json:"items"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"totalAmount"`
	Status      OrderStatus     `gorm:"type:varchar(16);not null;index" json:"status"`
	InvoiceCode string          `gorm:"type:varchar(64)" json:"invoiceCode,omitempty"`
	Notes       string          `gorm:"type:text" json:"notes,omitempty"`
	IsTakeAway  bool            `gorm:"not null" json:"isTakeAway"`
	KitchenDone bool            `gorm:"not null" json:"kitchenDone"`
	PaidAt      *time.Time      `json:"paidAt,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (o Order) IsPending() bool {
	return o.Status == OrderPending
}
