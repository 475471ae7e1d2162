package orders

import (
	"time"

	"resto-system/internal/database/models"

	"github.com/shopspring/decimal"
)

// Merge applies deltas to order and returns the result without touching the
// input. Deltas add to a line with the same product name or append a new
// line. Lines left with a quantity of zero or less are dropped, and the total
// is recomputed.
func Merge(order models.Order, deltas []ItemDelta) models.Order {
	items := make(models.LineItems, len(order.Items), len(order.Items)+len(deltas))
	copy(items, order.Items)

	for _, d := range deltas {
		found := false
		for i := range items {
			if items[i].ProductName == d.ProductName {
				items[i].Quantity += d.Quantity
				found = true
				break
			}
		}
		if !found {
			items = append(items, models.LineItem{
				ProductName: d.ProductName,
				Price:       d.Price,
				Quantity:    d.Quantity,
			})
		}
	}

	kept := items[:0]
	for _, li := range items {
		if li.Quantity > 0 {
			kept = append(kept, li)
		}
	}

	order.Items = kept
	order.TotalAmount = Total(kept)
	return order
}

// Total is the sum of price times quantity over items.
func Total(items []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, li := range items {
		total = total.Add(li.Subtotal())
	}
	return total
}

// Pay moves a pending order to paid. Invoice code and notes replace the
// stored values only when non-empty.
func Pay(order models.Order, invoiceCode, notes string, at time.Time) models.Order {
	order.Status = models.OrderPaid
	paidAt := at
	order.PaidAt = &paidAt
	if invoiceCode != "" {
		order.InvoiceCode = invoiceCode
	}
	if notes != "" {
		order.Notes = notes
	}
	return order
}

func MarkDone(order models.Order) models.Order {
	order.KitchenDone = true
	return order
}

func deletionMarker(order models.Order) models.Order {
	return models.Order{
		ID:          order.ID,
		TableNumber: order.TableNumber,
		Status:      models.OrderDeleted,
		Items:       models.LineItems{},
		IsTakeAway:  order.IsTakeAway,
		TotalAmount: decimal.Zero,
	}
}

// Payload is what subscribers receive for a change.
func (c Change) Payload() interface{} {
	if c.Deleted() {
		return DeletedOrder{
			ID:          c.Order.ID,
			TableNumber: c.Order.TableNumber,
			Status:      models.OrderDeleted,
			Items:       models.LineItems{},
		}
	}
	return c.Order
}
