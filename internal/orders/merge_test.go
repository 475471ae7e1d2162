package orders

import (
	"testing"
	"time"

	"resto-system/internal/database/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func line(name string, p int64, qty int) models.LineItem {
	return models.LineItem{ProductName: name, Price: price(p), Quantity: qty}
}

func delta(name string, p int64, qty int) ItemDelta {
	return ItemDelta{ProductName: name, Price: price(p), Quantity: qty}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name      string
		items     models.LineItems
		deltas    []ItemDelta
		wantItems models.LineItems
		wantTotal int64
	}{
		{
			name:      "new order",
			deltas:    []ItemDelta{delta("Coke", 20000, 2)},
			wantItems: models.LineItems{line("Coke", 20000, 2)},
			wantTotal: 40000,
		},
		{
			name:      "same product adds quantity",
			items:     models.LineItems{line("Coke", 20000, 2)},
			deltas:    []ItemDelta{delta("Coke", 20000, 3)},
			wantItems: models.LineItems{line("Coke", 20000, 5)},
			wantTotal: 100000,
		},
		{
			name:      "new product appends",
			items:     models.LineItems{line("Coke", 20000, 1)},
			deltas:    []ItemDelta{delta("Chips", 15000, 2)},
			wantItems: models.LineItems{line("Coke", 20000, 1), line("Chips", 15000, 2)},
			wantTotal: 50000,
		},
		{
			name:      "negative delta removes line",
			items:     models.LineItems{line("Coke", 20000, 2), line("Chips", 15000, 1)},
			deltas:    []ItemDelta{delta("Coke", 20000, -2)},
			wantItems: models.LineItems{line("Chips", 15000, 1)},
			wantTotal: 15000,
		},
		{
			name:      "overshooting delta removes line",
			items:     models.LineItems{line("Coke", 20000, 1)},
			deltas:    []ItemDelta{delta("Coke", 20000, -5)},
			wantItems: models.LineItems{},
			wantTotal: 0,
		},
		{
			name:      "non-positive new lines are dropped",
			deltas:    []ItemDelta{delta("Coke", 20000, 0), delta("Tea", 5000, -1), delta("Chips", 15000, 1)},
			wantItems: models.LineItems{line("Chips", 15000, 1)},
			wantTotal: 15000,
		},
		{
			name:      "existing price is kept on merge",
			items:     models.LineItems{line("Coke", 20000, 1)},
			deltas:    []ItemDelta{delta("Coke", 25000, 1)},
			wantItems: models.LineItems{line("Coke", 20000, 2)},
			wantTotal: 40000,
		},
		{
			name:      "repeated product within one event accumulates",
			deltas:    []ItemDelta{delta("Coke", 20000, 1), delta("Coke", 20000, 1)},
			wantItems: models.LineItems{line("Coke", 20000, 2)},
			wantTotal: 40000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(models.Order{Items: tt.items}, tt.deltas)

			require.Len(t, got.Items, len(tt.wantItems))
			for i := range tt.wantItems {
				assert.Equal(t, tt.wantItems[i].ProductName, got.Items[i].ProductName)
				assert.Equal(t, tt.wantItems[i].Quantity, got.Items[i].Quantity)
				assert.True(t, tt.wantItems[i].Price.Equal(got.Items[i].Price))
			}
			assert.True(t, price(tt.wantTotal).Equal(got.TotalAmount), "total %s", got.TotalAmount)
			assert.True(t, Total(got.Items).Equal(got.TotalAmount))
		})
	}
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	in := models.Order{Items: models.LineItems{line("Coke", 20000, 2)}, TotalAmount: price(40000)}

	out := Merge(in, []ItemDelta{delta("Coke", 20000, -2)})

	assert.Empty(t, out.Items)
	require.Len(t, in.Items, 1)
	assert.Equal(t, 2, in.Items[0].Quantity)
	assert.True(t, price(40000).Equal(in.TotalAmount))
}

func TestTotal_DecimalPrices(t *testing.T) {
	items := []models.LineItem{
		{ProductName: "Tea", Price: decimal.RequireFromString("1.10"), Quantity: 3},
		{ProductName: "Bun", Price: decimal.RequireFromString("0.20"), Quantity: 1},
	}
	assert.Equal(t, "3.5", Total(items).String())
}

func TestPay(t *testing.T) {
	at := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	in := models.Order{Status: models.OrderPending, Notes: "no ice", InvoiceCode: ""}

	out := Pay(in, "INV-7", "", at)

	assert.Equal(t, models.OrderPaid, out.Status)
	require.NotNil(t, out.PaidAt)
	assert.Equal(t, at, *out.PaidAt)
	assert.Equal(t, "INV-7", out.InvoiceCode)
	assert.Equal(t, "no ice", out.Notes)

	assert.Equal(t, models.OrderPending, in.Status)
	assert.Nil(t, in.PaidAt)
}

func TestMarkDone(t *testing.T) {
	in := models.Order{ID: "o1"}
	out := MarkDone(in)
	assert.True(t, out.KitchenDone)
	assert.False(t, in.KitchenDone)
	assert.True(t, MarkDone(out).KitchenDone)
}

func TestChangePayload_Deletion(t *testing.T) {
	c := Change{Topic: TopicNewOrder, Order: deletionMarker(models.Order{
		ID:          "o1",
		TableNumber: "5",
		Items:       models.LineItems{line("Coke", 20000, 1)},
	})}

	require.True(t, c.Deleted())
	payload, ok := c.Payload().(DeletedOrder)
	require.True(t, ok)
	assert.Equal(t, "o1", payload.ID)
	assert.Equal(t, "5", payload.TableNumber)
	assert.Equal(t, models.OrderDeleted, payload.Status)
	assert.NotNil(t, payload.Items)
	assert.Empty(t, payload.Items)
}
