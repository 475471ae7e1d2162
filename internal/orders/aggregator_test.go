package orders

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"resto-system/internal/database/models"
	"resto-system/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic   string
	payload interface{}
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{topic: topic, payload: payload})
	return nil
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.msgs...)
}

func newTestAggregator() (*Aggregator, *memory.Store, *recordingPublisher) {
	store := memory.NewStore()
	pub := &recordingPublisher{}
	agg := NewAggregator(store, pub)
	agg.now = func() time.Time { return time.Date(2024, 5, 1, 19, 30, 0, 0, time.UTC) }
	return agg, store, pub
}

func send(table string, deltas ...ItemDelta) SendOrder {
	return SendOrder{TableNumber: table, Items: deltas}
}

func TestAggregator_CokeScenario(t *testing.T) {
	ctx := context.Background()
	agg, store, pub := newTestAggregator()

	change, err := agg.SubmitOrder(ctx, send("5", delta("Coke", 20000, 2)))
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, TopicNewOrder, change.Topic)
	assert.Equal(t, models.OrderPending, change.Order.Status)
	require.Len(t, change.Order.Items, 1)
	assert.True(t, price(40000).Equal(change.Order.TotalAmount))
	firstID := change.Order.ID

	change, err = agg.SubmitOrder(ctx, send("5", delta("Coke", 20000, -2)))
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.True(t, change.Deleted())
	assert.Equal(t, firstID, change.Order.ID)

	pending, err := store.FindPendingByTable(ctx, "5")
	require.NoError(t, err)
	assert.Nil(t, pending)

	_, err = agg.SubmitOrder(ctx, send("5", delta("Coke", 20000, 1)))
	require.NoError(t, err)

	change, err = agg.PayOrder(ctx, PayOrder{TableNumber: "5"})
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, TopicOrderPaid, change.Topic)
	assert.Equal(t, models.OrderPaid, change.Order.Status)
	require.NotNil(t, change.Order.PaidAt)
	assert.True(t, price(20000).Equal(change.Order.TotalAmount))

	stored, err := store.FindOrderByID(ctx, change.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPaid, stored.Status)
	assert.NotNil(t, stored.PaidAt)

	msgs := pub.all()
	require.Len(t, msgs, 4)
	assert.Equal(t, []string{TopicNewOrder, TopicNewOrder, TopicNewOrder, TopicOrderPaid},
		[]string{msgs[0].topic, msgs[1].topic, msgs[2].topic, msgs[3].topic})
	deleted, ok := msgs[1].payload.(DeletedOrder)
	require.True(t, ok)
	assert.Equal(t, firstID, deleted.ID)
	assert.Equal(t, "5", deleted.TableNumber)
	assert.Equal(t, models.OrderDeleted, deleted.Status)
	assert.Empty(t, deleted.Items)
}

func TestAggregator_SubmitMergesIntoSinglePendingOrder(t *testing.T) {
	ctx := context.Background()
	agg, store, _ := newTestAggregator()

	_, err := agg.SubmitOrder(ctx, send("3", delta("Coke", 20000, 1)))
	require.NoError(t, err)
	_, err = agg.SubmitOrder(ctx, SendOrder{TableNumber: "3", Items: []ItemDelta{delta("Chips", 15000, 2)}, Notes: "extra salt"})
	require.NoError(t, err)

	all, err := store.ListPending(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Items, 2)
	assert.True(t, price(50000).Equal(all[0].TotalAmount))
	assert.Equal(t, "extra salt", all[0].Notes)
}

func TestAggregator_EmptySubmitOnEmptyTableIsNoop(t *testing.T) {
	ctx := context.Background()
	agg, store, pub := newTestAggregator()

	change, err := agg.SubmitOrder(ctx, send("8"))
	require.NoError(t, err)
	assert.Nil(t, change)

	change, err = agg.SubmitOrder(ctx, send("8", delta("Coke", 20000, -1)))
	require.NoError(t, err)
	assert.Nil(t, change)

	pending, err := store.ListPending(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Empty(t, pub.all())
}

func TestAggregator_TakeAwayUsesSentinelTable(t *testing.T) {
	ctx := context.Background()
	agg, store, _ := newTestAggregator()

	_, err := agg.SubmitOrder(ctx, SendOrder{TableNumber: "12", IsTakeAway: true, Items: []ItemDelta{delta("Coke", 20000, 1)}})
	require.NoError(t, err)
	_, err = agg.SubmitOrder(ctx, SendOrder{TableNumber: "", IsTakeAway: true, Items: []ItemDelta{delta("Coke", 20000, 1)}})
	require.NoError(t, err)

	pending, err := store.FindPendingByTable(ctx, models.TakeAwayTable)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.True(t, pending.IsTakeAway)
	assert.Equal(t, 2, pending.Items[0].Quantity)

	none, err := store.FindPendingByTable(ctx, "12")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestAggregator_PayWithoutPendingIsNoop(t *testing.T) {
	ctx := context.Background()
	agg, _, pub := newTestAggregator()

	change, err := agg.PayOrder(ctx, PayOrder{TableNumber: "4"})
	require.NoError(t, err)
	assert.Nil(t, change)
	assert.Empty(t, pub.all())
}

func TestAggregator_PayTwiceIsNoop(t *testing.T) {
	ctx := context.Background()
	agg, store, pub := newTestAggregator()

	_, err := agg.SubmitOrder(ctx, send("4", delta("Tea", 5000, 2)))
	require.NoError(t, err)

	first, err := agg.PayOrder(ctx, PayOrder{TableNumber: "4", InvoiceCode: "INV-1"})
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := agg.PayOrder(ctx, PayOrder{TableNumber: "4", InvoiceCode: "INV-2"})
	require.NoError(t, err)
	assert.Nil(t, second)

	stored, err := store.FindOrderByID(ctx, first.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, "INV-1", stored.InvoiceCode)
	assert.Len(t, pub.all(), 2)

	// A new submission after payment starts a fresh order.
	change, err := agg.SubmitOrder(ctx, send("4", delta("Tea", 5000, 1)))
	require.NoError(t, err)
	assert.NotEqual(t, first.Order.ID, change.Order.ID)
}

func TestAggregator_MarkKitchenDone(t *testing.T) {
	ctx := context.Background()
	agg, store, pub := newTestAggregator()

	created, err := agg.SubmitOrder(ctx, send("2", delta("Coke", 20000, 1)))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		change, err := agg.MarkKitchenDone(ctx, KitchenFinish{OrderID: created.Order.ID})
		require.NoError(t, err)
		require.NotNil(t, change)
		assert.Equal(t, TopicKitchenFinish, change.Topic)
		assert.True(t, change.Order.KitchenDone)
	}

	stored, err := store.FindOrderByID(ctx, created.Order.ID)
	require.NoError(t, err)
	assert.True(t, stored.KitchenDone)
	assert.Equal(t, models.OrderPending, stored.Status)
	assert.Len(t, pub.all(), 3)
}

func TestAggregator_MarkKitchenDoneUnknownOrder(t *testing.T) {
	agg, _, pub := newTestAggregator()

	_, err := agg.MarkKitchenDone(context.Background(), KitchenFinish{OrderID: "missing"})
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Empty(t, pub.all())
}

func TestAggregator_RejectsInvalidEvents(t *testing.T) {
	agg, _, pub := newTestAggregator()
	ctx := context.Background()

	tests := []struct {
		name string
		run  func() error
	}{
		{"blank table", func() error { _, err := agg.SubmitOrder(ctx, send(" ", delta("Coke", 1, 1))); return err }},
		{"blank product", func() error { _, err := agg.SubmitOrder(ctx, send("1", delta("", 1, 1))); return err }},
		{"negative price", func() error { _, err := agg.SubmitOrder(ctx, send("1", delta("Coke", -1, 1))); return err }},
		{"huge quantity", func() error {
			_, err := agg.SubmitOrder(ctx, send("1", delta("Coke", 1, math.MaxInt)))
			return err
		}},
		{"huge removal", func() error {
			_, err := agg.SubmitOrder(ctx, send("1", delta("Coke", 1, -MaxItemQuantity-1)))
			return err
		}},
		{"pay without table", func() error { _, err := agg.PayOrder(ctx, PayOrder{}); return err }},
		{"kitchen without id", func() error { _, err := agg.MarkKitchenDone(ctx, KitchenFinish{}); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.run(), ErrInvalidEvent)
		})
	}
	assert.Empty(t, pub.all())
}

func TestAggregator_OversizedDeltaLeavesOrderIntact(t *testing.T) {
	ctx := context.Background()
	agg, store, pub := newTestAggregator()

	_, err := agg.SubmitOrder(ctx, send("5", delta("Coke", 20000, 2)))
	require.NoError(t, err)

	_, err = agg.SubmitOrder(ctx, send("5", delta("Coke", 20000, math.MaxInt)))
	require.ErrorIs(t, err, ErrInvalidEvent)

	order, err := store.FindPendingByTable(ctx, "5")
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Len(t, pub.all(), 1)
}

func TestAggregator_PublishFailurePropagates(t *testing.T) {
	agg, _, pub := newTestAggregator()
	pub.err = errors.New("redis down")

	_, err := agg.SubmitOrder(context.Background(), send("1", delta("Coke", 20000, 1)))
	assert.ErrorContains(t, err, "redis down")
}

func TestAggregator_ConcurrentSubmissionsKeepOnePendingOrder(t *testing.T) {
	ctx := context.Background()
	agg, store, pub := newTestAggregator()

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("Item-%d", i%5)
			_, err := agg.SubmitOrder(ctx, send("9", delta(name, 1000, 1)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	pending, err := store.ListPending(ctx, true)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	order := pending[0]
	assert.Len(t, order.Items, 5)
	qty := 0
	for _, li := range order.Items {
		qty += li.Quantity
	}
	assert.Equal(t, workers, qty)
	assert.True(t, price(workers*1000).Equal(order.TotalAmount))
	assert.True(t, Total(order.Items).Equal(order.TotalAmount))
	assert.Len(t, pub.all(), workers)
}

func TestAggregator_BroadcastOrderMatchesCommitOrder(t *testing.T) {
	ctx := context.Background()
	agg, _, pub := newTestAggregator()

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := agg.SubmitOrder(ctx, send("6", delta("Coke", 20000, 1)))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	msgs := pub.all()
	require.Len(t, msgs, workers)
	for i, m := range msgs {
		order, ok := m.payload.(models.Order)
		require.True(t, ok)
		assert.Equal(t, i+1, order.Items[0].Quantity, "broadcast %d out of order", i)
	}
}
