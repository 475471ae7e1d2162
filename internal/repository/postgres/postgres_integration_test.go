//go:build integration

package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"resto-system/internal/database"
	"resto-system/internal/database/models"
	"resto-system/internal/orders"
	"resto-system/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run with: TEST_DATABASE_DSN=postgres://... go test -tags integration ./internal/repository/postgres/
func newTestStore(t *testing.T, maxConns int) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}

	db, err := database.NewConnection(dsn)
	require.NoError(t, err)
	require.NoError(t, database.MigrateRestaurantDB(db))
	require.NoError(t, db.Exec("TRUNCATE TABLE orders").Error)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(maxConns)
	t.Cleanup(func() { sqlDB.Close() })

	return NewStore(db)
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, string, interface{}) error { return nil }

func coke(qty int) orders.ItemDelta {
	return orders.ItemDelta{ProductName: "Coke", Price: decimal.NewFromInt(20000), Quantity: qty}
}

func TestStore_TableLockWithSmallPool(t *testing.T) {
	store := newTestStore(t, 3)
	agg := orders.NewAggregator(store, discardPublisher{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const workers = 12
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := agg.SubmitOrder(ctx, orders.SendOrder{TableNumber: "9", Items: []orders.ItemDelta{coke(1)}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	order, err := store.FindPendingByTable(ctx, "9")
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, order.Items, 1)
	assert.Equal(t, workers, order.Items[0].Quantity)
	assert.True(t, decimal.NewFromInt(20000*workers).Equal(order.TotalAmount))
}

func pendingOrder(table string) models.Order {
	items := models.LineItems{{ProductName: "Coke", Price: decimal.NewFromInt(20000), Quantity: 1}}
	return models.Order{
		ID:          uuid.NewString(),
		TableNumber: table,
		Items:       items,
		TotalAmount: decimal.NewFromInt(20000),
		Status:      models.OrderPending,
	}
}

func TestStore_OnePendingOrderPerTable(t *testing.T) {
	store := newTestStore(t, 5)
	ctx := context.Background()

	_, err := store.UpsertOrder(ctx, pendingOrder("3"))
	require.NoError(t, err)

	_, err = store.UpsertOrder(ctx, pendingOrder("3"))
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	_, err = store.UpsertOrder(ctx, pendingOrder("4"))
	assert.NoError(t, err)
}

func TestStore_MarkPaidOnlyOnce(t *testing.T) {
	store := newTestStore(t, 5)
	ctx := context.Background()

	saved, err := store.UpsertOrder(ctx, pendingOrder("6"))
	require.NoError(t, err)

	paid := orders.Pay(*saved, "INV-1", "", time.Now())
	ok, err := store.MarkPaid(ctx, paid)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.MarkPaid(ctx, paid)
	require.NoError(t, err)
	assert.False(t, ok)

	pending, err := store.FindPendingByTable(ctx, "6")
	require.NoError(t, err)
	assert.Nil(t, pending)

	// A new pending order may open once the old one is paid.
	_, err = store.UpsertOrder(ctx, pendingOrder("6"))
	assert.NoError(t, err)
}

func TestStore_Revenue(t *testing.T) {
	store := newTestStore(t, 5)
	ctx := context.Background()

	for _, created := range []time.Time{
		time.Date(1999, time.March, 15, 12, 0, 0, 0, time.Local),
		time.Date(1999, time.March, 15, 13, 0, 0, 0, time.Local),
		time.Date(1999, time.April, 2, 12, 0, 0, 0, time.Local),
	} {
		o := pendingOrder(uuid.NewString()[:8])
		o.Status = models.OrderPaid
		o.CreatedAt = created
		_, err := store.UpsertOrder(ctx, o)
		require.NoError(t, err)
	}
	_, err := store.UpsertOrder(ctx, pendingOrder("1"))
	require.NoError(t, err)

	daily, err := store.Revenue(ctx, repository.RevenueQuery{Period: repository.RevenueDaily, Year: 1999, Month: 3})
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, 15, daily[0].Bucket)
	assert.True(t, decimal.NewFromInt(40000).Equal(daily[0].Total))

	monthly, err := store.Revenue(ctx, repository.RevenueQuery{Period: repository.RevenueMonthly, Year: 1999})
	require.NoError(t, err)
	require.Len(t, monthly, 2)
	assert.Equal(t, 3, monthly[0].Bucket)
	assert.Equal(t, 4, monthly[1].Bucket)
	assert.True(t, decimal.NewFromInt(20000).Equal(monthly[1].Total))
}
