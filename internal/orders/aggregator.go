// Package orders keeps one pending order per table, folds order events into
// it and broadcasts every resulting transition.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resto-system/internal/broadcast"
	"resto-system/internal/database/models"
	"resto-system/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Aggregator applies order events. Events for one table are serialized by
// the store's table lock, which is held until the broadcast has been sent so
// subscribers see a table's transitions in commit order.
type Aggregator struct {
	store     repository.OrderStore
	publisher broadcast.Publisher
	now       func() time.Time
	newID     func() string
}

func NewAggregator(store repository.OrderStore, publisher broadcast.Publisher) *Aggregator {
	return &Aggregator{
		store:     store,
		publisher: publisher,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SubmitOrder merges a send_order event into the table's pending order. It
// returns nil when the event had nothing to apply.
func (a *Aggregator) SubmitOrder(ctx context.Context, ev SendOrder) (*Change, error) {
	if err := validateSend(ev); err != nil {
		log.Warn().Err(err).Str("table", ev.TableNumber).Msg("declined send_order")
		return nil, err
	}
	table := ev.Table()

	var change *Change
	err := a.store.WithTableLock(ctx, table, func(ctx context.Context) error {
		current, err := a.store.FindPendingByTable(ctx, table)
		if err != nil {
			return err
		}

		if current == nil {
			created := Merge(models.Order{
				ID:          a.newID(),
				TableNumber: table,
				Status:      models.OrderPending,
				IsTakeAway:  ev.IsTakeAway,
				Notes:       ev.Notes,
			}, ev.Items)
			if len(created.Items) == 0 {
				return nil
			}
			saved, err := a.store.UpsertOrder(ctx, created)
			if err != nil {
				return err
			}
			change = &Change{Topic: TopicNewOrder, Order: *saved}
			return a.publish(ctx, *change)
		}

		merged := Merge(*current, ev.Items)
		if len(merged.Items) == 0 {
			if err := a.store.DeleteOrder(ctx, current.ID); err != nil {
				return err
			}
			change = &Change{Topic: TopicNewOrder, Order: deletionMarker(*current)}
			return a.publish(ctx, *change)
		}

		if ev.Notes != "" {
			merged.Notes = ev.Notes
		}
		saved, err := a.store.UpsertOrder(ctx, merged)
		if err != nil {
			return err
		}
		change = &Change{Topic: TopicNewOrder, Order: *saved}
		return a.publish(ctx, *change)
	})
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("failed to apply send_order")
		return nil, fmt.Errorf("submit order for table %s: %w", table, err)
	}

	if change != nil {
		log.Info().
			Str("table", table).
			Str("order_id", change.Order.ID).
			Str("status", string(change.Order.Status)).
			Str("total", change.Order.TotalAmount.String()).
			Msg("order updated")
	}
	return change, nil
}

// PayOrder marks the table's pending order paid. A table without a pending
// order is a no-op and returns nil.
func (a *Aggregator) PayOrder(ctx context.Context, ev PayOrder) (*Change, error) {
	table := strings.TrimSpace(ev.TableNumber)
	if table == "" {
		log.Warn().Msg("declined pay_order without table")
		return nil, fmt.Errorf("%w: tableNumber is required", ErrInvalidEvent)
	}

	var change *Change
	err := a.store.WithTableLock(ctx, table, func(ctx context.Context) error {
		current, err := a.store.FindPendingByTable(ctx, table)
		if err != nil || current == nil {
			return err
		}

		paid := Pay(*current, ev.InvoiceCode, ev.Notes, a.now())
		ok, err := a.store.MarkPaid(ctx, paid)
		if err != nil || !ok {
			return err
		}
		change = &Change{Topic: TopicOrderPaid, Order: paid}
		return a.publish(ctx, *change)
	})
	if err != nil {
		log.Error().Err(err).Str("table", table).Msg("failed to apply pay_order")
		return nil, fmt.Errorf("pay order for table %s: %w", table, err)
	}

	if change == nil {
		log.Debug().Str("table", table).Msg("pay_order ignored, no pending order")
		return nil, nil
	}
	log.Info().
		Str("table", table).
		Str("order_id", change.Order.ID).
		Str("total", change.Order.TotalAmount.String()).
		Msg("order paid")
	return change, nil
}

// MarkKitchenDone flags an order as prepared. Repeating it leaves the order
// unchanged but broadcasts again.
func (a *Aggregator) MarkKitchenDone(ctx context.Context, ev KitchenFinish) (*Change, error) {
	id := strings.TrimSpace(ev.OrderID)
	if id == "" {
		return nil, fmt.Errorf("%w: orderId is required", ErrInvalidEvent)
	}

	order, err := a.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	var change *Change
	err = a.store.WithTableLock(ctx, order.TableNumber, func(ctx context.Context) error {
		// Reload under the lock; the order may have changed or vanished.
		current, err := a.findOrder(ctx, id)
		if err != nil {
			return err
		}
		saved, err := a.store.UpsertOrder(ctx, MarkDone(*current))
		if err != nil {
			return err
		}
		change = &Change{Topic: TopicKitchenFinish, Order: *saved}
		return a.publish(ctx, *change)
	})
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
		log.Error().Err(err).Str("order_id", id).Msg("failed to apply kitchen_finish")
		return nil, fmt.Errorf("kitchen finish for order %s: %w", id, err)
	}

	log.Info().Str("order_id", id).Str("table", order.TableNumber).Msg("kitchen finished order")
	return change, nil
}

func (a *Aggregator) findOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := a.store.FindOrderByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		log.Warn().Str("order_id", id).Msg("kitchen_finish for unknown order")
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (a *Aggregator) publish(ctx context.Context, c Change) error {
	if err := a.publisher.Publish(ctx, c.Topic, c.Payload()); err != nil {
		return fmt.Errorf("broadcast %s: %w", c.Topic, err)
	}
	return nil
}

func validateSend(ev SendOrder) error {
	if !ev.IsTakeAway && strings.TrimSpace(ev.TableNumber) == "" {
		return fmt.Errorf("%w: tableNumber is required", ErrInvalidEvent)
	}
	for _, d := range ev.Items {
		if strings.TrimSpace(d.ProductName) == "" {
			return fmt.Errorf("%w: productName is required", ErrInvalidEvent)
		}
		if d.Price.IsNegative() {
			return fmt.Errorf("%w: price of %s is negative", ErrInvalidEvent, d.ProductName)
		}
		if d.Quantity > MaxItemQuantity || d.Quantity < -MaxItemQuantity {
			return fmt.Errorf("%w: quantity of %s must be within ±%d", ErrInvalidEvent, d.ProductName, MaxItemQuantity)
		}
	}
	return nil
}
