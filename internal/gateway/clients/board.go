package clients

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"resto-system/internal/database/models"
	"resto-system/internal/orders"
	"resto-system/internal/services/orders/terminal"
)

// KitchenBoard is the kitchen's view of orders still to cook, rebuilt from
// the broadcast stream.
type KitchenBoard struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func NewKitchenBoard() *KitchenBoard {
	return &KitchenBoard{orders: make(map[string]models.Order)}
}

// Apply folds one broadcast into the board and reports whether it changed.
func (b *KitchenBoard) Apply(ev *terminal.Event) (bool, error) {
	var order models.Order
	if err := json.Unmarshal(ev.Payload, &order); err != nil {
		return false, fmt.Errorf("decode %s payload: %w", ev.Topic, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case ev.Topic == orders.TopicNewOrder && order.Status == models.OrderPending && !order.KitchenDone:
		b.orders[order.ID] = order
		return true, nil
	case ev.Topic == orders.TopicNewOrder, ev.Topic == orders.TopicKitchenFinish:
		if _, ok := b.orders[order.ID]; ok {
			delete(b.orders, order.ID)
			return true, nil
		}
	}
	return false, nil
}

// Resolve maps what the cook typed, an order id or a table number, to an
// order on the board.
func (b *KitchenBoard) Resolve(ref string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.orders[ref]; ok {
		return ref, true
	}
	for id, o := range b.orders {
		if o.TableNumber == ref {
			return id, true
		}
	}
	return "", false
}

func (b *KitchenBoard) Pending() []models.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Order, 0, len(b.orders))
	for _, o := range b.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (b *KitchenBoard) Render(w io.Writer) {
	pending := b.Pending()
	fmt.Fprintf(w, "=== %d order(s) to cook ===\n", len(pending))
	for _, o := range pending {
		label := "table " + o.TableNumber
		if o.IsTakeAway {
			label = "take-away"
		}
		fmt.Fprintf(w, "[%s] %s\n", label, o.ID)
		for _, it := range o.Items {
			fmt.Fprintf(w, "    %dx %s\n", it.Quantity, it.ProductName)
		}
		if o.Notes != "" {
			fmt.Fprintf(w, "    note: %s\n", o.Notes)
		}
	}
}
