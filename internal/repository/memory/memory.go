// Package memory is an in-process implementation of the repository contracts,
// used by tests and by single-process runs without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"resto-system/internal/database/models"
	"resto-system/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Store struct {
	locks *keyedMutex

	mu       sync.RWMutex
	orders   map[string]models.Order
	products map[string]models.Product
	accounts map[string]models.Account
	now      func() time.Time
}

var (
	_ repository.OrderStore   = (*Store)(nil)
	_ repository.OrderQueries = (*Store)(nil)
	_ repository.ProductStore = (*Store)(nil)
	_ repository.AccountStore = (*Store)(nil)
)

func NewStore() *Store {
	return &Store{
		locks:    newKeyedMutex(),
		orders:   make(map[string]models.Order),
		products: make(map[string]models.Product),
		accounts: make(map[string]models.Account),
		now:      time.Now,
	}
}

func (s *Store) WithTableLock(ctx context.Context, table string, fn func(ctx context.Context) error) error {
	if err := s.locks.Lock(ctx, table); err != nil {
		return err
	}
	defer s.locks.Unlock(table)
	return fn(ctx)
}

func (s *Store) FindPendingByTable(_ context.Context, table string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.orders {
		if o.TableNumber == table && o.Status == models.OrderPending {
			o := cloneOrder(o)
			return &o, nil
		}
	}
	return nil, nil
}

func (s *Store) FindOrderByID(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (s *Store) UpsertOrder(_ context.Context, order models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if order.Status == models.OrderPending {
		for id, o := range s.orders {
			if id != order.ID && o.TableNumber == order.TableNumber && o.Status == models.OrderPending {
				return nil, repository.ErrDuplicate
			}
		}
	}

	now := s.now()
	if prev, ok := s.orders[order.ID]; ok {
		order.CreatedAt = prev.CreatedAt
	} else if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	s.orders[order.ID] = cloneOrder(order)
	out := cloneOrder(order)
	return &out, nil
}

func (s *Store) MarkPaid(_ context.Context, order models.Order) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	if !ok || stored.Status != models.OrderPending {
		return false, nil
	}
	stored.Status = order.Status
	stored.PaidAt = order.PaidAt
	stored.InvoiceCode = order.InvoiceCode
	stored.Notes = order.Notes
	stored.UpdatedAt = s.now()
	s.orders[order.ID] = stored
	return true, nil
}

func (s *Store) DeleteOrder(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *Store) ListPending(_ context.Context, includeTakeAway bool) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.Status != models.OrderPending || (o.IsTakeAway && !includeTakeAway) {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListPaid(_ context.Context, limit int) ([]models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.Status == models.OrderPaid {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Revenue(_ context.Context, q repository.RevenueQuery) ([]repository.RevenueBucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[int]decimal.Decimal)
	for _, o := range s.orders {
		if o.Status != models.OrderPaid {
			continue
		}
		created := o.CreatedAt.In(time.Local)
		var bucket int
		switch q.Period {
		case repository.RevenueDaily:
			if created.Year() != q.Year || int(created.Month()) != q.Month {
				continue
			}
			bucket = created.Day()
		case repository.RevenueMonthly:
			if created.Year() != q.Year {
				continue
			}
			bucket = int(created.Month())
		case repository.RevenueYearly:
			bucket = created.Year()
		default:
			return nil, fmt.Errorf("unknown revenue period %q", q.Period)
		}
		totals[bucket] = totals[bucket].Add(o.TotalAmount)
	}

	out := make([]repository.RevenueBucket, 0, len(totals))
	for b, total := range totals {
		out = append(out, repository.RevenueBucket{Bucket: b, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bucket < out[j].Bucket })
	return out, nil
}

func (s *Store) ListProducts(_ context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Product
	for _, p := range s.products {
		if filter.VisibleOnly && !p.IsVisible {
			continue
		}
		if len(filter.Categories) > 0 && !containsCategory(filter.Categories, p.Category) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) FindProductByID(_ context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Store) CreateProduct(_ context.Context, product models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if _, ok := s.products[product.ID]; ok {
		return nil, repository.ErrDuplicate
	}
	now := s.now()
	product.CreatedAt, product.UpdatedAt = now, now
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.products[product.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	product.CreatedAt = prev.CreatedAt
	product.UpdatedAt = s.now()
	s.products[product.ID] = product
	return &product, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) FindAccountByUsername(_ context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Store) FindAccountByID(_ context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (s *Store) CreateAccount(_ context.Context, account models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.Username == account.Username {
			return nil, repository.ErrDuplicate
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = s.now()
	s.accounts[account.ID] = account
	return &account, nil
}

func (s *Store) CountAccountsByRole(_ context.Context, role models.Role) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, a := range s.accounts {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func cloneOrder(o models.Order) models.Order {
	if o.Items != nil {
		o.Items = append(models.LineItems(nil), o.Items...)
	}
	if o.PaidAt != nil {
		t := *o.PaidAt
		o.PaidAt = &t
	}
	return o
}

func containsCategory(list []models.Category, c models.Category) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}
