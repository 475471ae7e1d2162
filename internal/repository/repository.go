// Package repository declares the persistence contracts shared by the
// Postgres and in-memory stores.
package repository

import (
	"context"
	"errors"

	"resto-system/internal/database/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// OrderStore is what the order aggregator needs from persistence.
type OrderStore interface {
	// WithTableLock runs fn while holding the exclusive lock for table.
	// Callers holding the same table key never run fn concurrently.
	WithTableLock(ctx context.Context, table string, fn func(ctx context.Context) error) error

	// FindPendingByTable returns nil and no error when the table has no pending order.
	FindPendingByTable(ctx context.Context, table string) (*models.Order, error)
	FindOrderByID(ctx context.Context, id string) (*models.Order, error)
	UpsertOrder(ctx context.Context, order models.Order) (*models.Order, error)
	// MarkPaid stores the paid order only if the stored row is still pending.
	// It reports false when the order was no longer pending.
	MarkPaid(ctx context.Context, order models.Order) (bool, error)
	DeleteOrder(ctx context.Context, id string) error
}

type RevenuePeriod string

const (
	RevenueDaily   RevenuePeriod = "daily"
	RevenueMonthly RevenuePeriod = "monthly"
	RevenueYearly  RevenuePeriod = "yearly"
)

// RevenueQuery selects paid orders by creation time. Year is used by daily and
// monthly queries, Month only by daily ones.
type RevenueQuery struct {
	Period RevenuePeriod
	Year   int
	Month  int
}

// RevenueBucket is one day, month or year of paid revenue.
type RevenueBucket struct {
	Bucket int             `json:"_id"`
	Total  decimal.Decimal `json:"total"`
}

type OrderQueries interface {
	// ListPending returns pending orders oldest first. Take-away orders are
	// excluded unless includeTakeAway is set.
	ListPending(ctx context.Context, includeTakeAway bool) ([]models.Order, error)
	// ListPaid returns paid orders newest first by creation time.
	ListPaid(ctx context.Context, limit int) ([]models.Order, error)
	Revenue(ctx context.Context, q RevenueQuery) ([]RevenueBucket, error)
}

type ProductFilter struct {
	VisibleOnly bool
	Categories  []models.Category
}

type ProductStore interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	FindProductByID(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, product models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, product models.Product) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type AccountStore interface {
	FindAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	FindAccountByID(ctx context.Context, id string) (*models.Account, error)
	CreateAccount(ctx context.Context, account models.Account) (*models.Account, error)
	CountAccountsByRole(ctx context.Context, role models.Role) (int64, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
}
