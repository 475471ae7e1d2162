package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"resto-system/internal/database/models"
	"resto-system/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) FindPendingByTable(ctx context.Context, table string) (*models.Order, error) {
	var order models.Order
	err := s.conn(ctx).
		Where("table_number = ? AND status = ?", table, models.OrderPending).
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending order for table %s: %w", table, err)
	}
	return &order, nil
}

func (s *Store) FindOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.conn(ctx).Where("id = ?", id).Take(&order).Error; err != nil {
		return nil, translate(err)
	}
	return &order, nil
}

func (s *Store) UpsertOrder(ctx context.Context, order models.Order) (*models.Order, error) {
	err := s.conn(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&order).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert order %s: %w", order.ID, translate(err))
	}
	return &order, nil
}

func (s *Store) MarkPaid(ctx context.Context, order models.Order) (bool, error) {
	res := s.conn(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, models.OrderPending).
		Updates(map[string]interface{}{
			"status":       order.Status,
			"paid_at":      order.PaidAt,
			"invoice_code": order.InvoiceCode,
			"notes":        order.Notes,
			"updated_at":   time.Now(),
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark order %s paid: %w", order.ID, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	res := s.conn(ctx).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (s *Store) ListPending(ctx context.Context, includeTakeAway bool) ([]models.Order, error) {
	var orders []models.Order
	tx := s.conn(ctx).Where("status = ?", models.OrderPending)
	if !includeTakeAway {
		tx = tx.Where("is_take_away = ?", false)
	}
	if err := tx.Order("created_at ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending orders: %w", err)
	}
	return orders, nil
}

func (s *Store) ListPaid(ctx context.Context, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.conn(ctx).
		Where("status = ?", models.OrderPaid).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list paid orders: %w", err)
	}
	return orders, nil
}

type revenueRow struct {
	Bucket int
	Total  decimal.Decimal
}

func (s *Store) Revenue(ctx context.Context, q repository.RevenueQuery) ([]repository.RevenueBucket, error) {
	var field string
	tx := s.conn(ctx).Model(&models.Order{}).Where("status = ?", models.OrderPaid)

	switch q.Period {
	case repository.RevenueDaily:
		field = "DAY"
		from := time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, time.Local)
		tx = tx.Where("created_at >= ? AND created_at < ?", from, from.AddDate(0, 1, 0))
	case repository.RevenueMonthly:
		field = "MONTH"
		from := time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.Local)
		tx = tx.Where("created_at >= ? AND created_at < ?", from, from.AddDate(1, 0, 0))
	case repository.RevenueYearly:
		field = "YEAR"
	default:
		return nil, fmt.Errorf("unknown revenue period %q", q.Period)
	}

	var rows []revenueRow
	err := tx.Select(fmt.Sprintf("EXTRACT(%s FROM created_at)::int AS bucket, SUM(total_amount) AS total", field)).
		Group("bucket").
		Order("bucket ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate %s revenue: %w", q.Period, err)
	}

	buckets := make([]repository.RevenueBucket, 0, len(rows))
	for _, r := range rows {
		buckets = append(buckets, repository.RevenueBucket{Bucket: r.Bucket, Total: r.Total})
	}
	return buckets, nil
}
