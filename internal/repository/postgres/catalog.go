package postgres

import (
	"context"
	"fmt"
	"time"

	"resto-system/internal/database/models"
	"resto-system/internal/repository"

	"github.com/google/uuid"
)

func (s *Store) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	var products []models.Product
	tx := s.conn(ctx)
	if filter.VisibleOnly {
		tx = tx.Where("is_visible = ?", true)
	}
	if len(filter.Categories) > 0 {
		tx = tx.Where("category IN ?", filter.Categories)
	}
	if err := tx.Order("created_at ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *Store) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.conn(ctx).Where("id = ?", id).Take(&product).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (s *Store) CreateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if err := s.conn(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", translate(err))
	}
	return &product, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product models.Product) (*models.Product, error) {
	res := s.conn(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"name":       product.Name,
			"price":      product.Price,
			"image":      product.Image,
			"is_visible": product.IsVisible,
			"category":   product.Category,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update product %s: %w", product.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}
	return s.FindProductByID(ctx, product.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res := s.conn(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
