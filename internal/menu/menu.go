// Package menu manages the product catalogue and the cached public menu.
package menu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"resto-system/internal/cache"
	"resto-system/internal/database/models"
	"resto-system/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	PUBLIC_MENU_CACHE_KEY = "menu:public"
	CACHE_TTL_SHORT       = 5 * time.Minute
)

var ErrInvalidProduct = errors.New("invalid product")

// ProductInput is a create-or-update request. An empty ID creates a product;
// an empty Image keeps the stored one on update.
type ProductInput struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Category string
	Image    string
}

type Service struct {
	products repository.ProductStore
	cache    cache.Cache
}

func NewService(products repository.ProductStore, c cache.Cache) *Service {
	return &Service{products: products, cache: c}
}

// PublicMenu returns the visible beverages and snacks, served from cache when possible.
func (s *Service) PublicMenu(ctx context.Context) ([]models.Product, error) {
	var cached []models.Product
	hit, err := s.cache.Get(ctx, PUBLIC_MENU_CACHE_KEY, &cached)
	if err != nil {
		log.Warn().Err(err).Msg("menu cache read failed")
	}
	if hit {
		return cached, nil
	}

	products, err := s.products.ListProducts(ctx, repository.ProductFilter{
		VisibleOnly: true,
		Categories:  models.MenuCategories,
	})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}

	if err := s.cache.Set(ctx, PUBLIC_MENU_CACHE_KEY, products, CACHE_TTL_SHORT); err != nil {
		log.Warn().Err(err).Msg("menu cache write failed")
	}
	return products, nil
}

func (s *Service) AllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.ListProducts(ctx, repository.ProductFilter{})
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (s *Service) Save(ctx context.Context, in ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProduct)
	}
	if in.Price.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}
	category, ok := models.ParseCategory(in.Category)
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, in.Category)
	}

	var (
		saved *models.Product
		err   error
	)
	if in.ID == "" {
		saved, err = s.products.CreateProduct(ctx, models.Product{
			Name:      name,
			Price:     in.Price,
			Category:  category,
			Image:     in.Image,
			IsVisible: true,
		})
	} else {
		existing, findErr := s.products.FindProductByID(ctx, in.ID)
		if findErr != nil {
			return nil, findErr
		}
		existing.Name = name
		existing.Price = in.Price
		existing.Category = category
		if in.Image != "" {
			existing.Image = in.Image
		}
		saved, err = s.products.UpdateProduct(ctx, *existing)
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	log.Info().Str("product_id", saved.ID).Str("name", saved.Name).Msg("product saved")
	return saved, nil
}

// ToggleVisibility flips a product's visibility and returns the new value.
func (s *Service) ToggleVisibility(ctx context.Context, id string) (bool, error) {
	product, err := s.products.FindProductByID(ctx, id)
	if err != nil {
		return false, err
	}
	product.IsVisible = !product.IsVisible
	if _, err := s.products.UpdateProduct(ctx, *product); err != nil {
		return false, err
	}
	s.invalidate(ctx)
	return product.IsVisible, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	log.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, PUBLIC_MENU_CACHE_KEY); err != nil {
		log.Warn().Err(err).Msg("menu cache invalidation failed")
	}
}
