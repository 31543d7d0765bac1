package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Goodnews119/Marketplacesite/internal/cache"
	"github.com/Goodnews119/Marketplacesite/internal/domain"
	"github.com/Goodnews119/Marketplacesite/internal/repository"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const productListFlight = "products"

type CatalogService struct {
	repo  repository.ProductRepository
	cache cache.ProductCache
	sfg   singleflight.Group // Prevents cache stampede
}

func NewCatalogService(repo repository.ProductRepository, productCache cache.ProductCache) *CatalogService {
	if productCache == nil {
		productCache = cache.NopCache{}
	}
	return &CatalogService{
		repo:  repo,
		cache: productCache,
	}
}

type ProductInput struct {
	Title       string
	Price       *decimal.Decimal
	Description string
	Author      string
	AssetKey    string
}

type ProductUpdate struct {
	Title       *string
	Price       *decimal.Decimal
	Description *string
	Author      *string
	AssetKey    *string
}

// ListProducts returns every product, newest first.
func (s *CatalogService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	v, err, _ := s.sfg.Do(productListFlight, func() (interface{}, error) {
		products, gen, err := s.cache.GetProducts(ctx)
		if err == nil {
			return products, nil
		}
		miss := errors.Is(err, cache.ErrCacheMiss)
		if !miss {
			slog.WarnContext(ctx, "product cache get failed", "err", err)
		}

		products, err = s.repo.ListProducts(ctx)
		if err != nil {
			return nil, err
		}

		// gen was read before the query, so a write that lands in between
		// has already moved readers past it
		if miss {
			if errSet := s.cache.SetProducts(ctx, gen, products); errSet != nil {
				slog.WarnContext(ctx, "product cache set failed", "err", errSet)
			}
		}
		return products, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return v.([]*domain.Product), nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, badRequest("title is required")
	}
	if in.Price == nil {
		return nil, badRequest("price is required")
	}
	cents, err := domain.PriceToCents(*in.Price)
	if err != nil {
		return nil, priceError(err)
	}

	p := &domain.Product{
		Title:       title,
		PriceCents:  cents,
		Description: in.Description,
		Author:      in.Author,
		AssetKey:    in.AssetKey,
	}
	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidate(ctx)
	slog.InfoContext(ctx, "product created", "product_id", p.ID)
	return p, nil
}

// UpdateProduct merges the non-nil fields of in into the stored product. An
// explicit empty string clears optional text fields.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, in ProductUpdate) error {
	patch := domain.ProductPatch{
		Description: in.Description,
		Author:      in.Author,
		AssetKey:    in.AssetKey,
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return badRequest("title must not be empty")
		}
		patch.Title = &title
	}
	if in.Price != nil {
		cents, err := domain.PriceToCents(*in.Price)
		if err != nil {
			return priceError(err)
		}
		patch.PriceCents = &cents
	}

	err := s.repo.UpdateProduct(ctx, id, patch)
	if errors.Is(err, repository.ErrProductNotFound) {
		return newError(ErrNotFound, "product not found")
	}
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	if !patch.IsEmpty() {
		s.invalidate(ctx)
	}
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidate(ctx)
	slog.InfoContext(ctx, "product deleted", "product_id", id)
	return nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	s.sfg.Forget(productListFlight)
	if err := s.cache.Invalidate(ctx); err != nil {
		slog.WarnContext(ctx, "product cache invalidate failed", "err", err)
	}
}

func priceError(err error) error {
	if errors.Is(err, domain.ErrPriceTooLarge) {
		return badRequest("price must not exceed %s", domain.FormatCents(domain.MaxPriceCents))
	}
	return badRequest("price must be a non-negative number")
}
