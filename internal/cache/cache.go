package cache

import (
	"context"
	"errors"

	"github.com/Goodnews119/Marketplacesite/internal/domain"
)

// ProductCache stores the product list per generation. Invalidate starts a
// new generation, so a list written under an older one is never served again.
type ProductCache interface {
	// GetProducts returns the cached list together with the generation it was
	// looked up under. On ErrCacheMiss the generation is still valid and is
	// the one to pass to SetProducts.
	GetProducts(ctx context.Context) ([]*domain.Product, int64, error)
	SetProducts(ctx context.Context, generation int64, products []*domain.Product) error
	Invalidate(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache always misses. Used when no Redis address is configured.
type NopCache struct{}

func (NopCache) GetProducts(context.Context) ([]*domain.Product, int64, error) {
	return nil, 0, ErrCacheMiss
}

func (NopCache) SetProducts(context.Context, int64, []*domain.Product) error { return nil }

func (NopCache) Invalidate(context.Context) error { return nil }
