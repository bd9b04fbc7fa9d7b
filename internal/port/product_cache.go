package port

import (
	"context"

	"github.com/ratthapon/storefront/internal/core/domain"
)

type ProductCache interface {
	// GetProducts returns the cached products for ids plus the IDs that
	// missed the cache
	GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, []int64, error)

	// SetProducts stores products with the cache's TTL
	SetProducts(ctx context.Context, products []domain.Product) error

	// InvalidateAll drops every cached product
	InvalidateAll(ctx context.Context) error
}
