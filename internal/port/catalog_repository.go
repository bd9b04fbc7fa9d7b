package port

import (
	"context"

	"github.com/ratthapon/storefront/internal/core/domain"
)

type CatalogRepository interface {
	// ListProducts returns every product in display order
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// GetProducts resolves the given IDs; IDs unknown to the catalog are
	// simply absent from the returned map
	GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
}
