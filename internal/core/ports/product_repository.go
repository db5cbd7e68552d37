package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// ListProductsFilter carries the query parameters for listing products.
type ListProductsFilter struct {
	Category string // optional exact match
	Search   string // optional case-insensitive match on title
	Page     int    // 1-based
	Limit    int
}

// ProductChanges holds the fields to $set on an update. Slug is filled by the
// service whenever Title is present.
type ProductChanges struct {
	Title       *string
	Slug        *string
	Description *string
	Price       *float64
	Quantity    *int
	Category    *string
	Brand       *string
}

// ProductRepository defines persistence operations for the catalog.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	// List returns a page of products matching filter and the total count.
	List(ctx context.Context, filter ListProductsFilter) ([]*domain.Product, int64, error)
	Update(ctx context.Context, id string, changes ProductChanges) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}
