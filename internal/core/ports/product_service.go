package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// CreateProductInput carries all data needed to create a product.
type CreateProductInput struct {
	Title       string
	Description string
	Price       float64
	Quantity    int
	Category    string
	Brand       string
}

// UpdateProductInput holds a partial update. Nil fields are left untouched.
type UpdateProductInput struct {
	Title       *string
	Description *string
	Price       *float64
	Quantity    *int
	Category    *string
	Brand       *string
}

// ListProductsInput carries all parameters for the list endpoint.
type ListProductsInput struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// ListProductsResult is returned by ListProducts.
type ListProductsResult struct {
	Items      []*domain.Product
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// ProductService defines use-case operations for the catalog.
type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ListProductsResult, error)
	UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}
