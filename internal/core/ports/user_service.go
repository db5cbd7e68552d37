package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// UserService covers account administration.
type UserService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	UpdateProfile(ctx context.Context, actingUserID string, update ProfileUpdate) (*domain.User, error)
	ToggleBlock(ctx context.Context, id string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
