package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// ProfileUpdate carries the optional profile fields an account holder may
// change. Nil fields are left untouched.
type ProfileUpdate struct {
	Firstname *string
	Lastname  *string
	Email     *string
}

// UserRepository is the credential store.
type UserRepository interface {
	// Create inserts a user and returns it with its generated ID.
	// A duplicate email yields domain.ErrDuplicateEmail.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByRefreshToken returns the user currently holding exactly this
	// refresh token value.
	FindByRefreshToken(ctx context.Context, token string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	SetRefreshToken(ctx context.Context, id, token string) error
	// ClearRefreshToken empties the stored token on whichever user holds it.
	// It reports whether a user matched.
	ClearRefreshToken(ctx context.Context, token string) (bool, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*domain.User, error)
	SetBlocked(ctx context.Context, id string, blocked bool) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
