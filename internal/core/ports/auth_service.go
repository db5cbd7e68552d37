package ports

import (
	"context"

	"github.com/storefront/commerce-api/internal/core/domain"
)

// RegisterInput carries the fields accepted at sign-up. Role is never taken
// from the client.
type RegisterInput struct {
	Email     string
	Password  string
	Firstname string
	Lastname  string
	Mobile    string
}

// LoginResult is returned on a successful login. RefreshToken is meant for
// the HTTP-only cookie, never for the response body.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

// AuthService drives the session lifecycle.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
}
