package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// Auth validates the bearer access token and attaches the caller's Identity
// to the request context.
func Auth(tokens ports.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return fmt.Errorf("%w: missing authorization header", domain.ErrUnauthorized)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return fmt.Errorf("%w: malformed authorization header", domain.ErrUnauthorized)
			}

			claims, err := tokens.Verify(strings.TrimSpace(parts[1]), ports.AccessToken)
			if err != nil {
				return fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
			}

			req := c.Request()
			c.SetRequest(req.WithContext(WithIdentity(req.Context(), Identity{UserID: claims.UserID})))
			return next(c)
		}
	}
}
