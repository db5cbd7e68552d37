package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/api/middleware"
	"github.com/storefront/commerce-api/internal/core/domain"
)

// actingUserID returns the authenticated caller. Presence proves the Auth
// middleware ran on this route.
func actingUserID(c echo.Context) (string, error) {
	id, ok := middleware.IdentityFrom(c.Request().Context())
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return id.UserID, nil
}

// bindAndValidate decodes the request body into req and runs the registered
// validator. Both failures are client errors.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
