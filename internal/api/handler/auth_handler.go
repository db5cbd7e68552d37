package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/core/ports"
)

// RefreshCookieName is the HTTP-only cookie carrying the refresh token.
const RefreshCookieName = "refreshToken"

// CookieOptions controls the refresh-token cookie.
type CookieOptions struct {
	Secure bool
	MaxAge time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	cookie      CookieOptions
}

func NewAuthHandler(authService ports.AuthService, cookie CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie}
}

// Register creates a new user account with the default role.
//
// @Summary      Register a new user
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/user/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Firstname: req.Firstname,
		Lastname:  req.Lastname,
		Mobile:    req.Mobile,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{Status: "success", User: toUserResponse(user)})
}

// Login authenticates a user, returns an access token and sets the refresh
// token cookie.
//
// @Summary      Login
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      429   {object}  errorResponse
// @Router       /api/user/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	c.SetCookie(h.refreshCookie(res.RefreshToken, int(h.cookie.MaxAge/time.Second)))
	return c.JSON(http.StatusOK, loginResponse{
		ID:          res.User.ID,
		Firstname:   res.User.Firstname,
		Lastname:    res.User.Lastname,
		Email:       res.User.Email,
		AccessToken: res.AccessToken,
	})
}

// Refresh issues a new access token for the session in the refresh cookie.
//
// @Summary      Refresh access token
// @Tags         user
// @Produce      json
// @Success      200  {object}  refreshResponse
// @Failure      401  {object}  errorResponse
// @Failure      429  {object}  errorResponse
// @Router       /api/user/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	token, err := h.authService.Refresh(c.Request().Context(), refreshCookieValue(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, refreshResponse{AccessToken: token})
}

// Logout revokes the session in the refresh cookie and clears the cookie.
// Calling it without a session succeeds.
//
// @Summary      Logout
// @Tags         user
// @Success      204
// @Failure      500  {object}  errorResponse
// @Router       /api/user/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	err := h.authService.Logout(c.Request().Context(), refreshCookieValue(c))
	c.SetCookie(h.refreshCookie("", -1))
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func refreshCookieValue(c echo.Context) string {
	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
