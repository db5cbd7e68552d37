package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (*ports.LoginResult, error)
	refreshFn  func(ctx context.Context, token string) (string, error)
	logoutFn   func(ctx context.Context, token string) error
}

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (string, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	return s.logoutFn(ctx, token)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Email != "alice@example.com" || in.Firstname != "Alice" || in.Password != "secret1" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u1", Email: in.Email, Firstname: in.Firstname, Role: domain.RoleUser, PasswordHash: "hash"}, nil
		},
	}
	handler := NewAuthHandler(stub, CookieOptions{})

	body := `{"firstname":"Alice","lastname":"Smith","email":"alice@example.com","password":"secret1","role":"admin"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/user/register", body), rec)

	if err := handler.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["status"] != "success" {
		t.Fatalf("expected status success, got %v", resp["status"])
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != "u1" || user["role"] != "user" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
	if strings.Contains(rec.Body.String(), "hash") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestAuthHandler_Register_Duplicate(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrDuplicateEmail
		},
	}
	handler := NewAuthHandler(stub, CookieOptions{})

	body := `{"firstname":"Bob","lastname":"B","email":"bob@example.com","password":"secret1"}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/user/register", body), httptest.NewRecorder())

	if err := handler.Register(c); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestAuthHandler_Register_Validation(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub, CookieOptions{})

	for _, body := range []string{"not-json", `{"firstname":"A","lastname":"B","email":"nope","password":"secret1"}`} {
		c := e.NewContext(jsonRequest(http.MethodPost, "/api/user/register", body), httptest.NewRecorder())

		var he *echo.HTTPError
		if err := handler.Register(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %v", body, err)
		}
	}
}

func TestAuthHandler_Login_SetsCookie(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			if email != "alice@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return &ports.LoginResult{
				AccessToken:  "access123",
				RefreshToken: "refresh456",
				User:         &domain.User{ID: "u1", Firstname: "Alice", Lastname: "Smith", Email: email},
			}, nil
		},
	}
	handler := NewAuthHandler(stub, CookieOptions{Secure: true, MaxAge: 72 * time.Hour})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/user/login", `{"email":"alice@example.com","password":"secret"}`), rec)

	if err := handler.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.AccessToken != "access123" || resp.ID != "u1" || resp.Firstname != "Alice" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if strings.Contains(rec.Body.String(), "refresh456") {
		t.Fatalf("refresh token must not appear in the body")
	}

	ck := findCookie(rec, RefreshCookieName)
	if ck == nil {
		t.Fatalf("expected refresh cookie")
	}
	if ck.Value != "refresh456" || !ck.HttpOnly || !ck.Secure || ck.MaxAge != int((72*time.Hour).Seconds()) {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (*ports.LoginResult, error) {
			return nil, domain.ErrInvalidCredentials
		},
	}
	handler := NewAuthHandler(stub, CookieOptions{})

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/api/user/login", `{"email":"alice@example.com","password":"bad"}`), rec)

	if err := handler.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if findCookie(rec, RefreshCookieName) != nil {
		t.Fatalf("no cookie must be set on failed login")
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		refreshFn: func(ctx context.Context, token string) (string, error) {
			if token == "" {
				return "", domain.ErrMissingToken
			}
			if token != "refresh456" {
				t.Fatalf("unexpected token %q", token)
			}
			return "fresh-access", nil
		},
	}
	handler := NewAuthHandler(stub, CookieOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/user/refresh", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "refresh456"})
	rec := httptest.NewRecorder()
	if err := handler.Refresh(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp refreshResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.AccessToken != "fresh-access" {
		t.Fatalf("unexpected body %q: %v", rec.Body.String(), err)
	}

	noCookie := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/user/refresh", nil), httptest.NewRecorder())
	if err := handler.Refresh(noCookie); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	e := newEcho()
	var got []string
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, token string) error {
			got = append(got, token)
			return nil
		},
	}
	handler := NewAuthHandler(stub, CookieOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/user/logout", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "refresh456"})
	rec := httptest.NewRecorder()
	if err := handler.Logout(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	ck := findCookie(rec, RefreshCookieName)
	if ck == nil || ck.Value != "" || ck.MaxAge >= 0 {
		t.Fatalf("expected cookie to be cleared, got %+v", ck)
	}

	rec = httptest.NewRecorder()
	if err := handler.Logout(e.NewContext(httptest.NewRequest(http.MethodPost, "/api/user/logout", nil), rec)); err != nil {
		t.Fatalf("logout without cookie: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 without cookie, got %d", rec.Code)
	}
	if len(got) != 2 || got[0] != "refresh456" || got[1] != "" {
		t.Fatalf("unexpected tokens passed to service: %v", got)
	}
}

func TestAuthHandler_Logout_PersistenceFailure(t *testing.T) {
	e := newEcho()
	stub := &stubAuthService{
		logoutFn: func(ctx context.Context, token string) error { return domain.ErrPersistence },
	}
	handler := NewAuthHandler(stub, CookieOptions{})

	req := httptest.NewRequest(http.MethodPost, "/api/user/logout", nil)
	req.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "tok"})
	rec := httptest.NewRecorder()

	if err := handler.Logout(e.NewContext(req, rec)); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if findCookie(rec, RefreshCookieName) == nil {
		t.Fatalf("cookie must be cleared even when revocation fails")
	}
}
