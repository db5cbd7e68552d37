package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
	"github.com/storefront/commerce-api/internal/infrastructure/security"
)

type authFixture struct {
	repo   *stubUserRepo
	tokens *security.JWTIssuer
	audit  *recordingAudit
	svc    *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	tokens, err := security.NewJWTIssuer("secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	repo := newStubUserRepo()
	audit := &recordingAudit{}
	return &authFixture{
		repo:   repo,
		tokens: tokens,
		audit:  audit,
		svc:    NewAuthService(repo, security.NewBcryptHasher(bcrypt.MinCost), tokens, audit, zerolog.Nop()),
	}
}

func (f *authFixture) register(t *testing.T, email, password string) *domain.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: email, Password: password, Firstname: "Ann"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func TestAuthService_Register_Success(t *testing.T) {
	f := newAuthFixture(t)

	user, err := f.svc.Register(context.Background(), ports.RegisterInput{
		Email:     "  Alice@Example.com ",
		Password:  "pass123",
		Firstname: "Alice",
		Lastname:  "Smith",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Fatalf("expected normalised email, got %q", user.Email)
	}
	if user.Role != domain.RoleUser {
		t.Fatalf("expected role user, got %s", user.Role)
	}
	if user.IsBlocked {
		t.Fatalf("new user must not be blocked")
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "bob@example.com", "pass")

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Email: "BOB@example.com", Password: "pass2"})
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if len(f.repo.users) != 1 {
		t.Fatalf("expected 1 stored user, got %d", len(f.repo.users))
	}
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "a@b.com", "secret")

	res, err := f.svc.Login(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", res)
	}
	if res.User.ID != u.ID {
		t.Fatalf("unexpected user: %+v", res.User)
	}

	stored := f.repo.users[u.ID]
	if stored.RefreshToken != res.RefreshToken {
		t.Fatalf("refresh token not persisted on user record")
	}

	claims, err := f.tokens.Verify(res.AccessToken, ports.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.UserID != u.ID {
		t.Fatalf("expected subject %s, got %s", u.ID, claims.UserID)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "dave@example.com", "goodpass")

	res, err := f.svc.Login(context.Background(), "dave@example.com", "badpass")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected no tokens, got %+v", res)
	}
	if f.repo.users[u.ID].RefreshToken != "" {
		t.Fatalf("no refresh token should be stored after a failed login")
	}
}

func TestAuthService_Login_UnknownEmailIsIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "ghost@example.com", "pass")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_OverwritesPreviousSession(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "carol@example.com", "s3cret")

	first, err := f.svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := f.svc.Login(context.Background(), "carol@example.com", "s3cret")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.RefreshToken == second.RefreshToken {
		t.Fatalf("expected a new refresh token on each login")
	}
	if f.repo.users[u.ID].RefreshToken != second.RefreshToken {
		t.Fatalf("latest login must own the stored token")
	}

	if _, err := f.svc.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, domain.ErrTokenNotRecognized) {
		t.Fatalf("superseded token must not refresh, got %v", err)
	}
}

func TestAuthService_Refresh_Success(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "erin@example.com", "pw")
	res, _ := f.svc.Login(context.Background(), "erin@example.com", "pw")

	access, err := f.svc.Refresh(context.Background(), res.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := f.tokens.Verify(access, ports.AccessToken)
	if err != nil || claims.UserID != u.ID {
		t.Fatalf("unexpected access token: claims=%+v err=%v", claims, err)
	}
	if f.repo.users[u.ID].RefreshToken != res.RefreshToken {
		t.Fatalf("refresh must not rotate the stored refresh token")
	}
}

func TestAuthService_Refresh_Missing(t *testing.T) {
	f := newAuthFixture(t)
	if _, err := f.svc.Refresh(context.Background(), ""); !errors.Is(err, domain.ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken, got %v", err)
	}
}

func TestAuthService_Refresh_NotRecognized(t *testing.T) {
	f := newAuthFixture(t)
	tok, _ := f.tokens.IssueRefreshToken("user-1")
	if _, err := f.svc.Refresh(context.Background(), tok); !errors.Is(err, domain.ErrTokenNotRecognized) {
		t.Fatalf("expected ErrTokenNotRecognized, got %v", err)
	}
}

func TestAuthService_Refresh_SubjectMismatch(t *testing.T) {
	f := newAuthFixture(t)
	holder := f.register(t, "holder@example.com", "pw")
	other := f.register(t, "other@example.com", "pw")

	// A well-formed token signed for another user, stored under the holder.
	foreign, _ := f.tokens.IssueRefreshToken(other.ID)
	f.repo.users[holder.ID].RefreshToken = foreign

	if _, err := f.svc.Refresh(context.Background(), foreign); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch, got %v", err)
	}
}

func TestAuthService_Refresh_Expired(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "frank@example.com", "pw")

	expiredIssuer, _ := security.NewJWTIssuer("secret", time.Minute, time.Nanosecond)
	tok, _ := expiredIssuer.IssueRefreshToken(u.ID)
	time.Sleep(time.Second) // exp has whole-second resolution
	f.repo.users[u.ID].RefreshToken = tok

	if _, err := f.svc.Refresh(context.Background(), tok); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch for expired token, got %v", err)
	}
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "gina@example.com", "pw")

	access, _ := f.tokens.IssueAccessToken(u.ID)
	f.repo.users[u.ID].RefreshToken = access

	if _, err := f.svc.Refresh(context.Background(), access); !errors.Is(err, domain.ErrTokenMismatch) {
		t.Fatalf("expected ErrTokenMismatch, got %v", err)
	}
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	f := newAuthFixture(t)
	u := f.register(t, "hank@example.com", "pw")
	res, _ := f.svc.Login(context.Background(), "hank@example.com", "pw")

	if err := f.svc.Logout(context.Background(), res.RefreshToken); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if f.repo.users[u.ID].RefreshToken != "" {
		t.Fatalf("stored refresh token must be cleared after logout")
	}
	if err := f.svc.Logout(context.Background(), res.RefreshToken); err != nil {
		t.Fatalf("second logout: %v", err)
	}
	if err := f.svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("logout without token: %v", err)
	}
	if _, err := f.svc.Refresh(context.Background(), res.RefreshToken); !errors.Is(err, domain.ErrTokenNotRecognized) {
		t.Fatalf("revoked token must not refresh, got %v", err)
	}
}

func TestAuthService_Logout_PersistenceFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ivy@example.com", "pw")
	res, _ := f.svc.Login(context.Background(), "ivy@example.com", "pw")

	f.repo.failErr = errStoreDown
	if err := f.svc.Logout(context.Background(), res.RefreshToken); !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestAuthService_PublishesAuditEvents(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "jay@example.com", "pw")
	res, _ := f.svc.Login(context.Background(), "jay@example.com", "pw")
	_, _ = f.svc.Login(context.Background(), "jay@example.com", "nope")
	_ = f.svc.Logout(context.Background(), res.RefreshToken)

	got := f.audit.types()
	want := []domain.AuthEventType{domain.EventRegister, domain.EventLogin, domain.EventLoginFailed, domain.EventLogout}
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}

func TestAuthService_EnsureAdmin(t *testing.T) {
	f := newAuthFixture(t)

	if err := f.svc.EnsureAdmin(context.Background(), "Root@Example.com", "pw"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if err := f.svc.EnsureAdmin(context.Background(), "root@example.com", "pw"); err != nil {
		t.Fatalf("second ensure admin: %v", err)
	}
	if len(f.repo.users) != 1 {
		t.Fatalf("expected exactly one admin, got %d users", len(f.repo.users))
	}
	admin, _ := f.repo.FindByEmail(context.Background(), "root@example.com")
	if admin == nil || admin.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %+v", admin)
	}

	if err := f.svc.EnsureAdmin(context.Background(), "", ""); err != nil {
		t.Fatalf("empty bootstrap should be a no-op, got %v", err)
	}
}
