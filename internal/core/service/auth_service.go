package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
	"github.com/storefront/commerce-api/internal/pkg/metrics"
)

// AuthService implements registration and the login / refresh / logout
// session lifecycle.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens ports.TokenIssuer
	audit  ports.AuditPublisher
	log    zerolog.Logger
}

func NewAuthService(
	repo ports.UserRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	audit ports.AuditPublisher,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, audit: audit, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Firstname:    strings.TrimSpace(in.Firstname),
		Lastname:     strings.TrimSpace(in.Lastname),
		Email:        email,
		Mobile:       strings.TrimSpace(in.Mobile),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	metrics.UsersRegisteredTotal.Inc()
	s.publish(ctx, domain.EventRegister, created.ID, created.Email, "")
	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

// Login verifies credentials and opens a session. Unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	email = normalizeEmail(email)

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.loginFailed(ctx, "", email)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		s.loginFailed(ctx, user.ID, email)
		return nil, domain.ErrInvalidCredentials
	}

	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	// Last write wins: a new login replaces any previous session.
	if err := s.repo.SetRefreshToken(ctx, user.ID, refresh); err != nil {
		return nil, err
	}
	user.RefreshToken = refresh

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.publish(ctx, domain.EventLogin, user.ID, user.Email, "")
	s.log.Info().Str("user_id", user.ID).Msg("login succeeded")

	return &ports.LoginResult{AccessToken: access, RefreshToken: refresh, User: user}, nil
}

// Refresh exchanges a stored refresh token for a new access token. The
// refresh token itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		metrics.RefreshesTotal.WithLabelValues("missing").Inc()
		return "", domain.ErrMissingToken
	}

	user, err := s.repo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.RefreshesTotal.WithLabelValues("not_recognized").Inc()
			return "", domain.ErrTokenNotRecognized
		}
		return "", err
	}

	claims, err := s.tokens.Verify(refreshToken, ports.RefreshToken)
	if err != nil || claims.UserID != user.ID {
		metrics.RefreshesTotal.WithLabelValues("mismatch").Inc()
		s.log.Warn().Str("user_id", user.ID).Msg("refresh token failed verification")
		return "", domain.ErrTokenMismatch
	}

	access, err := s.tokens.IssueAccessToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	s.publish(ctx, domain.EventRefresh, user.ID, user.Email, "")
	return access, nil
}

// Logout revokes the stored refresh token. It succeeds when there is no
// token or no session holding it; only a store failure is an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		metrics.LogoutsTotal.WithLabelValues("no_session").Inc()
		return nil
	}

	user, err := s.repo.FindByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.LogoutsTotal.WithLabelValues("no_session").Inc()
			return nil
		}
		return err
	}

	if _, err := s.repo.ClearRefreshToken(ctx, refreshToken); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("failed to clear refresh token")
		return err
	}

	metrics.LogoutsTotal.WithLabelValues("success").Inc()
	s.publish(ctx, domain.EventLogout, user.ID, user.Email, "")
	s.log.Info().Str("user_id", user.ID).Msg("logout succeeded")
	return nil
}

// EnsureAdmin creates an admin account for email unless one with that email
// already exists. Used to bootstrap a fresh deployment.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Firstname:    "Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil
		}
		return err
	}

	s.log.Info().Str("user_id", created.ID).Str("email", email).Msg("admin account bootstrapped")
	return nil
}

func (s *AuthService) loginFailed(ctx context.Context, userID, email string) {
	metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
	s.publish(ctx, domain.EventLoginFailed, userID, email, "")
	s.log.Debug().Str("email", email).Msg("login rejected")
}

func (s *AuthService) publish(ctx context.Context, typ domain.AuthEventType, userID, email, detail string) {
	publishEvent(ctx, s.audit, typ, userID, email, detail)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
