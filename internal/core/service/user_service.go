package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
	"github.com/storefront/commerce-api/internal/pkg/metrics"
)

// UserService implements account administration.
type UserService struct {
	repo  ports.UserRepository
	audit ports.AuditPublisher
	log   zerolog.Logger
}

func NewUserService(repo ports.UserRepository, audit ports.AuditPublisher, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, audit: audit, log: log}
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

// UpdateProfile changes the acting user's own name and email.
func (s *UserService) UpdateProfile(ctx context.Context, actingUserID string, update ports.ProfileUpdate) (*domain.User, error) {
	if update.Email != nil {
		email := normalizeEmail(*update.Email)
		update.Email = &email
	}
	if update.Firstname != nil {
		v := strings.TrimSpace(*update.Firstname)
		update.Firstname = &v
	}
	if update.Lastname != nil {
		v := strings.TrimSpace(*update.Lastname)
		update.Lastname = &v
	}

	user, err := s.repo.UpdateProfile(ctx, actingUserID, update)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("profile updated")
	return user, nil
}

// ToggleBlock flips the block flag of a non-admin user. It does not revoke
// the user's stored refresh token.
func (s *UserService) ToggleBlock(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		return nil, domain.ErrCannotBlockAdmin
	}

	updated, err := s.repo.SetBlocked(ctx, user.ID, !user.IsBlocked)
	if err != nil {
		return nil, err
	}

	state := "unblocked"
	if updated.IsBlocked {
		state = "blocked"
	}
	metrics.BlockToggledTotal.WithLabelValues(state).Inc()
	publishEvent(ctx, s.audit, domain.EventBlockToggled, updated.ID, updated.Email, state)
	s.log.Info().Str("user_id", updated.ID).Bool("blocked", updated.IsBlocked).Msg("block state toggled")
	return updated, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	publishEvent(ctx, s.audit, domain.EventUserDeleted, id, "", "")
	s.log.Info().Str("user_id", id).Msg("user deleted")
	return nil
}
