package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

func seedUser(repo *stubUserRepo, email, role string) *domain.User {
	u, _ := repo.Create(context.Background(), &domain.User{Email: email, Role: role, Firstname: "F", Lastname: "L"})
	return u
}

func TestUserService_ToggleBlock(t *testing.T) {
	repo := newStubUserRepo()
	audit := &recordingAudit{}
	svc := NewUserService(repo, audit, zerolog.Nop())
	u := seedUser(repo, "u@example.com", domain.RoleUser)

	blocked, err := svc.ToggleBlock(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !blocked.IsBlocked {
		t.Fatalf("expected user to be blocked")
	}

	unblocked, err := svc.ToggleBlock(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if unblocked.IsBlocked {
		t.Fatalf("expected user to be unblocked after second toggle")
	}

	if len(audit.events) != 2 || audit.events[0].Detail != "blocked" || audit.events[1].Detail != "unblocked" {
		t.Fatalf("unexpected audit trail: %+v", audit.events)
	}
}

func TestUserService_ToggleBlock_AdminRejected(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, nil, zerolog.Nop())
	admin := seedUser(repo, "root@example.com", domain.RoleAdmin)

	if _, err := svc.ToggleBlock(context.Background(), admin.ID); !errors.Is(err, domain.ErrCannotBlockAdmin) {
		t.Fatalf("expected ErrCannotBlockAdmin, got %v", err)
	}
	if repo.users[admin.ID].IsBlocked {
		t.Fatalf("admin state must be unchanged")
	}
}

func TestUserService_ToggleBlock_KeepsSession(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, nil, zerolog.Nop())
	u := seedUser(repo, "u@example.com", domain.RoleUser)
	repo.users[u.ID].RefreshToken = "tok"

	if _, err := svc.ToggleBlock(context.Background(), u.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if repo.users[u.ID].RefreshToken != "tok" {
		t.Fatalf("blocking must not clear the stored refresh token")
	}
}

func TestUserService_ToggleBlock_NotFound(t *testing.T) {
	svc := NewUserService(newStubUserRepo(), nil, zerolog.Nop())
	if _, err := svc.ToggleBlock(context.Background(), "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, nil, zerolog.Nop())
	u := seedUser(repo, "old@example.com", domain.RoleUser)

	email := "  New@Example.com "
	first := " Jane "
	updated, err := svc.UpdateProfile(context.Background(), u.ID, ports.ProfileUpdate{Email: &email, Firstname: &first})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Email != "new@example.com" || updated.Firstname != "Jane" {
		t.Fatalf("unexpected profile: %+v", updated)
	}
	if updated.Lastname != "L" {
		t.Fatalf("lastname must be untouched, got %q", updated.Lastname)
	}
}

func TestUserService_UpdateProfile_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, nil, zerolog.Nop())
	seedUser(repo, "taken@example.com", domain.RoleUser)
	u := seedUser(repo, "me@example.com", domain.RoleUser)

	email := "taken@example.com"
	if _, err := svc.UpdateProfile(context.Background(), u.ID, ports.ProfileUpdate{Email: &email}); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	repo := newStubUserRepo()
	audit := &recordingAudit{}
	svc := NewUserService(repo, audit, zerolog.Nop())
	u := seedUser(repo, "u@example.com", domain.RoleUser)

	if err := svc.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), u.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected deleted user to be gone, got %v", err)
	}
	if err := svc.Delete(context.Background(), u.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
	if got := audit.types(); len(got) != 1 || got[0] != domain.EventUserDeleted {
		t.Fatalf("unexpected audit trail: %v", got)
	}
}
