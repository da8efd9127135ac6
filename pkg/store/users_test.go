//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/psm-app/psm/pkg/models"
)

// mustCreateUser inserts a user with a real bcrypt hash and returns it.
func mustCreateUser(t *testing.T, s *Store, username, password string, role models.Role) *models.User {
	t.Helper()
	hash, err := models.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Enabled:      true,
	}
	if _, err := s.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func TestUserOperations(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	t.Run("create user", func(t *testing.T) {
		user := &models.User{
			Username:     "alice",
			PasswordHash: "hashed",
			Role:         models.RoleMember,
			Enabled:      true,
		}

		id, err := s.CreateUser(ctx, user)
		if err != nil {
			t.Fatalf("failed to create user: %v", err)
		}
		if id == "" {
			t.Error("expected non-empty user ID")
		}
	})

	t.Run("duplicate username fails", func(t *testing.T) {
		user := &models.User{
			Username:     "alice",
			PasswordHash: "hashed",
			Role:         models.RoleMember,
			Enabled:      true,
		}

		_, err := s.CreateUser(ctx, user)
		if !errors.Is(err, models.ErrDuplicateUser) {
			t.Errorf("expected ErrDuplicateUser, got %v", err)
		}
	})

	t.Run("invalid role fails validation", func(t *testing.T) {
		user := &models.User{
			Username:     "bob",
			PasswordHash: "hashed",
			Role:         "owner",
		}

		if _, err := s.CreateUser(ctx, user); err == nil {
			t.Error("expected error for invalid role")
		}
	})

	t.Run("get user", func(t *testing.T) {
		user, err := s.GetUser(ctx, "alice")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if user.Username != "alice" {
			t.Errorf("expected alice, got %s", user.Username)
		}
		if user.Role != models.RoleMember {
			t.Errorf("expected member role, got %s", user.Role)
		}
	})

	t.Run("get missing user", func(t *testing.T) {
		_, err := s.GetUser(ctx, "nobody")
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("get user by id", func(t *testing.T) {
		alice, err := s.GetUser(ctx, "alice")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		byID, err := s.GetUserByID(ctx, alice.ID)
		if err != nil {
			t.Fatalf("failed to get user by id: %v", err)
		}
		if byID.Username != "alice" {
			t.Errorf("expected alice, got %s", byID.Username)
		}
	})

	t.Run("list users", func(t *testing.T) {
		mustCreateUser(t, s, "carol", "password1", models.RoleLeader)

		users, err := s.ListUsers(ctx)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("expected 2 users, got %d", len(users))
		}
	})

	t.Run("update user", func(t *testing.T) {
		user, err := s.GetUser(ctx, "carol")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		user.Role = models.RoleAdmin
		user.Enabled = false
		if err := s.UpdateUser(ctx, user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		updated, err := s.GetUser(ctx, "carol")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if updated.Role != models.RoleAdmin {
			t.Errorf("expected admin role, got %s", updated.Role)
		}
		if updated.Enabled {
			t.Error("expected user to be disabled")
		}
	})

	t.Run("update missing user", func(t *testing.T) {
		err := s.UpdateUser(ctx, &models.User{ID: "missing-id", Username: "ghost", Role: models.RoleMember})
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("update last login", func(t *testing.T) {
		ts := time.Now()
		if err := s.UpdateLastLogin(ctx, "alice", ts); err != nil {
			t.Fatalf("failed to update last login: %v", err)
		}

		user, err := s.GetUser(ctx, "alice")
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if user.LastLogin == nil {
			t.Error("expected last login to be set")
		}
	})

	t.Run("delete user removes overrides", func(t *testing.T) {
		victim := mustCreateUser(t, s, "victim", "password1", models.RoleMember)

		created, err := s.EnsurePermission(ctx, "view_users", "View users")
		if err != nil || !created {
			t.Fatalf("failed to seed permission: created=%v err=%v", created, err)
		}
		if err := s.SetUserPermission(ctx, victim.ID, "view_users", true); err != nil {
			t.Fatalf("failed to set override: %v", err)
		}

		if err := s.DeleteUser(ctx, "victim"); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		_, err = s.GetUser(ctx, "victim")
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound after delete, got %v", err)
		}

		var count int64
		if err := s.DB().Model(&models.UserPermission{}).Where("user_id = ?", victim.ID).Count(&count).Error; err != nil {
			t.Fatalf("failed to count overrides: %v", err)
		}
		if count != 0 {
			t.Errorf("expected overrides removed, found %d", count)
		}
	})

	t.Run("delete missing user", func(t *testing.T) {
		err := s.DeleteUser(ctx, "nobody")
		if !errors.Is(err, models.ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestUpdatePassword(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	user := mustCreateUser(t, s, "alice", "oldpassword", models.RoleMember)
	user.MustChangePassword = true
	if err := s.UpdateUser(ctx, user); err != nil {
		t.Fatalf("failed to flag user: %v", err)
	}

	hash, err := models.HashPassword("newpassword")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := s.UpdatePassword(ctx, "alice", hash); err != nil {
		t.Fatalf("failed to update password: %v", err)
	}

	updated, err := s.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("failed to get user: %v", err)
	}
	if updated.MustChangePassword {
		t.Error("expected must_change_password cleared after update")
	}
	if !models.CheckPassword(updated.PasswordHash, "newpassword") {
		t.Error("expected new password to validate")
	}

	if err := s.UpdatePassword(ctx, "nobody", hash); !errors.Is(err, models.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestValidateCredentials(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	mustCreateUser(t, s, "alice", "correct-password", models.RoleMember)

	disabled := mustCreateUser(t, s, "inactive", "correct-password", models.RoleMember)
	disabled.Enabled = false
	if err := s.UpdateUser(ctx, disabled); err != nil {
		t.Fatalf("failed to disable user: %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid credentials", "alice", "correct-password", nil},
		{"wrong password", "alice", "wrong-password", models.ErrInvalidCredentials},
		{"unknown user", "nobody", "correct-password", models.ErrInvalidCredentials},
		{"disabled user", "inactive", "correct-password", models.ErrUserDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := s.ValidateCredentials(ctx, tt.username, tt.password)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if user.Username != tt.username {
					t.Errorf("expected %s, got %s", tt.username, user.Username)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnsureSuperuser(t *testing.T) {
	t.Run("creates superuser with default password", func(t *testing.T) {
		s := createTestStore(t)
		ctx := context.Background()

		password, created, err := s.EnsureSuperuser(ctx)
		if err != nil {
			t.Fatalf("failed to ensure superuser: %v", err)
		}
		if !created {
			t.Fatal("expected superuser to be created")
		}
		if password == "" {
			t.Error("expected the initial password to be returned")
		}

		user, err := s.GetUser(ctx, models.SuperuserUsername)
		if err != nil {
			t.Fatalf("failed to get superuser: %v", err)
		}
		if user.Role != models.RoleSuper {
			t.Errorf("expected super role, got %s", user.Role)
		}
		if !user.MustChangePassword {
			t.Error("expected default password to force a change on first login")
		}
		if !models.CheckPassword(user.PasswordHash, password) {
			t.Error("expected returned password to validate")
		}
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		s := createTestStore(t)
		ctx := context.Background()

		if _, created, err := s.EnsureSuperuser(ctx); err != nil || !created {
			t.Fatalf("first run: created=%v err=%v", created, err)
		}

		password, created, err := s.EnsureSuperuser(ctx)
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if created {
			t.Error("expected no-op on second run")
		}
		if password != "" {
			t.Error("expected no password on no-op run")
		}

		users, err := s.ListUsers(ctx)
		if err != nil {
			t.Fatalf("failed to list users: %v", err)
		}
		if len(users) != 1 {
			t.Errorf("expected exactly 1 user, got %d", len(users))
		}
	})

	t.Run("environment password skips forced change", func(t *testing.T) {
		t.Setenv(models.EnvSuperuserPassword, "from-environment")

		s := createTestStore(t)
		ctx := context.Background()

		password, created, err := s.EnsureSuperuser(ctx)
		if err != nil {
			t.Fatalf("failed to ensure superuser: %v", err)
		}
		if !created {
			t.Fatal("expected superuser to be created")
		}
		if password != "from-environment" {
			t.Errorf("expected environment password, got %q", password)
		}

		user, err := s.GetUser(ctx, models.SuperuserUsername)
		if err != nil {
			t.Fatalf("failed to get superuser: %v", err)
		}
		if user.MustChangePassword {
			t.Error("expected no forced change for environment-provided password")
		}
	})

	t.Run("initialized flag", func(t *testing.T) {
		s := createTestStore(t)
		ctx := context.Background()

		initialized, err := s.IsSuperuserInitialized(ctx)
		if err != nil {
			t.Fatalf("failed to check superuser: %v", err)
		}
		if initialized {
			t.Error("expected not initialized before bootstrap")
		}

		if _, _, err := s.EnsureSuperuser(ctx); err != nil {
			t.Fatalf("failed to ensure superuser: %v", err)
		}

		initialized, err = s.IsSuperuserInitialized(ctx)
		if err != nil {
			t.Fatalf("failed to check superuser: %v", err)
		}
		if !initialized {
			t.Error("expected initialized after bootstrap")
		}
	})
}
