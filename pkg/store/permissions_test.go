//go:build integration

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/psm-app/psm/pkg/models"
)

func TestEnsurePermission(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	created, err := s.EnsurePermission(ctx, "view_users", "View users")
	if err != nil {
		t.Fatalf("failed to ensure permission: %v", err)
	}
	if !created {
		t.Error("expected permission to be created")
	}

	// Second call must not touch the existing row
	created, err = s.EnsurePermission(ctx, "view_users", "A different description")
	if err != nil {
		t.Fatalf("failed on repeat ensure: %v", err)
	}
	if created {
		t.Error("expected no-op on repeat ensure")
	}

	perm, err := s.GetPermission(ctx, "view_users")
	if err != nil {
		t.Fatalf("failed to get permission: %v", err)
	}
	if perm.Description != "View users" {
		t.Errorf("expected original description preserved, got %q", perm.Description)
	}

	_, err = s.GetPermission(ctx, "does_not_exist")
	if !errors.Is(err, models.ErrPermissionNotFound) {
		t.Errorf("expected ErrPermissionNotFound, got %v", err)
	}
}

func TestEnsureRolePermission(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.EnsurePermission(ctx, "view_users", "View users"); err != nil {
		t.Fatalf("failed to seed permission: %v", err)
	}

	created, err := s.EnsureRolePermission(ctx, models.RoleAdmin, "view_users")
	if err != nil {
		t.Fatalf("failed to ensure grant: %v", err)
	}
	if !created {
		t.Error("expected grant to be created")
	}

	created, err = s.EnsureRolePermission(ctx, models.RoleAdmin, "view_users")
	if err != nil {
		t.Fatalf("failed on repeat ensure: %v", err)
	}
	if created {
		t.Error("expected no-op on repeat ensure")
	}

	grants, err := s.ListRolePermissions(ctx, models.RoleAdmin)
	if err != nil {
		t.Fatalf("failed to list grants: %v", err)
	}
	if len(grants) != 1 {
		t.Errorf("expected 1 grant, got %d", len(grants))
	}

	_, err = s.EnsureRolePermission(ctx, models.RoleAdmin, "does_not_exist")
	if !errors.Is(err, models.ErrPermissionNotFound) {
		t.Errorf("expected ErrPermissionNotFound, got %v", err)
	}
}

func TestSetRolePermissions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"view_users", "manage_tasks", "view_reports"} {
		if _, err := s.EnsurePermission(ctx, name, name); err != nil {
			t.Fatalf("failed to seed permission: %v", err)
		}
	}

	if err := s.SetRolePermissions(ctx, models.RoleLeader, []string{"view_users", "manage_tasks"}); err != nil {
		t.Fatalf("failed to set role permissions: %v", err)
	}

	// Replacing the set drops grants that are no longer named
	if err := s.SetRolePermissions(ctx, models.RoleLeader, []string{"view_reports"}); err != nil {
		t.Fatalf("failed to replace role permissions: %v", err)
	}

	grants, err := s.ListRolePermissions(ctx, models.RoleLeader)
	if err != nil {
		t.Fatalf("failed to list grants: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("expected 1 grant after replace, got %d", len(grants))
	}
	if grants[0].Permission.Name != "view_reports" {
		t.Errorf("expected view_reports, got %s", grants[0].Permission.Name)
	}

	t.Run("unknown permission rejects the whole set", func(t *testing.T) {
		err := s.SetRolePermissions(ctx, models.RoleLeader, []string{"view_reports", "does_not_exist"})
		if !errors.Is(err, models.ErrPermissionNotFound) {
			t.Errorf("expected ErrPermissionNotFound, got %v", err)
		}

		grants, err := s.ListRolePermissions(ctx, models.RoleLeader)
		if err != nil {
			t.Fatalf("failed to list grants: %v", err)
		}
		if len(grants) != 1 {
			t.Errorf("expected grants unchanged after rejected set, got %d", len(grants))
		}
	})

	t.Run("empty set clears role grants", func(t *testing.T) {
		if err := s.SetRolePermissions(ctx, models.RoleLeader, nil); err != nil {
			t.Fatalf("failed to clear role permissions: %v", err)
		}

		grants, err := s.ListRolePermissions(ctx, models.RoleLeader)
		if err != nil {
			t.Fatalf("failed to list grants: %v", err)
		}
		if len(grants) != 0 {
			t.Errorf("expected no grants, got %d", len(grants))
		}
	})
}

func TestSetUserPermission(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	user := mustCreateUser(t, s, "alice", "password1", models.RoleMember)
	if _, err := s.EnsurePermission(ctx, "view_users", "View users"); err != nil {
		t.Fatalf("failed to seed permission: %v", err)
	}

	if err := s.SetUserPermission(ctx, user.ID, "view_users", true); err != nil {
		t.Fatalf("failed to set override: %v", err)
	}

	allowed, err := s.UserCan(ctx, user, "view_users")
	if err != nil {
		t.Fatalf("failed to check permission: %v", err)
	}
	if !allowed {
		t.Error("expected override to allow")
	}

	// Setting again flips the existing override instead of inserting
	if err := s.SetUserPermission(ctx, user.ID, "view_users", false); err != nil {
		t.Fatalf("failed to update override: %v", err)
	}

	allowed, err = s.UserCan(ctx, user, "view_users")
	if err != nil {
		t.Fatalf("failed to check permission: %v", err)
	}
	if allowed {
		t.Error("expected override to deny")
	}

	var count int64
	if err := s.DB().Model(&models.UserPermission{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count overrides: %v", err)
	}
	if count != 1 {
		t.Errorf("expected a single override row, got %d", count)
	}

	if err := s.SetUserPermission(ctx, user.ID, "does_not_exist", true); !errors.Is(err, models.ErrPermissionNotFound) {
		t.Errorf("expected ErrPermissionNotFound, got %v", err)
	}
}

func TestUserCan(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.EnsurePermission(ctx, "manage_tasks", "Manage tasks"); err != nil {
		t.Fatalf("failed to seed permission: %v", err)
	}
	if _, err := s.EnsureRolePermission(ctx, models.RoleLeader, "manage_tasks"); err != nil {
		t.Fatalf("failed to seed grant: %v", err)
	}

	superuser := mustCreateUser(t, s, "root", "password1", models.RoleSuper)
	leader := mustCreateUser(t, s, "leader", "password1", models.RoleLeader)
	member := mustCreateUser(t, s, "member", "password1", models.RoleMember)

	t.Run("super bypasses everything", func(t *testing.T) {
		allowed, err := s.UserCan(ctx, superuser, "does_not_even_exist")
		if err != nil {
			t.Fatalf("failed to check permission: %v", err)
		}
		if !allowed {
			t.Error("expected super to be allowed")
		}
	})

	t.Run("role default grants", func(t *testing.T) {
		allowed, err := s.UserCan(ctx, leader, "manage_tasks")
		if err != nil {
			t.Fatalf("failed to check permission: %v", err)
		}
		if !allowed {
			t.Error("expected leader role default to allow")
		}
	})

	t.Run("no grant denies", func(t *testing.T) {
		allowed, err := s.UserCan(ctx, member, "manage_tasks")
		if err != nil {
			t.Fatalf("failed to check permission: %v", err)
		}
		if allowed {
			t.Error("expected member to be denied")
		}
	})

	t.Run("override beats role default", func(t *testing.T) {
		if err := s.SetUserPermission(ctx, leader.ID, "manage_tasks", false); err != nil {
			t.Fatalf("failed to set override: %v", err)
		}

		allowed, err := s.UserCan(ctx, leader, "manage_tasks")
		if err != nil {
			t.Fatalf("failed to check permission: %v", err)
		}
		if allowed {
			t.Error("expected deny override to beat the role grant")
		}
	})

	t.Run("override grants beyond role default", func(t *testing.T) {
		if err := s.SetUserPermission(ctx, member.ID, "manage_tasks", true); err != nil {
			t.Fatalf("failed to set override: %v", err)
		}

		allowed, err := s.UserCan(ctx, member, "manage_tasks")
		if err != nil {
			t.Fatalf("failed to check permission: %v", err)
		}
		if !allowed {
			t.Error("expected allow override to beat the missing role grant")
		}
	})
}
