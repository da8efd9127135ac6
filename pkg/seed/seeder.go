package seed

import (
	"context"
	"fmt"

	"github.com/psm-app/psm/internal/logger"
	"github.com/psm-app/psm/pkg/store"
)

// Seeder installs the baseline permission catalog, role grants and system
// configuration. Every operation is an insert-if-absent, so the seeder can
// run on every container start.
type Seeder struct {
	store *store.Store
}

// New creates a Seeder over the given store.
func New(s *store.Store) *Seeder {
	return &Seeder{store: s}
}

// SeedPermissions installs the permission catalog and the per-role default
// grants. Returns the number of permissions and grants created.
func (s *Seeder) SeedPermissions(ctx context.Context) (permsCreated, grantsCreated int, err error) {
	for _, def := range Permissions {
		created, err := s.store.EnsurePermission(ctx, def.Name, def.Description)
		if err != nil {
			return permsCreated, grantsCreated, fmt.Errorf("failed to seed permission %q: %w", def.Name, err)
		}
		if created {
			permsCreated++
			logger.Debug("Created permission", "name", def.Name)
		}
	}

	for role, names := range RoleDefaults {
		for _, name := range names {
			created, err := s.store.EnsureRolePermission(ctx, role, name)
			if err != nil {
				return permsCreated, grantsCreated, fmt.Errorf("failed to grant %q to role %q: %w", name, role, err)
			}
			if created {
				grantsCreated++
				logger.Debug("Granted permission to role", "name", name, "role", role)
			}
		}
	}

	logger.Info("Permission seeding complete",
		"permissions_created", permsCreated,
		"grants_created", grantsCreated)
	return permsCreated, grantsCreated, nil
}

// SeedConfigs installs the baseline system config entries. Returns the
// number of entries created; existing values are never overwritten.
func (s *Seeder) SeedConfigs(ctx context.Context) (created int, err error) {
	for _, def := range ConfigDefaults {
		didCreate, err := s.store.EnsureConfig(ctx, def.Key, def.Value, def.Description)
		if err != nil {
			return created, fmt.Errorf("failed to seed config %q: %w", def.Key, err)
		}
		if didCreate {
			created++
			logger.Debug("Created system config", "key", def.Key)
		}
	}

	logger.Info("System config seeding complete", "configs_created", created)
	return created, nil
}
