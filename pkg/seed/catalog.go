// Package seed holds the baseline authorization and configuration data and
// the idempotent seeder that installs it at bootstrap.
package seed

import "github.com/psm-app/psm/pkg/models"

// PermissionDef describes one entry of the permission catalog.
type PermissionDef struct {
	Name        string
	Description string
}

// Permissions is the full permission catalog. Seeding creates any entry
// that is missing and never touches entries that already exist.
var Permissions = []PermissionDef{
	// User and role management
	{"view_users", "View the user list and user details"},
	{"edit_user_role", "Change a user's role"},
	{"manage_permissions", "Manage user- and role-specific permissions"},
	{"manage_roles", "View and change role default permissions"},

	// Audit
	{"view_activity_logs", "View user activity logs"},
	{"view_session_logs", "View user login sessions"},

	// Projects
	{"manage_projects", "Create and edit projects"},
	{"delete_projects", "Delete projects"},
	{"manage_subprojects", "Create and edit subprojects"},
	{"delete_subprojects", "Delete subprojects"},
	{"manage_stages", "Create and edit stages"},
	{"delete_stages", "Delete stages"},
	{"manage_tasks", "Create and edit tasks"},
	{"delete_tasks", "Delete tasks"},
	{"assign_tasks", "Assign members to tasks"},
	{"update_task_progress", "Update own task progress and status"},

	// HR
	{"manage_teams", "Assign team leaders and members"},
	{"view_reports", "View HR reports"},
	{"view_clock_in_reports", "View clock-in correction reports"},
	{"view_progress_reports", "View task progress reports"},

	// Knowledge base
	{"view_knowledge_base", "View knowledge base content"},
	{"create_kb_item", "Create knowledge base items"},
	{"edit_own_kb_item", "Edit own knowledge base items"},
	{"delete_own_kb_item", "Delete own knowledge base items"},
	{"manage_knowledge_base", "Manage all knowledge base content"},
	{"sync_training_files", "Sync training files into the knowledge base"},
	{"sync_public_files", "Sync public files into the knowledge base"},
	{"create_public_kb_item", "Create items in the public knowledge base space"},
}

// RoleDefaults maps each role to its default permission grants.
//
// The super role is absent on purpose: it bypasses permission checks
// entirely, so it needs no grants.
var RoleDefaults = map[models.Role][]string{
	models.RoleAdmin: {
		"view_users",
		"edit_user_role",
		"manage_permissions",
		"manage_roles",
		"view_activity_logs",
		"view_session_logs",
		"view_reports",
		"manage_projects", "delete_projects",
		"manage_subprojects", "delete_subprojects",
		"manage_stages", "delete_stages",
		"manage_tasks", "delete_tasks",
		"assign_tasks",
		"manage_teams",
		"view_clock_in_reports",
		"view_progress_reports",
		"view_knowledge_base",
		"create_kb_item",
		"edit_own_kb_item",
		"delete_own_kb_item",
		"manage_knowledge_base",
		"sync_training_files",
		"sync_public_files",
		"create_public_kb_item",
	},
	models.RoleLeader: {
		"view_users",
		"view_reports",
		"manage_projects",
		"manage_subprojects", "delete_subprojects",
		"manage_stages", "delete_stages",
		"manage_tasks", "delete_tasks",
		"assign_tasks",
		"update_task_progress",
		"view_knowledge_base",
		"create_kb_item",
		"edit_own_kb_item",
		"delete_own_kb_item",
		"create_public_kb_item",
	},
	models.RoleMember: {
		"update_task_progress",
		"view_knowledge_base",
		"create_kb_item",
		"edit_own_kb_item",
		"delete_own_kb_item",
	},
}

// ConfigDef describes one baseline system config entry.
type ConfigDef struct {
	Key         string
	Value       string
	Description string
}

// ConfigDefaults is the baseline system configuration. Seeding installs
// missing keys only; operator-set values are never overwritten.
var ConfigDefaults = []ConfigDef{
	{models.ConfigAllowRegistration, "false", "Allow self-service account registration"},
	{models.ConfigSessionLifetime, "3600", "Session lifetime in seconds"},
	{models.ConfigAutoBackupCron, "", "Cron schedule for automatic backups (empty disables)"},
	{models.ConfigDeepSeekAPIKey, "", "System-wide DeepSeek API key"},
}
