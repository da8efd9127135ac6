package models

// Role represents the role of a user in the system.
//
// Roles form a fixed hierarchy: super > admin > leader > member. The super
// role bypasses all permission checks; the other roles are granted a set of
// default permissions at seed time (see pkg/seed) which can be overridden
// per user.
type Role string

const (
	// RoleSuper is the superuser with unconditional access to everything.
	RoleSuper Role = "super"
	// RoleAdmin is an administrator managing users, roles and system configs.
	RoleAdmin Role = "admin"
	// RoleLeader is a team leader managing work within their own teams.
	RoleLeader Role = "leader"
	// RoleMember is a regular member.
	RoleMember Role = "member"
)

// AllRoles returns every valid role, most privileged first.
func AllRoles() []Role {
	return []Role{RoleSuper, RoleAdmin, RoleLeader, RoleMember}
}

// IsValid checks if the role is one of the defined roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleSuper, RoleAdmin, RoleLeader, RoleMember:
		return true
	}
	return false
}

// AtLeast reports whether r has privileges greater than or equal to other.
func (r Role) AtLeast(other Role) bool {
	return r.rank() <= other.rank()
}

func (r Role) rank() int {
	switch r {
	case RoleSuper:
		return 0
	case RoleAdmin:
		return 1
	case RoleLeader:
		return 2
	case RoleMember:
		return 3
	default:
		return 99
	}
}
