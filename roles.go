package adminauth

// AdminRole is an ordered privilege level. Higher values include every
// capability of lower ones, so role checks reduce to an integer comparison.
type AdminRole int

const (
	// RoleAdmin can operate the regular administrative surface.
	RoleAdmin AdminRole = 1
	// RoleSuperadmin can additionally manage other admins (invite, ban,
	// role changes, deletion).
	RoleSuperadmin AdminRole = 2
)

// IsValid checks if the role is one of the predefined valid roles
func (r AdminRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSuperadmin:
		return true
	default:
		return false
	}
}

// IsAtLeast checks if this role meets the minimum required level
func (r AdminRole) IsAtLeast(minRole AdminRole) bool {
	if !r.IsValid() || !minRole.IsValid() {
		return false
	}
	return r >= minRole
}

func (r AdminRole) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleSuperadmin:
		return "superadmin"
	default:
		return "unknown"
	}
}

// AllRoles returns all predefined roles in hierarchical order
func AllRoles() []AdminRole {
	return []AdminRole{
		RoleAdmin,
		RoleSuperadmin,
	}
}

// ParseRole safely parses a role name into an AdminRole
func ParseRole(name string) (AdminRole, bool) {
	for _, role := range AllRoles() {
		if role.String() == name {
			return role, true
		}
	}
	return 0, false
}
