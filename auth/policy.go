package auth

// CanAssignRole reports whether requester may give target to a new or
// existing user. Agent may be assigned by anyone; Admin and SuperAdmin only by
// a SuperAdmin.
func CanAssignRole(requester, target Role) bool {
	switch target {
	case RoleAgent:
		return true
	case RoleAdmin, RoleSuperAdmin:
		return requester == RoleSuperAdmin
	default:
		return false
	}
}

// CheckRoleAssignment is CanAssignRole returning ErrRoleEscalationDenied.
func CheckRoleAssignment(requester, target Role) error {
	if !CanAssignRole(requester, target) {
		return ErrRoleEscalationDenied
	}
	return nil
}

// CanManageUser reports whether actor may update or disable a user holding
// target. The actor must rank strictly above the target.
func CanManageUser(actor, target Role) bool {
	return actor.Valid() && actor.rank() > target.rank()
}
