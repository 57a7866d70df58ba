package auth

import "strings"

// Role is a dashboard role taken from the identity provider's group claim.
type Role string

const (
	RoleAgent      Role = "Agent"
	RoleAdmin      Role = "Admin"
	RoleSuperAdmin Role = "SuperAdmin"
)

// Roles lists every known role, least privileged first.
var Roles = []Role{RoleAgent, RoleAdmin, RoleSuperAdmin}

// ParseRole matches a group name against the known roles, ignoring case and
// surrounding whitespace.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for _, r := range Roles {
		if strings.EqualFold(s, string(r)) {
			return r, true
		}
	}
	return "", false
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.rank() > 0
}

// rank orders roles for the user-management rules. Unknown roles rank 0.
func (r Role) rank() int {
	switch r {
	case RoleAgent:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	default:
		return 0
	}
}

// CanAccessAdminPortal reports whether the role may open the admin portal.
func (r Role) CanAccessAdminPortal() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Placeholders used when the identity token omits a display attribute.
const (
	PlaceholderFirstName = "<first_name>"
	PlaceholderLastName  = "<last_name>"
	PlaceholderEmail     = "<email>"
)

// Principal is the normalized identity of a signed-in user.
type Principal struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
}

// TokenBundle is what the identity provider hands back after sign-in, and the
// shape of the OIDC client's session cache entry.
type TokenBundle struct {
	IDToken     string `json:"id_token,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
}

// Preferred returns the identity token when present, otherwise the access token.
func (b TokenBundle) Preferred() string {
	if b.IDToken != "" {
		return b.IDToken
	}
	return b.AccessToken
}
