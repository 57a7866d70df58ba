package auth

import "strings"

// Requirement names the portal a view belongs to.
type Requirement int

const (
	RequireNone Requirement = iota
	RequireAdminPortal
	RequireAgentPortal
)

func (r Requirement) String() string {
	switch r {
	case RequireAdminPortal:
		return "AdminPortal"
	case RequireAgentPortal:
		return "AgentPortal"
	default:
		return "None"
	}
}

// ParseRequirement accepts "admin", "agent" or "" / "none".
func ParseRequirement(s string) (Requirement, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return RequireNone, true
	case "admin", "adminportal":
		return RequireAdminPortal, true
	case "agent", "agentportal":
		return RequireAgentPortal, true
	default:
		return RequireNone, false
	}
}

// Verdict is the outcome of an authorization check.
type Verdict int

const (
	Allow Verdict = iota
	RedirectToAdminHome
	RedirectToAgentHome
	RedirectToLogin
)

func (v Verdict) String() string {
	switch v {
	case Allow:
		return "Allow"
	case RedirectToAdminHome:
		return "RedirectToAdminHome"
	case RedirectToAgentHome:
		return "RedirectToAgentHome"
	default:
		return "RedirectToLogin"
	}
}

// Authorize decides whether principal may see a view with the given
// requirement. A nil principal is always sent to the login page.
func Authorize(principal *Principal, requirement Requirement) Verdict {
	if principal == nil {
		return RedirectToLogin
	}
	return AuthorizeRole(principal.Role, requirement)
}

// AuthorizeRole is the role-only form of Authorize.
func AuthorizeRole(role Role, requirement Requirement) Verdict {
	switch requirement {
	case RequireNone:
		return Allow
	case RequireAdminPortal:
		if role.CanAccessAdminPortal() {
			return Allow
		}
		return RedirectToAgentHome
	case RequireAgentPortal:
		if role == RoleAgent {
			return Allow
		}
		return RedirectToAdminHome
	default:
		return RedirectToLogin
	}
}
