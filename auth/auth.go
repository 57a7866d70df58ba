// Package auth holds the session and role authorization core: identity token
// decoding, the portal authorizer, and the user-management role policy.
package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError represents authentication/authorization errors
type AuthError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Is matches on Type so that an error rebuilt from a response payload still
// satisfies errors.Is against the sentinel it came from.
func (e *AuthError) Is(target error) bool {
	var t *AuthError
	if !errors.As(target, &t) {
		return false
	}
	return e.Type == t.Type
}

// Common auth errors
var (
	ErrMalformedToken       = &AuthError{"MALFORMED_TOKEN", "Identity token could not be decoded", http.StatusUnauthorized}
	ErrNoSession            = &AuthError{"NO_SESSION", "No active session", http.StatusUnauthorized}
	ErrMissingToken         = &AuthError{"MISSING_TOKEN", "Authorization header required", http.StatusUnauthorized}
	ErrInvalidToken         = &AuthError{"INVALID_TOKEN", "Invalid or expired token", http.StatusUnauthorized}
	ErrUserInactive         = &AuthError{"USER_INACTIVE", "User account inactive", http.StatusUnauthorized}
	ErrInsufficientRole     = &AuthError{"INSUFFICIENT_ROLE", "Insufficient role permissions", http.StatusForbidden}
	ErrRoleEscalationDenied = &AuthError{"ROLE_ESCALATION_DENIED", "Admins are not allowed to assign this role", http.StatusForbidden}
	ErrUpstreamUnavailable  = &AuthError{"UPSTREAM_UNAVAILABLE", "Upstream service unavailable", http.StatusBadGateway}
)

// NewAuthError creates an auth error.
func NewAuthError(errorType, message string, code int) *AuthError {
	return &AuthError{
		Type:    errorType,
		Message: message,
		Code:    code,
	}
}

// AsAuthError unwraps err to the first *AuthError in its chain.
func AsAuthError(err error) (*AuthError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr, true
	}
	return nil, false
}
