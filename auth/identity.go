package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultGroupsClaim is the claim Cognito uses for group membership.
const DefaultGroupsClaim = "cognito:groups"

// Resolver turns identity tokens into principals. It reads claims only; callers
// that need signature checks go through TokenService.
type Resolver struct {
	parser      *jwt.Parser
	groupsClaim string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithGroupsClaim overrides the claim holding the group list.
func WithGroupsClaim(name string) ResolverOption {
	return func(r *Resolver) {
		if name != "" {
			r.groupsClaim = name
		}
	}
}

// NewResolver creates a resolver reading groups from DefaultGroupsClaim unless overridden.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		parser:      jwt.NewParser(),
		groupsClaim: DefaultGroupsClaim,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = NewResolver()

// ResolveIdentity decodes token with the default resolver.
func ResolveIdentity(token string) (*Principal, error) {
	return defaultResolver.Resolve(token)
}

// Resolve decodes the payload segment of a compact JWT and normalizes it.
// Only the segment count and the payload are checked; the header is not
// read. Any structural problem yields an error wrapping ErrMalformedToken.
func (r *Resolver) Resolve(tokenString string) (*Principal, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: token has %d segments", ErrMalformedToken, len(parts))
	}
	payload, err := r.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not base64url: %v", ErrMalformedToken, err)
	}
	claims := jwt.MapClaims{}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object: %v", ErrMalformedToken, err)
	}
	return r.principalFromClaims(claims)
}

// principalFromClaims validates claim types strictly; only the first group is
// used as the role.
func (r *Resolver) principalFromClaims(claims jwt.MapClaims) (*Principal, error) {
	sub, err := stringClaim(claims, "sub")
	if err != nil {
		return nil, err
	}
	if sub == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrMalformedToken)
	}

	p := &Principal{ID: sub}
	if p.Email, err = stringClaimOr(claims, "email", PlaceholderEmail); err != nil {
		return nil, err
	}
	if p.FirstName, err = stringClaimOr(claims, "given_name", PlaceholderFirstName); err != nil {
		return nil, err
	}
	if p.LastName, err = stringClaimOr(claims, "family_name", PlaceholderLastName); err != nil {
		return nil, err
	}

	groups, err := stringSliceClaim(claims, r.groupsClaim)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		p.Role = RoleAgent
		return p, nil
	}

	role, ok := ParseRole(groups[0])
	if !ok {
		return nil, fmt.Errorf("%w: unknown role %q", ErrMalformedToken, groups[0])
	}
	p.Role = role
	return p, nil
}

func stringClaim(claims jwt.MapClaims, name string) (string, error) {
	raw, ok := claims[name]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: claim %s is not a string, got type: %T", ErrMalformedToken, name, raw)
	}
	return s, nil
}

func stringClaimOr(claims jwt.MapClaims, name, fallback string) (string, error) {
	s, err := stringClaim(claims, name)
	if err != nil {
		return "", err
	}
	if s == "" {
		return fallback, nil
	}
	return s, nil
}

func stringSliceClaim(claims jwt.MapClaims, name string) ([]string, error) {
	raw, ok := claims[name]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: claim %s is not an array, got type: %T", ErrMalformedToken, name, raw)
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: invalid %s entry at index %d", ErrMalformedToken, name, i)
		}
		out[i] = s
	}
	return out, nil
}
