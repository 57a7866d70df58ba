// auth/token.go
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService verifies bearer tokens presented to the API and resolves them
// into principals.
type TokenService struct {
	parser   *jwt.Parser
	keyFunc  jwt.Keyfunc
	resolver *Resolver
}

// NewTokenService creates a verifier. An RSA public key takes precedence over
// an HMAC secret when both are configured.
func NewTokenService(cfg VerifierConfig) (*TokenService, error) {
	var (
		key     interface{}
		methods []string
	)
	switch {
	case cfg.RSAPublicKeyPEM != "":
		pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.RSAPublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("invalid RSA public key: %w", err)
		}
		key = pub
		methods = []string{jwt.SigningMethodRS256.Alg(), jwt.SigningMethodRS384.Alg(), jwt.SigningMethodRS512.Alg()}
	case len(cfg.HMACSecret) > 0:
		key = cfg.HMACSecret
		methods = []string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}
	default:
		return nil, fmt.Errorf("token verification requires an HMAC secret or an RSA public key")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &TokenService{
		parser: jwt.NewParser(opts...),
		keyFunc: func(*jwt.Token) (interface{}, error) {
			return key, nil
		},
		resolver: NewResolver(WithGroupsClaim(cfg.GroupsClaim)),
	}, nil
}

// Verify checks signature, expiry, and the optional issuer and audience, then
// normalizes the claims.
func (s *TokenService) Verify(tokenString string) (*Principal, error) {
	token, err := s.parser.Parse(tokenString, s.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return s.resolver.principalFromClaims(claims)
}
