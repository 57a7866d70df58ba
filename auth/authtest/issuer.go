// Package authtest mints identity tokens for tests.
package authtest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Secret is the HMAC key tests share with the verifier.
const Secret = "test-secret-key-for-jwt-signing"

// Identity describes the claims of a minted token. Zero values are omitted.
type Identity struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
	Groups     []string
	Issuer     string
	Audience   string
	TTL        time.Duration
}

// Claims builds the claim set for id.
func (id Identity) Claims() jwt.MapClaims {
	now := time.Now()
	ttl := id.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	claims := jwt.MapClaims{
		"jti":       uuid.NewString(),
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
		"token_use": "id",
	}
	set := func(k, v string) {
		if v != "" {
			claims[k] = v
		}
	}
	set("sub", id.Subject)
	set("email", id.Email)
	set("given_name", id.GivenName)
	set("family_name", id.FamilyName)
	set("iss", id.Issuer)
	set("aud", id.Audience)
	if id.Groups != nil {
		claims["cognito:groups"] = id.Groups
	}
	return claims
}

// Sign returns an HS256 token for id signed with secret.
func Sign(id Identity, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, id.Claims())
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// MustSign is Sign with the shared Secret, panicking on failure.
func MustSign(id Identity) string {
	signed, err := Sign(id, Secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// Compact assembles header.payload.signature from an arbitrary payload, for
// tokens the signing path would refuse to build.
func Compact(payload interface{}) string {
	header, _ := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	body, _ := json.Marshal(payload)
	enc := base64.RawURLEncoding
	return enc.EncodeToString(header) + "." + enc.EncodeToString(body) + ".c2lnbmF0dXJl"
}
