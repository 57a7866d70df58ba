// Package session keeps the signed-in identity between runs and gates
// portal views on it.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"amazobank.com/crm/auth"
)

// Storage keys. idToken and accessToken are legacy aliases kept for older
// sessions; currentUser is only ever cleared.
const (
	KeyToken       = "token"
	KeyIDToken     = "idToken"
	KeyAccessToken = "accessToken"
	KeyUser        = "user"
	KeyCurrentUser = "currentUser"
)

// principalRecord is the stored principal, bound to the token it was
// resolved from.
type principalRecord struct {
	auth.Principal
	TokenDigest string `json:"tokenDigest"`
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Options configures a Store.
type Options struct {
	// Authority and ClientID name the OIDC session bundle
	// "oidc.user:<authority>:<clientId>" written by the sign-in flow.
	Authority string
	ClientID  string
	// SessionCache is consulted for the bundle before durable storage.
	SessionCache Storage
	Resolver     *auth.Resolver
}

// Store is the token store: the canonical bearer token, its legacy aliases
// and the normalized principal.
type Store struct {
	storage  Storage
	cache    Storage
	bundle   string
	resolver *auth.Resolver
}

// NewStore creates a store over storage.
func NewStore(storage Storage, opts Options) *Store {
	resolver := opts.Resolver
	if resolver == nil {
		resolver = auth.NewResolver()
	}
	s := &Store{
		storage:  storage,
		cache:    opts.SessionCache,
		resolver: resolver,
	}
	if opts.Authority != "" && opts.ClientID != "" {
		s.bundle = fmt.Sprintf("oidc.user:%s:%s", opts.Authority, opts.ClientID)
	}
	return s
}

// BundleKey returns the OIDC session bundle key, or "" when not configured.
func (s *Store) BundleKey() string {
	return s.bundle
}

// GetToken returns the best available token. The canonical token wins; after
// that the legacy aliases and then the OIDC bundle are tried, and whatever is
// recovered is written back as canonical. Read failures count as absence.
func (s *Store) GetToken(ctx context.Context) (string, bool) {
	if token := s.read(ctx, s.storage, KeyToken); token != "" {
		return token, true
	}

	token := s.read(ctx, s.storage, KeyIDToken)
	if token == "" {
		token = s.read(ctx, s.storage, KeyAccessToken)
	}
	if token == "" {
		token = s.recoverBundle(ctx)
	}
	if token == "" {
		return "", false
	}

	if err := s.storage.Set(ctx, KeyToken, token); err != nil {
		log.Warnw("failed to persist recovered token", "error", err)
	}
	if err := s.storage.Delete(ctx, KeyUser); err != nil {
		log.Warnw("failed to drop principal of previous token", "error", err)
	}
	return token, true
}

func (s *Store) recoverBundle(ctx context.Context) string {
	if s.bundle == "" {
		return ""
	}
	for _, src := range []Storage{s.cache, s.storage} {
		if src == nil {
			continue
		}
		raw := s.read(ctx, src, s.bundle)
		if raw == "" {
			continue
		}
		var b auth.TokenBundle
		if err := json.Unmarshal([]byte(raw), &b); err != nil {
			log.Warnw("ignoring unreadable oidc session bundle", "key", s.bundle, "error", err)
			continue
		}
		if token := b.Preferred(); token != "" {
			return token
		}
	}
	return ""
}

func (s *Store) read(ctx context.Context, src Storage, key string) string {
	v, err := src.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warnw("session read failed", "key", key, "error", err)
		}
		return ""
	}
	return v
}

// SetToken replaces the canonical token. The stored principal is dropped and
// resolved again from the new token on next use.
func (s *Store) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return auth.ErrMissingToken
	}
	if err := s.storage.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := s.storage.Delete(ctx, KeyUser); err != nil {
		return fmt.Errorf("failed to drop stored principal: %w", err)
	}
	return nil
}

// ClearToken removes every token variant, including the OIDC bundle, so a
// later GetToken cannot resurrect the session. The stored principal goes
// with them.
func (s *Store) ClearToken(ctx context.Context) error {
	return s.clear(ctx, KeyToken, KeyIDToken, KeyAccessToken, KeyUser)
}

func (s *Store) writePrincipal(ctx context.Context, token string, p *auth.Principal) error {
	record, err := json.Marshal(principalRecord{Principal: *p, TokenDigest: tokenDigest(token)})
	if err != nil {
		return fmt.Errorf("failed to encode principal: %w", err)
	}
	return s.storage.Set(ctx, KeyUser, string(record))
}

func (s *Store) clear(ctx context.Context, keys ...string) error {
	if s.bundle != "" {
		keys = append(keys, s.bundle)
		if s.cache != nil {
			if err := s.cache.Delete(ctx, s.bundle); err != nil {
				return fmt.Errorf("failed to clear session cache: %w", err)
			}
		}
	}
	if err := s.storage.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// SignIn normalizes the identity in bundle and persists the tokens and the
// principal. Nothing is written when the token cannot be resolved.
func (s *Store) SignIn(ctx context.Context, bundle auth.TokenBundle) (*auth.Principal, error) {
	token := bundle.Preferred()
	if token == "" {
		return nil, auth.ErrMissingToken
	}
	principal, err := s.resolver.Resolve(token)
	if err != nil {
		return nil, err
	}
	record, err := json.Marshal(principalRecord{Principal: *principal, TokenDigest: tokenDigest(token)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode principal: %w", err)
	}

	writes := [][2]string{
		{KeyToken, token},
		{KeyUser, string(record)},
	}
	if bundle.IDToken != "" {
		writes = append(writes, [2]string{KeyIDToken, bundle.IDToken})
	}
	if bundle.AccessToken != "" {
		writes = append(writes, [2]string{KeyAccessToken, bundle.AccessToken})
	}
	for _, w := range writes {
		if err := s.storage.Set(ctx, w[0], w[1]); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", w[0], err)
		}
	}

	log.Infow("signed in", "user", principal.ID, "role", principal.Role)
	return principal, nil
}

// SignOut clears tokens, aliases and the stored principal.
func (s *Store) SignOut(ctx context.Context) error {
	if err := s.clear(ctx, KeyToken, KeyIDToken, KeyAccessToken, KeyUser, KeyCurrentUser); err != nil {
		return err
	}
	log.Infow("signed out")
	return nil
}

// Principal returns the signed-in principal, or ErrNoSession. The stored
// record is used only when it was resolved from the current token;
// otherwise the token is resolved again and the record rewritten.
func (s *Store) Principal(ctx context.Context) (*auth.Principal, error) {
	token, ok := s.GetToken(ctx)
	if !ok {
		return nil, auth.ErrNoSession
	}

	if raw := s.read(ctx, s.storage, KeyUser); raw != "" {
		var rec principalRecord
		err := json.Unmarshal([]byte(raw), &rec)
		if err == nil && rec.TokenDigest == tokenDigest(token) && rec.ID != "" && rec.Role.Valid() {
			p := rec.Principal
			return &p, nil
		}
		log.Warnw("discarding stale or unreadable principal record")
		_ = s.storage.Delete(ctx, KeyUser)
	}

	principal, err := s.resolver.Resolve(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrNoSession, err)
	}
	if err := s.writePrincipal(ctx, token, principal); err != nil {
		log.Warnw("failed to persist principal", "error", err)
	}
	return principal, nil
}
