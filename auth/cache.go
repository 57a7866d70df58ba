package auth

import (
	"context"
	"errors"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedUserValidator wraps a UserValidator with a bounded, expiring cache of
// active/inactive results.
type CachedUserValidator struct {
	validator UserValidator
	cache     *expirable.LRU[string, bool]
}

// NewCachedUserValidator creates a cached user validator
func NewCachedUserValidator(validator UserValidator, config *CacheConfig) *CachedUserValidator {
	if config == nil {
		config = DefaultCacheConfig()
	}
	return &CachedUserValidator{
		validator: validator,
		cache:     expirable.NewLRU[string, bool](config.MaxCacheSize, nil, config.UserStatusTTL),
	}
}

// ValidateUserActive validates with caching. Only definite answers are cached;
// store failures pass through and are retried on the next request.
func (v *CachedUserValidator) ValidateUserActive(ctx context.Context, userID string) error {
	if active, found := v.cache.Get(userID); found {
		if !active {
			return ErrUserInactive
		}
		return nil
	}

	err := v.validator.ValidateUserActive(ctx, userID)
	switch {
	case err == nil:
		v.cache.Add(userID, true)
	case errors.Is(err, ErrUserInactive):
		v.cache.Add(userID, false)
	}
	return err
}

// Invalidate removes a user from the cache for immediate revocation
func (v *CachedUserValidator) Invalidate(userID string) {
	v.cache.Remove(userID)
}

// Len returns the number of cached entries
func (v *CachedUserValidator) Len() int {
	return v.cache.Len()
}
