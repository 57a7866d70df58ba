package auth

import (
	"context"
	"time"
)

// UserValidator checks that an authenticated user has not been disabled
type UserValidator interface {
	// ValidateUserActive returns ErrUserInactive for disabled users
	ValidateUserActive(ctx context.Context, userID string) error
}

// CacheConfig defines caching behavior for user status lookups
type CacheConfig struct {
	UserStatusTTL time.Duration
	MaxCacheSize  int
}

// DefaultCacheConfig returns sensible cache defaults
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		UserStatusTTL: 30 * time.Second,
		MaxCacheSize:  10000,
	}
}

// NoOpUserValidator accepts every user
type NoOpUserValidator struct{}

func (v *NoOpUserValidator) ValidateUserActive(ctx context.Context, userID string) error {
	return nil
}
