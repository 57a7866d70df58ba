package auth

import (
	"fmt"

	"amazobank.com/crm/config"
)

// VerifierConfig holds token verification settings
type VerifierConfig struct {
	HMACSecret      []byte // HS256/384/512
	RSAPublicKeyPEM string // RS256/384/512, e.g. the user pool signing key
	Issuer          string
	Audience        string
	GroupsClaim     string
}

// LoadVerifierConfig reads verification settings from the config system
func LoadVerifierConfig() (*VerifierConfig, error) {
	cfg := &VerifierConfig{
		HMACSecret:      []byte(config.GetConfig("JWT_HMAC_SECRET")),
		RSAPublicKeyPEM: config.GetConfig("JWT_RSA_PUBLIC_KEY"),
		Issuer:          config.GetConfig("JWT_ISSUER"),
		Audience:        config.GetConfig("JWT_AUDIENCE"),
		GroupsClaim:     config.GetConfigWithDefault("GROUPS_CLAIM", DefaultGroupsClaim),
	}
	if len(cfg.HMACSecret) == 0 && cfg.RSAPublicKeyPEM == "" {
		return nil, fmt.Errorf("JWT_HMAC_SECRET or JWT_RSA_PUBLIC_KEY configuration is required")
	}
	return cfg, nil
}

// LoadCacheConfig reads user status cache settings, falling back to DefaultCacheConfig
func LoadCacheConfig() (*CacheConfig, error) {
	defaults := DefaultCacheConfig()

	ttl, err := config.GetDuration("USER_STATUS_CACHE_TTL", defaults.UserStatusTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid USER_STATUS_CACHE_TTL: %w", err)
	}
	size, err := config.GetInt("USER_STATUS_CACHE_SIZE", defaults.MaxCacheSize)
	if err != nil {
		return nil, fmt.Errorf("invalid USER_STATUS_CACHE_SIZE: %w", err)
	}
	return &CacheConfig{UserStatusTTL: ttl, MaxCacheSize: size}, nil
}
