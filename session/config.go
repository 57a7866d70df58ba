package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"amazobank.com/crm/config"
)

// Storage backends selectable with SESSION_BACKEND.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

const redisKeyPrefix = "crm:session:"

// BackendConfig selects and configures session storage.
type BackendConfig struct {
	Backend  string
	File     string
	RedisURL string
	TTL      time.Duration
}

// LoadBackendConfig reads SESSION_BACKEND, SESSION_FILE, REDIS_URL and
// SESSION_TTL.
func LoadBackendConfig() (*BackendConfig, error) {
	ttl, err := config.GetDuration("SESSION_TTL", 0)
	if err != nil {
		return nil, err
	}
	cfg := &BackendConfig{
		Backend:  strings.ToLower(config.GetConfigWithDefault("SESSION_BACKEND", BackendFile)),
		File:     config.GetConfig("SESSION_FILE"),
		RedisURL: config.GetConfig("REDIS_URL"),
		TTL:      ttl,
	}
	if cfg.Backend == BackendFile && cfg.File == "" {
		if cfg.File, err = DefaultSessionFile(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadOptions reads the OIDC bundle coordinates from COGNITO_AUTHORITY and
// COGNITO_CLIENT_ID.
func LoadOptions() Options {
	return Options{
		Authority: config.GetConfig("COGNITO_AUTHORITY"),
		ClientID:  config.GetConfig("COGNITO_CLIENT_ID"),
	}
}

// OpenStorage builds the configured backend. The returned close function
// releases any connection it holds.
func OpenStorage(ctx context.Context, cfg *BackendConfig) (Storage, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStorage(), noop, nil
	case BackendFile, "":
		fs, err := NewFileStorage(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, nil, fmt.Errorf("REDIS_URL is required for the redis session backend")
		}
		client, err := OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStorage(client, redisKeyPrefix, cfg.TTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
