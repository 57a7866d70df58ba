package providers

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvFileProvider reads configuration from the process environment. An
// optional "prefix" entry in the provider config is prepended to every key.
type EnvFileProvider struct {
	prefix string
}

// NewEnvFileProvider creates an environment provider
func NewEnvFileProvider(config ProviderConfig) (ConfigProvider, error) {
	prefix, _ := config.Config["prefix"].(string)
	return &EnvFileProvider{prefix: strings.ToUpper(prefix)}, nil
}

// Get retrieves a configuration value from the environment
func (ep *EnvFileProvider) Get(ctx context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(ep.prefix + key)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: environment variable %s", ErrNotFound, ep.prefix+key)
	}
	return value, nil
}
