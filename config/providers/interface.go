package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// ErrNotFound is returned when a provider has no value for a key.
var ErrNotFound = errors.New("config key not found")

// ProviderType names a configuration source
type ProviderType string

const (
	ProviderTypeAzureKeyVault ProviderType = "azure-keyvault"
	ProviderTypeEnvFile       ProviderType = "env-file"
)

// ConfigProvider defines the interface for any configuration source
type ConfigProvider interface {
	// Get retrieves a configuration value by key
	Get(ctx context.Context, key string) (string, error)
}

// ProviderConfig holds configuration for a specific provider
type ProviderConfig struct {
	ProviderType ProviderType           `json:"provider_type"`
	Config       map[string]interface{} `json:"config"`
}

// ProviderFactory creates configuration providers
type ProviderFactory struct{}

// NewProvider creates a provider for config.ProviderType
func (pf *ProviderFactory) NewProvider(config ProviderConfig) (ConfigProvider, error) {
	switch config.ProviderType {
	case ProviderTypeAzureKeyVault:
		return NewAzureKeyVaultProvider(config)
	case ProviderTypeEnvFile:
		return NewEnvFileProvider(config)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.ProviderType)
	}
}

// ValidateProviderConfig checks provider settings before any client is built
func (pf *ProviderFactory) ValidateProviderConfig(config ProviderConfig) error {
	switch config.ProviderType {
	case ProviderTypeAzureKeyVault:
		raw, _ := config.Config["vault_url"].(string)
		if raw == "" {
			return fmt.Errorf("vault_url is required for %s", config.ProviderType)
		}
		u, err := url.Parse(raw)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return fmt.Errorf("vault_url must be an https URL, got %q", raw)
		}
		return nil
	case ProviderTypeEnvFile:
		return nil
	default:
		return fmt.Errorf("unsupported provider type: %s", config.ProviderType)
	}
}
