package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gofiber/fiber/v2/log"

	"amazobank.com/crm/config/providers"
)

// ConfigManager reads configuration from a primary provider and falls back to
// the process environment.
type ConfigManager struct {
	configSource     providers.ProviderType
	provider         providers.ConfigProvider
	fallbackProvider providers.ConfigProvider
}

// NewConfigManager builds a manager from CONFIG_SOURCE and
// CONFIG_SOURCE_CONFIG. Both are read straight from the environment since the
// config system is not available yet.
func NewConfigManager() (*ConfigManager, error) {
	source := providers.ProviderType(os.Getenv("CONFIG_SOURCE"))
	if source == "" {
		source = providers.ProviderTypeEnvFile
	}

	sourceConfig := map[string]interface{}{}
	if source != providers.ProviderTypeEnvFile {
		if raw := os.Getenv("CONFIG_SOURCE_CONFIG"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &sourceConfig); err != nil {
				return nil, fmt.Errorf("failed to parse CONFIG_SOURCE_CONFIG: %w", err)
			}
		}
	}

	return NewConfigManagerWith(providers.ProviderConfig{ProviderType: source, Config: sourceConfig})
}

// NewConfigManagerWith builds a manager for an explicit provider config.
func NewConfigManagerWith(cfg providers.ProviderConfig) (*ConfigManager, error) {
	factory := &providers.ProviderFactory{}
	if err := factory.ValidateProviderConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid provider configuration: %w", err)
	}

	provider, err := factory.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create primary provider: %w", err)
	}

	fallback, err := factory.NewProvider(providers.ProviderConfig{ProviderType: providers.ProviderTypeEnvFile})
	if err != nil {
		return nil, fmt.Errorf("failed to create fallback provider: %w", err)
	}

	log.Infow("configuration manager initialized", "source", cfg.ProviderType)
	return &ConfigManager{
		configSource:     cfg.ProviderType,
		provider:         provider,
		fallbackProvider: fallback,
	}, nil
}

// Get returns the value for key, or "" when no provider has it.
func (cm *ConfigManager) Get(key string) string {
	return cm.GetWithDefault(key, "")
}

// GetWithDefault returns the value for key, trying the primary provider and
// then the environment.
func (cm *ConfigManager) GetWithDefault(key, defaultValue string) string {
	ctx := context.Background()

	value, err := cm.provider.Get(ctx, key)
	if err == nil && value != "" {
		return value
	}
	if cm.configSource == providers.ProviderTypeEnvFile {
		return defaultValue
	}

	log.Debugw("primary config provider miss, using environment", "key", key, "source", cm.configSource, "error", err)
	value, err = cm.fallbackProvider.Get(ctx, key)
	if err != nil || value == "" {
		return defaultValue
	}
	return value
}

// IsKeyVaultEnabled returns true if Azure Key Vault is the primary provider
func (cm *ConfigManager) IsKeyVaultEnabled() bool {
	return cm.configSource == providers.ProviderTypeAzureKeyVault
}

// GetConfigSource returns the current configuration source
func (cm *ConfigManager) GetConfigSource() string {
	return string(cm.configSource)
}
