package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	globalConfigManager *ConfigManager
	globalConfigOnce    sync.Once
	globalConfigMutex   sync.RWMutex
)

// InitGlobalConfig initializes the global configuration manager.
// Call once at startup; later calls are no-ops.
func InitGlobalConfig() error {
	var err error
	globalConfigOnce.Do(func() {
		var cm *ConfigManager
		cm, err = NewConfigManager()
		if err == nil {
			SetGlobalConfig(cm)
		}
	})
	return err
}

// GetGlobalConfig returns the global configuration manager instance
func GetGlobalConfig() *ConfigManager {
	globalConfigMutex.RLock()
	defer globalConfigMutex.RUnlock()
	return globalConfigManager
}

// GetConfig returns the value for key, or "" when unset or before
// InitGlobalConfig has run.
func GetConfig(key string) string {
	cm := GetGlobalConfig()
	if cm == nil {
		return ""
	}
	return cm.Get(key)
}

// GetConfigWithDefault is GetConfig with a fallback value
func GetConfigWithDefault(key, defaultValue string) string {
	cm := GetGlobalConfig()
	if cm == nil {
		return defaultValue
	}
	return cm.GetWithDefault(key, defaultValue)
}

// GetDuration parses key as a time.Duration ("30s", "15m").
func GetDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(GetConfig(key))
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config %s: negative duration %s", key, raw)
	}
	return d, nil
}

// GetInt parses key as a base-10 integer.
func GetInt(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(GetConfig(key))
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config %s: %w", key, err)
	}
	return n, nil
}

// GetBool parses key with strconv.ParseBool.
func GetBool(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(GetConfig(key))
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("config %s: %w", key, err)
	}
	return b, nil
}

// SetGlobalConfig replaces the global config (mainly for testing)
func SetGlobalConfig(cm *ConfigManager) {
	globalConfigMutex.Lock()
	defer globalConfigMutex.Unlock()
	globalConfigManager = cm
}

// IsGlobalConfigInitialized checks if the global config has been initialized
func IsGlobalConfigInitialized() bool {
	return GetGlobalConfig() != nil
}
