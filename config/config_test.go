package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amazobank.com/crm/config/providers"
)

func useEnvConfig(t *testing.T) {
	t.Helper()
	cm, err := NewConfigManagerWith(providers.ProviderConfig{ProviderType: providers.ProviderTypeEnvFile})
	require.NoError(t, err)
	prev := GetGlobalConfig()
	SetGlobalConfig(cm)
	t.Cleanup(func() { SetGlobalConfig(prev) })
}

func TestGetConfig(t *testing.T) {
	useEnvConfig(t)
	t.Setenv("CRM_TEST_KEY", "value")

	assert.Equal(t, "value", GetConfig("CRM_TEST_KEY"))
	assert.Equal(t, "value", GetConfigWithDefault("CRM_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetConfigWithDefault("CRM_TEST_MISSING", "fallback"))
	assert.Equal(t, "", GetConfig("CRM_TEST_MISSING"))
}

func TestGetConfigBeforeInit(t *testing.T) {
	prev := GetGlobalConfig()
	SetGlobalConfig(nil)
	t.Cleanup(func() { SetGlobalConfig(prev) })

	assert.False(t, IsGlobalConfigInitialized())
	assert.Equal(t, "", GetConfig("ANY"))
	assert.Equal(t, "d", GetConfigWithDefault("ANY", "d"))
}

func TestTypedGetters(t *testing.T) {
	useEnvConfig(t)
	t.Setenv("CRM_TEST_TTL", "45s")
	t.Setenv("CRM_TEST_SIZE", "250")
	t.Setenv("CRM_TEST_FLAG", "true")

	d, err := GetDuration("CRM_TEST_TTL", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)

	d, err = GetDuration("CRM_TEST_TTL_MISSING", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)

	n, err := GetInt("CRM_TEST_SIZE", 1)
	require.NoError(t, err)
	assert.Equal(t, 250, n)

	b, err := GetBool("CRM_TEST_FLAG", false)
	require.NoError(t, err)
	assert.True(t, b)
}

func TestTypedGettersRejectGarbage(t *testing.T) {
	useEnvConfig(t)
	t.Setenv("CRM_TEST_TTL", "soon")
	t.Setenv("CRM_TEST_NEG", "-5s")
	t.Setenv("CRM_TEST_SIZE", "lots")
	t.Setenv("CRM_TEST_FLAG", "maybe")

	_, err := GetDuration("CRM_TEST_TTL", time.Second)
	assert.Error(t, err)
	_, err = GetDuration("CRM_TEST_NEG", time.Second)
	assert.Error(t, err)
	_, err = GetInt("CRM_TEST_SIZE", 1)
	assert.Error(t, err)
	_, err = GetBool("CRM_TEST_FLAG", false)
	assert.Error(t, err)
}

func TestNewConfigManagerDefaultsToEnv(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")
	cm, err := NewConfigManager()
	require.NoError(t, err)
	assert.Equal(t, "env-file", cm.GetConfigSource())
	assert.False(t, cm.IsKeyVaultEnabled())
}

func TestNewConfigManagerRejectsBadSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "azure-keyvault")
	t.Setenv("CONFIG_SOURCE_CONFIG", `{"vault_url":"http://plain"}`)
	_, err := NewConfigManager()
	assert.Error(t, err)

	t.Setenv("CONFIG_SOURCE_CONFIG", `{not json`)
	_, err = NewConfigManager()
	assert.Error(t, err)

	t.Setenv("CONFIG_SOURCE", "consul")
	t.Setenv("CONFIG_SOURCE_CONFIG", "")
	_, err = NewConfigManager()
	assert.Error(t, err)
}

type staticProvider map[string]string

func (p staticProvider) Get(_ context.Context, key string) (string, error) {
	if v, ok := p[key]; ok {
		return v, nil
	}
	return "", providers.ErrNotFound
}

func TestManagerFallsBackToEnvironment(t *testing.T) {
	t.Setenv("CRM_FALLBACK", "from-env")
	fallback, err := providers.NewEnvFileProvider(providers.ProviderConfig{})
	require.NoError(t, err)

	cm := &ConfigManager{
		configSource:     providers.ProviderTypeAzureKeyVault,
		provider:         staticProvider{"CRM_PRIMARY": "from-vault"},
		fallbackProvider: fallback,
	}
	assert.Equal(t, "from-vault", cm.Get("CRM_PRIMARY"))
	assert.Equal(t, "from-env", cm.Get("CRM_FALLBACK"))
	assert.Equal(t, "d", cm.GetWithDefault("CRM_NOWHERE", "d"))
}
