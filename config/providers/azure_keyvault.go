package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/gofiber/fiber/v2/log"
)

const defaultSecretCacheTTL = 5 * time.Minute

// secretGetter is the slice of *azsecrets.Client the provider needs.
type secretGetter interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
}

type cachedSecret struct {
	value   string
	expires time.Time
}

// AzureKeyVaultProvider reads secrets such as JWT_HMAC_SECRET or
// DATABASE_URL from Azure Key Vault, caching each one for a short period.
type AzureKeyVaultProvider struct {
	client   secretGetter
	vaultURL string
	ttl      time.Duration

	mu    sync.RWMutex
	cache map[string]cachedSecret
}

// SecretName maps an environment style key to a Key Vault secret name, which
// may not contain underscores: JWT_HMAC_SECRET -> JWT-HMAC-SECRET.
func SecretName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// NewAzureKeyVaultProvider authenticates with the default Azure credential
// chain (managed identity in production).
func NewAzureKeyVaultProvider(config ProviderConfig) (ConfigProvider, error) {
	vaultURL, _ := config.Config["vault_url"].(string)
	if vaultURL == "" {
		return nil, fmt.Errorf("vault_url is required in config for Azure Key Vault provider")
	}

	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	client, err := azsecrets.NewClient(vaultURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}

	ttl := defaultSecretCacheTTL
	if raw, ok := config.Config["cache_ttl"].(string); ok && raw != "" {
		if ttl, err = time.ParseDuration(raw); err != nil {
			return nil, fmt.Errorf("invalid cache_ttl: %w", err)
		}
	}

	log.Infow("azure key vault provider initialized", "vault", vaultURL)
	return newAzureKeyVaultProvider(client, vaultURL, ttl), nil
}

func newAzureKeyVaultProvider(client secretGetter, vaultURL string, ttl time.Duration) *AzureKeyVaultProvider {
	return &AzureKeyVaultProvider{
		client:   client,
		vaultURL: vaultURL,
		ttl:      ttl,
		cache:    make(map[string]cachedSecret),
	}
}

// Get retrieves a secret, serving from cache until it expires.
func (akp *AzureKeyVaultProvider) Get(ctx context.Context, key string) (string, error) {
	akp.mu.RLock()
	entry, ok := akp.cache[key]
	akp.mu.RUnlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.value, nil
	}

	name := SecretName(key)
	value, err := akp.fetch(ctx, name)
	if err != nil {
		return "", err
	}

	akp.mu.Lock()
	akp.cache[key] = cachedSecret{value: value, expires: time.Now().Add(akp.ttl)}
	akp.mu.Unlock()
	return value, nil
}

func (akp *AzureKeyVaultProvider) fetch(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := akp.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: secret %s", ErrNotFound, name)
		}
		log.Errorw("key vault lookup failed", "secret", name, "error", err)
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}
	if resp.Value == nil {
		return "", fmt.Errorf("%w: secret %s has no value", ErrNotFound, name)
	}
	return *resp.Value, nil
}
