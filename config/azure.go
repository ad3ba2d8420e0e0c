package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// KeyVaultClient reads service secrets from Azure Key Vault.
type KeyVaultClient struct {
	client *azsecrets.Client
}

var _ SecretGetter = (*KeyVaultClient)(nil)

// NewKeyVaultClient creates a Key Vault client using DefaultAzureCredential.
// vault is either a vault name or a full vault URL.
func NewKeyVaultClient(vault string) (*KeyVaultClient, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return NewKeyVaultClientWithCredential(vault, cred)
}

// NewKeyVaultClientWithCredential creates a Key Vault client with an explicit credential.
func NewKeyVaultClientWithCredential(vault string, cred azcore.TokenCredential) (*KeyVaultClient, error) {
	client, err := azsecrets.NewClient(VaultURL(vault), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
	}
	return &KeyVaultClient{client: client}, nil
}

// VaultURL expands a vault name into its URL. URLs are returned unchanged.
func VaultURL(vault string) string {
	if strings.HasPrefix(vault, "https://") {
		return vault
	}
	return fmt.Sprintf("https://%s.vault.azure.net/", vault)
}

// GetSecret retrieves the latest version of a secret.
func (kv *KeyVaultClient) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := kv.client.GetSecret(ctx, name, "", nil)
	if err != nil {
		return "", fmt.Errorf("failed to get secret %s: %w", name, err)
	}

	if resp.Value == nil {
		return "", fmt.Errorf("secret %s has no value", name)
	}

	return *resp.Value, nil
}
