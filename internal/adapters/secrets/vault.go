package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"

	"review_proxy/internal/adapters/observability"
	"review_proxy/internal/domain"
)

// Vault reads a KV v2 secret with "account" and "key" (base64 or PEM) fields.
type Vault struct {
	kv   *vault.KVv2
	path string
}

func NewVault(c *vault.Client, mount, path string) *Vault {
	return &Vault{kv: c.KVv2(mount), path: path}
}

// NewVaultFromEnv relies on VAULT_ADDR / VAULT_TOKEN and friends.
func NewVaultFromEnv(mount, path string) (*Vault, error) {
	c, err := vault.NewClient(vault.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}
	return NewVault(c, mount, path), nil
}

func (v *Vault) Resolve(ctx context.Context) (domain.Credentials, error) {
	start := time.Now()
	s, err := v.kv.Get(ctx, v.path)
	if err != nil {
		observability.ObserveExternal("vault", "kv.get", 0, time.Since(start))
		return domain.Credentials{}, unavailable(ctx, "reading vault secret "+v.path, err)
	}
	observability.ObserveExternal("vault", "kv.get", 200, time.Since(start))

	account, _ := s.Data["account"].(string)
	keyVal, _ := s.Data["key"].(string)
	if account == "" || keyVal == "" {
		return domain.Credentials{}, domain.CredentialUnavailable("vault secret "+v.path, errors.New(`secret needs "account" and "key" fields`))
	}
	key, err := decodeKey(keyVal)
	if err != nil {
		return domain.Credentials{}, domain.CredentialUnavailable("decoding vault key", err)
	}
	return domain.Credentials{Account: account, Key: key}, nil
}
