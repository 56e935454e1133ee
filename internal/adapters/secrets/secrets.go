// Package secrets holds the SecretSource variants the proxy can read
// service-account material from.
package secrets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"review_proxy/internal/domain"
)

// Options selects and configures a SecretSource.
type Options struct {
	Kind            string // file|ssm|vault
	CredentialsFile string
	Account         string
	SSMAccountParam string
	SSMKeyParam     string
	VaultMount      string
	VaultPath       string
}

// New builds the SecretSource named by o.Kind with the SDK clients' default configuration.
func New(ctx context.Context, o Options) (domain.SecretSource, error) {
	switch o.Kind {
	case "", "file":
		if o.CredentialsFile == "" {
			return nil, errors.New("file secret source needs a credentials file path")
		}
		return NewFile(o.CredentialsFile, o.Account), nil
	case "ssm":
		return NewSSMFromEnv(ctx, o.SSMAccountParam, o.SSMKeyParam)
	case "vault":
		return NewVaultFromEnv(o.VaultMount, o.VaultPath)
	default:
		return nil, fmt.Errorf("unknown secret source %q", o.Kind)
	}
}

// decodeKey accepts either a PEM document or base64 of any key blob.
// PEM values are returned as stored.
func decodeKey(v string) ([]byte, error) {
	t := strings.TrimSpace(v)
	if strings.HasPrefix(t, "-----BEGIN") {
		return []byte(v), nil
	}
	b, err := base64.StdEncoding.DecodeString(t)
	if err != nil {
		return nil, fmt.Errorf("key is neither PEM nor base64: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, errors.New("key is empty")
	}
	return b, nil
}

// unavailable classifies a store read failure; an expired context is an upstream timeout.
func unavailable(ctx context.Context, msg string, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return domain.UpstreamUnavailable(msg, err)
	}
	return domain.CredentialUnavailable(msg, err)
}
