package secrets

import (
	"bytes"
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/oauth2/google"

	"review_proxy/internal/adapters/observability"
	"review_proxy/internal/domain"
)

// File reads a local credential file on every Resolve. A Google JSON key file
// carries its own client_email; raw PEM/PKCS#12 files need an explicit account.
type File struct {
	path    string
	account string
}

func NewFile(path, account string) *File { return &File{path: path, account: account} }

func (f *File) Resolve(ctx context.Context) (domain.Credentials, error) {
	start := time.Now()
	b, err := os.ReadFile(f.path)
	if err != nil {
		observability.ObserveExternal("file", "read", 0, time.Since(start))
		return domain.Credentials{}, domain.CredentialUnavailable("reading credentials file", err)
	}
	observability.ObserveExternal("file", "read", 200, time.Since(start))

	if bytes.HasPrefix(bytes.TrimSpace(b), []byte("{")) {
		cfg, err := google.JWTConfigFromJSON(b)
		if err != nil {
			return domain.Credentials{}, domain.CredentialUnavailable("parsing JSON key file", err)
		}
		account := cfg.Email
		if f.account != "" {
			account = f.account
		}
		return domain.Credentials{Account: account, Key: cfg.PrivateKey}, nil
	}

	if f.account == "" {
		return domain.Credentials{}, domain.CredentialUnavailable("raw key file needs PLAYSTORE_ACCOUNT", errors.New("account identifier not configured"))
	}
	return domain.Credentials{Account: f.account, Key: b}, nil
}
