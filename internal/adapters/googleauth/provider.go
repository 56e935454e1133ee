package googleauth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"review_proxy/internal/adapters/observability"
	"review_proxy/internal/adapters/playstore"
	"review_proxy/internal/domain"
)

const (
	Scope = "https://www.googleapis.com/auth/androidpublisher"

	cacheKey = "review_proxy:token:androidpublisher"
	skew     = time.Minute
)

type Options struct {
	TokenURL     string
	BaseURL      string
	HTTPClient   *http.Client
	RPS          int
	FetchTimeout time.Duration
	Cache        domain.TokenCache // nil: resolve credentials on every request
}

// Provider turns SecretSource material into an authenticated playstore client.
// Only the derived access token is ever cached; the key is dropped after each exchange.
type Provider struct {
	source  domain.SecretSource
	cache   domain.TokenCache
	opts    Options
	limiter *rate.Limiter
	sf      singleflight.Group
}

func New(src domain.SecretSource, o Options) *Provider {
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = 15 * time.Second
	}
	p := &Provider{source: src, cache: o.Cache, opts: o}
	if o.RPS > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(o.RPS), o.RPS)
	}
	return p
}

func (p *Provider) ReviewsService(ctx context.Context) (domain.ReviewsAPI, error) {
	tok, err := p.Token(ctx)
	if err != nil {
		return nil, err
	}
	return playstore.New(p.opts.BaseURL, tok.Value, p.opts.HTTPClient, p.limiter), nil
}

// Invalidate forgets the cached token; the next request resolves credentials again.
func (p *Provider) Invalidate(ctx context.Context) error {
	if p.cache == nil {
		return nil
	}
	return p.cache.Del(ctx, cacheKey)
}

// Token returns a usable access token, from cache when possible.
// Concurrent misses share one credential resolution and exchange.
func (p *Provider) Token(ctx context.Context) (domain.AccessToken, error) {
	if p.cache != nil {
		var t domain.AccessToken
		ok, err := p.cache.Get(ctx, cacheKey, &t)
		if err != nil {
			log.Warn().Err(err).Msg("token cache read failed")
		}
		if ok && t.Value != "" && time.Until(t.Expiry) > skew {
			return t, nil
		}
	}

	ch := p.sf.DoChan(cacheKey, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.opts.FetchTimeout)
		defer cancel()
		return p.fetch(fctx)
	})
	select {
	case <-ctx.Done():
		return domain.AccessToken{}, domain.UpstreamUnavailable("waiting for access token", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.AccessToken{}, res.Err
		}
		return res.Val.(domain.AccessToken), nil
	}
}

func (p *Provider) fetch(ctx context.Context) (domain.AccessToken, error) {
	creds, err := p.source.Resolve(ctx)
	if err != nil {
		return domain.AccessToken{}, err
	}
	key, err := PEMKey(creds.Key)
	if err != nil {
		return domain.AccessToken{}, domain.CredentialUnavailable("parsing service account key", err)
	}

	cfg := &jwt.Config{
		Email:      creds.Account,
		PrivateKey: key,
		Scopes:     []string{Scope},
		TokenURL:   p.opts.TokenURL,
	}
	start := time.Now()
	t, err := cfg.TokenSource(context.WithValue(ctx, oauth2.HTTPClient, p.opts.HTTPClient)).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			observability.ObserveExternal("oauth2", "token", re.Response.StatusCode, time.Since(start))
			if re.Response.StatusCode >= 500 {
				return domain.AccessToken{}, domain.UpstreamUnavailable("token endpoint failed", err)
			}
			return domain.AccessToken{}, domain.AuthenticationFailed("token endpoint rejected the service account", err)
		}
		observability.ObserveExternal("oauth2", "token", 0, time.Since(start))
		return domain.AccessToken{}, domain.UpstreamUnavailable("token endpoint unreachable", err)
	}
	observability.ObserveExternal("oauth2", "token", http.StatusOK, time.Since(start))

	at := domain.AccessToken{Value: t.AccessToken, Type: t.Type(), Expiry: t.Expiry}
	if p.cache != nil && !t.Expiry.IsZero() {
		if ttl := time.Until(t.Expiry) - skew; ttl > 0 {
			if err := p.cache.Set(ctx, cacheKey, at, ttl); err != nil {
				log.Warn().Err(err).Msg("token cache write failed")
			}
		}
	}
	log.Debug().Str("account", creds.Account).Time("expiry", t.Expiry).Msg("access token issued")
	return at, nil
}
