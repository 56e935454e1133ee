package playstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"review_proxy/internal/adapters/observability"
	"review_proxy/internal/domain"
)

const maxBody = 16 << 20

// Client talks to the androidpublisher v3 reviews resource with a bearer token.
// Responses are passed back untouched.
type Client struct {
	base  string
	hc    *http.Client
	token string
	rl    *rate.Limiter
}

// New builds a client for one request. hc and rl are shared across clients;
// rl may be nil to disable outbound throttling.
func New(base, token string, hc *http.Client, rl *rate.Limiter) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{base: strings.TrimRight(base, "/"), hc: hc, token: token, rl: rl}
}

func (c *Client) List(ctx context.Context, q domain.ReviewQuery) (json.RawMessage, error) {
	v := url.Values{}
	if q.Token != "" {
		v.Set("token", q.Token)
	}
	if q.MaxResults != "" {
		v.Set("maxResults", q.MaxResults)
	}
	if q.StartIndex != "" {
		v.Set("startIndex", q.StartIndex)
	}
	if q.TranslationLanguage != "" {
		v.Set("translationLanguage", q.TranslationLanguage)
	}
	u := c.reviewsURL(q.PackageName)
	if len(v) > 0 {
		u += "?" + v.Encode()
	}
	return c.do(ctx, "reviews.list", http.MethodGet, u, nil)
}

func (c *Client) Get(ctx context.Context, packageName, reviewID string) (json.RawMessage, error) {
	u := c.reviewsURL(packageName) + "/" + url.PathEscape(reviewID)
	return c.do(ctx, "reviews.get", http.MethodGet, u, nil)
}

func (c *Client) Reply(ctx context.Context, p domain.ReplyPayload) (json.RawMessage, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	u := c.reviewsURL(p.PackageName) + "/" + url.PathEscape(p.ReviewID) + ":reply"
	return c.do(ctx, "reviews.reply", http.MethodPost, u, body)
}

func (c *Client) reviewsURL(packageName string) string {
	return fmt.Sprintf("%s/applications/%s/reviews", c.base, url.PathEscape(packageName))
}

// do performs a single request (no retries) and maps the outcome onto domain errors.
func (c *Client) do(ctx context.Context, endpoint, method, u string, body []byte) (json.RawMessage, error) {
	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return nil, domain.UpstreamUnavailable("rate limiter wait aborted", err)
		}
	}

	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "review-proxy/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("playstore", endpoint, 0, time.Since(start))
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return nil, domain.UpstreamUnavailable("review API timed out", err)
		}
		return nil, domain.UpstreamUnavailable("review API unreachable", err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("playstore", endpoint, resp.StatusCode, time.Since(start))

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, domain.UpstreamUnavailable("reading review API response", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if len(bytes.TrimSpace(b)) == 0 {
			return json.RawMessage(`{}`), nil
		}
		if !json.Valid(b) {
			return nil, domain.UpstreamError(http.StatusBadGateway, nil, "review API returned invalid JSON")
		}
		return json.RawMessage(b), nil

	case resp.StatusCode == http.StatusUnauthorized:
		return nil, domain.AuthenticationFailed("review API rejected the access token", fmt.Errorf("status %d: %s", resp.StatusCode, snippet(b)))

	default:
		var payload json.RawMessage
		if json.Valid(b) {
			payload = b
		}
		return nil, domain.UpstreamError(resp.StatusCode, payload, fmt.Sprintf("review API returned %d", resp.StatusCode))
	}
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 512 {
		s = s[:512]
	}
	return s
}
