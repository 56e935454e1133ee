package domain

import (
	"context"
	"encoding/json"
	"time"
)

// SecretSource yields the service-account material used to authenticate
// against the review API. Implementations read it at call time.
type SecretSource interface {
	Resolve(ctx context.Context) (Credentials, error)
}

// CredentialProvider hands out an authenticated ReviewsAPI per request.
type CredentialProvider interface {
	ReviewsService(ctx context.Context) (ReviewsAPI, error)
	// Invalidate drops any derived auth state so the next call re-resolves.
	Invalidate(ctx context.Context) error
}

type ReviewsAPI interface {
	List(ctx context.Context, q ReviewQuery) (json.RawMessage, error)
	Get(ctx context.Context, packageName, reviewID string) (json.RawMessage, error)
	Reply(ctx context.Context, p ReplyPayload) (json.RawMessage, error)
}

type TokenCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
