package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"review_proxy/internal/domain"
)

// ReviewService obtains a fresh API handle for each call and relays the result.
// Field validation belongs to the HTTP layer; this layer owns the timeout and
// the auth-invalidation policy.
type ReviewService struct {
	creds   domain.CredentialProvider
	timeout time.Duration
}

func NewReviewService(p domain.CredentialProvider, timeout time.Duration) *ReviewService {
	return &ReviewService{creds: p, timeout: timeout}
}

func (s *ReviewService) List(ctx context.Context, q domain.ReviewQuery) (json.RawMessage, error) {
	return s.call(ctx, func(ctx context.Context, api domain.ReviewsAPI) (json.RawMessage, error) {
		return api.List(ctx, q)
	})
}

func (s *ReviewService) Get(ctx context.Context, packageName, reviewID string) (json.RawMessage, error) {
	return s.call(ctx, func(ctx context.Context, api domain.ReviewsAPI) (json.RawMessage, error) {
		return api.Get(ctx, packageName, reviewID)
	})
}

func (s *ReviewService) Reply(ctx context.Context, p domain.ReplyPayload) (json.RawMessage, error) {
	return s.call(ctx, func(ctx context.Context, api domain.ReviewsAPI) (json.RawMessage, error) {
		return api.Reply(ctx, p)
	})
}

func (s *ReviewService) call(ctx context.Context, fn func(context.Context, domain.ReviewsAPI) (json.RawMessage, error)) (json.RawMessage, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	api, err := s.creds.ReviewsService(ctx)
	if err != nil {
		return nil, classify(ctx, err, func() error {
			return domain.CredentialUnavailable("acquiring review API handle", err)
		})
	}
	out, err := fn(ctx, api)
	if err != nil {
		// A rejected token must not be served again from cache.
		if errors.Is(err, domain.ErrAuthenticationFailed) {
			if ierr := s.creds.Invalidate(context.WithoutCancel(ctx)); ierr != nil {
				log.Warn().Err(ierr).Msg("token invalidation failed")
			}
		}
		return nil, classify(ctx, err, func() error {
			return &domain.Error{Kind: domain.KindUpstreamError, Msg: "calling review API", Err: err}
		})
	}
	return out, nil
}

// classify keeps domain errors as they are; anything untyped becomes
// UpstreamUnavailable on timeout and whatever fallback builds otherwise.
func classify(ctx context.Context, err error, fallback func() error) error {
	if domain.KindOf(err) != "" {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
		return domain.UpstreamUnavailable("review API deadline exceeded", err)
	}
	return fallback()
}
