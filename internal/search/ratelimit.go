package search

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/quocvuong92/omni-cli/internal/apperr"
)

// DefaultRate allows one search per second with no burst.
var DefaultRate = rate.Limit(1)

// RateLimited spaces out calls to a provider. Errors from the provider come
// back as transport errors.
type RateLimited struct {
	Client
	limiter *rate.Limiter
}

// NewRateLimited wraps c so it runs at most r searches per second.
func NewRateLimited(c Client, r rate.Limit) *RateLimited {
	return &RateLimited{Client: c, limiter: rate.NewLimiter(r, 1)}
}

// Unwrap returns the limited provider.
func (r *RateLimited) Unwrap() Client { return r.Client }

// Search waits for a token, then searches.
func (r *RateLimited) Search(ctx context.Context, query string) ([]Result, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, apperr.Transport("search", err)
	}
	results, err := r.Client.Search(ctx, query)
	if err != nil {
		return nil, apperr.Transport("search "+r.Name(), err)
	}
	return results, nil
}
