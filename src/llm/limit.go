package llm

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"golang.org/x/time/rate"
)

// RateLimited spaces requests to the wrapped generator.
type RateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

// NewRateLimited allows perSecond requests with the given burst. A
// non-positive rate disables limiting.
func NewRateLimited(next Generator, perSecond float64, burst int) *RateLimited {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Complete waits for a token, then delegates. A cancelled wait is reported
// as a failed completion.
func (r *RateLimited) Complete(ctx context.Context, prompt string) Completion {
	if err := r.limiter.Wait(ctx); err != nil {
		return failed("", errors.Wrap(err, "rate limit wait"), 0)
	}
	return r.next.Complete(ctx, prompt)
}

// Limit reports the configured requests per second; +Inf when unlimited.
func (r *RateLimited) Limit() float64 {
	if r.limiter.Limit() == rate.Inf {
		return math.Inf(1)
	}
	return float64(r.limiter.Limit())
}
