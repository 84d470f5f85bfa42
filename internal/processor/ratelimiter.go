package processor

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/grievassist/ml-service/internal/logging"
)

const defaultRPS = 50

// RateLimiter throttles batch submissions so a single caller cannot
// monopolize the worker pool.
type RateLimiter struct {
	limiter *rate.Limiter
	logger  logging.Logger
}

// NewRateLimiter creates a limiter allowing rps batches per second with
// the given burst. Non-positive values fall back to defaults.
func NewRateLimiter(rps, burst int, logger logging.Logger) *RateLimiter {
	if rps <= 0 {
		rps = defaultRPS
	}
	if burst <= 0 {
		burst = rps
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Wait blocks until the limiter admits one batch or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Warn("rate limiter wait failed", "error", err)
		return err
	}
	return nil
}

// Allow reports whether a batch may proceed right now.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}
