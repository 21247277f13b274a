package ai

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"tradeanalysis/pkg/errors"
)

// RateLimiter defines the interface for rate limiting AI provider requests.
type RateLimiter interface {
	// Wait blocks until request can proceed or context is cancelled.
	Wait(ctx context.Context) error

	// Allow checks if request can proceed without blocking.
	Allow() bool

	// Limit returns current rate limit (requests per minute).
	Limit() float64
}

// Limiter is a token bucket limiter shared by every agent of a run.
type Limiter struct {
	limiter      *rate.Limiter
	provider     ProviderName
	reqPerMinute int
}

// NewRateLimiter creates a limiter allowing reqPerMinute requests.
// A non-positive rate disables limiting.
func NewRateLimiter(provider ProviderName, reqPerMinute int) RateLimiter {
	if reqPerMinute <= 0 {
		return NewNoOpLimiter()
	}

	// Allow burst of 10% of per-minute limit
	burst := reqPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter:      rate.NewLimiter(rate.Limit(float64(reqPerMinute)/60.0), burst),
		provider:     provider,
		reqPerMinute: reqPerMinute,
	}
}

// Wait blocks until the limiter allows the request
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return &RateLimitError{Provider: l.provider, Limit: l.Limit(), Err: err}
	}
	return nil
}

// Allow checks if a request is allowed without blocking
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit returns the configured rate in requests per minute.
func (l *Limiter) Limit() float64 {
	return float64(l.reqPerMinute)
}

// NoOpLimiter is a rate limiter that never blocks.
type NoOpLimiter struct{}

// NewNoOpLimiter creates a no-op rate limiter.
func NewNoOpLimiter() *NoOpLimiter {
	return &NoOpLimiter{}
}

// Wait always returns immediately without error.
func (l *NoOpLimiter) Wait(ctx context.Context) error {
	return nil
}

// Allow always returns true.
func (l *NoOpLimiter) Allow() bool {
	return true
}

// Limit returns -1 to indicate unlimited.
func (l *NoOpLimiter) Limit() float64 {
	return -1
}

// RateLimitError wraps rate limit related errors with provider context.
type RateLimitError struct {
	Provider ProviderName
	Limit    float64
	Err      error
}

// Error implements error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit error for provider %s (limit: %.0f req/min): %v", e.Provider, e.Limit, e.Err)
}

// Unwrap returns the underlying error.
func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// Is reports every rate limit failure as errors.ErrRateLimitExceeded.
func (e *RateLimitError) Is(target error) bool {
	return target == errors.ErrRateLimitExceeded
}
