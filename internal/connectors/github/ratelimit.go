package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// AuthenticatedRateLimit is the hourly quota with a token.
	AuthenticatedRateLimit = 5000

	// AnonymousRateLimit is the hourly quota without a token.
	AnonymousRateLimit = 60

	// ProactiveRate is the authenticated throttle (~1.2 req/sec = 4320/hr).
	ProactiveRate = 1.2

	// MinBuffer is the share of the quota kept in reserve before waiting for reset.
	MinBuffer = 0.02

	// HeaderRateLimit is the rate limit header.
	HeaderRateLimit = "X-RateLimit-Limit"

	// HeaderRateRemaining is the remaining requests header.
	HeaderRateRemaining = "X-RateLimit-Remaining"

	// HeaderRateReset is the reset timestamp header (Unix seconds).
	HeaderRateReset = "X-RateLimit-Reset"

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"
)

// RateLimiter throttles GitHub calls with a token bucket and pauses until
// the quota resets when the X-RateLimit headers report it nearly spent.
type RateLimiter struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetTime time.Time
	bucket    *rate.Limiter
}

// NewRateLimiter creates a limiter sized for an hourly quota.
func NewRateLimiter(quota int) *RateLimiter {
	if quota <= 0 {
		quota = AuthenticatedRateLimit
	}
	burst := 1
	if quota < AuthenticatedRateLimit {
		// The anonymous quota runs out long before the bucket matters.
		burst = 5
	}
	return &RateLimiter{
		remaining: quota,
		limit:     quota,
		bucket:    rate.NewLimiter(rate.Limit(ProactiveRate), burst),
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	remaining := r.remaining
	buffer := int(float64(r.limit) * MinBuffer)
	resetTime := r.resetTime
	r.mu.Unlock()

	if remaining <= buffer && time.Now().Before(resetTime) {
		timer := time.NewTimer(time.Until(resetTime))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return nil
}

// UpdateFromResponse updates rate limit state from response headers.
func (r *RateLimiter) UpdateFromResponse(resp *http.Response) {
	if resp == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, err := strconv.Atoi(resp.Header.Get(HeaderRateRemaining)); err == nil {
		r.remaining = v
	}
	if v, err := strconv.Atoi(resp.Header.Get(HeaderRateLimit)); err == nil && v > 0 {
		r.limit = v
	}
	if v, err := strconv.ParseInt(resp.Header.Get(HeaderRateReset), 10, 64); err == nil {
		r.resetTime = time.Unix(v, 0)
	}
	if v, err := strconv.Atoi(resp.Header.Get(HeaderRetryAfter)); err == nil {
		r.remaining = 0
		r.resetTime = time.Now().Add(time.Duration(v) * time.Second)
	}
}

// Error builds a RateLimitError from the current state.
func (r *RateLimiter) Error() *RateLimitError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &RateLimitError{
		ResetAt:   r.resetTime,
		Remaining: r.remaining,
		Limit:     r.limit,
	}
}

// Remaining returns the current remaining requests.
func (r *RateLimiter) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.remaining
}

// Limit returns the rate limit.
func (r *RateLimiter) Limit() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limit
}

// ResetTime returns the rate limit reset time.
func (r *RateLimiter) ResetTime() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resetTime
}
