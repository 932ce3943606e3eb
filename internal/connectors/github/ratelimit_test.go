package github

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter_Quota(t *testing.T) {
	assert.Equal(t, AuthenticatedRateLimit, NewRateLimiter(0).Limit())
	assert.Equal(t, AnonymousRateLimit, NewRateLimiter(AnonymousRateLimit).Remaining())
}

func TestRateLimiter_UpdateFromResponse(t *testing.T) {
	r := NewRateLimiter(AuthenticatedRateLimit)
	reset := time.Now().Add(30 * time.Minute).Unix()

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set(HeaderRateLimit, "5000")
	resp.Header.Set(HeaderRateRemaining, "4321")
	resp.Header.Set(HeaderRateReset, strconv.FormatInt(reset, 10))
	r.UpdateFromResponse(resp)

	assert.Equal(t, 4321, r.Remaining())
	assert.Equal(t, 5000, r.Limit())
	assert.Equal(t, reset, r.ResetTime().Unix())
}

func TestRateLimiter_RetryAfterExhaustsQuota(t *testing.T) {
	r := NewRateLimiter(AuthenticatedRateLimit)

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set(HeaderRetryAfter, "60")
	r.UpdateFromResponse(resp)

	assert.Equal(t, 0, r.Remaining())
	assert.WithinDuration(t, time.Now().Add(time.Minute), r.ResetTime(), 5*time.Second)
}

func TestRateLimiter_WaitHonoursContextWhenExhausted(t *testing.T) {
	r := NewRateLimiter(AuthenticatedRateLimit)
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set(HeaderRateRemaining, "0")
	resp.Header.Set(HeaderRateReset, strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
	r.UpdateFromResponse(resp)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Wait(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_UpdateFromNilResponse(t *testing.T) {
	r := NewRateLimiter(AuthenticatedRateLimit)
	r.UpdateFromResponse(nil)
	assert.Equal(t, AuthenticatedRateLimit, r.Remaining())
}
