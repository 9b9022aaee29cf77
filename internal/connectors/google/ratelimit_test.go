package google

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_AllowWithinBurst(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	assert.True(t, r.Allow())
	assert.True(t, r.Allow())
	assert.False(t, r.Allow())
}

func TestRateLimiter_Backoff(t *testing.T) {
	r := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10})
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.Backoff(10 * time.Second)
	assert.False(t, r.Allow())

	// A shorter backoff does not shorten the window
	r.Backoff(time.Second)
	now = now.Add(5 * time.Second)
	assert.False(t, r.Allow())

	now = now.Add(6 * time.Second)
	assert.True(t, r.Allow())
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	r := NewRateLimiter(DefaultDriveRateLimit)
	r.Backoff(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

func TestRateLimiter_WaitImmediate(t *testing.T) {
	r := NewRateLimiter(DefaultDriveRateLimit)
	assert.NoError(t, r.Wait(context.Background()))
}
