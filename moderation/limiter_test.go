package moderation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(DefaultRateWindow, DefaultRateLimit)

	for i := 0; i < DefaultRateLimit; i++ {
		req.True(limiter.RecordAndCheck("conn-1"), "message %d should be allowed", i+1)
	}
	req.False(limiter.RecordAndCheck("conn-1"), "message 11 must trip the limiter")
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(DefaultRateWindow, DefaultRateLimit)

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	for i := 0; i < DefaultRateLimit; i++ {
		req.True(limiter.RecordAndCheck("conn-1"))
	}

	// Everything recorded so far falls out of the trailing window.
	clock = clock.Add(DefaultRateWindow + time.Second)
	req.True(limiter.RecordAndCheck("conn-1"), "old timestamps must be evicted")
}

func TestRateLimiter_PerConnectionWindows(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(DefaultRateWindow, 2)

	req.True(limiter.RecordAndCheck("conn-1"))
	req.True(limiter.RecordAndCheck("conn-1"))
	req.False(limiter.RecordAndCheck("conn-1"))

	// A different connection is unaffected.
	req.True(limiter.RecordAndCheck("conn-2"))
}

func TestRateLimiter_ForgetResetsWindow(t *testing.T) {
	req := require.New(t)
	limiter := NewRateLimiter(DefaultRateWindow, 1)

	req.True(limiter.RecordAndCheck("conn-1"))
	req.False(limiter.RecordAndCheck("conn-1"))

	limiter.Forget("conn-1")
	req.True(limiter.RecordAndCheck("conn-1"), "a fresh connection gets a fresh window")
}
