package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_ZeroRateDoesNotThrottle(t *testing.T) {
	for _, rpm := range []int{0, -5} {
		limiter := NewLimiter("test", rpm)

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)

		// Several back-to-back calls must all pass well within the deadline.
		for i := 0; i < 5; i++ {
			require.NoError(t, limiter.Wait(ctx), "rpm=%d call %d", rpm, i)
		}
		assert.True(t, limiter.Allow())
		cancel()
	}
}

func TestLimiter_PositiveRateAllowsBurst(t *testing.T) {
	limiter := NewLimiter("test", 60)

	assert.True(t, limiter.Allow(), "first request fits in the burst")
}
