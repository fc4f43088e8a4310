package pkg

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixedWindowLimiterEnforcesMax(t *testing.T) {
	limiter := NewFixedWindowLimiter(2, time.Minute)
	current := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	ctx := context.Background()
	first := limiter.CheckAndIncrement(ctx, "1.2.3.4:/api/create-yoco-charge")
	assert.True(t, first.Allowed)
	assert.Equal(t, 1, first.Remaining)

	second := limiter.CheckAndIncrement(ctx, "1.2.3.4:/api/create-yoco-charge")
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, second.Remaining)

	third := limiter.CheckAndIncrement(ctx, "1.2.3.4:/api/create-yoco-charge")
	assert.False(t, third.Allowed)
	assert.Equal(t, 0, third.Remaining)
	assert.Equal(t, time.Minute, third.RetryAfter)
}

func TestFixedWindowLimiterResetsAfterWindow(t *testing.T) {
	limiter := NewFixedWindowLimiter(1, time.Minute)
	current := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return current }

	ctx := context.Background()
	assert.True(t, limiter.CheckAndIncrement(ctx, "k").Allowed)
	assert.False(t, limiter.CheckAndIncrement(ctx, "k").Allowed)

	current = current.Add(61 * time.Second)
	assert.True(t, limiter.CheckAndIncrement(ctx, "k").Allowed)
}

func TestFixedWindowLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewFixedWindowLimiter(1, time.Minute)
	ctx := context.Background()

	assert.True(t, limiter.CheckAndIncrement(ctx, "a").Allowed)
	assert.False(t, limiter.CheckAndIncrement(ctx, "a").Allowed)
	assert.True(t, limiter.CheckAndIncrement(ctx, "b").Allowed)
}

func TestFixedWindowLimiterUnlimitedWhenMaxZero(t *testing.T) {
	limiter := NewFixedWindowLimiter(0, time.Minute)
	ctx := context.Background()
	for i := 0; i < 100; i++ {
		assert.True(t, limiter.CheckAndIncrement(ctx, "k").Allowed)
	}
}
