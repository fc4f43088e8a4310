package pkg

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Errors
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// Decision is the outcome of a rate-limit check for a single request.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // time until the current window resets
}

// RateLimiter guards public endpoints against abuse. Keys are typically
// "<client-ip>:<path>". Implementations count fixed windows; exceeding Max
// within a window yields Allowed=false until the window resets.
type RateLimiter interface {
	CheckAndIncrement(ctx context.Context, key string) Decision
}

type windowState struct {
	count   int
	resetAt time.Time
}

// FixedWindowLimiter is an instance-local fixed-window counter. State is
// process-local: good enough to blunt casual abuse on a single instance,
// not a strict global guarantee.
type FixedWindowLimiter struct {
	mu     sync.Mutex
	states map[string]*windowState
	max    int
	window time.Duration
	now    func() time.Time
}

// NewFixedWindowLimiter creates a limiter allowing max requests per window.
// If max <= 0 the limiter is unlimited.
func NewFixedWindowLimiter(max int, window time.Duration) *FixedWindowLimiter {
	return &FixedWindowLimiter{
		states: make(map[string]*windowState),
		max:    max,
		window: window,
		now:    time.Now,
	}
}

func (l *FixedWindowLimiter) CheckAndIncrement(_ context.Context, key string) Decision {
	if l.max <= 0 {
		return Decision{Allowed: true, Remaining: -1}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state, ok := l.states[key]
	if !ok || state.resetAt.Before(now) {
		state = &windowState{count: 0, resetAt: now.Add(l.window)}
		l.states[key] = state
	}
	state.count++

	remaining := l.max - state.count
	if remaining < 0 {
		remaining = 0
	}
	retryAfter := state.resetAt.Sub(now)
	return Decision{
		Allowed:    state.count <= l.max,
		Remaining:  remaining,
		RetryAfter: retryAfter,
	}
}

// DistributedLimiter combines a local rate.Limiter fast path with Redis
// INCR+EXPIRE for cross-instance enforcement. Falls back to local-only when
// Redis is unavailable.
type DistributedLimiter struct {
	localLimiter *rate.Limiter
	redisClient  *redis.Client
	max          int
	window       time.Duration
	logger       *zap.Logger
}

// NewDistributedLimiter creates a limiter; if max=0, it's unlimited.
func NewDistributedLimiter(redisClient *redis.Client, max int, window time.Duration, logger *zap.Logger) *DistributedLimiter {
	var local *rate.Limiter
	if max > 0 {
		perSecond := float64(max) / window.Seconds()
		local = rate.NewLimiter(rate.Limit(perSecond), max)
	}
	return &DistributedLimiter{
		localLimiter: local,
		redisClient:  redisClient,
		max:          max,
		window:       window,
		logger:       logger,
	}
}

func (d *DistributedLimiter) CheckAndIncrement(ctx context.Context, key string) Decision {
	if d.localLimiter == nil {
		return Decision{Allowed: true, Remaining: -1}
	}

	// Local check first (fast path)
	if !d.localLimiter.Allow() {
		return Decision{Allowed: false, Remaining: 0, RetryAfter: d.window}
	}

	// Distributed count via Redis atomic increment
	pipe := d.redisClient.Pipeline()
	incr := pipe.Incr(ctx, key)
	ttl := pipe.TTL(ctx, key)
	_, err := pipe.Exec(ctx)
	if err != nil {
		d.logger.Error("Redis rate limit error; falling back to local", zap.Error(err))
		return Decision{Allowed: true, Remaining: -1}
	}

	// First increment in a window: start the expiry clock.
	retryAfter := ttl.Val()
	if retryAfter < 0 {
		d.redisClient.Expire(ctx, key, d.window)
		retryAfter = d.window
	}

	count := int(incr.Val())
	remaining := d.max - count
	if remaining < 0 {
		remaining = 0
	}
	if count > d.max {
		d.logger.Warn("Global rate limit exceeded", zap.String("key", key), zap.Int("count", count))
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retryAfter}
	}
	return Decision{Allowed: true, Remaining: remaining, RetryAfter: retryAfter}
}
