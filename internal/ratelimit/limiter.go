package ratelimit

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

const (
	UpstreamFlights  = "flights"
	UpstreamCheckout = "checkout"
)

type RateLimitConfig struct {
	// RequestsPerSecond of zero or less leaves the upstream unthrottled.
	RequestsPerSecond float64
	BurstSize         int
}

func (c RateLimitConfig) limit() rate.Limit {
	if c.RequestsPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(c.RequestsPerSecond)
}

func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
	}
}

// UpstreamLimiter keeps one token bucket per external service so a burst of
// searches cannot starve payment status checks. Upstreams without their own
// entry in the config share the default settings, each in its own bucket.
type UpstreamLimiter struct {
	limiters  map[string]*rate.Limiter
	mu        sync.RWMutex
	defaults  RateLimitConfig
	upstreams map[string]RateLimitConfig
}

func NewUpstreamLimiter(defaults RateLimitConfig, upstreams map[string]RateLimitConfig) *UpstreamLimiter {
	return &UpstreamLimiter{
		limiters:  make(map[string]*rate.Limiter),
		defaults:  defaults,
		upstreams: upstreams,
	}
}

func NewUpstreamLimiterWithDefaults() *UpstreamLimiter {
	return NewUpstreamLimiter(DefaultConfig(), nil)
}

// ConfigFor reports the settings an upstream's bucket is built with.
func (u *UpstreamLimiter) ConfigFor(upstream string) RateLimitConfig {
	if cfg, ok := u.upstreams[upstream]; ok {
		return cfg
	}
	return u.defaults
}

func (u *UpstreamLimiter) GetLimiter(upstream string) *rate.Limiter {
	u.mu.RLock()
	limiter, exists := u.limiters[upstream]
	u.mu.RUnlock()

	if exists {
		return limiter
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if limiter, exists = u.limiters[upstream]; exists {
		return limiter
	}

	cfg := u.ConfigFor(upstream)
	limiter = rate.NewLimiter(cfg.limit(), max(cfg.BurstSize, 1))
	u.limiters[upstream] = limiter
	return limiter
}

// Wait blocks until the upstream has a free token. A nil limiter never blocks.
func (u *UpstreamLimiter) Wait(ctx context.Context, upstream string) error {
	if u == nil {
		return nil
	}
	if err := u.GetLimiter(upstream).Wait(ctx); err != nil {
		return fmt.Errorf("%s rate limit: %w", upstream, err)
	}
	return nil
}
