package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrLimitExceeded is returned when a token could not be acquired within the
// bounded wait window.
var ErrLimitExceeded = errors.New("rate limit exceeded")

// BucketConfig describes one source's token bucket.
type BucketConfig struct {
	// RefillPerSecond is the steady-state token refill rate.
	RefillPerSecond float64
	// Burst is the bucket capacity.
	Burst int
}

func (c BucketConfig) normalized() BucketConfig {
	if c.RefillPerSecond <= 0 {
		c.RefillPerSecond = 1
	}
	if c.Burst < 1 {
		c.Burst = 1
	}
	return c
}

// Registry keeps one token bucket per source name. Safe for concurrent use
// by multiple in-flight requests targeting the same source.
type Registry struct {
	mu       sync.Mutex
	buckets  map[string]*rate.Limiter
	configs  map[string]BucketConfig
	fallback BucketConfig
	maxWait  time.Duration
}

func NewRegistry(fallback BucketConfig, maxWait time.Duration) *Registry {
	if maxWait <= 0 {
		maxWait = 2 * time.Second
	}
	return &Registry{
		buckets:  make(map[string]*rate.Limiter),
		configs:  make(map[string]BucketConfig),
		fallback: fallback.normalized(),
		maxWait:  maxWait,
	}
}

// Configure sets the bucket parameters for a source. Calling it after the
// bucket exists replaces the bucket.
func (r *Registry) Configure(source string, cfg BucketConfig) {
	cfg = cfg.normalized()
	r.mu.Lock()
	r.configs[source] = cfg
	r.buckets[source] = rate.NewLimiter(rate.Limit(cfg.RefillPerSecond), cfg.Burst)
	r.mu.Unlock()
}

// Acquire blocks until a token for the source is available, up to the
// registry's bounded wait. It returns ErrLimitExceeded when the wait window
// elapses and the context error when the caller cancels first.
func (r *Registry) Acquire(ctx context.Context, source string) error {
	limiter := r.bucket(source)

	waitCtx, cancel := context.WithTimeout(ctx, r.maxWait)
	defer cancel()

	if err := limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrLimitExceeded
	}
	return nil
}

func (r *Registry) bucket(source string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter, ok := r.buckets[source]; ok {
		return limiter
	}

	cfg, ok := r.configs[source]
	if !ok {
		cfg = r.fallback
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.RefillPerSecond), cfg.Burst)
	r.buckets[source] = limiter
	return limiter
}
