package rate

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter limits operations based on a provided key, typically an RPC method
// name.
type Limiter interface {
	// Allow reports whether an operation may happen now.
	Allow(key string) (bool, error)

	// Wait blocks until an operation may happen or ctx is done.
	Wait(ctx context.Context, key string) error
}

type localRateLimiter struct {
	limit rate.Limit
	burst int

	sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewLocalRateLimiter returns an in memory limiter allowing limit operations
// per second for each key.
func NewLocalRateLimiter(limit rate.Limit) Limiter {
	burst := int(limit)
	if burst < 1 {
		burst = 1
	}

	return &localRateLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *localRateLimiter) get(key string) *rate.Limiter {
	l.Lock()
	defer l.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter
}

func (l *localRateLimiter) Allow(key string) (bool, error) {
	return l.get(key).Allow(), nil
}

func (l *localRateLimiter) Wait(ctx context.Context, key string) error {
	return l.get(key).Wait(ctx)
}

// NoLimiter never limits operations
type NoLimiter struct {
}

func (n *NoLimiter) Allow(key string) (bool, error) {
	return true, nil
}

func (n *NoLimiter) Wait(ctx context.Context, key string) error {
	return ctx.Err()
}
