package http

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter spaces out requests to each registry or download host. A
// concurrent install resolves and fetches many packages from the same
// registry, so metadata and tarball requests share one bucket per host.
type HostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewHostLimiter returns a limiter admitting rps requests per second to any
// one host. Bursts are not allowed.
func NewHostLimiter(rps float64) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until host's bucket admits a request. It returns the context
// error when ctx ends first.
func (l *HostLimiter) Wait(ctx context.Context, host string) error {
	l.mu.Lock()
	limiter, ok := l.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rps), 1)
		l.limiters[host] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
