package ratelimit

import (
	"context"
	"sync"
	"time"

	"quizharvester/logger"
)

// Limiter throttles outbound page loads to a configured per-minute budget by
// enforcing a minimum interval between acquisitions. Callers block
// cooperatively on a timer rather than busy-waiting, and acquisition order is
// serialized so concurrent quiz pipelines share one budget.
type Limiter struct {
	minInterval time.Duration
	mu          sync.Mutex
	last        time.Time
}

// NewLimiter creates a limiter allowing requestsPerMinute acquisitions per
// rolling minute.
func NewLimiter(requestsPerMinute int) *Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	return &Limiter{
		minInterval: time.Minute / time.Duration(requestsPerMinute),
	}
}

// Acquire blocks until the caller is permitted to issue a request, or until
// ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.last.IsZero() {
		elapsed := time.Since(l.last)
		if elapsed < l.minInterval {
			wait := l.minInterval - elapsed
			logger.Debug("rate limiting: waiting %s", wait)
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	l.last = time.Now()
	return nil
}

// MinInterval reports the enforced minimum interval between acquisitions.
func (l *Limiter) MinInterval() time.Duration {
	return l.minInterval
}
