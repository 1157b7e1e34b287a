package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterInterval(t *testing.T) {
	limiter := NewLimiter(120) // 500ms interval

	ctx := context.Background()
	start := time.Now()
	assert.NoError(t, limiter.Acquire(ctx))
	assert.NoError(t, limiter.Acquire(ctx))
	assert.NoError(t, limiter.Acquire(ctx))
	elapsed := time.Since(start)

	// Three acquisitions need at least two full intervals
	assert.GreaterOrEqual(t, elapsed, 2*limiter.MinInterval())
}

func TestLimiterRollingWindowBudget(t *testing.T) {
	// 600 per minute = 100ms interval; count how many fit in a short window
	limiter := NewLimiter(600)
	ctx, cancel := context.WithTimeout(context.Background(), 550*time.Millisecond)
	defer cancel()

	acquired := 0
	for {
		if err := limiter.Acquire(ctx); err != nil {
			break
		}
		acquired++
	}

	// Window of 550ms at 100ms interval permits at most 6 acquisitions
	// (the first is immediate), matching the per-minute budget pro rata.
	assert.LessOrEqual(t, acquired, 6)
	assert.GreaterOrEqual(t, acquired, 4)
}

func TestLimiterConcurrentAcquire(t *testing.T) {
	limiter := NewLimiter(1200) // 50ms interval
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var stamps []time.Time

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, limiter.Acquire(ctx))
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, stamps, 4)
}

func TestLimiterContextCancel(t *testing.T) {
	limiter := NewLimiter(1) // 60s interval
	ctx := context.Background()

	assert.NoError(t, limiter.Acquire(ctx))

	cancelCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := limiter.Acquire(cancelCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
