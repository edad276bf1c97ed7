package crawler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out render dispatches across the worker pool.
//
// Two mechanisms combine: a shared token-bucket limiter enforces the
// minimum inter-dispatch interval globally, and a per-dispatch random
// jitter up to the min/max spread keeps the request cadence from looking
// mechanical. Both bounds come from the pacing configuration.
type Pacer struct {
	limiter *rate.Limiter
	jitter  time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPacer creates a pacer enforcing at least min between dispatches and
// adding up to max-min of random jitter. A non-positive min disables the
// limiter; max below min disables the jitter.
func NewPacer(min, max time.Duration) *Pacer {
	p := &Pacer{
		limiter: rate.NewLimiter(rate.Inf, 1),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // pacing jitter needs no cryptographic randomness
	}
	if min > 0 {
		p.limiter = rate.NewLimiter(rate.Every(min), 1)
	}
	if max > min {
		p.jitter = max - min
	}
	return p
}

// Wait blocks until the next dispatch slot, or until ctx is canceled.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	if p.jitter <= 0 {
		return nil
	}

	p.mu.Lock()
	d := time.Duration(p.rng.Int63n(int64(p.jitter)))
	p.mu.Unlock()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
