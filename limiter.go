package concurrent

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrent is the permit count of a limiter built with a
// non-positive size.
const DefaultMaxConcurrent = 16

// Limiter is a counting admission pool. At most Size permits are held at any
// time; the count is fixed at construction.
type Limiter struct {
	sem  *semaphore.Weighted
	size int

	done      context.Context
	closeDone context.CancelFunc

	active     atomic.Int64
	peak       atomic.Int64
	acquired   atomic.Int64
	waitTimeNs atomic.Int64
}

// LimiterStats is a snapshot of limiter activity.
type LimiterStats struct {
	Size          int
	Active        int64
	TotalAcquired int64
	Peak          int64
	TotalWait     time.Duration
}

// AverageWait returns the mean time spent waiting for a permit.
func (s LimiterStats) AverageWait() time.Duration {
	if s.TotalAcquired == 0 {
		return 0
	}
	return s.TotalWait / time.Duration(s.TotalAcquired)
}

// NewLimiter builds a limiter holding size permits.
func NewLimiter(size int) *Limiter {
	if size <= 0 {
		size = DefaultMaxConcurrent
	}
	done, cancel := context.WithCancel(context.Background())
	return &Limiter{
		sem:       semaphore.NewWeighted(int64(size)),
		size:      size,
		done:      done,
		closeDone: cancel,
	}
}

// Permit is one admission token. Release is idempotent.
type Permit struct {
	l    *Limiter
	once sync.Once
}

// Release returns the permit to its limiter.
func (p *Permit) Release() {
	p.once.Do(func() {
		p.l.active.Add(-1)
		p.l.sem.Release(1)
	})
}

// Acquire blocks until a permit is free, ctx is done or the limiter is
// closed.
func (l *Limiter) Acquire(ctx context.Context) (*Permit, error) {
	if l.done.Err() != nil {
		return nil, ErrLimiterClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(l.done, cancel)
	defer stop()

	start := time.Now()
	if err := l.sem.Acquire(ctx, 1); err != nil {
		if l.done.Err() != nil {
			return nil, ErrLimiterClosed
		}
		return nil, fmt.Errorf("%w: %w", ErrAdmission, err)
	}
	l.waitTimeNs.Add(time.Since(start).Nanoseconds())
	l.acquired.Add(1)
	l.updatePeak(l.active.Add(1))

	return &Permit{l: l}, nil
}

// Do runs fn while holding a permit. The permit is released on every exit
// path of fn, panics included.
func (l *Limiter) Do(ctx context.Context, fn func() error) error {
	permit, err := l.Acquire(ctx)
	if err != nil {
		return err
	}
	defer permit.Release()
	return fn()
}

// Size returns the configured permit count.
func (l *Limiter) Size() int {
	return l.size
}

// Active returns the number of permits currently held.
func (l *Limiter) Active() int64 {
	return l.active.Load()
}

// Stats returns a snapshot of the limiter counters.
func (l *Limiter) Stats() LimiterStats {
	return LimiterStats{
		Size:          l.size,
		Active:        l.active.Load(),
		TotalAcquired: l.acquired.Load(),
		Peak:          l.peak.Load(),
		TotalWait:     time.Duration(l.waitTimeNs.Load()),
	}
}

// Close tears the limiter down. Pending and future Acquire calls fail with
// ErrLimiterClosed; permits already held may still be released.
func (l *Limiter) Close() {
	l.closeDone()
}

func (l *Limiter) updatePeak(current int64) {
	for {
		peak := l.peak.Load()
		if current <= peak || l.peak.CompareAndSwap(peak, current) {
			return
		}
	}
}
