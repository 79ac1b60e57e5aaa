package concurrent

import (
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// Pool runs per-item work on a bounded set of goroutines. It is not gated by
// any Limiter: its size only caps CPU-bound fan-out.
//
// A nil Pool, or one built with size 0, runs every task in the calling
// goroutine.
type Pool struct {
	pool *ants.Pool
}

// NewPoolWithOptions builds a pool of the given size. A negative size uses
// runtime.GOMAXPROCS(0) workers; 0 yields an inline pool.
func NewPoolWithOptions(size int, opts ...ants.Option) (*Pool, error) {
	if size < 0 {
		size = runtime.GOMAXPROCS(0)
	}
	if size == 0 {
		return &Pool{}, nil
	}
	pool, err := ants.NewPool(size, opts...)
	if err != nil {
		return nil, err
	}
	return &Pool{pool: pool}, nil
}

// NewPool builds a pool of the given size with default ants options.
func NewPool(size int) (*Pool, error) {
	return NewPoolWithOptions(size)
}

// Release stops the underlying workers. Tasks submitted afterwards run
// inline.
func (p *Pool) Release() {
	if p == nil || p.pool == nil {
		return
	}
	p.pool.Release()
}

// Cap returns the number of workers, 0 for an inline pool.
func (p *Pool) Cap() int {
	if p == nil || p.pool == nil {
		return 0
	}
	return p.pool.Cap()
}

// submit schedules f on the pool. If there is no pool, or the pool refuses the
// task, f runs in the current goroutine before submit returns.
func (p *Pool) submit(f func()) {
	if p == nil || p.pool == nil {
		f()
		return
	}
	if err := p.pool.Submit(f); err != nil {
		f()
	}
}

// ParallelMap applies f to every item on the pool and returns the results in
// input order. Each task writes into its own slot of a pre-sized slice, so
// completion order never affects the output. It blocks until all items are
// done.
func ParallelMap[T, R any](p *Pool, items []T, f func(item T, index int) R) []R {
	out := make([]R, len(items))
	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		p.submit(func() {
			defer wg.Done()
			out[i] = f(item, i)
		})
	}
	wg.Wait()
	return out
}
