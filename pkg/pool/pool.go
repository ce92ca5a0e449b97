// Package pool provides the bounded worker pool the parallel pipeline
// phases run on. Work units never share mutable state; callers follow a
// map-then-fold discipline where each task writes only its own slot and a
// single-threaded fold combines results afterwards, so output is identical
// for any worker count.
package pool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool executes independent index tasks on a fixed number of workers.
// The zero value is not usable; construct with New.
type Pool struct {
	workers int
}

// New returns a pool with the given worker count. Non-positive counts fall
// back to runtime.NumCPU().
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pool{workers: workers}
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return p.workers }

// Map runs fn for every index in [0, n) across the pool's workers and waits
// for completion. The first error encountered is returned; queued work is
// drained without running once an error or cancellation is seen.
func (p *Pool) Map(ctx context.Context, n int, fn func(i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failed   atomic.Bool
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		failed.Store(true)
	}

	workers := p.workers
	if workers > n {
		workers = n
	}
	indices := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if failed.Load() {
					continue
				}
				select {
				case <-ctx.Done():
					fail(ctx.Err())
					continue
				default:
				}
				if err := fn(i); err != nil {
					fail(err)
				}
			}
		}()
	}

	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()
	return firstErr
}
