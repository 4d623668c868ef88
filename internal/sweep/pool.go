package sweep

import (
	"context"
	"sync"
)

// defaultConcurrency bounds trial dispatch when no limit is configured.
// Kept low: most provider rate limits are the real ceiling.
const defaultConcurrency = 1

// workerPool manages a fixed set of goroutines that consume trials from
// the inbox. No trial observes another trial's state; workers share only
// the result aggregator, which serialises appends itself.
type workerPool struct {
	size int
	wg   sync.WaitGroup
}

// newWorkerPool creates a pool with the given size.
// If size <= 0, defaultConcurrency is used.
func newWorkerPool(size int) *workerPool {
	if size <= 0 {
		size = defaultConcurrency
	}
	return &workerPool{size: size}
}

// Start launches worker goroutines that consume trials from inbox.
func (p *workerPool) Start(ctx context.Context, inbox <-chan Trial, handler func(context.Context, Trial)) {
	for range p.size {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for trial := range inbox {
				handler(ctx, trial)
			}
		}()
	}
}

// Wait blocks until all workers have exited.
func (p *workerPool) Wait() {
	p.wg.Wait()
}
