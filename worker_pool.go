package gridgo

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// workerPool manages a fixed pool of goroutines for block loads.
// A fixed pool keeps the number of concurrent Source reads bounded no
// matter how fast the visible range moves.
type workerPool struct {
	numWorkers int
	workCh     chan func() // Channel carries work closures
	stopCh     chan struct{}
	wg         sync.WaitGroup
	closed     atomic.Bool
	submitMu   sync.RWMutex
}

// newWorkerPool creates a worker pool with numWorkers goroutines.
// numWorkers <= 0 selects GOMAXPROCS.
func newWorkerPool(numWorkers int) *workerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	queue := numWorkers * 2
	if queue < 64 {
		// Visible plus preload dispatches can briefly outnumber the
		// workers; a roomy queue keeps range setters from blocking.
		queue = 64
	}

	wp := &workerPool{
		numWorkers: numWorkers,
		workCh:     make(chan func(), queue),
		stopCh:     make(chan struct{}),
	}

	wp.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go wp.worker()
	}

	return wp
}

// worker processes work closures from the work channel.
func (wp *workerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.stopCh:
			// Drain remaining work before exiting
			for {
				select {
				case workFunc, ok := <-wp.workCh:
					if !ok {
						return
					}
					workFunc()
				default:
					return
				}
			}
		case workFunc, ok := <-wp.workCh:
			if !ok {
				return
			}
			workFunc()
		}
	}
}

// Submit enqueues a task and returns once it is queued.
//
// Error conditions:
//   - Returns ErrEngineClosed if the pool is closed
//   - Returns the context error if ctx is cancelled before enqueueing
func (wp *workerPool) Submit(ctx context.Context, task func()) error {
	wp.submitMu.RLock()
	defer wp.submitMu.RUnlock()

	if wp.closed.Load() {
		return ErrEngineClosed
	}

	select {
	case wp.workCh <- task:
		return nil
	case <-wp.stopCh:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close shuts down the worker pool gracefully.
func (wp *workerPool) Close() {
	if !wp.closed.CompareAndSwap(false, true) {
		return
	}

	wp.submitMu.Lock()
	close(wp.stopCh)
	close(wp.workCh)
	wp.submitMu.Unlock()

	wp.wg.Wait()
}
