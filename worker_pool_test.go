package gridgo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolRunsTasks(t *testing.T) {
	wp := newWorkerPool(4)
	defer wp.Close()

	var counter atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		require.NoError(t, wp.Submit(context.Background(), func() {
			counter.Add(1)
			wg.Done()
		}))
	}
	wg.Wait()

	assert.Equal(t, int64(100), counter.Load())
}

func TestWorkerPoolDefaultsToGOMAXPROCS(t *testing.T) {
	wp := newWorkerPool(0)
	defer wp.Close()

	assert.Greater(t, wp.numWorkers, 0)
}

func TestWorkerPoolCloseDrains(t *testing.T) {
	wp := newWorkerPool(2)

	var counter atomic.Int64
	for i := 0; i < 20; i++ {
		require.NoError(t, wp.Submit(context.Background(), func() {
			counter.Add(1)
		}))
	}

	// Close waits for queued work to finish.
	wp.Close()
	assert.Equal(t, int64(20), counter.Load())
}

func TestWorkerPoolSubmitAfterClose(t *testing.T) {
	wp := newWorkerPool(1)
	wp.Close()
	wp.Close() // idempotent

	err := wp.Submit(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrEngineClosed)
}

func TestWorkerPoolSubmitCancelledContext(t *testing.T) {
	wp := newWorkerPool(1)
	defer wp.Close()

	// Block the lone worker and fill the queue so Submit must wait on
	// the context.
	release := make(chan struct{})
	require.NoError(t, wp.Submit(context.Background(), func() { <-release }))
	for i := 0; i < cap(wp.workCh); i++ {
		require.NoError(t, wp.Submit(context.Background(), func() {}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := wp.Submit(ctx, func() {})
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
}
