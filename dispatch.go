package gridgo

import (
	"context"
	"sync/atomic"
	"time"
)

// loadPriority distinguishes loads the consumer is waiting on from
// speculative preloads.
type loadPriority uint8

const (
	priorityVisible loadPriority = iota
	priorityBackground
)

// loadTask is one outstanding block fetch. At most one task exists per
// block index at any time; completion delivers exactly once or not at
// all (when cancelled or superseded by a newer generation).
type loadTask struct {
	blockIndex int
	generation uint64
	startRow   int
	count      int
	started    time.Time
	cancelled  atomic.Bool
}

// dispatch enqueues a load for blockIndex unless the block is already
// valid, already has an outstanding task, or lies beyond the end of the
// data. Background dispatches may additionally be dropped by the preload
// rate limiter.
func (e *Engine) dispatch(blockIndex int, priority loadPriority) {
	if e.closed.Load() || blockIndex < 0 {
		return
	}

	e.mu.Lock()
	src, gen, bs := e.src, e.generation, e.blockSize
	if src == nil {
		e.mu.Unlock()
		return
	}
	if b, ok := e.blocks[blockIndex]; ok && b.valid {
		b.touch(time.Now().UnixMilli())
		e.mu.Unlock()
		return
	}
	if _, ok := e.pending[blockIndex]; ok {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	if priority == priorityBackground && e.limiter != nil && !e.limiter.Allow() {
		return
	}

	// RowCount may be expensive on first call; never hold the lock here.
	startRow, count := blockExtent(blockIndex, bs, src.RowCount())
	if count <= 0 {
		return
	}

	task := &loadTask{
		blockIndex: blockIndex,
		generation: gen,
		startRow:   startRow,
		count:      count,
		started:    time.Now(),
	}

	e.mu.Lock()
	if e.generation != gen {
		e.mu.Unlock()
		return
	}
	if _, ok := e.pending[blockIndex]; ok {
		e.mu.Unlock()
		return
	}
	if b, ok := e.blocks[blockIndex]; ok && b.valid {
		e.mu.Unlock()
		return
	}
	e.pending[blockIndex] = task
	e.mu.Unlock()

	err := e.pool.Submit(context.Background(), func() {
		e.complete(task, src.LoadRows(task.startRow, task.count))
	})
	if err != nil {
		e.mu.Lock()
		if cur, ok := e.pending[blockIndex]; ok && cur == task {
			delete(e.pending, blockIndex)
		}
		e.mu.Unlock()
	}
}

// complete delivers the result of a load. Stale completions (cancelled
// task or superseded generation) are discarded without touching state.
func (e *Engine) complete(task *loadTask, rows []Row) {
	if task.cancelled.Load() {
		return
	}

	e.mu.Lock()
	if e.generation != task.generation {
		e.mu.Unlock()
		return
	}
	if cur, ok := e.pending[task.blockIndex]; ok && cur == task {
		delete(e.pending, task.blockIndex)
	}

	if len(rows) == 0 {
		// Failed or empty load: the block stays invalid until a future
		// range update or point-read miss redispatches it.
		e.mu.Unlock()
		e.metrics.RecordBlockLoad(0, time.Since(task.started))
		e.logger.LogBlockLoadFailed(task.blockIndex)
		return
	}

	b, ok := e.blocks[task.blockIndex]
	if !ok {
		b = &block{startRow: task.startRow, count: task.count}
		e.blocks[task.blockIndex] = b
	}
	b.rows = rows
	b.count = len(rows)
	b.valid = true
	b.touch(time.Now().UnixMilli())

	topRow := task.startRow
	bottomRow := task.startRow + len(rows) - 1

	rangeListeners := make([]RangeChangedFunc, len(e.rangeListeners))
	copy(rangeListeners, e.rangeListeners)

	var idle []StatusChangedFunc
	settled := (e.status == StatusLoadingVisible && e.visibleValidLocked()) ||
		(e.status == StatusLoadingPreload && len(e.pending) == 0)
	if settled {
		idle = e.setStatusLocked(StatusIdle)
	}
	e.mu.Unlock()

	e.metrics.RecordBlockLoad(len(rows), time.Since(task.started))
	e.logger.LogBlockLoaded(task.blockIndex, len(rows))

	e.notifyRange(rangeListeners, topRow, bottomRow)
	if settled {
		e.notifyStatus(idle, StatusIdle)
	}
}
