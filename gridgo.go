package gridgo

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Engine is the authoritative cache of loaded row blocks and the decision
// point for what to load and evict.
//
// All mutable state (block map, pending-task registry, loading status) is
// guarded by a single mutex. Reads for cell lookup take the lock briefly
// and release it before triggering a new load; loads run on the worker
// pool outside the lock.
type Engine struct {
	mu sync.Mutex

	src        Source
	blockSize  int
	plan       *planner
	status     LoadingStatus
	visStart   int
	visEnd     int
	hasVisible bool

	blocks  map[int]*block
	pending map[int]*loadTask

	// generation increments on every cache invalidation; completions
	// carrying a stale generation are discarded.
	generation uint64

	scrollSpeed float64

	rangeListeners  []RangeChangedFunc
	statusListeners []StatusChangedFunc

	pool         *workerPool
	limiter      *rate.Limiter
	retainMargin int
	logger       *Logger
	metrics      MetricsCollector
	closed       atomic.Bool
}

// NewEngine creates an Engine bound to src. src may be nil; bind one
// later with SetSource.
func NewEngine(src Source, optFns ...Option) *Engine {
	o := applyOptions(optFns)

	e := &Engine{
		src:          src,
		blockSize:    o.blockSize,
		plan:         newPlanner(o.policy),
		blocks:       make(map[int]*block),
		pending:      make(map[int]*loadTask),
		pool:         newWorkerPool(o.numWorkers),
		limiter:      o.preloadLimiter,
		retainMargin: o.retainMargin,
		logger:       o.logger,
		metrics:      o.metrics,
	}

	if src != nil {
		e.logger.LogSourceBound(src.ColumnCount())
	}
	return e
}

// Close cancels all outstanding loads and stops the worker pool.
// It is idempotent.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	e.mu.Lock()
	dropped := e.invalidateLocked()
	e.mu.Unlock()

	e.pool.Close()
	e.logger.LogCacheInvalidated("close", dropped)
	return nil
}

// RowCount returns the total row count of the bound source, 0 if none.
func (e *Engine) RowCount() int {
	e.mu.Lock()
	src := e.src
	e.mu.Unlock()
	if src == nil {
		return 0
	}
	return src.RowCount()
}

// ColumnCount returns the column count of the bound source, 0 if none.
func (e *Engine) ColumnCount() int {
	e.mu.Lock()
	src := e.src
	e.mu.Unlock()
	if src == nil {
		return 0
	}
	return src.ColumnCount()
}

// Header returns the column display names of the bound source.
func (e *Engine) Header() []string {
	e.mu.Lock()
	src := e.src
	e.mu.Unlock()
	if src == nil {
		return nil
	}
	return src.Header()
}

// HeaderLabel returns the display name for column col, falling back to
// "Column N" when the source supplies none.
func (e *Engine) HeaderLabel(col int) string {
	if h := e.Header(); col >= 0 && col < len(h) {
		return h[col]
	}
	return fmt.Sprintf("Column %d", col+1)
}

// RowLabel returns the display label for row (1-based row number).
func (e *Engine) RowLabel(row int) string {
	return strconv.Itoa(row + 1)
}

// Status returns the current loading status.
func (e *Engine) Status() LoadingStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// VisibleRange returns the current visible row range. ok is false before
// the first SetVisibleRange.
func (e *Engine) VisibleRange() (startRow, endRow int, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.visStart, e.visEnd, e.hasVisible
}

// PreloadCounts returns the effective (ahead, behind) preload block
// counts after policy and scroll-speed adaptation.
func (e *Engine) PreloadCounts() (ahead, behind int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plan.ahead, e.plan.behind
}

// CachedBlocks returns the indices of valid cached blocks, sorted.
func (e *Engine) CachedBlocks() []int {
	e.mu.Lock()
	out := make([]int, 0, len(e.blocks))
	for idx, b := range e.blocks {
		if b.valid {
			out = append(out, idx)
		}
	}
	e.mu.Unlock()
	sort.Ints(out)
	return out
}

// PendingBlocks returns the indices of blocks with an outstanding load,
// sorted.
func (e *Engine) PendingBlocks() []int {
	e.mu.Lock()
	out := make([]int, 0, len(e.pending))
	for idx := range e.pending {
		out = append(out, idx)
	}
	e.mu.Unlock()
	sort.Ints(out)
	return out
}

// SetSource replaces the bound source, discarding every cached block and
// canceling all outstanding loads atomically.
func (e *Engine) SetSource(src Source) {
	e.mu.Lock()
	dropped := e.invalidateLocked()
	e.src = src
	e.visStart, e.visEnd, e.hasVisible = 0, 0, false
	notif := e.setStatusLocked(StatusIdle)
	e.mu.Unlock()

	e.notifyStatus(notif, StatusIdle)
	e.logger.LogCacheInvalidated("source replaced", dropped)
	if src != nil {
		e.logger.LogSourceBound(src.ColumnCount())
	}
}

// SetBlockSize changes the rows-per-block partitioning. The cache and all
// outstanding loads are discarded, since every block boundary moves.
func (e *Engine) SetBlockSize(blockSize int) error {
	if blockSize <= 0 {
		return ErrInvalidBlockSize
	}

	e.mu.Lock()
	if blockSize == e.blockSize {
		e.mu.Unlock()
		return nil
	}
	dropped := e.invalidateLocked()
	e.blockSize = blockSize
	notif := e.setStatusLocked(StatusIdle)
	e.mu.Unlock()

	e.notifyStatus(notif, StatusIdle)
	e.logger.LogCacheInvalidated("block size changed", dropped)
	return nil
}

// SetPreloadPolicy switches the preload policy. When a visible range is
// established the preload window around its center is re-planned and
// fetched immediately.
func (e *Engine) SetPreloadPolicy(policy PreloadPolicy) {
	e.mu.Lock()
	if e.plan.policy == policy {
		e.mu.Unlock()
		return
	}
	e.plan.setPolicy(policy)
	src := e.src
	replan := e.hasVisible && e.visStart != e.visEnd
	center := blockIndexFor((e.visStart+e.visEnd)/2, e.blockSize)
	e.mu.Unlock()

	if !replan || src == nil || e.closed.Load() {
		return
	}
	e.preloadAround(center, src.RowCount())
}

// SetScrollSpeed feeds an instantaneous scroll-speed sample (rows per
// second, non-negative) into the preload planner. The view collaborator
// is responsible for decaying the speed to zero on idle.
func (e *Engine) SetScrollSpeed(rowsPerSecond float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scrollSpeed = rowsPerSecond
	e.plan.observeSpeed(rowsPerSecond)
}

// SetVisibleRange reports the row interval currently shown by the
// consumer. Blocks covering it are fetched at high priority, the preload
// window around its center at low priority, and blocks outside the
// working set are evicted. The call only enqueues work and returns.
func (e *Engine) SetVisibleRange(startRow, endRow int) {
	if e.closed.Load() {
		return
	}
	e.mu.Lock()
	src := e.src
	e.mu.Unlock()
	if src == nil {
		return
	}

	total := src.RowCount()
	if total <= 0 {
		return
	}
	startRow = max(0, startRow)
	endRow = min(total-1, endRow)
	if startRow > endRow {
		return
	}

	e.mu.Lock()
	e.visStart, e.visEnd, e.hasVisible = startRow, endRow, true
	bs := e.blockSize
	startBlock := blockIndexFor(startRow, bs)
	endBlock := blockIndexFor(endRow, bs)
	notif := e.setStatusLocked(StatusLoadingVisible)
	e.mu.Unlock()
	e.notifyStatus(notif, StatusLoadingVisible)

	for b := startBlock; b <= endBlock; b++ {
		e.dispatch(b, priorityVisible)
	}

	e.preloadAround((startBlock+endBlock)/2, total)
	e.cleanup(total)

	// Everything visible may already have been cached.
	e.mu.Lock()
	var idle []StatusChangedFunc
	settled := e.visibleValidLocked()
	if settled {
		idle = e.setStatusLocked(StatusIdle)
	}
	e.mu.Unlock()
	if settled {
		e.notifyStatus(idle, StatusIdle)
	}
}

// JumpTo recenters the visible range on row, preserving the previous
// visible-range width (50 rows if none established), then behaves like
// SetVisibleRange.
func (e *Engine) JumpTo(row int) {
	e.mu.Lock()
	src := e.src
	width := e.visEnd - e.visStart + 1
	if !e.hasVisible || width <= 0 {
		width = defaultVisibleRows
	}
	e.mu.Unlock()

	if src == nil {
		return
	}
	total := src.RowCount()
	if row < 0 || row >= total {
		return
	}

	newStart := max(0, row-width/2)
	newEnd := min(total-1, newStart+width-1)
	e.SetVisibleRange(newStart, newEnd)
}

// Get returns the cell value at (row, col). ok is false when the owning
// block is not yet cached; in that case a high-priority load for the
// block is enqueued as a side effect and a later range-changed
// notification will cover the row.
func (e *Engine) Get(row, col int) (Value, bool) {
	if e.closed.Load() {
		return Value{}, false
	}
	e.mu.Lock()
	src, bs := e.src, e.blockSize
	e.mu.Unlock()
	if src == nil || row < 0 || col < 0 {
		return Value{}, false
	}
	if col >= src.ColumnCount() || row >= src.RowCount() {
		return Value{}, false
	}

	blockIndex := blockIndexFor(row, bs)
	rowInBlock := row % bs

	e.mu.Lock()
	if b, ok := e.blocks[blockIndex]; ok && b.valid {
		b.touch(time.Now().UnixMilli())
		var v Value
		if rowInBlock < len(b.rows) {
			if r := b.rows[rowInBlock]; col < len(r) {
				v = r[col]
			}
		}
		e.mu.Unlock()
		e.metrics.RecordCellLookup(true)
		return v, true
	}
	e.mu.Unlock()

	e.metrics.RecordCellLookup(false)
	e.dispatch(blockIndex, priorityVisible)
	return Value{}, false
}

// GetRow returns a copy of row if its owning block is cached.
func (e *Engine) GetRow(row int) (Row, bool) {
	if e.closed.Load() {
		return nil, false
	}
	e.mu.Lock()
	src, bs := e.src, e.blockSize
	e.mu.Unlock()
	if src == nil || row < 0 || row >= src.RowCount() {
		return nil, false
	}

	blockIndex := blockIndexFor(row, bs)
	rowInBlock := row % bs

	e.mu.Lock()
	if b, ok := e.blocks[blockIndex]; ok && b.valid && rowInBlock < len(b.rows) {
		b.touch(time.Now().UnixMilli())
		r := b.rows[rowInBlock].Clone()
		e.mu.Unlock()
		return r, true
	}
	e.mu.Unlock()

	e.dispatch(blockIndex, priorityVisible)
	return nil, false
}

// LoadAll loads every block of the bound source with bounded concurrency.
// Unlike range-driven loading nothing is evicted afterwards, so the whole
// data set ends up cached. Mainly useful for small sources and tooling.
func (e *Engine) LoadAll(ctx context.Context) error {
	if e.closed.Load() {
		return ErrEngineClosed
	}
	e.mu.Lock()
	src, gen, bs := e.src, e.generation, e.blockSize
	e.mu.Unlock()
	if src == nil {
		return ErrNoSource
	}

	total := src.RowCount()
	nblocks := totalBlocksFor(total, bs)
	if nblocks == 0 {
		return nil
	}

	e.mu.Lock()
	notif := e.setStatusLocked(StatusLoadingAll)
	e.mu.Unlock()
	e.notifyStatus(notif, StatusLoadingAll)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.pool.numWorkers)

	for i := 0; i < nblocks; i++ {
		blockIndex := i
		startRow, count := blockExtent(blockIndex, bs, total)
		if count <= 0 {
			continue
		}

		task := &loadTask{
			blockIndex: blockIndex,
			generation: gen,
			startRow:   startRow,
			count:      count,
			started:    time.Now(),
		}

		// Register in pending under the same lock as the checks, so
		// range-driven dispatches never double-load a block.
		e.mu.Lock()
		if e.generation != gen {
			e.mu.Unlock()
			break
		}
		_, isPending := e.pending[blockIndex]
		b, ok := e.blocks[blockIndex]
		if isPending || (ok && b.valid) {
			e.mu.Unlock()
			continue
		}
		e.pending[blockIndex] = task
		e.mu.Unlock()

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				e.mu.Lock()
				if cur, ok := e.pending[blockIndex]; ok && cur == task {
					delete(e.pending, blockIndex)
				}
				e.mu.Unlock()
				return err
			}
			e.complete(task, src.LoadRows(startRow, count))
			return nil
		})
	}

	err := g.Wait()

	e.mu.Lock()
	notif = e.setStatusLocked(StatusIdle)
	e.mu.Unlock()
	e.notifyStatus(notif, StatusIdle)

	return err
}

// preloadAround fetches the preload window around centerBlock at low
// priority.
func (e *Engine) preloadAround(centerBlock, totalRows int) {
	e.mu.Lock()
	startBlock, endBlock, ok := e.plan.rangeAround(centerBlock, totalBlocksFor(totalRows, e.blockSize))
	var notif []StatusChangedFunc
	// Visible loads outrank preloads in the reported status.
	if ok && e.status == StatusIdle {
		notif = e.setStatusLocked(StatusLoadingPreload)
	}
	e.mu.Unlock()
	if !ok {
		return
	}
	e.notifyStatus(notif, StatusLoadingPreload)

	for b := startBlock; b <= endBlock; b++ {
		e.dispatch(b, priorityBackground)
	}
}

// cleanup evicts blocks outside the must-keep set beyond the retention
// margin. Skipped entirely while the cache is small.
func (e *Engine) cleanup(totalRows int) {
	e.mu.Lock()
	if len(e.blocks) <= cleanupThreshold {
		e.mu.Unlock()
		return
	}

	bs := e.blockSize
	center := (blockIndexFor(e.visStart, bs) + blockIndexFor(e.visEnd, bs)) / 2
	keepStart, keepEnd, _ := e.plan.rangeAround(center, totalBlocksFor(totalRows, bs))

	type accessed struct {
		last int64
		idx  int
	}
	var others []accessed
	for idx, b := range e.blocks {
		if idx >= keepStart && idx <= keepEnd {
			continue
		}
		others = append(others, accessed{last: b.lastAccess, idx: idx})
	}

	// Most recently accessed first; everything past the margin goes.
	sort.Slice(others, func(i, j int) bool { return others[i].last > others[j].last })

	dropped := 0
	for i := e.retainMargin; i < len(others); i++ {
		delete(e.blocks, others[i].idx)
		dropped++
	}
	e.mu.Unlock()

	if dropped > 0 {
		e.metrics.RecordEviction(dropped)
		e.logger.Debug("evicted blocks", "count", dropped)
	}
}

// visibleValidLocked reports whether every block covering the visible
// range is cached and valid. Callers must hold e.mu.
func (e *Engine) visibleValidLocked() bool {
	if !e.hasVisible {
		return true
	}
	startBlock := blockIndexFor(e.visStart, e.blockSize)
	endBlock := blockIndexFor(e.visEnd, e.blockSize)
	for i := startBlock; i <= endBlock; i++ {
		b, ok := e.blocks[i]
		if !ok || !b.valid {
			return false
		}
	}
	return true
}

// invalidateLocked discards all blocks and cancels all pending loads.
// Completions for canceled tasks are discarded by the generation check.
// Callers must hold e.mu. Returns the number of blocks dropped.
func (e *Engine) invalidateLocked() int {
	e.generation++
	for _, task := range e.pending {
		task.cancelled.Store(true)
	}
	dropped := len(e.blocks)
	e.blocks = make(map[int]*block)
	e.pending = make(map[int]*loadTask)
	return dropped
}

// touch advances the block's last-access stamp. The stamp only ever
// increases, even if the wall clock steps backwards.
func (b *block) touch(now int64) {
	if now > b.lastAccess {
		b.lastAccess = now
	}
}
