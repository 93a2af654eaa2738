package gridgo

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource is a deterministic Source where cell (r, c) holds
// base+r*100+c, with an optional per-load delay.
type stubSource struct {
	rows, cols int
	base       int64
	delay      time.Duration

	loadCalls atomic.Int64
}

func (s *stubSource) RowCount() int    { return s.rows }
func (s *stubSource) ColumnCount() int { return s.cols }

func (s *stubSource) Header() []string {
	h := make([]string, s.cols)
	for i := range h {
		h[i] = "col" + strconv.Itoa(i)
	}
	return h
}

func (s *stubSource) LoadRows(startRow, count int) []Row {
	s.loadCalls.Add(1)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if startRow < 0 || startRow >= s.rows || count <= 0 {
		return nil
	}

	end := min(startRow+count, s.rows)
	out := make([]Row, 0, end-startRow)
	for r := startRow; r < end; r++ {
		row := make(Row, s.cols)
		for c := range row {
			row[c] = Int(s.base + int64(r*100+c))
		}
		out = append(out, row)
	}
	return out
}

func waitIdle(t *testing.T, e *Engine) {
	t.Helper()
	require.Eventually(t, func() bool {
		return e.Status() == StatusIdle && len(e.PendingBlocks()) == 0
	}, 2*time.Second, 2*time.Millisecond)
}

func TestSetVisibleRangeLoadsVisibleAndPreload(t *testing.T) {
	src := &stubSource{rows: 10, cols: 3}
	e := NewEngine(src, WithBlockSize(4), WithPreloadPolicy(Balanced))
	defer e.Close()

	var mu sync.Mutex
	var ranges [][2]int
	e.OnRangeChanged(func(top, bottom int) {
		mu.Lock()
		ranges = append(ranges, [2]int{top, bottom})
		mu.Unlock()
	})

	e.SetVisibleRange(3, 5)
	waitIdle(t, e)

	// Rows 3-5 touch blocks 0 and 1; the preload window around their
	// center reaches block 2, covering the whole 10-row source.
	assert.Equal(t, []int{0, 1, 2}, e.CachedBlocks())

	start, end, ok := e.VisibleRange()
	assert.True(t, ok)
	assert.Equal(t, 3, start)
	assert.Equal(t, 5, end)

	covered := make(map[int]bool)
	mu.Lock()
	for _, r := range ranges {
		for row := r[0]; row <= r[1]; row++ {
			covered[row] = true
		}
	}
	mu.Unlock()
	for row := 0; row < 10; row++ {
		assert.True(t, covered[row], "row %d not covered by any notification", row)
	}

	v, ok := e.Get(5, 2)
	assert.True(t, ok)
	assert.Equal(t, Int(502), v)
}

func TestVisibleRangeClamped(t *testing.T) {
	src := &stubSource{rows: 10, cols: 2}
	e := NewEngine(src, WithBlockSize(4))
	defer e.Close()

	e.SetVisibleRange(-5, 100)
	waitIdle(t, e)

	start, end, ok := e.VisibleRange()
	assert.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, 9, end)
}

func TestStatusTransitions(t *testing.T) {
	src := &stubSource{rows: 10, cols: 2, delay: 5 * time.Millisecond}
	e := NewEngine(src, WithBlockSize(4))
	defer e.Close()

	var mu sync.Mutex
	var seen []LoadingStatus
	e.OnStatusChanged(func(s LoadingStatus) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	e.SetVisibleRange(0, 7)
	waitIdle(t, e)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, StatusLoadingVisible, seen[0])
	assert.Equal(t, StatusIdle, seen[len(seen)-1])
}

func TestGetMissDispatchesLoad(t *testing.T) {
	src := &stubSource{rows: 100, cols: 2}
	metrics := &BasicMetricsCollector{}
	e := NewEngine(src, WithBlockSize(10), WithMetricsCollector(metrics))
	defer e.Close()

	_, ok := e.Get(42, 1)
	assert.False(t, ok)

	require.Eventually(t, func() bool {
		v, ok := e.Get(42, 1)
		return ok && v == Int(4201)
	}, 2*time.Second, 2*time.Millisecond)

	stats := metrics.GetStats()
	assert.GreaterOrEqual(t, stats.CellMisses, int64(1))
	assert.GreaterOrEqual(t, stats.CellHits, int64(1))
}

func TestGetOutOfBounds(t *testing.T) {
	src := &stubSource{rows: 10, cols: 2}
	e := NewEngine(src, WithBlockSize(4))
	defer e.Close()

	_, ok := e.Get(-1, 0)
	assert.False(t, ok)
	_, ok = e.Get(10, 0)
	assert.False(t, ok)
	_, ok = e.Get(0, 2)
	assert.False(t, ok)
	assert.Empty(t, e.PendingBlocks(), "out-of-bounds reads must not dispatch")
}

func TestGetRow(t *testing.T) {
	src := &stubSource{rows: 10, cols: 3}
	e := NewEngine(src, WithBlockSize(4))
	defer e.Close()

	e.SetVisibleRange(0, 9)
	waitIdle(t, e)

	row, ok := e.GetRow(6)
	require.True(t, ok)
	assert.Equal(t, Row{Int(600), Int(601), Int(602)}, row)

	// The returned row is a copy.
	row[0] = Int(-1)
	again, ok := e.GetRow(6)
	require.True(t, ok)
	assert.Equal(t, Int(600), again[0])
}

func TestDispatchIdempotent(t *testing.T) {
	src := &stubSource{rows: 10, cols: 2, delay: 20 * time.Millisecond}
	e := NewEngine(src, WithBlockSize(4), WithPreloadPolicy(Balanced))
	defer e.Close()

	e.SetVisibleRange(0, 7)
	e.SetVisibleRange(0, 7)
	e.SetVisibleRange(0, 7)
	waitIdle(t, e)

	// Blocks 0, 1, 2 each loaded exactly once despite repeated range
	// updates and overlapping preload dispatches.
	assert.Equal(t, int64(3), src.loadCalls.Load())
}

func TestSetSourceInvalidates(t *testing.T) {
	oldSrc := &stubSource{rows: 10, cols: 2, delay: 30 * time.Millisecond}
	e := NewEngine(oldSrc, WithBlockSize(4))
	defer e.Close()

	e.SetVisibleRange(0, 7)

	// Replace the source while the old loads are still in flight; their
	// completions must be discarded.
	newSrc := &stubSource{rows: 10, cols: 2, base: 100000}
	e.SetSource(newSrc)

	_, _, ok := e.VisibleRange()
	assert.False(t, ok)

	e.SetVisibleRange(0, 7)
	require.Eventually(t, func() bool {
		v, ok := e.Get(0, 0)
		return ok && v == Int(100000)
	}, 2*time.Second, 2*time.Millisecond)
	waitIdle(t, e)

	v, ok := e.Get(5, 1)
	require.True(t, ok)
	assert.Equal(t, Int(100501), v)
}

func TestSetBlockSize(t *testing.T) {
	src := &stubSource{rows: 10, cols: 2}
	e := NewEngine(src, WithBlockSize(4))
	defer e.Close()

	assert.ErrorIs(t, e.SetBlockSize(0), ErrInvalidBlockSize)
	assert.ErrorIs(t, e.SetBlockSize(-3), ErrInvalidBlockSize)

	e.SetVisibleRange(0, 7)
	waitIdle(t, e)
	require.NotEmpty(t, e.CachedBlocks())

	// Same size is a no-op and keeps the cache.
	require.NoError(t, e.SetBlockSize(4))
	assert.NotEmpty(t, e.CachedBlocks())

	// A new size moves every block boundary, so the cache is discarded.
	require.NoError(t, e.SetBlockSize(5))
	assert.Empty(t, e.CachedBlocks())
	assert.Empty(t, e.PendingBlocks())
	assert.Equal(t, StatusIdle, e.Status())
}

func TestJumpTo(t *testing.T) {
	src := &stubSource{rows: 1000, cols: 2}
	e := NewEngine(src, WithBlockSize(100))
	defer e.Close()

	// Without an established range the default width of 50 applies.
	e.JumpTo(500)
	start, end, ok := e.VisibleRange()
	require.True(t, ok)
	assert.Equal(t, 475, start)
	assert.Equal(t, 524, end)
	waitIdle(t, e)

	// The width is preserved on subsequent jumps.
	e.SetVisibleRange(0, 19)
	waitIdle(t, e)
	e.JumpTo(700)
	start, end, _ = e.VisibleRange()
	assert.Equal(t, 690, start)
	assert.Equal(t, 709, end)
	waitIdle(t, e)

	// Clamped at the edges.
	e.JumpTo(0)
	start, _, _ = e.VisibleRange()
	assert.Equal(t, 0, start)
	waitIdle(t, e)

	// Out-of-range targets are ignored.
	e.JumpTo(-1)
	e.JumpTo(1000)
	start, end, _ = e.VisibleRange()
	assert.Equal(t, 0, start)
}

func TestLoadAll(t *testing.T) {
	src := &stubSource{rows: 10, cols: 2}
	e := NewEngine(src, WithBlockSize(4))
	defer e.Close()

	require.NoError(t, e.LoadAll(context.Background()))

	assert.Equal(t, []int{0, 1, 2}, e.CachedBlocks())
	assert.Equal(t, StatusIdle, e.Status())

	v, ok := e.Get(9, 1)
	require.True(t, ok)
	assert.Equal(t, Int(901), v)
}

func TestLoadAllConcurrentRangeLoadsOnce(t *testing.T) {
	src := &stubSource{rows: 12, cols: 2, delay: 10 * time.Millisecond}
	e := NewEngine(src, WithBlockSize(4))
	defer e.Close()

	done := make(chan error, 1)
	go func() { done <- e.LoadAll(context.Background()) }()

	// A range update racing the bulk load must not double-load blocks.
	time.Sleep(time.Millisecond)
	e.SetVisibleRange(0, 11)

	require.NoError(t, <-done)
	waitIdle(t, e)

	assert.Equal(t, []int{0, 1, 2}, e.CachedBlocks())
	assert.Equal(t, int64(3), src.loadCalls.Load())
}

func TestPreloadRateLimit(t *testing.T) {
	src := &stubSource{rows: 100, cols: 2}
	e := NewEngine(src,
		WithBlockSize(10),
		WithPreloadPolicy(Balanced),
		WithPreloadRateLimit(0.001, 1),
	)
	defer e.Close()

	// Rows 0-9 are block 0; the preload window wants blocks 1 and 2,
	// but the limiter's burst of one lets only the first through.
	e.SetVisibleRange(0, 9)
	waitIdle(t, e)

	assert.Equal(t, []int{0, 1}, e.CachedBlocks())

	// Visible-priority loads bypass the limiter.
	_, ok := e.Get(25, 0)
	assert.False(t, ok)
	require.Eventually(t, func() bool {
		v, ok := e.Get(25, 0)
		return ok && v == Int(2500)
	}, 2*time.Second, 2*time.Millisecond)
}

func TestLoadAllNoSource(t *testing.T) {
	e := NewEngine(nil)
	defer e.Close()

	assert.ErrorIs(t, e.LoadAll(context.Background()), ErrNoSource)
}

func TestCleanupEvictsOutsideWorkingSet(t *testing.T) {
	src := &stubSource{rows: 30, cols: 2}
	metrics := &BasicMetricsCollector{}
	e := NewEngine(src,
		WithBlockSize(1),
		WithPreloadPolicy(Conservative),
		WithRetainMargin(2),
		WithMetricsCollector(metrics),
	)
	defer e.Close()

	require.NoError(t, e.LoadAll(context.Background()))
	require.Len(t, e.CachedBlocks(), 30)

	e.SetVisibleRange(5, 5)

	// Keep set: preload range {5, 6} plus the 2 most recently used
	// blocks outside it.
	cached := e.CachedBlocks()
	assert.Len(t, cached, 4)
	assert.Contains(t, cached, 5)
	assert.Contains(t, cached, 6)

	stats := metrics.GetStats()
	assert.GreaterOrEqual(t, stats.EvictedBlocks, int64(26))
}

func TestCleanupSkippedWhenSmall(t *testing.T) {
	src := &stubSource{rows: 10, cols: 2}
	e := NewEngine(src, WithBlockSize(1), WithRetainMargin(0))
	defer e.Close()

	require.NoError(t, e.LoadAll(context.Background()))
	require.Len(t, e.CachedBlocks(), 10)

	e.SetVisibleRange(0, 0)
	waitIdle(t, e)

	// At or below the threshold nothing is evicted.
	assert.Len(t, e.CachedBlocks(), 10)
}

func TestScrollSpeedAdaptsPreload(t *testing.T) {
	e := NewEngine(&stubSource{rows: 10, cols: 1}, WithPreloadPolicy(Aggressive))
	defer e.Close()

	ahead, behind := e.PreloadCounts()
	assert.Equal(t, 5, ahead)
	assert.Equal(t, 2, behind)

	e.SetScrollSpeed(6000)
	ahead, behind = e.PreloadCounts()
	assert.Equal(t, 2, ahead)
	assert.Equal(t, 1, behind)

	e.SetScrollSpeed(9000)
	ahead, behind = e.PreloadCounts()
	assert.Equal(t, 1, ahead)
	assert.Equal(t, 0, behind)

	// Floor holds under further fast samples.
	e.SetScrollSpeed(20000)
	ahead, behind = e.PreloadCounts()
	assert.Equal(t, 1, ahead)
	assert.Equal(t, 0, behind)

	// Mid-range speeds leave the counts as they are.
	e.SetScrollSpeed(2000)
	ahead, behind = e.PreloadCounts()
	assert.Equal(t, 1, ahead)
	assert.Equal(t, 0, behind)

	// A slow sample restores the policy base; zero does not.
	e.SetScrollSpeed(100)
	ahead, behind = e.PreloadCounts()
	assert.Equal(t, 5, ahead)
	assert.Equal(t, 2, behind)

	e.SetScrollSpeed(6000)
	e.SetScrollSpeed(0)
	ahead, behind = e.PreloadCounts()
	assert.Equal(t, 2, ahead)
	assert.Equal(t, 1, behind)
}

func TestSetPreloadPolicyResetsCounts(t *testing.T) {
	e := NewEngine(&stubSource{rows: 10, cols: 1}, WithPreloadPolicy(Aggressive))
	defer e.Close()

	e.SetScrollSpeed(6000)
	e.SetPreloadPolicy(Conservative)

	ahead, behind := e.PreloadCounts()
	assert.Equal(t, 1, ahead)
	assert.Equal(t, 0, behind)
}

func TestHeaderAndRowLabels(t *testing.T) {
	src := &stubSource{rows: 10, cols: 2}
	e := NewEngine(src)
	defer e.Close()

	assert.Equal(t, "col0", e.HeaderLabel(0))
	assert.Equal(t, "col1", e.HeaderLabel(1))
	assert.Equal(t, "Column 3", e.HeaderLabel(2))
	assert.Equal(t, "Column 0", e.HeaderLabel(-1))

	assert.Equal(t, "1", e.RowLabel(0))
	assert.Equal(t, "42", e.RowLabel(41))
}

func TestNoSource(t *testing.T) {
	e := NewEngine(nil)
	defer e.Close()

	assert.Equal(t, 0, e.RowCount())
	assert.Equal(t, 0, e.ColumnCount())
	assert.Nil(t, e.Header())

	e.SetVisibleRange(0, 10)
	_, _, ok := e.VisibleRange()
	assert.False(t, ok)

	_, got := e.Get(0, 0)
	assert.False(t, got)
}

func TestClose(t *testing.T) {
	src := &stubSource{rows: 10, cols: 2}
	e := NewEngine(src, WithBlockSize(4))

	e.SetVisibleRange(0, 7)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())

	_, ok := e.Get(0, 0)
	assert.False(t, ok)
	assert.ErrorIs(t, e.LoadAll(context.Background()), ErrEngineClosed)
	assert.Empty(t, e.CachedBlocks())
	assert.Empty(t, e.PendingBlocks())
}
