package gridgo

// LoadingStatus reflects the most recent load activity of an Engine.
type LoadingStatus uint8

const (
	// StatusIdle means every block covering the visible range is cached.
	StatusIdle LoadingStatus = iota
	// StatusLoadingVisible means blocks covering the visible range are
	// still in flight.
	StatusLoadingVisible
	// StatusLoadingPreload means only speculative preloads are in flight.
	StatusLoadingPreload
	// StatusLoadingAll means a bulk LoadAll pass is running.
	StatusLoadingAll
)

// String implements fmt.Stringer.
func (s LoadingStatus) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoadingVisible:
		return "loading-visible"
	case StatusLoadingPreload:
		return "loading-preload"
	case StatusLoadingAll:
		return "loading-all"
	default:
		return "unknown"
	}
}

// RangeChangedFunc is invoked after a block load completes, with the
// inclusive row range whose cells became available.
type RangeChangedFunc func(topRow, bottomRow int)

// StatusChangedFunc is invoked on loading-status transitions.
type StatusChangedFunc func(status LoadingStatus)

// OnRangeChanged registers a listener for changed-range notifications.
// Listeners are invoked outside the engine lock, from the worker that
// completed the load; they must not block for long.
func (e *Engine) OnRangeChanged(fn RangeChangedFunc) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rangeListeners = append(e.rangeListeners, fn)
}

// OnStatusChanged registers a listener for loading-status transitions.
func (e *Engine) OnStatusChanged(fn StatusChangedFunc) {
	if fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusListeners = append(e.statusListeners, fn)
}

// notifyRange fires range listeners. Callers must not hold e.mu.
func (e *Engine) notifyRange(listeners []RangeChangedFunc, top, bottom int) {
	for _, fn := range listeners {
		fn(top, bottom)
	}
}

// notifyStatus fires status listeners. Callers must not hold e.mu.
func (e *Engine) notifyStatus(listeners []StatusChangedFunc, status LoadingStatus) {
	for _, fn := range listeners {
		fn(status)
	}
}

// setStatusLocked updates the loading status and returns the listeners to
// notify, nil when the status did not change. Callers must hold e.mu and
// fire the returned listeners after releasing it.
func (e *Engine) setStatusLocked(status LoadingStatus) []StatusChangedFunc {
	if e.status == status {
		return nil
	}
	e.status = status
	if len(e.statusListeners) == 0 {
		return nil
	}
	out := make([]StatusChangedFunc, len(e.statusListeners))
	copy(out, e.statusListeners)
	return out
}
