package mmap

import (
	"os"
	"sync/atomic"
)

// Window is a read-only mapping of a bounded byte range of a file.
// It owns the underlying mapping and is responsible for releasing it.
type Window struct {
	data   []byte // full page-aligned mapping
	head   int    // bytes between the aligned start and the requested offset
	length int    // requested window length
	closed atomic.Bool
	// unmap is the platform-specific function to release the mapping.
	unmap func([]byte) error
}

// Map maps the byte range [off, off+length) of f read-only.
//
// The offset is aligned down to the page size internally, so any offset
// is acceptable. length must be positive and the range must lie within
// the file; callers clamp against the file size.
func Map(f *os.File, off, length int64) (*Window, error) {
	if off < 0 || length <= 0 {
		return nil, ErrInvalidRange
	}

	page := int64(pageSize())
	aligned := off - off%page
	mapLen := length + (off - aligned)

	data, unmapFunc, err := osMap(f, aligned, int(mapLen))
	if err != nil {
		return nil, err
	}

	return &Window{
		data:   data,
		head:   int(off - aligned),
		length: int(length),
		unmap:  unmapFunc,
	}, nil
}

// Bytes returns the requested byte range. The slice is valid only until
// Close is called.
func (w *Window) Bytes() []byte {
	if w.closed.Load() {
		return nil
	}
	return w.data[w.head : w.head+w.length]
}

// Len returns the requested window length.
func (w *Window) Len() int {
	return w.length
}

// Close releases the mapping. It is idempotent.
func (w *Window) Close() error {
	if w.closed.Swap(true) {
		return nil // Already closed
	}
	if w.unmap != nil && w.data != nil {
		return w.unmap(w.data)
	}
	return nil
}

// Advise provides hints to the kernel about how the window will be
// accessed.
func (w *Window) Advise(pattern AccessPattern) error {
	if w.closed.Load() {
		return ErrClosed
	}
	if len(w.data) == 0 {
		return nil
	}
	return osAdvise(w.data, pattern)
}
