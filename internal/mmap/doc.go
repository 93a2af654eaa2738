// Package mmap provides scoped, windowed memory-mapped file access.
//
// # Overview
//
// Callers map a bounded byte window of a file, read through it, and
// release it deterministically. Mapping one window at a time keeps peak
// memory bounded regardless of file size, which is what makes lazily
// indexing multi-gigabyte delimited files practical.
//
// # Usage
//
//	w, err := mmap.Map(f, offset, length)
//	if err != nil { ... }
//	defer w.Close()
//
//	data := w.Bytes() // the requested [offset, offset+length) range
//
// Offsets are page-aligned internally; Bytes always returns exactly the
// requested range.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (advice is a no-op)
//
// # Thread Safety
//
// A Window is safe for concurrent reads. Close is idempotent and
// protected by atomic operations; callers must ensure no goroutine
// accesses Bytes() after Close() returns.
package mmap
