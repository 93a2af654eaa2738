package gridgo

import "errors"

var (
	// ErrEngineClosed is returned when work is submitted after Close.
	ErrEngineClosed = errors.New("gridgo: engine is closed")

	// ErrNoSource is returned by operations that require a bound source.
	ErrNoSource = errors.New("gridgo: no source bound")

	// ErrInvalidBlockSize is returned when a non-positive block size is
	// configured.
	ErrInvalidBlockSize = errors.New("gridgo: block size must be positive")
)
