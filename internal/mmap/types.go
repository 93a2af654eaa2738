package mmap

import "errors"

// AccessPattern provides hints to the kernel about how the data will be
// accessed.
type AccessPattern int

const (
	// AccessDefault is the default access pattern (no specific advice).
	AccessDefault AccessPattern = iota
	// AccessSequential expects data to be accessed sequentially.
	AccessSequential
	// AccessRandom expects data to be accessed randomly.
	AccessRandom
	// AccessWillNeed expects data to be accessed in the near future.
	AccessWillNeed
)

var (
	// ErrClosed is returned when attempting to access a closed window.
	ErrClosed = errors.New("mmap: window is closed")
	// ErrInvalidRange is returned when the requested byte range is
	// negative or lies outside the file.
	ErrInvalidRange = errors.New("mmap: invalid byte range")
)
