//go:build windows

package mmap

import (
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	granularityOnce sync.Once
	granularity     int
)

// pageSize returns the mapping alignment unit. On Windows, view offsets
// must be aligned to the allocation granularity (64 KiB), not the page.
func pageSize() int {
	granularityOnce.Do(func() {
		var si windows.SystemInfo
		windows.GetSystemInfo(&si)
		granularity = int(si.AllocationGranularity)
		if granularity == 0 {
			granularity = 64 * 1024
		}
	})
	return granularity
}

func osMap(f *os.File, off int64, length int) ([]byte, func([]byte) error, error) {
	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return nil, nil, err
	}
	// The view holds a reference; the mapping handle can close now.
	defer windows.CloseHandle(h)

	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ,
		uint32(off>>32), uint32(off&0xFFFFFFFF), uintptr(length))
	if err != nil {
		return nil, nil, err
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)

	return data, func([]byte) error {
		return windows.UnmapViewOfFile(addr)
	}, nil
}

func osAdvise(data []byte, pattern AccessPattern) error {
	// Windows has no direct madvise equivalent; the OS page cache still
	// works effectively for sequential access.
	_ = data
	_ = pattern
	return nil
}
