package csv

import (
	"github.com/hupe1980/gridgo/internal/mmap"
)

// ensureOffsetLocked extends the offset index until it covers line,
// scanning forward in bounded windows from the last known position. It
// returns false when line lies past the end of the file or a window
// cannot be mapped.
func (s *Source) ensureOffsetLocked(line int) bool {
	for len(s.offsets) <= line {
		if s.next >= s.size {
			return false
		}

		starts, next, ok := s.scanWindowLocked(s.next)
		if !ok {
			return false
		}

		s.offsets = append(s.offsets, starts...)
		s.next = next
	}
	return true
}

// countFromLocked counts the non-empty lines from the given byte
// position to the end of the file without extending the offset index.
// It uses the same window segmentation as ensureOffsetLocked, so the
// count always agrees with later discovery.
func (s *Source) countFromLocked(from int64) (int, bool) {
	n := 0
	for from < s.size {
		starts, next, ok := s.scanWindowLocked(from)
		if !ok {
			return 0, false
		}
		n += len(starts)
		from = next
	}
	return n, true
}

// scanWindowLocked maps a single window at from and reports the
// absolute offsets of the non-empty line starts inside it. A line cut
// off by the window end is rescanned from its own start in the next
// window; only a line filling an entire window on its own is treated
// as ending at the window end, so the window size bounds the length of
// any one row.
func (s *Source) scanWindowLocked(from int64) (starts []int64, next int64, ok bool) {
	w, err := s.mapWindowLocked(from)
	if err != nil {
		s.err = err
		s.logger.Warn("window mapping failed", "path", s.path, "offset", from, "error", err)
		return nil, 0, false
	}
	defer w.Close()

	_ = w.Advise(mmap.AccessSequential)

	data := w.Bytes()
	pos := 0
	for pos < len(data) {
		if data[pos] == '\n' {
			pos++
			continue
		}

		lineStart := pos
		for pos < len(data) && data[pos] != '\n' {
			pos++
		}
		if pos == len(data) && from+int64(pos) < s.size {
			if lineStart > 0 {
				return starts, from + int64(lineStart), true
			}
			// The line fills the whole window on its own: it is
			// truncated here, and the cut-off tail up to its real
			// terminator is skipped so it never surfaces as rows.
			starts = append(starts, from)
			next, ok := s.skipLineTailLocked(from + int64(pos))
			if !ok {
				return nil, 0, false
			}
			return starts, next, true
		}

		starts = append(starts, from+int64(lineStart))
		if pos < len(data) {
			pos++
		}
	}
	return starts, from + int64(len(data)), true
}

// skipLineTailLocked advances past the remainder of an oversized line,
// returning the position just after its terminator (or the file end).
func (s *Source) skipLineTailLocked(from int64) (int64, bool) {
	for from < s.size {
		w, err := s.mapWindowLocked(from)
		if err != nil {
			s.err = err
			s.logger.Warn("window mapping failed", "path", s.path, "offset", from, "error", err)
			return 0, false
		}

		data := w.Bytes()
		for i, c := range data {
			if c == '\n' {
				w.Close()
				return from + int64(i) + 1, true
			}
		}
		from += int64(len(data))
		w.Close()
	}
	return from, true
}

// readLineLocked maps the window containing off and extracts the line
// starting there, up to the terminator or the window end.
func (s *Source) readLineLocked(off int64) (string, bool) {
	w, err := s.mapWindowLocked(off)
	if err != nil {
		s.err = err
		s.logger.Warn("window mapping failed", "path", s.path, "offset", off, "error", err)
		return "", false
	}
	defer w.Close()

	data := w.Bytes()
	for i, c := range data {
		if c == '\n' {
			return string(data[:i]), true
		}
	}
	return string(data), true
}

// mapWindowLocked maps up to windowSize bytes at off, retrying once
// with the smaller fallback size when the primary mapping fails.
func (s *Source) mapWindowLocked(off int64) (*mmap.Window, error) {
	length := min(s.windowSize, s.size-off)
	w, err := mmap.Map(s.f, off, length)
	if err == nil {
		return w, nil
	}

	length = min(s.fallback, s.size-off)
	return mmap.Map(s.f, off, length)
}
