package csv

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hupe1980/gridgo"
	"github.com/hupe1980/gridgo/internal/cache"
	"github.com/hupe1980/gridgo/internal/mmap"
)

var (
	// ErrEmptyFile is returned when the file contains no bytes.
	ErrEmptyFile = errors.New("csv: file is empty")

	// ErrHeaderTooLong is returned when no line terminator is found
	// within the mapped header prefix.
	ErrHeaderTooLong = errors.New("csv: header line exceeds mapped prefix")

	// ErrNoColumns is returned when the header line yields no fields.
	ErrNoColumns = errors.New("csv: header has no columns")
)

// Source is a gridgo.Source over a delimited text file.
//
// All file, index, and cache state is guarded by a single mutex; the
// source may be called concurrently from multiple block-load workers.
// Only one bounded window of the file is mapped at a time, so peak
// memory stays flat regardless of file size.
type Source struct {
	mu sync.Mutex

	path     string
	inflated string // temp file when the input was gzip-compressed
	f        *os.File
	size     int64

	delimiter byte
	hasHeader bool
	header    []string
	cols      int

	// offsets[i] is the byte offset of discovered line i (the header
	// counts as line 0 when present). Strictly increasing, append-only.
	offsets []int64
	// next is the byte position where offset discovery resumes.
	next int64

	rowCount int // -1 until counted

	rows *cache.LRU[int, gridgo.Row]

	windowSize int64
	fallback   int64

	valid bool
	err   error

	logger *gridgo.Logger
}

// Open opens a delimited text file and parses its header line. The
// whole file is never scanned here: only a bounded prefix is mapped to
// locate the header.
func Open(path string, optFns ...Option) (*Source, error) {
	o := applyOptions(optFns)

	s := &Source{
		path:       path,
		delimiter:  o.delimiter,
		hasHeader:  o.hasHeader,
		rowCount:   -1,
		rows:       cache.New[int, gridgo.Row](o.rowCacheSize),
		windowSize: o.windowSize,
		fallback:   min(fallbackWindowSize, o.windowSize),
		logger:     o.logger,
	}

	if err := s.initialize(); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *Source) initialize() error {
	path := s.path
	if isGzipPath(path) {
		inflated, err := inflate(path)
		if err != nil {
			return err
		}
		s.inflated = inflated
		path = inflated
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("csv: open %s: %w", s.path, err)
	}
	s.f = f

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("csv: stat %s: %w", s.path, err)
	}
	s.size = fi.Size()
	if s.size == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, s.path)
	}

	headerLen := min(s.size, headerMapLimit)
	w, err := mmap.Map(f, 0, headerLen)
	if err != nil {
		return fmt.Errorf("csv: map header of %s: %w", s.path, err)
	}
	defer w.Close()

	// Skip leading empty lines; the first non-empty line determines the
	// column layout whether or not it is a header.
	data := w.Bytes()
	start := 0
	for start < len(data) && data[start] == '\n' {
		start++
	}
	if start == len(data) {
		return fmt.Errorf("%w: %s", ErrEmptyFile, s.path)
	}

	headerEnd := -1
	for i := start; i < len(data); i++ {
		if data[i] == '\n' {
			headerEnd = i
			break
		}
	}
	if headerEnd < 0 {
		if int64(len(data)) < s.size {
			return fmt.Errorf("%w: %s", ErrHeaderTooLong, s.path)
		}
		headerEnd = len(data) // single unterminated line
	}

	s.header = parseFields(string(data[start:headerEnd]), s.delimiter)
	s.cols = len(s.header)
	if s.cols == 1 && s.header[0] == "" {
		return fmt.Errorf("%w: %s", ErrNoColumns, s.path)
	}

	if s.hasHeader {
		s.offsets = []int64{int64(start)}
		s.next = int64(headerEnd) + 1
	} else {
		s.offsets = nil
		s.next = 0
	}

	s.valid = true
	return nil
}

// Close releases the file handle and any temporary inflated copy.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.close()
}

func (s *Source) close() error {
	s.valid = false
	var err error
	if s.f != nil {
		err = s.f.Close()
		s.f = nil
	}
	if s.inflated != "" {
		if rmErr := os.Remove(s.inflated); rmErr != nil && err == nil {
			err = rmErr
		}
		s.inflated = ""
	}
	s.rows.Purge()
	return err
}

// Err returns the retained diagnostic from the most recent failure, nil
// when healthy.
func (s *Source) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Path returns the path the source was opened with.
func (s *Source) Path() string {
	return s.path
}

// Header implements gridgo.Source.
func (s *Source) Header() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header
}

// ColumnCount implements gridgo.Source.
func (s *Source) ColumnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols
}

// RowCount implements gridgo.Source. The count is computed lazily on
// first call by scanning the remainder of the file in bounded windows,
// and cached thereafter. It returns 0 when the source is invalid or
// counting fails; never a negative or partial value.
func (s *Source) RowCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowCountLocked()
}

func (s *Source) rowCountLocked() int {
	if !s.valid {
		return 0
	}
	if s.rowCount >= 0 {
		return s.rowCount
	}

	discovered := len(s.offsets) - s.headerLines()
	remaining, ok := s.countFromLocked(s.next)
	if !ok {
		s.err = fmt.Errorf("csv: count rows of %s: mapping failed", s.path)
		s.logger.Warn("row count failed", "path", s.path)
		return 0
	}

	s.rowCount = discovered + remaining
	return s.rowCount
}

// LoadRows implements gridgo.Source. It returns up to count rows
// starting at startRow, fewer at end of data. Rows come from the LRU
// when cached, otherwise from a bounded mapped window, and every parsed
// row is cached.
func (s *Source) LoadRows(startRow, count int) []gridgo.Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.valid || startRow < 0 || count <= 0 {
		return nil
	}

	total := s.rowCountLocked()
	if startRow >= total {
		return nil
	}
	end := min(startRow+count, total)

	out := make([]gridgo.Row, 0, end-startRow)
	for r := startRow; r < end; r++ {
		if row, ok := s.rows.Get(r); ok {
			out = append(out, row)
			continue
		}

		row, ok := s.readRowLocked(r)
		if !ok {
			break
		}
		s.rows.Put(r, row)
		out = append(out, row)
	}
	return out
}

// headerLines returns how many leading offset entries belong to the
// header rather than data.
func (s *Source) headerLines() int {
	if s.hasHeader {
		return 1
	}
	return 0
}

// readRowLocked resolves row's offset, maps its window, and parses the
// line into a typed row.
func (s *Source) readRowLocked(row int) (gridgo.Row, bool) {
	line := row + s.headerLines()
	if !s.ensureOffsetLocked(line) {
		return nil, false
	}

	text, ok := s.readLineLocked(s.offsets[line])
	if !ok {
		return nil, false
	}
	return typedRow(parseFields(text, s.delimiter), s.cols), true
}
