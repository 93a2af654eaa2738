package csv

import "github.com/hupe1980/gridgo"

const (
	// defaultWindowSize is the primary mapping window.
	defaultWindowSize = 1 << 20 // 1 MiB

	// fallbackWindowSize is retried when mapping the primary window
	// fails.
	fallbackWindowSize = 64 << 10 // 64 KiB

	// headerMapLimit bounds the prefix mapped to locate the header line.
	headerMapLimit = 1 << 20

	// defaultRowCacheSize bounds the parsed-row LRU.
	defaultRowCacheSize = 50000
)

type options struct {
	delimiter    byte
	hasHeader    bool
	rowCacheSize int
	windowSize   int64
	logger       *gridgo.Logger
}

// Option configures Open behavior.
type Option func(*options)

// WithDelimiter sets the single-character field delimiter (default ',').
func WithDelimiter(delimiter byte) Option {
	return func(o *options) {
		o.delimiter = delimiter
	}
}

// WithoutHeader treats the first line as data. Column count and display
// names are still taken from the first line's fields.
func WithoutHeader() Option {
	return func(o *options) {
		o.hasHeader = false
	}
}

// WithRowCacheSize bounds the parsed-row LRU (default 50000 rows).
func WithRowCacheSize(rows int) Option {
	return func(o *options) {
		if rows > 0 {
			o.rowCacheSize = rows
		}
	}
}

// WithWindowSize overrides the primary mapping window size. Mainly
// useful in tests; production files are fine with the 1 MiB default.
func WithWindowSize(bytes int64) Option {
	return func(o *options) {
		if bytes > 0 {
			o.windowSize = bytes
		}
	}
}

// WithLogger configures structured logging for the source.
func WithLogger(logger *gridgo.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		delimiter:    ',',
		hasHeader:    true,
		rowCacheSize: defaultRowCacheSize,
		windowSize:   defaultWindowSize,
		logger:       gridgo.NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
