package gridgo

import (
	"log/slog"

	"golang.org/x/time/rate"
)

const (
	// DefaultBlockSize is the number of rows loaded per block.
	DefaultBlockSize = 1000

	// defaultVisibleRows is the visible-range width assumed by JumpTo
	// before any SetVisibleRange has established one.
	defaultVisibleRows = 50

	// cleanupThreshold is the cached-block count below which eviction is
	// skipped entirely, to avoid churn at small scales.
	cleanupThreshold = 10

	// defaultRetainMargin is how many recently used blocks outside the
	// preload range survive a cleanup pass.
	defaultRetainMargin = 10
)

type options struct {
	blockSize      int
	policy         PreloadPolicy
	numWorkers     int
	retainMargin   int
	preloadLimiter *rate.Limiter
	logger         *Logger
	metrics        MetricsCollector
}

// Option configures Engine constructor behavior.
type Option func(*options)

// WithBlockSize configures the number of rows per block.
// Non-positive values are ignored and the default of 1000 is kept.
func WithBlockSize(blockSize int) Option {
	return func(o *options) {
		if blockSize > 0 {
			o.blockSize = blockSize
		}
	}
}

// WithPreloadPolicy configures the initial preload policy.
func WithPreloadPolicy(policy PreloadPolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithWorkers configures the number of block-load workers.
// Values <= 0 select GOMAXPROCS.
func WithWorkers(numWorkers int) Option {
	return func(o *options) {
		o.numWorkers = numWorkers
	}
}

// WithRetainMargin configures how many recently used blocks outside the
// preload range survive each cleanup pass.
func WithRetainMargin(margin int) Option {
	return func(o *options) {
		if margin >= 0 {
			o.retainMargin = margin
		}
	}
}

// WithPreloadRateLimit caps background (preload) block dispatches at
// blocksPerSecond, dropping dispatches above the limit. Visible-range
// and point-read loads always bypass the limiter. Zero or negative
// disables the limit.
func WithPreloadRateLimit(blocksPerSecond float64, burst int) Option {
	return func(o *options) {
		if blocksPerSecond <= 0 {
			o.preloadLimiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.preloadLimiter = rate.NewLimiter(rate.Limit(blocksPerSecond), burst)
	}
}

// WithLogger configures structured logging for engine operations.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metrics = mc
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		blockSize:    DefaultBlockSize,
		policy:       Balanced,
		retainMargin: defaultRetainMargin,
		logger:       NoopLogger(),
		metrics:      NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
