package gridgo

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with gridgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithBlock adds a block index field to the logger.
func (l *Logger) WithBlock(blockIndex int) *Logger {
	return &Logger{
		Logger: l.Logger.With("block", blockIndex),
	}
}

// LogBlockLoaded logs a completed block load.
func (l *Logger) LogBlockLoaded(blockIndex, rows int) {
	l.Debug("block loaded",
		"block", blockIndex,
		"rows", rows,
	)
}

// LogBlockLoadFailed logs a block load that returned no rows.
func (l *Logger) LogBlockLoadFailed(blockIndex int) {
	l.Warn("block load returned no rows",
		"block", blockIndex,
	)
}

// LogSourceBound logs a data source change. The row count is deliberately
// not logged here: sources may compute it lazily and binding must stay cheap.
func (l *Logger) LogSourceBound(cols int) {
	l.Info("source bound",
		"columns", cols,
	)
}

// LogCacheInvalidated logs a full cache invalidation.
func (l *Logger) LogCacheInvalidated(reason string, dropped int) {
	l.Info("cache invalidated",
		"reason", reason,
		"blocks_dropped", dropped,
	)
}
