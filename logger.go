package fuzzgram

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with fuzzgram-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithIndex adds the index name to every record.
func (l *Logger) WithIndex(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("index", name),
	}
}

// LogBuild logs the serialization of an index.
func (l *Logger) LogBuild(ctx context.Context, strings, leaves int, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"strings", strings,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index written",
			"strings", strings,
			"leaves", leaves,
			"bytes", size,
		)
	}
}

// LogOpen logs opening an index.
func (l *Logger) LogOpen(ctx context.Context, name string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"name", name,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index opened",
			"name", name,
			"bytes", size,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, trigrams, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"trigrams", trigrams,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"trigrams", trigrams,
			"results", results,
		)
	}
}

// LogLookup logs a single trigram lookup.
func (l *Logger) LogLookup(ctx context.Context, trigram string, leaves int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "lookup failed",
			"trigram", trigram,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "lookup completed",
			"trigram", trigram,
			"leaves", leaves,
		)
	}
}
