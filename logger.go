package multivec

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with multivec-specific helpers.
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

// LogCreateVector logs a vector creation.
func (l *Logger) LogCreateVector(name any, capacity int, err error) {
	if err != nil {
		l.Error("create vector failed",
			"vector", name,
			"capacity", capacity,
			"error", err,
		)
	} else {
		l.Debug("vector created",
			"vector", name,
			"capacity", capacity,
		)
	}
}

// LogDestroyVector logs a vector destruction.
func (l *Logger) LogDestroyVector(name any, capacity int, err error) {
	if err != nil {
		l.Error("destroy vector failed",
			"vector", name,
			"error", err,
		)
	} else {
		l.Debug("vector destroyed",
			"vector", name,
			"capacity", capacity,
		)
	}
}

// LogInsertBatch logs a batch insert.
func (l *Logger) LogInsertBatch(count int, groupID uint64, err error) {
	if err != nil {
		l.Error("batch insert failed",
			"count", count,
			"error", err,
		)
	} else {
		l.Debug("batch insert completed",
			"count", count,
			"group", groupID,
		)
	}
}

// LogRemoveGroup logs a cascading group removal.
func (l *Logger) LogRemoveGroup(name any, offset int, removed int, err error) {
	if err != nil {
		l.Error("group removal failed",
			"vector", name,
			"offset", offset,
			"error", err,
		)
	} else {
		l.Debug("group removed",
			"vector", name,
			"offset", offset,
			"removed", removed,
		)
	}
}

// LogUnlink logs an unlink operation.
func (l *Logger) LogUnlink(name any, offset int, err error) {
	if err != nil {
		l.Error("unlink failed",
			"vector", name,
			"offset", offset,
			"error", err,
		)
	} else {
		l.Debug("entry unlinked",
			"vector", name,
			"offset", offset,
		)
	}
}

// LogSnapshot logs a snapshot save or load.
func (l *Logger) LogSnapshot(target string, bytes int, err error) {
	if err != nil {
		l.Error("snapshot failed",
			"target", target,
			"error", err,
		)
	} else {
		l.Info("snapshot saved",
			"target", target,
			"bytes", bytes,
		)
	}
}
