package utils

import (
	"log/slog"
	"os"
)

// Logger is the logging capability handed to the pieces of the
// library that have a lifecycle: queues, graphs with diagnostics
// enabled. Merge correctness never depends on it, and nothing logs
// unless a host supplies one.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

const prefix = "[tangle] "

// SlogLogger adapts a slog.Logger, tagging every record with the
// library prefix.
type SlogLogger struct {
	base *slog.Logger
}

// NewSlogLogger wraps a slog logger the host already owns.
func NewSlogLogger(base *slog.Logger) *SlogLogger {
	return &SlogLogger{base: base}
}

// NewDefaultLogger logs to stderr at the given level.
func NewDefaultLogger(level slog.Level) *SlogLogger {
	return &SlogLogger{base: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// With returns a logger that attaches the key-value pairs to every
// record it emits.
func (l *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{base: l.base.With(args...)}
}

func (l *SlogLogger) Debug(msg string, args ...any) {
	l.base.Debug(prefix+msg, args...)
}

func (l *SlogLogger) Info(msg string, args ...any) {
	l.base.Info(prefix+msg, args...)
}

func (l *SlogLogger) Warn(msg string, args ...any) {
	l.base.Warn(prefix+msg, args...)
}

func (l *SlogLogger) Error(msg string, args ...any) {
	l.base.Error(prefix+msg, args...)
}
