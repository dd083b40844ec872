package log

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Logger is a small leveled logger used the same way across this tree as
// ndnd's core.Log: call sites pass the reporting entity plus a message and
// a flat key/value tail, e.g. log.Info(node, "Reinforced FIB", "name", name).
type Logger struct {
	mu     sync.Mutex
	level  Level
	out    *slog.Logger
}

var std = New(LevelInfo)

// New constructs a Logger that writes to stderr at the given minimum level.
func New(level Level) *Logger {
	return &Logger{
		level: level,
		out:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

// Default returns the package-level Logger used by the package-level
// Trace/Debug/Info/Warn/Error/Fatal helpers.
func Default() *Logger { return std }

// SetLevel changes the minimum level that will be emitted.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *Logger) log(level Level, entity any, msg string, kv []any) {
	l.mu.Lock()
	cur := l.level
	l.mu.Unlock()
	if level < cur {
		return
	}

	args := make([]any, 0, len(kv)+2)
	args = append(args, "entity", fmt.Sprintf("%v", entity))
	args = append(args, kv...)

	switch {
	case level >= LevelError:
		l.out.Error(msg, args...)
	case level >= LevelWarn:
		l.out.Warn(msg, args...)
	case level >= LevelInfo:
		l.out.Info(msg, args...)
	default:
		l.out.Debug(msg, args...)
	}
}

// Trace logs at TRACE level.
func (l *Logger) Trace(entity any, msg string, kv ...any) { l.log(LevelTrace, entity, msg, kv) }

// Debug logs at DEBUG level.
func (l *Logger) Debug(entity any, msg string, kv ...any) { l.log(LevelDebug, entity, msg, kv) }

// Info logs at INFO level.
func (l *Logger) Info(entity any, msg string, kv ...any) { l.log(LevelInfo, entity, msg, kv) }

// Warn logs at WARN level.
func (l *Logger) Warn(entity any, msg string, kv ...any) { l.log(LevelWarn, entity, msg, kv) }

// Error logs at ERROR level.
func (l *Logger) Error(entity any, msg string, kv ...any) { l.log(LevelError, entity, msg, kv) }

// Fatal logs at FATAL level and exits the process.
func (l *Logger) Fatal(entity any, msg string, kv ...any) {
	l.log(LevelFatal, entity, msg, kv)
	os.Exit(1)
}

// Trace logs at TRACE level on the package-level default Logger.
func Trace(entity any, msg string, kv ...any) { std.Trace(entity, msg, kv...) }

// Debug logs at DEBUG level on the package-level default Logger.
func Debug(entity any, msg string, kv ...any) { std.Debug(entity, msg, kv...) }

// Info logs at INFO level on the package-level default Logger.
func Info(entity any, msg string, kv ...any) { std.Info(entity, msg, kv...) }

// Warn logs at WARN level on the package-level default Logger.
func Warn(entity any, msg string, kv ...any) { std.Warn(entity, msg, kv...) }

// Error logs at ERROR level on the package-level default Logger.
func Error(entity any, msg string, kv ...any) { std.Error(entity, msg, kv...) }

// Fatal logs at FATAL level on the package-level default Logger and exits
// the process.
func Fatal(entity any, msg string, kv ...any) { std.Fatal(entity, msg, kv...) }
