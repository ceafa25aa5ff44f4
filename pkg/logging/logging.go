// Package logging is the orchestrator's structured-logging abstraction,
// adapted from pkg/middleware/logger: a small Adapter interface over a
// concrete backend (zerolog, slog) so Engine
// and its subcomponents log through one vendor-neutral Logger (ambient
// stack; mirrors teacher's logger.Adapter pattern). The teacher's
// calque.Handler-wrapping builder/printer layer (handlers.go) is dropped
// here: every orchestrator pipeline stage is a plain typed call, not a
// calque.Handler, so there is nothing for a per-Handler logging wrapper
// to wrap (see DESIGN.md).
package logging

import "context"

// Level is a logging severity (Debug < Info < Warn < Error).
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Attribute is one structured key-value logging field.
type Attribute struct {
	Key   string
	Value any
}

// Attr creates an Attribute.
func Attr(key string, value any) Attribute {
	return Attribute{Key: key, Value: value}
}

// Adapter is the contract a logging backend implements.
type Adapter interface {
	Log(ctx context.Context, level Level, msg string, attrs ...Attribute)
	IsLevelEnabled(ctx context.Context, level Level) bool
}

// Logger wraps an Adapter with the leveled convenience methods the
// orchestrator and CLI call.
type Logger struct {
	backend Adapter
}

// New wraps backend in a Logger.
func New(backend Adapter) *Logger {
	return &Logger{backend: backend}
}

func (l *Logger) log(ctx context.Context, level Level, msg string, attrs ...Attribute) {
	if l == nil || l.backend == nil {
		return
	}
	if l.backend.IsLevelEnabled(ctx, level) {
		l.backend.Log(ctx, level, msg, attrs...)
	}
}

// Debug logs msg at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, DebugLevel, msg, attrs...)
}

// Info logs msg at info level.
func (l *Logger) Info(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, InfoLevel, msg, attrs...)
}

// Warn logs msg at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, WarnLevel, msg, attrs...)
}

// Error logs msg at error level.
func (l *Logger) Error(ctx context.Context, msg string, attrs ...Attribute) {
	l.log(ctx, ErrorLevel, msg, attrs...)
}
