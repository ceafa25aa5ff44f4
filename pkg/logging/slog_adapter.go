package logging

import (
	"context"
	"log/slog"
)

// SlogAdapter adapts slog.Logger to Adapter.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps logger as an Adapter.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

func (s *SlogAdapter) Log(ctx context.Context, level Level, msg string, attrs ...Attribute) {
	slogAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		slogAttrs[i] = slog.Any(attr.Key, attr.Value)
	}
	s.logger.LogAttrs(ctx, slogLevel(level), msg, slogAttrs...)
}

func (s *SlogAdapter) IsLevelEnabled(ctx context.Context, level Level) bool {
	return s.logger.Enabled(ctx, slogLevel(level))
}

func slogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
