package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologAdapter adapts zerolog.Logger to Adapter — the orchestrator's
// default backend (ambient stack, mirrors cmd/vectra's own zerolog use).
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps logger as an Adapter.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

func (z *ZerologAdapter) Log(_ context.Context, level Level, msg string, attrs ...Attribute) {
	var evt *zerolog.Event
	switch level {
	case DebugLevel:
		evt = z.logger.Debug()
	case WarnLevel:
		evt = z.logger.Warn()
	case ErrorLevel:
		evt = z.logger.Error()
	default:
		evt = z.logger.Info()
	}
	for _, attr := range attrs {
		evt = evt.Interface(attr.Key, attr.Value)
	}
	evt.Msg(msg)
}

func (z *ZerologAdapter) IsLevelEnabled(_ context.Context, level Level) bool {
	return z.logger.GetLevel() <= zerologLevel(level)
}

func zerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
