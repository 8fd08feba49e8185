package ipbauth

import (
	"context"
	"log/slog"
)

type slogLogger struct {
	l *slog.Logger
}

// NewSlogLogger adapts a slog.Logger to Logger. A nil logger falls back to
// slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{l: l.With("component", "ipbauth")}
}

func (s *slogLogger) Debug(msg string, args ...any) {
	s.l.DebugContext(context.Background(), msg, args...)
}

func (s *slogLogger) Info(msg string, args ...any) {
	s.l.InfoContext(context.Background(), msg, args...)
}

func (s *slogLogger) Warn(msg string, args ...any) {
	s.l.WarnContext(context.Background(), msg, args...)
}

func (s *slogLogger) Error(msg string, args ...any) {
	s.l.ErrorContext(context.Background(), msg, args...)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return noopLogger{}
	}
	return l
}
