package observe

import (
	"context"
	"io"

	"github.com/rs/zerolog"
)

// zerologLogger adapts a zerolog.Logger to the Logger interface so hosts
// already standardized on zerolog get one consistent log stream.
type zerologLogger struct {
	zl zerolog.Logger
}

// NewZerologLogger creates a zerolog-backed logger writing to w.
func NewZerologLogger(level string, w io.Writer) Logger {
	zl := zerolog.New(w).Level(zerologLevel(level)).With().Timestamp().Logger()
	return &zerologLogger{zl: zl}
}

func zerologLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithCache returns a logger with cache tier context attached.
func (l *zerologLogger) WithCache(meta CacheMeta) Logger {
	zl := l.zl.With().
		Str("cache.namespace", meta.Namespace).
		Bool("cache.mirrored", meta.Mirrored).
		Logger()
	return &zerologLogger{zl: zl}
}

func (l *zerologLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.emit(l.zl.Info(), msg, fields)
}

func (l *zerologLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *zerologLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.emit(l.zl.Error(), msg, fields)
}

func (l *zerologLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.emit(l.zl.Debug(), msg, fields)
}

func (l *zerologLogger) emit(ev *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		if isRedactedField(f.Key) {
			ev = ev.Str(f.Key, "[REDACTED]")
			continue
		}
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

// Ensure zerologLogger implements Logger
var _ Logger = (*zerologLogger)(nil)
