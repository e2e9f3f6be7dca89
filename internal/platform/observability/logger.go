// Package observability wires logging, metrics and tracing for the quote
// engine and the command-line harness.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Logger is a slog.Logger whose records carry the trace and span IDs of
// the context they are logged with.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger writing to stdout.
func NewLogger(level, format string) *Logger {
	return NewLoggerTo(os.Stdout, level, format)
}

// NewLoggerTo creates a Logger writing to w. Unknown formats fall back to
// JSON and unknown levels to info.
func NewLoggerTo(w io.Writer, level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level), AddSource: true}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if format == "text" {
		h = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(traceHandler{h})}
}

// NewNopLogger discards everything.
func NewNopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))}
}

// WithFields returns a child logger carrying fields.
func (l *Logger) WithFields(fields ...any) *Logger {
	return &Logger{Logger: l.With(fields...)}
}

func parseLogLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// LogError logs err at error level.
func (l *Logger) LogError(ctx context.Context, msg string, err error, fields ...any) {
	l.ErrorContext(ctx, msg, append(fields, slog.Any("error", err))...)
}

// LogInfo logs at info level.
func (l *Logger) LogInfo(ctx context.Context, msg string, fields ...any) {
	l.InfoContext(ctx, msg, fields...)
}

// LogDebug logs at debug level.
func (l *Logger) LogDebug(ctx context.Context, msg string, fields ...any) {
	l.DebugContext(ctx, msg, fields...)
}

// LogWarn logs at warn level.
func (l *Logger) LogWarn(ctx context.Context, msg string, fields ...any) {
	l.WarnContext(ctx, msg, fields...)
}

// traceHandler adds trace_id and span_id when the record's context holds
// a valid span.
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}
