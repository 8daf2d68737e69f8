package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	LevelCritical = slog.Level(12)
)

type Logger interface {
	Debug(message string, args ...any)
	Info(message string, args ...any)
	Warn(message string, args ...any)
	Error(message string, args ...any)
	Critical(message string, args ...any)
	// BusinessError logs an expected failure (bad input, lost race) at warn level.
	BusinessError(message string, err error, args ...any)
	// InternalError logs an unexpected failure at error level.
	InternalError(message string, err error, args ...any)
	With(args ...any) Logger
}

type Options struct {
	Output  io.Writer
	Level   slog.Level
	Format  string
	Service string
}

type slogLogger struct {
	base *slog.Logger
}

// NewFromEnv reads ENV, LOG_LEVEL and LOG_FORMAT. An explicit level (for
// example from a CLI flag) wins over LOG_LEVEL when non-empty.
func NewFromEnv(service, levelOverride string) Logger {
	env := normalizeValue(os.Getenv("ENV"))
	levelValue := os.Getenv("LOG_LEVEL")
	if strings.TrimSpace(levelOverride) != "" {
		levelValue = levelOverride
	}

	return NewWithOptions(Options{
		Output:  os.Stdout,
		Level:   ParseLevel(levelValue, env),
		Format:  parseFormat(os.Getenv("LOG_FORMAT")),
		Service: service,
	})
}

func New(output io.Writer, level slog.Level, format string) Logger {
	return NewWithOptions(Options{Output: output, Level: level, Format: format})
}

func NewWithOptions(opts Options) Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	handlerOptions := &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: replaceAttr,
	}

	var handler slog.Handler
	switch normalizeValue(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(opts.Output, handlerOptions)
	default:
		handler = slog.NewTextHandler(opts.Output, handlerOptions)
	}

	base := slog.New(handler)
	if opts.Service != "" {
		base = base.With("service", opts.Service)
	}
	return &slogLogger{base: base}
}

// Nop discards everything.
func Nop() Logger {
	return New(io.Discard, LevelCritical+1, "text")
}

func (l *slogLogger) Debug(message string, args ...any) {
	l.base.Debug(message, args...)
}

func (l *slogLogger) Info(message string, args ...any) {
	l.base.Info(message, args...)
}

func (l *slogLogger) Warn(message string, args ...any) {
	l.base.Warn(message, args...)
}

func (l *slogLogger) Error(message string, args ...any) {
	l.base.Error(message, args...)
}

func (l *slogLogger) Critical(message string, args ...any) {
	l.base.Log(context.Background(), LevelCritical, message, args...)
}

func (l *slogLogger) BusinessError(message string, err error, args ...any) {
	if err == nil {
		return
	}
	l.base.Warn(message, withErr(err, args)...)
}

func (l *slogLogger) InternalError(message string, err error, args ...any) {
	if err == nil {
		return
	}
	l.base.Error(message, withErr(err, args)...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{base: l.base.With(args...)}
}

func withErr(err error, args []any) []any {
	attrs := make([]any, 0, len(args)+2)
	attrs = append(attrs, "err", err.Error())
	return append(attrs, args...)
}

// ParseLevel maps a level name to a slog level. Unknown or empty names fall
// back to debug in development and info elsewhere.
func ParseLevel(value string, env string) slog.Level {
	switch normalizeValue(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "critical", "fatal":
		return LevelCritical
	case "info":
		if env != "development" {
			return slog.LevelInfo
		}
	}
	if normalizeValue(env) == "development" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func parseFormat(value string) string {
	switch normalizeValue(value) {
	case "json", "text":
		return normalizeValue(value)
	default:
		return "json"
	}
}

func normalizeValue(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func replaceAttr(_ []string, attr slog.Attr) slog.Attr {
	if attr.Key != slog.LevelKey {
		return attr
	}

	level, ok := attr.Value.Any().(slog.Level)
	if !ok {
		return attr
	}

	if level == LevelCritical {
		attr.Value = slog.StringValue("CRITICAL")
	}
	return attr
}
