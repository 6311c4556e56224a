// Package logging provides structured JSON logging with redaction of
// sensitive attributes. Logs go to stderr so they never interfere with the
// MCP stdio transport.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// redactedValue replaces sensitive attribute values.
const redactedValue = "[REDACTED]"

// sensitiveFragments flag attribute keys whose values must not be logged.
var sensitiveFragments = []string{
	"password",
	"secret",
	"token",
	"credential",
	"api_key",
	"apikey",
	"auth",
}

// RedactingHandler wraps a slog.Handler and redacts sensitive attributes.
type RedactingHandler struct {
	inner  slog.Handler
	active bool
}

// NewRedactingHandler creates a handler that redacts when active is true
// and passes records through untouched otherwise.
func NewRedactingHandler(inner slog.Handler, active bool) *RedactingHandler {
	return &RedactingHandler{inner: inner, active: active}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.active {
		return h.inner.Handle(ctx, r)
	}

	clean := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if h.active {
		redacted := make([]slog.Attr, len(attrs))
		for i, a := range attrs {
			redacted[i] = redactAttr(a)
		}
		attrs = redacted
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(attrs), active: h.active}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), active: h.active}
}

// redactAttr replaces the value of any attribute whose key contains a
// sensitive fragment; group attributes are redacted recursively.
func redactAttr(a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, fragment := range sensitiveFragments {
		if strings.Contains(key, fragment) {
			return slog.String(a.Key, redactedValue)
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		redacted := make([]slog.Attr, len(members))
		for i, m := range members {
			redacted[i] = redactAttr(m)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}
	return a
}

// ParseLevel maps a config level string to a slog.Level, defaulting to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup installs the process-wide logger.
func Setup(level string, sanitize bool) {
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	slog.SetDefault(slog.New(NewRedactingHandler(jsonHandler, sanitize)))
}
