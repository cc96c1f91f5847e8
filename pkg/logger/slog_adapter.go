package logger

import (
	"context"
	"log/slog"
	"strings"
)

// SlogHandler implements slog.Handler on top of a namespaced Logger so that
// libraries expecting a *slog.Logger (the MCP server, for one) share the same
// SCANWF_DEBUG switch as the rest of the binary.
type SlogHandler struct {
	logger *Logger
	attrs  []slog.Attr
	group  string
}

// NewSlogHandler creates a new slog.Handler that wraps a Logger
func NewSlogHandler(logger *Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// Enabled reports whether the handler handles records at the given level.
func (h *SlogHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return h.logger.Enabled()
}

// Handle formats the record as "[LEVEL] message key=value ...".
func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.logger.Enabled() {
		return nil
	}

	var msg strings.Builder
	msg.WriteString("[" + r.Level.String() + "] ")
	msg.WriteString(r.Message)
	for _, a := range h.attrs {
		msg.WriteString(" " + a.Key + "=" + a.Value.String())
	}
	r.Attrs(func(a slog.Attr) bool {
		msg.WriteString(" " + h.qualify(a.Key) + "=" + a.Value.String())
		return true
	})

	h.logger.Print(msg.String())
	return nil
}

func (h *SlogHandler) qualify(key string) string {
	if h.group != "" {
		return h.group + "." + key
	}
	return key
}

// WithAttrs returns a handler that prefixes every record with attrs.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append([]slog.Attr{}, h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	return &clone
}

// WithGroup returns a handler that qualifies subsequent attribute keys with name.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	if clone.group != "" {
		clone.group += "." + name
	} else {
		clone.group = name
	}
	return &clone
}

// NewSlogLogger creates a new slog.Logger backed by a namespaced Logger
func NewSlogLogger(namespace string) *slog.Logger {
	return slog.New(NewSlogHandler(New(namespace)))
}
