package compat

import (
	"context"
	"log/slog"

	"github.com/lixenwraith/tglog"
)

var _ slog.Handler = (*SlogHandler)(nil)

// SlogHandler adapts a tglog handler to log/slog. slog levels share the tglog
// numeric scale, so they pass through unchanged.
type SlogHandler struct {
	handler tglog.Handler
	level   slog.Leveler
	name    string
	attrs   []any  // Pre-bound key/value pairs, already group-qualified
	group   string // Dotted prefix for subsequent attributes
}

// SlogOption allows customizing handler behavior
type SlogOption func(*SlogHandler)

// WithSlogLevel sets the minimum level reported as enabled
func WithSlogLevel(level slog.Leveler) SlogOption {
	return func(h *SlogHandler) {
		h.level = level
	}
}

// WithSlogName sets the logger name stamped on records
func WithSlogName(name string) SlogOption {
	return func(h *SlogHandler) {
		h.name = name
	}
}

// NewSlogHandler creates a slog.Handler forwarding to h
func NewSlogHandler(h tglog.Handler, opts ...SlogOption) *SlogHandler {
	s := &SlogHandler{handler: h, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled implements slog.Handler
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler. Delivery failures never surface here.
func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]any, 0, len(h.attrs)+2*r.NumAttrs())
	fields = append(fields, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, h.group, a)
		return true
	})

	h.handler.Handle(tglog.Record{
		Time:    r.Time,
		Level:   int64(r.Level),
		Logger:  h.name,
		Message: r.Message,
		Fields:  fields,
	})
	return nil
}

// WithAttrs implements slog.Handler
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append([]any(nil), h.attrs...)
	for _, a := range attrs {
		c.attrs = appendAttr(c.attrs, h.group, a)
	}
	return &c
}

// WithGroup implements slog.Handler
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.group = qualify(h.group, name)
	return &c
}

// appendAttr flattens a into dotted key/value pairs
func appendAttr(fields []any, group string, a slog.Attr) []any {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}
	if a.Value.Kind() == slog.KindGroup {
		prefix := group
		if a.Key != "" {
			prefix = qualify(group, a.Key)
		}
		for _, ga := range a.Value.Group() {
			fields = appendAttr(fields, prefix, ga)
		}
		return fields
	}
	return append(fields, qualify(group, a.Key), a.Value.Any())
}

func qualify(group, key string) string {
	if group == "" {
		return key
	}
	return group + "." + key
}
