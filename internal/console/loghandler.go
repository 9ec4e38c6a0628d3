package console

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// tuiLogHandler is a slog.Handler that forwards records to the running
// Bubble Tea program instead of stderr, so install-time log lines
// appear inside the progress view's log panel (adapted directly from
// internal/ui/loghandler.go).
type tuiLogHandler struct {
	target sender
	level  slog.Level
	attrs  []slog.Attr
	group  string
}

func newTUILogHandler(target sender, level slog.Level) *tuiLogHandler {
	return &tuiLogHandler{target: target, level: level}
}

func (h *tuiLogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *tuiLogHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)
	for _, a := range h.attrs {
		fmt.Fprintf(&b, " %s=%q", h.qualifiedKey(a.Key), a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&b, " %s=%q", h.qualifiedKey(a.Key), a.Value)
		return true
	})
	h.target.Send(slogMsg{level: r.Level, message: b.String()})
	return nil
}

func (h *tuiLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, len(h.attrs)+len(attrs))
	copy(merged, h.attrs)
	copy(merged[len(h.attrs):], attrs)
	return &tuiLogHandler{target: h.target, level: h.level, attrs: merged, group: h.group}
}

func (h *tuiLogHandler) WithGroup(name string) slog.Handler {
	g := name
	if h.group != "" {
		g = h.group + "." + name
	}
	return &tuiLogHandler{target: h.target, level: h.level, attrs: h.attrs, group: g}
}

func (h *tuiLogHandler) qualifiedKey(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}
