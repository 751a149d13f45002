package ringlog

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// SLOG_TARGET_KEY names the attribute that overrides the record target.
const SLOG_TARGET_KEY = "target"

// Handler is a log/slog handler routing records into a Facade. Attributes are
// rendered as key=value pairs after the message; a top-level "target"
// attribute becomes the record target (default "slog").
type Handler struct {
	facade *Facade
	target string
	attrs  string // preformatted attributes from WithAttrs
	prefix string // group prefix for attribute keys
}

// NewHandler returns a handler feeding f with target "slog".
func NewHandler(f *Facade) *Handler {
	return &Handler{facade: f, target: "slog"}
}

// FromSlogLevel maps slog levels onto the five ring levels; everything below
// slog.LevelDebug is TRACE.
func FromSlogLevel(level slog.Level) LogLevel {
	switch {
	case level < slog.LevelDebug:
		return LVL_TRACE
	case level < slog.LevelInfo:
		return LVL_DEBUG
	case level < slog.LevelWarn:
		return LVL_INFO
	case level < slog.LevelError:
		return LVL_WARN
	default:
		return LVL_ERROR
	}
}

// ToSlogLevel is the inverse of FromSlogLevel (TRACE is slog.LevelDebug-4).
func ToSlogLevel(level LogLevel) slog.Level {
	switch normLevel(level) {
	case LVL_TRACE:
		return slog.LevelDebug - 4
	case LVL_DEBUG:
		return slog.LevelDebug
	case LVL_WARN:
		return slog.LevelWarn
	case LVL_ERROR:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return FromSlogLevel(level) >= h.facade.MinLevel()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(r.Message)
	sb.WriteString(h.attrs)
	target := h.target
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && a.Key == SLOG_TARGET_KEY {
			target = a.Value.Resolve().String()
			return true
		}
		appendAttr(&sb, h.prefix, a)
		return true
	})
	h.facade.Log(Record{Level: FromSlogLevel(r.Level), Target: target, Message: sb.String()})
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	var sb strings.Builder
	sb.WriteString(h.attrs)
	for _, a := range attrs {
		if h.prefix == "" && a.Key == SLOG_TARGET_KEY {
			h2.target = a.Value.Resolve().String()
			continue
		}
		appendAttr(&sb, h.prefix, a)
	}
	h2.attrs = sb.String()
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.prefix = h.prefix + name + "."
	return &h2
}

func appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(sb, prefix, ga)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	val := a.Value.String()
	if val == "" || strings.ContainsAny(val, " =\"\t\n") {
		val = strconv.Quote(val)
	}
	sb.WriteString(val)
}
