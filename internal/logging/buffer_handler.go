package logging

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

const defaultModule = "touchlight"

// LogCallback is called with every record written to a buffer.
type LogCallback func(entry LogEntry)

// BufferHandler is a slog.Handler that stores records as LogEntry values in
// a ring buffer. A handler built without a buffer writes to the package
// buffer set up by Initialize, and does nothing before that.
type BufferHandler struct {
	buffer   *RingBuffer
	callback LogCallback
	level    slog.Leveler

	module string
	// preset holds WithAttrs attributes already flattened.
	preset map[string]any
	prefix string
}

// NewBufferHandler creates a handler writing to buffer.
func NewBufferHandler(buffer *RingBuffer, level slog.Leveler, callback LogCallback) *BufferHandler {
	return &BufferHandler{buffer: buffer, callback: callback, level: level, module: defaultModule}
}

func newSharedBufferHandler(level slog.Leveler) *BufferHandler {
	return &BufferHandler{level: level, module: defaultModule}
}

func (h *BufferHandler) target() (*RingBuffer, LogCallback) {
	if h.buffer != nil {
		return h.buffer, h.callback
	}
	mutex.RLock()
	defer mutex.RUnlock()
	return logBuffer, logCallback
}

// Enabled implements slog.Handler.
func (h *BufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *BufferHandler) Handle(_ context.Context, r slog.Record) error {
	buffer, callback := h.target()
	if buffer == nil {
		return nil
	}

	entry := LogEntry{
		Timestamp:  r.Time,
		Level:      levelName(r.Level),
		Module:     h.module,
		Message:    r.Message,
		Attributes: make(map[string]any, len(h.preset)+r.NumAttrs()),
	}
	for k, v := range h.preset {
		entry.Attributes[k] = v
	}
	r.Attrs(func(a slog.Attr) bool {
		if h.prefix == "" && a.Key == "module" {
			entry.Module = a.Value.String()
			return true
		}
		flatten(entry.Attributes, h.prefix, a)
		return true
	})

	buffer.Write(entry)
	if callback != nil {
		callback(entry)
	}
	return nil
}

// WithAttrs implements slog.Handler. A top-level module attribute sets the
// entry's Module instead of becoming an attribute.
func (h *BufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	dup := *h
	dup.preset = make(map[string]any, len(h.preset)+len(attrs))
	for k, v := range h.preset {
		dup.preset[k] = v
	}
	for _, a := range attrs {
		if h.prefix == "" && a.Key == "module" {
			dup.module = a.Value.String()
			continue
		}
		flatten(dup.preset, h.prefix, a)
	}
	return &dup
}

// WithGroup implements slog.Handler.
func (h *BufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	dup := *h
	dup.prefix = h.prefix + name + "."
	return &dup
}

// flatten stores a under prefix+key, descending into groups with
// dot-separated keys.
func flatten(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := prefix + a.Key

	switch a.Value.Kind() {
	case slog.KindGroup:
		inner := prefix
		if a.Key != "" {
			inner = key + "."
		}
		for _, ga := range a.Value.Group() {
			flatten(dst, inner, ga)
		}
	case slog.KindTime:
		dst[key] = a.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		dst[key] = a.Value.Duration().String()
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			dst[key] = err.Error()
			return
		}
		dst[key] = a.Value.Any()
	default:
		dst[key] = a.Value.Any()
	}
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warn"
	case level >= slog.LevelInfo:
		return "info"
	default:
		return "debug"
	}
}

// FormatLogLine renders entry as one line with its attributes sorted by key.
func FormatLogLine(entry LogEntry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s] [%s] %s",
		entry.Timestamp.Format(time.RFC3339Nano), strings.ToUpper(entry.Level), entry.Module, entry.Message)

	keys := make([]string, 0, len(entry.Attributes))
	for k := range entry.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, entry.Attributes[k])
	}
	return sb.String()
}
