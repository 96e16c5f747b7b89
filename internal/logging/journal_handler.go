package logging

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

const syslogIdentifier = "touchlight"

// JournalHandler is a slog.Handler that sends records to the systemd
// journal as structured fields, so `journalctl MODULE=sensor` works.
type JournalHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level}
}

// Enabled reports whether the handler handles records at the given level.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle sends the record to the journal.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	return journal.Send(r.Message, journalPriority(r.Level), h.fields(r))
}

// fields builds the journal fields of r. MESSAGE and PRIORITY are added by
// journal.Send itself.
func (h *JournalHandler) fields(r slog.Record) map[string]string {
	fields := map[string]string{"SYSLOG_IDENTIFIER": syslogIdentifier}

	if r.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{r.PC})
		f, _ := frames.Next()
		fields["CODE_FILE"] = f.File
		fields["CODE_LINE"] = strconv.Itoa(f.Line)
		fields["CODE_FUNC"] = f.Function
	}

	// attrs from WithAttrs were added before any later WithGroup
	for _, a := range h.attrs {
		addJournalField(fields, nil, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addJournalField(fields, h.groups, a)
		return true
	})
	return fields
}

// WithAttrs returns a new handler with additional attributes.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	dup := *h
	grouped := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		grouped[i] = nestAttr(h.groups, a)
	}
	dup.attrs = append(slices.Clip(h.attrs), grouped...)
	return &dup
}

// WithGroup returns a new handler with a group prefix.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	dup := *h
	dup.groups = append(slices.Clip(h.groups), name)
	return &dup
}

// nestAttr wraps a in the given groups, outermost first.
func nestAttr(groups []string, a slog.Attr) slog.Attr {
	for i := len(groups) - 1; i >= 0; i-- {
		a = slog.Attr{Key: groups[i], Value: slog.GroupValue(a)}
	}
	return a
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

func addJournalField(fields map[string]string, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := groups
		if a.Key != "" {
			inner = append(slices.Clip(groups), a.Key)
		}
		for _, ga := range a.Value.Group() {
			addJournalField(fields, inner, ga)
		}
		return
	}

	key := journalKey(append(slices.Clip(groups), a.Key))
	if key == "" {
		return
	}

	switch a.Value.Kind() {
	case slog.KindTime:
		fields[key] = a.Value.Time().Format(time.RFC3339Nano)
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			fields[key] = err.Error()
			return
		}
		fields[key] = a.Value.String()
	default:
		fields[key] = a.Value.String()
	}
}

// journalKey joins parts into a valid journal field name: upper case
// letters, digits and underscores, not starting with an underscore or a
// digit.
func journalKey(parts []string) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte('_')
		}
		for _, c := range strings.ToUpper(p) {
			switch {
			case c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
				b.WriteRune(c)
			default:
				b.WriteByte('_')
			}
		}
	}
	return strings.TrimLeft(b.String(), "_0123456789")
}

// IsJournalAvailable checks if systemd journal is available.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
