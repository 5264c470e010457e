package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// leadFields are printed right after the message, in this order, so the asset
// a line is about is always in the same place.
var leadFields = []string{FieldArchive, FieldSection, FieldEntry}

// noteFields are moved onto their own indented lines below the record.
var noteFields = []string{FieldErrorHint, FieldImpact}

// prettyHandler renders records for a terminal:
//
//	2026-01-02 15:04:05 WARN installer: character already exists; skipping archive=Ryu.zip entry=Ryu
//	    hint: delete chars/Ryu to reinstall
//
// The operation id is only shown at debug level; it is always present in the
// JSON log file.
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []field
	groups    []string
	addSource bool
}

type field struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	fields := slices.Clone(h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		fields = flatten(fields, h.groups, attr)
		return true
	})

	var component string
	var lead, rest, notes []field
	for _, f := range fields {
		switch {
		case f.key == FieldComponent:
			if component == "" {
				component = attrString(f.value)
			}
		case f.key == FieldOperationID && h.level.Level() > slog.LevelDebug:
		case slices.Contains(leadFields, f.key):
			lead = append(lead, f)
		case slices.Contains(noteFields, f.key):
			notes = append(notes, f)
		default:
			rest = append(rest, f)
		}
	}
	slices.SortStableFunc(lead, func(a, b field) int {
		return slices.Index(leadFields, a.key) - slices.Index(leadFields, b.key)
	})

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %s ", formatTimestamp(timestamp), levelLabel(record.Level))
	if component != "" {
		buf.WriteString(component + ": ")
	}
	if msg := strings.TrimSpace(record.Message); msg != "" {
		buf.WriteString(msg)
	} else {
		buf.WriteString("(no message)")
	}
	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(&buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range append(lead, rest...) {
		fmt.Fprintf(&buf, " %s=%s", f.key, formatValue(f.value))
	}
	buf.WriteByte('\n')
	for _, f := range notes {
		fmt.Fprintf(&buf, "    %s: %s\n", strings.TrimPrefix(f.key, "error_"), attrString(f.value))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = slices.Clone(h.attrs)
	for _, attr := range attrs {
		clone.attrs = flatten(clone.attrs, h.groups, attr)
	}
	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(slices.Clone(h.groups), name)
	return &clone
}

// flatten appends attr to dst, expanding groups into dotted keys.
func flatten(dst []field, prefix []string, attr slog.Attr) []field {
	if attr.Equal(slog.Attr{}) {
		return dst
	}
	value := attr.Value.Resolve()
	path := prefix
	if attr.Key != "" {
		path = append(slices.Clone(prefix), attr.Key)
	}
	if value.Kind() == slog.KindGroup {
		for _, member := range value.Group() {
			dst = flatten(dst, path, member)
		}
		return dst
	}
	return append(dst, field{key: strings.Join(path, "."), value: value})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
