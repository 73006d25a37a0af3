package clog

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/fatih/color"
)

// DefaultColumns are printed in front of the message, in order, when present.
var DefaultColumns = []string{"proto", "method", "path", "status"}

// HTTPTextHandler is a human-oriented handler for local development. The
// request columns come first, then the message, then remaining attributes one
// per line.
type HTTPTextHandler struct {
	cfg    TextHandlerConfig
	prefix string
	attrs  []slog.Attr
	mu     *sync.Mutex
	w      io.Writer
}

type TextHandlerConfig struct {
	Color   bool
	Level   slog.Leveler
	Columns []string
}

type TextHandlerOption func(*TextHandlerConfig)

func WithColor(c bool) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Color = c
	}
}

func WithLevel(level slog.Leveler) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Level = level
	}
}

func WithColumns(columns ...string) TextHandlerOption {
	return func(cfg *TextHandlerConfig) {
		cfg.Columns = columns
	}
}

func NewHTTPTextHandler(w io.Writer, opts ...TextHandlerOption) *HTTPTextHandler {
	cfg := TextHandlerConfig{
		Color:   true,
		Level:   slog.LevelInfo,
		Columns: DefaultColumns,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &HTTPTextHandler{
		cfg: cfg,
		mu:  &sync.Mutex{},
		w:   w,
	}
}

func (h *HTTPTextHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.cfg.Level.Level()
}

func (h *HTTPTextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	nh := *h
	nh.prefix = h.prefix + name + "."
	return &nh
}

func (h *HTTPTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = slices.Clone(h.attrs)
	for _, a := range attrs {
		nh.attrs = append(nh.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &nh
}

func (h *HTTPTextHandler) Handle(_ context.Context, record slog.Record) error {
	kv := make(map[string]slog.Value, len(h.attrs)+record.NumAttrs())
	for _, a := range h.attrs {
		flatten(kv, "", a)
	}
	record.Attrs(func(a slog.Attr) bool {
		flatten(kv, h.prefix, a)
		return true
	})

	var buf bytes.Buffer
	buf.WriteString(record.Time.Format(time.RFC3339))
	buf.WriteByte(' ')
	h.paint(levelColor(record.Level)).Fprint(&buf, record.Level.String())
	buf.WriteByte(' ')
	for _, key := range h.cfg.Columns {
		if v, ok := kv[key]; ok {
			buf.WriteString(v.String())
			buf.WriteByte(' ')
			delete(kv, key)
		}
	}
	h.paint(color.FgGreen).Fprint(&buf, record.Message)
	if e, ok := kv[ErrorAttributeKey]; ok {
		delete(kv, ErrorAttributeKey)
		buf.WriteByte(' ')
		h.paint(color.FgRed).Fprint(&buf, e.String())
	}
	buf.WriteByte('\n')

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		buf.WriteString("    ")
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(kv[k].String())
		buf.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *HTTPTextHandler) paint(attr color.Attribute) *color.Color {
	c := color.New(attr)
	if h.cfg.Color {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}

func levelColor(l slog.Level) color.Attribute {
	switch {
	case l >= slog.LevelError:
		return color.FgRed
	case l >= slog.LevelWarn:
		return color.FgYellow
	case l >= slog.LevelInfo:
		return color.FgBlue
	default:
		return color.FgCyan
	}
}

func flatten(kv map[string]slog.Value, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		kv[prefix+a.Key] = v
		return
	}
	p := prefix
	if a.Key != "" {
		p += a.Key + "."
	}
	for _, ga := range v.Group() {
		flatten(kv, p, ga)
	}
}

var _ slog.Handler = (*HTTPTextHandler)(nil)
