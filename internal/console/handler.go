// Package console provides a slog handler for command line output: one line
// per record, led by a coloured level label such as "error:" or "note:".
package console

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Handler writes records as "label: message key=value ...".
type Handler struct {
	mu     *sync.Mutex
	w      io.Writer
	level  slog.Leveler
	prefix string // group prefix for attribute keys
	attrs  string // preformatted attributes from WithAttrs
	labels map[slog.Level]string
}

// NewHandler creates a handler writing to w. Colours follow the terminal
// capabilities of w and are disabled by NO_COLOR. A nil opts logs Info and
// above.
func NewHandler(w io.Writer, opts *slog.HandlerOptions) *Handler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	r := lipgloss.NewRenderer(w)
	return &Handler{
		mu:    &sync.Mutex{},
		w:     w,
		level: level,
		labels: map[slog.Level]string{
			slog.LevelError: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true).Render("error:"),
			slog.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true).Render("warning:"),
			slog.LevelInfo:  "info:",
			slog.LevelDebug: r.NewStyle().Foreground(lipgloss.Color("6")).Render("note:"),
		},
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteString(h.label(r.Level))
	sb.WriteByte(' ')
	sb.WriteString(r.Message)
	sb.WriteString(h.attrs)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.prefix, a)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *Handler) label(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.labels[slog.LevelError]
	case level >= slog.LevelWarn:
		return h.labels[slog.LevelWarn]
	case level >= slog.LevelInfo:
		return h.labels[slog.LevelInfo]
	}
	return h.labels[slog.LevelDebug]
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	for _, a := range attrs {
		writeAttr(&sb, h.prefix, a)
	}
	h2 := *h
	h2.attrs = h.attrs + sb.String()
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

func writeAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(sb, prefix, ga)
		}
		return
	}
	sb.WriteByte(' ')
	sb.WriteString(prefix)
	sb.WriteString(a.Key)
	sb.WriteByte('=')
	v := a.Value.String()
	if v == "" || strings.ContainsAny(v, " \t\n\"=") {
		v = strconv.Quote(v)
	}
	sb.WriteString(v)
}
