package render

import (
	"log/slog"
	"time"

	"github.com/muesli/termenv"
	"github.com/spicery/highlighter/pkg/tokenizer"
)

// Highlighter resolves languages through a registry and renders text in
// them. A language that cannot be resolved is reported as unavailable so the
// caller can fall back to plain text.
type Highlighter struct {
	registry  *tokenizer.Registry
	tokenizer tokenizer.Tokenizer
	theme     *Theme
	profile   termenv.Profile
	log       *slog.Logger
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithTheme sets the theme used for terminal output.
func WithTheme(t *Theme) Option {
	return func(h *Highlighter) { h.theme = t }
}

// WithProfile sets the terminal colour profile.
func WithProfile(p termenv.Profile) Option {
	return func(h *Highlighter) { h.profile = p }
}

// WithMaxDepth bounds the nesting of embedded grammars.
func WithMaxDepth(depth int) Option {
	return func(h *Highlighter) { h.tokenizer.MaxDepth = depth }
}

// WithLogger sets the logger that receives timing information.
func WithLogger(log *slog.Logger) Option {
	return func(h *Highlighter) { h.log = log }
}

// New creates a highlighter over r. By default terminal output uses the
// built-in palette with ANSI colours, or no colour when NO_COLOR is set.
func New(r *tokenizer.Registry, opts ...Option) *Highlighter {
	h := &Highlighter{
		registry: r,
		theme:    DefaultTheme(),
		profile:  termenv.ANSI,
		log:      slog.Default(),
	}
	if termenv.EnvNoColor() {
		h.profile = termenv.Ascii
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Theme returns the theme used for terminal output.
func (h *Highlighter) Theme() *Theme {
	return h.theme
}

// Profile returns the terminal colour profile used for ANSI output.
func (h *Highlighter) Profile() termenv.Profile {
	return h.profile
}

// Tokenize splits text written in lang into nodes.
func (h *Highlighter) Tokenize(text, lang string) ([]tokenizer.Node, bool) {
	g, ok := h.registry.Resolve(lang)
	if !ok {
		return nil, false
	}
	start := time.Now()
	nodes := h.tokenizer.Tokenize(text, g)
	h.log.Debug("highlighted", "language", lang, "length", len(text), "took", time.Since(start))
	return nodes, true
}

// HTML renders text written in lang as HTML spans.
func (h *Highlighter) HTML(text, lang string) (string, bool) {
	nodes, ok := h.Tokenize(text, lang)
	if !ok {
		return "", false
	}
	return HTML(nodes, lang), true
}

// ANSI renders text written in lang with terminal colours.
func (h *Highlighter) ANSI(text, lang string) (string, bool) {
	nodes, ok := h.Tokenize(text, lang)
	if !ok {
		return "", false
	}
	return ANSI(nodes, h.theme, h.profile), true
}
