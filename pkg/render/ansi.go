package render

import (
	"strings"

	"github.com/muesli/termenv"
	"github.com/spicery/highlighter/pkg/tokenizer"
)

// ANSIVisitor writes a node tree as terminal text. Each styled leaf is
// followed by a reset; text without a style is written as is.
type ANSIVisitor struct {
	theme   *Theme
	profile termenv.Profile
	sb      strings.Builder
}

// NewANSIVisitor creates a visitor that styles leaves with theme, using the
// escape sequences available in profile. termenv.Ascii disables styling.
func NewANSIVisitor(theme *Theme, profile termenv.Profile) *ANSIVisitor {
	if theme == nil {
		theme = DefaultTheme()
	}
	return &ANSIVisitor{theme: theme, profile: profile}
}

func (v *ANSIVisitor) VisitText(t *tokenizer.Text) {
	v.sb.WriteString(t.Literal)
}

func (v *ANSIVisitor) VisitSyntax(s *tokenizer.Syntax) {
	text, ok := s.Leaf()
	if !ok {
		tokenizer.WalkChildren(v, s)
		return
	}
	style, ok := v.theme.Lookup(s.Rule, s.Alias)
	if !ok {
		v.sb.WriteString(text.Literal)
		return
	}
	v.sb.WriteString(style.ANSI(v.profile, text.Literal))
}

// String returns the text written so far.
func (v *ANSIVisitor) String() string {
	return v.sb.String()
}

// ANSI renders s for a terminal with the given profile.
func (s Style) ANSI(p termenv.Profile, text string) string {
	st := p.String(text)
	if s.Color != "" {
		st = st.Foreground(p.Color(s.Color))
	}
	if s.Bold {
		st = st.Bold()
	}
	if s.Italic {
		st = st.Italic()
	}
	if s.Underline {
		st = st.Underline()
	}
	return st.String()
}

// ANSI renders nodes with theme for a terminal with the given profile.
func ANSI(nodes []tokenizer.Node, theme *Theme, profile termenv.Profile) string {
	v := NewANSIVisitor(theme, profile)
	tokenizer.Walk(v, nodes)
	return v.String()
}
