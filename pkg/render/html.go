package render

import (
	"html"
	"strings"

	"github.com/spicery/highlighter/pkg/tokenizer"
)

// HTMLVisitor writes a node tree as HTML spans. Every leaf carries the
// classes code-<rule> and code-<lang>-<rule>, plus the same pair for its
// alias; unclassified text is tagged code-text.
type HTMLVisitor struct {
	Language string
	sb       strings.Builder
}

// NewHTMLVisitor creates a visitor for text in language lang.
func NewHTMLVisitor(lang string) *HTMLVisitor {
	return &HTMLVisitor{Language: lang}
}

func (v *HTMLVisitor) VisitText(t *tokenizer.Text) {
	v.span(t.Literal, "text", "")
}

func (v *HTMLVisitor) VisitSyntax(s *tokenizer.Syntax) {
	text, ok := s.Leaf()
	if !ok {
		tokenizer.WalkChildren(v, s)
		return
	}
	v.span(text.Literal, s.Rule, s.Alias)
}

func (v *HTMLVisitor) span(literal, rule, alias string) {
	v.sb.WriteString(`<span class="`)
	v.sb.WriteString(html.EscapeString(classes(v.Language, rule, alias)))
	v.sb.WriteString(`">`)
	v.sb.WriteString(html.EscapeString(literal))
	v.sb.WriteString("</span>")
}

// String returns the HTML written so far.
func (v *HTMLVisitor) String() string {
	return v.sb.String()
}

func classes(lang, rule, alias string) string {
	names := []string{"code-" + rule}
	if alias != "" {
		names = append(names, "code-"+alias)
	}
	names = append(names, "code-"+lang+"-"+rule)
	if alias != "" {
		names = append(names, "code-"+lang+"-"+alias)
	}
	return strings.Join(names, " ")
}

// HTML renders nodes tokenized as language lang.
func HTML(nodes []tokenizer.Node, lang string) string {
	v := NewHTMLVisitor(lang)
	tokenizer.Walk(v, nodes)
	return v.String()
}
