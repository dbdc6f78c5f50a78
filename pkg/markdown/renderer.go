package markdown

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/spicery/highlighter/pkg/render"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

var shebang = regexp.MustCompile(`^#!(\w+)`)

// codeRenderer renders fenced code blocks and code spans with syntax
// highlighting. It takes priority over goldmark's HTML renderer for those
// two node kinds only.
type codeRenderer struct {
	highlighter *render.Highlighter
	log         *slog.Logger
}

func (r *codeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
	reg.Register(ast.KindCodeSpan, r.renderCodeSpan)
}

func (r *codeRenderer) renderFencedCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var content strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		content.Write(line.Value(source))
	}
	code := strings.TrimSuffix(content.String(), "\n")

	lang := string(n.Language(source))
	_, _ = w.WriteString(`<pre class="codeblock"><code`)
	if lang != "" {
		_, _ = w.WriteString(` class="language-`)
		_, _ = w.Write(util.EscapeHTML([]byte(lang)))
		_, _ = w.WriteString(`"`)
	}
	_, _ = w.WriteString(">")
	if highlighted, ok := r.highlight(code, lang); ok {
		_, _ = w.WriteString(highlighted)
	} else {
		if lang != "" {
			r.log.Debug("code block left unhighlighted", "language", lang)
		}
		_, _ = w.Write(util.EscapeHTML([]byte(code)))
	}
	if content.Len() > 0 {
		_ = w.WriteByte('\n')
	}
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkSkipChildren, nil
}

func (r *codeRenderer) renderCodeSpan(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var content strings.Builder
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			content.Write(c.Segment.Value(source))
		case *ast.String:
			content.Write(c.Value)
		}
	}
	code := strings.TrimSpace(content.String())

	_, _ = w.WriteString(`<span class="inline-code"><code>`)
	if m := shebang.FindStringSubmatch(code); m != nil {
		lang := m[1]
		code = strings.TrimSpace(code[len(m[0]):])
		if highlighted, ok := r.highlight(code, lang); ok {
			_, _ = w.WriteString(highlighted)
		} else {
			r.log.Warn("unknown language in code span", "language", lang)
			_, _ = w.Write(util.EscapeHTML([]byte(code)))
		}
	} else {
		_, _ = w.Write(util.EscapeHTML([]byte(code)))
	}
	_, _ = w.WriteString("</code></span>")
	return ast.WalkSkipChildren, nil
}

func (r *codeRenderer) highlight(code, lang string) (string, bool) {
	if lang == "" {
		return "", false
	}
	return r.highlighter.HTML(code, lang)
}
