// Package markdown converts markdown documents to HTML, highlighting fenced
// code blocks and shebang-tagged code spans with the tokenizer grammars.
package markdown

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/sourcegraph/conc/iter"
	"github.com/spicery/highlighter/pkg/render"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Document is a converted markdown document.
type Document struct {
	// Meta is the decoded front matter, or nil when there is none.
	Meta map[string]any
	HTML string
}

// Title returns the front matter title, looking at "title" and then
// "meta.title".
func (d *Document) Title() string {
	if t, ok := d.Meta["title"].(string); ok {
		return t
	}
	if meta, ok := d.Meta["meta"].(map[string]any); ok {
		if t, ok := meta["title"].(string); ok {
			return t
		}
	}
	return ""
}

// Converter turns markdown into HTML. It is safe for concurrent use.
type Converter struct {
	md  goldmark.Markdown
	log *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger for front matter and highlighting problems.
func WithLogger(log *slog.Logger) Option {
	return func(c *Converter) { c.log = log }
}

// NewConverter creates a converter that highlights code with h. Documents
// are parsed as GitHub flavoured markdown, headings get generated IDs and
// links to .md files are rewritten to .html.
func NewConverter(h *render.Highlighter, opts ...Option) *Converter {
	c := &Converter{log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(util.Prioritized(linkRewriter{}, 100)),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
			renderer.WithNodeRenderers(util.Prioritized(&codeRenderer{highlighter: h, log: c.log}, 100)),
		),
	)
	return c
}

// Convert renders src as HTML. Leading front matter is removed from the
// document and decoded into Meta.
func (c *Converter) Convert(src []byte) (*Document, error) {
	meta, body := c.frontMatter(src)
	var buf bytes.Buffer
	if err := c.md.Convert(body, &buf); err != nil {
		return nil, err
	}
	return &Document{Meta: meta, HTML: buf.String()}, nil
}

// Result is the outcome of converting one document with ConvertAll.
type Result struct {
	Document *Document
	Err      error
}

// ConvertAll converts every source concurrently. Results are in the order
// of srcs.
func (c *Converter) ConvertAll(srcs [][]byte) []Result {
	return iter.Map(srcs, func(src *[]byte) Result {
		doc, err := c.Convert(*src)
		return Result{Document: doc, Err: err}
	})
}

// linkRewriter points links to markdown files at the HTML they become.
type linkRewriter struct{}

func (linkRewriter) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if link, ok := n.(*ast.Link); ok && entering {
			link.Destination = rewriteLink(link.Destination)
		}
		return ast.WalkContinue, nil
	})
}

func rewriteLink(dest []byte) []byte {
	s := string(dest)
	if strings.Contains(s, "://") || !strings.HasSuffix(s, ".md") {
		return dest
	}
	return []byte(strings.TrimSuffix(s, ".md") + ".html")
}
