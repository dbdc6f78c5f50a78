package markdown

import (
	"bytes"
	"fmt"
	"log/slog"
	"testing"

	"github.com/muesli/termenv"
	"github.com/spicery/highlighter/pkg/render"
	"github.com/spicery/highlighter/pkg/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConverter(t *testing.T, log *slog.Logger) *Converter {
	t.Helper()
	r, err := tokenizer.NewDefaultRegistry()
	require.NoError(t, err)
	h := render.New(r, render.WithProfile(termenv.Ascii), render.WithLogger(log))
	return NewConverter(h, WithLogger(log))
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:  "Highlighted fence",
			input: "```ini\n[a]\n```\n",
			expected: `<pre class="codeblock"><code class="language-ini">` +
				`<span class="code-class-name code-ini-class-name">[a]</span>` + "\n</code></pre>\n",
		},
		{
			name:     "Unknown fence language",
			input:    "text\n\n```cobol\nA < B\n```\n",
			expected: "<p>text</p>\n" + `<pre class="codeblock"><code class="language-cobol">A &lt; B` + "\n</code></pre>\n",
		},
		{
			name:     "Fence without language",
			input:    "text\n\n```\nx\n```\n",
			expected: "<p>text</p>\n" + `<pre class="codeblock"><code>x` + "\n</code></pre>\n",
		},
		{
			name:     "Empty fence",
			input:    "text\n\n```ini\n```\n",
			expected: "<p>text</p>\n" + `<pre class="codeblock"><code class="language-ini"></code></pre>` + "\n",
		},
		{
			name:  "Shebang code span",
			input: "Use `#!json true` here\n",
			expected: `<p>Use <span class="inline-code"><code>` +
				`<span class="code-boolean code-json-boolean">true</span></code></span> here</p>` + "\n",
		},
		{
			name:     "Plain code span",
			input:    "Compare `a<b`\n",
			expected: `<p>Compare <span class="inline-code"><code>a&lt;b</code></span></p>` + "\n",
		},
		{
			name:     "Shebang with unknown language",
			input:    "`#!cobol A<B`\n",
			expected: `<p><span class="inline-code"><code>A&lt;B</code></span></p>` + "\n",
		},
		{
			name:     "Markdown links",
			input:    "[x](other.md) [y](https://example.com/a.md) [z](page.html)\n",
			expected: `<p><a href="other.html">x</a> <a href="https://example.com/a.md">y</a> <a href="page.html">z</a></p>` + "\n",
		},
		{
			name:     "Heading IDs",
			input:    "# Hello World\n",
			expected: `<h1 id="hello-world">Hello World</h1>` + "\n",
		},
	}

	c := newConverter(t, discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := c.Convert([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, doc.HTML)
		})
	}
}

func TestShebangWithUnknownLanguageIsLogged(t *testing.T) {
	var buf bytes.Buffer
	c := newConverter(t, slog.New(slog.NewTextHandler(&buf, nil)))

	_, err := c.Convert([]byte("`#!cobol x`\n"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "unknown language in code span")
	assert.Contains(t, buf.String(), "language=cobol")
}

func TestFrontMatter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		meta     map[string]any
		expected string
	}{
		{
			name:     "Dashes",
			input:    "---\ntitle: Hello\n---\n# Hi\n",
			meta:     map[string]any{"title": "Hello"},
			expected: `<h1 id="hi">Hi</h1>` + "\n",
		},
		{
			name:     "YAML fence",
			input:    "```yaml\nmeta:\n  title: Page\n```\nbody\n",
			meta:     map[string]any{"meta": map[string]any{"title": "Page"}},
			expected: "<p>body</p>\n",
		},
		{
			name:     "Bare fence",
			input:    "```\ndraft: true\n```\nbody\n",
			meta:     map[string]any{"draft": true},
			expected: "<p>body</p>\n",
		},
		{
			name:     "Leading code block",
			input:    "```\nx < y\n```\n",
			meta:     nil,
			expected: `<pre class="codeblock"><code>x &lt; y` + "\n</code></pre>\n",
		},
		{
			name:     "Fence with another language",
			input:    "```json\n{}\n```\n",
			meta:     nil,
			expected: `<pre class="codeblock"><code class="language-json"><span class="code-punctuation code-json-punctuation">{</span><span class="code-punctuation code-json-punctuation">}</span>` + "\n</code></pre>\n",
		},
		{
			name:     "No front matter",
			input:    "body\n",
			meta:     nil,
			expected: "<p>body</p>\n",
		},
	}

	c := newConverter(t, discard())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := c.Convert([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.meta, doc.Meta)
			assert.Equal(t, tt.expected, doc.HTML)
		})
	}
}

func TestMalformedFrontMatterIsDropped(t *testing.T) {
	var buf bytes.Buffer
	c := newConverter(t, slog.New(slog.NewTextHandler(&buf, nil)))

	doc, err := c.Convert([]byte("---\ntitle: [unclosed\n---\nbody\n"))
	require.NoError(t, err)
	assert.Nil(t, doc.Meta)
	assert.Equal(t, "<p>body</p>\n", doc.HTML)
	assert.Contains(t, buf.String(), "failed to parse front matter")
}

func TestDocumentTitle(t *testing.T) {
	tests := []struct {
		name     string
		meta     map[string]any
		expected string
	}{
		{"Top level", map[string]any{"title": "A"}, "A"},
		{"Nested", map[string]any{"meta": map[string]any{"title": "B"}}, "B"},
		{"Missing", nil, ""},
		{"Not a string", map[string]any{"title": 3}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, (&Document{Meta: tt.meta}).Title())
		})
	}
}

func TestConvertAllKeepsOrder(t *testing.T) {
	c := newConverter(t, discard())

	var srcs [][]byte
	for i := range 20 {
		srcs = append(srcs, []byte(fmt.Sprintf("# Doc %d\n\n```json\n%d\n```\n", i, i)))
	}

	results := c.ConvertAll(srcs)
	require.Len(t, results, len(srcs))
	for i, res := range results {
		require.NoError(t, res.Err)
		assert.Contains(t, res.Document.HTML, fmt.Sprintf(`<h1 id="doc-%d">Doc %d</h1>`, i, i))
		assert.Contains(t, res.Document.HTML, fmt.Sprintf(`<span class="code-number code-json-number">%d</span>`, i))
	}
}
