package render

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/spicery/highlighter/pkg/tokenizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHighlighter(t *testing.T, opts ...Option) *Highlighter {
	t.Helper()
	r, err := tokenizer.NewDefaultRegistry()
	require.NoError(t, err)
	return New(r, opts...)
}

func TestHTML(t *testing.T) {
	h := newHighlighter(t)

	got, ok := h.HTML(`{"a": null}`, "json")
	require.True(t, ok)
	expected := `<span class="code-punctuation code-json-punctuation">{</span>` +
		`<span class="code-property code-json-property">&#34;a&#34;</span>` +
		`<span class="code-operator code-json-operator">:</span>` +
		`<span class="code-text code-json-text"> </span>` +
		`<span class="code-null code-keyword code-json-null code-json-keyword">null</span>` +
		`<span class="code-punctuation code-json-punctuation">}</span>`
	assert.Equal(t, expected, got)
}

func TestHTMLRecursesIntoNestedNodes(t *testing.T) {
	nodes := []tokenizer.Node{
		tokenizer.NewSyntax("tag", "", "<b>", false, []tokenizer.Node{
			tokenizer.NewSyntax("punctuation", "", "<", false, []tokenizer.Node{tokenizer.NewText("<")}),
			tokenizer.NewText("b"),
			tokenizer.NewSyntax("punctuation", "", ">", false, []tokenizer.Node{tokenizer.NewText(">")}),
		}),
	}
	expected := `<span class="code-punctuation code-x-punctuation">&lt;</span>` +
		`<span class="code-text code-x-text">b</span>` +
		`<span class="code-punctuation code-x-punctuation">&gt;</span>`
	assert.Equal(t, expected, HTML(nodes, "x"))
}

func TestHTMLEscapesLanguageInClasses(t *testing.T) {
	got := HTML([]tokenizer.Node{tokenizer.NewText("x")}, `a"><b`)
	assert.Equal(t, `<span class="code-text code-a&#34;&gt;&lt;b-text">x</span>`, got)
}

func TestANSI(t *testing.T) {
	tests := []struct {
		name     string
		profile  termenv.Profile
		input    string
		lang     string
		expected string
	}{
		{
			name:     "Rule and alias colours",
			profile:  termenv.ANSI,
			input:    `{"a": null}`,
			lang:     "json",
			expected: "{\x1b[34m\"a\"\x1b[0m\x1b[36m:\x1b[0m \x1b[35mnull\x1b[0m}",
		},
		{
			name:     "Italic function",
			profile:  termenv.ANSI,
			input:    "f(x)",
			lang:     "clike",
			expected: "\x1b[34;3mf\x1b[0m(x)",
		},
		{
			name:     "No colour",
			profile:  termenv.Ascii,
			input:    `{"a": null}`,
			lang:     "json",
			expected: `{"a": null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHighlighter(t, WithProfile(tt.profile))
			got, ok := h.ANSI(tt.input, tt.lang)
			require.True(t, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNoColorEnvironment(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	h := newHighlighter(t)
	got, ok := h.ANSI("true", "json")
	require.True(t, ok)
	assert.Equal(t, "true", got)
}

func TestUnavailableLanguage(t *testing.T) {
	h := newHighlighter(t)

	_, ok := h.HTML("x", "cobol")
	assert.False(t, ok)
	_, ok = h.ANSI("x", "cobol")
	assert.False(t, ok)
}

func TestHighlighterLogsTiming(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := newHighlighter(t, WithLogger(log))

	_, ok := h.HTML("[a]", "cfg")
	require.True(t, ok)
	assert.Contains(t, buf.String(), "msg=highlighted language=cfg length=3")
}

func TestMaxDepthOption(t *testing.T) {
	h := newHighlighter(t, WithMaxDepth(1))
	nodes, ok := h.Tokenize(`<a href="x">`, "markup")
	require.True(t, ok)
	require.Len(t, nodes, 1)
	tag := nodes[0].(*tokenizer.Syntax)
	text, ok := tag.Leaf()
	require.True(t, ok)
	assert.Equal(t, `<a href="x">`, text.Literal)
}

func TestThemeLookup(t *testing.T) {
	theme := DefaultTheme()

	tests := []struct {
		rule, alias string
		expected    Style
		found       bool
	}{
		{"keyword", "", Style{Color: "5"}, true},
		{"null", "keyword", Style{Color: "5"}, true},
		{"function", "keyword", Style{Color: "4", Italic: true}, true},
		{"comment", "", Style{}, true},
		{"variable", "", Style{}, false},
		{"variable", "nothing", Style{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.rule+"/"+tt.alias, func(t *testing.T) {
			s, ok := theme.Lookup(tt.rule, tt.alias)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, s)
		})
	}
}

func TestThemeFromChroma(t *testing.T) {
	theme, err := ThemeFromChroma("Monokai")
	require.NoError(t, err)
	assert.Equal(t, "monokai", theme.Name)
	assert.Equal(t, "#272822", theme.Background)

	kw, ok := theme.Lookup("keyword", "")
	require.True(t, ok)
	assert.Equal(t, "#66d9ef", kw.Color)

	_, err = ThemeFromChroma("no-such-theme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown theme "no-such-theme"`)

	assert.Contains(t, Themes(), "monokai")
}

func TestThemeCSS(t *testing.T) {
	theme := NewTheme("t", map[string]Style{
		"keyword": {Color: "#ff0000", Bold: true},
		"comment": {Italic: true, Underline: true},
		"text":    {},
	})
	theme.Background = "#000000"

	var buf bytes.Buffer
	require.NoError(t, theme.CSS(&buf))
	assert.Equal(t, ".codeblock { background-color: #000000; }\n"+
		".code-comment { font-style: italic; text-decoration: underline; }\n"+
		".code-keyword { color: #ff0000; font-weight: bold; }\n", buf.String())
}

func TestDefaultThemeCSSUsesHexColours(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, DefaultTheme().CSS(&buf))

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if strings.Contains(line, "color:") {
			assert.Contains(t, line, "color: #", line)
		}
	}
	assert.Contains(t, buf.String(), ".code-keyword { color: #")
	assert.NotContains(t, buf.String(), ".code-comment")
}
