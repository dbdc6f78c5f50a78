package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewDefaultRegistry()
	require.NoError(t, err)
	return r
}

func TestBuiltinLanguages(t *testing.T) {
	expected := []string{"bash", "clike", "css", "gdscript", "ini", "javascript", "json", "kotlin", "kthtml", "markup", "nushell", "qml"}
	assert.Equal(t, expected, BuiltinLanguages())

	r := defaultRegistry(t)
	assert.Equal(t, expected, r.Languages())
	for _, lang := range expected {
		_, ok := r.Resolve(lang)
		assert.True(t, ok, "%s: %v", lang, r.Err(lang))
	}
}

func TestBuiltinAliases(t *testing.T) {
	r := defaultRegistry(t)

	tests := []struct {
		alias    string
		expected string
	}{
		{"nu", "nushell"},
		{"cfg", "ini"},
		{"html", "markup"},
		{"xml", "markup"},
		{"svg", "markup"},
		{"mathml", "markup"},
		{"js", "javascript"},
		{"kt", "kotlin"},
		{"sh", "bash"},
		{"shell", "bash"},
	}

	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			g, ok := r.Resolve(tt.alias)
			require.True(t, ok)
			assert.Equal(t, tt.expected, g.Name)

			gf, ok := BuiltinGrammarFile(tt.alias)
			require.True(t, ok)
			assert.Equal(t, tt.expected, gf.Name)
		})
	}

	_, ok := BuiltinGrammarFile("cobol")
	assert.False(t, ok)
}

func TestBuiltinHighlighting(t *testing.T) {
	r := defaultRegistry(t)

	tests := []struct {
		lang     string
		input    string
		expected []string
	}{
		{
			lang:  "ini",
			input: "[core]\nname = \"x\"\n; note\n",
			expected: []string{
				"class-name:[core]", "\n", "property:name ", "punctuation:=", " ",
				`string:"x"`, "\n", "comment:; note\n",
			},
		},
		{
			lang:     "json",
			input:    `{"a": 1}`,
			expected: []string{"punctuation:{", `property:"a"`, "operator::", " ", "number:1", "punctuation:}"},
		},
		{
			lang:     "markup",
			input:    `<a href="x">hi</a>`,
			expected: []string{`tag:<a href="x">`, "hi", "tag:</a>"},
		},
		{
			lang:     "gdscript",
			input:    "func _ready():\n",
			expected: []string{"keyword:func", " ", "function:_ready", "punctuation:(", "punctuation:)", "punctuation::", "\n"},
		},
		{
			lang:     "bash",
			input:    `echo "hi $USER" # c`,
			expected: []string{"builtin:echo", " ", `string:"hi $USER"`, " ", "comment:# c"},
		},
		{
			lang:     "qml",
			input:    "import QtQuick\n",
			expected: []string{"keyword:import", " ", "class-name:QtQuick", "\n"},
		},
		{
			lang:     "kthtml",
			input:    "<p><?kt val x ?></p>",
			expected: []string{"tag:<p>", "preprocessor-open-hl:<?kt", "preprocessor-inner: val x ", "preprocessor-close-hl:?>", "tag:</p>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.lang, func(t *testing.T) {
			g, ok := r.Resolve(tt.lang)
			require.True(t, ok)
			nodes := Tokenize(tt.input, g)
			assert.Equal(t, tt.expected, flat(nodes))
			checkTree(t, tt.input, nodes)
		})
	}
}

func TestMarkupTagChildren(t *testing.T) {
	g, ok := defaultRegistry(t).Resolve("html")
	require.True(t, ok)

	nodes := Tokenize(`<a href="x">hi</a>`, g)
	tag := syntaxAt(t, nodes, 0)

	assert.Equal(t, []string{
		"punctuation:<", "tag:a", " ", "attr-name:href", "punctuation:=", `string:"x"`, "punctuation:>",
	}, flat(tag.Children))
	name := syntaxAt(t, tag.Children, 1)
	assert.Equal(t, "property", name.Alias)
}

func TestEmbeddedLanguages(t *testing.T) {
	r := defaultRegistry(t)

	t.Run("kotlin in kthtml", func(t *testing.T) {
		g, ok := r.Resolve("kthtml")
		require.True(t, ok)
		nodes := Tokenize("<p><?kt val x ?></p>", g)
		inner := syntaxAt(t, nodes, 2)
		assert.Equal(t, "text", inner.Alias)
		assert.Equal(t, []string{" ", "keyword:val", " x "}, flat(inner.Children))
	})

	t.Run("nushell interpolation", func(t *testing.T) {
		g, ok := r.Resolve("nu")
		require.True(t, ok)
		nodes := Tokenize(`$"a(1)"`, g)
		require.Len(t, nodes, 1)
		str := syntaxAt(t, nodes, 0)
		assert.Equal(t, "interpolated-string", str.Rule)
		assert.Equal(t, "string", str.Alias)
		assert.Equal(t, []string{`string:$"a`, "delimiter:(", "interpolation:1", "delimiter:)", `string:"`}, flat(str.Children))

		interp := syntaxAt(t, str.Children, 2)
		assert.Equal(t, []string{"number:1"}, flat(interp.Children))
	})

	t.Run("bash string variables", func(t *testing.T) {
		g, ok := r.Resolve("sh")
		require.True(t, ok)
		nodes := Tokenize(`echo "hi $USER" # c`, g)
		str := syntaxAt(t, nodes, 2)
		assert.Equal(t, []string{`string:"hi `, "variable:$USER", `string:"`}, flat(str.Children))
	})
}
