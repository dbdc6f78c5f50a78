package render

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// Style is how one token class is displayed.
type Style struct {
	// Color is "#rrggbb" or an ANSI colour index. Empty leaves the
	// terminal's default foreground.
	Color     string
	Bold      bool
	Italic    bool
	Underline bool
}

// Theme maps token classes (rule names and aliases) to styles.
type Theme struct {
	Name       string
	Background string
	styles     map[string]Style
}

// NewTheme creates a theme from a class -> style table.
func NewTheme(name string, classes map[string]Style) *Theme {
	return &Theme{Name: name, styles: maps.Clone(classes)}
}

// Lookup returns the style for a leaf, trying its rule name first and its
// alias second.
func (t *Theme) Lookup(rule, alias string) (Style, bool) {
	if s, ok := t.styles[rule]; ok {
		return s, true
	}
	if alias == "" {
		return Style{}, false
	}
	s, ok := t.styles[alias]
	return s, ok
}

// Classes returns the styled class names, sorted.
func (t *Theme) Classes() []string {
	return slices.Sorted(maps.Keys(t.styles))
}

const (
	red     = "1"
	green   = "2"
	yellow  = "3"
	blue    = "4"
	magenta = "5"
	cyan    = "6"
)

// DefaultTheme is the built-in terminal palette. It uses the sixteen ANSI
// colours so it follows the terminal's own colour scheme.
func DefaultTheme() *Theme {
	return NewTheme("default", map[string]Style{
		"keyword":       {Color: magenta},
		"boolean":       {Color: magenta},
		"delimiter":     {Color: magenta},
		"function":      {Color: blue, Italic: true},
		"number":        {Color: yellow},
		"annotation":    {Color: yellow},
		"class-name":    {Color: yellow},
		"attr-name":     {Color: yellow},
		"operator":      {Color: cyan},
		"directive":     {Color: cyan},
		"selector":      {Color: cyan},
		"string":        {Color: green},
		"raw-string":    {Color: green},
		"module":        {Color: green},
		"interpolation": {Color: red},
		"cdata":         {Color: red},
		"prolog":        {Color: red},
		"entity":        {Color: red, Italic: true},
		"rule":          {Color: red, Italic: true},
		"property":      {Color: blue},
		"bold":          {Bold: true},
		"italic":        {Italic: true},
		"comment":       {},
		"text":          {},
		"punctuation":   {},
		"label":         {},
		"identifier":    {},
	})
}

// tokenTypes maps token classes used by the grammars to chroma token types.
var tokenTypes = map[string]chroma.TokenType{
	"annotation":            chroma.NameDecorator,
	"argument":              chroma.NameAttribute,
	"atrule":                chroma.Keyword,
	"attr-name":             chroma.NameAttribute,
	"bold":                  chroma.GenericStrong,
	"boolean":               chroma.KeywordConstant,
	"builtin":               chroma.NameBuiltin,
	"builtin-function":      chroma.NameBuiltin,
	"cdata":                 chroma.CommentPreproc,
	"char":                  chroma.LiteralStringChar,
	"class-name":            chroma.NameClass,
	"command":               chroma.NameFunction,
	"comment":               chroma.Comment,
	"constant":              chroma.NameConstant,
	"declaration-type":      chroma.KeywordType,
	"delimiter":             chroma.LiteralStringInterpol,
	"directive":             chroma.CommentPreproc,
	"doctype":               chroma.CommentPreproc,
	"entity":                chroma.NameEntity,
	"file-descriptor":       chroma.LiteralNumber,
	"function":              chroma.NameFunction,
	"function-name":         chroma.NameFunction,
	"identifier":            chroma.Name,
	"important":             chroma.KeywordReserved,
	"interpolation":         chroma.LiteralStringInterpol,
	"italic":                chroma.GenericEmph,
	"keyword":               chroma.Keyword,
	"label":                 chroma.NameLabel,
	"module":                chroma.NameNamespace,
	"number":                chroma.LiteralNumber,
	"operator":              chroma.Operator,
	"path":                  chroma.LiteralStringOther,
	"prolog":                chroma.CommentPreproc,
	"property":              chroma.NameProperty,
	"punctuation":           chroma.Punctuation,
	"raw-string":            chroma.LiteralStringOther,
	"regex":                 chroma.LiteralStringRegex,
	"rule":                  chroma.Keyword,
	"selector":              chroma.NameTag,
	"shebang":               chroma.CommentHashbang,
	"string":                chroma.LiteralString,
	"tag":                   chroma.NameTag,
	"text":                  chroma.Text,
	"url":                   chroma.LiteralStringOther,
	"variable":              chroma.NameVariable,
	"preprocessor-open-hl":  chroma.CommentPreproc,
	"preprocessor-close-hl": chroma.CommentPreproc,
}

// Themes returns the names of the chroma styles ThemeFromChroma accepts.
func Themes() []string {
	return styles.Names()
}

// ThemeFromChroma builds a theme from a named chroma style, such as
// "monokai" or "github".
func ThemeFromChroma(name string) (*Theme, error) {
	style, ok := styles.Registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown theme %q", name)
	}
	t := &Theme{Name: style.Name, styles: make(map[string]Style, len(tokenTypes))}
	for class, tt := range tokenTypes {
		entry := style.Get(tt)
		s := Style{
			Bold:      entry.Bold == chroma.Yes,
			Italic:    entry.Italic == chroma.Yes,
			Underline: entry.Underline == chroma.Yes,
		}
		if entry.Colour.IsSet() {
			s.Color = entry.Colour.String()
		}
		t.styles[class] = s
	}
	if bg := style.Get(chroma.Background).Background; bg.IsSet() {
		t.Background = bg.String()
	}
	return t, nil
}

// CSS writes a stylesheet for the classes the HTML renderer emits.
func (t *Theme) CSS(w io.Writer) error {
	if t.Background != "" {
		if _, err := fmt.Fprintf(w, ".codeblock { background-color: %s; }\n", cssColor(t.Background)); err != nil {
			return err
		}
	}
	for _, class := range t.Classes() {
		s := t.styles[class]
		var decls []string
		if s.Color != "" {
			decls = append(decls, "color: "+cssColor(s.Color)+";")
		}
		if s.Bold {
			decls = append(decls, "font-weight: bold;")
		}
		if s.Italic {
			decls = append(decls, "font-style: italic;")
		}
		if s.Underline {
			decls = append(decls, "text-decoration: underline;")
		}
		if len(decls) == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, ".code-%s { %s }\n", class, strings.Join(decls, " ")); err != nil {
			return err
		}
	}
	return nil
}

// cssColor turns an ANSI colour index into the hex value of the standard
// palette.
func cssColor(c string) string {
	if strings.HasPrefix(c, "#") {
		return c
	}
	return termenv.ConvertToRGB(termenv.TrueColor.Color(c)).Hex()
}
