package tokenizer

import (
	"fmt"

	"github.com/dlclark/regexp2"
)

// GrammarSource yields the grammar a pattern recurses into. It is satisfied
// by *Grammar itself (an inline grammar) and by *Ref (a grammar looked up by
// name when tokenizing).
type GrammarSource interface {
	Grammar() (*Grammar, bool)
}

// Pattern is a single matching rule: a compiled regular expression plus the
// modifiers that control how a match is spliced into the node list.
type Pattern struct {
	Regex *regexp2.Regexp

	// Lookbehind means the first capture group is context that has to match
	// but is not part of the classified span.
	Lookbehind bool

	// Greedy matches are searched for in the reassembled remaining text and
	// may span several nodes.
	Greedy bool

	// Alias is a secondary classification used for styling.
	Alias string

	// Inside, when set, is applied to the matched text instead of keeping
	// it as a single leaf.
	Inside GrammarSource
}

// PatternOption configures a Pattern.
type PatternOption func(*Pattern)

// WithLookbehind marks the first capture group as non-consumed context.
func WithLookbehind() PatternOption {
	return func(p *Pattern) { p.Lookbehind = true }
}

// WithGreedy lets the pattern match across already tokenized nodes.
func WithGreedy() PatternOption {
	return func(p *Pattern) { p.Greedy = true }
}

// WithAlias sets the secondary classification of the pattern.
func WithAlias(alias string) PatternOption {
	return func(p *Pattern) { p.Alias = alias }
}

// WithInside tokenizes matched text with the given grammar.
func WithInside(inside GrammarSource) PatternOption {
	return func(p *Pattern) { p.Inside = inside }
}

// NewPattern compiles expr with the given regexp2 options. A malformed
// expression is reported here, never at match time.
func NewPattern(expr string, flags regexp2.RegexOptions, opts ...PatternOption) (*Pattern, error) {
	re, err := regexp2.Compile(expr, flags)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	p := &Pattern{Regex: re}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// MustPattern is like NewPattern but panics on a malformed expression.
func MustPattern(expr string, opts ...PatternOption) *Pattern {
	p, err := NewPattern(expr, regexp2.None, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source expression of the pattern.
func (p *Pattern) String() string {
	return p.Regex.String()
}

// Rule is a named classification with patterns tried in declaration order.
type Rule struct {
	Name     string
	Patterns []*Pattern
}

// NewRule creates a rule.
func NewRule(name string, patterns ...*Pattern) *Rule {
	return &Rule{Name: name, Patterns: patterns}
}

// Grammar is an ordered list of rules; earlier rules take precedence over
// later ones. A grammar must not be modified once it has been handed to
// Tokenize or a Registry, which lets it be shared between goroutines.
type Grammar struct {
	Name  string
	Rules []*Rule
}

// NewGrammar creates a grammar from rules in priority order.
func NewGrammar(name string, rules ...*Rule) *Grammar {
	return &Grammar{Name: name, Rules: rules}
}

// Grammar implements GrammarSource for inline grammars.
func (g *Grammar) Grammar() (*Grammar, bool) {
	return g, g != nil
}

// Rule returns the first rule with the given name.
func (g *Grammar) Rule(name string) (*Rule, bool) {
	for _, r := range g.Rules {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Extend returns a new grammar named name whose rules are rules followed by
// all rules of g. The receiver is left untouched.
func (g *Grammar) Extend(name string, rules ...*Rule) *Grammar {
	all := make([]*Rule, 0, len(rules)+len(g.Rules))
	all = append(all, rules...)
	all = append(all, g.Rules...)
	return NewGrammar(name, all...)
}

// references walks every pattern of g, including inline inside grammars, and
// reports the names of by-name references.
func (g *Grammar) references() []string {
	var names []string
	seen := map[*Grammar]bool{}
	var walk func(*Grammar)
	walk = func(g *Grammar) {
		if g == nil || seen[g] {
			return
		}
		seen[g] = true
		for _, r := range g.Rules {
			for _, p := range r.Patterns {
				switch in := p.Inside.(type) {
				case *Ref:
					names = append(names, in.Name)
				case *Grammar:
					walk(in)
				}
			}
		}
	}
	walk(g)
	return names
}
