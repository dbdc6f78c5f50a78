package tokenizer

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dlclark/regexp2"
	"gopkg.in/yaml.v3"
)

// GrammarFile represents the structure of a YAML grammar file
type GrammarFile struct {
	Name    string            `yaml:"name,omitempty"`
	Aliases []string          `yaml:"aliases,omitempty"`
	Extends string            `yaml:"extends,omitempty"`
	Vars    map[string]string `yaml:"vars,omitempty"`
	Rules   []RuleSpec        `yaml:"rules"`
}

// RuleSpec represents a named rule and its patterns
type RuleSpec struct {
	Name     string        `yaml:"name"`
	Patterns []PatternSpec `yaml:"patterns"`
}

// PatternSpec represents one pattern of a rule. In YAML it is either a
// plain string (the expression) or a mapping with modifiers.
type PatternSpec struct {
	Pattern    string      `yaml:"pattern"`
	Flags      []string    `yaml:"flags,omitempty"`
	Lookbehind bool        `yaml:"lookbehind,omitempty"`
	Greedy     bool        `yaml:"greedy,omitempty"`
	Alias      string      `yaml:"alias,omitempty"`
	Inside     *InsideSpec `yaml:"inside,omitempty"`
}

// InsideSpec is the grammar a pattern's matches are tokenized with: either
// the name of a registered language or an inline grammar.
type InsideSpec struct {
	Ref     string
	Grammar *GrammarFile
}

// patternFlags maps YAML flag names to regexp2 options.
var patternFlags = map[string]regexp2.RegexOptions{
	"multiline":  regexp2.Multiline,
	"dotall":     regexp2.Singleline,
	"singleline": regexp2.Singleline,
	"ignorecase": regexp2.IgnoreCase,
}

func (p *PatternSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.AliasNode {
		value = value.Alias
	}
	if value.Kind == yaml.ScalarNode {
		*p = PatternSpec{Pattern: value.Value}
		return nil
	}
	type plain PatternSpec
	return value.Decode((*plain)(p))
}

func (p PatternSpec) MarshalYAML() (interface{}, error) {
	if len(p.Flags) == 0 && !p.Lookbehind && !p.Greedy && p.Alias == "" && p.Inside == nil {
		return p.Pattern, nil
	}
	type plain PatternSpec
	return plain(p), nil
}

func (in *InsideSpec) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.AliasNode {
		value = value.Alias
	}
	switch value.Kind {
	case yaml.ScalarNode:
		in.Ref = value.Value
		return nil
	case yaml.MappingNode:
		in.Grammar = &GrammarFile{}
		return value.Decode(in.Grammar)
	}
	return fmt.Errorf("line %d: inside must be a language name or a grammar", value.Line)
}

func (in InsideSpec) MarshalYAML() (interface{}, error) {
	if in.Grammar != nil {
		return in.Grammar, nil
	}
	return in.Ref, nil
}

// LoadGrammarFile loads and parses a YAML grammar file
func LoadGrammarFile(filename string) (*GrammarFile, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read grammar file '%s': %w", filename, err)
	}

	gf, err := ParseGrammarFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML in grammar file '%s': %w", filename, err)
	}

	return gf, nil
}

// ParseGrammarFile parses and validates YAML grammar data. Regular
// expressions are not compiled until Build.
func ParseGrammarFile(data []byte) (*GrammarFile, error) {
	var gf GrammarFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&gf); err != nil {
		return nil, err
	}
	if gf.Name == "" {
		return nil, errors.New("grammar has no name")
	}
	if err := gf.validate(); err != nil {
		return nil, fmt.Errorf("grammar %q: %w", gf.Name, err)
	}
	return &gf, nil
}

func (gf *GrammarFile) validate() error {
	for i, rule := range gf.Rules {
		if rule.Name == "" {
			return fmt.Errorf("rule %d has no name", i)
		}
		for j, p := range rule.Patterns {
			if p.Pattern == "" {
				return fmt.Errorf("rule %q pattern %d is empty", rule.Name, j)
			}
			for _, flag := range p.Flags {
				if _, ok := patternFlags[flag]; !ok {
					return fmt.Errorf("rule %q pattern %d: unknown flag %q", rule.Name, j, flag)
				}
			}
			if p.Inside != nil && p.Inside.Grammar != nil {
				if err := p.Inside.Grammar.validate(); err != nil {
					return fmt.Errorf("rule %q pattern %d: inside: %w", rule.Name, j, err)
				}
			}
		}
	}
	return nil
}

// Build compiles the grammar. By-name inside references become registry
// Refs, resolved when tokenizing; an extends base is resolved through r
// immediately and its rules are appended after the file's own rules.
// Build has the signature of a Factory.
func (gf *GrammarFile) Build(r *Registry) (*Grammar, error) {
	g, err := gf.build(r, gf.Name, gf.Vars)
	if err != nil {
		return nil, err
	}
	if gf.Extends == "" {
		return g, nil
	}
	base, ok := r.Resolve(gf.Extends)
	if !ok {
		return nil, fmt.Errorf("cannot extend unavailable grammar %q", gf.Extends)
	}
	return base.Extend(gf.Name, g.Rules...), nil
}

func (gf *GrammarFile) build(r *Registry, name string, vars map[string]string) (*Grammar, error) {
	rules := make([]*Rule, 0, len(gf.Rules))
	for _, rs := range gf.Rules {
		rule := NewRule(rs.Name)
		for j, ps := range rs.Patterns {
			p, err := ps.build(r, name+"-"+rs.Name, vars)
			if err != nil {
				return nil, fmt.Errorf("rule %q pattern %d: %w", rs.Name, j, err)
			}
			rule.Patterns = append(rule.Patterns, p)
		}
		rules = append(rules, rule)
	}
	return NewGrammar(name, rules...), nil
}

func (ps *PatternSpec) build(r *Registry, scope string, vars map[string]string) (*Pattern, error) {
	expr, err := expandVars(ps.Pattern, vars, 0)
	if err != nil {
		return nil, err
	}
	var flags regexp2.RegexOptions
	for _, f := range ps.Flags {
		opt, ok := patternFlags[f]
		if !ok {
			return nil, fmt.Errorf("unknown flag %q", f)
		}
		flags |= opt
	}

	var opts []PatternOption
	if ps.Lookbehind {
		opts = append(opts, WithLookbehind())
	}
	if ps.Greedy {
		opts = append(opts, WithGreedy())
	}
	if ps.Alias != "" {
		opts = append(opts, WithAlias(ps.Alias))
	}
	if in := ps.Inside; in != nil {
		switch {
		case in.Grammar != nil:
			name := in.Grammar.Name
			if name == "" {
				name = scope
			}
			// Inline grammars see the variables of the enclosing file.
			merged := make(map[string]string, len(vars)+len(in.Grammar.Vars))
			for k, v := range vars {
				merged[k] = v
			}
			for k, v := range in.Grammar.Vars {
				merged[k] = v
			}
			inside, err := in.Grammar.build(r, name, merged)
			if err != nil {
				return nil, fmt.Errorf("inside: %w", err)
			}
			opts = append(opts, WithInside(inside))
		case in.Ref != "":
			opts = append(opts, WithInside(r.Ref(in.Ref)))
		}
	}
	return NewPattern(expr, flags, opts...)
}

// maxVarDepth bounds nested {{var}} expansion, which also catches
// self-referencing variables.
const maxVarDepth = 16

// expandVars replaces every {{name}} in expr with the (expanded) value of
// vars[name]. Braces that do not enclose an identifier are left alone.
func expandVars(expr string, vars map[string]string, depth int) (string, error) {
	if depth > maxVarDepth {
		return "", fmt.Errorf("variable expansion too deep in %q", expr)
	}
	var sb strings.Builder
	for {
		i := strings.Index(expr, "{{")
		if i < 0 {
			break
		}
		j := strings.Index(expr[i+2:], "}}")
		if j < 0 {
			break
		}
		name := expr[i+2 : i+2+j]
		if !isVarName(name) {
			// Not a variable; the second brace may still open one, as in \{{{v}}.
			sb.WriteString(expr[:i+1])
			expr = expr[i+1:]
			continue
		}
		value, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("undefined variable %q", name)
		}
		value, err := expandVars(value, vars, depth+1)
		if err != nil {
			return "", err
		}
		sb.WriteString(expr[:i])
		sb.WriteString(value)
		expr = expr[i+2+j+2:]
	}
	sb.WriteString(expr)
	return sb.String(), nil
}

func isVarName(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !(c == '_' || c == '-' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// RegisterGrammarFile registers gf with r under its name and aliases. The
// grammar is compiled the first time it is resolved.
func RegisterGrammarFile(r *Registry, gf *GrammarFile) {
	r.Register(gf.Name, gf.Build, gf.Aliases...)
}

// Marshal renders the grammar file back to YAML.
func (gf *GrammarFile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(gf); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
