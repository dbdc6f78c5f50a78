package tokenizer

import (
	"encoding/json"
	"strings"
)

// Node is an element of a token tree: either *Text or *Syntax.
type Node interface {
	// Len is the number of bytes of source text the node covers.
	Len() int
	// Source is the source text the node covers.
	Source() string

	node()
}

// Text is an unclassified span of source text.
type Text struct {
	Literal string
}

// NewText creates a text node.
func NewText(literal string) *Text {
	return &Text{Literal: literal}
}

func (t *Text) Len() int       { return len(t.Literal) }
func (t *Text) Source() string { return t.Literal }
func (*Text) node()            {}

// MarshalJSON implements custom JSON marshaling for Text.
func (t *Text) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}{"text", t.Literal})
}

// Syntax is a classified span. Children cover exactly Matched: either the
// result of an inside grammar or a single Text node.
type Syntax struct {
	Rule     string
	Alias    string
	Children []Node
	Matched  string
	Greedy   bool
}

// NewSyntax creates a syntax node.
func NewSyntax(rule, alias, matched string, greedy bool, children []Node) *Syntax {
	return &Syntax{
		Rule:     rule,
		Alias:    alias,
		Children: children,
		Matched:  matched,
		Greedy:   greedy,
	}
}

func (s *Syntax) Len() int       { return len(s.Matched) }
func (s *Syntax) Source() string { return s.Matched }
func (*Syntax) node()            {}

// Leaf reports whether the node's only child is a Text node, in which case
// renderers style the whole node at once.
func (s *Syntax) Leaf() (*Text, bool) {
	if len(s.Children) != 1 {
		return nil, false
	}
	t, ok := s.Children[0].(*Text)
	return t, ok
}

// MarshalJSON implements custom JSON marshaling for Syntax.
func (s *Syntax) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string `json:"type"`
		Rule     string `json:"rule"`
		Alias    string `json:"alias,omitempty"`
		Text     string `json:"text"`
		Greedy   bool   `json:"greedy,omitempty"`
		Children []Node `json:"children"`
	}{"syntax", s.Rule, s.Alias, s.Matched, s.Greedy, s.Children})
}

// Visitor receives the nodes of a tree in source order.
type Visitor interface {
	VisitText(*Text)
	VisitSyntax(*Syntax)
}

// Walk dispatches every node in nodes to v.
func Walk(v Visitor, nodes []Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Text:
			v.VisitText(n)
		case *Syntax:
			v.VisitSyntax(n)
		}
	}
}

// WalkChildren is the default traversal of a syntax node: it walks its
// children with v.
func WalkChildren(v Visitor, s *Syntax) {
	Walk(v, s.Children)
}

// Source concatenates the text leaves of nodes, in order. For any tree
// produced by Tokenize it equals the tokenized input.
func Source(nodes []Node) string {
	var sb strings.Builder
	Walk(&sourceVisitor{&sb}, nodes)
	return sb.String()
}

type sourceVisitor struct {
	sb *strings.Builder
}

func (v *sourceVisitor) VisitText(t *Text)     { v.sb.WriteString(t.Literal) }
func (v *sourceVisitor) VisitSyntax(s *Syntax) { WalkChildren(v, s) }
