package tokenizer

// DefaultMaxDepth bounds how deeply inside grammars may nest before matched
// text is left unclassified.
const DefaultMaxDepth = 32

// Tokenizer splits text into a node tree according to a grammar. The zero
// value is ready to use. A Tokenizer holds no per-call state and may be used
// from several goroutines at once.
type Tokenizer struct {
	// MaxDepth is the maximum nesting of inside grammars. Zero means
	// DefaultMaxDepth.
	MaxDepth int
}

// Tokenize splits text with grammar g using the default settings.
func Tokenize(text string, g *Grammar) []Node {
	return Tokenizer{}.Tokenize(text, g)
}

// Tokenize splits text into nodes. Concatenating the text leaves of the
// result always reproduces text. Empty text yields no nodes.
func (tk Tokenizer) Tokenize(text string, g *Grammar) []Node {
	depth := tk.MaxDepth
	if depth <= 0 {
		depth = DefaultMaxDepth
	}
	return tokenize(text, g, depth)
}

func tokenize(text string, g *Grammar, depth int) []Node {
	// Empty spans never enter the rule loop.
	if text == "" {
		return nil
	}
	if g == nil || depth <= 0 {
		return []Node{NewText(text)}
	}
	m := &matcher{
		text:  text,
		runes: newRuneText(text),
		head:  &link{},
		depth: depth,
	}
	first := &link{node: NewText(text), prev: m.head}
	m.head.next = first
	m.matchGrammar(g, first, 0, nil)
	return m.collect()
}

// target identifies the pattern whose greedy merge triggered a one-shot
// pass. The pass stops when it reaches it, so the same pattern can never
// re-match at the merge point.
type target struct {
	rule    int
	pattern int
}

// link is an element of the matcher's node list. Splices only ever touch
// the links they replace, so their cost does not depend on the list length.
type link struct {
	node       Node
	prev, next *link
}

// matcher holds the node list of one tokenize call. Every node in it is
// non-empty and the nodes always concatenate to text.
type matcher struct {
	text  string
	runes *runeText
	head  *link // sentinel; head.next is the first node
	depth int
}

func (m *matcher) collect() []Node {
	var nodes []Node
	for l := m.head.next; l != nil; l = l.next {
		nodes = append(nodes, l.node)
	}
	return nodes
}

// matchGrammar applies every pattern of g, in priority order, to the nodes
// from l onwards; start is the byte offset of l. With a target it is a
// one-shot pass: only rules before the target rule and the target rule's
// later patterns are tried, each at most once.
func (m *matcher) matchGrammar(g *Grammar, l *link, start int, t *target) {
	for ri, rule := range g.Rules {
		first := 0
		if t != nil {
			if ri > t.rule {
				return
			}
			if ri == t.rule {
				first = t.pattern + 1
			}
		}
		for pi := first; pi < len(rule.Patterns); pi++ {
			m.matchPattern(g, ri, pi, l, start, t != nil)
		}
	}
}

// matchPattern scans the node list for occurrences of one pattern and
// splices a Syntax node in for each of them.
func (m *matcher) matchPattern(g *Grammar, ri, pi int, l *link, start int, oneShot bool) {
	p := g.Rules[ri].Patterns[pi]
	pos := start
	for l != nil {
		text, ok := l.node.(*Text)
		if !ok {
			pos += l.node.Len()
			l = l.next
			continue
		}

		var s splice
		if p.Greedy {
			from, to, found := p.find(m.runes, pos, len(m.text))
			if !found {
				break
			}
			var skip bool
			s, skip = m.greedySpan(l, pos, from, to)
			if skip {
				// Resume after the node the match starts in.
				pos = s.base + s.first.node.Len()
				l = s.first.next
				continue
			}
		} else {
			from, to, found := p.find(m.runes, pos, pos+text.Len())
			if !found {
				if oneShot {
					break
				}
				pos += text.Len()
				l = l.next
				continue
			}
			s = splice{first: l, last: l.next, count: 1, base: pos, end: pos + text.Len(), from: from, to: to}
		}

		at := m.replace(s, g.Rules[ri].Name, p)
		before := at.prev
		if s.count > 1 {
			m.matchGrammar(g, at, s.from, &target{rule: ri, pattern: pi})
		}
		if oneShot {
			break
		}
		pos, l = s.to, at.next
		if before.next != at {
			// The one-shot pass absorbed the new node; rescan from its start.
			pos, l = s.from, before.next
		}
	}
}

// splice describes the count nodes from first up to (not including) last
// that a match displaces; last is nil at the end of the list. base and end
// are the byte offsets of the start of first and the end of the last
// displaced node; [from, to) is the matched span.
type splice struct {
	first, last *link
	count       int
	base, end   int
	from, to    int
}

// greedySpan maps the greedy match [from, to), found in the text remaining
// after the start of l (at byte offset pos), onto the node list. It reports
// skip when the match may not be spliced in: when it starts inside a Syntax
// node, when its end would cut a Syntax node produced by a non-greedy
// pattern, or when it covers no Text node at all.
func (m *matcher) greedySpan(l *link, pos, from, to int) (splice, bool) {
	s := splice{first: l, base: pos, from: from, to: to}
	for s.base+s.first.node.Len() <= from {
		s.base += s.first.node.Len()
		s.first = s.first.next
	}
	if _, ok := s.first.node.(*Syntax); ok && from != s.base {
		return s, true
	}

	s.end = s.base
	covers := false
	var cut Node
	for s.last = s.first; s.end < to; s.last = s.last.next {
		if _, ok := s.last.node.(*Text); ok {
			covers = true
		}
		cut = s.last.node
		s.end += cut.Len()
		s.count++
	}
	if !covers || (s.end > to && !lazy(cut)) {
		return s, true
	}

	// The tail of a cut node becomes text; merge the text that follows it.
	if s.end > to && s.last != nil {
		if next, ok := s.last.node.(*Text); ok {
			s.end += next.Len()
			s.last = s.last.next
			s.count++
		}
	}
	return s, false
}

// lazy reports whether a later greedy match may cut through n.
func lazy(n Node) bool {
	switch n := n.(type) {
	case *Text:
		return true
	case *Syntax:
		return n.Greedy
	}
	return false
}

// replace swaps the nodes of s for an optional leading Text, the new Syntax
// node and an optional trailing Text, and returns the link of the Syntax
// node.
func (m *matcher) replace(s splice, rule string, p *Pattern) *link {
	matched := m.text[s.from:s.to]
	prev := s.first.prev
	insert := func(n Node) *link {
		l := &link{node: n, prev: prev, next: s.last}
		prev.next = l
		if s.last != nil {
			s.last.prev = l
		}
		prev = l
		return l
	}
	if s.from > s.base {
		insert(NewText(m.text[s.base:s.from]))
	}
	at := insert(NewSyntax(rule, p.Alias, matched, p.Greedy, m.children(matched, p)))
	if s.to < s.end {
		insert(NewText(m.text[s.to:s.end]))
	}
	return at
}

// children tokenizes matched with the pattern's inside grammar, one level
// deeper, or wraps it in a single Text node.
func (m *matcher) children(matched string, p *Pattern) []Node {
	if p.Inside != nil {
		if inside, ok := p.Inside.Grammar(); ok {
			return tokenize(matched, inside, m.depth-1)
		}
	}
	return []Node{NewText(matched)}
}
