package tokenizer

import (
	"slices"

	"github.com/dlclark/regexp2"
)

// runeText pairs a string with its runes and the byte offset of every rune,
// so that rune indices reported by regexp2 can be mapped back to byte
// offsets. Invalid UTF-8 bytes become one rune each and keep their width.
// It is built once per tokenize call and shared by every search.
type runeText struct {
	runes   []rune
	offsets []int // len(runes)+1 entries; the last one is len(s)
}

func newRuneText(s string) *runeText {
	rt := &runeText{
		runes:   make([]rune, 0, len(s)),
		offsets: make([]int, 0, len(s)+1),
	}
	for i, r := range s {
		rt.runes = append(rt.runes, r)
		rt.offsets = append(rt.offsets, i)
	}
	rt.offsets = append(rt.offsets, len(s))
	return rt
}

// runeIndex converts a byte offset on a rune boundary to a rune index.
func (rt *runeText) runeIndex(offset int) int {
	i, _ := slices.BinarySearch(rt.offsets, offset)
	return i
}

// byteSpan converts a rune index and rune length to byte offsets.
func (rt *runeText) byteSpan(index, length int) (int, int) {
	return rt.offsets[index], rt.offsets[index+length]
}

// find returns the byte span [from, to) of the first match of p within the
// region [start, end) of rt whose classified part is not empty. The region
// is searched on its own: ^ matches at start and lookbehind cannot see
// before it. With lookbehind set, the first capture group is cut from the
// front of the match. Zero-length spans are never returned: splicing one in
// would not consume any input.
func (p *Pattern) find(rt *runeText, start, end int) (from, to int, ok bool) {
	if start >= end {
		return 0, 0, false
	}
	lo, hi := rt.runeIndex(start), rt.runeIndex(end)
	m, err := p.Regex.FindRunesMatch(rt.runes[lo:hi:hi])
	for ; err == nil && m != nil; m, err = p.Regex.FindNextMatch(m) {
		from, to = rt.byteSpan(lo+m.Index, m.Length)
		if p.Lookbehind {
			from += lookbehindLength(rt, lo, m)
		}
		if from < to {
			return from, to, true
		}
	}
	return 0, 0, false
}

// lookbehindLength is the byte length of the first capture group of m, or 0
// if the group does not exist or did not participate in the match. lo is
// the rune index the searched region starts at.
func lookbehindLength(rt *runeText, lo int, m *regexp2.Match) int {
	g := m.GroupByNumber(1)
	if g == nil || len(g.Captures) == 0 {
		return 0
	}
	start, end := rt.byteSpan(lo+g.Index, g.Length)
	return end - start
}
