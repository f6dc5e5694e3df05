package align

import (
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

// Absent marks the missing side of an insertion or deletion pair.
const Absent rune = -1

// ConfusionPair is one character-level difference between a recognized line
// and its match. Source is Absent for an insertion (the match has a
// character the line lacks); Target is Absent for a deletion.
type ConfusionPair struct {
	Source rune
	Target rune
}

// IsSubstitution reports whether both sides are present.
func (p ConfusionPair) IsSubstitution() bool {
	return p.Source != Absent && p.Target != Absent
}

// SourceString returns the source character, or "" when absent.
func (p ConfusionPair) SourceString() string { return runeString(p.Source) }

// TargetString returns the target character, or "" when absent.
func (p ConfusionPair) TargetString() string { return runeString(p.Target) }

func runeString(r rune) string {
	if r == Absent {
		return ""
	}
	return string(r)
}

type stepKind int

const (
	stepEqual stepKind = iota
	stepDelete
	stepInsert
	stepSubstitute
)

// step is one element of a paired edit script.
type step struct {
	kind stepKind
	a, b rune
}

// editScript returns the character edit script from a to b, one entry per
// rune. Replace blocks list deletions before insertions unless the inserted
// run is the shorter one, which is then listed first.
func editScript(a, b []rune) []step {
	sa, sb := make([]string, len(a)), make([]string, len(b))
	for i, r := range a {
		sa[i] = string(r)
	}
	for i, r := range b {
		sb[i] = string(r)
	}

	var script []step
	del := func(i1, i2 int) {
		for _, r := range a[i1:i2] {
			script = append(script, step{kind: stepDelete, a: r, b: Absent})
		}
	}
	ins := func(j1, j2 int) {
		for _, r := range b[j1:j2] {
			script = append(script, step{kind: stepInsert, a: Absent, b: r})
		}
	}

	m := difflib.NewMatcherWithJunk(sa, sb, false, nil)
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for _, r := range a[op.I1:op.I2] {
				script = append(script, step{kind: stepEqual, a: r, b: r})
			}
		case 'd':
			del(op.I1, op.I2)
		case 'i':
			ins(op.J1, op.J2)
		case 'r':
			if op.J2-op.J1 < op.I2-op.I1 {
				ins(op.J1, op.J2)
				del(op.I1, op.I2)
			} else {
				del(op.I1, op.I2)
				ins(op.J1, op.J2)
			}
		}
	}
	return script
}

// pairSteps walks the edit script left to right and folds a deletion that
// is immediately followed by an insertion into one substitution.
func pairSteps(a, b string) []step {
	script := editScript([]rune(a), []rune(b))
	out := make([]step, 0, len(script))
	for i := 0; i < len(script); i++ {
		s := script[i]
		if s.kind == stepDelete && i+1 < len(script) && script[i+1].kind == stepInsert {
			out = append(out, step{kind: stepSubstitute, a: s.a, b: script[i+1].b})
			i++
			continue
		}
		out = append(out, s)
	}
	return out
}

// ExtractConfusions returns the confusion pairs between a and b in script
// order. Equal characters produce nothing.
//
// The delete-then-insert pairing is greedy: inside a block of several
// consecutive changes it can pair characters a human would not. The edit
// script is computed with the popular-element junk heuristic off, so lines
// of 200 or more runes may pair differently than a matcher that turns it on.
func ExtractConfusions(a, b string) []ConfusionPair {
	var pairs []ConfusionPair
	for _, s := range pairSteps(a, b) {
		if s.kind == stepEqual {
			continue
		}
		pairs = append(pairs, ConfusionPair{Source: s.a, Target: s.b})
	}
	return pairs
}

// ConfusionEntry is a pair with its occurrence count.
type ConfusionEntry struct {
	Pair  ConfusionPair
	Count int
}

// ConfusionCount tallies confusion pairs and remembers the order in which
// each pair was first seen. It is not safe for concurrent use; merge
// per-line slices into it after the lines are done.
type ConfusionCount struct {
	counts map[ConfusionPair]int
	order  []ConfusionPair
}

// NewConfusionCount returns an empty tally.
func NewConfusionCount() *ConfusionCount {
	return &ConfusionCount{counts: make(map[ConfusionPair]int)}
}

// Add counts every pair.
func (c *ConfusionCount) Add(pairs ...ConfusionPair) {
	for _, p := range pairs {
		if _, ok := c.counts[p]; !ok {
			c.order = append(c.order, p)
		}
		c.counts[p]++
	}
}

// Merge adds every count of other. Pairs new to c are appended in the
// order other first saw them.
func (c *ConfusionCount) Merge(other *ConfusionCount) {
	if other == nil {
		return
	}
	for _, p := range other.order {
		if _, ok := c.counts[p]; !ok {
			c.order = append(c.order, p)
		}
		c.counts[p] += other.counts[p]
	}
}

// Count returns how often p was added.
func (c *ConfusionCount) Count(p ConfusionPair) int { return c.counts[p] }

// Len returns the number of distinct pairs.
func (c *ConfusionCount) Len() int { return len(c.order) }

// Total returns the number of pairs added.
func (c *ConfusionCount) Total() int {
	n := 0
	for _, v := range c.counts {
		n += v
	}
	return n
}

// Ranked returns all pairs by descending count; equal counts keep
// first-seen order.
func (c *ConfusionCount) Ranked() []ConfusionEntry {
	out := make([]ConfusionEntry, len(c.order))
	for i, p := range c.order {
		out[i] = ConfusionEntry{Pair: p, Count: c.counts[p]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Top returns the n most frequent pairs, or all of them when n <= 0.
func (c *ConfusionCount) Top(n int) []ConfusionEntry {
	ranked := c.Ranked()
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
