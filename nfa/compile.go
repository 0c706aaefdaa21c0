package nfa

import (
	"fmt"

	"github.com/raedwulf/sre2c/ir"
	"github.com/raedwulf/sre2c/ranges"
)

// Compile builds the NFA for a rule specification. Each condition gets
// exactly one start state; each non-default rule gets exactly one accept
// state carrying its id and priority. Default rules contribute no
// automaton path (they are the emitter's fall-through action).
func Compile(spec *ir.Spec) (*NFA, error) {
	b := NewBuilder()
	conds := spec.Conditions()
	if len(conds) == 0 {
		conds = []string{""}
	}
	for _, cond := range conds {
		var entries []StateID
		for _, r := range spec.RulesFor(cond) {
			if r.Default {
				continue
			}
			accept := b.AddAccept(r.ID, r.Priority)
			entry, err := compileNode(b, r.RE, accept)
			if err != nil {
				return nil, &CompileError{Rule: r.ID, Err: err}
			}
			entries = append(entries, entry)
		}
		start := combine(b, entries)
		if err := b.SetStart(cond, start); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// combine merges rule entry states into one start state.
func combine(b *Builder, entries []StateID) StateID {
	if len(entries) == 0 {
		// A condition with only a default rule matches nothing.
		return b.AddRange(0, 0, InvalidState)
	}
	start := entries[0]
	for _, e := range entries[1:] {
		start = b.AddSplit(start, e)
	}
	return start
}

// compileNode builds the fragment for node n continuing to next and
// returns its entry state. Construction runs right to left so that every
// state's target already exists, except for the loop back-edges which are
// patched.
func compileNode(b *Builder, n *ir.Node, next StateID) (StateID, error) {
	switch n.Op {
	case ir.OpSym:
		return compileSym(b, n.Sym, next), nil

	case ir.OpCat:
		cur := next
		for i := len(n.Sub) - 1; i >= 0; i-- {
			var err error
			cur, err = compileNode(b, n.Sub[i], cur)
			if err != nil {
				return InvalidState, err
			}
		}
		if cur == next {
			// Empty concatenation: the empty string.
			cur = b.AddEpsilon(next)
		}
		return cur, nil

	case ir.OpAlt:
		if len(n.Sub) == 0 {
			return b.AddRange(0, 0, InvalidState), nil
		}
		cur, err := compileNode(b, n.Sub[0], next)
		if err != nil {
			return InvalidState, err
		}
		for _, sub := range n.Sub[1:] {
			entry, err := compileNode(b, sub, next)
			if err != nil {
				return InvalidState, err
			}
			cur = b.AddSplit(cur, entry)
		}
		return cur, nil

	case ir.OpTag:
		return b.AddTag(n.Tag, next), nil

	case ir.OpIter:
		return compileIter(b, n, next)

	default:
		return InvalidState, fmt.Errorf("%w: unknown IR op %v", ErrCompilation, n.Op)
	}
}

// compileIter unrolls bounded repetition; an unbounded tail becomes a
// split with an ε back-edge.
func compileIter(b *Builder, n *ir.Node, next StateID) (StateID, error) {
	body := n.Sub[0]
	min, max := n.Min, n.Max
	if min < 0 || (max >= 0 && max < min) {
		return InvalidState, fmt.Errorf("%w: bad iteration bounds {%d,%d}", ErrCompilation, min, max)
	}

	cur := next
	if max < 0 {
		// body* : split between one more round and the exit.
		split := b.AddSplit(InvalidState, next)
		entry, err := compileNode(b, body, split)
		if err != nil {
			return InvalidState, err
		}
		if err := b.PatchSplit(split, entry, next); err != nil {
			return InvalidState, err
		}
		cur = split
	} else {
		// max-min optional trailing copies.
		for i := min; i < max; i++ {
			entry, err := compileNode(b, body, cur)
			if err != nil {
				return InvalidState, err
			}
			cur = b.AddSplit(entry, cur)
		}
	}
	// min mandatory copies in front.
	for i := 0; i < min; i++ {
		entry, err := compileNode(b, body, cur)
		if err != nil {
			return InvalidState, err
		}
		cur = entry
	}
	return cur, nil
}

// compileSym builds the fragment for a symbol set: one Range state per
// interval, folded into splits.
func compileSym(b *Builder, set ranges.Set, next StateID) StateID {
	if len(set) == 0 {
		return b.AddRange(0, 0, InvalidState)
	}
	cur := b.AddRange(set[0].Lo, set[0].Hi, next)
	for _, r := range set[1:] {
		alt := b.AddRange(r.Lo, r.Hi, next)
		cur = b.AddSplit(cur, alt)
	}
	return cur
}
