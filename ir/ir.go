// Package ir defines the intermediate representation for lexer rules: a
// small tagged regex tree plus the per-condition rule lists that drive
// automaton construction.
//
// The tree is immutable after construction and is consumed top-down by the
// NFA builder. Character classes are expanded into code-unit ranges at
// construction time, so downstream stages never see code points.
package ir

import (
	"errors"
	"fmt"

	"github.com/raedwulf/sre2c/enc"
	"github.com/raedwulf/sre2c/ranges"
)

// Common construction errors.
var (
	// ErrEncoding indicates a code point that the configured encoding
	// cannot represent under PolicyFail.
	ErrEncoding = errors.New("invalid code point for encoding")

	// ErrSemantic indicates a malformed specification (a rule without a
	// regex, a duplicate default rule for a condition).
	ErrSemantic = errors.New("invalid rule specification")
)

// Op identifies the variant of a Node.
type Op uint8

const (
	// OpSym matches a single code unit from a range set.
	OpSym Op = iota

	// OpAlt matches any one of Sub.
	OpAlt

	// OpCat matches the concatenation of Sub.
	OpCat

	// OpIter matches Sub[0] repeated between Min and Max times;
	// Max < 0 means unbounded.
	OpIter

	// OpTag marks a sub-match capture position with a name.
	OpTag
)

func (op Op) String() string {
	switch op {
	case OpSym:
		return "Sym"
	case OpAlt:
		return "Alt"
	case OpCat:
		return "Cat"
	case OpIter:
		return "Iter"
	case OpTag:
		return "Tag"
	default:
		return fmt.Sprintf("Op(%d)", op)
	}
}

// Node is one node of the regex tree. Which fields are meaningful depends
// on Op.
type Node struct {
	Op  Op
	Sym ranges.Set // OpSym: code units matched
	Sub []*Node    // OpAlt, OpCat operands; OpIter body is Sub[0]
	Min int        // OpIter lower bound
	Max int        // OpIter upper bound, < 0 for unbounded
	Tag string     // OpTag capture name
}

// Sym constructs a node matching one code unit from the set.
func Sym(s ranges.Set) *Node {
	return &Node{Op: OpSym, Sym: s}
}

// Alt constructs an alternation. With one operand it is the operand
// itself; with none it matches nothing (the empty set symbol).
func Alt(sub ...*Node) *Node {
	switch len(sub) {
	case 1:
		return sub[0]
	default:
		return &Node{Op: OpAlt, Sub: sub}
	}
}

// Cat constructs a concatenation. With one operand it is the operand
// itself; with none it matches the empty string.
func Cat(sub ...*Node) *Node {
	switch len(sub) {
	case 1:
		return sub[0]
	default:
		return &Node{Op: OpCat, Sub: sub}
	}
}

// Iter constructs bounded or unbounded repetition of body.
// Min must be >= 0; max < 0 means unbounded.
func Iter(body *Node, min, max int) *Node {
	return &Node{Op: OpIter, Sub: []*Node{body}, Min: min, Max: max}
}

// Star is Iter(body, 0, -1).
func Star(body *Node) *Node { return Iter(body, 0, -1) }

// Plus is Iter(body, 1, -1).
func Plus(body *Node) *Node { return Iter(body, 1, -1) }

// Opt is Iter(body, 0, 1).
func Opt(body *Node) *Node { return Iter(body, 0, 1) }

// Tag constructs a named sub-match capture marker.
func Tag(name string) *Node {
	return &Node{Op: OpTag, Tag: name}
}

// seqNode converts one encoded fragment (a sequence of code-unit ranges)
// into a concatenation of symbols.
func seqNode(seq enc.Seq) *Node {
	sub := make([]*Node, len(seq))
	for i, r := range seq {
		sub[i] = Sym(ranges.Set{r})
	}
	return Cat(sub...)
}

// Class constructs a node matching one code point from the union of the
// closed code-point ranges [lo, hi]. The class is expanded into code-unit
// fragments per the encoding and its invalid-code-point policy.
//
// An empty expansion (all points dropped under PolicyIgnore) yields a node
// with an empty symbol set, which matches nothing.
func Class(e enc.Enc, pairs ...[2]uint32) (*Node, error) {
	var seqs []enc.Seq
	for _, p := range pairs {
		s, ok := e.EncodeRange(p[0], p[1])
		if !ok {
			return nil, fmt.Errorf("%w: range [%#x, %#x] in %v", ErrEncoding, p[0], p[1], e.Type())
		}
		seqs = append(seqs, s...)
	}
	// Merge all single-unit fragments into one symbol; keep multi-unit
	// fragments as concatenation alternatives.
	var units ranges.Set
	var alts []*Node
	for _, seq := range seqs {
		if len(seq) == 1 {
			units = units.Union(ranges.Set{seq[0]})
		} else {
			alts = append(alts, seqNode(seq))
		}
	}
	if len(alts) == 0 {
		return Sym(units), nil
	}
	if !units.Empty() {
		alts = append([]*Node{Sym(units)}, alts...)
	}
	return Alt(alts...), nil
}

// Any constructs a node matching any single code point of the encoding.
func Any(e enc.Enc) *Node {
	n, err := Class(e, [2]uint32{0, e.NCodePoints() - 1})
	if err != nil {
		// The full code-point range is always encodable: invalid points
		// inside it are dropped or substituted, never failed.
		panic(err)
	}
	return n
}

// Literal constructs a node matching the given string of code points, each
// encoded per the policy. Code points dropped under PolicyIgnore vanish
// from the literal; under PolicyFail they are an error.
func Literal(e enc.Enc, s string) (*Node, error) {
	var sub []*Node
	for _, r := range s {
		seqs, ok := e.EncodeRange(uint32(r), uint32(r))
		if !ok {
			return nil, fmt.Errorf("%w: code point %#x in %v", ErrEncoding, r, e.Type())
		}
		if len(seqs) == 0 {
			continue
		}
		sub = append(sub, seqNode(seqs[0]))
	}
	return Cat(sub...), nil
}
