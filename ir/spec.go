package ir

import (
	"fmt"
	"sort"
)

// SemAct is the semantic action attached to a rule: verbatim host-language
// code plus the source line it came from, used for #line directives.
type SemAct struct {
	Code string
	Line uint32
}

// Rule is one lexer rule. Priority equals the rule's textual order within
// its specification; the lowest priority wins when several rules accept
// the same input.
type Rule struct {
	ID        uint32
	Priority  uint32
	RE        *Node // nil for the default rule
	Action    SemAct
	Condition string // "" when the specification has no conditions
	Default   bool   // the "*" rule catching otherwise-unmatched input
	Line      uint32
}

// Spec is one ordered rule specification (the content of one lexer
// block). Rules keep their textual order; conditions keep first-seen
// order.
type Spec struct {
	rules []*Rule
	conds []string
	tags  map[string]struct{}
	line  uint32
}

// NewSpec creates an empty specification.
func NewSpec() *Spec {
	return &Spec{tags: make(map[string]struct{})}
}

// SetLine records the source line the specification starts at.
func (s *Spec) SetLine(line uint32) { s.line = line }

// Line returns the source line the specification starts at.
func (s *Spec) Line() uint32 { return s.line }

// AddRule appends a rule for condition cond (empty for unconditional
// specifications). The rule's id and priority are its textual position.
// Tag names in re are collected into the specification's tag set.
func (s *Spec) AddRule(cond string, re *Node, act SemAct) (*Rule, error) {
	if re == nil {
		return nil, fmt.Errorf("%w: rule without regex", ErrSemantic)
	}
	r := s.add(cond, re, act)
	s.collectTags(re)
	return r, nil
}

// AddDefaultRule appends the "*" rule for condition cond. At most one
// default rule per condition is allowed.
func (s *Spec) AddDefaultRule(cond string, act SemAct) (*Rule, error) {
	for _, r := range s.rules {
		if r.Default && r.Condition == cond {
			return nil, fmt.Errorf("%w: duplicate default rule for condition %q", ErrSemantic, cond)
		}
	}
	r := s.add(cond, nil, act)
	r.Default = true
	return r, nil
}

func (s *Spec) add(cond string, re *Node, act SemAct) *Rule {
	n := uint32(len(s.rules))
	r := &Rule{
		ID:        n,
		Priority:  n,
		RE:        re,
		Action:    act,
		Condition: cond,
		Line:      act.Line,
	}
	s.rules = append(s.rules, r)
	if cond != "" && !s.hasCondition(cond) {
		s.conds = append(s.conds, cond)
	}
	return r
}

func (s *Spec) hasCondition(cond string) bool {
	for _, c := range s.conds {
		if c == cond {
			return true
		}
	}
	return false
}

func (s *Spec) collectTags(n *Node) {
	if n == nil {
		return
	}
	if n.Op == OpTag {
		s.tags[n.Tag] = struct{}{}
	}
	for _, sub := range n.Sub {
		s.collectTags(sub)
	}
}

// Rules returns all rules in textual order.
func (s *Spec) Rules() []*Rule { return s.rules }

// RulesFor returns the rules active for condition cond, in textual order.
func (s *Spec) RulesFor(cond string) []*Rule {
	var out []*Rule
	for _, r := range s.rules {
		if r.Condition == cond {
			out = append(out, r)
		}
	}
	return out
}

// Conditions returns the condition names in first-seen order. The result
// is empty for unconditional specifications.
func (s *Spec) Conditions() []string { return s.conds }

// HasConditions returns true if any rule named a condition.
func (s *Spec) HasConditions() bool { return len(s.conds) > 0 }

// HasDefault returns true if condition cond has a "*" rule.
func (s *Spec) HasDefault(cond string) bool {
	for _, r := range s.rules {
		if r.Default && r.Condition == cond {
			return true
		}
	}
	return false
}

// Tags returns the capture tag names of the specification, sorted.
func (s *Spec) Tags() []string {
	out := make([]string, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
