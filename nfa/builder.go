package nfa

import (
	"fmt"

	"github.com/raedwulf/sre2c/internal/conv"
)

// Builder constructs NFAs incrementally using a low-level API. It is used
// by the compiler; tests may drive it directly.
type Builder struct {
	states []State
	starts map[string]StateID
	order  []string
}

// NewBuilder creates a new NFA builder.
func NewBuilder() *Builder {
	return &Builder{
		states: make([]State, 0, 16),
		starts: make(map[string]StateID),
	}
}

func (b *Builder) alloc(s State) StateID {
	id := StateID(conv.IntToUint32(len(b.states)))
	s.id = id
	b.states = append(b.states, s)
	return id
}

// AddRange adds a state consuming one code unit in [lo, hi) and moving to
// next. An empty interval produces a dead end.
func (b *Builder) AddRange(lo, hi uint32, next StateID) StateID {
	return b.alloc(State{kind: StateRange, lo: lo, hi: hi, next: next})
}

// AddSplit adds a state with ε-transitions to two states.
func (b *Builder) AddSplit(left, right StateID) StateID {
	return b.alloc(State{kind: StateSplit, left: left, right: right})
}

// AddEpsilon adds a state with a single ε-transition.
func (b *Builder) AddEpsilon(next StateID) StateID {
	return b.alloc(State{kind: StateEpsilon, next: next})
}

// AddTag adds a capture marker state moving to next without input.
func (b *Builder) AddTag(tag string, next StateID) StateID {
	return b.alloc(State{kind: StateTag, tag: tag, next: next})
}

// AddAccept adds an accepting state for the given rule.
func (b *Builder) AddAccept(rule, priority uint32) StateID {
	return b.alloc(State{kind: StateAccept, rule: rule, priority: priority})
}

// Patch updates the target of a single-target state. It is used to close
// back-edges of loops created before their entry exists.
func (b *Builder) Patch(id, target StateID) error {
	if int(id) >= len(b.states) {
		return &BuildError{Message: "state ID out of bounds", StateID: id}
	}
	s := &b.states[id]
	switch s.kind {
	case StateRange, StateEpsilon, StateTag:
		s.next = target
		return nil
	default:
		return &BuildError{
			Message: fmt.Sprintf("cannot patch state of kind %s", s.kind),
			StateID: id,
		}
	}
}

// PatchSplit updates the targets of a Split state.
func (b *Builder) PatchSplit(id, left, right StateID) error {
	if int(id) >= len(b.states) {
		return &BuildError{Message: "state ID out of bounds", StateID: id}
	}
	s := &b.states[id]
	if s.kind != StateSplit {
		return &BuildError{
			Message: fmt.Sprintf("expected Split state, got %s", s.kind),
			StateID: id,
		}
	}
	s.left = left
	s.right = right
	return nil
}

// SetStart sets the start state for a condition. Conditions keep the
// order in which their starts were set.
func (b *Builder) SetStart(cond string, start StateID) error {
	if _, dup := b.starts[cond]; dup {
		return &BuildError{
			Message: fmt.Sprintf("duplicate start state for condition %q", cond),
			StateID: start,
		}
	}
	b.starts[cond] = start
	b.order = append(b.order, cond)
	return nil
}

// States returns the current number of states.
func (b *Builder) States() int { return len(b.states) }

// Validate checks that the NFA is well-formed: at least one start state,
// and no reference past the state vector. InvalidState targets are
// permitted only on dead-end Range states (empty interval).
func (b *Builder) Validate() error {
	if len(b.starts) == 0 {
		return &BuildError{Message: "no start state set"}
	}
	check := func(id, target StateID) error {
		if target == InvalidState || int(target) >= len(b.states) {
			return &BuildError{
				Message: fmt.Sprintf("invalid target state %d", target),
				StateID: id,
			}
		}
		return nil
	}
	for i := range b.states {
		s := &b.states[i]
		switch s.kind {
		case StateRange:
			if s.lo >= s.hi {
				continue // dead end, target never taken
			}
			if err := check(s.id, s.next); err != nil {
				return err
			}
		case StateEpsilon, StateTag:
			if err := check(s.id, s.next); err != nil {
				return err
			}
		case StateSplit:
			if err := check(s.id, s.left); err != nil {
				return err
			}
			if err := check(s.id, s.right); err != nil {
				return err
			}
		}
	}
	return nil
}

// Build finalizes and returns the constructed NFA.
func (b *Builder) Build() (*NFA, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &NFA{
		states:    b.states,
		starts:    b.starts,
		condOrder: b.order,
	}, nil
}
