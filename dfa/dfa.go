// Package dfa turns Thompson NFAs into minimized deterministic automata.
//
// The pipeline is subset construction over the interval-partitioned
// alphabet, removal of states that cannot reach an accept, partition
// refinement seeded by accept-set equality, and finally the per-state
// analysis the code emitter needs (fallback marking and fill lookahead).
//
// Everything is deterministic: states are numbered in discovery order,
// equivalence classes are represented by their lowest original id, and
// all iteration is over sorted data.
package dfa

import (
	"fmt"

	"github.com/raedwulf/sre2c/ranges"
)

// StateID identifies a DFA state.
type StateID uint32

// Dead is the distinguished sink: the target of every transition not
// covered by a state's arcs. Transitions are total over the alphabet by
// construction; arcs only record the non-dead part.
const Dead StateID = 0xFFFFFFFF

// Arc is a transition on the half-open code-unit interval [Lo, Hi) to
// Target. A state's arcs are sorted by Lo and disjoint.
type Arc struct {
	Lo, Hi uint32
	Target StateID
}

// RuleRef names an accepting rule together with its priority.
type RuleRef struct {
	Rule     uint32
	Priority uint32
}

// State is one DFA state.
type State struct {
	arcs    []Arc
	accepts []RuleRef // sorted by priority; empty if non-accepting

	// fallback marks an accepting state with a non-accepting descendant:
	// the emitted code must save the match before going on.
	fallback bool

	// checkpoint marks a state where the emitted code re-checks buffer
	// availability: condition entries and loop heads.
	checkpoint bool

	// fill is the maximal number of code units consumed from a
	// checkpoint before the next checkpoint or a stop; meaningful only
	// on checkpoints.
	fill uint32
}

// Arcs returns the state's transitions (non-dead part, sorted by Lo).
func (s *State) Arcs() []Arc { return s.arcs }

// Accepts returns the accepting rules sorted by priority, best first.
func (s *State) Accepts() []RuleRef { return s.accepts }

// Accepting returns true if the state accepts at least one rule.
func (s *State) Accepting() bool { return len(s.accepts) > 0 }

// Rule returns the winning (lowest-priority-number) rule.
// ok is false for non-accepting states.
func (s *State) Rule() (uint32, bool) {
	if len(s.accepts) == 0 {
		return 0, false
	}
	return s.accepts[0].Rule, true
}

// Fallback returns true if the state needs match bookkeeping.
func (s *State) Fallback() bool { return s.fallback }

// Checkpoint returns true if the emitted code re-checks the buffer here.
func (s *State) Checkpoint() bool { return s.checkpoint }

// Fill returns the lookahead needed at a checkpoint state.
func (s *State) Fill() uint32 { return s.fill }

// Target returns δ(s, cu): the arc target covering cu, or Dead.
func (s *State) Target(cu uint32) StateID {
	for _, a := range s.arcs {
		if a.Lo <= cu && cu < a.Hi {
			return a.Target
		}
		if cu < a.Lo {
			break
		}
	}
	return Dead
}

// Covered returns the set of code units with a non-dead transition.
func (s *State) Covered() ranges.Set {
	var set ranges.Set
	for _, a := range s.arcs {
		set = set.Add(a.Lo, a.Hi)
	}
	return set
}

// DFA is a deterministic automaton with one start state per condition.
type DFA struct {
	states []State
	starts map[string]StateID
	conds  []string
}

// State returns the state with the given id, or nil for Dead and
// out-of-range ids.
func (d *DFA) State(id StateID) *State {
	if id == Dead || int(id) >= len(d.states) {
		return nil
	}
	return &d.states[id]
}

// States returns the number of states.
func (d *DFA) States() int { return len(d.states) }

// Start returns the start state for the given condition.
func (d *DFA) Start(cond string) (StateID, bool) {
	id, ok := d.starts[cond]
	return id, ok
}

// Conditions returns the condition names in first-seen order.
func (d *DFA) Conditions() []string { return d.conds }

// String returns a human-readable summary.
func (d *DFA) String() string {
	return fmt.Sprintf("DFA{states: %d, conditions: %d}", len(d.states), len(d.conds))
}
