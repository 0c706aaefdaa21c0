package dfa

import (
	"sort"
	"strconv"
	"strings"

	"github.com/raedwulf/sre2c/internal/conv"
	"github.com/raedwulf/sre2c/internal/sparse"
	"github.com/raedwulf/sre2c/nfa"
)

// Build runs subset construction on the NFA and removes states that
// cannot reach an accept. The result is deterministic: states are
// numbered in breadth-first discovery order starting from the conditions
// in their declared order.
//
// The alphabet is never enumerated unit by unit: each state set's
// outgoing ranges are cut into disjoint intervals and transitions are
// computed per interval.
func Build(n *nfa.NFA) *DFA {
	b := &builder{
		nfa: n,
		set: sparse.New(conv.IntToUint32(n.States())),
		ids: make(map[string]StateID),
	}
	d := &DFA{starts: make(map[string]StateID)}
	for _, cond := range n.Conditions() {
		start, _ := n.Start(cond)
		d.starts[cond] = b.stateFor([]uint32{uint32(start)})
		d.conds = append(d.conds, cond)
	}
	for len(b.work) > 0 {
		id := b.work[0]
		b.work = b.work[1:]
		b.transitions(id)
	}
	d.states = b.states
	d.trim()
	return d
}

type builder struct {
	nfa    *nfa.NFA
	set    *sparse.Set // scratch for ε-closures
	ids    map[string]StateID
	sets   [][]uint32 // per DFA state: sorted member NFA ids
	states []State
	work   []StateID
}

// stateFor returns the DFA state for the ε-closure of the seed NFA
// states, creating it if unseen.
func (b *builder) stateFor(seed []uint32) StateID {
	members := b.closure(seed)
	key := setKey(members)
	if id, ok := b.ids[key]; ok {
		return id
	}
	id := StateID(conv.IntToUint32(len(b.states)))
	b.ids[key] = id
	b.sets = append(b.sets, members)
	b.states = append(b.states, State{accepts: b.accepts(members)})
	b.work = append(b.work, id)
	return id
}

// closure computes the ε-closure of the seed states, following split,
// epsilon and tag transitions.
func (b *builder) closure(seed []uint32) []uint32 {
	b.set.Clear()
	stack := make([]uint32, 0, len(seed))
	for _, id := range seed {
		if !b.set.Contains(id) {
			b.set.Insert(id)
			stack = append(stack, id)
		}
	}
	push := func(id nfa.StateID) {
		if id != nfa.InvalidState && !b.set.Contains(uint32(id)) {
			b.set.Insert(uint32(id))
			stack = append(stack, uint32(id))
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s := b.nfa.State(nfa.StateID(id))
		switch s.Kind() {
		case nfa.StateSplit:
			l, r := s.Split()
			push(l)
			push(r)
		case nfa.StateEpsilon, nfa.StateTag:
			push(s.Epsilon())
		}
	}
	return b.set.Sorted()
}

// accepts collects the accepting rules of the member states, deduplicated
// and ordered best (lowest priority number) first.
func (b *builder) accepts(members []uint32) []RuleRef {
	seen := make(map[uint32]bool)
	var refs []RuleRef
	for _, id := range members {
		if rule, prio, ok := b.nfa.State(nfa.StateID(id)).Accept(); ok && !seen[rule] {
			seen[rule] = true
			refs = append(refs, RuleRef{Rule: rule, Priority: prio})
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Priority != refs[j].Priority {
			return refs[i].Priority < refs[j].Priority
		}
		return refs[i].Rule < refs[j].Rule
	})
	return refs
}

// transitions computes the arcs of DFA state id by cutting the members'
// outgoing ranges into disjoint intervals.
func (b *builder) transitions(id StateID) {
	type span struct {
		lo, hi uint32
		target uint32
	}
	var spans []span
	for _, m := range b.sets[id] {
		s := b.nfa.State(nfa.StateID(m))
		if lo, hi, next := s.Range(); s.Kind() == nfa.StateRange && lo < hi && next != nfa.InvalidState {
			spans = append(spans, span{lo, hi, uint32(next)})
		}
	}
	if len(spans) == 0 {
		return
	}

	// Cut points of the interval partition.
	bounds := make([]uint32, 0, 2*len(spans))
	for _, sp := range spans {
		bounds = append(bounds, sp.lo, sp.hi)
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i] < bounds[j] })
	bounds = uniq(bounds)

	var arcs []Arc
	for i := 0; i+1 < len(bounds); i++ {
		lo, hi := bounds[i], bounds[i+1]
		var seed []uint32
		for _, sp := range spans {
			if sp.lo <= lo && lo < sp.hi {
				seed = append(seed, sp.target)
			}
		}
		if len(seed) == 0 {
			continue
		}
		target := b.stateFor(seed)
		if n := len(arcs); n > 0 && arcs[n-1].Hi == lo && arcs[n-1].Target == target {
			arcs[n-1].Hi = hi
		} else {
			arcs = append(arcs, Arc{Lo: lo, Hi: hi, Target: target})
		}
	}
	b.states[id].arcs = arcs
}

// trim removes states that cannot reach an accept, collapsing their
// incoming transitions onto the Dead sink. Start states survive even when
// unproductive, with all transitions dead.
func (d *DFA) trim() {
	n := len(d.states)

	// Reverse reachability from the accepting states.
	rev := make([][]StateID, n)
	for i := range d.states {
		for _, a := range d.states[i].arcs {
			rev[a.Target] = append(rev[a.Target], StateID(i))
		}
	}
	productive := make([]bool, n)
	var stack []StateID
	for i := range d.states {
		if d.states[i].Accepting() {
			productive[i] = true
			stack = append(stack, StateID(i))
		}
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range rev[id] {
			if !productive[p] {
				productive[p] = true
				stack = append(stack, p)
			}
		}
	}

	keep := make([]bool, n)
	copy(keep, productive)
	for _, id := range d.starts {
		keep[id] = true
	}

	remap := make([]StateID, n)
	var states []State
	for i := 0; i < n; i++ {
		if keep[i] {
			remap[i] = StateID(conv.IntToUint32(len(states)))
			states = append(states, d.states[i])
		} else {
			remap[i] = Dead
		}
	}
	for i := range states {
		var arcs []Arc
		for _, a := range states[i].arcs {
			if remap[a.Target] == Dead {
				continue
			}
			a.Target = remap[a.Target]
			arcs = append(arcs, a)
		}
		states[i].arcs = arcs
	}
	for cond, id := range d.starts {
		d.starts[cond] = remap[id]
	}
	d.states = states
}

func setKey(ids []uint32) string {
	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatUint(uint64(id), 10))
	}
	return sb.String()
}

func uniq(sorted []uint32) []uint32 {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
