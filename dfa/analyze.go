package dfa

// Analyze computes the per-state attributes the code emitter needs:
// fallback marking, checkpoint discovery and fill lookahead. It is run on
// the final (minimized) automaton.
func (d *DFA) Analyze() {
	d.markFallback()
	d.markCheckpoints()
	d.computeFill()
}

// markFallback marks accepting states that have at least one
// non-accepting descendant. From such a state the matcher may consume
// further input and still fail, so the emitted code must remember the
// match before moving on.
func (d *DFA) markFallback() {
	for i := range d.states {
		if !d.states[i].Accepting() {
			continue
		}
		seen := make([]bool, len(d.states))
		stack := []StateID{StateID(uint32(i))}
		seen[i] = true
		for len(stack) > 0 && !d.states[i].fallback {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, a := range d.states[id].arcs {
				if seen[a.Target] {
					continue
				}
				seen[a.Target] = true
				if !d.states[a.Target].Accepting() {
					d.states[i].fallback = true
					break
				}
				stack = append(stack, a.Target)
			}
		}
	}
}

// markCheckpoints marks the condition entry states and all loop heads
// (targets of retreating edges in a depth-first walk). Every cycle passes
// through at least one checkpoint, which bounds the lookahead between
// buffer checks.
func (d *DFA) markCheckpoints() {
	const (
		white = iota
		grey
		black
	)
	color := make([]uint8, len(d.states))

	var visit func(id StateID)
	visit = func(id StateID) {
		color[id] = grey
		for _, a := range d.states[id].arcs {
			switch color[a.Target] {
			case white:
				visit(a.Target)
			case grey:
				d.states[a.Target].checkpoint = true
			}
		}
		color[id] = black
	}

	for _, cond := range d.conds {
		start := d.starts[cond]
		d.states[start].checkpoint = true
		if color[start] == white {
			visit(start)
		}
	}
}

// computeFill computes, for every checkpoint, the maximal number of code
// units consumed before the next checkpoint or a stop. Cycles always
// contain a checkpoint, so the recursion over non-checkpoint states is
// well-founded.
func (d *DFA) computeFill() {
	const unset = ^uint32(0)
	need := make([]uint32, len(d.states))
	for i := range need {
		need[i] = unset
	}

	var walk func(id StateID) uint32
	walk = func(id StateID) uint32 {
		if need[id] != unset {
			return need[id]
		}
		need[id] = 0 // cut recursion on the state itself
		var max uint32
		for _, a := range d.states[id].arcs {
			var tail uint32
			if !d.states[a.Target].checkpoint {
				tail = walk(a.Target)
			}
			if 1+tail > max {
				max = 1 + tail
			}
		}
		need[id] = max
		return max
	}

	for i := range d.states {
		if !d.states[i].checkpoint {
			continue
		}
		var max uint32
		for _, a := range d.states[i].arcs {
			var tail uint32
			if !d.states[a.Target].checkpoint {
				tail = walk(a.Target)
			}
			if 1+tail > max {
				max = 1 + tail
			}
		}
		d.states[i].fill = max
	}
}

// MaxFill returns the maximal fill over all checkpoints, and at least 1.
func (d *DFA) MaxFill() uint32 {
	max := uint32(1)
	for i := range d.states {
		if d.states[i].checkpoint && d.states[i].fill > max {
			max = d.states[i].fill
		}
	}
	return max
}
