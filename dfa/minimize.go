package dfa

import (
	"sort"
	"strconv"
	"strings"

	"github.com/raedwulf/sre2c/internal/conv"
)

// Minimize collapses equivalent states. The initial partition splits
// states by accept-set equality; classes are then refined by transition
// behavior over the globally partitioned alphabet until a fixed point.
// Each class is represented by its member with the lowest original id,
// and classes are renumbered by representative order, which makes the
// result independent of map iteration order.
//
// Minimizing an already minimal automaton returns an equivalent automaton
// with identical structure.
func Minimize(d *DFA) *DFA {
	n := len(d.states)
	if n == 0 {
		return d
	}

	// Global cut points: transition vectors of all states are compared
	// over the same interval partition of the alphabet.
	var bounds []uint32
	for i := range d.states {
		for _, a := range d.states[i].arcs {
			bounds = append(bounds, a.Lo, a.Hi)
		}
	}
	sort.Slice(bounds, func(i, j int) bool { return bounds[i] < bounds[j] })
	bounds = uniq(bounds)
	probes := make([]uint32, 0, len(bounds))
	for i := 0; i+1 < len(bounds); i++ {
		probes = append(probes, bounds[i])
	}

	// Initial partition by accept-set signature.
	class := assign(n, func(i int) string {
		var sb strings.Builder
		for _, r := range d.states[i].accepts {
			sb.WriteString(strconv.FormatUint(uint64(r.Rule), 10))
			sb.WriteByte(':')
			sb.WriteString(strconv.FormatUint(uint64(r.Priority), 10))
			sb.WriteByte(',')
		}
		return sb.String()
	})

	// Refine until the class count is stable.
	for {
		next := assign(n, func(i int) string {
			var sb strings.Builder
			sb.WriteString(strconv.FormatUint(uint64(class[i]), 10))
			for _, p := range probes {
				sb.WriteByte(';')
				t := d.states[i].Target(p)
				if t == Dead {
					sb.WriteByte('-')
				} else {
					sb.WriteString(strconv.FormatUint(uint64(class[t]), 10))
				}
			}
			return sb.String()
		})
		if count(next) == count(class) {
			break
		}
		class = next
	}

	// Representatives: lowest original id per class; new numbering by
	// representative order.
	nclasses := count(class)
	rep := make([]StateID, nclasses)
	for i := range rep {
		rep[i] = Dead
	}
	for i := n - 1; i >= 0; i-- {
		rep[class[i]] = StateID(uint32(i))
	}
	order := make([]uint32, nclasses)
	for i := range order {
		order[i] = uint32(i)
	}
	sort.Slice(order, func(i, j int) bool { return rep[order[i]] < rep[order[j]] })
	newID := make([]StateID, nclasses)
	for pos, c := range order {
		newID[c] = StateID(conv.IntToUint32(pos))
	}

	out := &DFA{starts: make(map[string]StateID), conds: d.conds}
	out.states = make([]State, nclasses)
	for pos, c := range order {
		src := &d.states[rep[c]]
		var arcs []Arc
		for _, a := range src.arcs {
			target := newID[class[a.Target]]
			if m := len(arcs); m > 0 && arcs[m-1].Hi == a.Lo && arcs[m-1].Target == target {
				arcs[m-1].Hi = a.Hi
			} else {
				arcs = append(arcs, Arc{Lo: a.Lo, Hi: a.Hi, Target: target})
			}
		}
		out.states[pos] = State{
			arcs:    arcs,
			accepts: append([]RuleRef(nil), src.accepts...),
		}
	}
	for cond, id := range d.starts {
		out.starts[cond] = newID[class[id]]
	}
	return out
}

// assign groups indices by signature, numbering groups by first
// appearance.
func assign(n int, sig func(int) string) []uint32 {
	classes := make(map[string]uint32)
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		s := sig(i)
		c, ok := classes[s]
		if !ok {
			c = uint32(len(classes))
			classes[s] = c
		}
		out[i] = c
	}
	return out
}

func count(class []uint32) int {
	max := uint32(0)
	for _, c := range class {
		if c > max {
			max = c
		}
	}
	if len(class) == 0 {
		return 0
	}
	return int(max) + 1
}
