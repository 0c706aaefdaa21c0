package codegen

import (
	"github.com/raedwulf/sre2c/dfa"
)

// scheme is the transition-dispatch strategy selected for one state.
type scheme uint8

const (
	// schemeLinear emits a flat switch (or an if chain under -s).
	schemeLinear scheme = iota

	// schemeTree emits a balanced binary decision tree on unit ranges.
	schemeTree

	// schemeTable emits a computed-goto jump table over the byte
	// alphabet.
	schemeTable
)

// chooseScheme picks the dispatch strategy for a state's arcs.
//
// Few distinct targets over small ranges dispatch fastest as linear
// compares. Wide fan-out over a byte alphabet pays for a jump table when
// the user allowed tables. Everything else becomes a decision tree with
// O(log r) comparison depth.
func chooseScheme(arcs []dfa.Arc, opts *Opts, haveDefaultLabel bool) scheme {
	targets := make(map[dfa.StateID]bool)
	var units uint64
	for _, a := range arcs {
		targets[a.Target] = true
		units += uint64(a.Hi) - uint64(a.Lo)
	}
	fanout := len(targets)

	tables := opts.ComputedGotos || opts.BitVectors
	if tables && !opts.NestedIfs && haveDefaultLabel &&
		opts.Encoding.SzCodeUnit() == 1 && (fanout > 8 || len(arcs) > 6) {
		return schemeTable
	}
	if fanout <= 4 && units <= 8 {
		return schemeLinear
	}
	return schemeTree
}

// dispatcher emits the transition code of one state. The target label of
// an arc and the default statement are supplied by the emitter; an empty
// default statement means fall through (undefined control flow).
type dispatcher struct {
	o           *Output
	label       func(dfa.StateID) string
	defaultStmt string
}

func (d *dispatcher) emit(ind uint32, arcs []dfa.Arc) {
	switch chooseScheme(arcs, d.o.opts, d.defaultStmt != "") {
	case schemeTable:
		d.emitTable(ind, arcs)
	case schemeLinear:
		if d.o.opts.NestedIfs {
			d.emitIfChain(ind, arcs)
		} else {
			d.emitSwitch(ind, arcs)
		}
	default:
		d.emitTree(ind, arcs)
	}
}

// emitSwitch writes one case label per covered unit. Only chosen when the
// covered unit count is small.
func (d *dispatcher) emitSwitch(ind uint32, arcs []dfa.Arc) {
	o := d.o
	o.WInd(ind).Wf("switch (%s) {\n", o.opts.YYCh)
	for _, a := range arcs {
		for u := a.Lo; u < a.Hi; u++ {
			o.WInd(ind).Ws("case ").WChOrHex(u).Ws(":")
			if u+1 < a.Hi {
				o.Ws("\n")
				continue
			}
			o.Wf("\tgoto %s;\n", d.label(a.Target))
		}
	}
	o.WInd(ind).Ws("default:")
	if d.defaultStmt != "" {
		o.Ws("\t").Ws(d.defaultStmt)
	}
	o.Ws("\n")
	o.WInd(ind).Ws("}\n")
}

// emitIfChain writes linear compares, one per arc.
func (d *dispatcher) emitIfChain(ind uint32, arcs []dfa.Arc) {
	o := d.o
	for _, a := range arcs {
		o.WInd(ind).Wf("if (%s) goto %s;\n", d.cond(a), d.label(a.Target))
	}
	if d.defaultStmt != "" {
		o.WInd(ind).Ws(d.defaultStmt).Ws("\n")
	}
}

// emitTree writes a balanced decision tree: the median arc is the pivot
// and the halves recurse, keeping comparison depth logarithmic in the
// number of intervals.
func (d *dispatcher) emitTree(ind uint32, arcs []dfa.Arc) {
	o := d.o
	if len(arcs) <= 2 {
		d.emitIfChain(ind, arcs)
		return
	}
	mid := len(arcs) / 2
	pivot := arcs[mid].Lo
	o.WInd(ind).Wf("if (%s < ", o.opts.YYCh)
	o.WChOrHex(pivot)
	o.Ws(") {\n")
	d.emitTree(ind+1, arcs[:mid])
	o.WInd(ind).Ws("} else {\n")
	d.emitTree(ind+1, arcs[mid:])
	o.WInd(ind).Ws("}\n")
}

// emitTable writes a computed-goto jump table over the byte alphabet.
// The default statement must be a goto; its target fills the uncovered
// slots.
func (d *dispatcher) emitTable(ind uint32, arcs []dfa.Arc) {
	o := d.o
	n := o.opts.Encoding.NCodeUnits()
	if n > 0x100 {
		n = 0x100
	}
	defaultLabel := gotoTarget(d.defaultStmt)

	entries := make([]string, n)
	for i := range entries {
		entries[i] = defaultLabel
	}
	for _, a := range arcs {
		l := d.label(a.Target)
		for u := a.Lo; u < a.Hi && u < n; u++ {
			entries[u] = l
		}
	}

	o.WInd(ind).Ws("{\n")
	o.WInd(ind+1).Wf("static const void *yytarget[%d] = {\n", n)
	for i := uint32(0); i < n; i += 8 {
		o.WInd(ind + 2)
		for j := i; j < i+8 && j < n; j++ {
			o.Wf("&&%s,", entries[j])
			if j < i+7 {
				o.Ws(" ")
			}
		}
		o.Ws("\n")
	}
	o.WInd(ind + 1).Ws("};\n")
	o.WInd(ind+1).Wf("goto *yytarget[%s];\n", o.opts.YYCh)
	o.WInd(ind).Ws("}\n")
}

// cond renders the comparison for one arc.
func (d *dispatcher) cond(a dfa.Arc) string {
	o := d.o
	ych := o.opts.YYCh
	if a.Lo+1 == a.Hi {
		return ych + " == " + chOrHex(a.Lo, o.opts)
	}
	if a.Lo == 0 {
		return ych + " <= " + chOrHex(a.Hi-1, o.opts)
	}
	return ych + " >= " + chOrHex(a.Lo, o.opts) + " && " + ych + " <= " + chOrHex(a.Hi-1, o.opts)
}

// gotoTarget extracts the label from a "goto L;" statement.
func gotoTarget(stmt string) string {
	const prefix = "goto "
	if len(stmt) > len(prefix)+1 && stmt[:len(prefix)] == prefix && stmt[len(stmt)-1] == ';' {
		return stmt[len(prefix) : len(stmt)-1]
	}
	return stmt
}
