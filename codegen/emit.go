package codegen

import (
	"fmt"

	"github.com/raedwulf/sre2c/dfa"
	"github.com/raedwulf/sre2c/ir"
	"github.com/raedwulf/sre2c/warn"
)

// Emitter walks one optimized DFA and produces the matcher code for the
// current output block.
type Emitter struct {
	out  *Output
	opts *Opts
	d    *dfa.DFA
	spec *ir.Spec
	sink *warn.Sink

	labels    map[dfa.StateID]uint32
	inbound   map[dfa.StateID]bool
	emitted   map[dfa.StateID]bool
	stateCond map[dfa.StateID][]string // conditions whose start this state is

	acceptIdx map[uint32]uint32 // rule id -> yyaccept value
	usedBT    map[string]bool   // conditions needing a backtrack label
	rulesUsed map[uint32]bool
}

// NewEmitter creates an emitter for one block.
func NewEmitter(out *Output, d *dfa.DFA, spec *ir.Spec) *Emitter {
	return &Emitter{
		out:       out,
		opts:      out.opts,
		d:         d,
		spec:      spec,
		sink:      out.warn,
		labels:    make(map[dfa.StateID]uint32),
		inbound:   make(map[dfa.StateID]bool),
		emitted:   make(map[dfa.StateID]bool),
		stateCond: make(map[dfa.StateID][]string),
		acceptIdx: make(map[uint32]uint32),
		usedBT:    make(map[string]bool),
		rulesUsed: make(map[uint32]bool),
	}
}

// Emit produces the block: state dispatch prelude, per-state code in
// reverse postorder per condition, then rule actions and backtrack
// stubs.
func (e *Emitter) Emit() error {
	e.analyzeGraph()

	b := e.out.Block()
	b.SetLine(e.spec.Line())
	b.AddTags(e.spec.Tags())

	conds := e.d.Conditions()
	hasConds := e.spec.HasConditions()
	if hasConds {
		for _, c := range conds {
			b.AddType(c)
		}
		if e.missingDefault() {
			e.out.WDelayWarnCondOrder()
		}
	}

	e.out.WDelayYYAcceptInit(1)
	e.out.WDelayStateGoto(1)

	if e.opts.StartLabel != "" {
		b.SetStartLabel(e.opts.StartLabel)
		e.out.Wf("%s:\n", e.opts.StartLabel)
	}
	if len(conds) > 0 {
		b.SetEntryLabel(e.condLabel(conds[0]))
	}
	if hasConds {
		e.emitConditionDispatch(conds)
	} else if start, ok := e.d.Start(""); ok && e.inbound[start] {
		// The start state doubles as an arc target, so its plain label
		// skips a unit; sequential entry must jump below the skip.
		e.out.WInd(1).Wf("goto %s;\n", e.condLabel(""))
	}

	for _, cond := range conds {
		start, _ := e.d.Start(cond)
		for _, id := range e.postorder(start) {
			if !e.emitted[id] {
				e.emitted[id] = true
				e.emitState(cond, id)
			}
		}
	}

	e.emitBacktrack(conds)
	e.emitRules(conds)
	return nil
}

// analyzeGraph assigns labels in emission order and collects inbound-arc
// and start-state information.
func (e *Emitter) analyzeGraph() {
	for _, cond := range e.d.Conditions() {
		start, _ := e.d.Start(cond)
		e.stateCond[start] = append(e.stateCond[start], cond)
		for _, id := range e.postorder(start) {
			if _, ok := e.labels[id]; !ok {
				e.labels[id] = e.out.NextLabel()
			}
			for _, a := range e.d.State(id).Arcs() {
				e.inbound[a.Target] = true
			}
		}
	}
	e.emitted = make(map[dfa.StateID]bool)
}

// postorder returns the states reachable from start in reverse postorder.
func (e *Emitter) postorder(start dfa.StateID) []dfa.StateID {
	var order []dfa.StateID
	seen := make(map[dfa.StateID]bool)
	var visit func(id dfa.StateID)
	visit = func(id dfa.StateID) {
		seen[id] = true
		for _, a := range e.d.State(id).Arcs() {
			if !seen[a.Target] {
				visit(a.Target)
			}
		}
		order = append(order, id)
	}
	visit(start)
	// reverse
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// missingDefault returns true if any condition lacks a default rule.
func (e *Emitter) missingDefault() bool {
	for _, c := range e.spec.Conditions() {
		if !e.spec.HasDefault(c) {
			return true
		}
	}
	return false
}

// condLabel returns the label of a condition's entry.
func (e *Emitter) condLabel(cond string) string {
	if cond == "" {
		return e.opts.CondPrefix + "0"
	}
	return e.opts.CondPrefix + cond
}

func (e *Emitter) stateLabel(id dfa.StateID) string {
	return fmt.Sprintf("%s%d", e.opts.LabelPrefix, e.labels[id])
}

func (e *Emitter) ruleLabel(rule uint32) string {
	return fmt.Sprintf("%sr%d", e.opts.LabelPrefix, rule)
}

func (e *Emitter) btLabel(cond string) string {
	if cond == "" {
		return e.opts.LabelPrefix + "bt"
	}
	return e.opts.LabelPrefix + "bt_" + cond
}

// emitConditionDispatch emits the prelude jumping to the start of the
// active condition: a jump table under -g, a switch otherwise.
func (e *Emitter) emitConditionDispatch(conds []string) {
	o := e.out
	if e.opts.ComputedGotos {
		o.WInd(1).Ws("{\n")
		o.WInd(2).Wf("static const void *yyctable[%d] = {\n", len(conds))
		for _, c := range conds {
			o.WInd(3).Wf("&&%s,\n", e.condLabel(c))
		}
		o.WInd(2).Ws("};\n")
		o.WInd(2).Wf("goto *yyctable[%s];\n", e.opts.condGetExpr())
		o.WInd(1).Ws("}\n")
		return
	}
	o.WInd(1).Wf("switch (%s) {\n", e.opts.condGetExpr())
	for _, c := range conds {
		o.WInd(1).Wf("case %s%s: goto %s;\n", e.opts.CondEnumPrefix, c, e.condLabel(c))
	}
	o.WInd(1).Ws("}\n")
}

// emitState emits the code of one DFA state: labels, buffer check,
// fallback bookkeeping and dispatch.
func (e *Emitter) emitState(cond string, id dfa.StateID) {
	o := e.out
	s := e.d.State(id)
	starts := e.stateCond[id]

	// The state label skips the unit consumed by inbound arcs; condition
	// entries are placed below the skip.
	o.Wf("%s:\n", e.stateLabel(id))
	if e.inbound[id] {
		o.WInd(1).Ws("YYSKIP();\n")
	}
	for _, c := range starts {
		o.Wf("%s:\n", e.condLabel(c))
	}

	if s.Checkpoint() && s.Fill() > 0 {
		e.emitFill(s.Fill())
	}

	if s.Accepting() && s.Fallback() {
		idx := e.acceptIndex(s.Accepts()[0].Rule)
		e.out.Block().UseYYAccept()
		o.WInd(1).Wf("%s = %d;\n", e.opts.YYAccept, idx)
		o.WInd(1).Ws("YYBACKUP();\n")
	}

	arcs := s.Arcs()
	if len(arcs) == 0 {
		o.WInd(1).Ws(e.defaultStmt(cond, s)).Ws("\n")
		return
	}
	o.WInd(1).Wf("%s = YYPEEK();\n", e.opts.YYCh)
	disp := &dispatcher{
		o:           o,
		label:       e.stateLabel,
		defaultStmt: e.defaultStmt(cond, s),
	}
	disp.emit(1, arcs)
}

// emitFill emits the buffer check of a checkpoint, with slot bookkeeping
// in storable-state mode.
func (e *Emitter) emitFill(n uint32) {
	o := e.out
	if e.opts.StorableState {
		slot := o.NextFillIndex()
		o.WInd(1).Wf("%s(%d);\n", e.opts.StateSet, slot)
		o.WInd(1).Wf("if (YYLESSTHAN(%d)) YYFILL(%d);\n", n, n)
		o.Wf("%s%d:\n", e.opts.FillLabel, slot)
		return
	}
	o.WInd(1).Wf("if (YYLESSTHAN(%d)) YYFILL(%d);\n", n, n)
}

// defaultStmt resolves where a state goes when no arc covers the unit:
// its own action for accepting states, the backtrack stub for the other
// states of a condition that contains fallback states, the condition's
// default rule otherwise. A condition's start state that no arc re-enters
// has consumed nothing and saved no match, so it never takes the
// backtrack stub. Without any of those the generated code falls through
// and the undefined-control-flow warning fires.
func (e *Emitter) defaultStmt(cond string, s *dfa.State) string {
	if rule, ok := s.Rule(); ok {
		e.rulesUsed[rule] = true
		return "goto " + e.ruleLabel(rule) + ";"
	}
	start, _ := e.d.Start(cond)
	atEntry := e.d.State(start) == s && !e.inbound[start]
	if !atEntry && e.condFallback(cond) {
		e.usedBT[cond] = true
		return "goto " + e.btLabel(cond) + ";"
	}
	if r := e.defaultRule(cond); r != nil {
		e.rulesUsed[r.ID] = true
		return "goto " + e.ruleLabel(r.ID) + ";"
	}
	e.sink.Warnf(warn.UndefinedControlFlow, e.spec.Line(),
		"control flow is undefined for some input in condition %q, use default rule '*'", cond)
	return ""
}

// condFallback returns true if any state reachable in cond is a fallback
// state.
func (e *Emitter) condFallback(cond string) bool {
	start, ok := e.d.Start(cond)
	if !ok {
		return false
	}
	for _, id := range e.postorder(start) {
		if e.d.State(id).Fallback() {
			return true
		}
	}
	return false
}

func (e *Emitter) defaultRule(cond string) *ir.Rule {
	for _, r := range e.spec.RulesFor(cond) {
		if r.Default {
			return r
		}
	}
	return nil
}

// acceptIndex assigns yyaccept values to fallback rules in first-use
// order.
func (e *Emitter) acceptIndex(rule uint32) uint32 {
	if idx, ok := e.acceptIdx[rule]; ok {
		return idx
	}
	idx := uint32(len(e.acceptIdx))
	e.acceptIdx[rule] = idx
	return idx
}

// emitBacktrack emits the restore-and-dispatch stub for conditions with
// fallback states.
func (e *Emitter) emitBacktrack(conds []string) {
	o := e.out
	for _, cond := range conds {
		if !e.usedBT[cond] {
			continue
		}
		o.Wf("%s:\n", e.btLabel(cond))
		o.WInd(1).Ws("YYRESTORE();\n")
		o.WInd(1).Wf("switch (%s) {\n", e.opts.YYAccept)
		// yyaccept values in ascending order for deterministic output.
		for idx := uint32(0); idx < uint32(len(e.acceptIdx)); idx++ {
			for rule, i := range e.acceptIdx {
				if i == idx {
					e.rulesUsed[rule] = true
					o.WInd(1).Wf("case %d: goto %s;\n", idx, e.ruleLabel(rule))
				}
			}
		}
		o.WInd(1).Ws("}\n")
	}
}

// emitRules emits the semantic actions of all referenced rules, each
// preceded by a #line directive into the source and followed by a
// deferred #line re-syncing to the output.
func (e *Emitter) emitRules(conds []string) {
	o := e.out
	for _, cond := range conds {
		for _, r := range e.spec.RulesFor(cond) {
			if !e.rulesUsed[r.ID] {
				continue
			}
			o.Wf("%s:\n", e.ruleLabel(r.ID))
			if !e.opts.NoLineInfo && e.opts.InputFile != "" && r.Action.Line > 0 {
				o.Wf("#line %d \"%s\"\n", r.Action.Line, e.opts.InputFile)
			}
			o.WInd(1).Ws(r.Action.Code).Ws("\n")
			o.WDelayLineInfo()
		}
	}
}
