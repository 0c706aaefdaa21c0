package nfa

import (
	"testing"

	"github.com/raedwulf/sre2c/enc"
	"github.com/raedwulf/sre2c/ir"
)

// match simulates the NFA on a code-unit string and returns the winning
// rule for a full match of all units, or (0, false).
func match(n *NFA, cond string, units []uint32) (uint32, bool) {
	start, ok := n.Start(cond)
	if !ok {
		return 0, false
	}
	cur := closure(n, map[StateID]bool{start: true})
	for _, u := range units {
		next := make(map[StateID]bool)
		for id := range cur {
			s := n.State(id)
			if lo, hi, tgt := s.Range(); s.Kind() == StateRange && lo <= u && u < hi {
				next[tgt] = true
			}
		}
		cur = closure(n, next)
	}
	rule, found := uint32(0), false
	best := uint32(0)
	for id := range cur {
		if r, prio, ok := n.State(id).Accept(); ok {
			if !found || prio < best {
				rule, best, found = r, prio, true
			}
		}
	}
	return rule, found
}

func closure(n *NFA, set map[StateID]bool) map[StateID]bool {
	stack := make([]StateID, 0, len(set))
	for id := range set {
		stack = append(stack, id)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s := n.State(id)
		var targets []StateID
		switch s.Kind() {
		case StateSplit:
			l, r := s.Split()
			targets = []StateID{l, r}
		case StateEpsilon, StateTag:
			targets = []StateID{s.Epsilon()}
		}
		for _, t := range targets {
			if t != InvalidState && !set[t] {
				set[t] = true
				stack = append(stack, t)
			}
		}
	}
	return set
}

func units(s string) []uint32 {
	u := make([]uint32, len(s))
	for i := 0; i < len(s); i++ {
		u[i] = uint32(s[i])
	}
	return u
}

func mustCompile(t *testing.T, spec *ir.Spec) *NFA {
	t.Helper()
	n, err := Compile(spec)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCompileLiteral(t *testing.T) {
	var e enc.Enc
	spec := ir.NewSpec()
	re, _ := ir.Literal(e, "hello")
	spec.AddRule("", re, ir.SemAct{Code: "return 1;"})
	n := mustCompile(t, spec)

	if rule, ok := match(n, "", units("hello")); !ok || rule != 0 {
		t.Errorf("match(hello) = (%d, %v), want rule 0", rule, ok)
	}
	for _, bad := range []string{"", "hell", "helloo", "hellp"} {
		if _, ok := match(n, "", units(bad)); ok {
			t.Errorf("match(%q) succeeded, want failure", bad)
		}
	}
}

func TestCompilePriorities(t *testing.T) {
	var e enc.Enc
	spec := ir.NewSpec()
	kw, _ := ir.Literal(e, "if")
	word, _ := ir.Class(e, [2]uint32{'a', 'z'})
	spec.AddRule("", kw, ir.SemAct{Code: "A"})
	spec.AddRule("", ir.Plus(word), ir.SemAct{Code: "B"})
	n := mustCompile(t, spec)

	if rule, ok := match(n, "", units("if")); !ok || rule != 0 {
		t.Errorf("match(if) = (%d, %v), want keyword rule 0", rule, ok)
	}
	if rule, ok := match(n, "", units("in")); !ok || rule != 1 {
		t.Errorf("match(in) = (%d, %v), want identifier rule 1", rule, ok)
	}
}

func TestCompileIterBounds(t *testing.T) {
	var e enc.Enc
	spec := ir.NewSpec()
	a, _ := ir.Literal(e, "a")
	spec.AddRule("", ir.Iter(a, 2, 4), ir.SemAct{})
	n := mustCompile(t, spec)

	for _, tt := range []struct {
		in string
		ok bool
	}{
		{"", false}, {"a", false}, {"aa", true}, {"aaa", true}, {"aaaa", true}, {"aaaaa", false},
	} {
		if _, ok := match(n, "", units(tt.in)); ok != tt.ok {
			t.Errorf("a{2,4} on %q = %v, want %v", tt.in, ok, tt.ok)
		}
	}
}

func TestCompileUnboundedIter(t *testing.T) {
	var e enc.Enc
	spec := ir.NewSpec()
	a, _ := ir.Literal(e, "a")
	spec.AddRule("", ir.Iter(a, 2, -1), ir.SemAct{})
	n := mustCompile(t, spec)

	for _, tt := range []struct {
		in string
		ok bool
	}{
		{"a", false}, {"aa", true}, {"aaaaaaaa", true},
	} {
		if _, ok := match(n, "", units(tt.in)); ok != tt.ok {
			t.Errorf("a{2,} on %q = %v, want %v", tt.in, ok, tt.ok)
		}
	}
}

func TestCompileBadBounds(t *testing.T) {
	var e enc.Enc
	spec := ir.NewSpec()
	a, _ := ir.Literal(e, "a")
	spec.AddRule("", ir.Iter(a, 3, 2), ir.SemAct{})
	if _, err := Compile(spec); err == nil {
		t.Error("Compile with bounds {3,2} succeeded, want error")
	}
}

func TestCompileConditions(t *testing.T) {
	var e enc.Enc
	spec := ir.NewSpec()
	x, _ := ir.Literal(e, "x")
	y, _ := ir.Literal(e, "y")
	spec.AddRule("c1", x, ir.SemAct{})
	spec.AddRule("c2", y, ir.SemAct{})
	n := mustCompile(t, spec)

	if got := n.Conditions(); len(got) != 2 || got[0] != "c1" || got[1] != "c2" {
		t.Fatalf("Conditions() = %v", got)
	}
	if _, ok := match(n, "c1", units("x")); !ok {
		t.Error("c1 does not match x")
	}
	if _, ok := match(n, "c1", units("y")); ok {
		t.Error("c1 matches y, want failure")
	}
	if _, ok := match(n, "c2", units("y")); !ok {
		t.Error("c2 does not match y")
	}
}

func TestCompileAltClass(t *testing.T) {
	var e enc.Enc
	spec := ir.NewSpec()
	cls, _ := ir.Class(e, [2]uint32{'0', '9'}, [2]uint32{'a', 'f'})
	spec.AddRule("", ir.Plus(cls), ir.SemAct{})
	n := mustCompile(t, spec)

	if _, ok := match(n, "", units("0af9")); !ok {
		t.Error("hex string rejected")
	}
	if _, ok := match(n, "", units("0g")); ok {
		t.Error("non-hex accepted")
	}
}

func TestBuilderValidate(t *testing.T) {
	b := NewBuilder()
	r := b.AddRange('a', 'b', 12345) // dangling target
	b.SetStart("", r)
	if _, err := b.Build(); err == nil {
		t.Error("Build with dangling target succeeded, want error")
	}
}

func TestDefaultRuleHasNoPath(t *testing.T) {
	var e enc.Enc
	spec := ir.NewSpec()
	x, _ := ir.Literal(e, "x")
	spec.AddRule("c1", x, ir.SemAct{})
	spec.AddDefaultRule("c1", ir.SemAct{Code: "skip"})
	n := mustCompile(t, spec)

	// The default rule contributes no automaton path: only "x" matches.
	if _, ok := match(n, "c1", units("q")); ok {
		t.Error("default rule leaked into the automaton")
	}
}
