package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/raedwulf/sre2c"
	"github.com/raedwulf/sre2c/codegen"
	"github.com/raedwulf/sre2c/enc"
	"github.com/raedwulf/sre2c/ir"
)

func TestReaderSplitsSegments(t *testing.T) {
	r := newReader("head\n/*!re2c\n\"a\" { A }\n*/\ntail\n")
	verbatim, block, line, ok := r.next()
	if !ok || verbatim != "head\n" {
		t.Fatalf("first segment = (%q, %v)", verbatim, ok)
	}
	if line != 2 {
		t.Errorf("block line = %d, want 2", line)
	}
	if !strings.Contains(block, "\"a\" { A }") {
		t.Errorf("block body = %q", block)
	}
	verbatim, _, _, ok = r.next()
	if ok || verbatim != "\ntail\n" {
		t.Errorf("trailing segment = (%q, %v)", verbatim, ok)
	}
}

func TestReaderTypesMarker(t *testing.T) {
	r := newReader("a\n/*!types:re2c*/\nb")
	verbatim, block, _, ok := r.next()
	if !ok || verbatim != "a\n" || block != typesMarker {
		t.Errorf("types marker = (%q, %q, %v)", verbatim, block, ok)
	}
}

func mustParse(t *testing.T, body string) *ir.Spec {
	t.Helper()
	var e enc.Enc
	spec, err := parseSpec(e, body, 1)
	if err != nil {
		t.Fatal(err)
	}
	return spec
}

func TestParseLiteralRule(t *testing.T) {
	spec := mustParse(t, ` "if" { return IF; } `)
	rules := spec.Rules()
	if len(rules) != 1 || rules[0].Action.Code != "{ return IF; }" {
		t.Fatalf("rules = %+v", rules)
	}
	if rules[0].RE.Op != ir.OpCat {
		t.Errorf("regex op = %v", rules[0].RE.Op)
	}
}

func TestParseConditionsAndDefault(t *testing.T) {
	spec := mustParse(t, `
		<c1> "x" { X }
		<c1> *   { D }
		<c2> [a-z]+ { W }
	`)
	if got := spec.Conditions(); len(got) != 2 {
		t.Fatalf("conditions = %v", got)
	}
	if !spec.HasDefault("c1") || spec.HasDefault("c2") {
		t.Error("default rule bookkeeping wrong")
	}
}

func TestParseQuantifiers(t *testing.T) {
	spec := mustParse(t, `[0-9]{2,4} { N }`)
	re := spec.Rules()[0].RE
	if re.Op != ir.OpIter || re.Min != 2 || re.Max != 4 {
		t.Errorf("regex = %+v", re)
	}

	spec = mustParse(t, `"a"{3,} { M }`)
	re = spec.Rules()[0].RE
	if re.Op != ir.OpIter || re.Min != 3 || re.Max != -1 {
		t.Errorf("regex = %+v", re)
	}
}

func TestParseAlternationGroup(t *testing.T) {
	spec := mustParse(t, `("ab" | "cd")+ { P }`)
	re := spec.Rules()[0].RE
	if re.Op != ir.OpIter || re.Min != 1 || re.Max != -1 {
		t.Fatalf("outer = %+v", re)
	}
	if re.Sub[0].Op != ir.OpAlt {
		t.Errorf("inner = %v", re.Sub[0].Op)
	}
}

func TestParseNegatedClass(t *testing.T) {
	spec := mustParse(t, `[^a-z] { O }`)
	re := spec.Rules()[0].RE
	if re.Op != ir.OpSym {
		t.Fatalf("regex op = %v", re.Op)
	}
	if re.Sym.Contains('m') {
		t.Error("negated class still matches excluded letter")
	}
	if !re.Sym.Contains('A') || !re.Sym.Contains(0) {
		t.Error("negated class misses complement units")
	}
}

func TestParseErrors(t *testing.T) {
	var e enc.Enc
	for _, body := range []string{
		`"unterminated { A }`,
		`[a-z { A }`,
		`"x" { unbalanced `,
		`"b"-"a" { A }`,
		`[z-a] { A }`,
	} {
		if _, err := parseSpec(e, body, 1); err == nil {
			t.Errorf("parseSpec(%q) succeeded, want error", body)
		}
	}
}

func TestFeedEndToEnd(t *testing.T) {
	opts := codegen.DefaultOpts()
	opts.NoGenerationDate = true
	src := sre2c.NewSource(opts)
	input := "#include <stdio.h>\n" +
		"/*!re2c\n" +
		"\"hello\" { return 1; }\n" +
		"[a-z]+  { return 2; }\n" +
		"*       { return 0; }\n" +
		"*/\n" +
		"/* done */\n"
	if err := feed(src, opts, input); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := src.Emit(&buf); err != nil {
		t.Fatal(err)
	}
	got := buf.String()
	for _, want := range []string{"#include <stdio.h>", "return 1;", "return 2;", "return 0;", "/* done */"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in output:\n%s", want, got)
		}
	}
}
