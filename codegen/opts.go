// Package codegen turns optimized DFAs into C source text.
//
// It has three layers: the output-fragment engine (deferred two-phase
// emission, output.go), the per-state dispatch selection (dispatch.go)
// and the DFA walker producing the actual matcher code (emit.go).
package codegen

import "github.com/raedwulf/sre2c/enc"

// Opts controls code generation. The zero value is not usable; start
// from DefaultOpts.
type Opts struct {
	// Encoding is the configured input encoding. It is latched by the
	// first compiled block and must not change afterwards.
	Encoding enc.Enc

	// NestedIfs replaces switch dispatch with nested ifs (-s).
	NestedIfs bool

	// BitVectors prefers table dispatch where possible (-b).
	BitVectors bool

	// ComputedGotos enables computed-goto jump tables (-g).
	ComputedGotos bool

	// StorableState emits the resumable-matcher protocol: YYSETSTATE at
	// every fill site and a state switch at block entry (-f).
	StorableState bool

	// HeaderFile, when non-empty, routes the condition enum into a
	// separate header (-t).
	HeaderFile string

	// NoLineInfo suppresses #line directives (-i).
	NoLineInfo bool

	// OutputFile is the output path; empty means stdout (-o).
	OutputFile string

	// InputFile names the specification source in #line directives that
	// point back at rule actions.
	InputFile string

	// NoGenerationDate omits the timestamp from the header comment.
	NoGenerationDate bool

	// Version is the generator version printed in the header comment;
	// empty omits it.
	Version string

	// StartLabel, when non-empty, is emitted as a user-visible label at
	// the start of the first condition.
	StartLabel string

	// UseStateAbort makes the state switch abort() on unknown states
	// instead of defaulting to the start.
	UseStateAbort bool

	// UseStateNext emits the yyNext label after the state switch.
	UseStateNext bool

	// Naming knobs for the emitted code.
	Indent         string // one indentation step
	LabelPrefix    string // state labels, default "yy"
	CondPrefix     string // condition labels, default "yyc_"
	CondEnumPrefix string // condition enum members, default "yyc"
	CondType       string // condition enum type, default "YYCONDTYPE"
	FillLabel      string // storable-state fill labels, default "yyFillLabel"
	NextLabel      string // label after the state switch, default "yyNext"
	YYAccept       string // fallback bookkeeping variable, default "yyaccept"
	YYCh           string // current-unit variable, default "yych"
	StateGet       string // state getter expression, default "YYGETSTATE"
	StateGetNaked  bool   // StateGet is already a full expression
	StateSet       string // state setter macro, default "YYSETSTATE"
	CondGet        string // condition getter, default "YYGETCONDITION"
	CondGetNaked   bool   // CondGet is already a full expression
}

// DefaultOpts returns the default code generation options.
func DefaultOpts() *Opts {
	return &Opts{
		Indent:         "\t",
		LabelPrefix:    "yy",
		CondPrefix:     "yyc_",
		CondEnumPrefix: "yyc",
		CondType:       "YYCONDTYPE",
		FillLabel:      "yyFillLabel",
		NextLabel:      "yyNext",
		YYAccept:       "yyaccept",
		YYCh:           "yych",
		StateGet:       "YYGETSTATE",
		StateSet:       "YYSETSTATE",
		CondGet:        "YYGETCONDITION",
	}
}

// stateGetExpr returns the get-state expression, adding a call if the
// getter is not naked.
func (o *Opts) stateGetExpr() string {
	if o.StateGetNaked {
		return o.StateGet
	}
	return o.StateGet + "()"
}

// condGetExpr returns the get-condition expression.
func (o *Opts) condGetExpr() string {
	if o.CondGetNaked {
		return o.CondGet
	}
	return o.CondGet + "()"
}
