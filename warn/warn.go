// Package warn implements the diagnostic sink: named warnings that can be
// suppressed individually or promoted to errors. A promoted warning that
// fires makes the whole run fail without aborting the pipeline, so all
// diagnostics of a run are reported together.
package warn

import "fmt"

// Name identifies a warning class.
type Name string

const (
	// CondOrder fires when a specification reuses conditions but leaves
	// the condition enum ordering to hardcoded numbers (no types
	// requested, default rule missing or mis-ordered).
	CondOrder Name = "condition-order"

	// UndefinedControlFlow fires when a DFA state can see reachable
	// input with no transition and no default rule; the emitted code
	// falls through.
	UndefinedControlFlow Name = "undefined-control-flow"
)

// Warning is one recorded diagnostic.
type Warning struct {
	Name Name
	Line uint32
	Msg  string
}

// String formats the warning the way the CLI prints it.
func (w Warning) String() string {
	return fmt.Sprintf("line %d: warning: %s [-W%s]", w.Line, w.Msg, w.Name)
}

// Sink collects warnings. Warnings are enabled by default; individual
// classes can be suppressed or promoted to errors.
type Sink struct {
	suppressed map[Name]bool
	asError    map[Name]bool
	allErrors  bool
	warnings   []Warning
	failed     bool
}

// NewSink creates a sink with all warnings enabled and none promoted.
func NewSink() *Sink {
	return &Sink{
		suppressed: make(map[Name]bool),
		asError:    make(map[Name]bool),
	}
}

// Suppress disables a warning class.
func (s *Sink) Suppress(name Name) { s.suppressed[name] = true }

// PromoteToError makes a warning class fail the run when it fires.
func (s *Sink) PromoteToError(name Name) { s.asError[name] = true }

// PromoteAll makes every warning class fail the run when it fires.
func (s *Sink) PromoteAll() { s.allErrors = true }

// Warnf records a warning unless its class is suppressed.
func (s *Sink) Warnf(name Name, line uint32, format string, args ...interface{}) {
	if s.suppressed[name] {
		return
	}
	s.warnings = append(s.warnings, Warning{
		Name: name,
		Line: line,
		Msg:  fmt.Sprintf(format, args...),
	})
	if s.allErrors || s.asError[name] {
		s.failed = true
	}
}

// Warnings returns all recorded warnings in order.
func (s *Sink) Warnings() []Warning { return s.warnings }

// Error returns true if a promoted warning fired; the run must fail and
// any partial output be discarded.
func (s *Sink) Error() bool { return s.failed }
