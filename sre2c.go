// Package sre2c is a lexer generator: it compiles regular-expression rule
// specifications into deterministic finite automata and emits C source
// code driving them through the YY* macro contract of the host program.
//
// The pipeline per specification block is IR -> Thompson NFA -> subset
// construction -> minimization -> analysis -> code emission into the
// output-fragment engine. Output is assembled in a single global pass
// once every block has been compiled, which resolves the forward
// references (condition enum, state switch, YYMAXFILL, #line).
package sre2c

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/raedwulf/sre2c/codegen"
	"github.com/raedwulf/sre2c/dfa"
	"github.com/raedwulf/sre2c/ir"
	"github.com/raedwulf/sre2c/nfa"
	"github.com/raedwulf/sre2c/warn"
)

// Version is the generator version reported in output headers.
const Version = "0.9.0"

// Common driver errors.
var (
	// ErrOutput indicates the output file could not be written.
	ErrOutput = errors.New("cannot write output file")

	// ErrWarnings indicates a promoted warning fired; partial output has
	// been discarded.
	ErrWarnings = errors.New("warnings promoted to errors")
)

// Source drives compilation of one input file: a sequence of verbatim
// segments and rule specification blocks, producing one output file and
// optionally a condition-type header.
type Source struct {
	opts    *codegen.Opts
	sink    *warn.Sink
	out     *codegen.Output
	maxFill uint32
	blocks  int
}

// NewSource creates a driver with the given options. The output starts
// with the generated-by header comment; in storable-state mode the
// YYMAXFILL definition is scheduled right after it.
func NewSource(opts *codegen.Opts) *Source {
	sink := warn.NewSink()
	out := codegen.NewOutput(opts, sink)
	out.WVersionTime()
	if opts.StorableState {
		out.WDelayYYMaxFill()
	}
	return &Source{
		opts:    opts,
		sink:    sink,
		out:     out,
		maxFill: 1,
	}
}

// Warn returns the diagnostic sink, for enabling or promoting classes.
func (s *Source) Warn() *warn.Sink { return s.sink }

// Output returns the underlying fragment engine, for verbatim writes
// between blocks.
func (s *Source) Output() *codegen.Output { return s.out }

// Raw copies verbatim input text into the current block.
func (s *Source) Raw(text string) {
	s.out.Ws(text)
}

// EmitTypes schedules the condition enum at the current position
// (the in-line types request).
func (s *Source) EmitTypes(indent uint32) {
	s.out.WDelayTypes(indent)
}

// CompileBlock compiles one rule specification into generated code
// appended to the output. Blocks after the first each get a fresh output
// block.
func (s *Source) CompileBlock(spec *ir.Spec) error {
	if s.blocks > 0 {
		s.out.NewBlock()
	}
	s.blocks++

	n, err := nfa.Compile(spec)
	if err != nil {
		return fmt.Errorf("block %d: %w", s.blocks, err)
	}
	d := dfa.Minimize(dfa.Build(n))
	d.Analyze()
	if mf := d.MaxFill(); mf > s.maxFill {
		s.maxFill = mf
	}
	return codegen.NewEmitter(s.out, d, spec).Emit()
}

// Emit materializes the generated source into w. It fails if a promoted
// warning fired.
func (s *Source) Emit(w io.Writer) error {
	types, tags := s.out.GlobalLists()
	filename := s.opts.OutputFile
	if filename == "" {
		filename = "<stdout>"
	}
	if err := s.out.Emit(w, filename, types, tags, s.maxFill); err != nil {
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	if s.sink.Error() {
		return ErrWarnings
	}
	return nil
}

// EmitHeader materializes the condition-type header into w.
func (s *Source) EmitHeader(w io.Writer) error {
	types, _ := s.out.GlobalLists()
	return s.out.EmitHeader(w, s.opts.HeaderFile, types)
}

// WriteFiles emits the output file (or stdout) and the optional header.
// Files are written atomically: content goes to a temporary file that is
// renamed into place only on success, so a failing run leaves no partial
// output behind.
func (s *Source) WriteFiles() error {
	if s.opts.OutputFile == "" {
		if err := s.Emit(os.Stdout); err != nil {
			return err
		}
	} else if err := writeAtomic(s.opts.OutputFile, s.Emit); err != nil {
		return err
	}
	if s.opts.HeaderFile != "" {
		return writeAtomic(s.opts.HeaderFile, s.EmitHeader)
	}
	return nil
}

// writeAtomic writes via fill into a temporary sibling of path and
// renames it into place on success.
func writeAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()
	if err := fill(tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		tmp = nil
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	name := tmp.Name()
	tmp = nil
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return fmt.Errorf("%w: %v", ErrOutput, err)
	}
	return nil
}
