// Command sre2c compiles a lexer specification into C source code.
//
// The input file is verbatim text with interleaved /*!re2c ... */ blocks;
// verbatim text is copied through and each block is compiled into a
// deterministic matcher driven by the host program's YY* macros.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/raedwulf/sre2c"
	"github.com/raedwulf/sre2c/codegen"
	"github.com/raedwulf/sre2c/enc"
	"github.com/raedwulf/sre2c/warn"
)

type cli struct {
	EBCDIC        bool   `short:"e" help:"Generate a lexer for EBCDIC input."`
	UTF16         bool   `short:"x" help:"Generate a lexer for UTF-16 input."`
	UTF8          bool   `name:"utf8" short:"8" help:"Generate a lexer for UTF-8 input."`
	UCS2          bool   `short:"w" help:"Generate a lexer for UCS-2 input."`
	UTF32         bool   `short:"u" help:"Generate a lexer for UTF-32 input."`
	NestedIfs     bool   `short:"s" help:"Use nested ifs instead of switches where beneficial."`
	BitVectors    bool   `short:"b" help:"Prefer table dispatch."`
	ComputedGotos bool   `short:"g" help:"Enable computed-goto jump tables."`
	StorableState bool   `short:"f" help:"Generate a storable-state lexer."`
	TypeHeader    string `short:"t" placeholder:"FILE" help:"Emit the condition enum into a separate header file."`
	NoLineInfo    bool   `short:"i" help:"Do not emit #line directives."`
	Output        string `short:"o" placeholder:"FILE" help:"Output file (default stdout)."`

	NoGenerationDate bool     `help:"Omit the date from the generated header comment."`
	Werror           []string `name:"werror" placeholder:"NAME" help:"Promote the named warning to an error (repeatable)."`
	NoWarning        []string `name:"no-warning" placeholder:"NAME" help:"Suppress the named warning (repeatable)."`

	Input string `arg:"" type:"existingfile" help:"Input specification file."`
}

func main() {
	var params cli
	kong.Parse(&params,
		kong.Name("sre2c"),
		kong.Description("A lexer generator emitting deterministic matchers as C source."))
	if err := generate(&params); err != nil {
		fmt.Fprintf(os.Stderr, "sre2c: %v\n", err)
		os.Exit(1)
	}
}

func generate(params *cli) error {
	opts, err := buildOpts(params)
	if err != nil {
		return err
	}

	src := sre2c.NewSource(opts)
	for _, name := range params.Werror {
		src.Warn().PromoteToError(warn.Name(name))
	}
	for _, name := range params.NoWarning {
		src.Warn().Suppress(warn.Name(name))
	}

	data, err := os.ReadFile(params.Input)
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}
	if err := feed(src, opts, string(data)); err != nil {
		return err
	}

	err = src.WriteFiles()
	for _, w := range src.Warn().Warnings() {
		fmt.Fprintf(os.Stderr, "sre2c: %s: %s\n", params.Input, w)
	}
	return err
}

func buildOpts(params *cli) (*codegen.Opts, error) {
	opts := codegen.DefaultOpts()
	for _, sel := range []struct {
		on  bool
		typ enc.Type
	}{
		{params.EBCDIC, enc.EBCDIC},
		{params.UTF16, enc.UTF16},
		{params.UTF8, enc.UTF8},
		{params.UCS2, enc.UCS2},
		{params.UTF32, enc.UTF32},
	} {
		if sel.on && !opts.Encoding.Set(sel.typ) {
			return nil, fmt.Errorf("conflicting encodings: %v and %v", opts.Encoding.Type(), sel.typ)
		}
	}
	opts.NestedIfs = params.NestedIfs
	opts.BitVectors = params.BitVectors
	opts.ComputedGotos = params.ComputedGotos
	opts.StorableState = params.StorableState
	opts.HeaderFile = params.TypeHeader
	opts.NoLineInfo = params.NoLineInfo
	opts.OutputFile = params.Output
	opts.NoGenerationDate = params.NoGenerationDate
	opts.InputFile = params.Input
	opts.Version = sre2c.Version
	return opts, nil
}

// feed splits the input into verbatim segments and rule blocks and runs
// them through the driver in order.
func feed(src *sre2c.Source, opts *codegen.Opts, input string) error {
	r := newReader(input)
	for {
		verbatim, block, line, ok := r.next()
		src.Raw(verbatim)
		if !ok {
			return nil
		}
		if block == typesMarker {
			src.EmitTypes(0)
			continue
		}
		spec, err := parseSpec(opts.Encoding, block, line)
		if err != nil {
			return err
		}
		if err := src.CompileBlock(spec); err != nil {
			return err
		}
	}
}
