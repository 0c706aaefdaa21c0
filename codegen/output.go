package codegen

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/raedwulf/sre2c/warn"
)

// FragmentKind tags the variants of an output fragment.
type FragmentKind uint8

const (
	// FragCode is eagerly buffered text.
	FragCode FragmentKind = iota

	// FragLineInfo becomes a #line directive pointing at the line
	// following itself in the final output.
	FragLineInfo

	// FragStateGoto becomes the storable-state dispatch switch once the
	// total number of fill sites is known.
	FragStateGoto

	// FragTags becomes one formatted line per global tag name.
	FragTags

	// FragTypes becomes the condition enum once all blocks contributed
	// their condition types.
	FragTypes

	// FragWarnCondOrder fires the condition-order warning at emit time;
	// it produces no text.
	FragWarnCondOrder

	// FragYYAcceptInit declares the yyaccept variable if the block used
	// it.
	FragYYAcceptInit

	// FragYYMaxFill becomes the YYMAXFILL definition once the global
	// maximum is known.
	FragYYMaxFill
)

// TagsConf configures tag materialization: Format is emitted per tag with
// "@@" replaced by the tag name, joined by Separator.
type TagsConf struct {
	Format    string
	Separator string
}

// Fragment is one unit of deferred output: either buffered code or a
// placeholder materialized during the global emit phase.
type Fragment struct {
	kind   FragmentKind
	buf    bytes.Buffer
	indent uint32
	tags   *TagsConf
}

// countLines returns the number of newlines in the materialized fragment.
func (f *Fragment) countLines() uint32 {
	return uint32(bytes.Count(f.buf.Bytes(), []byte{'\n'}))
}

// Block is the generated output for one logical specification. It owns
// its fragment sequence; every placeholder fragment is followed by a Code
// fragment so subsequent writes never land in a placeholder.
type Block struct {
	fragments    []*Fragment
	usedYYAccept bool
	stateGoto    bool
	startLabel   string
	entryLabel   string
	line         uint32
	types        []string
	tags         []string
}

func newBlock() *Block {
	return &Block{fragments: []*Fragment{{kind: FragCode}}}
}

// SetLine records the source line of the specification, used by the
// condition-order warning.
func (b *Block) SetLine(line uint32) { b.line = line }

// SetStartLabel records the user start label for this block.
func (b *Block) SetStartLabel(label string) { b.startLabel = label }

// SetEntryLabel records the label the state switch defaults to.
func (b *Block) SetEntryLabel(label string) { b.entryLabel = label }

// UseYYAccept records that the block's code reads yyaccept.
func (b *Block) UseYYAccept() { b.usedYYAccept = true }

// AddType appends a condition type name observed in this block.
func (b *Block) AddType(name string) { b.types = append(b.types, name) }

// AddTags appends capture tag names observed in this block.
func (b *Block) AddTags(names []string) { b.tags = append(b.tags, names...) }

// Output is the fragment engine for one output file: an ordered sequence
// of blocks whose placeholder fragments are resolved in a single global
// emit pass.
type Output struct {
	blocks       []*Block
	labelCounter uint32
	fillIndex    uint32

	// warnCondOrder gates the condition-order warning for the whole
	// file; emitting a types placeholder (or requesting a header file)
	// takes the condition enum out of the user's hands and silences it.
	warnCondOrder bool

	opts *Opts
	warn *warn.Sink
}

// NewOutput creates the fragment engine with one fresh block.
func NewOutput(opts *Opts, w *warn.Sink) *Output {
	o := &Output{
		warnCondOrder: opts.HeaderFile == "",
		opts:          opts,
		warn:          w,
	}
	o.NewBlock()
	return o
}

// Block returns the current block.
func (o *Output) Block() *Block {
	return o.blocks[len(o.blocks)-1]
}

// NewBlock opens a fresh block with its initial Code fragment.
func (o *Output) NewBlock() *Block {
	b := newBlock()
	o.blocks = append(o.blocks, b)
	return b
}

// stream returns the sink of the current Code fragment.
func (o *Output) stream() *bytes.Buffer {
	b := o.Block()
	return &b.fragments[len(b.fragments)-1].buf
}

// InsertCode seals the current fragment and begins a new Code fragment.
func (o *Output) InsertCode() {
	b := o.Block()
	b.fragments = append(b.fragments, &Fragment{kind: FragCode})
}

// delay appends a placeholder fragment followed by a fresh Code fragment.
func (o *Output) delay(f *Fragment) {
	b := o.Block()
	b.fragments = append(b.fragments, f)
	o.InsertCode()
}

// WDelayLineInfo appends a #line placeholder.
func (o *Output) WDelayLineInfo() *Output {
	o.delay(&Fragment{kind: FragLineInfo})
	return o
}

// WDelayStateGoto appends the storable-state switch placeholder. It is a
// no-op unless storable state is enabled, and idempotent per block.
func (o *Output) WDelayStateGoto(indent uint32) *Output {
	if o.opts.StorableState && !o.Block().stateGoto {
		o.delay(&Fragment{kind: FragStateGoto, indent: indent})
		o.Block().stateGoto = true
	}
	return o
}

// WDelayTypes appends the condition enum placeholder. Requesting the
// enum in-line silences the condition-order warning for the whole file.
func (o *Output) WDelayTypes(indent uint32) *Output {
	o.warnCondOrder = false
	o.delay(&Fragment{kind: FragTypes, indent: indent})
	return o
}

// WDelayTags appends the tag list placeholder.
func (o *Output) WDelayTags(indent uint32, conf *TagsConf) *Output {
	o.delay(&Fragment{kind: FragTags, indent: indent, tags: conf})
	return o
}

// WDelayWarnCondOrder appends the condition-order warning marker.
func (o *Output) WDelayWarnCondOrder() *Output {
	o.delay(&Fragment{kind: FragWarnCondOrder})
	return o
}

// WDelayYYAcceptInit appends the yyaccept declaration placeholder.
func (o *Output) WDelayYYAcceptInit(indent uint32) *Output {
	o.delay(&Fragment{kind: FragYYAcceptInit, indent: indent})
	return o
}

// WDelayYYMaxFill appends the YYMAXFILL definition placeholder.
func (o *Output) WDelayYYMaxFill() *Output {
	o.delay(&Fragment{kind: FragYYMaxFill})
	return o
}

// Ws writes a string to the current Code fragment.
func (o *Output) Ws(s string) *Output {
	o.stream().WriteString(s)
	return o
}

// Wc writes a single byte.
func (o *Output) Wc(c byte) *Output {
	o.stream().WriteByte(c)
	return o
}

// Wu32 writes a decimal number.
func (o *Output) Wu32(n uint32) *Output {
	fmt.Fprintf(o.stream(), "%d", n)
	return o
}

// Wf writes formatted text.
func (o *Output) Wf(format string, args ...interface{}) *Output {
	fmt.Fprintf(o.stream(), format, args...)
	return o
}

// WInd writes n indentation steps.
func (o *Output) WInd(n uint32) *Output {
	for ; n > 0; n-- {
		o.stream().WriteString(o.opts.Indent)
	}
	return o
}

// WLabel writes a state label reference.
func (o *Output) WLabel(l uint32) *Output {
	o.stream().WriteString(o.opts.LabelPrefix)
	fmt.Fprintf(o.stream(), "%d", l)
	return o
}

// WHexCU writes a code unit as a hex constant sized to the encoding.
func (o *Output) WHexCU(u uint32) *Output {
	o.stream().WriteString(hexCU(u, o.opts.Encoding.SzCodeUnit()))
	return o
}

// WChOrHex writes a code unit as a character constant when printable,
// hex otherwise.
func (o *Output) WChOrHex(u uint32) *Output {
	o.stream().WriteString(chOrHex(u, o.opts))
	return o
}

// WVersionTime writes the generated-by header comment.
func (o *Output) WVersionTime() *Output {
	o.Ws(versionTime(o.opts))
	return o
}

// NextLabel allocates a fresh state label.
func (o *Output) NextLabel() uint32 {
	l := o.labelCounter
	o.labelCounter++
	return l
}

// NextFillIndex allocates a fresh storable-state fill slot.
func (o *Output) NextFillIndex() uint32 {
	i := o.fillIndex
	o.fillIndex++
	return i
}

// FillIndex returns the number of fill slots allocated so far.
func (o *Output) FillIndex() uint32 { return o.fillIndex }

// GlobalLists folds all blocks' condition types into one order-preserving
// unique sequence and all tag names into one sorted unique list.
func (o *Output) GlobalLists() (types []string, tags []string) {
	seenT := make(map[string]bool)
	seenG := make(map[string]bool)
	for _, b := range o.blocks {
		for _, t := range b.types {
			if !seenT[t] {
				seenT[t] = true
				types = append(types, t)
			}
		}
		for _, g := range b.tags {
			seenG[g] = true
		}
	}
	tags = sortedKeys(seenG)
	return types, tags
}

// Emit walks the blocks in order and materializes every fragment into w.
// filename names the output in #line directives. The running line count
// makes each #line directive point at the line immediately following
// itself.
func (o *Output) Emit(w io.Writer, filename string, types, tags []string, maxFill uint32) error {
	lineCount := uint32(1)
	for _, b := range o.blocks {
		for _, f := range b.fragments {
			switch f.kind {
			case FragCode:
				// already buffered
			case FragLineInfo:
				writeLineInfo(&f.buf, lineCount+1, filename, o.opts)
			case FragStateGoto:
				entry := b.entryLabel
				if entry == "" {
					entry = o.opts.LabelPrefix + "0"
				}
				writeStateGoto(&f.buf, f.indent, entry, o.fillIndex, o.opts)
			case FragTags:
				writeTags(&f.buf, f.tags, tags)
			case FragTypes:
				writeTypes(&f.buf, f.indent, types, o.opts)
			case FragWarnCondOrder:
				if o.warnCondOrder {
					o.warn.Warnf(warn.CondOrder, b.line, "looks like you use hardcoded numbers instead of condition names")
				}
			case FragYYAcceptInit:
				if b.usedYYAccept {
					writeInd(&f.buf, f.indent, o.opts)
					fmt.Fprintf(&f.buf, "unsigned int %s = 0;\n", o.opts.YYAccept)
				}
			case FragYYMaxFill:
				fmt.Fprintf(&f.buf, "#define YYMAXFILL %d\n", maxFill)
			}
			if _, err := w.Write(f.buf.Bytes()); err != nil {
				return err
			}
			lineCount += f.countLines()
		}
	}
	return nil
}

// EmitHeader materializes the version comment, a #line directive and the
// condition enum into w, for the separate header file.
func (o *Output) EmitHeader(w io.Writer, filename string, types []string) error {
	var buf bytes.Buffer
	buf.WriteString(versionTime(o.opts))
	writeLineInfo(&buf, 3, filename, o.opts)
	buf.WriteByte('\n')
	writeTypes(&buf, 0, types, o.opts)
	_, err := w.Write(buf.Bytes())
	return err
}

func writeInd(buf *bytes.Buffer, n uint32, opts *Opts) {
	for ; n > 0; n-- {
		buf.WriteString(opts.Indent)
	}
}

func writeLineInfo(buf *bytes.Buffer, line uint32, filename string, opts *Opts) {
	if !opts.NoLineInfo {
		fmt.Fprintf(buf, "#line %d \"%s\"\n", line, filename)
	}
}

func writeStateGoto(buf *bytes.Buffer, indent uint32, startLabel string, fillIndex uint32, opts *Opts) {
	ind := strings.Repeat(opts.Indent, int(indent))
	fmt.Fprintf(buf, "%sswitch (%s) {\n", ind, opts.stateGetExpr())
	if opts.UseStateAbort {
		fmt.Fprintf(buf, "%sdefault: abort();\n", ind)
		fmt.Fprintf(buf, "%scase -1: goto %s;\n", ind, startLabel)
	} else {
		fmt.Fprintf(buf, "%sdefault: goto %s;\n", ind, startLabel)
	}
	for i := uint32(0); i < fillIndex; i++ {
		fmt.Fprintf(buf, "%scase %d: goto %s%d;\n", ind, i, opts.FillLabel, i)
	}
	fmt.Fprintf(buf, "%s}\n", ind)
	if opts.UseStateNext {
		fmt.Fprintf(buf, "%s:\n", opts.NextLabel)
	}
}

func writeTags(buf *bytes.Buffer, conf *TagsConf, tags []string) {
	for i, tag := range tags {
		if i > 0 {
			buf.WriteString(conf.Separator)
		}
		buf.WriteString(strings.ReplaceAll(conf.Format, "@@", tag))
	}
}

func writeTypes(buf *bytes.Buffer, indent uint32, types []string, opts *Opts) {
	ind := strings.Repeat(opts.Indent, int(indent))
	fmt.Fprintf(buf, "%senum %s {\n", ind, opts.CondType)
	for _, t := range types {
		fmt.Fprintf(buf, "%s%s%s%s,\n", ind, opts.Indent, opts.CondEnumPrefix, t)
	}
	fmt.Fprintf(buf, "%s};\n", ind)
}

func versionTime(opts *Opts) string {
	var sb strings.Builder
	sb.WriteString("/* Generated by sre2c")
	if opts.Version != "" {
		sb.WriteString(" ")
		sb.WriteString(opts.Version)
	}
	if !opts.NoGenerationDate {
		sb.WriteString(" on ")
		sb.WriteString(time.Now().Format(time.ANSIC))
	}
	sb.WriteString(" */\n")
	return sb.String()
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
