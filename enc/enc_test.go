package enc

import (
	"testing"

	"github.com/raedwulf/sre2c/ranges"
)

func TestTables(t *testing.T) {
	tests := []struct {
		typ                              Type
		nPoints, nUnits, szUnit, szPtMax uint32
	}{
		{ASCII, 0x100, 0x100, 1, 1},
		{EBCDIC, 0x100, 0x100, 1, 1},
		{UCS2, 0x10000, 0x10000, 2, 2},
		{UTF16, 0x110000, 0x10000, 2, 4},
		{UTF32, 0x110000, 0x110000, 4, 4},
		{UTF8, 0x110000, 0x100, 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			var e Enc
			e.Set(tt.typ)
			if got := e.NCodePoints(); got != tt.nPoints {
				t.Errorf("NCodePoints = %#x, want %#x", got, tt.nPoints)
			}
			if got := e.NCodeUnits(); got != tt.nUnits {
				t.Errorf("NCodeUnits = %#x, want %#x", got, tt.nUnits)
			}
			if got := e.SzCodeUnit(); got != tt.szUnit {
				t.Errorf("SzCodeUnit = %d, want %d", got, tt.szUnit)
			}
			if got := e.SzCodePointMax(); got != tt.szPtMax {
				t.Errorf("SzCodePointMax = %d, want %d", got, tt.szPtMax)
			}
		})
	}
}

func TestSetLatches(t *testing.T) {
	var e Enc
	if !e.Set(UTF8) {
		t.Fatal("Set(UTF8) on default failed")
	}
	if !e.Set(UTF8) {
		t.Error("Set(UTF8) twice failed")
	}
	if e.Set(UTF16) {
		t.Error("Set(UTF16) after UTF8 succeeded, want failure")
	}
	if !e.Is(UTF8) {
		t.Errorf("encoding changed to %v after failed Set", e.Type())
	}
	e.Unset(UTF16) // wrong type, no effect
	if !e.Is(UTF8) {
		t.Error("Unset of a different type changed the encoding")
	}
	e.Unset(UTF8)
	if !e.Is(ASCII) {
		t.Error("Unset did not revert to ASCII")
	}
}

func TestEncodePolicies(t *testing.T) {
	surrogate := uint32(0xD855)

	var e Enc
	e.Set(UTF8)

	c := surrogate
	if e.Encode(&c) {
		t.Error("PolicyIgnore: Encode(surrogate) = true, want false")
	}

	e.SetPolicy(PolicyFail)
	c = surrogate
	if e.Encode(&c) {
		t.Error("PolicyFail: Encode(surrogate) = true, want false")
	}

	e.SetPolicy(PolicySubstitute)
	c = surrogate
	if !e.Encode(&c) || c != 0xFFFD {
		t.Errorf("PolicySubstitute: Encode(surrogate) = %#x, want U+FFFD", c)
	}

	var a Enc // ASCII
	a.SetPolicy(PolicySubstitute)
	c = 0x2603
	if !a.Encode(&c) || c != 0x1A {
		t.Errorf("ASCII substitute: got %#x, want 0x1A", c)
	}
}

func TestEBCDICRoundTrip(t *testing.T) {
	var e Enc
	e.Set(EBCDIC)
	seen := make(map[uint32]bool)
	for c := uint32(0); c < 0x100; c++ {
		u := c
		if !e.Encode(&u) {
			t.Fatalf("Encode(%#x) failed", c)
		}
		if seen[u] {
			t.Fatalf("conversion table not injective at %#x", c)
		}
		seen[u] = true
		if back := e.DecodeUnsafe(u); back != c {
			t.Errorf("DecodeUnsafe(Encode(%#x)) = %#x", c, back)
		}
	}
	// Spot-check a few well-known code page 037 positions.
	for _, pair := range [][2]uint32{{'a', 0x81}, {'A', 0xC1}, {'0', 0xF0}, {' ', 0x40}} {
		u := pair[0]
		e.Encode(&u)
		if u != pair[1] {
			t.Errorf("EBCDIC '%c' = %#x, want %#x", pair[0], u, pair[1])
		}
	}
}

// flatten returns the union of all code-unit ranges in all sequences.
func flatten(seqs []Seq) ranges.Set {
	var s ranges.Set
	for _, seq := range seqs {
		for _, r := range seq {
			s = s.Union(ranges.Set{r})
		}
	}
	return s
}

// matches reports whether the encoded unit sequence is accepted by exactly
// one of the sequences.
func matches(seqs []Seq, units []uint32) bool {
	n := 0
seqs:
	for _, seq := range seqs {
		if len(seq) != len(units) {
			continue
		}
		for i, r := range seq {
			if !r.Contains(units[i]) {
				continue seqs
			}
		}
		n++
	}
	return n == 1
}

func TestEncodeRangeFixed(t *testing.T) {
	for _, typ := range []Type{ASCII, UCS2, UTF32} {
		var e Enc
		e.Set(typ)
		seqs, ok := e.EncodeRange(0, e.NCodePoints()-1)
		if !ok {
			t.Fatalf("%v: EncodeRange over all code points failed", typ)
		}
		got := flatten(seqs)
		want := e.FullRange()
		if typ == UCS2 || typ == UTF32 {
			// Unicode encodings never produce surrogate units.
			want = want.Subtract(ranges.New(surrMin, surrMax+1))
		}
		if !got.Equal(want) {
			t.Errorf("%v: coverage = %v, want %v", typ, got, want)
		}
	}
}

func TestEncodeRangeEBCDIC(t *testing.T) {
	var e Enc
	e.Set(EBCDIC)
	seqs, ok := e.EncodeRange(0, 0xFF)
	if !ok {
		t.Fatal("EncodeRange failed")
	}
	if got := flatten(seqs); !got.Equal(e.FullRange()) {
		t.Errorf("coverage = %v, want full range", got)
	}
	// 'a'..'i' is contiguous in code page 037 (0x81..0x89).
	seqs, _ = e.EncodeRange('a', 'i')
	if len(seqs) != 1 || len(seqs[0]) != 1 || seqs[0][0] != (ranges.Range{Lo: 0x81, Hi: 0x8A}) {
		t.Errorf("EncodeRange('a', 'i') = %v, want single range [0x81, 0x8A)", seqs)
	}
	// 'i'..'j' is not contiguous (0x89, 0x91): two fragments.
	seqs, _ = e.EncodeRange('i', 'j')
	if len(seqs) != 2 {
		t.Errorf("EncodeRange('i', 'j') = %v, want two fragments", seqs)
	}
}

func TestEncodeRangeUTF8(t *testing.T) {
	var e Enc
	e.Set(UTF8)

	encode := func(c uint32) []uint32 {
		var b [4]byte
		n := encodeUTF8(b[:], c)
		units := make([]uint32, n)
		for i := 0; i < n; i++ {
			units[i] = uint32(b[i])
		}
		return units
	}

	tests := []struct {
		name   string
		lo, hi uint32
		in     []uint32 // sample member code points
		out    []uint32 // sample non-member code points
	}{
		{"ascii", 'a', 'z', []uint32{'a', 'm', 'z'}, []uint32{'A', '{', 0x100}},
		{"cyrillic", 0x430, 0x44F, []uint32{0x430, 0x44F}, []uint32{0x42F, 0x450, 'a'}},
		{"across lengths", 0x20, 0x2603, []uint32{0x20, 0x7F, 0x80, 0x7FF, 0x800, 0x2603}, []uint32{0x1F, 0x2604}},
		{"astral", 0x1F300, 0x1F5FF, []uint32{0x1F300, 0x1F5FF}, []uint32{0x1F2FF, 0x1F600}},
		{"everything", 0, 0x10FFFF, []uint32{0, 0x7F, 0x80, 0xD7FF, 0xE000, 0x10FFFF}, []uint32{0xD800, 0xDFFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seqs, ok := e.EncodeRange(tt.lo, tt.hi)
			if !ok {
				t.Fatal("EncodeRange failed")
			}
			for _, c := range tt.in {
				if !matches(seqs, encode(c)) {
					t.Errorf("U+%04X not matched by exactly one fragment", c)
				}
			}
			for _, c := range tt.out {
				if matches(seqs, encode(c)) {
					t.Errorf("U+%04X matched, want no match", c)
				}
			}
		})
	}
}

func TestEncodeRangeUTF16(t *testing.T) {
	var e Enc
	e.Set(UTF16)

	encode := func(c uint32) []uint32 {
		if c < 0x10000 {
			return []uint32{c}
		}
		c -= 0x10000
		return []uint32{0xD800 + c>>10, 0xDC00 + c&0x3FF}
	}

	seqs, ok := e.EncodeRange(0x10000, 0x10FFFF)
	if !ok {
		t.Fatal("EncodeRange failed")
	}
	for _, c := range []uint32{0x10000, 0x103FF, 0x10400, 0xE0000, 0x10FFFF} {
		if !matches(seqs, encode(c)) {
			t.Errorf("U+%04X not matched by exactly one pair fragment", c)
		}
	}
	if matches(seqs, []uint32{0xFFFF}) {
		t.Error("BMP point matched by supplementary expansion")
	}

	// A range straddling the BMP boundary yields both single-word and
	// pair fragments.
	seqs, _ = e.EncodeRange(0xE000, 0x10010)
	if !matches(seqs, encode(0xFFFF)) || !matches(seqs, encode(0x10008)) {
		t.Error("straddling range lost one side of the boundary")
	}
}

func TestEncodeRangePolicies(t *testing.T) {
	var e Enc
	e.Set(UTF32)

	// Ignore: the surrogate gap is cut out.
	seqs, ok := e.EncodeRange(0xD000, 0xE100)
	if !ok {
		t.Fatal("EncodeRange failed")
	}
	if got := flatten(seqs); !got.Equal(ranges.Set{{Lo: 0xD000, Hi: 0xD800}, {Lo: 0xE000, Hi: 0xE101}}) {
		t.Errorf("PolicyIgnore: coverage = %v", got)
	}

	// Fail: any invalid point rejects the range.
	e.SetPolicy(PolicyFail)
	if _, ok := e.EncodeRange(0xD000, 0xE100); ok {
		t.Error("PolicyFail: EncodeRange over the surrogate gap succeeded")
	}

	// Substitute: the gap is replaced with U+FFFD.
	e.SetPolicy(PolicySubstitute)
	seqs, ok = e.EncodeRange(0xD000, 0xE100)
	if !ok {
		t.Fatal("EncodeRange failed")
	}
	if got := flatten(seqs); !got.Contains(0xFFFD) {
		t.Errorf("PolicySubstitute: coverage %v misses U+FFFD", got)
	}
}
