package enc

import "github.com/raedwulf/sre2c/ranges"

// Seq is one fragment of an encoded code-point range: a sequence of
// code-unit ranges that are matched in order. Matching one unit from each
// range in turn matches exactly one code point of the fragment.
//
// For the fixed single-unit-per-point encodings every Seq has length one.
// UTF-8 fragments have 1-4 byte ranges, UTF-16 fragments 1-2 word ranges.
type Seq []ranges.Range

// EncodeRange expands the closed code-point range [lo, hi] into a disjoint
// union of code-unit range sequences.
//
// Code points in the range that the encoding cannot represent (the
// surrogate gap in Unicode encodings, points above 0xFF in the byte
// encodings) are handled by the policy: dropped under PolicyIgnore,
// replaced by the error symbol under PolicySubstitute, and rejected under
// PolicyFail, in which case ok is false.
func (e Enc) EncodeRange(lo, hi uint32) (seqs []Seq, ok bool) {
	valid, ok := e.validPoints(lo, hi)
	if !ok {
		return nil, false
	}
	for _, r := range valid {
		seqs = e.appendSeqs(seqs, r.Lo, r.Hi-1)
	}
	return seqs, true
}

// validPoints resolves the policy: it intersects the closed request
// [lo, hi] with the encoding's representable code points and decides what
// to do with the remainder. The result is a canonical half-open set.
func (e Enc) validPoints(lo, hi uint32) (ranges.Set, bool) {
	if lo > hi {
		return nil, true
	}
	// Guard the half-open conversion against wrap-around; anything at or
	// above NCodePoints is invalid regardless of its exact value.
	n := e.NCodePoints()
	clippedHigh := hi >= n
	if clippedHigh {
		hi = n - 1
	}
	req := ranges.New(lo, hi+1)

	valid := req
	switch e.typ {
	case UCS2, UTF16, UTF32, UTF8:
		valid = req.Subtract(ranges.New(surrMin, surrMax+1))
	}

	if clippedHigh || !valid.Equal(req) {
		switch e.policy {
		case PolicyFail:
			return nil, false
		case PolicySubstitute:
			ep := e.errorPoint()
			valid = valid.Add(ep, ep+1)
		}
	}
	return valid, true
}

// appendSeqs appends the code-unit sequences for the closed, fully valid
// code-point range [lo, hi].
func (e Enc) appendSeqs(out []Seq, lo, hi uint32) []Seq {
	switch e.typ {
	case ASCII, UCS2, UTF32:
		return append(out, Seq{{Lo: lo, Hi: hi + 1}})
	case EBCDIC:
		// The conversion table is not order-preserving, so the points are
		// mapped one by one and re-canonicalized as a unit set.
		var units ranges.Set
		for c := lo; c <= hi; c++ {
			u := asc2ebc[c]
			units = units.Add(u, u+1)
		}
		for _, r := range units {
			out = append(out, Seq{r})
		}
		return out
	case UTF16:
		return utf16Seqs(out, lo, hi)
	case UTF8:
		return utf8Seqs(out, lo, hi)
	default:
		return out
	}
}

// utf16Seqs expands the closed code-point range [lo, hi], which contains
// no surrogates, into UTF-16 word sequences. BMP points are single words;
// supplementary points become (high surrogate, low surrogate) pairs, split
// along high-surrogate boundaries.
func utf16Seqs(out []Seq, lo, hi uint32) []Seq {
	if lo < 0x10000 {
		bmpHi := hi
		if bmpHi > 0xFFFF {
			bmpHi = 0xFFFF
		}
		out = append(out, Seq{{Lo: lo, Hi: bmpHi + 1}})
		if hi < 0x10000 {
			return out
		}
		lo = 0x10000
	}

	lo -= 0x10000
	hi -= 0x10000
	loHiSurr, loLoSurr := 0xD800+lo>>10, 0xDC00+lo&0x3FF
	hiHiSurr, hiLoSurr := 0xD800+hi>>10, 0xDC00+hi&0x3FF

	if loHiSurr == hiHiSurr {
		return append(out, Seq{
			{Lo: loHiSurr, Hi: loHiSurr + 1},
			{Lo: loLoSurr, Hi: hiLoSurr + 1},
		})
	}
	out = append(out, Seq{
		{Lo: loHiSurr, Hi: loHiSurr + 1},
		{Lo: loLoSurr, Hi: 0xE000},
	})
	if hiHiSurr > loHiSurr+1 {
		out = append(out, Seq{
			{Lo: loHiSurr + 1, Hi: hiHiSurr},
			{Lo: 0xDC00, Hi: 0xE000},
		})
	}
	return append(out, Seq{
		{Lo: hiHiSurr, Hi: hiHiSurr + 1},
		{Lo: 0xDC00, Hi: hiLoSurr + 1},
	})
}

// utf8Seqs expands the closed code-point range [lo, hi], which contains no
// surrogates, into UTF-8 byte-range sequences. The range is first split at
// the encoded-length boundaries so that both ends of every piece encode to
// the same number of bytes, then each piece is split on its byte prefixes.
func utf8Seqs(out []Seq, lo, hi uint32) []Seq {
	for _, b := range [...]uint32{0x7F, 0x7FF, 0xFFFF} {
		if lo <= b && hi > b {
			out = utf8Seqs(out, lo, b)
			return utf8Seqs(out, b+1, hi)
		}
	}
	var lb, hb [4]byte
	n := encodeUTF8(lb[:], lo)
	encodeUTF8(hb[:], hi)
	return utf8ByteSeqs(out, lb[:n], hb[:n])
}

// utf8ByteSeqs splits the byte-string range [lo, hi] (equal lengths) into
// sequences of byte ranges where every continuation position spans a full
// or aligned [0x80, 0xBF] range.
func utf8ByteSeqs(out []Seq, lo, hi []byte) []Seq {
	n := len(lo)
	if n == 1 {
		return append(out, Seq{byteRange(lo[0], hi[0])})
	}
	if lo[0] == hi[0] {
		for _, s := range utf8ByteSeqs(nil, lo[1:], hi[1:]) {
			out = append(out, prepend(byteRange(lo[0], lo[0]), s))
		}
		return out
	}
	if !allBytes(lo[1:], 0x80) {
		// Peel off the partial first-byte slice of lo, then restart from
		// the next lead byte with a minimal suffix.
		for _, s := range utf8ByteSeqs(nil, lo[1:], contBytes(n-1, 0xBF)) {
			out = append(out, prepend(byteRange(lo[0], lo[0]), s))
		}
		return utf8ByteSeqs(out, prependByte(lo[0]+1, contBytes(n-1, 0x80)), hi)
	}
	if !allBytes(hi[1:], 0xBF) {
		// Split off the partial last-byte slice of hi symmetrically.
		out = utf8ByteSeqs(out, lo, prependByte(hi[0]-1, contBytes(n-1, 0xBF)))
		return utf8ByteSeqs(out, prependByte(hi[0], contBytes(n-1, 0x80)), hi)
	}
	// Both suffixes are full: one sequence covers the whole piece.
	seq := Seq{byteRange(lo[0], hi[0])}
	for i := 1; i < n; i++ {
		seq = append(seq, byteRange(0x80, 0xBF))
	}
	return append(out, seq)
}

func encodeUTF8(dst []byte, c uint32) int {
	switch {
	case c < 0x80:
		dst[0] = byte(c)
		return 1
	case c < 0x800:
		dst[0] = 0xC0 | byte(c>>6)
		dst[1] = 0x80 | byte(c&0x3F)
		return 2
	case c < 0x10000:
		dst[0] = 0xE0 | byte(c>>12)
		dst[1] = 0x80 | byte(c>>6&0x3F)
		dst[2] = 0x80 | byte(c&0x3F)
		return 3
	default:
		dst[0] = 0xF0 | byte(c>>18)
		dst[1] = 0x80 | byte(c>>12&0x3F)
		dst[2] = 0x80 | byte(c>>6&0x3F)
		dst[3] = 0x80 | byte(c&0x3F)
		return 4
	}
}

// byteRange converts the closed byte range [lo, hi] to a half-open
// code-unit range.
func byteRange(lo, hi byte) ranges.Range {
	return ranges.Range{Lo: uint32(lo), Hi: uint32(hi) + 1}
}

func allBytes(b []byte, v byte) bool {
	for _, c := range b {
		if c != v {
			return false
		}
	}
	return true
}

func contBytes(n int, v byte) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}

func prependByte(lead byte, rest []byte) []byte {
	return append([]byte{lead}, rest...)
}

func prepend(r ranges.Range, s Seq) Seq {
	return append(Seq{r}, s...)
}
