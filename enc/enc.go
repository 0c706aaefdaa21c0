// Package enc maps abstract code points to sequences of code units for the
// supported encodings.
//
// Each encoding defines two concepts:
//
//  1. Code point: an abstract number representing a single symbol. Unicode
//     defines 0x110000 code points, so each Unicode encoding must be able to
//     represent all of them.
//
//  2. Code unit: the smallest unit of memory used in the encoded text. One
//     or more code units represent a single code point, depending on the
//     encoding (fixed-length vs variable-length).
//
//     encoding | #code points | code point size | #code units | code unit size
//     ---------|--------------|-----------------|-------------|---------------
//     ASCII    | 0x100        | fixed, 1 byte   | 0x100       | 1 byte
//     EBCDIC   | 0x100        | fixed, 1 byte   | 0x100       | 1 byte
//     UCS-2    | 0x10000      | fixed, 2 bytes  | 0x10000     | 2 bytes
//     UTF-16   | 0x110000     | var, 2-4 bytes  | 0x10000     | 2 bytes
//     UTF-32   | 0x110000     | fixed, 4 bytes  | 0x110000    | 4 bytes
//     UTF-8    | 0x110000     | var, 1-4 bytes  | 0x100       | 1 byte
package enc

import "github.com/raedwulf/sre2c/ranges"

// Type identifies a supported encoding.
type Type uint8

const (
	ASCII Type = iota
	EBCDIC
	UCS2
	UTF16
	UTF32
	UTF8
)

// String returns the conventional name of the encoding.
func (t Type) String() string {
	switch t {
	case ASCII:
		return "ASCII"
	case EBCDIC:
		return "EBCDIC"
	case UCS2:
		return "UCS-2"
	case UTF16:
		return "UTF-16"
	case UTF32:
		return "UTF-32"
	case UTF8:
		return "UTF-8"
	default:
		return "unknown"
	}
}

// Policy selects what happens to code points that are invalid for the
// configured encoding (surrogates in Unicode encodings, points above 0xFF
// in the byte encodings).
type Policy uint8

const (
	// PolicyIgnore silently drops invalid code points from the class
	// being constructed.
	PolicyIgnore Policy = iota

	// PolicySubstitute replaces an invalid code point with the encoding's
	// error symbol: U+FFFD for the Unicode encodings, 0x1A (SUB) for the
	// byte encodings.
	PolicySubstitute

	// PolicyFail rejects the specification at compile time.
	PolicyFail
)

const (
	surrMin = 0xD800
	surrMax = 0xDFFF

	// unicodeError is the substitution symbol for Unicode encodings.
	unicodeError = 0xFFFD

	// byteError is the substitution symbol for ASCII and EBCDIC (SUB).
	byteError = 0x1A
)

// Enc is an encoding selection plus an invalid-code-point policy.
// The zero value is ASCII with PolicyIgnore.
type Enc struct {
	typ    Type
	policy Policy
}

// Type returns the selected encoding.
func (e Enc) Type() Type { return e.typ }

// Policy returns the invalid-code-point policy.
func (e Enc) Policy() Policy { return e.policy }

// Is returns true if the selected encoding is t.
func (e Enc) Is(t Type) bool { return e.typ == t }

// Set selects encoding t. The selection latches: it succeeds while the
// encoding is still the ASCII default (or already t), and fails once a
// different encoding has been selected.
func (e *Enc) Set(t Type) bool {
	switch {
	case e.typ == t:
		return true
	case e.typ != ASCII:
		return false
	default:
		e.typ = t
		return true
	}
}

// Unset reverts to the ASCII default if the current encoding is t.
func (e *Enc) Unset(t Type) {
	if e.typ == t {
		e.typ = ASCII
	}
}

// SetPolicy selects the invalid-code-point policy.
func (e *Enc) SetPolicy(p Policy) { e.policy = p }

// NCodePoints returns the number of code points of the encoding.
func (e Enc) NCodePoints() uint32 {
	switch e.typ {
	case ASCII, EBCDIC:
		return 0x100
	case UCS2:
		return 0x10000
	default:
		return 0x110000
	}
}

// NCodeUnits returns the number of distinct code units of the encoding.
func (e Enc) NCodeUnits() uint32 {
	switch e.typ {
	case ASCII, EBCDIC, UTF8:
		return 0x100
	case UCS2, UTF16:
		return 0x10000
	default:
		return 0x110000
	}
}

// SzCodeUnit returns the size of one code unit in bytes.
func (e Enc) SzCodeUnit() uint32 {
	switch e.typ {
	case ASCII, EBCDIC, UTF8:
		return 1
	case UCS2, UTF16:
		return 2
	default:
		return 4
	}
}

// SzCodePointMax returns the maximal encoded size of one code point in bytes.
func (e Enc) SzCodePointMax() uint32 {
	switch e.typ {
	case ASCII, EBCDIC:
		return 1
	case UCS2:
		return 2
	default:
		return 4
	}
}

// errorPoint returns the substitution code point for the encoding.
func (e Enc) errorPoint() uint32 {
	if e.typ == ASCII || e.typ == EBCDIC {
		return byteError
	}
	return unicodeError
}

// valid returns true if c is a representable code point of the encoding.
func (e Enc) valid(c uint32) bool {
	if c >= e.NCodePoints() {
		return false
	}
	switch e.typ {
	case UCS2, UTF16, UTF32, UTF8:
		return c < surrMin || c > surrMax
	default:
		return true
	}
}

// Encode normalizes a single code point into the encoding's code unit
// space. For EBCDIC the point is converted through the conversion table;
// for the other encodings valid points pass through unchanged.
//
// An invalid code point is replaced by the encoding's error symbol under
// PolicySubstitute. Under PolicyFail and PolicyIgnore, Encode returns
// false; the caller distinguishes the two (report vs drop).
func (e Enc) Encode(c *uint32) bool {
	if !e.valid(*c) {
		if e.policy != PolicySubstitute {
			return false
		}
		*c = e.errorPoint()
	}
	if e.typ == EBCDIC {
		*c = asc2ebc[*c]
	}
	return true
}

// DecodeUnsafe is the inverse of Encode for single-unit code points. It is
// meaningful only where the code unit identifies the code point directly
// (the fixed encodings, and lead units of the variable ones are not
// handled here).
func (e Enc) DecodeUnsafe(cu uint32) uint32 {
	if e.typ == EBCDIC {
		return ebc2asc[cu&0xFF]
	}
	return cu
}

// FullRange returns the range set covering the entire code-unit alphabet.
func (e Enc) FullRange() ranges.Set {
	return ranges.New(0, e.NCodeUnits())
}
