package enc

import "golang.org/x/text/encoding/charmap"

// Conversion tables between the ASCII (Latin-1) and EBCDIC byte spaces.
// Derived from the IBM code page 037 charmap; every EBCDIC byte decodes to
// a code point below 0x100, so the mapping is a byte permutation.
var (
	asc2ebc [256]uint32
	ebc2asc [256]uint32
)

func init() {
	for i := 0; i < 256; i++ {
		r := charmap.CodePage037.DecodeByte(byte(i))
		ebc2asc[i] = uint32(r)
		asc2ebc[uint32(r)&0xFF] = uint32(i)
	}
}
