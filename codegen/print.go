package codegen

import (
	"fmt"

	"github.com/raedwulf/sre2c/enc"
)

// hexCU formats a code unit as a hex constant padded to the code unit
// size.
func hexCU(u, szUnit uint32) string {
	switch szUnit {
	case 1:
		return fmt.Sprintf("0x%02X", u)
	case 2:
		return fmt.Sprintf("0x%04X", u)
	default:
		return fmt.Sprintf("0x%08X", u)
	}
}

// chOrHex formats a code unit as a C character constant when it is a
// printable ASCII character, and as a hex constant otherwise. EBCDIC
// output never uses character constants since the unit values do not
// correspond to the source characters.
func chOrHex(u uint32, opts *Opts) string {
	if !opts.Encoding.Is(enc.EBCDIC) && isPrintable(u) {
		switch u {
		case '\'', '\\':
			return fmt.Sprintf("'\\%c'", u)
		default:
			return fmt.Sprintf("'%c'", u)
		}
	}
	return hexCU(u, opts.Encoding.SzCodeUnit())
}

func isPrintable(u uint32) bool {
	return u >= 0x20 && u < 0x7F
}
