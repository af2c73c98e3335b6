package zstring

import "zmrun/zcore"

// Alphabet selects one of the three 26-entry Z-character tables.
type Alphabet int

const (
	A0 Alphabet = 0
	A1 Alphabet = 1
	A2 Alphabet = 2
)

var a0Default = [26]uint8{'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z'}
var a1Default = [26]uint8{'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H', 'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R', 'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z'}
var a2v1 = [26]uint8{0, '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '<', '-', ':', '(', ')'}
var a2Default = [26]uint8{0, '\n', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9', '.', ',', '!', '?', '_', '#', '\'', '"', '/', '\\', '-', ':', '(', ')'}

// Alphabets is the resolved set of three 26-entry tables a story uses to
// decode/encode Z-characters 6-31. Grounded on the duplicated a0_default/
// a1_default/a2_v1/a2_v2_default tables in the teacher's zstring/zstring.go,
// consolidated into one manager that also loads the V5+ custom table from
// header.AlternativeCharSetBaseAddress - left as
// `panic("TODO - Handle custom alphabets")` in the teacher.
type Alphabets struct {
	version uint8
	a0      [26]uint8
	a1      [26]uint8
	a2      [26]uint8
}

// NewAlphabets resolves the alphabet tables for mem's version and header.
// V5+ stories may supply a custom 78-byte table (26 bytes per alphabet,
// slot 0 of A2 still reserved as the 10-bit ZSCII escape) via
// AlternativeCharSetBaseAddress; all earlier versions use the fixed tables.
func NewAlphabets(mem *zcore.Memory) (*Alphabets, error) {
	alpha := &Alphabets{version: mem.Header.Version, a0: a0Default, a1: a1Default}
	if mem.Header.Version == 1 {
		alpha.a2 = a2v1
	} else {
		alpha.a2 = a2Default
	}

	if mem.Header.Version >= 5 && mem.Header.AlternativeCharSetBaseAddress != 0 {
		table, err := mem.ReadSlice(uint32(mem.Header.AlternativeCharSetBaseAddress), 78)
		if err != nil {
			return nil, err
		}
		copy(alpha.a0[:], table[0:26])
		copy(alpha.a1[:], table[26:52])
		copy(alpha.a2[:], table[52:78])
		// Slot 0 of A2 is always the ZSCII escape regardless of the custom
		// table's contents, per the Standard.
		alpha.a2[0] = 0
	}

	return alpha, nil
}

// Char returns the ZSCII character for z-character value zchr (6-31) in the
// given alphabet.
func (a *Alphabets) Char(alphabet Alphabet, zchr uint8) uint8 {
	idx := zchr - 6
	switch alphabet {
	case A0:
		return a.a0[idx]
	case A1:
		return a.a1[idx]
	default:
		return a.a2[idx]
	}
}

// ZChar returns the z-character value (6-31) and alphabet that encode the
// given ZSCII character, if any of the three tables contain it. A2 is
// checked last since a1/a0 are more common and slot 0 of A2 never encodes
// a printable character.
func (a *Alphabets) ZChar(c uint8) (alphabet Alphabet, zchr uint8, ok bool) {
	for i, v := range a.a0 {
		if v == c {
			return A0, uint8(i) + 6, true
		}
	}
	for i, v := range a.a1 {
		if v == c {
			return A1, uint8(i) + 6, true
		}
	}
	for i, v := range a.a2 {
		if i == 0 {
			continue
		}
		if v == c {
			return A2, uint8(i) + 6, true
		}
	}
	return 0, 0, false
}
