package zstring

import "zmrun/zcore"

// Decoder turns packed Z-character streams into text. Grounded on the
// teacher's zstring/zstring.go:ReadZString shift/lock state machine, but
// completes the two `panic("TODO - Abbreviations not handled")` branches and
// the V5+ 10-bit ZSCII escape that the teacher leaves unimplemented.
type Decoder struct {
	Memory                *zcore.Memory
	Alphabets             *Alphabets
	AbbreviationTableBase uint16
}

// NewDecoder builds a Decoder for mem, resolving its alphabet tables.
func NewDecoder(mem *zcore.Memory) (*Decoder, error) {
	alphabets, err := NewAlphabets(mem)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		Memory:                mem,
		Alphabets:             alphabets,
		AbbreviationTableBase: mem.Header.AbbreviationTableBase,
	}, nil
}

// DecodeString decodes the Z-string starting at address, returning the
// decoded text and the number of bytes it occupied in memory (always a
// multiple of 2).
func (d *Decoder) DecodeString(address uint32) (string, uint32, error) {
	return d.decode(address, 0)
}

func (d *Decoder) decode(address uint32, depth int) (string, uint32, error) {
	version := d.Memory.Header.Version

	var zchrStream []uint8
	ptr := address
	var bytesRead uint32

	for {
		halfWord, err := d.Memory.ReadWord(ptr)
		if err != nil {
			return "", 0, err
		}
		ptr += 2
		bytesRead += 2

		isLast := (halfWord >> 15) == 1
		zchrStream = append(zchrStream, uint8((halfWord>>10)&0b11111))
		zchrStream = append(zchrStream, uint8((halfWord>>5)&0b11111))
		zchrStream = append(zchrStream, uint8(halfWord&0b11111))

		if isLast {
			break
		}
	}

	var out []rune
	baseAlphabet := A0
	currentAlphabet := A0
	nextAlphabet := A0

	for i := 0; i < len(zchrStream); i++ {
		zchr := zchrStream[i]
		currentAlphabet = nextAlphabet
		nextAlphabet = baseAlphabet

		switch zchr {
		case 0:
			out = append(out, ' ')
			continue
		case 1:
			if version == 1 {
				out = append(out, '\n')
				continue
			}
			// Abbreviation escape in v2+: next z-char selects the entry.
			if i+1 >= len(zchrStream) {
				return "", 0, &AbbreviationDepthError{Address: address}
			}
			text, err := d.expandAbbreviation(1, zchrStream[i+1], depth, address)
			if err != nil {
				return "", 0, err
			}
			out = append(out, []rune(text)...)
			i++
			continue
		case 2:
			if version >= 3 {
				if i+1 >= len(zchrStream) {
					return "", 0, &AbbreviationDepthError{Address: address}
				}
				text, err := d.expandAbbreviation(2, zchrStream[i+1], depth, address)
				if err != nil {
					return "", 0, err
				}
				out = append(out, []rune(text)...)
				i++
				continue
			}
			nextAlphabet = (nextAlphabet + 1) % 3
			continue
		case 3:
			if version >= 3 {
				if i+1 >= len(zchrStream) {
					return "", 0, &AbbreviationDepthError{Address: address}
				}
				text, err := d.expandAbbreviation(3, zchrStream[i+1], depth, address)
				if err != nil {
					return "", 0, err
				}
				out = append(out, []rune(text)...)
				i++
				continue
			}
			nextAlphabet = (nextAlphabet + 2) % 3
			continue
		case 4:
			if version >= 3 {
				nextAlphabet = (nextAlphabet + 1) % 3
			} else {
				baseAlphabet = (baseAlphabet + 1) % 3
				nextAlphabet = baseAlphabet
			}
			continue
		case 5:
			if version >= 3 {
				nextAlphabet = (nextAlphabet + 2) % 3
			} else {
				baseAlphabet = (baseAlphabet + 2) % 3
				nextAlphabet = baseAlphabet
			}
			continue
		}

		if currentAlphabet == A2 && zchr == 6 {
			if i+2 >= len(zchrStream) {
				return "", 0, &AbbreviationDepthError{Address: address}
			}
			zscii := uint16(zchrStream[i+1])<<5 | uint16(zchrStream[i+2])
			i += 2
			if r, ok := ZsciiToUnicode(d.Memory, uint8(zscii)); ok {
				out = append(out, r)
			} else {
				out = append(out, rune(zscii))
			}
			continue
		}

		out = append(out, rune(d.Alphabets.Char(currentAlphabet, zchr)))
	}

	return string(out), bytesRead, nil
}

// expandAbbreviation resolves and decodes abbreviation (z, x), enforcing the
// Standard's depth-1 recursion limit (an abbreviation string must not itself
// reference another abbreviation). Grounded on the teacher's
// zstring/abbreviations.go:FindAbbreviation address arithmetic, which the
// teacher never actually reaches since ReadZString panics before calling it.
func (d *Decoder) expandAbbreviation(z uint8, x uint8, depth int, callerAddress uint32) (string, error) {
	if depth >= 1 {
		return "", &AbbreviationDepthError{Address: callerAddress}
	}

	abbrIx := uint16(32*(z-1)) + uint16(x)
	entryAddr := uint32(d.AbbreviationTableBase) + 2*uint32(abbrIx)
	wordAddr, err := d.Memory.ReadWord(entryAddr)
	if err != nil {
		return "", err
	}
	strAddr := uint32(wordAddr) * 2

	text, _, err := d.decode(strAddr, depth+1)
	return text, err
}
