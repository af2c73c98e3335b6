package zstring

import (
	"encoding/binary"
	"testing"

	"zmrun/zcore"
)

// minimalStory builds a byte image large enough to hold a V3 header plus a
// little scratch space for dynamic-memory fixtures, following the "Minimal
// V3 story" layout from spec.md 8 (static_base=0x4EB, high_base=0x510).
func minimalStory(t *testing.T, version uint8) []uint8 {
	t.Helper()
	raw := make([]uint8, 0x700)
	raw[0x00] = version
	binary.BigEndian.PutUint16(raw[0x04:0x06], 0x510) // high memory base
	binary.BigEndian.PutUint16(raw[0x0e:0x10], 0x4eb) // static memory base
	binary.BigEndian.PutUint16(raw[0x18:0x1a], 0x600) // abbreviation table base
	return raw
}

func newTestDecoder(t *testing.T, raw []uint8) *Decoder {
	t.Helper()
	mem, err := zcore.NewMemory(raw)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	dec, err := NewDecoder(mem)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	return dec
}

// putZString packs the given Z-characters (already including any shift
// codes) into successive 16-bit words at address, setting the end-of-string
// bit on the last word.
func putZString(raw []uint8, address uint32, zchars []uint8) {
	for len(zchars)%3 != 0 {
		zchars = append(zchars, 5)
	}
	for i := 0; i < len(zchars); i += 3 {
		word := uint16(zchars[i])<<10 | uint16(zchars[i+1])<<5 | uint16(zchars[i+2])
		if i+3 >= len(zchars) {
			word |= 0x8000
		}
		binary.BigEndian.PutUint16(raw[address+uint32(i/3)*2:], word)
	}
}

func TestDecodeSimpleLowercase(t *testing.T) {
	raw := minimalStory(t, 3)
	// "cab" in A0: c=8, a=6, b=7 (a0 index+6).
	putZString(raw, 0x300, []uint8{8, 6, 7})
	dec := newTestDecoder(t, raw)

	str, bytesRead, err := dec.DecodeString(0x300)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if str != "cab" {
		t.Fatalf("expected %q, got %q", "cab", str)
	}
	if bytesRead != 2 {
		t.Fatalf("expected 2 bytes read, got %d", bytesRead)
	}
}

func TestDecodeShiftToUppercase(t *testing.T) {
	raw := minimalStory(t, 3)
	// Shift (4) then 'A' (index 0 -> zchar 6), then lowercase 'b'.
	putZString(raw, 0x300, []uint8{4, 6, 7})
	dec := newTestDecoder(t, raw)

	str, _, err := dec.DecodeString(0x300)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if str != "Ab" {
		t.Fatalf("expected %q, got %q", "Ab", str)
	}
}

func TestDecodeAbbreviation(t *testing.T) {
	raw := minimalStory(t, 3)

	// Abbreviation 0 (z=1, x=0) expands to "hi".
	hZchr := uint8('h'-'a') + 6
	iZchr := uint8('i'-'a') + 6
	putZString(raw, 0x300, []uint8{hZchr, iZchr})

	binary.BigEndian.PutUint16(raw[0x600:], uint16(0x300/2)) // abbreviation table entry 0

	// Main string: abbreviation escape (z-char 1) selecting entry 0.
	putZString(raw, 0x400, []uint8{1, 0})

	dec := newTestDecoder(t, raw)
	str, _, err := dec.DecodeString(0x400)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if str != "hi" {
		t.Fatalf("expected %q, got %q", "hi", str)
	}
}

func TestDecodeNestedAbbreviationRejected(t *testing.T) {
	raw := minimalStory(t, 3)

	// Abbreviation 0 itself references abbreviation 0 again - must fail.
	putZString(raw, 0x300, []uint8{1, 0})
	binary.BigEndian.PutUint16(raw[0x600:], uint16(0x300/2))
	putZString(raw, 0x400, []uint8{1, 0})

	dec := newTestDecoder(t, raw)
	if _, _, err := dec.DecodeString(0x400); err == nil {
		t.Fatalf("expected nested abbreviation to be rejected")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	raw := minimalStory(t, 3)
	mem, err := zcore.NewMemory(raw)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	alphabets, err := NewAlphabets(mem)
	if err != nil {
		t.Fatalf("NewAlphabets: %v", err)
	}

	words := EncodeWord(mem, alphabets, "xyzzy")
	if len(words) != 2 {
		t.Fatalf("expected 2 words for a v3 dictionary entry, got %d", len(words))
	}

	for i, w := range words {
		binary.BigEndian.PutUint16(raw[0x300+i*2:], w)
	}
	mem2, err := zcore.NewMemory(raw)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	dec, err := NewDecoder(mem2)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	str, _, err := dec.DecodeString(0x300)
	if err != nil {
		t.Fatalf("DecodeString: %v", err)
	}
	if str != "xyzzy" {
		t.Fatalf("expected %q, got %q", "xyzzy", str)
	}
}
