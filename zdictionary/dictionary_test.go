package zdictionary_test

import (
	"encoding/binary"
	"testing"

	"zmrun/zcore"
	"zmrun/zdictionary"
)

// buildDictionary lays out a V3 dictionary with three sorted 4-byte encoded
// words at dictionary base 0x100.
func buildDictionary(t *testing.T, sorted bool) []uint8 {
	t.Helper()
	raw := make([]uint8, 0x400)
	raw[0x00] = 3
	binary.BigEndian.PutUint16(raw[0x04:0x06], 0x300)
	binary.BigEndian.PutUint16(raw[0x08:0x0a], 0x100) // dictionary base
	binary.BigEndian.PutUint16(raw[0x0e:0x10], 0x200)

	base := 0x100
	raw[base] = 3                 // 3 input codes
	raw[base+1] = ' '
	raw[base+2] = ','
	raw[base+3] = '.'
	raw[base+4] = 6 // entry length
	count := int16(3)
	if !sorted {
		count = -3
	}
	binary.BigEndian.PutUint16(raw[base+5:base+7], uint16(count))

	entryPtr := base + 7
	words := [][4]byte{
		{0x01, 0x02, 0x03, 0x04},
		{0x02, 0x00, 0x00, 0x00},
		{0x05, 0x00, 0x00, 0x00},
	}
	if !sorted {
		words = [][4]byte{
			{0x05, 0x00, 0x00, 0x00},
			{0x01, 0x02, 0x03, 0x04},
			{0x02, 0x00, 0x00, 0x00},
		}
	}
	for _, w := range words {
		copy(raw[entryPtr:entryPtr+4], w[:])
		entryPtr += 6
	}

	return raw
}

func TestFindSorted(t *testing.T) {
	raw := buildDictionary(t, true)
	mem, err := zcore.NewMemory(raw)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	dict, err := zdictionary.Parse(mem)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	addr := dict.Find([]uint8{0x02, 0x00, 0x00, 0x00})
	if addr == 0 {
		t.Fatal("expected to find entry")
	}

	if dict.Find([]uint8{0x09, 0x00, 0x00, 0x00}) != 0 {
		t.Fatal("expected missing word to return 0")
	}
}

func TestFindUnsorted(t *testing.T) {
	raw := buildDictionary(t, false)
	mem, err := zcore.NewMemory(raw)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	dict, err := zdictionary.Parse(mem)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	addr := dict.Find([]uint8{0x01, 0x02, 0x03, 0x04})
	if addr == 0 {
		t.Fatal("expected to find entry")
	}
}
