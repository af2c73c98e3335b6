package zdictionary

import (
	"bytes"
	"sort"

	"zmrun/zcore"
)

// Header is the dictionary's fixed preamble: the input-code (word
// separator) table, the entry length, and the entry count. Grounded on the
// teacher's dictionary/dictionary.go:DictionaryHeader.
type Header struct {
	InputCodes  []uint8
	EntryLength uint8
	EntryCount  int16
}

// Entry is one parsed dictionary entry: its address (for a tokenised
// word's dictionary-word slot), its encoded Z-string bytes (used for
// comparison during lookup), and any interpreter/game data bytes that
// follow the encoded word.
type Entry struct {
	Address     uint32
	EncodedWord []uint8
	Data        []uint8
}

// Dictionary is the parsed dictionary table rooted at the header's
// DictionaryBase.
type Dictionary struct {
	Header  Header
	Entries []Entry
	sorted  bool
}

// Parse reads the dictionary table from mem, per spec.md 4.4.
func Parse(mem *zcore.Memory) (*Dictionary, error) {
	base := uint32(mem.Header.DictionaryBase)

	numInputCodes, err := mem.ReadByte(base)
	if err != nil {
		return nil, err
	}
	inputCodes, err := mem.ReadSlice(base+1, uint32(numInputCodes))
	if err != nil {
		return nil, err
	}
	entryLength, err := mem.ReadByte(base + 1 + uint32(numInputCodes))
	if err != nil {
		return nil, err
	}
	rawCount, err := mem.ReadWord(base + 2 + uint32(numInputCodes))
	if err != nil {
		return nil, err
	}
	count := int16(rawCount)

	header := Header{
		InputCodes:  append([]uint8(nil), inputCodes...),
		EntryLength: entryLength,
		EntryCount:  count,
	}

	entryPtr := base + 4 + uint32(numInputCodes)
	absCount := int(count)
	if absCount < 0 {
		absCount = -absCount
	}

	encodedWordLength := uint32(4)
	if mem.Header.Version > 3 {
		encodedWordLength = 6
	}

	entries := make([]Entry, absCount)
	for i := 0; i < absCount; i++ {
		encodedWord, err := mem.ReadSlice(entryPtr, encodedWordLength)
		if err != nil {
			return nil, err
		}
		var data []uint8
		if uint32(entryLength) > encodedWordLength {
			data, err = mem.ReadSlice(entryPtr+encodedWordLength, uint32(entryLength)-encodedWordLength)
			if err != nil {
				return nil, err
			}
		}
		entries[i] = Entry{
			Address:     entryPtr,
			EncodedWord: append([]uint8(nil), encodedWord...),
			Data:        append([]uint8(nil), data...),
		}
		entryPtr += uint32(entryLength)
	}

	return &Dictionary{Header: header, Entries: entries, sorted: count > 0}, nil
}

// Find looks up encodedWord (the packed Z-characters of a tokenised word,
// truncated/padded the same way EncodeWord produces them) and returns its
// dictionary address, or 0 if the word isn't in the dictionary.
//
// The teacher's Find is always a linear scan regardless of the sign of
// count; spec.md 4.4 calls for binary search when count > 0 (entries sorted
// ascending by encoded word) and linear scan when count < 0 (unsorted).
func (d *Dictionary) Find(encodedWord []uint8) uint16 {
	if d.sorted {
		i := sort.Search(len(d.Entries), func(i int) bool {
			return bytes.Compare(d.Entries[i].EncodedWord, encodedWord) >= 0
		})
		if i < len(d.Entries) && bytes.Equal(d.Entries[i].EncodedWord, encodedWord) {
			return uint16(d.Entries[i].Address)
		}
		return 0
	}

	for _, entry := range d.Entries {
		if bytes.Equal(entry.EncodedWord, encodedWord) {
			return uint16(entry.Address)
		}
	}
	return 0
}
