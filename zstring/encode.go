package zstring

import "zmrun/zcore"

// wordCount is the number of Z-characters packed per dictionary word: 2
// 16-bit words (6 Z-chars) for v1-3, 3 words (9 Z-chars) for v4+, per
// spec.md 4.2/4.4. The teacher's tokeniser calls into an Encode the
// retrieved zstring/zstring.go never actually contains, so the
// padding/truncation rule here is taken directly from spec.md and the
// Standard it cites rather than a teacher source.
func wordCount(version uint8) int {
	if version <= 3 {
		return 2
	}
	return 3
}

// EncodeWord encodes text into a dictionary-entry Z-string: truncated or
// padded to exactly wordCount(version)*3 Z-characters (padding with 5, the
// shift-lock code, which also functions as a neutral filler once no more
// real characters remain) and packed into wordCount(version) big-endian
// words with the top bit of the final word set.
func EncodeWord(mem *zcore.Memory, alphabets *Alphabets, text string) []uint16 {
	version := mem.Header.Version
	zchars := encodeZChars(alphabets, text)

	maxChars := wordCount(version) * 3
	if len(zchars) > maxChars {
		zchars = zchars[:maxChars]
	}
	for len(zchars) < maxChars {
		zchars = append(zchars, 5)
	}

	words := make([]uint16, wordCount(version))
	for i := range words {
		words[i] = uint16(zchars[i*3])<<10 | uint16(zchars[i*3+1])<<5 | uint16(zchars[i*3+2])
	}
	words[len(words)-1] |= 0x8000
	return words
}

// encodeZChars converts text to a stream of Z-characters using the
// smallest-cost alphabet shift/lock for each character: A0 needs no shift,
// A1/A2 need one shift character (Z-char 4 or 5) before the real character
// since the encoder never emits a shift-lock, matching the Standard's
// recommendation that encoders prefer single-shifts.
func encodeZChars(alphabets *Alphabets, text string) []uint8 {
	var out []uint8
	for _, r := range text {
		c := uint8(r)
		if alphabet, zchr, ok := alphabets.ZChar(c); ok {
			switch alphabet {
			case A0:
				out = append(out, zchr)
			case A1:
				out = append(out, 4, zchr)
			case A2:
				out = append(out, 5, zchr)
			}
			continue
		}
		if c == ' ' {
			out = append(out, 0)
			continue
		}
		// Characters outside every alphabet and not a space fall back to
		// the 10-bit ZSCII escape (Z-char 6 in A2) per spec.md 4.2.
		out = append(out, 5, 6, uint8(c>>5), c&0b11111)
	}
	return out
}
