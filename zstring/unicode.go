package zstring

import "zmrun/zcore"

// DefaultUnicodeTranslationTable maps Unicode runes to their default ZSCII
// codes 155-223, kept verbatim from the teacher's
// zstring/unicode.go:DefaultUnicodeTranslationTable (the table itself is
// the Standard's fixed default and isn't something to rewrite).
var DefaultUnicodeTranslationTable = map[rune]uint8{
	'ä': 155, 'ö': 156, 'ü': 157, 'Ä': 158, 'Ö': 159, 'Ü': 160, 'ß': 161,
	'»': 162, '«': 163, 'ë': 164, 'ï': 165, 'ÿ': 166, 'Ë': 167, 'Ï': 168,
	'á': 169, 'é': 170, 'í': 171, 'ó': 172, 'ú': 173, 'ý': 174, 'Á': 175,
	'É': 176, 'Í': 177, 'Ó': 178, 'Ú': 179, 'Ý': 180, 'à': 181, 'è': 182,
	'ì': 183, 'ò': 184, 'ù': 185, 'À': 186, 'È': 187, 'Ì': 188, 'Ò': 189,
	'Ù': 190, 'â': 191, 'ê': 192, 'î': 193, 'ô': 194, 'û': 195, 'Â': 196,
	'Ê': 197, 'Î': 198, 'Ô': 199, 'Û': 200, 'å': 201, 'Å': 202, 'ø': 203,
	'Ø': 204, 'ã': 205, 'ñ': 206, 'õ': 207, 'Ã': 208, 'Ñ': 209, 'Õ': 210,
	'æ': 211, 'Æ': 212, 'ç': 213, 'Ç': 214, 'þ': 215, 'ð': 216, 'Þ': 217,
	'Ð': 218, '£': 219, 'œ': 220, 'Œ': 221, '¡': 222, '¿': 223,
}

// UnicodeToZscii translates r into its ZSCII code under mem's translation
// table (the V5+ custom table if the header names one, else the default).
func UnicodeToZscii(mem *zcore.Memory, r rune) (uint8, bool) {
	table, err := unicodeTable(mem)
	if err != nil {
		return 0, false
	}
	zchr, ok := table[r]
	return zchr, ok
}

// ZsciiToUnicode is the inverse of UnicodeToZscii, used by the decoder to
// render a 10-bit ZSCII escape or an extended ZSCII character as a rune.
func ZsciiToUnicode(mem *zcore.Memory, zchr uint8) (rune, bool) {
	table, err := unicodeTable(mem)
	if err != nil {
		table = DefaultUnicodeTranslationTable
	}
	for r, ix := range table {
		if ix == zchr {
			return r, true
		}
	}
	return 0, false
}

func unicodeTable(mem *zcore.Memory) (map[rune]uint8, error) {
	if mem.Header.Version < 5 || mem.Header.UnicodeExtensionTableBaseAddress == 0 {
		return DefaultUnicodeTranslationTable, nil
	}
	return parseUnicodeTranslationTable(mem)
}

// parseUnicodeTranslationTable loads a V5+ custom Unicode translation table,
// per spec.md 4.2. Grounded on the teacher's
// zstring/unicode.go:parseUnicodeTranslationTable.
func parseUnicodeTranslationTable(mem *zcore.Memory) (map[rune]uint8, error) {
	base := uint32(mem.Header.UnicodeExtensionTableBaseAddress)
	count, err := mem.ReadByte(base)
	if err != nil {
		return nil, err
	}

	result := make(map[rune]uint8, count)
	start := base + 1
	for i := 0; i < int(count); i++ {
		word, err := mem.ReadWord(start + uint32(i)*2)
		if err != nil {
			return nil, err
		}
		result[rune(word)] = uint8(155 + i)
	}
	return result, nil
}
