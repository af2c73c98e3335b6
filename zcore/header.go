package zcore

import "encoding/binary"

// Header is the parsed first 64 (v1-5) or 128 (v6+) bytes of a story file.
// Field names follow the teacher's zcore.Core, split out from the mutable
// byte image so it can be validated before a Memory is ever constructed.
type Header struct {
	Version                          uint8
	FlagByte1                        uint8
	StatusBarTimeBased               bool
	ReleaseNumber                    uint16
	HighMemoryBase                   uint16
	FirstInstruction                 uint16
	DictionaryBase                   uint16
	ObjectTableBase                  uint16
	GlobalVariableBase               uint16
	StaticMemoryBase                 uint16
	AbbreviationTableBase            uint16
	FileLengthWords                  uint16
	FileChecksum                     uint16
	InterpreterNumber                uint8
	InterpreterVersion               uint8
	ScreenHeightLines                uint8
	ScreenWidthChars                 uint8
	ScreenWidthUnits                 uint16
	ScreenHeightUnits                uint16
	FontHeight                       uint8
	FontWidth                        uint8
	RoutinesOffset                   uint16
	StringOffset                     uint16
	DefaultBackgroundColorNumber     uint8
	DefaultForegroundColorNumber     uint8
	TerminatingCharTableBase         uint16
	OutputStream3Width               uint16
	StandardRevisionNumber           uint16
	AlternativeCharSetBaseAddress    uint16
	HeaderExtensionTableBase         uint16
	PlayerLoginName                  [8]uint8
	UnicodeExtensionTableBaseAddress uint16
}

// HeaderSize is the number of header bytes required for the given version,
// per spec.md 4.1: 64 bytes for v1-5 (only the first 64 are defined pre-v5 but
// the standard reserves 64), 128 for v6+ where the header extension table and
// V6/V7 routine/string offsets live past byte 64.
func HeaderSize(version uint8) int {
	if version >= 6 {
		return 128
	}
	return 64
}

// ParseHeader validates and extracts the header fields from a raw story
// image. It never mutates bytes. Validation follows spec.md 4.1's rules;
// every failure here is a LoadError since the whole image is unusable.
func ParseHeader(bytes []uint8) (Header, error) {
	if len(bytes) < 64 {
		return Header{}, &LoadError{Reason: "file shorter than minimum header size (64 bytes)"}
	}

	version := bytes[0x00]
	if version < 1 || version > 8 {
		return Header{}, &LoadError{Reason: "unsupported version byte"}
	}

	if len(bytes) < HeaderSize(version) {
		return Header{}, &LoadError{Reason: "file shorter than header size required for this version"}
	}

	staticBase := binary.BigEndian.Uint16(bytes[0x0e:0x10])
	highBase := binary.BigEndian.Uint16(bytes[0x04:0x06])

	if staticBase < 64 {
		return Header{}, &LoadError{Reason: "static memory base below header region"}
	}
	if highBase < staticBase {
		return Header{}, &LoadError{Reason: "high memory base below static memory base"}
	}

	h := Header{
		Version:               version,
		FlagByte1:             bytes[0x01],
		StatusBarTimeBased:    bytes[0x01]&0b0000_0010 == 0b0000_0010,
		ReleaseNumber:         binary.BigEndian.Uint16(bytes[0x02:0x04]),
		HighMemoryBase:        highBase,
		FirstInstruction:      binary.BigEndian.Uint16(bytes[0x06:0x08]),
		DictionaryBase:        binary.BigEndian.Uint16(bytes[0x08:0x0a]),
		ObjectTableBase:       binary.BigEndian.Uint16(bytes[0x0a:0x0c]),
		GlobalVariableBase:    binary.BigEndian.Uint16(bytes[0x0c:0x0e]),
		StaticMemoryBase:      staticBase,
		AbbreviationTableBase: binary.BigEndian.Uint16(bytes[0x18:0x1a]),
		FileLengthWords:       binary.BigEndian.Uint16(bytes[0x1a:0x1c]),
		FileChecksum:          binary.BigEndian.Uint16(bytes[0x1c:0x1e]),
		InterpreterNumber:     bytes[0x1e],
		InterpreterVersion:    bytes[0x1f],
		ScreenHeightLines:     bytes[0x20],
		ScreenWidthChars:      bytes[0x21],
		ScreenWidthUnits:      binary.BigEndian.Uint16(bytes[0x22:0x24]),
		ScreenHeightUnits:     binary.BigEndian.Uint16(bytes[0x24:0x26]),
		FontHeight:            bytes[0x26],
		FontWidth:             bytes[0x27],
	}

	if len(bytes) >= 0x2c {
		h.RoutinesOffset = binary.BigEndian.Uint16(bytes[0x28:0x2a])
		h.StringOffset = binary.BigEndian.Uint16(bytes[0x2a:0x2c])
	}
	if len(bytes) >= 0x2e {
		h.DefaultBackgroundColorNumber = bytes[0x2c]
		h.DefaultForegroundColorNumber = bytes[0x2d]
	}
	if len(bytes) >= 0x30 {
		h.TerminatingCharTableBase = binary.BigEndian.Uint16(bytes[0x2e:0x30])
	}
	if len(bytes) >= 0x32 {
		h.OutputStream3Width = binary.BigEndian.Uint16(bytes[0x30:0x32])
	}
	if len(bytes) >= 0x34 {
		h.StandardRevisionNumber = binary.BigEndian.Uint16(bytes[0x32:0x34])
	}
	if len(bytes) >= 0x36 {
		h.AlternativeCharSetBaseAddress = binary.BigEndian.Uint16(bytes[0x34:0x36])
	}
	if len(bytes) >= 0x38 {
		h.HeaderExtensionTableBase = binary.BigEndian.Uint16(bytes[0x36:0x38])
	}
	if len(bytes) >= 0x40 {
		copy(h.PlayerLoginName[:], bytes[0x38:0x40])
	}

	if version == 6 || version == 7 {
		if h.RoutinesOffset == 0 || h.StringOffset == 0 {
			return Header{}, &LoadError{Reason: "v6/v7 story requires non-zero routine and string offsets"}
		}
	}

	if h.HeaderExtensionTableBase != 0 {
		if int(h.HeaderExtensionTableBase)+2 > len(bytes) {
			return Header{}, &LoadError{Reason: "header extension table base out of bounds"}
		}
		entryCount := binary.BigEndian.Uint16(bytes[h.HeaderExtensionTableBase : h.HeaderExtensionTableBase+2])
		tableEnd := int(h.HeaderExtensionTableBase) + 2 + int(entryCount)*2
		if tableEnd > len(bytes) {
			return Header{}, &LoadError{Reason: "header extension table entries out of bounds"}
		}
		if entryCount >= 3 {
			unicodeOffset := h.HeaderExtensionTableBase + 2 + 3*2
			if int(unicodeOffset)+2 <= len(bytes) {
				h.UnicodeExtensionTableBaseAddress = binary.BigEndian.Uint16(bytes[unicodeOffset : unicodeOffset+2])
			}
		}
	}

	fileLength := h.FileLength()
	if fileLength != 0 && int(fileLength) > len(bytes) {
		return Header{}, &LoadError{Reason: "declared file length exceeds actual file size"}
	}

	return h, nil
}

// FileLength is the declared length of the story file, scaled by the
// per-version divisor (spec.md 3).
func (h *Header) FileLength() uint32 {
	var multiplier uint32
	switch {
	case h.Version <= 3:
		multiplier = 2
	case h.Version <= 5:
		multiplier = 4
	default:
		multiplier = 8
	}
	return uint32(h.FileLengthWords) * multiplier
}

// MaxStorySize is the maximum legal story file size for the version,
// per spec.md 3.
func MaxStorySize(version uint8) uint32 {
	switch {
	case version <= 3:
		return 128 * 1024
	case version <= 5:
		return 256 * 1024
	default:
		return 512 * 1024
	}
}
