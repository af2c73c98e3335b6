package ztable

import "zmrun/zcore"

// PrintTable renders a text table (print_table), wrapping at width columns
// for height rows and skipping skip bytes between rows. Grounded on the
// teacher's ztable/ztable.go:PrintTable, adapted to read through
// *zcore.Memory instead of a raw byte slice.
func PrintTable(mem *zcore.Memory, baddr uint32, width uint16, height uint16, skip uint16) (string, error) {
	numBytes := width * height

	var out []byte
	for i := uint16(0); i < numBytes; i++ {
		row := i / width
		col := i % width

		if col == 0 && row != 0 {
			out = append(out, '\n')
			if row == height {
				break
			}
		}

		b, err := mem.ReadByte(baddr + uint32(i) + uint32(skip*row))
		if err != nil {
			return "", err
		}
		out = append(out, b)
	}

	return string(out), nil
}

// ScanTable implements scan_table: linear search for test over length
// entries of fieldSize bytes (field 1 or 2 bytes, per form's low 7 bits;
// bit 7 of form selects word comparison). Returns the address of the first
// matching entry, or 0 if none match.
func ScanTable(mem *zcore.Memory, test uint16, baddr uint32, length uint16, form uint16) (uint32, error) {
	fieldSize := form & 0b0111_1111
	checkWord := form&0b1000_0000 == 0b1000_0000
	if fieldSize == 0 {
		return 0, nil
	}

	ptr := baddr
	for i := uint16(0); i < length; i++ {
		if checkWord {
			word, err := mem.ReadWord(ptr)
			if err != nil {
				return 0, err
			}
			if word == test {
				return ptr, nil
			}
		} else {
			b, err := mem.ReadByte(ptr)
			if err != nil {
				return 0, err
			}
			if uint16(b) == test {
				return ptr, nil
			}
		}
		ptr += uint32(fieldSize)
	}

	return 0, nil
}

// CopyTable implements copy_table: a positive size copies first->second
// preserving first's original contents even if the ranges overlap
// (snapshotting to a temporary buffer first); a negative size forces a
// forward byte-by-byte copy, allowing mid-copy corruption the Standard
// permits for that case; second == 0 zero-fills first instead of copying.
func CopyTable(mem *zcore.Memory, first uint32, second uint32, size int16) error {
	sizeAbs := uint32(size)
	if size < 0 {
		sizeAbs = uint32(-int32(size))
	}

	if second == 0 {
		for i := uint32(0); i < sizeAbs; i++ {
			if err := mem.WriteByte(first+i, 0); err != nil {
				return err
			}
		}
		return nil
	}

	if size >= 0 {
		tmp, err := mem.ReadSlice(first, sizeAbs)
		if err != nil {
			return err
		}
		snapshot := append([]uint8(nil), tmp...)
		for i := uint32(0); i < sizeAbs; i++ {
			if err := mem.WriteByte(second+i, snapshot[i]); err != nil {
				return err
			}
		}
		return nil
	}

	for i := uint32(0); i < sizeAbs; i++ {
		b, err := mem.ReadByte(first + i)
		if err != nil {
			return err
		}
		if err := mem.WriteByte(second+i, b); err != nil {
			return err
		}
	}
	return nil
}
