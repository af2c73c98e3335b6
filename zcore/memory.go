package zcore

// Memory is the mutable byte image of a running story, split into the
// dynamic, static, and high regions per spec.md 3. Every store goes through
// WriteZByte/WriteHalfWord so protection is enforced in one place, filling
// the teacher's own `// TODO - Lots of the memory is read only, need to add
// validation here` from zcore/core.go.
type Memory struct {
	Header Header
	bytes  []uint8
}

// NewMemory validates the header and wraps the story bytes. The returned
// Memory owns a private copy of bytes so later writes to the caller's slice
// (e.g. the original os.ReadFile buffer) can't alias dynamic memory.
func NewMemory(storyBytes []uint8) (*Memory, error) {
	header, err := ParseHeader(storyBytes)
	if err != nil {
		return nil, err
	}

	max := MaxStorySize(header.Version)
	if uint32(len(storyBytes)) > max {
		return nil, &LoadError{Reason: "story file exceeds the maximum size for its version"}
	}

	owned := make([]uint8, len(storyBytes))
	copy(owned, storyBytes)

	return &Memory{Header: header, bytes: owned}, nil
}

// Len is the size of the memory image in bytes.
func (m *Memory) Len() uint32 {
	return uint32(len(m.bytes))
}

// DynamicEnd is the first address outside dynamic memory (== StaticMemoryBase).
func (m *Memory) DynamicEnd() uint32 {
	return uint32(m.Header.StaticMemoryBase)
}

// StaticEnd is the first address outside static memory. Static memory runs
// from StaticMemoryBase to the lesser of 0xFFFF and the end of the file,
// per spec.md 3.
func (m *Memory) StaticEnd() uint32 {
	end := m.Len()
	if end > 0xffff {
		end = 0xffff
	}
	return end
}

func (m *Memory) checkBounds(address uint32, length uint32) error {
	if address+length > m.Len() {
		return &BoundsError{Address: address, Length: length}
	}
	return nil
}

// ReadByte reads a single byte at address. Any address within the file is
// readable, including high memory (code and strings are read-only but not
// unreadable).
func (m *Memory) ReadByte(address uint32) (uint8, error) {
	if err := m.checkBounds(address, 1); err != nil {
		return 0, err
	}
	return m.bytes[address], nil
}

// ReadWord reads a big-endian 16-bit word at address.
func (m *Memory) ReadWord(address uint32) (uint16, error) {
	if err := m.checkBounds(address, 2); err != nil {
		return 0, err
	}
	return uint16(m.bytes[address])<<8 | uint16(m.bytes[address+1]), nil
}

// ReadSlice returns a read-only view of length bytes starting at address.
// Callers must not mutate the returned slice; use WriteByte/WriteWord or
// CopyWithin for mutation so protection is checked.
func (m *Memory) ReadSlice(address uint32, length uint32) ([]uint8, error) {
	if err := m.checkBounds(address, length); err != nil {
		return nil, err
	}
	return m.bytes[address : address+length], nil
}

// WriteByte writes a single byte at address, after checking bounds and that
// the address falls within dynamic memory.
func (m *Memory) WriteByte(address uint32, value uint8) error {
	if err := m.checkBounds(address, 1); err != nil {
		return err
	}
	if address >= m.DynamicEnd() {
		return &ProtectionError{Address: address}
	}
	m.bytes[address] = value
	return nil
}

// WriteWord writes a big-endian 16-bit word at address, after the same
// bounds/protection check as WriteByte.
func (m *Memory) WriteWord(address uint32, value uint16) error {
	if err := m.checkBounds(address, 2); err != nil {
		return err
	}
	if address+1 >= m.DynamicEnd() {
		return &ProtectionError{Address: address}
	}
	m.bytes[address] = uint8(value >> 8)
	m.bytes[address+1] = uint8(value)
	return nil
}

// WriteByteUnprotected writes a byte regardless of region, bypassing the
// dynamic-memory check. Used only by save/restore to rehydrate dynamic
// memory from a snapshot and by header fields the interpreter itself owns
// (default colors, flag bits) which the Standard allows the interpreter to
// update even though they sit before StaticMemoryBase in the header, not
// the story's own dynamic region semantics.
func (m *Memory) WriteByteUnprotected(address uint32, value uint8) error {
	if err := m.checkBounds(address, 1); err != nil {
		return err
	}
	m.bytes[address] = value
	return nil
}

// WriteWordUnprotected is WriteWord without the protection check.
func (m *Memory) WriteWordUnprotected(address uint32, value uint16) error {
	if err := m.checkBounds(address, 2); err != nil {
		return err
	}
	m.bytes[address] = uint8(value >> 8)
	m.bytes[address+1] = uint8(value)
	return nil
}

// Raw exposes the underlying bytes for components (quetzal, storage) that
// need to snapshot or fully replace the dynamic region. It is deliberately
// not exported as a mutable slice to arbitrary callers outside this module's
// own packages' trust boundary beyond that.
func (m *Memory) Raw() []uint8 {
	return m.bytes
}

// RestoreDynamic overwrites dynamic memory (bytes [0, DynamicEnd)) from a
// snapshot, used by quetzal restore. It bypasses the write-protection check
// since restoring a save is not a story-program write.
func (m *Memory) RestoreDynamic(snapshot []uint8) error {
	end := m.DynamicEnd()
	if uint32(len(snapshot)) != end {
		return &LoadError{Reason: "save snapshot dynamic memory length does not match story"}
	}
	copy(m.bytes[:end], snapshot)
	return nil
}
