package zcore

// PackedAddressKind distinguishes routine and string packed addresses,
// which use different offsets in V6/V7 (spec.md 3).
type PackedAddressKind int

const (
	PackedRoutine PackedAddressKind = iota
	PackedString
)

// UnpackAddress converts a packed address read from an operand or a call
// instruction into a byte address, per spec.md 3's per-version multiplier
// table. Grounded on the teacher's zmachine.go:packedAddress, generalized so
// both routine and string packed addresses route through RoutinesOffset/
// StringOffset in V6/V7 (the teacher only does this consistently for
// routines).
func (m *Memory) UnpackAddress(packed uint16, kind PackedAddressKind) uint32 {
	switch {
	case m.Header.Version <= 3:
		return uint32(packed) * 2
	case m.Header.Version <= 5:
		return uint32(packed) * 4
	case m.Header.Version <= 7:
		base := uint32(packed) * 4
		if kind == PackedRoutine {
			return base + uint32(m.Header.RoutinesOffset)*8
		}
		return base + uint32(m.Header.StringOffset)*8
	default: // version 8
		return uint32(packed) * 8
	}
}
