package zcore

import "fmt"

// LoadError reports a malformed story file discovered while parsing the header.
type LoadError struct {
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load error: %s", e.Reason)
}

// BoundsError reports an access outside the bounds of the memory image.
type BoundsError struct {
	Address uint32
	Length  uint32
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("address %#x out of bounds (memory length %#x)", e.Address, e.Length)
}

// ProtectionError reports a write to static or high memory.
type ProtectionError struct {
	Address uint32
}

func (e *ProtectionError) Error() string {
	return fmt.Sprintf("write to protected address %#x", e.Address)
}

// AlignmentError reports a misaligned packed address or routine header.
type AlignmentError struct {
	Address uint32
	Reason  string
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("alignment error at %#x: %s", e.Address, e.Reason)
}
