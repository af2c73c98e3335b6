package zstring

import "fmt"

// AbbreviationDepthError reports an abbreviation string that itself
// references an abbreviation, which the Standard forbids (recursion depth
// must not exceed 1). The teacher never implements abbreviations at all, so
// there is no teacher grounding for this guard; it follows spec.md 4.2
// directly. The decoder also returns it for a string that ends in the
// middle of an abbreviation or 10-bit ZSCII escape.
type AbbreviationDepthError struct {
	Address uint32
}

func (e *AbbreviationDepthError) Error() string {
	return fmt.Sprintf("abbreviation string at %#x references another abbreviation", e.Address)
}
