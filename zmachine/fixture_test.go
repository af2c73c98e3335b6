package zmachine

import "encoding/binary"

// buildMinimalStory lays out a complete, if mostly empty, V3 story image:
// a zero-entry dictionary, a two-object tree (object 1 is object 2's
// parent), a global variable table, and enough dynamic memory below
// staticBase (0x300) that individual tests can carve out routine bytes
// above it without colliding with any of the above.
func buildMinimalStory() []uint8 {
	raw := make([]uint8, 0x400)
	raw[0x00] = 3 // version

	const (
		dictionaryBase = 0x40
		objectBase     = 0x50
		globalBase     = 0x100
		staticBase     = 0x300
	)

	binary.BigEndian.PutUint16(raw[0x04:0x06], staticBase) // high memory base
	binary.BigEndian.PutUint16(raw[0x06:0x08], staticBase) // first instruction
	binary.BigEndian.PutUint16(raw[0x08:0x0a], dictionaryBase)
	binary.BigEndian.PutUint16(raw[0x0a:0x0c], objectBase)
	binary.BigEndian.PutUint16(raw[0x0c:0x0e], globalBase)
	binary.BigEndian.PutUint16(raw[0x0e:0x10], staticBase)

	// Empty dictionary: no input codes, entry length 4, zero entries.
	raw[dictionaryBase] = 0
	raw[dictionaryBase+1] = 4
	binary.BigEndian.PutUint16(raw[dictionaryBase+2:dictionaryBase+4], 0)

	entriesStart := uint32(objectBase) + 31*2
	obj1 := entriesStart
	obj2 := entriesStart + 9
	propPtr1 := uint16(entriesStart + 18)
	propPtr2 := propPtr1 + 6

	raw[obj1+4] = 0 // parent
	raw[obj1+5] = 0 // sibling
	raw[obj1+6] = 2 // child
	binary.BigEndian.PutUint16(raw[obj1+7:obj1+9], propPtr1)

	raw[obj2+4] = 1 // parent
	raw[obj2+5] = 0 // sibling
	raw[obj2+6] = 0 // child
	binary.BigEndian.PutUint16(raw[obj2+7:obj2+9], propPtr2)

	// object 1: no name, one 1-byte property id 5 valued 0x85.
	raw[propPtr1] = 0
	raw[propPtr1+1] = (0 << 5) | 5
	raw[propPtr1+2] = 0x85
	raw[propPtr1+3] = 0

	// object 2: no name, one 2-byte property id 11.
	raw[propPtr2] = 0
	raw[propPtr2+1] = (1 << 5) | 11
	raw[propPtr2+2] = 0x88
	raw[propPtr2+3] = 0xe5
	raw[propPtr2+4] = 0

	return raw
}

// newTestMachine builds a Machine over buildMinimalStory with no
// collaborators wired, the configuration every handler-level test uses
// unless it cares about Screen/Storage side effects specifically.
func newTestMachine() (*Machine, error) {
	return NewMachine(buildMinimalStory(), nil, nil, nil)
}

// pushFrame replaces the machine's call stack with a single fresh frame
// with the given number of zeroed locals, returning it for the test to
// drive directly (most opcode handlers are exercised this way rather than
// through a full decode/fetch cycle).
func pushFrame(m *Machine, numLocals int) *CallStackFrame {
	m.callStack = CallStack{}
	m.callStack.push(CallStackFrame{pc: 0x300, locals: make([]uint16, numLocals)})
	frame, _ := m.callStack.peek()
	return frame
}

func smallConstOperand(v uint8) Operand {
	return Operand{Type: SmallConstant, value: uint16(v)}
}

func largeConstOperand(v uint16) Operand {
	return Operand{Type: LargeConstant, value: v}
}

func variableOperand(v uint8) Operand {
	return Operand{Type: VariableOperand, value: uint16(v)}
}
