package zmachine

import "testing"

func TestReadWriteVariableLocalsAndGlobals(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	pushFrame(m, 3)

	if err := m.writeVariable(2, 42, false); err != nil {
		t.Fatalf("write local: %v", err)
	}
	v, err := m.readVariable(2, false)
	if err != nil {
		t.Fatalf("read local: %v", err)
	}
	if v != 42 {
		t.Fatalf("local 2 = %d, want 42", v)
	}

	if err := m.writeVariable(16, 7, false); err != nil {
		t.Fatalf("write global: %v", err)
	}
	v, err = m.readVariable(16, false)
	if err != nil {
		t.Fatalf("read global: %v", err)
	}
	if v != 7 {
		t.Fatalf("global 0 = %d, want 7", v)
	}
}

func TestReadVariableLocalOutOfRangeIsStackError(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	pushFrame(m, 1)

	if _, err := m.readVariable(5, false); err == nil {
		t.Fatalf("expected StackError reading non-existent local")
	} else if _, ok := err.(*StackError); !ok {
		t.Fatalf("expected *StackError, got %T", err)
	}
}

func TestIndirectVariableZeroActsInPlace(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.push(99)

	v, err := m.readVariable(0, true)
	if err != nil {
		t.Fatalf("indirect read: %v", err)
	}
	if v != 99 {
		t.Fatalf("indirect read = %d, want 99 (no pop)", v)
	}
	if len(frame.routineStack) != 1 {
		t.Fatalf("indirect read popped the stack, len=%d", len(frame.routineStack))
	}

	if err := m.writeVariable(0, 100, true); err != nil {
		t.Fatalf("indirect write: %v", err)
	}
	if len(frame.routineStack) != 1 || frame.routineStack[0] != 100 {
		t.Fatalf("indirect write did not replace top of stack: %v", frame.routineStack)
	}

	// Plain (non-indirect) variable 0 is push/pop, not in-place.
	if err := m.writeVariable(0, 5, false); err != nil {
		t.Fatalf("push via variable 0: %v", err)
	}
	if len(frame.routineStack) != 2 {
		t.Fatalf("plain write to variable 0 should push, len=%d", len(frame.routineStack))
	}
}

func TestHandleBranchJumpsByOffset(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.pc = 0x300

	// branch-on-true, single byte, offset 5: 1_1_000101
	if err := m.Memory.WriteByteUnprotected(0x300, 0xC5); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := m.handleBranch(frame, true); err != nil {
		t.Fatalf("handleBranch: %v", err)
	}
	// pc after reading the branch byte is 0x301; jump target is 0x301+5-2.
	if frame.pc != 0x304 {
		t.Fatalf("pc = 0x%x, want 0x304", frame.pc)
	}
}

func TestHandleBranchFallsThroughWhenConditionMismatches(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.pc = 0x300
	if err := m.Memory.WriteByteUnprotected(0x300, 0xC5); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := m.handleBranch(frame, false); err != nil {
		t.Fatalf("handleBranch: %v", err)
	}
	if frame.pc != 0x301 {
		t.Fatalf("pc = 0x%x, want 0x301 (fall through, no jump)", frame.pc)
	}
}

func TestHandleBranchSpecialOffsetReturnsFalse(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	m.callStack = CallStack{}
	m.callStack.push(CallStackFrame{pc: 0x300, routineType: RoutineProcedure})
	m.callStack.push(CallStackFrame{pc: 0x310, routineType: RoutineFunction})
	callee, _ := m.callStack.peek()

	// branch-on-true, single byte, offset 0 (special: return false).
	if err := m.Memory.WriteByteUnprotected(0x310, 0xC0); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := m.handleBranch(callee, true); err != nil {
		t.Fatalf("handleBranch: %v", err)
	}
	if m.callStack.depth() != 1 {
		t.Fatalf("expected callee frame popped, depth=%d", m.callStack.depth())
	}
}

func TestCallPassesArgumentsAndReturnStoresResult(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}

	const routineAddr = uint32(0x310)
	if err := m.Memory.WriteByteUnprotected(routineAddr, 2); err != nil { // 2 locals
		t.Fatalf("setup: %v", err)
	}
	if err := m.Memory.WriteWordUnprotected(routineAddr+1, 0); err != nil { // default local 1
		t.Fatalf("setup: %v", err)
	}
	if err := m.Memory.WriteWordUnprotected(routineAddr+3, 0); err != nil { // default local 2
		t.Fatalf("setup: %v", err)
	}
	packed := uint16(routineAddr / 2)

	caller := pushFrame(m, 0)
	caller.pc = 0x330
	// Caller's instruction ends with a store byte naming global 16 as dest.
	if err := m.Memory.WriteByteUnprotected(0x330, 16); err != nil {
		t.Fatalf("setup: %v", err)
	}

	opcode := &Opcode{Operands: []Operand{
		largeConstOperand(packed),
		smallConstOperand(11),
	}}
	if err := m.call(opcode, RoutineFunction); err != nil {
		t.Fatalf("call: %v", err)
	}
	if m.callStack.depth() != 2 {
		t.Fatalf("depth = %d, want 2", m.callStack.depth())
	}
	callee, _ := m.callStack.peek()
	if callee.locals[0] != 11 {
		t.Fatalf("first local = %d, want 11 (from argument)", callee.locals[0])
	}
	if callee.locals[1] != 0 {
		t.Fatalf("second local = %d, want 0 (no argument supplied)", callee.locals[1])
	}
	if callee.numValuesPassed != 1 {
		t.Fatalf("numValuesPassed = %d, want 1", callee.numValuesPassed)
	}

	if err := m.retValue(99); err != nil {
		t.Fatalf("retValue: %v", err)
	}
	if m.callStack.depth() != 1 {
		t.Fatalf("depth after return = %d, want 1", m.callStack.depth())
	}
	stored, err := m.readVariable(16, false)
	if err != nil {
		t.Fatalf("read global: %v", err)
	}
	if stored != 99 {
		t.Fatalf("global 16 = %d, want 99", stored)
	}
}

func TestCallToAddressZeroStoresZeroForFunctions(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	caller := pushFrame(m, 0)
	caller.pc = 0x330
	if err := m.Memory.WriteByteUnprotected(0x330, 16); err != nil {
		t.Fatalf("setup: %v", err)
	}

	opcode := &Opcode{Operands: []Operand{largeConstOperand(0)}}
	if err := m.call(opcode, RoutineFunction); err != nil {
		t.Fatalf("call: %v", err)
	}
	if m.callStack.depth() != 1 {
		t.Fatalf("calling address 0 should not push a frame, depth=%d", m.callStack.depth())
	}
	v, err := m.readVariable(16, false)
	if err != nil {
		t.Fatalf("read global: %v", err)
	}
	if v != 0 {
		t.Fatalf("global 16 = %d, want 0", v)
	}
}
