package zmachine

import "testing"

func TestOpAddWrapsAt16Bits(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.pc = 0x300
	if err := m.Memory.WriteByteUnprotected(0x300, 16); err != nil { // store to global 0
		t.Fatalf("setup: %v", err)
	}

	op := &Opcode{Operands: []Operand{largeConstOperand(0xFFFF), smallConstOperand(2)}}
	if err := opAdd(m, op, frame); err != nil {
		t.Fatalf("opAdd: %v", err)
	}
	v, _ := m.readVariable(16, false)
	if v != 1 {
		t.Fatalf("0xFFFF + 2 = %d, want 1 (wraparound)", v)
	}
}

func TestOpDivTruncatesTowardZero(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.pc = 0x300
	if err := m.Memory.WriteByteUnprotected(0x300, 16); err != nil {
		t.Fatalf("setup: %v", err)
	}

	// -7 / 2 truncates toward zero to -3, not floor (-4).
	op := &Opcode{Operands: []Operand{largeConstOperand(0xFFF9), smallConstOperand(2)}} // 0xFFF9 is -7
	if err := opDiv(m, op, frame); err != nil {
		t.Fatalf("opDiv: %v", err)
	}
	v, _ := m.readVariable(16, false)
	if int16(v) != -3 {
		t.Fatalf("-7 / 2 = %d, want -3", int16(v))
	}
}

func TestOpDivByZeroWarnsAndReturnsZero(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.pc = 0x300
	if err := m.Memory.WriteByteUnprotected(0x300, 16); err != nil {
		t.Fatalf("setup: %v", err)
	}

	var warned bool
	m.OnWarning = func(w Warning) { warned = true }

	op := &Opcode{Operands: []Operand{smallConstOperand(10), smallConstOperand(0)}}
	if err := opDiv(m, op, frame); err != nil {
		t.Fatalf("opDiv: %v", err)
	}
	if !warned {
		t.Fatalf("expected a Warning on divide by zero")
	}
	v, _ := m.readVariable(16, false)
	if v != 0 {
		t.Fatalf("divide by zero = %d, want 0", v)
	}
}

func TestOpDivByZeroHaltsWhenConfigured(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	m.DivideByZeroHalts = true
	frame := pushFrame(m, 0)
	frame.pc = 0x300
	if err := m.Memory.WriteByteUnprotected(0x300, 16); err != nil {
		t.Fatalf("setup: %v", err)
	}

	op := &Opcode{Operands: []Operand{smallConstOperand(10), smallConstOperand(0)}}
	if err := opDiv(m, op, frame); err == nil {
		t.Fatalf("expected an error when DivideByZeroHalts is set")
	}
}

func TestOpRandomPositiveRangeReturnsOneToN(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.pc = 0x300
	if err := m.Memory.WriteByteUnprotected(0x300, 16); err != nil {
		t.Fatalf("setup: %v", err)
	}

	for i := 0; i < 50; i++ {
		op := &Opcode{Operands: []Operand{smallConstOperand(6)}}
		frame.pc = 0x300
		if err := opRandom(m, op, frame); err != nil {
			t.Fatalf("opRandom: %v", err)
		}
		v, _ := m.readVariable(16, false)
		if v < 1 || v > 6 {
			t.Fatalf("random(6) = %d, want in [1,6]", v)
		}
	}
}

func TestOpRandomNonPositiveReseedsAndReturnsZero(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.pc = 0x300
	if err := m.Memory.WriteByteUnprotected(0x300, 16); err != nil {
		t.Fatalf("setup: %v", err)
	}

	op := &Opcode{Operands: []Operand{largeConstOperand(0xFFFB)}} // 0xFFFB is -5
	if err := opRandom(m, op, frame); err != nil {
		t.Fatalf("opRandom: %v", err)
	}
	v, _ := m.readVariable(16, false)
	if v != 0 {
		t.Fatalf("random(-5) = %d, want 0", v)
	}
}

func TestOpTestBranchesWhenAllBitsPresent(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.pc = 0x300
	if err := m.Memory.WriteByteUnprotected(0x300, 0xC1); err != nil { // branch-on-true, single byte, offset 1 (return true)
		t.Fatalf("setup: %v", err)
	}
	m.callStack = CallStack{}
	m.callStack.push(CallStackFrame{pc: 0x200, routineType: RoutineProcedure})
	m.callStack.push(CallStackFrame{pc: 0x300, routineType: RoutineFunction})
	frame, _ = m.callStack.peek()

	op := &Opcode{Operands: []Operand{smallConstOperand(0b1111), smallConstOperand(0b0101)}}
	if err := opTest(m, op, frame); err != nil {
		t.Fatalf("opTest: %v", err)
	}
	if m.callStack.depth() != 1 {
		t.Fatalf("expected branch to return true (pop callee), depth=%d", m.callStack.depth())
	}
}
