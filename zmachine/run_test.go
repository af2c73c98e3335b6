package zmachine

import "testing"

func TestStepDispatchesLongFormAdd(t *testing.T) {
	raw := buildMinimalStory()
	const pc = 0x300
	// add 5 7 -> global 0 (variable 16): long form, both operands small
	// constant, opcode number 20.
	raw[pc] = 0x14
	raw[pc+1] = 5
	raw[pc+2] = 7
	raw[pc+3] = 16

	m, err := NewMachine(raw, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	v, err := m.readVariable(16, false)
	if err != nil {
		t.Fatalf("read global: %v", err)
	}
	if v != 12 {
		t.Fatalf("global 0 = %d, want 12", v)
	}
	if m.Status() != StatusRunning {
		t.Fatalf("status = %v, want StatusRunning", m.Status())
	}
}

func TestRunStopsAtQuit(t *testing.T) {
	raw := buildMinimalStory()
	const pc = 0x300
	raw[pc] = 0xBA // short form, OP0, opcode number 10 (quit)

	m, err := NewMachine(raw, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if err := m.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if m.Status() != StatusHalted {
		t.Fatalf("status = %v, want StatusHalted", m.Status())
	}
}

func TestStepSuspendsOnSreadAndResumeWithInputContinues(t *testing.T) {
	raw := buildMinimalStory()
	const pc = 0x300
	const textBuffer = 0x230
	raw[textBuffer] = 10 // max length 10

	// sread textBuffer: VAR form, bit5 set (VAR table, not OP2), number 4.
	raw[pc] = 0xE4
	raw[pc+1] = 0x3F // one large-constant operand, rest omitted
	raw[pc+2] = byte(textBuffer >> 8)
	raw[pc+3] = byte(textBuffer & 0xFF)

	m, err := NewMachine(raw, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	if err := m.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if m.Status() != StatusAwaitingInput {
		t.Fatalf("status = %v, want StatusAwaitingInput", m.Status())
	}
	if m.PendingInput() == nil || m.PendingInput().Kind != InputLine {
		t.Fatalf("PendingInput = %+v, want an InputLine request", m.PendingInput())
	}

	if err := m.ResumeWithInput("go north"); err != nil {
		t.Fatalf("ResumeWithInput: %v", err)
	}
	if m.Status() != StatusRunning {
		t.Fatalf("status after resume = %v, want StatusRunning", m.Status())
	}
	raw2, err := m.Memory.ReadSlice(textBuffer+1, 8)
	if err != nil {
		t.Fatalf("read filled buffer: %v", err)
	}
	if string(raw2) != "go north" {
		t.Fatalf("buffer = %q, want %q", raw2, "go north")
	}
}

func TestStepIsANoOpWhenNotRunning(t *testing.T) {
	raw := buildMinimalStory()
	m, err := NewMachine(raw, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	m.status = StatusHalted
	before, _ := m.callStack.peek()
	beforePC := before.pc

	if err := m.Step(); err != nil {
		t.Fatalf("Step on a halted machine should be a no-op, got: %v", err)
	}
	after, _ := m.callStack.peek()
	if after.pc != beforePC {
		t.Fatalf("pc advanced on a halted machine: 0x%x -> 0x%x", beforePC, after.pc)
	}
}

func TestLookupReturnsNilForUnassignedOpcodeNumbers(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	// 0OP:14 is unassigned in every version this core targets.
	h := m.lookup(&Opcode{Form: ShortForm, OperandCount: OP0, Number: 14})
	if h != nil {
		t.Fatalf("expected no handler for 0OP:14")
	}
}
