package zmachine

import "testing"

func TestOpPrintNumFormatsSignedValue(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)

	const target = 0x210
	if err := m.Memory.WriteByteUnprotected(target, 3); err != nil { // stale length byte, overwritten when stream 3 closes
		t.Fatalf("setup: %v", err)
	}
	if err := opOutputStream(m, &Opcode{Operands: []Operand{smallConstOperand(3), largeConstOperand(target)}}, frame); err != nil {
		t.Fatalf("opOutputStream select: %v", err)
	}

	if err := opPrintNum(m, &Opcode{Operands: []Operand{largeConstOperand(0xFFD6)}}, frame); err != nil { // 0xFFD6 is -42
		t.Fatalf("opPrintNum: %v", err)
	}

	if err := opOutputStream(m, &Opcode{Operands: []Operand{largeConstOperand(0xFFFD)}}, frame); err != nil { // 0xFFFD is -3
		t.Fatalf("opOutputStream deselect: %v", err)
	}

	length, err := m.Memory.ReadWord(target)
	if err != nil {
		t.Fatalf("read length: %v", err)
	}
	if int(length) != len("-42") {
		t.Fatalf("captured length = %d, want %d", length, len("-42"))
	}
	raw, err := m.Memory.ReadSlice(target+2, uint32(length))
	if err != nil {
		t.Fatalf("read captured text: %v", err)
	}
	if string(raw) != "-42" {
		t.Fatalf("captured text = %q, want %q", raw, "-42")
	}
}

func TestOpOutputStreamNestsMemoryStreams(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)

	const outer = 0x210
	const inner = 0x220
	if err := opOutputStream(m, &Opcode{Operands: []Operand{smallConstOperand(3), largeConstOperand(outer)}}, frame); err != nil {
		t.Fatalf("select outer: %v", err)
	}
	if err := opPrintChar(m, &Opcode{Operands: []Operand{smallConstOperand('A')}}, frame); err != nil {
		t.Fatalf("print A: %v", err)
	}
	if err := opOutputStream(m, &Opcode{Operands: []Operand{smallConstOperand(3), largeConstOperand(inner)}}, frame); err != nil {
		t.Fatalf("select inner: %v", err)
	}
	if err := opPrintChar(m, &Opcode{Operands: []Operand{smallConstOperand('B')}}, frame); err != nil {
		t.Fatalf("print B: %v", err)
	}
	if err := opOutputStream(m, &Opcode{Operands: []Operand{largeConstOperand(0xFFFD)}}, frame); err != nil { // 0xFFFD is -3
		t.Fatalf("close inner: %v", err)
	}
	if err := opPrintChar(m, &Opcode{Operands: []Operand{smallConstOperand('C')}}, frame); err != nil {
		t.Fatalf("print C: %v", err)
	}
	if err := opOutputStream(m, &Opcode{Operands: []Operand{largeConstOperand(0xFFFD)}}, frame); err != nil { // 0xFFFD is -3
		t.Fatalf("close outer: %v", err)
	}

	if m.streams.memory {
		t.Fatalf("expected memory stream flag to be false after closing both")
	}
	innerLen, _ := m.Memory.ReadWord(inner)
	if innerLen != 1 {
		t.Fatalf("inner length = %d, want 1", innerLen)
	}
	innerText, _ := m.Memory.ReadSlice(inner+2, uint32(innerLen))
	if string(innerText) != "B" {
		t.Fatalf("inner text = %q, want %q", innerText, "B")
	}
	outerLen, _ := m.Memory.ReadWord(outer)
	if outerLen != 2 {
		t.Fatalf("outer length = %d, want 2 (A and C, not B)", outerLen)
	}
	outerText, _ := m.Memory.ReadSlice(outer+2, uint32(outerLen))
	if string(outerText) != "AC" {
		t.Fatalf("outer text = %q, want %q", outerText, "AC")
	}
}

func TestOpSreadSuspendsAndFinishReadFillsBuffer(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)

	const textBuffer = 0x230
	if err := m.Memory.WriteByteUnprotected(textBuffer, 10); err != nil { // max length 10
		t.Fatalf("setup: %v", err)
	}

	op := &Opcode{Operands: []Operand{largeConstOperand(textBuffer)}}
	if err := opSread(m, op, frame); err != nil {
		t.Fatalf("opSread: %v", err)
	}
	if m.status != StatusAwaitingInput {
		t.Fatalf("status = %v, want StatusAwaitingInput", m.status)
	}
	if m.pendingInput == nil || m.pendingInput.Kind != InputLine {
		t.Fatalf("pendingInput = %+v, want an InputLine request", m.pendingInput)
	}

	if err := m.finishRead("Hello"); err != nil {
		t.Fatalf("finishRead: %v", err)
	}
	if m.status != StatusRunning {
		t.Fatalf("status after finishRead = %v, want StatusRunning", m.status)
	}
	raw, err := m.Memory.ReadSlice(textBuffer+1, 5)
	if err != nil {
		t.Fatalf("read filled buffer: %v", err)
	}
	if string(raw) != "hello" {
		t.Fatalf("buffer = %q, want %q (lowercased)", raw, "hello")
	}
	term, err := m.Memory.ReadByte(textBuffer + 1 + 5)
	if err != nil {
		t.Fatalf("read terminator: %v", err)
	}
	if term != 0 {
		t.Fatalf("terminator byte = %d, want 0", term)
	}
}

func TestOpReadCharSuspendsAndFinishReadCharStores(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.pc = 0x300
	if err := m.Memory.WriteByteUnprotected(0x300, 16); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := opReadChar(m, &Opcode{}, frame); err != nil {
		t.Fatalf("opReadChar: %v", err)
	}
	if m.status != StatusAwaitingInput || m.pendingInput.Kind != InputChar {
		t.Fatalf("expected suspension awaiting a character")
	}

	if err := m.finishReadChar('q'); err != nil {
		t.Fatalf("finishReadChar: %v", err)
	}
	if m.status != StatusRunning {
		t.Fatalf("status = %v, want StatusRunning", m.status)
	}
	v, _ := m.readVariable(16, false)
	if v != uint16('q') {
		t.Fatalf("stored char = %d, want %d", v, 'q')
	}
}
