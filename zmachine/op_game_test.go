package zmachine

import (
	"encoding/binary"
	"testing"
)

func TestOpVerifyMatchesDeclaredChecksum(t *testing.T) {
	raw := buildMinimalStory()
	fileLengthWords := uint16(len(raw) / 2) // V3 multiplier is 2
	binary.BigEndian.PutUint16(raw[0x1a:0x1c], fileLengthWords)

	var sum uint32
	for i := 0x40; i < len(raw); i++ {
		sum += uint32(raw[i])
	}
	binary.BigEndian.PutUint16(raw[0x1c:0x1e], uint16(sum%65536))

	m, err := NewMachine(raw, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	m.callStack = CallStack{}
	m.callStack.push(CallStackFrame{pc: 0x200, routineType: RoutineProcedure})
	m.callStack.push(CallStackFrame{pc: 0x300, routineType: RoutineFunction})
	frame, _ := m.callStack.peek()
	if err := m.Memory.WriteByteUnprotected(0x300, 0xC1); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := opVerify(m, &Opcode{}, frame); err != nil {
		t.Fatalf("opVerify: %v", err)
	}
	if m.callStack.depth() != 1 {
		t.Fatalf("expected checksum match to branch true, depth=%d", m.callStack.depth())
	}
}

func TestOpVerifyFailsOnMismatchedChecksum(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	m.callStack = CallStack{}
	m.callStack.push(CallStackFrame{pc: 0x200, routineType: RoutineProcedure})
	m.callStack.push(CallStackFrame{pc: 0x300, routineType: RoutineFunction})
	frame, _ := m.callStack.peek()
	if err := m.Memory.WriteByteUnprotected(0x300, 0xC1); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := opVerify(m, &Opcode{}, frame); err != nil {
		t.Fatalf("opVerify: %v", err)
	}
	if m.callStack.depth() != 2 {
		t.Fatalf("expected the fixture's zeroed checksum to mismatch, depth=%d", m.callStack.depth())
	}
}

func TestOpPiracyAlwaysBranchesTrue(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	m.callStack = CallStack{}
	m.callStack.push(CallStackFrame{pc: 0x200, routineType: RoutineProcedure})
	m.callStack.push(CallStackFrame{pc: 0x300, routineType: RoutineFunction})
	frame, _ := m.callStack.peek()
	if err := m.Memory.WriteByteUnprotected(0x300, 0xC1); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := opPiracy(m, &Opcode{}, frame); err != nil {
		t.Fatalf("opPiracy: %v", err)
	}
	if m.callStack.depth() != 1 {
		t.Fatalf("expected piracy to always branch true, depth=%d", m.callStack.depth())
	}
}

func TestOpSaveUndoThenRestoreUndoRoundTrips(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.pc = 0x300
	if err := m.Memory.WriteByteUnprotected(0x300, 16); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := m.writeVariable(17, 123, false); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := opSaveUndo(m, &Opcode{}, frame); err != nil {
		t.Fatalf("opSaveUndo: %v", err)
	}
	v, _ := m.readVariable(16, false)
	if v != 1 {
		t.Fatalf("save_undo result = %d, want 1", v)
	}
	if len(m.undo) != 1 {
		t.Fatalf("undo ring length = %d, want 1", len(m.undo))
	}

	if err := m.writeVariable(17, 999, false); err != nil {
		t.Fatalf("mutate after undo: %v", err)
	}

	frame2 := pushFrame(m, 0)
	frame2.pc = 0x301
	if err := m.Memory.WriteByteUnprotected(0x301, 16); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := opRestoreUndo(m, &Opcode{}, frame2); err != nil {
		t.Fatalf("opRestoreUndo: %v", err)
	}
	restored, _ := m.readVariable(17, false)
	if restored != 123 {
		t.Fatalf("global 17 after restore_undo = %d, want 123", restored)
	}
}

func TestOpRestoreUndoWithEmptyRingStoresZero(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	frame.pc = 0x300
	if err := m.Memory.WriteByteUnprotected(0x300, 16); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := opRestoreUndo(m, &Opcode{}, frame); err != nil {
		t.Fatalf("opRestoreUndo: %v", err)
	}
	v, _ := m.readVariable(16, false)
	if v != 0 {
		t.Fatalf("restore_undo with empty ring = %d, want 0", v)
	}
}

func TestOpSaveWithNoStorageSuspendsAndResumeApplies(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	m.callStack = CallStack{}
	m.callStack.push(CallStackFrame{pc: 0x200, routineType: RoutineProcedure})
	m.callStack.push(CallStackFrame{pc: 0x300, routineType: RoutineFunction})
	frame, _ := m.callStack.peek()
	if err := m.Memory.WriteByteUnprotected(0x300, 0xC1); err != nil { // V3: branch form sink
		t.Fatalf("setup: %v", err)
	}

	if err := opSave(m, &Opcode{}, frame); err != nil {
		t.Fatalf("opSave: %v", err)
	}
	if m.Status() != StatusAwaitingStorage {
		t.Fatalf("status = %v, want StatusAwaitingStorage", m.Status())
	}
	if m.PendingStorage() == nil || m.PendingStorage().Op != StorageSave {
		t.Fatalf("PendingStorage = %+v, want a save request", m.PendingStorage())
	}

	if err := m.ResumeWithSaveResult(true); err != nil {
		t.Fatalf("ResumeWithSaveResult: %v", err)
	}
	if m.Status() != StatusRunning {
		t.Fatalf("status after resume = %v, want StatusRunning", m.Status())
	}
	if m.callStack.depth() != 1 {
		t.Fatalf("expected successful save's branch-true sink to pop the callee, depth=%d", m.callStack.depth())
	}
}

func TestOpRestartPreservesFlags2TranscriptBit(t *testing.T) {
	raw := buildMinimalStory()
	raw[0x11] = 0b01 // Flags2 low byte: transcript-active bit set
	m, err := NewMachine(raw, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	frame := pushFrame(m, 0)
	if err := m.writeVariable(16, 42, false); err != nil { // dirty a global to prove the reload happened
		t.Fatalf("setup: %v", err)
	}

	if err := opRestart(m, &Opcode{}, frame); err != nil {
		t.Fatalf("opRestart: %v", err)
	}
	flags2, err := m.Memory.ReadWord(0x10)
	if err != nil {
		t.Fatalf("read flags2: %v", err)
	}
	if flags2&0b11 != 0b01 {
		t.Fatalf("flags2 low bits = %02b, want 01 (preserved)", flags2&0b11)
	}
	v, _ := m.readVariable(16, false)
	if v != 0 {
		t.Fatalf("global 16 after restart = %d, want 0 (reloaded from original story)", v)
	}
	if m.callStack.depth() != 1 {
		t.Fatalf("expected restart to push exactly the initial frame, depth=%d", m.callStack.depth())
	}
}

func TestOpQuitHalts(t *testing.T) {
	m, err := newTestMachine()
	if err != nil {
		t.Fatalf("newTestMachine: %v", err)
	}
	frame := pushFrame(m, 0)

	if err := opQuit(m, &Opcode{}, frame); err != nil {
		t.Fatalf("opQuit: %v", err)
	}
	if m.Status() != StatusHalted {
		t.Fatalf("status = %v, want StatusHalted", m.Status())
	}
}
