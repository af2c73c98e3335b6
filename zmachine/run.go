package zmachine

// opcodeHandler is one opcode's implementation: it reads its own store
// byte/branch specifier/inline string (whichever the opcode needs), since
// which of those follow the operands is opcode-specific, not decodable
// generically (spec.md 4.6). Grounded on the shape of
// KTStephano-GVM/vm/exec.go's function-table dispatch, in place of the
// teacher's single 1000-line StepMachine switch.
type opcodeHandler func(m *Machine, op *Opcode, frame *CallStackFrame) error

// op0PopOrCatch multiplexes 0OP:9, which is "pop" pre-V5 and "catch" from
// V5 on (the version throw/catch were introduced in).
func op0PopOrCatch(m *Machine, op *Opcode, frame *CallStackFrame) error {
	if m.Memory.Header.Version >= 5 {
		return opCatch(m, op, frame)
	}
	return opPop(m, op, frame)
}

// op1NotOrCall1N multiplexes 1OP:15, which is "not" pre-V5 and "call_1n"
// from V5 on (the version "not" moved to VAR:24 to make room for it).
func op1NotOrCall1N(m *Machine, op *Opcode, frame *CallStackFrame) error {
	if m.Memory.Header.Version >= 5 {
		return opCall(RoutineProcedure)(m, op, frame)
	}
	return opNot(m, op, frame)
}

var op0Table = map[uint8]opcodeHandler{
	0:  opRTrue,
	1:  opRFalse,
	2:  opPrint,
	3:  opPrintRet,
	4:  opNop,
	5:  opSave,
	6:  opRestore,
	7:  opRestart,
	8:  opRetPopped,
	9:  op0PopOrCatch,
	10: opQuit,
	11: opNewline,
	12: opNop, // show_status: folded into sread's UpdateStatusBar call
	13: opVerify,
	15: opPiracy,
}

var op1Table = map[uint8]opcodeHandler{
	0:  opJZ,
	1:  opGetSibling,
	2:  opGetChild,
	3:  opGetParent,
	4:  opGetPropLen,
	5:  opInc,
	6:  opDec,
	7:  opPrintAddr,
	8:  opCall(RoutineFunction), // call_1s
	9:  opRemoveObj,
	10: opPrintObj,
	11: opRet,
	12: opJump,
	13: opPrintPaddr,
	14: opLoad,
	15: op1NotOrCall1N,
}

var op2Table = map[uint8]opcodeHandler{
	1:  opJE,
	2:  opJL,
	3:  opJG,
	4:  opDecChk,
	5:  opIncChk,
	6:  opJin,
	7:  opTest,
	8:  opOr,
	9:  opAnd,
	10: opTestAttr,
	11: opSetAttr,
	12: opClearAttr,
	13: opStore,
	14: opInsertObj,
	15: opLoadw,
	16: opLoadb,
	17: opGetProp,
	18: opGetPropAddr,
	19: opGetNextProp,
	20: opAdd,
	21: opSub,
	22: opMul,
	23: opDiv,
	24: opMod,
	25: opCall(RoutineFunction),  // call_2s
	26: opCall(RoutineProcedure), // call_2n
	27: opSetColour,
	28: opThrow,
}

var varTable = map[uint8]opcodeHandler{
	0:  opCall(RoutineFunction), // call / call_vs
	1:  opStorew,
	2:  opStoreb,
	3:  opPutProp,
	4:  opSread, // sread/aread
	5:  opPrintChar,
	6:  opPrintNum,
	7:  opRandom,
	8:  opPush,
	9:  opPull,
	10: opSplitWindow,
	11: opSetWindow,
	12: opCall(RoutineFunction), // call_vs2
	13: opEraseWindow,
	14: opEraseLine,
	15: opSetCursor,
	16: opGetCursor,
	17: opSetTextStyle,
	18: opBufferMode,
	19: opOutputStream,
	20: opInputStream,
	21: opSoundEffect,
	22: opReadChar,
	23: opScanTable,
	24: opNot, // V5+ only; 1OP:15 covers V1-4
	25: opCall(RoutineProcedure), // call_vn
	26: opCall(RoutineProcedure), // call_vn2
	27: opTokenise,
	28: opEncodeText,
	29: opCopyTable,
	30: opPrintTable,
	31: opCheckArgCount,
}

var extTable = map[uint8]opcodeHandler{
	0:  opSave,
	1:  opRestore,
	2:  opLogShift,
	3:  opArtShift,
	4:  opSetFont,
	9:  opSaveUndo,
	10: opRestoreUndo,
	11: opPrintUnicode,
	12: opCheckUnicode,
	13: opSetColour, // set_true_colour: approximated by the palette-index form
}

func (m *Machine) lookup(opcode *Opcode) opcodeHandler {
	if opcode.Form == ExtForm {
		return extTable[opcode.Number]
	}
	switch opcode.OperandCount {
	case OP0:
		return op0Table[opcode.Number]
	case OP1:
		return op1Table[opcode.Number]
	case OP2:
		return op2Table[opcode.Number]
	default:
		return varTable[opcode.Number]
	}
}

// Status reports whether the machine is runnable, halted, or suspended
// waiting on a collaborator (spec.md 4.8/9).
func (m *Machine) Status() Status {
	return m.status
}

// PendingInput is non-nil exactly when Status() == StatusAwaitingInput; the
// host reads it to know what kind of input and which buffers are involved
// before calling ResumeWithInput/ResumeWithCharacter.
func (m *Machine) PendingInput() *InputState {
	return m.pendingInput
}

// PendingStorage is non-nil exactly when Status() == StatusAwaitingStorage
// with no Storage collaborator wired, asking the host to service the
// save/restore itself and call the matching Resume* entry point.
func (m *Machine) PendingStorage() *StorageRequest {
	return m.pendingStorage
}

// Step decodes and executes exactly one instruction (spec.md 4.8's
// decode-execute cycle). A no-op when the machine isn't StatusRunning - the
// host is expected to check Status() first.
func (m *Machine) Step() error {
	if m.status != StatusRunning {
		return nil
	}

	frame, err := m.callStack.peek()
	if err != nil {
		m.status = StatusHalted
		return err
	}
	m.currentInstructionPC = frame.pc

	opcode, err := m.ParseOpcode()
	if err != nil {
		return &RuntimeError{PC: m.currentInstructionPC, Err: err}
	}

	handler := m.lookup(&opcode)
	if handler == nil {
		return &RuntimeError{PC: m.currentInstructionPC, Err: &DecodeError{OpcodeByte: opcode.OpcodeByte, PC: m.currentInstructionPC}}
	}

	// Re-peek: ParseOpcode already advanced this same frame's pc past the
	// opcode and operands; no call/return has happened since, so it is
	// still the active frame.
	frame, err = m.callStack.peek()
	if err != nil {
		return &RuntimeError{PC: m.currentInstructionPC, Err: err}
	}

	if err := handler(m, &opcode, frame); err != nil {
		return &RuntimeError{PC: m.currentInstructionPC, Err: err}
	}
	return nil
}

// Run pumps Step until the machine stops being StatusRunning - either it
// suspended on input/storage, it halted (quit), or an instruction faulted.
func (m *Machine) Run() error {
	for m.status == StatusRunning {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// ResumeWithInput completes a pending sread/aread with a finished line of
// input (spec.md 4.8/4.10's resume_with_input).
func (m *Machine) ResumeWithInput(line string) error {
	if m.status != StatusAwaitingInput || m.pendingInput == nil || m.pendingInput.Kind != InputLine {
		return &InputError{Reason: "resume with input while not awaiting a line"}
	}
	return m.finishRead(line)
}

// ResumeWithCharacter completes a pending read_char.
func (m *Machine) ResumeWithCharacter(ch uint8) error {
	if m.status != StatusAwaitingInput || m.pendingInput == nil || m.pendingInput.Kind != InputChar {
		return &InputError{Reason: "resume with character while not awaiting one"}
	}
	return m.finishReadChar(ch)
}

// ResumeWithTimeout aborts a pending sread whose timer fired with no
// input, substituting a zero-length line (spec.md 4.10).
func (m *Machine) ResumeWithTimeout() error {
	if m.status != StatusAwaitingInput || m.pendingInput == nil {
		return &InputError{Reason: "resume with timeout while not awaiting input"}
	}
	if m.pendingInput.Kind == InputChar {
		return m.finishReadChar(0)
	}
	return m.finishRead("")
}

// ResumeWithSaveResult completes a save suspended because no Storage
// collaborator was wired (spec.md 6) - the host performed the write itself
// and reports whether it succeeded.
func (m *Machine) ResumeWithSaveResult(success bool) error {
	if m.status != StatusAwaitingStorage || m.pendingStorage == nil || m.pendingStorage.Op != StorageSave {
		return &InputError{Reason: "resume with save result while not awaiting a save"}
	}
	sink, frame := m.pendingSink, m.pendingSinkFrame
	m.pendingStorage = nil
	m.pendingSinkFrame = nil
	m.status = StatusRunning
	value := uint16(0)
	if success {
		value = 1
	}
	return m.applyResultSink(frame, sink, value)
}

// ResumeWithRestoreResult completes a restore suspended because no Storage
// collaborator was wired; on success the snapshot replaces the machine's
// state entirely, on failure only the sink is resolved.
func (m *Machine) ResumeWithRestoreResult(snap Snapshot, ok bool) error {
	if m.status != StatusAwaitingStorage || m.pendingStorage == nil || m.pendingStorage.Op != StorageLoad {
		return &InputError{Reason: "resume with restore result while not awaiting a restore"}
	}
	sink, frame := m.pendingSink, m.pendingSinkFrame
	m.pendingStorage = nil
	m.pendingSinkFrame = nil
	m.status = StatusRunning
	if !ok {
		return m.applyResultSink(frame, sink, 0)
	}
	return m.applySnapshot(snap)
}
