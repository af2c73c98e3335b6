package zmachine

// Control-flow opcodes: branching comparisons, call/return, jump,
// catch/throw, check_arg_count. Grounded on the teacher's zmachine.go
// switch cases of the same names.

func opJZ(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	return m.handleBranch(frame, a == 0)
}

func opJE(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	branch := false
	for _, operand := range op.Operands[1:] {
		v, err := operand.Value(m)
		if err != nil {
			return err
		}
		if v == a {
			branch = true
		}
	}
	return m.handleBranch(frame, branch)
}

func opJL(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, b, err := signedPair(m, op)
	if err != nil {
		return err
	}
	return m.handleBranch(frame, a < b)
}

func opJG(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, b, err := signedPair(m, op)
	if err != nil {
		return err
	}
	return m.handleBranch(frame, a > b)
}

func opJump(m *Machine, op *Opcode, frame *CallStackFrame) error {
	offsetRaw, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	offset := int32(int16(offsetRaw))
	frame.pc = uint32(int32(frame.pc) + offset - 2)
	return nil
}

func opRTrue(m *Machine, op *Opcode, frame *CallStackFrame) error {
	return m.retValue(1)
}

func opRFalse(m *Machine, op *Opcode, frame *CallStackFrame) error {
	return m.retValue(0)
}

func opRet(m *Machine, op *Opcode, frame *CallStackFrame) error {
	v, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	return m.retValue(v)
}

func opRetPopped(m *Machine, op *Opcode, frame *CallStackFrame) error {
	v, err := frame.pop()
	if err != nil {
		return err
	}
	return m.retValue(v)
}

// pop (0OP:9, V1 only) discards the top of the current evaluation stack.
func opPop(m *Machine, op *Opcode, frame *CallStackFrame) error {
	_, err := frame.pop()
	return err
}

// nop, show_status: no behaviour of their own in a headless core - show_status
// is implicitly handled by the Screen collaborator's UpdateStatusBar call
// inside sread.
func opNop(m *Machine, op *Opcode, frame *CallStackFrame) error {
	return nil
}

func opCall(routineType RoutineType) opcodeHandler {
	return func(m *Machine, op *Opcode, frame *CallStackFrame) error {
		return m.call(op, routineType)
	}
}

// catch stores the current call-stack depth, the token throw later
// validates and truncates to (spec.md 4.5).
func opCatch(m *Machine, op *Opcode, frame *CallStackFrame) error {
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	return m.writeVariable(dest, uint16(m.callStack.depth()), false)
}

// throw unwinds the call stack to the frame index caught earlier, then
// returns v from it exactly like an ordinary return (spec.md 4.5). An
// invalid frame index is fatal.
func opThrow(m *Machine, op *Opcode, frame *CallStackFrame) error {
	v, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	frameIdxRaw, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	if err := m.callStack.truncate(int(frameIdxRaw)); err != nil {
		return err
	}
	return m.retValue(v)
}

// check_arg_count branches if the given 1-based argument index was actually
// supplied to the current routine.
func opCheckArgCount(m *Machine, op *Opcode, frame *CallStackFrame) error {
	arg, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	return m.handleBranch(frame, int(arg) <= frame.numValuesPassed)
}

func signedPair(m *Machine, op *Opcode) (int16, int16, error) {
	a, err := op.Operands[0].Value(m)
	if err != nil {
		return 0, 0, err
	}
	b, err := op.Operands[1].Value(m)
	if err != nil {
		return 0, 0, err
	}
	return int16(a), int16(b), nil
}
