package zmachine

import "zmrun/ztable"

// Memory/table/variable-access opcodes. Grounded on the teacher's
// zmachine.go switch cases of the same names, adapted to route every read
// and write through *zcore.Memory's bounds/protection checks.

func opLoadw(m *Machine, op *Opcode, frame *CallStackFrame) error {
	base, index, dest, err := binaryOperands(m, op, frame)
	if err != nil {
		return err
	}
	value, err := m.Memory.ReadWord(uint32(base) + 2*uint32(index))
	if err != nil {
		return err
	}
	return m.writeVariable(dest, value, false)
}

func opLoadb(m *Machine, op *Opcode, frame *CallStackFrame) error {
	base, index, dest, err := binaryOperands(m, op, frame)
	if err != nil {
		return err
	}
	value, err := m.Memory.ReadByte(uint32(base) + uint32(index))
	if err != nil {
		return err
	}
	return m.writeVariable(dest, uint16(value), false)
}

func opStorew(m *Machine, op *Opcode, frame *CallStackFrame) error {
	base, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	index, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	value, err := op.Operands[2].Value(m)
	if err != nil {
		return err
	}
	return m.Memory.WriteWord(uint32(base)+2*uint32(index), value)
}

func opStoreb(m *Machine, op *Opcode, frame *CallStackFrame) error {
	base, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	index, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	value, err := op.Operands[2].Value(m)
	if err != nil {
		return err
	}
	return m.Memory.WriteByte(uint32(base)+uint32(index), uint8(value))
}

// load implements the indirect variable read (spec.md 4.5): its operand
// carries a variable number whose current value names the target.
func opLoad(m *Machine, op *Opcode, frame *CallStackFrame) error {
	variable, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	value, err := m.readVariable(uint8(variable), true)
	if err != nil {
		return err
	}
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	return m.writeVariable(dest, value, false)
}

func opStore(m *Machine, op *Opcode, frame *CallStackFrame) error {
	variable, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	value, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	return m.writeVariable(uint8(variable), value, true)
}

func opInc(m *Machine, op *Opcode, frame *CallStackFrame) error {
	variable, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	cur, err := m.readVariable(uint8(variable), true)
	if err != nil {
		return err
	}
	return m.writeVariable(uint8(variable), cur+1, true)
}

func opDec(m *Machine, op *Opcode, frame *CallStackFrame) error {
	variable, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	cur, err := m.readVariable(uint8(variable), true)
	if err != nil {
		return err
	}
	return m.writeVariable(uint8(variable), cur-1, true)
}

func opIncChk(m *Machine, op *Opcode, frame *CallStackFrame) error {
	variable, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	test, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	cur, err := m.readVariable(uint8(variable), true)
	if err != nil {
		return err
	}
	newValue := cur + 1
	if err := m.writeVariable(uint8(variable), newValue, true); err != nil {
		return err
	}
	return m.handleBranch(frame, int16(newValue) > int16(test))
}

func opDecChk(m *Machine, op *Opcode, frame *CallStackFrame) error {
	variable, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	test, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	cur, err := m.readVariable(uint8(variable), true)
	if err != nil {
		return err
	}
	newValue := cur - 1
	if err := m.writeVariable(uint8(variable), newValue, true); err != nil {
		return err
	}
	return m.handleBranch(frame, int16(newValue) < int16(test))
}

func opPush(m *Machine, op *Opcode, frame *CallStackFrame) error {
	v, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	frame.push(v)
	return nil
}

func opPull(m *Machine, op *Opcode, frame *CallStackFrame) error {
	variable, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	if variable == 0 {
		// Indirect pull to the stack pointer itself is a logical
		// contradiction (spec.md 4.5).
		return &StackError{Reason: "pull with indirect target 0"}
	}
	v, err := frame.pop()
	if err != nil {
		return err
	}
	return m.writeVariable(uint8(variable), v, true)
}

func opScanTable(m *Machine, op *Opcode, frame *CallStackFrame) error {
	test, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	table, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	length, err := op.Operands[2].Value(m)
	if err != nil {
		return err
	}
	form := uint16(0x82)
	if len(op.Operands) > 3 {
		form, err = op.Operands[3].Value(m)
		if err != nil {
			return err
		}
	}

	addr, err := ztable.ScanTable(m.Memory, test, uint32(table), length, form)
	if err != nil {
		return err
	}
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	if err := m.writeVariable(dest, uint16(addr), false); err != nil {
		return err
	}
	return m.handleBranch(frame, addr != 0)
}

func opCopyTable(m *Machine, op *Opcode, frame *CallStackFrame) error {
	first, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	second, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	size, err := op.Operands[2].Value(m)
	if err != nil {
		return err
	}
	return ztable.CopyTable(m.Memory, uint32(first), uint32(second), int16(size))
}

func opPrintTable(m *Machine, op *Opcode, frame *CallStackFrame) error {
	addr, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	width, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	height := uint16(1)
	skip := uint16(0)
	if len(op.Operands) > 2 {
		height, err = op.Operands[2].Value(m)
		if err != nil {
			return err
		}
	}
	if len(op.Operands) > 3 {
		skip, err = op.Operands[3].Value(m)
		if err != nil {
			return err
		}
	}
	text, err := ztable.PrintTable(m.Memory, uint32(addr), width, height, skip)
	if err != nil {
		return err
	}
	return m.appendText(text)
}
