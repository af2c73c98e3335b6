package zmachine

// OperandType is the 2-bit tag on each operand slot (spec.md 4.6).
type OperandType int

const (
	LargeConstant OperandType = 0b00
	SmallConstant OperandType = 0b01
	VariableOperand OperandType = 0b10
	Omitted       OperandType = 0b11
)

// OpcodeForm is which of the four instruction encodings produced an Opcode.
type OpcodeForm int

const (
	LongForm  OpcodeForm = 0b00
	ExtForm   OpcodeForm = 0b01
	ShortForm OpcodeForm = 0b10
	VarForm   OpcodeForm = 0b11
)

// OperandCount groups opcode numbers into the four dispatch tables
// (spec.md 4.6/4.7): 0OP, 1OP, 2OP, VAR (EXT opcodes share VAR's table,
// distinguished by opcodeForm == ExtForm).
type OperandCount int

const (
	OP0 OperandCount = iota
	OP1
	OP2
	VAR
)

// Operand is one decoded operand slot; Value resolves it against the
// running machine (dereferencing VariableOperand through the stack/locals/
// globals) at the point the handler reads it, per spec.md 4.8 step 2.
type Operand struct {
	Type  OperandType
	value uint16
}

func (o Operand) Value(m *Machine) (uint16, error) {
	switch o.Type {
	case LargeConstant, SmallConstant:
		return o.value, nil
	case VariableOperand:
		return m.readVariable(uint8(o.value), false)
	default:
		return 0, nil
	}
}

// Opcode is one fully decoded instruction, ready for dispatch.
type Opcode struct {
	OpcodeByte   uint8
	OperandCount OperandCount
	Form         OpcodeForm
	Number       uint8
	Operands     []Operand
}

// readIncPC reads one byte at frame.pc and advances it.
func (m *Machine) readIncPC(frame *CallStackFrame) (uint8, error) {
	v, err := m.Memory.ReadByte(frame.pc)
	if err != nil {
		return 0, err
	}
	frame.pc++
	return v, nil
}

// readWordIncPC reads one big-endian word at frame.pc and advances it by 2.
func (m *Machine) readWordIncPC(frame *CallStackFrame) (uint16, error) {
	v, err := m.Memory.ReadWord(frame.pc)
	if err != nil {
		return 0, err
	}
	frame.pc += 2
	return v, nil
}

// parseVariableOperands reads the operand-type byte (and, for call_vs2/
// call_vn2 in VAR form, a second type byte giving up to 8 operands total)
// and the operand bytes/words that follow. Grounded closely on the
// teacher's zmachine/opcode.go:parseVariableOperands.
func (m *Machine) parseVariableOperands(frame *CallStackFrame, opcode *Opcode) error {
	typeByte, err := m.readIncPC(frame)
	if err != nil {
		return err
	}

	extTypeByte := uint8(0)
	maxOperands := 4
	if opcode.Form == VarForm && opcode.OperandCount == VAR && (opcode.Number == 12 || opcode.Number == 26) {
		extTypeByte, err = m.readIncPC(frame)
		if err != nil {
			return err
		}
		maxOperands = 8
	}

	for i := 0; i < maxOperands; i++ {
		var t OperandType
		if i < 4 {
			t = OperandType((typeByte >> (2 * (3 - i))) & 0b11)
		} else {
			t = OperandType((extTypeByte >> (2 * (7 - i))) & 0b11)
		}

		if t == Omitted {
			break
		}

		switch t {
		case SmallConstant, VariableOperand:
			b, err := m.readIncPC(frame)
			if err != nil {
				return err
			}
			opcode.Operands = append(opcode.Operands, Operand{Type: t, value: uint16(b)})
		case LargeConstant:
			w, err := m.readWordIncPC(frame)
			if err != nil {
				return err
			}
			opcode.Operands = append(opcode.Operands, Operand{Type: t, value: w})
		}
	}

	return nil
}

// ParseOpcode decodes the instruction at the current frame's pc, advancing
// pc past the opcode byte(s) and operands (but not yet past any store byte,
// branch specifier, or inline string - handlers consume those themselves,
// per spec.md 4.8 step 3). Grounded closely on the teacher's
// zmachine/opcode.go:ParseOpcode.
func (m *Machine) ParseOpcode() (Opcode, error) {
	frame, err := m.callStack.peek()
	if err != nil {
		return Opcode{}, err
	}

	opcodeByte, err := m.readIncPC(frame)
	if err != nil {
		return Opcode{}, err
	}

	opcode := Opcode{OpcodeByte: opcodeByte, Form: OpcodeForm(opcodeByte >> 6)}

	switch {
	case opcodeByte == 0xbe && m.Memory.Header.Version >= 5:
		opcode.OpcodeByte, err = m.readIncPC(frame)
		if err != nil {
			return Opcode{}, err
		}
		opcode.Number = opcode.OpcodeByte
		opcode.Form = ExtForm
		opcode.OperandCount = VAR
		if err := m.parseVariableOperands(frame, &opcode); err != nil {
			return Opcode{}, err
		}

	case opcode.Form == VarForm:
		opcode.Number = opcodeByte & 0b1_1111
		opcode.OperandCount = VAR
		if (opcodeByte>>5)&1 == 0 {
			opcode.OperandCount = OP2
		}
		if err := m.parseVariableOperands(frame, &opcode); err != nil {
			return Opcode{}, err
		}

	case opcode.Form == ShortForm:
		opcode.Number = opcodeByte & 0b1111
		operandType := (opcodeByte >> 4) & 0b11

		switch operandType {
		case 0b00:
			w, err := m.readWordIncPC(frame)
			if err != nil {
				return Opcode{}, err
			}
			opcode.Operands = append(opcode.Operands, Operand{Type: OperandType(operandType), value: w})
			opcode.OperandCount = OP1
		case 0b01, 0b10:
			b, err := m.readIncPC(frame)
			if err != nil {
				return Opcode{}, err
			}
			opcode.Operands = append(opcode.Operands, Operand{Type: OperandType(operandType), value: uint16(b)})
			opcode.OperandCount = OP1
		case 0b11:
			opcode.OperandCount = OP0
		}

	default: // LongForm
		opcode.Number = opcodeByte & 0b1_1111
		opcode.Form = LongForm
		opcode.OperandCount = OP2

		op1Type, op2Type := SmallConstant, SmallConstant
		if (opcodeByte>>6)&1 == 1 {
			op1Type = VariableOperand
		}
		if (opcodeByte>>5)&1 == 1 {
			op2Type = VariableOperand
		}

		for _, t := range []OperandType{op1Type, op2Type} {
			b, err := m.readIncPC(frame)
			if err != nil {
				return Opcode{}, err
			}
			opcode.Operands = append(opcode.Operands, Operand{Type: t, value: uint16(b)})
		}
	}

	return opcode, nil
}
