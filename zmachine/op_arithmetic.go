package zmachine

import "zmrun/zcore"

// add/sub/mul/div/mod/and/or/not/log_shift/art_shift/random. Grounded on the
// teacher's zmachine.go 2OP/VAR switch cases of the same names, generalized
// to return errors instead of panicking.

func opAdd(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, b, dest, err := binaryOperands(m, op, frame)
	if err != nil {
		return err
	}
	return m.writeVariable(dest, a+b, false)
}

func opSub(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, b, dest, err := binaryOperands(m, op, frame)
	if err != nil {
		return err
	}
	return m.writeVariable(dest, a-b, false)
}

func opMul(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, b, dest, err := binaryOperands(m, op, frame)
	if err != nil {
		return err
	}
	return m.writeVariable(dest, a*b, false)
}

func opDiv(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, b, dest, err := binaryOperands(m, op, frame)
	if err != nil {
		return err
	}
	denominator := zcore.ToI16(b)
	if denominator == 0 {
		if m.DivideByZeroHalts {
			return &StackError{Reason: "division by zero"}
		}
		m.warn("division by zero at 0x%x, returning 0", frame.pc)
		return m.writeVariable(dest, 0, false)
	}
	result := zcore.ToI16(a) / denominator
	return m.writeVariable(dest, zcore.ToU16(result), false)
}

func opMod(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, b, dest, err := binaryOperands(m, op, frame)
	if err != nil {
		return err
	}
	denominator := zcore.ToI16(b)
	if denominator == 0 {
		if m.DivideByZeroHalts {
			return &StackError{Reason: "modulo by zero"}
		}
		m.warn("modulo by zero at 0x%x, returning 0", frame.pc)
		return m.writeVariable(dest, 0, false)
	}
	result := zcore.ToI16(a) % denominator
	return m.writeVariable(dest, zcore.ToU16(result), false)
}

// test implements 2OP:7, the bitflags test: branches if every bit set in b
// is also set in a.
func opTest(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	b, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	return m.handleBranch(frame, a&b == b)
}

func opAnd(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, b, dest, err := binaryOperands(m, op, frame)
	if err != nil {
		return err
	}
	return m.writeVariable(dest, a&b, false)
}

func opOr(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, b, dest, err := binaryOperands(m, op, frame)
	if err != nil {
		return err
	}
	return m.writeVariable(dest, a|b, false)
}

func opNot(m *Machine, op *Opcode, frame *CallStackFrame) error {
	a, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	return m.writeVariable(dest, ^a, false)
}

func opLogShift(m *Machine, op *Opcode, frame *CallStackFrame) error {
	num, placesRaw, dest, err := binaryOperands(m, op, frame)
	if err != nil {
		return err
	}
	places := zcore.ToI16(placesRaw)
	var result uint16
	if places >= 0 {
		result = num << uint16(places)
	} else {
		result = num >> uint16(-places)
	}
	return m.writeVariable(dest, result, false)
}

func opArtShift(m *Machine, op *Opcode, frame *CallStackFrame) error {
	numRaw, placesRaw, dest, err := binaryOperands(m, op, frame)
	if err != nil {
		return err
	}
	num := zcore.ToI16(numRaw)
	places := zcore.ToI16(placesRaw)
	var result int16
	if places >= 0 {
		result = num << uint16(places)
	} else {
		result = num >> uint16(-places)
	}
	return m.writeVariable(dest, zcore.ToU16(result), false)
}

// random(range): positive range returns a uniform value in 1..range;
// range<=0 reseeds deterministically from range and returns 0 (spec.md
// 4.7/8's documented boundary behaviour).
func opRandom(m *Machine, op *Opcode, frame *CallStackFrame) error {
	rangeRaw, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	n := zcore.ToI16(rangeRaw)
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}

	if n <= 0 {
		m.rng.Seed(int64(n))
		return m.writeVariable(dest, 0, false)
	}
	result := uint16(m.rng.Int31n(int32(n))) + 1
	return m.writeVariable(dest, result, false)
}

// binaryOperands fetches the two 2OP operand values plus the store byte
// that follows them, the common shape of every arithmetic/logic opcode.
func binaryOperands(m *Machine, op *Opcode, frame *CallStackFrame) (a, b uint16, dest uint8, err error) {
	a, err = op.Operands[0].Value(m)
	if err != nil {
		return
	}
	b, err = op.Operands[1].Value(m)
	if err != nil {
		return
	}
	dest, err = m.readIncPC(frame)
	return
}
