package zmachine

import "zmrun/zobject"

// Object/attribute/property opcodes. Grounded on the teacher's zmachine.go
// switch cases of the same names, rebuilt against the zobject package's
// error-returning accessors instead of zobject.GetObject's panic-on-error
// style.

func opGetSibling(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	obj, err := zobject.Load(m.Memory, objId)
	if err != nil {
		return err
	}
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	if err := m.writeVariable(dest, obj.Sibling, false); err != nil {
		return err
	}
	return m.handleBranch(frame, obj.Sibling != 0)
}

func opGetChild(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	obj, err := zobject.Load(m.Memory, objId)
	if err != nil {
		return err
	}
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	if err := m.writeVariable(dest, obj.Child, false); err != nil {
		return err
	}
	return m.handleBranch(frame, obj.Child != 0)
}

func opGetParent(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	obj, err := zobject.Load(m.Memory, objId)
	if err != nil {
		return err
	}
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	return m.writeVariable(dest, obj.Parent, false)
}

func opJin(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	parentId, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	obj, err := zobject.Load(m.Memory, objId)
	if err != nil {
		return err
	}
	return m.handleBranch(frame, obj.Parent == parentId)
}

func opTestAttr(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	attr, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	obj, err := zobject.Load(m.Memory, objId)
	if err != nil {
		return err
	}
	return m.handleBranch(frame, obj.TestAttribute(attr))
}

func opSetAttr(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	attr, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	obj, err := zobject.Load(m.Memory, objId)
	if err != nil {
		return err
	}
	return obj.SetAttribute(m.Memory, attr)
}

func opClearAttr(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	attr, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	obj, err := zobject.Load(m.Memory, objId)
	if err != nil {
		return err
	}
	return obj.ClearAttribute(m.Memory, attr)
}

func opInsertObj(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	destId, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	return zobject.Insert(m.Memory, objId, destId)
}

func opRemoveObj(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	return zobject.Unlink(m.Memory, objId)
}

func opPrintObj(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	name, err := m.objectName(objId)
	if err != nil {
		return err
	}
	return m.appendText(name)
}

// get_prop_len takes a property *data* address (not an object/property
// pair) and reports that property's length - recover the size byte that
// precedes the data address to do so.
func opGetPropLen(m *Machine, op *Opcode, frame *CallStackFrame) error {
	addr, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	if addr == 0 {
		return m.writeVariable(dest, 0, false)
	}
	length, err := zobject.PropertyLengthAtDataAddress(m.Memory, uint32(addr))
	if err != nil {
		return err
	}
	return m.writeVariable(dest, uint16(length), false)
}

func opGetProp(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	propId, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	obj, err := zobject.Load(m.Memory, objId)
	if err != nil {
		return err
	}
	if prop, err := obj.GetProperty(m.Memory, uint8(propId)); err == nil && prop.Length > 2 {
		m.warn("get_prop on object %d property %d: property is %d bytes, returning only the first word", objId, propId, prop.Length)
	}
	value, err := obj.GetPropertyValue(m.Memory, uint8(propId))
	if err != nil {
		return err
	}
	return m.writeVariable(dest, value, false)
}

func opGetPropAddr(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	propId, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	obj, err := zobject.Load(m.Memory, objId)
	if err != nil {
		return err
	}
	addr, err := obj.GetPropertyAddress(m.Memory, uint8(propId))
	if err != nil {
		return err
	}
	return m.writeVariable(dest, uint16(addr), false)
}

func opGetNextProp(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	propId, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	obj, err := zobject.Load(m.Memory, objId)
	if err != nil {
		return err
	}
	next, err := obj.GetNextProperty(m.Memory, uint8(propId))
	if err != nil {
		return err
	}
	return m.writeVariable(dest, uint16(next), false)
}

func opPutProp(m *Machine, op *Opcode, frame *CallStackFrame) error {
	objId, err := op.Operands[0].Value(m)
	if err != nil {
		return err
	}
	propId, err := op.Operands[1].Value(m)
	if err != nil {
		return err
	}
	value, err := op.Operands[2].Value(m)
	if err != nil {
		return err
	}
	obj, err := zobject.Load(m.Memory, objId)
	if err != nil {
		return err
	}
	return obj.SetProperty(m.Memory, uint8(propId), value)
}
