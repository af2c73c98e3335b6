package zmachine

// FrameSnapshot is one call frame's state as captured for save/restore,
// independent of quetzal's on-disk encoding of the same fields (spec.md
// 4.9's Stks chunk: return PC, result variable, argument bitmap, locals,
// eval sub-stack).
type FrameSnapshot struct {
	ReturnPC     uint32
	ArgCount     int
	Locals       []uint16
	EvalStack    []uint16
	RoutineType  RoutineType
	FramePointer uint32
}

// Snapshot is the machine's full state as captured by save/save_undo
// (spec.md 4.9's capture step): dynamic memory, the call-frame stack, and
// the current pc. Grounded on the teacher's savestates.go
// captureState/applyState split, generalized away from that file's ad hoc
// "GOZM" wire format - quetzal and storage own the wire encoding, this type
// is the in-memory shape both quetzal.Encode and the undo ring operate on.
type Snapshot struct {
	DynamicMemory []uint8
	Frames        []FrameSnapshot
	PC            uint32
}

// captureSnapshot copies dynamic memory and deep-copies every live frame.
func (m *Machine) captureSnapshot() (Snapshot, error) {
	dyn, err := m.Memory.ReadSlice(0, m.Memory.DynamicEnd())
	if err != nil {
		return Snapshot{}, err
	}
	dynCopy := append([]uint8(nil), dyn...)

	frames := make([]FrameSnapshot, len(m.callStack.frames))
	for i, f := range m.callStack.frames {
		frames[i] = FrameSnapshot{
			ReturnPC:       f.pc,
			ArgCount:       f.numValuesPassed,
			Locals:         append([]uint16(nil), f.locals...),
			EvalStack:      append([]uint16(nil), f.routineStack...),
			RoutineType:    f.routineType,
			FramePointer:   f.framePointer,
		}
	}

	pc, err := m.pc()
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{DynamicMemory: dynCopy, Frames: frames, PC: pc}, nil
}

// applySnapshot overwrites dynamic memory and the call stack with a
// previously captured snapshot. Static/high memory and the story header are
// never touched, matching spec.md 4.9's "restore dynamic memory" scope.
func (m *Machine) applySnapshot(snap Snapshot) error {
	if err := m.Memory.RestoreDynamic(snap.DynamicMemory); err != nil {
		return err
	}

	frames := make([]CallStackFrame, len(snap.Frames))
	for i, f := range snap.Frames {
		frames[i] = CallStackFrame{
			pc:              f.ReturnPC,
			locals:          append([]uint16(nil), f.Locals...),
			routineStack:    append([]uint16(nil), f.EvalStack...),
			routineType:     f.RoutineType,
			numValuesPassed: f.ArgCount,
			framePointer:    f.FramePointer,
		}
	}
	m.callStack = CallStack{frames: frames}
	return nil
}
