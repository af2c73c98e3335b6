package zmachine

import "zmrun/zcore"

// Save/restore family, verify, piracy, restart, quit. Grounded on the
// teacher's zmachine.go OP0 cases (VERIFY/PIRACY/QUIT) and VAR-EXT cases
// (SAVE_UNDO/RESTORE_UNDO), and on savestates.go's capture/apply split,
// generalized from that file's ad hoc GOZM container onto captureSnapshot
// /applySnapshot plus the Storage collaborator.

// opSave implements save (spec.md 4.7/6). Its sink is version-dependent
// (branch on V1-3, store 0/1 on V4+), decoded before the storage round-trip
// so it can be applied however the restore completes. When a Storage
// collaborator is wired, the save happens synchronously (disk/browser-kv
// I/O is an ordinary blocking call, not a suspension point); with none
// wired, the machine suspends on StatusAwaitingStorage for a host that
// wants to service it out of band.
func opSave(m *Machine, op *Opcode, frame *CallStackFrame) error {
	sink, err := m.readResultSink(frame, m.Memory.Header.Version)
	if err != nil {
		return err
	}

	if m.Storage == nil {
		m.pendingSink = sink
		m.pendingSinkFrame = frame
		m.pendingStorage = &StorageRequest{Op: StorageSave}
		m.status = StatusAwaitingStorage
		return nil
	}

	snap, err := m.captureSnapshot()
	if err != nil {
		return err
	}
	if err := m.Storage.SaveSnapshot(snap, ""); err != nil {
		m.warn("save failed: %v", err)
		return m.applyResultSink(frame, sink, 0)
	}
	return m.applyResultSink(frame, sink, 1)
}

// opRestore implements restore. A successful restore discards the current
// sink entirely per the Standard: execution resumes inside the *restored*
// frame, immediately after whatever save call produced that snapshot, so
// there is nothing live to store or branch into. Only failure returns to
// the instruction after restore.
func opRestore(m *Machine, op *Opcode, frame *CallStackFrame) error {
	sink, err := m.readResultSink(frame, m.Memory.Header.Version)
	if err != nil {
		return err
	}

	if m.Storage == nil {
		m.pendingSink = sink
		m.pendingSinkFrame = frame
		m.pendingStorage = &StorageRequest{Op: StorageLoad}
		m.status = StatusAwaitingStorage
		return nil
	}

	snap, err := m.Storage.LoadSnapshot()
	if err != nil {
		m.warn("restore failed: %v", err)
		return m.applyResultSink(frame, sink, 0)
	}
	return m.applySnapshot(snap)
}

// opSaveUndo/opRestoreUndo keep an in-process ring of snapshots (spec.md
// 4.7), entirely separate from the Storage collaborator: undo never leaves
// the process, so it always completes synchronously.
func opSaveUndo(m *Machine, op *Opcode, frame *CallStackFrame) error {
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	snap, err := m.captureSnapshot()
	if err != nil {
		return err
	}
	m.undo = append(m.undo, snap)
	if len(m.undo) > maxUndoStates {
		m.undo = m.undo[len(m.undo)-maxUndoStates:]
	}
	return m.writeVariable(dest, 1, false)
}

func opRestoreUndo(m *Machine, op *Opcode, frame *CallStackFrame) error {
	dest, err := m.readIncPC(frame)
	if err != nil {
		return err
	}
	if len(m.undo) == 0 {
		return m.writeVariable(dest, 0, false)
	}
	snap := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	return m.applySnapshot(snap)
}

// verify computes the checksum the header's Flags2 bit 4 feature and the
// story's declared checksum are compared against: the simple sum, modulo
// 65536, of every byte from just past the header to the end of the file
// (spec.md 4.7).
func opVerify(m *Machine, op *Opcode, frame *CallStackFrame) error {
	length := m.Memory.Header.FileLength()
	if length == 0 || length > uint32(len(m.originalStory)) {
		length = uint32(len(m.originalStory))
	}

	var sum uint32
	for i := uint32(0x40); i < length; i++ {
		sum += uint32(m.originalStory[i])
	}
	checksum := uint16(sum % 65536)
	return m.handleBranch(frame, checksum == m.Memory.Header.FileChecksum)
}

// piracy always branches true: the core performs no copy-protection check
// (spec.md 4.7).
func opPiracy(m *Machine, op *Opcode, frame *CallStackFrame) error {
	return m.handleBranch(frame, true)
}

// restart reloads the original story image, preserving Flags2 bits 0
// (transcript active) and 1 (fixed-pitch forced) across the reset (spec.md
// 5).
func opRestart(m *Machine, op *Opcode, frame *CallStackFrame) error {
	flags2, err := m.Memory.ReadWord(0x10)
	if err != nil {
		return err
	}
	preserved := flags2 & 0b11

	fresh := append([]uint8(nil), m.originalStory...)
	mem, err := zcore.NewMemory(fresh)
	if err != nil {
		return err
	}
	m.Memory = mem

	newFlags2, err := m.Memory.ReadWord(0x10)
	if err != nil {
		return err
	}
	if err := m.Memory.WriteWordUnprotected(0x10, (newFlags2 &^ 0b11) | preserved); err != nil {
		return err
	}

	m.callStack = CallStack{}
	m.streams = streamState{screen: true}
	m.undo = nil

	if m.Memory.Header.Version == 6 {
		packed := m.Memory.UnpackAddress(m.Memory.Header.FirstInstruction, zcore.PackedRoutine)
		localCount, err := m.Memory.ReadByte(packed)
		if err != nil {
			return err
		}
		m.callStack.push(CallStackFrame{pc: packed + 1, locals: make([]uint16, localCount)})
	} else {
		m.callStack.push(CallStackFrame{pc: uint32(m.Memory.Header.FirstInstruction), locals: make([]uint16, 0)})
	}
	return nil
}

// quit halts the machine; the outer driver observes StatusHalted and stops
// pumping Step/Run.
func opQuit(m *Machine, op *Opcode, frame *CallStackFrame) error {
	m.status = StatusHalted
	return nil
}
