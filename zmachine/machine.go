package zmachine

import (
	"fmt"
	"math/rand"
	"strings"

	"zmrun/zcore"
	"zmrun/zdictionary"
	"zmrun/zobject"
	"zmrun/zstring"
)

// Status is the discriminated execution state spec.md 9 asks for in place
// of coroutine-based suspension: the outer driver pumps Step/Run until it
// observes anything other than StatusRunning, services the suspension, and
// resumes through the matching Resume* entry point.
type Status int

const (
	StatusRunning Status = iota
	StatusAwaitingInput
	StatusAwaitingStorage
	StatusHalted
)

type memoryStream struct {
	baseAddress uint32
	ptr         uint32
}

// streamState tracks which of the four output streams (spec.md 6) are
// currently selected. Grounded on the teacher's zmachine.Streams.
type streamState struct {
	screen        bool
	transcript    bool
	memory        bool
	memoryStreams []memoryStream
	commandScript bool
}

const maxUndoStates = 10

// Machine is the synchronous, coroutine-free Z-machine executor (spec.md
// 4.8/5/9). It owns the memory image and the call stack exclusively; the
// Screen/InputHost/Storage collaborators are narrow capability interfaces
// it calls out to, never shared mutable state.
type Machine struct {
	Memory     *zcore.Memory
	Alphabets  *zstring.Alphabets
	Decoder    *zstring.Decoder
	Dictionary *zdictionary.Dictionary

	Screen  Screen
	Input   InputHost
	Storage Storage

	// DivideByZeroHalts resolves spec.md 9's open question: when false
	// (the default), div/mod by zero returns 0 and emits a Warning instead
	// of halting, matching the "return 0" behaviour the spec's own tests
	// encode.
	DivideByZeroHalts bool

	callStack CallStack
	streams   streamState
	rng       *rand.Rand

	status           Status
	pendingInput     *InputState
	pendingStorage   *StorageRequest
	pendingVar       uint8
	pendingSink      resultSink
	pendingSinkFrame *CallStackFrame

	undo []Snapshot

	originalStory []uint8

	currentInstructionPC uint32
	OnWarning             func(Warning)
}

// NewMachine loads a story image and prepares the initial call frame,
// mirroring the teacher's LoadRom. V6's split routine/string packed
// addressing is honoured for the first instruction exactly as it is for
// every later call.
func NewMachine(storyBytes []uint8, screen Screen, input InputHost, storage Storage) (*Machine, error) {
	mem, err := zcore.NewMemory(storyBytes)
	if err != nil {
		return nil, err
	}

	alphabets, err := zstring.NewAlphabets(mem)
	if err != nil {
		return nil, err
	}

	decoder, err := zstring.NewDecoder(mem)
	if err != nil {
		return nil, err
	}

	dict, err := zdictionary.Parse(mem)
	if err != nil {
		return nil, err
	}

	original := append([]uint8(nil), storyBytes...)

	m := &Machine{
		Memory:        mem,
		Alphabets:     alphabets,
		Decoder:       decoder,
		Dictionary:    dict,
		Screen:        screen,
		Input:         input,
		Storage:       storage,
		rng:           rand.New(rand.NewSource(1)),
		streams:       streamState{screen: true},
		originalStory: original,
	}

	if mem.Header.Version == 6 {
		packed := m.Memory.UnpackAddress(mem.Header.FirstInstruction, zcore.PackedRoutine)
		localCount, err := mem.ReadByte(packed)
		if err != nil {
			return nil, err
		}
		m.callStack.push(CallStackFrame{pc: packed + 1, locals: make([]uint16, localCount)})
	} else {
		m.callStack.push(CallStackFrame{pc: uint32(mem.Header.FirstInstruction), locals: make([]uint16, 0)})
	}

	return m, nil
}

func (m *Machine) pc() (uint32, error) {
	frame, err := m.callStack.peek()
	if err != nil {
		return 0, err
	}
	return frame.pc, nil
}

func (m *Machine) warn(format string, args ...interface{}) {
	if m.OnWarning != nil {
		m.OnWarning(Warning{PC: m.currentInstructionPC, Message: fmt.Sprintf(format, args...)})
	}
}

// readVariable implements load_variable (spec.md 4.5): n==0 pops the
// active frame's sub-stack (or peeks it, for the seven indirect-reference
// opcodes where an indirect target of 0 reads in place without push/pop);
// 1..15 reads a local; 16..255 reads a global.
func (m *Machine) readVariable(variable uint8, indirect bool) (uint16, error) {
	frame, err := m.callStack.peek()
	if err != nil {
		return 0, err
	}

	switch {
	case variable == 0:
		if indirect {
			return frame.peek()
		}
		return frame.pop()
	case variable < 16:
		if int(variable-1) >= len(frame.locals) {
			return 0, &StackError{Reason: "read of non-existent local variable"}
		}
		return frame.locals[variable-1], nil
	default:
		return m.Memory.ReadWord(uint32(m.Memory.Header.GlobalVariableBase) + 2*(uint32(variable)-16))
	}
}

// writeVariable implements store_variable (spec.md 4.5), with the matching
// indirect-in-place semantics for variable 0.
func (m *Machine) writeVariable(variable uint8, value uint16, indirect bool) error {
	frame, err := m.callStack.peek()
	if err != nil {
		return err
	}

	switch {
	case variable == 0:
		if indirect {
			if _, err := frame.pop(); err != nil {
				return err
			}
		}
		frame.push(value)
		return nil
	case variable < 16:
		if int(variable-1) >= len(frame.locals) {
			return &StackError{Reason: "write to non-existent local variable"}
		}
		frame.locals[variable-1] = value
		return nil
	default:
		return m.Memory.WriteWordUnprotected(uint32(m.Memory.Header.GlobalVariableBase)+2*(uint32(variable)-16), value)
	}
}

// branchSpec is a decoded branch specifier (spec.md 4.6), read but not yet
// resolved against a condition - split out of handleBranch so save/restore
// can read the sink ahead of a storage round-trip and resolve it afterwards.
type branchSpec struct {
	branchOnTrue bool
	offset       int32
}

func (m *Machine) readBranchSpec(frame *CallStackFrame) (branchSpec, error) {
	b1, err := m.readIncPC(frame)
	if err != nil {
		return branchSpec{}, err
	}

	branchOnTrue := (b1>>7)&1 == 1
	singleByte := (b1>>6)&1 == 1
	offset := int32(b1 & 0b0011_1111)

	if !singleByte {
		b2, err := m.readIncPC(frame)
		if err != nil {
			return branchSpec{}, err
		}
		raw := uint16(b1&0b0011_1111)<<8 | uint16(b2)
		offset = int32(int16(raw<<2)) >> 2
	}

	return branchSpec{branchOnTrue: branchOnTrue, offset: offset}, nil
}

// resolveBranch applies a previously read branchSpec against a condition:
// falls through, jumps by the decoded offset, or returns 0/1 from the
// current routine for the 0/1 special offsets.
func (m *Machine) resolveBranch(frame *CallStackFrame, spec branchSpec, result bool) error {
	if result != spec.branchOnTrue {
		return nil
	}

	switch spec.offset {
	case 0:
		return m.retValue(0)
	case 1:
		return m.retValue(1)
	default:
		frame.pc = uint32(int32(frame.pc) + spec.offset - 2)
		return nil
	}
}

// handleBranch reads the branch specifier following an opcode's operands
// (spec.md 4.6) and resolves it immediately against result.
func (m *Machine) handleBranch(frame *CallStackFrame, result bool) error {
	spec, err := m.readBranchSpec(frame)
	if err != nil {
		return err
	}
	return m.resolveBranch(frame, spec, result)
}

// resultSink is either a store variable or a branch specifier, read up
// front so save/restore/save_undo/restore_undo can decode their sink before
// a storage round-trip and apply it once the result is known (spec.md
// 4.9's save/restore success codes, or V1-3's branch-on-success form).
type resultSink struct {
	isBranch bool
	destVar  uint8
	branch   branchSpec
}

// readResultSink reads a store variable (V4+) or branch specifier (V1-3)
// for the handful of opcodes whose sink form is version-dependent rather
// than fixed by the opcode table.
func (m *Machine) readResultSink(frame *CallStackFrame, version uint8) (resultSink, error) {
	if version <= 3 {
		spec, err := m.readBranchSpec(frame)
		if err != nil {
			return resultSink{}, err
		}
		return resultSink{isBranch: true, branch: spec}, nil
	}
	dest, err := m.readIncPC(frame)
	if err != nil {
		return resultSink{}, err
	}
	return resultSink{destVar: dest}, nil
}

// applyResultSink writes value to a store sink, or treats value != 0 as the
// branch condition for a branch sink.
func (m *Machine) applyResultSink(frame *CallStackFrame, sink resultSink, value uint16) error {
	if sink.isBranch {
		return m.resolveBranch(frame, sink.branch, value != 0)
	}
	return m.writeVariable(sink.destVar, value, false)
}

// call implements call_routine (spec.md 4.5): pushes a new frame, applies
// the routine header's default locals (V<=4) or zeroes (V>=5), and
// overwrites the first min(args, locals) of them with the caller's operand
// values. When the routine address is 0, no call is made; a function call
// stores 0 in its result variable, a procedure/interrupt call does nothing.
func (m *Machine) call(opcode *Opcode, routineType RoutineType) error {
	frame, err := m.callStack.peek()
	if err != nil {
		return err
	}

	routineOperand, err := opcode.Operands[0].Value(m)
	if err != nil {
		return err
	}
	routineAddress := m.Memory.UnpackAddress(routineOperand, zcore.PackedRoutine)

	if routineAddress == 0 {
		if routineType == RoutineFunction {
			dest, err := m.readIncPC(frame)
			if err != nil {
				return err
			}
			return m.writeVariable(dest, 0, false)
		}
		return nil
	}

	localCount, err := m.Memory.ReadByte(routineAddress)
	if err != nil {
		return err
	}
	routineAddress++

	locals := make([]uint16, localCount)
	for i := 0; i < int(localCount); i++ {
		if i+1 < len(opcode.Operands) {
			v, err := opcode.Operands[i+1].Value(m)
			if err != nil {
				return err
			}
			locals[i] = v
		} else if m.Memory.Header.Version < 5 {
			v, err := m.Memory.ReadWord(routineAddress)
			if err != nil {
				return err
			}
			locals[i] = v
		}

		if m.Memory.Header.Version < 5 {
			routineAddress += 2
		}
	}

	m.callStack.push(CallStackFrame{
		pc:              routineAddress,
		locals:          locals,
		routineStack:    make([]uint16, 0),
		routineType:     routineType,
		numValuesPassed: len(opcode.Operands) - 1,
	})
	return nil
}

// retValue implements return(v) (spec.md 4.5): pops the callee frame and,
// if it was entered as a function call, stores v in the caller's result
// variable.
func (m *Machine) retValue(v uint16) error {
	callee, err := m.callStack.pop()
	if err != nil {
		return err
	}
	if callee.routineType != RoutineFunction {
		return nil
	}
	caller, err := m.callStack.peek()
	if err != nil {
		return err
	}
	dest, err := m.readIncPC(caller)
	if err != nil {
		return err
	}
	return m.writeVariable(dest, v, false)
}

// appendText routes decoded/printed text to whichever output streams are
// currently selected (spec.md 6's output_stream); stream 3 (memory) is
// exclusive - while selected, no other stream receives the text.
func (m *Machine) appendText(s string) error {
	if m.streams.memory {
		cur := &m.streams.memoryStreams[len(m.streams.memoryStreams)-1]
		for i := 0; i < len(s); i++ {
			if err := m.Memory.WriteByteUnprotected(cur.ptr, s[i]); err != nil {
				return err
			}
			cur.ptr++
		}
		return nil
	}

	if m.streams.screen && m.Screen != nil {
		m.Screen.Print(s)
	}

	// Transcript/command-script streams route the same text to a host-side
	// log; the core has nothing further to validate once screen output (or
	// memory capture) above has happened, so both are no-ops here.
	return nil
}

// tokeniseWord encodes the raw bytes of a single token and looks it up in
// the dictionary, mirroring the teacher's tokeniseSingleWord.
func (m *Machine) tokeniseWord(raw []uint8, wordStart uint32, dict *zdictionary.Dictionary) (uint16, error) {
	encoded := zstring.EncodeWord(m.Memory, m.Alphabets, strings.ToLower(string(raw)))
	packed := make([]uint8, 0, len(encoded)*2)
	for _, w := range encoded {
		packed = append(packed, uint8(w>>8), uint8(w))
	}
	return dict.Find(packed), nil
}

// parseToken is one word recognised during tokenise: its raw bytes, where
// it starts in the text buffer, and its resolved dictionary address (0 if
// not found).
type parseToken struct {
	bytes []uint8
	start uint32
	addr  uint16
}

// tokenise implements the tokenise opcode's shared logic with sread's
// implicit tokenisation (spec.md 4.4/4.10), splitting the text buffer's
// contents on spaces and the dictionary's input-code separators and
// writing dictionary-address/length/position triples into the parse
// buffer.
func (m *Machine) tokenise(textBufferAddr uint32, parseBufferAddr uint32, dict *zdictionary.Dictionary) error {
	start := textBufferAddr + 1
	if m.Memory.Header.Version >= 5 {
		start++
	}

	maxTextLen := uint32(0)
	if m.Memory.Header.Version >= 5 {
		n, err := m.Memory.ReadByte(textBufferAddr + 1)
		if err != nil {
			return err
		}
		maxTextLen = uint32(n)
	}

	var tokens []parseToken
	wordStart := start
	cur := start

	flush := func(end uint32) error {
		if end <= wordStart {
			return nil
		}
		raw, err := m.Memory.ReadSlice(wordStart, end-wordStart)
		if err != nil {
			return err
		}
		addr, err := m.tokeniseWord(raw, wordStart, dict)
		if err != nil {
			return err
		}
		tokens = append(tokens, parseToken{bytes: raw, start: wordStart, addr: addr})
		return nil
	}

	flushSeparator := func(at uint32) error {
		raw, err := m.Memory.ReadSlice(at, 1)
		if err != nil {
			return err
		}
		addr, err := m.tokeniseWord(raw, at, dict)
		if err != nil {
			return err
		}
		tokens = append(tokens, parseToken{bytes: raw, start: at, addr: addr})
		return nil
	}

	for {
		var chr uint8
		var err error
		if m.Memory.Header.Version >= 5 && cur-start >= maxTextLen {
			break
		}
		chr, err = m.Memory.ReadByte(cur)
		if err != nil {
			return err
		}
		if m.Memory.Header.Version < 5 && chr == 0 {
			break
		}

		isSeparator := false
		for _, sep := range m.Dictionary.Header.InputCodes {
			if chr == sep {
				isSeparator = true
				break
			}
		}

		if chr == ' ' {
			if err := flush(cur); err != nil {
				return err
			}
			wordStart = cur + 1
		} else if isSeparator {
			if err := flush(cur); err != nil {
				return err
			}
			if err := flushSeparator(cur); err != nil {
				return err
			}
			wordStart = cur + 1
		}

		cur++
	}
	if err := flush(cur); err != nil {
		return err
	}

	maxTokens, err := m.Memory.ReadByte(parseBufferAddr)
	if err != nil {
		return err
	}
	if int(maxTokens) < len(tokens) {
		tokens = tokens[:maxTokens]
	}

	ptr := parseBufferAddr + 1
	if err := m.Memory.WriteByteUnprotected(ptr, uint8(len(tokens))); err != nil {
		return err
	}
	ptr++
	for _, tk := range tokens {
		if err := m.Memory.WriteWordUnprotected(ptr, tk.addr); err != nil {
			return err
		}
		if err := m.Memory.WriteByteUnprotected(ptr+2, uint8(len(tk.bytes))); err != nil {
			return err
		}
		if err := m.Memory.WriteByteUnprotected(ptr+3, uint8(tk.start-textBufferAddr)); err != nil {
			return err
		}
		ptr += 4
	}

	return nil
}

// objectName decodes an object's short name, used by print_obj and the V1-3
// status bar.
func (m *Machine) objectName(objId uint16) (string, error) {
	return zobject.Name(m.Memory, m.Decoder, objId)
}
