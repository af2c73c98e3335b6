package zmachine

// RoutineType records how a call frame was entered, so retValue knows
// whether to store a result in the caller (function) or discard it
// (procedure/interrupt).
type RoutineType int

const (
	RoutineFunction RoutineType = iota
	RoutineProcedure
	RoutineInterrupt
)

// CallStackFrame is one active routine invocation: its resume point, its
// locals, its private evaluation sub-stack, and enough bookkeeping
// (numValuesPassed, framePointer) for check_arg_count and catch/throw.
// Grounded on the teacher's zmachine/callstack.go, generalized to return a
// typed *StackError on underflow instead of the teacher's warnOnce-and-
// return-zero soft failure - spec.md 4.5/7 call underflow fatal.
type CallStackFrame struct {
	pc              uint32
	routineStack    []uint16
	locals          []uint16
	routineType     RoutineType
	numValuesPassed int
	framePointer    uint32
}

func (f *CallStackFrame) push(v uint16) {
	f.routineStack = append(f.routineStack, v)
}

func (f *CallStackFrame) pop() (uint16, error) {
	if len(f.routineStack) == 0 {
		return 0, &StackError{Reason: "pop from empty evaluation stack"}
	}
	v := f.routineStack[len(f.routineStack)-1]
	f.routineStack = f.routineStack[:len(f.routineStack)-1]
	return v, nil
}

func (f *CallStackFrame) peek() (uint16, error) {
	if len(f.routineStack) == 0 {
		return 0, &StackError{Reason: "peek on empty evaluation stack"}
	}
	return f.routineStack[len(f.routineStack)-1], nil
}

// CallStack is the owning vector of active frames; the topmost frame is the
// one currently executing.
type CallStack struct {
	frames []CallStackFrame
}

func (s *CallStack) push(frame CallStackFrame) {
	s.frames = append(s.frames, frame)
}

func (s *CallStack) pop() (CallStackFrame, error) {
	if len(s.frames) == 0 {
		return CallStackFrame{}, &StackError{Reason: "pop from empty call stack"}
	}
	n := len(s.frames)
	frame := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return frame, nil
}

func (s *CallStack) peek() (*CallStackFrame, error) {
	if len(s.frames) == 0 {
		return nil, &StackError{Reason: "peek on empty call stack"}
	}
	return &s.frames[len(s.frames)-1], nil
}

// depth reports the number of live frames, used by catch (which records the
// current frame index) and throw (which validates and truncates to it).
func (s *CallStack) depth() int {
	return len(s.frames)
}

// truncate discards frames above (and including) the given 0-based index
// minus one entry, leaving exactly frameIndex frames - used by throw.
func (s *CallStack) truncate(frameIndex int) error {
	if frameIndex < 0 || frameIndex > len(s.frames) {
		return &StackError{Reason: "throw to invalid frame index"}
	}
	s.frames = s.frames[:frameIndex]
	return nil
}

// copy deep-copies a call stack and all its frames, used by save_undo.
func (s *CallStack) copy() CallStack {
	out := CallStack{frames: make([]CallStackFrame, len(s.frames))}
	for i, frame := range s.frames {
		copied := CallStackFrame{
			pc:              frame.pc,
			routineType:     frame.routineType,
			numValuesPassed: frame.numValuesPassed,
			framePointer:    frame.framePointer,
			routineStack:    make([]uint16, len(frame.routineStack)),
			locals:          make([]uint16, len(frame.locals)),
		}
		copy(copied.routineStack, frame.routineStack)
		copy(copied.locals, frame.locals)
		out.frames[i] = copied
	}
	return out
}
