package quetzal

import "zmrun/zmachine"

const flagResultNone = 0x10

// encodeStks writes one frame record per live call-stack frame: return PC
// (3 bytes), flags (locals count in the low nibble, 0x10 if this frame has
// no result variable), the result-variable byte, an argument-supplied
// bitmap, the eval sub-stack word count, the locals, then the eval
// sub-stack itself. Frame 0 is the outermost/"main" frame and always
// carries no result variable and no arguments, matching spec.md 4.9's
// dummy top-level frame.
//
// The result variable for frame i (i>0) is the destination byte the
// *caller* (frame i-1) left waiting at its own saved PC - the same
// mechanism zmachine.Machine.retValue uses internally - looked up in
// current dynamic memory if the address falls within it, or the original
// story image otherwise (routine code lives in static/high memory, which
// never changes).
func encodeStks(frames []zmachine.FrameSnapshot, dynamicMemory, original []byte) ([]byte, error) {
	var out []byte
	for i, f := range frames {
		if len(f.Locals) > 15 {
			return nil, &FormatError{Reason: "frame has more than 15 locals"}
		}
		out = append(out, byte(f.ReturnPC>>16), byte(f.ReturnPC>>8), byte(f.ReturnPC))

		hasResult := i > 0 && f.RoutineType == zmachine.RoutineFunction
		flags := byte(len(f.Locals))
		if !hasResult {
			flags |= flagResultNone
		}
		out = append(out, flags)

		var resultVar byte
		if hasResult {
			resultVar = storeByteAt(frames[i-1].ReturnPC, dynamicMemory, original)
		}
		out = append(out, resultVar)

		var argBitmap byte
		if i > 0 {
			for a := 0; a < f.ArgCount && a < 7; a++ {
				argBitmap |= 1 << uint(a)
			}
		}
		out = append(out, argBitmap)

		out = append(out, byte(len(f.EvalStack)>>8), byte(len(f.EvalStack)))
		for _, v := range f.Locals {
			out = append(out, byte(v>>8), byte(v))
		}
		for _, v := range f.EvalStack {
			out = append(out, byte(v>>8), byte(v))
		}
	}
	return out, nil
}

func storeByteAt(addr uint32, dynamicMemory, original []byte) byte {
	if int(addr) < len(dynamicMemory) {
		return dynamicMemory[addr]
	}
	if int(addr) < len(original) {
		return original[addr]
	}
	return 0
}

func decodeStks(payload []byte) ([]zmachine.FrameSnapshot, error) {
	var frames []zmachine.FrameSnapshot
	pos := 0
	for pos < len(payload) {
		if pos+6 > len(payload) {
			return nil, &FormatError{Reason: "truncated Stks frame header"}
		}
		returnPC := uint32(payload[pos])<<16 | uint32(payload[pos+1])<<8 | uint32(payload[pos+2])
		flags := payload[pos+3]
		localsCount := int(flags & 0x0f)
		hasResult := flags&flagResultNone == 0
		argBitmap := payload[pos+5]
		pos += 6

		var routineType zmachine.RoutineType
		if len(frames) == 0 {
			routineType = zmachine.RoutineProcedure
		} else if hasResult {
			routineType = zmachine.RoutineFunction
		} else {
			routineType = zmachine.RoutineProcedure
		}

		argCount := 0
		for a := 0; a < 7; a++ {
			if argBitmap&(1<<uint(a)) != 0 {
				argCount = a + 1
			}
		}

		if pos+2 > len(payload) {
			return nil, &FormatError{Reason: "truncated Stks eval-stack size"}
		}
		evalCount := int(payload[pos])<<8 | int(payload[pos+1])
		pos += 2

		locals := make([]uint16, localsCount)
		for i := range locals {
			if pos+2 > len(payload) {
				return nil, &FormatError{Reason: "truncated Stks locals"}
			}
			locals[i] = uint16(payload[pos])<<8 | uint16(payload[pos+1])
			pos += 2
		}

		evalStack := make([]uint16, evalCount)
		for i := range evalStack {
			if pos+2 > len(payload) {
				return nil, &FormatError{Reason: "truncated Stks eval stack"}
			}
			evalStack[i] = uint16(payload[pos])<<8 | uint16(payload[pos+1])
			pos += 2
		}

		frames = append(frames, zmachine.FrameSnapshot{
			ReturnPC:    returnPC,
			ArgCount:    argCount,
			Locals:      locals,
			EvalStack:   evalStack,
			RoutineType: routineType,
		})
	}
	return frames, nil
}
