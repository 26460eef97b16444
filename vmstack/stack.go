package vmstack

import (
	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

// InfoSegmentItemCount is the fixed number of cells a call frame's
// info segment occupies. It is a package
// invariant, not configurable: the interpreter relies on it to derive
// a frame's operand count from base_pointer and the stack's size.
const InfoSegmentItemCount = 7

// InitialFramePointer is the frame_pointer of the status that precedes
// the outermost call. A restored frame_pointer equal to it does not by
// itself mean the program has ended, since the outermost call can
// start at stack position 0 too; package interp detects program end by
// its control stack emptying.
const InitialFramePointer uint32 = 0

// FrameInfo is the decoded content of one info segment: the caller's
// status immediately before the frame being exited was entered, plus
// that frame's own block type. Package interp writes BlockTypeEmpty
// here for call frames and type-checks results from its own control
// stack, not from this field.
type FrameInfo struct {
	PrevFramePointer    uint32
	PrevLocalPointer    uint32
	PrevBasePointer      uint32
	ReturnModuleIndex    uint32
	ReturnFunctionIndex  uint32
	ReturnAddress        uint32
	FrameType            wasm.BlockType
}

// Stack is the flat, value-semantic operand stack shared by every
// active frame of a single interpreter run.
type Stack struct {
	cells []value.Value
}

// New creates an empty stack with a small pre-allocated capacity.
func New() *Stack {
	return &Stack{cells: make([]value.Value, 0, 256)}
}

// GetSize returns the number of cells currently on the stack,
// including every frame's operands, locals, arguments, and info
// segments.
func (s *Stack) GetSize() uint32 { return uint32(len(s.cells)) }

// Push appends a single operand cell.
func (s *Stack) Push(v value.Value) { s.cells = append(s.cells, v) }

// Pop removes and returns the topmost cell.
func (s *Stack) Pop() value.Value {
	n := len(s.cells) - 1
	v := s.cells[n]
	s.cells = s.cells[:n]
	return v
}

// Peek returns the topmost cell without removing it.
func (s *Stack) Peek() value.Value { return s.cells[len(s.cells)-1] }

// PeekValues returns (without removing) the top n cells, in stack
// order (oldest first).
func (s *Stack) PeekValues(n int) []value.Value {
	start := len(s.cells) - n
	out := make([]value.Value, n)
	copy(out, s.cells[start:])
	return out
}

// PopValues removes and returns the top n cells, in stack order.
func (s *Stack) PopValues(n int) []value.Value {
	vs := s.PeekValues(n)
	s.cells = s.cells[:len(s.cells)-n]
	return vs
}

// At returns the cell at absolute index i without bounds adjustment;
// used to address a frame's argument/local region via base_pointer.
func (s *Stack) At(i uint32) value.Value { return s.cells[i] }

// Set overwrites the cell at absolute index i.
func (s *Stack) Set(i uint32, v value.Value) { s.cells[i] = v }

// Truncate shrinks the stack to size n, discarding everything above.
func (s *Stack) Truncate(n uint32) { s.cells = s.cells[:n] }

// PushFrameInfo appends the current frame's info segment: the status
// the caller should be restored to when this frame is popped.
func (s *Stack) PushFrameInfo(info FrameInfo) {
	s.Push(value.I32Value(info.PrevFramePointer))
	s.Push(value.I32Value(info.PrevLocalPointer))
	s.Push(value.I32Value(info.PrevBasePointer))
	s.Push(value.I32Value(info.ReturnModuleIndex))
	s.Push(value.I32Value(info.ReturnFunctionIndex))
	s.Push(value.I32Value(info.ReturnAddress))
	s.Push(value.I32Value(uint32(int32(info.FrameType))))
}

// PopFrameInfo removes and decodes the topmost info segment. Callers
// must have already removed everything above it (the frame's
// operands) with PopValues.
func (s *Stack) PopFrameInfo() FrameInfo {
	frameType := wasm.BlockType(int32(s.Pop().I32()))
	returnAddress := s.Pop().I32()
	returnFunctionIndex := s.Pop().I32()
	returnModuleIndex := s.Pop().I32()
	prevBasePointer := s.Pop().I32()
	prevLocalPointer := s.Pop().I32()
	prevFramePointer := s.Pop().I32()
	return FrameInfo{
		PrevFramePointer:    prevFramePointer,
		PrevLocalPointer:    prevLocalPointer,
		PrevBasePointer:     prevBasePointer,
		ReturnModuleIndex:   returnModuleIndex,
		ReturnFunctionIndex: returnFunctionIndex,
		ReturnAddress:       returnAddress,
		FrameType:           frameType,
	}
}
