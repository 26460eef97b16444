package vmstack

import (
	"testing"

	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

func TestPushPop(t *testing.T) {
	s := New()
	s.Push(value.I32Value(1))
	s.Push(value.I32Value(2))
	if got := s.GetSize(); got != 2 {
		t.Fatalf("GetSize() = %d, want 2", got)
	}
	if got := s.Pop().I32(); got != 2 {
		t.Errorf("Pop() = %d, want 2", got)
	}
	if got := s.Pop().I32(); got != 1 {
		t.Errorf("Pop() = %d, want 1", got)
	}
	if got := s.GetSize(); got != 0 {
		t.Errorf("GetSize() = %d, want 0", got)
	}
}

func TestPeekAndPopValues(t *testing.T) {
	s := New()
	s.Push(value.I32Value(10))
	s.Push(value.I32Value(20))
	s.Push(value.I32Value(30))

	peeked := s.PeekValues(2)
	if len(peeked) != 2 || peeked[0].I32() != 20 || peeked[1].I32() != 30 {
		t.Fatalf("PeekValues(2) = %v, want [20 30]", peeked)
	}
	if got := s.GetSize(); got != 3 {
		t.Errorf("PeekValues must not mutate size, got %d", got)
	}

	popped := s.PopValues(2)
	if len(popped) != 2 || popped[0].I32() != 20 || popped[1].I32() != 30 {
		t.Fatalf("PopValues(2) = %v, want [20 30]", popped)
	}
	if got := s.GetSize(); got != 1 {
		t.Errorf("GetSize() after PopValues = %d, want 1", got)
	}
}

func TestFrameInfoRoundTrip(t *testing.T) {
	s := New()
	s.Push(value.I32Value(99)) // an operand below the info segment

	info := FrameInfo{
		PrevFramePointer:    1,
		PrevLocalPointer:    1,
		PrevBasePointer:     0,
		ReturnModuleIndex:   2,
		ReturnFunctionIndex: 3,
		ReturnAddress:       7,
		FrameType:           wasm.BlockTypeI32,
	}
	s.PushFrameInfo(info)
	if got := s.GetSize(); got != 1+InfoSegmentItemCount {
		t.Fatalf("GetSize() = %d, want %d", got, 1+InfoSegmentItemCount)
	}

	got := s.PopFrameInfo()
	if got != info {
		t.Errorf("PopFrameInfo() = %+v, want %+v", got, info)
	}
	if s.GetSize() != 1 {
		t.Errorf("GetSize() after PopFrameInfo = %d, want 1", s.GetSize())
	}
	if s.Pop().I32() != 99 {
		t.Error("operand below the info segment was corrupted")
	}
}

func TestAtAndSet(t *testing.T) {
	s := New()
	s.Push(value.I32Value(1))
	s.Push(value.I32Value(2))
	s.Set(0, value.I32Value(100))
	if got := s.At(0).I32(); got != 100 {
		t.Errorf("At(0) = %d, want 100", got)
	}
	if got := s.At(1).I32(); got != 2 {
		t.Errorf("At(1) = %d, want 2", got)
	}
}

func TestTruncate(t *testing.T) {
	s := New()
	for i := 0; i < 5; i++ {
		s.Push(value.I32Value(uint32(i)))
	}
	s.Truncate(2)
	if got := s.GetSize(); got != 2 {
		t.Fatalf("GetSize() = %d, want 2", got)
	}
	if got := s.Pop().I32(); got != 1 {
		t.Errorf("Pop() = %d, want 1", got)
	}
}
