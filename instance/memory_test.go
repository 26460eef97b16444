package instance

import (
	"testing"

	"github.com/anvm-go/linkvm/wasm"
)

func TestMemoryReadWrite(t *testing.T) {
	m := NewMemory(wasm.MemoryType{Limits: wasm.Limits{Min: 1}})
	if got := m.Pages(); got != 1 {
		t.Fatalf("Pages() = %d, want 1", got)
	}
	m.WriteUint32(0, 0xdeadbeef)
	if got := m.ReadUint32(0); got != 0xdeadbeef {
		t.Errorf("ReadUint32(0) = %x, want deadbeef", got)
	}
	m.WriteByte(4, 0x7f)
	if got := m.ReadByte(4); got != 0x7f {
		t.Errorf("ReadByte(4) = %x, want 7f", got)
	}
}

func TestMemoryGrowRespectsMax(t *testing.T) {
	m := NewMemory(wasm.MemoryType{Limits: wasm.Limits{Min: 1, Max: 2, HasMax: true}})
	prev, ok := m.Grow(1)
	if !ok || prev != 1 {
		t.Fatalf("Grow(1) = (%d, %v), want (1, true)", prev, ok)
	}
	if got := m.Pages(); got != 2 {
		t.Fatalf("Pages() = %d, want 2", got)
	}
	if _, ok := m.Grow(1); ok {
		t.Error("Grow past max should fail")
	}
}

func TestMemoryValidateAddrRange(t *testing.T) {
	m := NewMemory(wasm.MemoryType{Limits: wasm.Limits{Min: 1}})
	if err := m.ValidateAddrRange(0, 4); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := m.ValidateAddrRange(PageSize-2, 4); err == nil {
		t.Error("expected out-of-bounds error")
	}
}
