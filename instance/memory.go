package instance

import (
	"encoding/binary"

	"github.com/anvm-go/linkvm/errors"
	"github.com/anvm-go/linkvm/wasm"
)

// PageSize is the fixed size, in bytes, of one linear memory page.
const PageSize = 65536

// Memory is a growable linear memory instance.
type Memory struct {
	declared wasm.MemoryType
	data     []byte
	max      uint32 // in pages; only meaningful when hasMax
	hasMax   bool
}

// NewMemory creates a memory instance sized to mt's minimum, carrying
// its maximum (if declared) as a growth ceiling.
func NewMemory(mt wasm.MemoryType) *Memory {
	m := &Memory{declared: mt, hasMax: mt.Limits.HasMax, max: mt.Limits.Max}
	m.data = make([]byte, uint64(mt.Limits.Min)*PageSize)
	return m
}

// Type returns the memory's declared type, as recorded at construction
// time — the fixed value import resolution checks an importer's
// declared type against (spec.md §4.2), not the memory's live,
// possibly-grown size.
func (m *Memory) Type() wasm.MemoryType { return m.declared }

// Pages returns the memory's current size in pages.
func (m *Memory) Pages() uint32 { return uint32(len(m.data) / PageSize) }

// Grow attempts to add delta pages, returning the size in pages
// before the attempt. Returns ok=false (and leaves the memory
// unchanged) if growth would exceed the declared maximum.
func (m *Memory) Grow(delta uint32) (previous uint32, ok bool) {
	previous = m.Pages()
	if m.hasMax && previous+delta > m.max {
		return previous, false
	}
	m.data = append(m.data, make([]byte, uint64(delta)*PageSize)...)
	return previous, true
}

// ValidateAddrRange reports an OutOfBoundsMemory error if the byte
// range [addr, addr+size) is not entirely within the memory.
func (m *Memory) ValidateAddrRange(addr uint32, size uint64) error {
	end := uint64(addr) + size
	if end > uint64(len(m.data)) {
		return errors.OutOfBoundsMemory(addr, size)
	}
	return nil
}

func (m *Memory) ReadByte(addr uint32) byte { return m.data[addr] }
func (m *Memory) WriteByte(addr uint32, v byte) { m.data[addr] = v }

func (m *Memory) ReadUint16(addr uint32) uint16 {
	return binary.LittleEndian.Uint16(m.data[addr:])
}
func (m *Memory) WriteUint16(addr uint32, v uint16) {
	binary.LittleEndian.PutUint16(m.data[addr:], v)
}

func (m *Memory) ReadUint32(addr uint32) uint32 {
	return binary.LittleEndian.Uint32(m.data[addr:])
}
func (m *Memory) WriteUint32(addr uint32, v uint32) {
	binary.LittleEndian.PutUint32(m.data[addr:], v)
}

func (m *Memory) ReadUint64(addr uint32) uint64 {
	return binary.LittleEndian.Uint64(m.data[addr:])
}
func (m *Memory) WriteUint64(addr uint32, v uint64) {
	binary.LittleEndian.PutUint64(m.data[addr:], v)
}

// WriteBytes copies b into the memory starting at addr. Callers must
// validate the range first.
func (m *Memory) WriteBytes(addr uint32, b []byte) { copy(m.data[addr:], b) }

// Bytes exposes the raw backing slice, for introspection (CLI dump,
// tests).
func (m *Memory) Bytes() []byte { return m.data }
