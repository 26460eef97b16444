package instance

import (
	"github.com/anvm-go/linkvm/errors"
	"github.com/anvm-go/linkvm/wasm"
)

// FuncRef identifies a linked function by its position in the
// engine-wide module/function index space. The zero value is the
// null reference.
type FuncRef struct {
	ModuleIndex uint32
	FuncIndex   uint32
	Valid       bool
}

// Table is a growable funcref table.
type Table struct {
	declared wasm.TableType
	slots    []FuncRef
	max      uint32
	hasMax   bool
}

// NewTable creates a table sized to tt's minimum, every slot starting
// out null.
func NewTable(tt wasm.TableType) *Table {
	return &Table{
		declared: tt,
		slots:    make([]FuncRef, tt.Limits.Min),
		max:      tt.Limits.Max,
		hasMax:   tt.Limits.HasMax,
	}
}

// Type returns the table's declared type, as recorded at construction
// time — the fixed value import resolution checks an importer's
// declared type against (spec.md §4.2), not the table's live,
// possibly-grown size.
func (t *Table) Type() wasm.TableType { return t.declared }

// Size returns the table's current element count.
func (t *Table) Size() uint32 { return uint32(len(t.slots)) }

// Grow attempts to add delta slots, filled with the null reference.
func (t *Table) Grow(delta uint32) (previous uint32, ok bool) {
	previous = t.Size()
	if t.hasMax && previous+delta > t.max {
		return previous, false
	}
	t.slots = append(t.slots, make([]FuncRef, delta)...)
	return previous, true
}

// Get returns the function reference at index, or an
// OutOfBoundsTable error if index is out of range.
func (t *Table) Get(index uint32) (FuncRef, error) {
	if index >= uint32(len(t.slots)) {
		return FuncRef{}, errors.OutOfBoundsTable(index)
	}
	return t.slots[index], nil
}

// Set installs ref at index without a bounds check; the caller
// validates the index first (runtime's element-segment installation
// checks each segment's range against Size before calling Set).
func (t *Table) Set(index uint32, ref FuncRef) { t.slots[index] = ref }
