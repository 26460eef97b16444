package instance

import (
	"testing"

	"github.com/anvm-go/linkvm/wasm"
)

func TestTableGetSetAndBounds(t *testing.T) {
	tbl := NewTable(wasm.TableType{Limits: wasm.Limits{Min: 2}})
	if got := tbl.Size(); got != 2 {
		t.Fatalf("Size() = %d, want 2", got)
	}
	tbl.Set(0, FuncRef{ModuleIndex: 1, FuncIndex: 3, Valid: true})

	ref, err := tbl.Get(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ref.Valid || ref.FuncIndex != 3 {
		t.Errorf("Get(0) = %+v, want FuncIndex=3 Valid=true", ref)
	}

	zero, err := tbl.Get(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if zero.Valid {
		t.Error("uninitialized slot should be the null reference")
	}

	if _, err := tbl.Get(5); err == nil {
		t.Error("expected OutOfBoundsTable error")
	}
}

func TestTableGrow(t *testing.T) {
	tbl := NewTable(wasm.TableType{Limits: wasm.Limits{Min: 1, Max: 1, HasMax: true}})
	if _, ok := tbl.Grow(1); ok {
		t.Error("Grow past max should fail")
	}
}
