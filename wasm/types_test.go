package wasm

import (
	"testing"

	"github.com/anvm-go/linkvm/value"
)

func TestFuncTypeEqual(t *testing.T) {
	a := FuncType{Params: []value.Type{value.I32, value.I32}, Results: []value.Type{value.I32}}
	b := FuncType{Params: []value.Type{value.I32, value.I32}, Results: []value.Type{value.I32}}
	c := FuncType{Params: []value.Type{value.I32}, Results: []value.Type{value.I32}}

	if !a.Equal(b) {
		t.Errorf("expected a.Equal(b)")
	}
	if a.Equal(c) {
		t.Errorf("expected !a.Equal(c)")
	}
}

func TestModuleFuncTypeOf(t *testing.T) {
	m := &Module{
		Types: []FuncType{
			{Params: []value.Type{value.I32}, Results: []value.Type{value.I32}},
			{Params: nil, Results: nil},
		},
		Funcs: []uint32{1, 0},
	}
	if got := m.FuncTypeOf(0); !got.Equal(m.Types[1]) {
		t.Errorf("FuncTypeOf(0) = %+v, want %+v", got, m.Types[1])
	}
	if got := m.FuncTypeOf(1); !got.Equal(m.Types[0]) {
		t.Errorf("FuncTypeOf(1) = %+v, want %+v", got, m.Types[0])
	}
}

func TestModuleImportedFuncCount(t *testing.T) {
	m := &Module{
		Imports: []Import{
			{Kind: ExternFunc},
			{Kind: ExternMemory},
			{Kind: ExternFunc},
			{Kind: ExternGlobal},
		},
	}
	if got := m.ImportedFuncCount(); got != 2 {
		t.Errorf("ImportedFuncCount() = %d, want 2", got)
	}
}

func TestNativeModuleRegisterDedupesTypes(t *testing.T) {
	nm := NewNativeModule("env")
	ft := FuncType{Params: []value.Type{value.I32, value.I32}, Results: []value.Type{value.I32}}
	nm.Register("add", ft, func(args []value.Value) ([]value.Value, error) {
		return []value.Value{value.I32Value(args[0].I32() + args[1].I32())}, nil
	})
	nm.Register("sub", FuncType{Params: []value.Type{value.I32, value.I32}, Results: []value.Type{value.I32}},
		func(args []value.Value) ([]value.Value, error) { return nil, nil })

	if len(nm.Types) != 1 {
		t.Fatalf("len(Types) = %d, want 1 (structurally equal signatures should dedupe)", len(nm.Types))
	}

	fn, ok := nm.Find("add")
	if !ok {
		t.Fatal("Find(add) not found")
	}
	results, err := fn.Fn([]value.Value{value.I32Value(2), value.I32Value(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].I32() != 5 {
		t.Errorf("add(2,3) = %d, want 5", results[0].I32())
	}

	if _, ok := nm.Find("missing"); ok {
		t.Error("Find(missing) should report false")
	}
}

func TestConstantExprIsGlobalGet(t *testing.T) {
	idx := uint32(3)
	ce := ConstantExpr{GlobalGet: &idx}
	if !ce.IsGlobalGet() {
		t.Error("expected IsGlobalGet() true")
	}
	v := value.I32Value(7)
	ce2 := ConstantExpr{Const: &v}
	if ce2.IsGlobalGet() {
		t.Error("expected IsGlobalGet() false for a const expression")
	}
}
