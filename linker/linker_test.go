package linker

import (
	"testing"

	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

func voidVoid() wasm.FuncType { return wasm.FuncType{} }

func i32ToI32() wasm.FuncType {
	return wasm.FuncType{Params: []value.Type{value.I32}, Results: []value.Type{value.I32}}
}

func leaf(t wasm.FuncType) *wasm.Module {
	return &wasm.Module{
		Types:   []wasm.FuncType{t},
		Exports: []wasm.Export{{Name: "f", Kind: wasm.ExternFunc, Index: 0}},
		Funcs:   []uint32{0},
		Code:    []wasm.Code{{Instructions: []wasm.Instruction{wasm.Plain(wasm.OpEnd)}}},
	}
}

func TestLinkInternalFunction(t *testing.T) {
	m := leaf(voidVoid())
	r, err := Link(nil, []NamedModule{{Name: "a", Module: m}})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if len(r.Functions) != 1 || len(r.Functions[0]) != 1 {
		t.Fatalf("unexpected function table shape: %+v", r.Functions)
	}
	if _, ok := r.Functions[0][0].(*NormalFunction); !ok {
		t.Fatalf("expected *NormalFunction, got %T", r.Functions[0][0])
	}
}

func TestLinkDirectImport(t *testing.T) {
	provider := leaf(voidVoid())
	importer := &wasm.Module{
		Types:   []wasm.FuncType{voidVoid()},
		Imports: []wasm.Import{{Module: "provider", Name: "f", Kind: wasm.ExternFunc, FuncTypeIndex: 0}},
	}
	r, err := Link(nil, []NamedModule{
		{Name: "provider", Module: provider},
		{Name: "importer", Module: importer},
	})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	item := r.Functions[1][0]
	nf, ok := item.(*NormalFunction)
	if !ok {
		t.Fatalf("expected *NormalFunction, got %T", item)
	}
	if nf.ModuleIndex != 0 {
		t.Fatalf("expected import to resolve into module 0, got %d", nf.ModuleIndex)
	}
}

// TestLinkReExportChain verifies transitive re-export resolution: c
// imports from b, which merely re-exports what it itself imported from
// a, which defines the function.
func TestLinkReExportChain(t *testing.T) {
	a := leaf(voidVoid())
	b := &wasm.Module{
		Types:   []wasm.FuncType{voidVoid()},
		Imports: []wasm.Import{{Module: "a", Name: "f", Kind: wasm.ExternFunc, FuncTypeIndex: 0}},
		Exports: []wasm.Export{{Name: "g", Kind: wasm.ExternFunc, Index: 0}},
	}
	c := &wasm.Module{
		Types:   []wasm.FuncType{voidVoid()},
		Imports: []wasm.Import{{Module: "b", Name: "g", Kind: wasm.ExternFunc, FuncTypeIndex: 0}},
	}
	r, err := Link(nil, []NamedModule{
		{Name: "a", Module: a},
		{Name: "b", Module: b},
		{Name: "c", Module: c},
	})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	item := r.Functions[2][0]
	nf, ok := item.(*NormalFunction)
	if !ok {
		t.Fatalf("expected *NormalFunction, got %T", item)
	}
	if nf.ModuleIndex != 0 {
		t.Fatalf("chain should bottom out at module 0 (a), got module %d", nf.ModuleIndex)
	}
}

func TestLinkCyclicReExportFails(t *testing.T) {
	a := &wasm.Module{
		Types:   []wasm.FuncType{voidVoid()},
		Imports: []wasm.Import{{Module: "b", Name: "g", Kind: wasm.ExternFunc, FuncTypeIndex: 0}},
		Exports: []wasm.Export{{Name: "f", Kind: wasm.ExternFunc, Index: 0}},
	}
	b := &wasm.Module{
		Types:   []wasm.FuncType{voidVoid()},
		Imports: []wasm.Import{{Module: "a", Name: "f", Kind: wasm.ExternFunc, FuncTypeIndex: 0}},
		Exports: []wasm.Export{{Name: "g", Kind: wasm.ExternFunc, Index: 0}},
	}
	_, err := Link(nil, []NamedModule{
		{Name: "a", Module: a},
		{Name: "b", Module: b},
	})
	if err == nil {
		t.Fatal("expected CyclicImport error, got nil")
	}
}

func TestLinkNativeImport(t *testing.T) {
	nm := wasm.NewNativeModule("host")
	nm.Register("add", i32ToI32(), func(args []value.Value) ([]value.Value, error) {
		return []value.Value{value.I32Value(args[0].I32() + 1)}, nil
	})
	importer := &wasm.Module{
		Types:   []wasm.FuncType{i32ToI32()},
		Imports: []wasm.Import{{Module: "host", Name: "add", Kind: wasm.ExternFunc, FuncTypeIndex: 0}},
	}
	r, err := Link([]*wasm.NativeModule{nm}, []NamedModule{{Name: "importer", Module: importer}})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if _, ok := r.Functions[0][0].(*NativeFunction); !ok {
		t.Fatalf("expected *NativeFunction, got %T", r.Functions[0][0])
	}
}

func TestLinkImportedFunctionTypeMismatch(t *testing.T) {
	provider := leaf(voidVoid())
	importer := &wasm.Module{
		Types:   []wasm.FuncType{i32ToI32()},
		Imports: []wasm.Import{{Module: "provider", Name: "f", Kind: wasm.ExternFunc, FuncTypeIndex: 0}},
	}
	_, err := Link(nil, []NamedModule{
		{Name: "provider", Module: provider},
		{Name: "importer", Module: importer},
	})
	if err == nil {
		t.Fatal("expected type mismatch error, got nil")
	}
}

func TestLinkUnsupportedMultipleTable(t *testing.T) {
	m := &wasm.Module{
		Tables: []wasm.TableType{{Limits: wasm.Limits{Min: 1}}, {Limits: wasm.Limits{Min: 1}}},
	}
	_, err := Link(nil, []NamedModule{{Name: "a", Module: m}})
	if err == nil {
		t.Fatal("expected UnsupportedMultipleTable, got nil")
	}
}

func TestLinkAliasedTable(t *testing.T) {
	owner := &wasm.Module{
		Tables:  []wasm.TableType{{Limits: wasm.Limits{Min: 2}}},
		Exports: []wasm.Export{{Name: "t", Kind: wasm.ExternTable, Index: 0}},
	}
	importer := &wasm.Module{
		Imports: []wasm.Import{{Module: "owner", Name: "t", Kind: wasm.ExternTable, Table: wasm.TableType{Limits: wasm.Limits{Min: 2}}}},
	}
	r, err := Link(nil, []NamedModule{
		{Name: "owner", Module: owner},
		{Name: "importer", Module: importer},
	})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	if r.Tables[0] != r.Tables[1] {
		t.Fatal("expected importer's table to alias the owner's table instance")
	}
}

func TestLinkGlobalConstExprFromImport(t *testing.T) {
	base := &wasm.Module{
		Globals: []wasm.Global{{
			Type: wasm.GlobalType{Type: value.I32},
			Init: wasm.ConstantExpr{Const: constPtr(value.I32Value(41))},
		}},
		Exports: []wasm.Export{{Name: "g", Kind: wasm.ExternGlobal, Index: 0}},
	}
	idx := uint32(0)
	dependent := &wasm.Module{
		Imports: []wasm.Import{{Module: "base", Name: "g", Kind: wasm.ExternGlobal, Global: wasm.GlobalType{Type: value.I32}}},
		Globals: []wasm.Global{{
			Type: wasm.GlobalType{Type: value.I32},
			Init: wasm.ConstantExpr{GlobalGet: &idx},
		}},
	}
	r, err := Link(nil, []NamedModule{
		{Name: "base", Module: base},
		{Name: "dependent", Module: dependent},
	})
	if err != nil {
		t.Fatalf("Link: %v", err)
	}
	got := r.Globals[1][1].Get()
	if got.I32() != 41 {
		t.Fatalf("expected dependent global to inherit 41, got %d", got.I32())
	}
}

func constPtr(v value.Value) *value.Value { return &v }
