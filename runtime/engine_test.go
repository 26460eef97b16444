package runtime

import (
	"testing"

	linkerrors "github.com/anvm-go/linkvm/errors"
	"github.com/anvm-go/linkvm/linker"
	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

func i32Binary() wasm.FuncType {
	return wasm.FuncType{Params: []value.Type{value.I32, value.I32}, Results: []value.Type{value.I32}}
}

func i32Unary() wasm.FuncType {
	return wasm.FuncType{Params: []value.Type{value.I32}, Results: []value.Type{value.I32}}
}

func i32Nullary() wasm.FuncType {
	return wasm.FuncType{Results: []value.Type{value.I32}}
}

// TestInvokeAdd is scenario S1 (spec.md §8): (func $add (param i32 i32)
// (result i32) local.get 0 local.get 1 i32.add).
func TestInvokeAdd(t *testing.T) {
	m := &wasm.Module{
		Types:   []wasm.FuncType{i32Binary()},
		Exports: []wasm.Export{{Name: "add", Kind: wasm.ExternFunc, Index: 0}},
		Funcs:   []uint32{0},
		Code: []wasm.Code{{Instructions: []wasm.Instruction{
			wasm.Var(wasm.OpLocalGet, 0),
			wasm.Var(wasm.OpLocalGet, 1),
			wasm.Plain(wasm.OpI32Add),
			wasm.Plain(wasm.OpEnd),
		}}},
	}

	e := New()
	if err := e.Load([]linker.NamedModule{{Name: "m", Module: m}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	results, err := e.Invoke("m", "add", []value.Value{value.I32Value(2), value.I32Value(3)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(results) != 1 || results[0].I32Signed() != 5 {
		t.Fatalf("add(2, 3) = %v, want [I32(5)]", results)
	}
}

// TestInvokeSum10 is scenario S2: a loop summing 1..=10 via br_if.
func TestInvokeSum10(t *testing.T) {
	// locals: 0 = i (counter), 1 = sum
	m := &wasm.Module{
		Types:   []wasm.FuncType{i32Nullary()},
		Exports: []wasm.Export{{Name: "sum10", Kind: wasm.ExternFunc, Index: 0}},
		Funcs:   []uint32{0},
		Code: []wasm.Code{{
			Locals: []value.Type{value.I32, value.I32},
			Instructions: []wasm.Instruction{
				wasm.ConstI32(1),                  // 0
				wasm.Var(wasm.OpLocalSet, 0),       // 1: i = 1
				wasm.ConstI32(0),                  // 2
				wasm.Var(wasm.OpLocalSet, 1),       // 3: sum = 0
				wasm.Block(wasm.OpLoop, wasm.BlockTypeEmpty, 0), // 4: loop #0
				wasm.Var(wasm.OpLocalGet, 1),       // 5
				wasm.Var(wasm.OpLocalGet, 0),       // 6
				wasm.Plain(wasm.OpI32Add),          // 7
				wasm.Var(wasm.OpLocalSet, 1),       // 8: sum += i
				wasm.Var(wasm.OpLocalGet, 0),       // 9
				wasm.ConstI32(1),                   // 10
				wasm.Plain(wasm.OpI32Add),          // 11
				wasm.Var(wasm.OpLocalSet, 0),       // 12: i += 1
				wasm.Var(wasm.OpLocalGet, 0),       // 13
				wasm.ConstI32(11),                  // 14
				wasm.Plain(wasm.OpI32LtS),          // 15
				wasm.Br(wasm.OpBrIf, 0),             // 16: br_if 0 (loop)
				wasm.Plain(wasm.OpEnd),              // 17: closes loop
				wasm.Var(wasm.OpLocalGet, 1),        // 18
				wasm.Plain(wasm.OpEnd),               // 19: function end
			},
		}},
	}

	e := New()
	if err := e.Load([]linker.NamedModule{{Name: "m", Module: m}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	results, err := e.Invoke("m", "sum10", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(results) != 1 || results[0].I32Signed() != 55 {
		t.Fatalf("sum10() = %v, want [I32(55)]", results)
	}
}

// TestInvokeReExportedGlobal is scenario S3: module A exports v:i32=41;
// module B imports and re-exports it; module C imports from B and
// reads it, proving re-export transitivity (spec.md §8 property 6).
func TestInvokeReExportedGlobal(t *testing.T) {
	fortyOne := value.I32ValueFromSigned(41)
	a := &wasm.Module{
		Globals: []wasm.Global{{
			Type: wasm.GlobalType{Type: value.I32, Mutable: false},
			Init: wasm.ConstantExpr{Const: &fortyOne},
		}},
		Exports: []wasm.Export{{Name: "v", Kind: wasm.ExternGlobal, Index: 0}},
	}
	b := &wasm.Module{
		Imports: []wasm.Import{{Module: "A", Name: "v", Kind: wasm.ExternGlobal,
			Global: wasm.GlobalType{Type: value.I32, Mutable: false}}},
		Exports: []wasm.Export{{Name: "v", Kind: wasm.ExternGlobal, Index: 0}},
	}
	c := &wasm.Module{
		Types: []wasm.FuncType{i32Nullary()},
		Imports: []wasm.Import{{Module: "B", Name: "v", Kind: wasm.ExternGlobal,
			Global: wasm.GlobalType{Type: value.I32, Mutable: false}}},
		Funcs: []uint32{0},
		Code: []wasm.Code{{Instructions: []wasm.Instruction{
			wasm.Var(wasm.OpGlobalGet, 0),
			wasm.Plain(wasm.OpEnd),
		}}},
		Exports: []wasm.Export{{Name: "read", Kind: wasm.ExternFunc, Index: 0}},
	}

	e := New()
	err := e.Load([]linker.NamedModule{
		{Name: "A", Module: a},
		{Name: "B", Module: b},
		{Name: "C", Module: c},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	results, err := e.Invoke("C", "read", nil)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(results) != 1 || results[0].I32Signed() != 41 {
		t.Fatalf("C.read() = %v, want [I32(41)]", results)
	}
}

// TestInvokeIfElse is scenario S4: if (result i32) returning 7 on
// true, 9 on false — the else branch taken on a false condition
// still reaches a valid `end`.
func TestInvokeIfElse(t *testing.T) {
	m := &wasm.Module{
		Types:   []wasm.FuncType{i32Unary()},
		Exports: []wasm.Export{{Name: "pick", Kind: wasm.ExternFunc, Index: 0}},
		Funcs:   []uint32{0},
		Code: []wasm.Code{{Instructions: []wasm.Instruction{
			wasm.Var(wasm.OpLocalGet, 0),
			wasm.Block(wasm.OpIf, wasm.BlockTypeI32, 0),
			wasm.ConstI32(7),
			wasm.Plain(wasm.OpElse),
			wasm.ConstI32(9),
			wasm.Plain(wasm.OpEnd),
			wasm.Plain(wasm.OpEnd),
		}}},
	}

	e := New()
	if err := e.Load([]linker.NamedModule{{Name: "m", Module: m}}); err != nil {
		t.Fatalf("Load: %v", err)
	}

	results, err := e.Invoke("m", "pick", []value.Value{value.I32Value(0)})
	if err != nil {
		t.Fatalf("Invoke(0): %v", err)
	}
	if len(results) != 1 || results[0].I32Signed() != 9 {
		t.Fatalf("pick(0) = %v, want [I32(9)]", results)
	}

	results, err = e.Invoke("m", "pick", []value.Value{value.I32Value(1)})
	if err != nil {
		t.Fatalf("Invoke(1): %v", err)
	}
	if len(results) != 1 || results[0].I32Signed() != 7 {
		t.Fatalf("pick(1) = %v, want [I32(7)]", results)
	}
}

// TestInvokeNativeCall is scenario S5: a module calling a host
// function env.add1 declared (i32)->i32 that returns arg+1.
func TestInvokeNativeCall(t *testing.T) {
	env := wasm.NewNativeModule("env")
	env.Register("add1", i32Unary(), func(args []value.Value) ([]value.Value, error) {
		return []value.Value{value.I32ValueFromSigned(args[0].I32Signed() + 1)}, nil
	})

	m := &wasm.Module{
		Types:   []wasm.FuncType{i32Unary()},
		Imports: []wasm.Import{{Module: "env", Name: "add1", Kind: wasm.ExternFunc, FuncTypeIndex: 0}},
		Funcs:   []uint32{0},
		Code: []wasm.Code{{Instructions: []wasm.Instruction{
			wasm.Var(wasm.OpLocalGet, 0),
			wasm.Call(0),
			wasm.Plain(wasm.OpEnd),
		}}},
		Exports: []wasm.Export{{Name: "go", Kind: wasm.ExternFunc, Index: 1}},
	}

	e := New()
	e.RegisterNativeModule(env)
	if err := e.Load([]linker.NamedModule{{Name: "m", Module: m}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	results, err := e.Invoke("m", "go", []value.Value{value.I32Value(10)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if len(results) != 1 || results[0].I32Signed() != 11 {
		t.Fatalf("go(10) = %v, want [I32(11)]", results)
	}
}

// TestInvokeDivideByZeroTraps is scenario S6: i32.div_s with divisor
// 0 traps IntegerDivideByZero.
func TestInvokeDivideByZeroTraps(t *testing.T) {
	m := &wasm.Module{
		Types:   []wasm.FuncType{i32Binary()},
		Exports: []wasm.Export{{Name: "f", Kind: wasm.ExternFunc, Index: 0}},
		Funcs:   []uint32{0},
		Code: []wasm.Code{{Instructions: []wasm.Instruction{
			wasm.Var(wasm.OpLocalGet, 0),
			wasm.Var(wasm.OpLocalGet, 1),
			wasm.Plain(wasm.OpI32DivS),
			wasm.Plain(wasm.OpEnd),
		}}},
	}

	e := New()
	if err := e.Load([]linker.NamedModule{{Name: "m", Module: m}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, err := e.Invoke("m", "f", []value.Value{value.I32Value(10), value.I32Value(0)})
	if err == nil {
		t.Fatal("expected a trap, got nil error")
	}
	lverr, ok := err.(*linkerrors.Error)
	if !ok {
		t.Fatalf("expected *errors.Error, got %T: %v", err, err)
	}
	if lverr.Kind != linkerrors.KindIntegerDivideByZero {
		t.Fatalf("Kind = %v, want %v", lverr.Kind, linkerrors.KindIntegerDivideByZero)
	}
}

// TestStackBalanceAtProgramEnd is spec.md §8 property 1: for a nullary
// exported function, the operand stack holds exactly result_arity(f)
// values at ProgramEnd. Invoke already pops/returns results, so this
// checks the property indirectly: re-invoking on a fresh VM leaves no
// residue an Engine (itself stateless across Invoke calls) could leak.
func TestStackBalanceAtProgramEnd(t *testing.T) {
	m := &wasm.Module{
		Types:   []wasm.FuncType{i32Nullary()},
		Exports: []wasm.Export{{Name: "const7", Kind: wasm.ExternFunc, Index: 0}},
		Funcs:   []uint32{0},
		Code: []wasm.Code{{Instructions: []wasm.Instruction{
			wasm.ConstI32(7),
			wasm.Plain(wasm.OpEnd),
		}}},
	}

	e := New()
	if err := e.Load([]linker.NamedModule{{Name: "m", Module: m}}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := 0; i < 3; i++ {
		results, err := e.Invoke("m", "const7", nil)
		if err != nil {
			t.Fatalf("Invoke #%d: %v", i, err)
		}
		if len(results) != 1 || results[0].I32Signed() != 7 {
			t.Fatalf("Invoke #%d = %v, want [I32(7)]", i, results)
		}
	}
}
