package wasm

import "github.com/anvm-go/linkvm/value"

// ExternKind identifies which kind of definition an Import or Export
// descriptor refers to.
type ExternKind byte

const (
	ExternFunc ExternKind = iota
	ExternTable
	ExternMemory
	ExternGlobal
)

func (k ExternKind) String() string {
	switch k {
	case ExternFunc:
		return "func"
	case ExternTable:
		return "table"
	case ExternMemory:
		return "memory"
	case ExternGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// FuncType is a function signature: an ordered parameter list and an
// ordered result list. Equality is structural (Equal), not identity —
// the linker compares types across module boundaries by value.
type FuncType struct {
	Params  []value.Type
	Results []value.Type
}

// Equal reports whether ft and other declare the same parameter and
// result types in the same order.
func (ft FuncType) Equal(other FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i, p := range ft.Params {
		if p != other.Params[i] {
			return false
		}
	}
	for i, r := range ft.Results {
		if r != other.Results[i] {
			return false
		}
	}
	return true
}

// Limits bounds a table or memory's size, in table elements or memory
// pages respectively.
type Limits struct {
	Min uint32
	Max uint32 // valid only if HasMax
	HasMax bool
}

// TableType declares a funcref table's size limits. The engine only
// supports the funcref element type; there is no element-type field
// because no other element type is in scope.
type TableType struct {
	Limits Limits
}

// MemoryType declares a linear memory's size limits, in 64KiB pages.
type MemoryType struct {
	Limits Limits
}

// GlobalType declares a global's value type and mutability.
type GlobalType struct {
	Type    value.Type
	Mutable bool
}

// ConstantExpr is a global or element/data-offset initializer: either
// a literal (*.const) or a read of an already-resolved global
// (global.get), the only two forms constant expressions are permitted
// to take. A global initializer may read only an imported global; an
// element/data offset may read any of the module's globals.
type ConstantExpr struct {
	// Const is set when the expression is an i32/i64/f32/f64 const.
	Const   *value.Value
	// GlobalGet is set (Const nil) when the expression reads a global
	// by its index in the module's global index space; the referenced
	// global must itself already be resolved (imports precede internal
	// globals in that index space).
	GlobalGet *uint32
}

// IsGlobalGet reports whether the expression is a global.get form.
func (c ConstantExpr) IsGlobalGet() bool { return c.GlobalGet != nil }

// Global is an internally defined global variable: its declared type
// plus its initializer constant expression.
type Global struct {
	Type GlobalType
	Init ConstantExpr
}

// Import describes one imported definition. Exactly one of the
// Func/Table/Memory/Global fields is meaningful, selected by Kind.
type Import struct {
	Module string
	Name   string
	Kind   ExternKind

	FuncTypeIndex uint32     // Kind == ExternFunc
	Table         TableType  // Kind == ExternTable
	Memory        MemoryType // Kind == ExternMemory
	Global        GlobalType // Kind == ExternGlobal
}

// Export describes one exported definition: a name and the index of
// the definition within its kind's index space (imports first, then
// internal definitions, per the usual WebAssembly index-space rule).
type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// Code is the decoded body of one internally defined function: its
// local variable declarations (beyond the parameters, which are
// already on the stack on entry) and its flat instruction stream.
type Code struct {
	Locals       []value.Type
	Instructions []Instruction
}

// Element is an active element segment: a sequence of function
// indices installed into the module's table starting at an offset
// computed from a constant expression.
type Element struct {
	Offset ConstantExpr
	Funcs  []uint32
}

// Data is an active data segment: raw bytes copied into the module's
// memory starting at an offset computed from a constant expression.
type Data struct {
	Offset ConstantExpr
	Bytes  []byte
}

// Module is a fully decoded WebAssembly module: everything the linker
// and interpreter need, and nothing a binary parser would additionally
// produce (no custom sections, no names section).
//
// Invariant: len(Tables) <= 1 and len(Memories) <= 1; the linker
// rejects modules violating this.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Exports  []Export
	Funcs    []uint32 // type index per internally defined function
	Code     []Code   // parallel to Funcs
	Tables   []TableType
	Memories []MemoryType
	Globals  []Global
	Elements []Element
	Data     []Data
	Start    *uint32 // function index in the module's function index space
}

// FuncTypeOf returns the function type of the internal function at
// funcIndex (an index into Funcs/Code, not the module-wide function
// index space).
func (m *Module) FuncTypeOf(funcIndex uint32) FuncType {
	return m.Types[m.Funcs[funcIndex]]
}

// ImportedFuncCount returns how many of the module's imports are
// functions; since imports occupy the low end of every index space,
// this is also the offset at which internal functions begin in the
// function index space.
func (m *Module) ImportedFuncCount() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind == ExternFunc {
			n++
		}
	}
	return n
}

// NativeFunc is one host function exposed by a NativeModule: its
// declared type and the Go closure that implements it. The closure
// receives already type-checked argument values and must return
// values matching Type.Results, in order.
type NativeFunc struct {
	Name string
	Type FuncType
	Fn   func(args []value.Value) ([]value.Value, error)
}

// NativeModule is a named collection of host functions, the
// host-provided counterpart to an AST Module in the linker's module
// index space. Function types are de-duplicated on insertion: two
// NativeFuncs with structurally equal FuncTypes share one Types
// entry, matching the dedup the linker performs when it later checks
// an importer's declared type against this type table by identity of
// content rather than of slot.
type NativeModule struct {
	Name  string
	Types []FuncType
	Funcs []NativeFunc
}

// NewNativeModule creates an empty native module ready for Register
// calls.
func NewNativeModule(name string) *NativeModule {
	return &NativeModule{Name: name}
}

// Register adds a host function under name with the given signature,
// de-duplicating ft against the module's existing type table.
func (nm *NativeModule) Register(name string, ft FuncType, fn func(args []value.Value) ([]value.Value, error)) {
	nm.Funcs = append(nm.Funcs, NativeFunc{Name: name, Type: nm.internType(ft), Fn: fn})
}

func (nm *NativeModule) internType(ft FuncType) FuncType {
	for _, existing := range nm.Types {
		if existing.Equal(ft) {
			return existing
		}
	}
	nm.Types = append(nm.Types, ft)
	return ft
}

// Find returns the function registered under name, or false if none.
func (nm *NativeModule) Find(name string) (NativeFunc, bool) {
	for _, f := range nm.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return NativeFunc{}, false
}
