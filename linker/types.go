package linker

import (
	"github.com/anvm-go/linkvm/block"
	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

// NamedModule pairs a decoded module with the name other modules import
// it by. Names must be unique within one Link call; uniqueness is the
// caller's responsibility (spec-level contract, not checked here).
type NamedModule struct {
	Name   string
	Module *wasm.Module
}

// FunctionItem is a linked call target: either a function defined in one
// of the linked modules (NormalFunction) or a host function from a
// native module (NativeFunction). Sealed to these two implementations,
// matching the teacher's marker-interface idiom for closed sum types
// (see linker/internal/resolve's EntitySource in the original tree).
type FunctionItem interface {
	isFunctionItem()
}

// NormalFunction is a function defined inside a linked module.
type NormalFunction struct {
	ModuleIndex uint32
	FuncIndex   uint32 // index in the owning module's function index space
	Type        wasm.FuncType
	Code        *wasm.Code
	Blocks      []block.Item
}

func (*NormalFunction) isFunctionItem() {}

// NativeFunction is a host function backing an import.
type NativeFunction struct {
	Module string
	Name   string
	Type   wasm.FuncType
	Fn     func(args []value.Value) ([]value.Value, error)
}

func (*NativeFunction) isFunctionItem() {}

// TypeOf returns item's function signature regardless of concrete kind.
func TypeOf(item FunctionItem) wasm.FuncType {
	switch f := item.(type) {
	case *NormalFunction:
		return f.Type
	case *NativeFunction:
		return f.Type
	default:
		panic("linker: unknown FunctionItem implementation")
	}
}
