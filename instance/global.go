package instance

import (
	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

// Global is a single mutable-or-constant global variable cell.
type Global struct {
	Type value.Type
	Mutable bool
	val  value.Value
}

// NewGlobal creates a global of the given type with an already
// type-checked initial value.
func NewGlobal(gt wasm.GlobalType, init value.Value) *Global {
	return &Global{Type: gt.Type, Mutable: gt.Mutable, val: init}
}

// Get returns the global's current value.
func (g *Global) Get() value.Value { return g.val }

// Set overwrites the global's value without checking Mutable. The
// interpreter's global.set does not check it either; the linker only
// checks that an importer declares the same mutability as the global
// it imports.
func (g *Global) Set(v value.Value) { g.val = v }
