// Package wasm defines the decoded-module data model consumed by the
// linker and interpreter: function types, imports/exports, globals,
// tables, memories, and the flat instruction stream that makes up a
// function body.
//
// # Scope
//
// Bit-exact parsing of the binary .wasm format is out of scope. The
// engine assumes a caller (a real decoder, a hand-built fixture, or
// ModuleFromJSON, the JSON loader cmd/linkvm uses) has already produced a *Module
// value. This package ships the types such a decoder would produce,
// not the decoder itself: there is no ReadLEB128, no section reader,
// no byte-level encoder here.
//
// # Module Structure
//
//	module.Types     []FuncType    // function signatures
//	module.Funcs     []uint32      // type index per internal function
//	module.Code      []Code        // instruction stream per internal function
//	module.Tables    []TableType   // at most one, per spec
//	module.Memories  []MemoryType  // at most one, per spec
//	module.Globals   []Global      // internally defined globals
//	module.Imports   []Import
//	module.Exports   []Export
//	module.Elements  []Element
//	module.Data      []Data
//	module.Start     *uint32       // function index, if present
//
// # Instructions
//
// A function body is a flat []Instruction. block/loop/if carry a
// BlockType and a BlockIndex assigned by depth-first pre-order
// (package block computes the matching start/else/end addresses);
// br/br_if/br_table carry relative label depths, not resolved
// addresses — address resolution is the dispatcher's job (package
// interp), not the decoded module's.
package wasm
