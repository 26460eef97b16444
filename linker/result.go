package linker

import (
	"github.com/anvm-go/linkvm/instance"
	"github.com/anvm-go/linkvm/wasm"
)

// Result is the output of Link: every module's function/table/memory/
// global index spaces fully resolved, with imports replaced by the
// concrete item (or instance) they ultimately refer to. Table, Memory
// and Global entries for modules that import rather than declare their
// own are the SAME pointer as the declaring module's entry — aliasing is
// structural sharing, not a copy.
type Result struct {
	Modules     []*wasm.Module
	ModuleNames []string

	// Functions[i] is module i's full function index space (imports
	// first, then internal functions), each slot resolved to its
	// ultimate FunctionItem.
	Functions [][]FunctionItem

	// Tables[i]/Memories[i] are nil when module i declares or imports
	// neither; both are single-slot since multi-table/multi-memory
	// modules are rejected at link time.
	Tables   []*instance.Table
	Memories []*instance.Memory

	// Globals[i] is module i's full global index space (imports first,
	// then internal globals), each slot a resolved cell.
	Globals [][]*instance.Global
}

// FindModule returns the position of the module named name, or false.
func (r *Result) FindModule(name string) (uint32, bool) {
	for i, n := range r.ModuleNames {
		if n == name {
			return uint32(i), true
		}
	}
	return 0, false
}

// FindExport returns the export descriptor named name in module
// moduleIdx, or false if it has none by that name.
func (r *Result) FindExport(moduleIdx uint32, name string) (wasm.Export, bool) {
	for _, e := range r.Modules[moduleIdx].Exports {
		if e.Name == name {
			return e, true
		}
	}
	return wasm.Export{}, false
}
