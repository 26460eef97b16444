package linker

import (
	"github.com/anvm-go/linkvm/errors"
	"github.com/anvm-go/linkvm/instance"
	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

// --- tables ---

func ensureModuleTable(st *state, moduleIdx uint32) (*instance.Table, error) {
	if st.tables[moduleIdx] != nil {
		return st.tables[moduleIdx], nil
	}
	m := st.modules[moduleIdx].Module
	var imp *wasm.Import
	for i := range m.Imports {
		if m.Imports[i].Kind == wasm.ExternTable {
			imp = &m.Imports[i]
			break
		}
	}
	if (imp != nil && len(m.Tables) > 0) || len(m.Tables) > 1 {
		return nil, errors.UnsupportedMultipleTable()
	}

	var t *instance.Table
	switch {
	case imp != nil:
		steps := 0
		resolved, err := resolveTable(st, imp.Module, imp.Name, imp.Table, &steps)
		if err != nil {
			return nil, err
		}
		if resolved.Type() != imp.Table {
			return nil, errors.ImportedTableTypeMismatch(imp.Module, imp.Name)
		}
		t = resolved
	case len(m.Tables) == 1:
		t = instance.NewTable(m.Tables[0])
	}
	st.tables[moduleIdx] = t
	return t, nil
}

func resolveTable(st *state, moduleName, exportName string, expected wasm.TableType, steps *int) (*instance.Table, error) {
	*steps++
	if *steps > st.bound {
		return nil, errors.CyclicImport("table", moduleName, exportName)
	}
	if _, ok := st.natives[moduleName]; ok {
		return nil, errors.TableNotFound(moduleName, exportName)
	}
	srcIdx, ok := findModuleIndex(st.modules, moduleName)
	if !ok {
		return nil, errors.ModuleNotFound(moduleName)
	}
	src := st.modules[srcIdx].Module
	exp, ok := findExport(src, exportName, wasm.ExternTable)
	if !ok {
		return nil, errors.TableNotFound(moduleName, exportName)
	}
	if isImportedSlot(src, exp.Index, wasm.ExternTable) {
		imp := nthKindImport(src, exp.Index, wasm.ExternTable)
		return resolveTable(st, imp.Module, imp.Name, expected, steps)
	}
	t, err := ensureModuleTable(st, srcIdx)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, errors.TableNotFound(moduleName, exportName)
	}
	return t, nil
}

// --- memories ---

func ensureModuleMemory(st *state, moduleIdx uint32) (*instance.Memory, error) {
	if st.memories[moduleIdx] != nil {
		return st.memories[moduleIdx], nil
	}
	m := st.modules[moduleIdx].Module
	var imp *wasm.Import
	for i := range m.Imports {
		if m.Imports[i].Kind == wasm.ExternMemory {
			imp = &m.Imports[i]
			break
		}
	}
	if (imp != nil && len(m.Memories) > 0) || len(m.Memories) > 1 {
		return nil, errors.UnsupportedMultipleMemoryBlock()
	}

	var mem *instance.Memory
	switch {
	case imp != nil:
		steps := 0
		resolved, err := resolveMemory(st, imp.Module, imp.Name, imp.Memory, &steps)
		if err != nil {
			return nil, err
		}
		if resolved.Type() != imp.Memory {
			return nil, errors.ImportedMemoryBlockTypeMismatch(imp.Module, imp.Name)
		}
		mem = resolved
	case len(m.Memories) == 1:
		mem = instance.NewMemory(m.Memories[0])
	}
	st.memories[moduleIdx] = mem
	return mem, nil
}

func resolveMemory(st *state, moduleName, exportName string, expected wasm.MemoryType, steps *int) (*instance.Memory, error) {
	*steps++
	if *steps > st.bound {
		return nil, errors.CyclicImport("memory", moduleName, exportName)
	}
	if _, ok := st.natives[moduleName]; ok {
		return nil, errors.MemoryBlockNotFound(moduleName, exportName)
	}
	srcIdx, ok := findModuleIndex(st.modules, moduleName)
	if !ok {
		return nil, errors.ModuleNotFound(moduleName)
	}
	src := st.modules[srcIdx].Module
	exp, ok := findExport(src, exportName, wasm.ExternMemory)
	if !ok {
		return nil, errors.MemoryBlockNotFound(moduleName, exportName)
	}
	if isImportedSlot(src, exp.Index, wasm.ExternMemory) {
		imp := nthKindImport(src, exp.Index, wasm.ExternMemory)
		return resolveMemory(st, imp.Module, imp.Name, expected, steps)
	}
	mem, err := ensureModuleMemory(st, srcIdx)
	if err != nil {
		return nil, err
	}
	if mem == nil {
		return nil, errors.MemoryBlockNotFound(moduleName, exportName)
	}
	return mem, nil
}

// --- globals ---

func ensureModuleGlobals(st *state, moduleIdx uint32) ([]*instance.Global, error) {
	if st.globals[moduleIdx] != nil {
		return st.globals[moduleIdx], nil
	}
	m := st.modules[moduleIdx].Module
	var globals []*instance.Global
	for _, imp := range m.Imports {
		if imp.Kind != wasm.ExternGlobal {
			continue
		}
		steps := 0
		g, err := resolveGlobal(st, imp.Module, imp.Name, imp.Global, &steps)
		if err != nil {
			return nil, err
		}
		globals = append(globals, g)
	}
	imported := globals
	for _, decl := range m.Globals {
		v, err := EvalConstExpr(imported, decl.Init)
		if err != nil {
			return nil, err
		}
		if v.GetType() != decl.Type.Type {
			return nil, errors.ConstantExpressionValueTypeMismatch(decl.Type.Type.String(), v.GetType().String())
		}
		globals = append(globals, instance.NewGlobal(decl.Type, v))
	}
	st.globals[moduleIdx] = globals
	return globals, nil
}

func resolveGlobal(st *state, moduleName, exportName string, expected wasm.GlobalType, steps *int) (*instance.Global, error) {
	*steps++
	if *steps > st.bound {
		return nil, errors.CyclicImport("global", moduleName, exportName)
	}
	if _, ok := st.natives[moduleName]; ok {
		return nil, errors.GlobalVariableNotFound(moduleName, exportName)
	}
	srcIdx, ok := findModuleIndex(st.modules, moduleName)
	if !ok {
		return nil, errors.ModuleNotFound(moduleName)
	}
	src := st.modules[srcIdx].Module
	exp, ok := findExport(src, exportName, wasm.ExternGlobal)
	if !ok {
		return nil, errors.GlobalVariableNotFound(moduleName, exportName)
	}
	if isImportedSlot(src, exp.Index, wasm.ExternGlobal) {
		imp := nthKindImport(src, exp.Index, wasm.ExternGlobal)
		return resolveGlobal(st, imp.Module, imp.Name, expected, steps)
	}
	globals, err := ensureModuleGlobals(st, srcIdx)
	if err != nil {
		return nil, err
	}
	g := globals[exp.Index]
	if g.Type != expected.Type || g.Mutable != expected.Mutable {
		return nil, errors.ImportedGlobalVariableTypeMismatch(moduleName, exportName)
	}
	return g, nil
}

// EvalConstExpr evaluates a constant expression against globals, a
// prefix of a module's already-resolved global index space. Global
// initialisers are evaluated against the module's imported globals
// only; a global.get index past the end of globals is reported as
// GlobalVariableNotFound.
func EvalConstExpr(globals []*instance.Global, ce wasm.ConstantExpr) (value.Value, error) {
	if ce.IsGlobalGet() {
		idx := *ce.GlobalGet
		if int(idx) >= len(globals) {
			return value.Value{}, errors.GlobalVariableNotFound("", "")
		}
		return globals[idx].Get(), nil
	}
	return *ce.Const, nil
}

func isImportedSlot(m *wasm.Module, index uint32, kind wasm.ExternKind) bool {
	return index < importedCount(m, kind)
}

func importedCount(m *wasm.Module, kind wasm.ExternKind) uint32 {
	n := uint32(0)
	for _, imp := range m.Imports {
		if imp.Kind == kind {
			n++
		}
	}
	return n
}

func nthKindImport(m *wasm.Module, index uint32, kind wasm.ExternKind) wasm.Import {
	n := uint32(0)
	for _, imp := range m.Imports {
		if imp.Kind != kind {
			continue
		}
		if n == index {
			return imp
		}
		n++
	}
	panic("linker: import index out of range")
}
