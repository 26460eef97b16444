package linker

import (
	"go.uber.org/zap"

	"github.com/anvm-go/linkvm/block"
	"github.com/anvm-go/linkvm/errors"
	"github.com/anvm-go/linkvm/instance"
	"github.com/anvm-go/linkvm/wasm"
)

// state carries the in-progress link across all four passes. It is
// discarded once Link returns; Result is the only thing callers keep.
type state struct {
	modules []NamedModule
	natives map[string]*wasm.NativeModule
	bound   int

	functions [][]FunctionItem
	tables    []*instance.Table
	memories  []*instance.Memory
	globals   [][]*instance.Global
}

// Link resolves natives and modules into a Result. modules[i].Name must
// be unique; natives are looked up by their own Name field. Every
// function/table/memory/global import is followed to its ultimate
// definition, across as many re-export hops as necessary.
func Link(natives []*wasm.NativeModule, modules []NamedModule) (*Result, error) {
	Logger().Debug("linking", zap.Int("modules", len(modules)), zap.Int("natives", len(natives)))

	st := &state{
		modules:   modules,
		natives:   make(map[string]*wasm.NativeModule, len(natives)),
		functions: make([][]FunctionItem, len(modules)),
		tables:    make([]*instance.Table, len(modules)),
		memories:  make([]*instance.Memory, len(modules)),
		globals:   make([][]*instance.Global, len(modules)),
	}
	for _, n := range natives {
		st.natives[n.Name] = n
	}
	st.bound = linkBound(modules)

	for i := range modules {
		if _, err := ensureModuleFunctions(st, uint32(i)); err != nil {
			return nil, err
		}
	}
	for i := range modules {
		if _, err := ensureModuleTable(st, uint32(i)); err != nil {
			return nil, err
		}
	}
	for i := range modules {
		if _, err := ensureModuleMemory(st, uint32(i)); err != nil {
			return nil, err
		}
	}
	for i := range modules {
		if _, err := ensureModuleGlobals(st, uint32(i)); err != nil {
			return nil, err
		}
	}

	r := &Result{
		Functions: st.functions,
		Tables:    st.tables,
		Memories:  st.memories,
		Globals:   st.globals,
	}
	for _, nm := range modules {
		r.Modules = append(r.Modules, nm.Module)
		r.ModuleNames = append(r.ModuleNames, nm.Name)
	}
	return r, nil
}

// linkBound is the chain-following ceiling: the total number of
// importable slots across every module. A resolution chain longer than
// this must be revisiting a slot it already passed through.
func linkBound(modules []NamedModule) int {
	n := 0
	for _, nm := range modules {
		m := nm.Module
		n += len(m.Imports) + len(m.Exports) + len(m.Code) + len(m.Globals) + len(m.Tables) + len(m.Memories)
	}
	if n == 0 {
		n = 1
	}
	return n
}

func findModuleIndex(modules []NamedModule, name string) (uint32, bool) {
	for i, nm := range modules {
		if nm.Name == name {
			return uint32(i), true
		}
	}
	return 0, false
}

func findExport(m *wasm.Module, name string, kind wasm.ExternKind) (wasm.Export, bool) {
	for _, e := range m.Exports {
		if e.Name == name && e.Kind == kind {
			return e, true
		}
	}
	return wasm.Export{}, false
}

// --- functions ---

func ensureModuleFunctions(st *state, moduleIdx uint32) ([]FunctionItem, error) {
	if st.functions[moduleIdx] != nil {
		return st.functions[moduleIdx], nil
	}
	m := st.modules[moduleIdx].Module
	var items []FunctionItem
	for _, imp := range m.Imports {
		if imp.Kind != wasm.ExternFunc {
			continue
		}
		ft := m.Types[imp.FuncTypeIndex]
		steps := 0
		item, err := resolveFunction(st, imp.Module, imp.Name, ft, &steps)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	for localIdx := range m.Code {
		ft := m.Types[m.Funcs[localIdx]]
		items = append(items, &NormalFunction{
			ModuleIndex: moduleIdx,
			FuncIndex:   uint32(len(items)),
			Type:        ft,
			Code:        &m.Code[localIdx],
			Blocks:      block.Analyse(m.Code[localIdx].Instructions),
		})
	}
	st.functions[moduleIdx] = items
	return items, nil
}

func resolveFunction(st *state, moduleName, exportName string, expected wasm.FuncType, steps *int) (FunctionItem, error) {
	*steps++
	if *steps > st.bound {
		return nil, errors.CyclicImport("function", moduleName, exportName)
	}
	if nm, ok := st.natives[moduleName]; ok {
		f, ok := nm.Find(exportName)
		if !ok {
			return nil, errors.NativeFunctionNotFound(moduleName, exportName)
		}
		if !f.Type.Equal(expected) {
			return nil, errors.ImportedFunctionTypeMismatch(moduleName, exportName)
		}
		return &NativeFunction{Module: moduleName, Name: exportName, Type: f.Type, Fn: f.Fn}, nil
	}
	srcIdx, ok := findModuleIndex(st.modules, moduleName)
	if !ok {
		return nil, errors.ModuleNotFound(moduleName)
	}
	src := st.modules[srcIdx].Module
	exp, ok := findExport(src, exportName, wasm.ExternFunc)
	if !ok {
		return nil, errors.FunctionNotFound(moduleName, exportName)
	}
	impCount := src.ImportedFuncCount()
	if int(exp.Index) < impCount {
		imp := nthFuncImport(src, exp.Index)
		return resolveFunction(st, imp.Module, imp.Name, expected, steps)
	}
	funcs, err := ensureModuleFunctions(st, srcIdx)
	if err != nil {
		return nil, err
	}
	item := funcs[exp.Index]
	if !TypeOf(item).Equal(expected) {
		return nil, errors.ImportedFunctionTypeMismatch(moduleName, exportName)
	}
	return item, nil
}

func nthFuncImport(m *wasm.Module, index uint32) wasm.Import {
	n := uint32(0)
	for _, imp := range m.Imports {
		if imp.Kind != wasm.ExternFunc {
			continue
		}
		if n == index {
			return imp
		}
		n++
	}
	panic("linker: func import index out of range")
}
