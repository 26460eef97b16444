package runtime

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/anvm-go/linkvm/errors"
	"github.com/anvm-go/linkvm/instance"
	"github.com/anvm-go/linkvm/interp"
	"github.com/anvm-go/linkvm/linker"
	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

// Engine owns a set of native module registrations and, once Load has
// succeeded, a fully linked and initialized module set ready to
// invoke. The zero value is not usable; construct with New.
//
// Load and RegisterNativeModule are safe to call from multiple
// goroutines (guarded by mu, mirroring the teacher's
// Linker.mu sync.RWMutex in linker/linker.go). Invoke is not
// re-entrant on the same Engine: a host function must not call back
// into Invoke while a call is already in flight (spec.md §5).
type Engine struct {
	mu      sync.Mutex
	natives map[string]*wasm.NativeModule
	link    *linker.Result
}

// New creates an empty Engine with no native modules registered and
// nothing loaded.
func New() *Engine {
	return &Engine{natives: make(map[string]*wasm.NativeModule)}
}

// RegisterNativeModule adds or replaces a named native module. Must be
// called before Load; registering after Load has no effect on an
// already-linked module set.
func (e *Engine) RegisterNativeModule(nm *wasm.NativeModule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.natives[nm.Name] = nm
}

// Load links modules against the Engine's registered native modules,
// installs every module's data and element segments, and runs each
// module's start function if present. On success the Engine is ready
// for Invoke; on failure the Engine retains whatever it held before
// (a failed Load never partially replaces a previously loaded set).
//
// Per-module data/element installation errors are independent of one
// another, so every module's segments are attempted and their errors
// aggregated (via multierr) rather than stopping at the first
// failure; start-function traps are likewise aggregated across
// modules. If any installation error occurs, start functions are not
// run at all, since a module whose segments only partially installed
// has memory/table state the spec gives no meaning to.
func (e *Engine) Load(modules []linker.NamedModule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	natives := make([]*wasm.NativeModule, 0, len(e.natives))
	for _, nm := range e.natives {
		natives = append(natives, nm)
	}

	Logger().Debug("loading", zap.Int("modules", len(modules)), zap.Int("natives", len(natives)))

	link, err := linker.Link(natives, modules)
	if err != nil {
		return err
	}

	var errs error
	for i := range link.Modules {
		if err := installData(link, uint32(i)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	for i := range link.Modules {
		if err := installElements(link, uint32(i)); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return errs
	}

	for i, m := range link.Modules {
		if m.Start == nil {
			continue
		}
		fn := link.Functions[i][*m.Start]
		if _, err := interp.NewVM(link).Invoke(fn, nil); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return errs
	}

	e.link = link
	return nil
}

func installData(link *linker.Result, moduleIdx uint32) error {
	m := link.Modules[moduleIdx]
	if len(m.Data) == 0 {
		return nil
	}
	mem := link.Memories[moduleIdx]
	var errs error
	for _, d := range m.Data {
		off, err := linker.EvalConstExpr(link.Globals[moduleIdx], d.Offset)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		addr := off.I32()
		if mem == nil {
			errs = multierr.Append(errs, errors.OutOfBoundsMemory(addr, uint64(len(d.Bytes))))
			continue
		}
		if err := mem.ValidateAddrRange(addr, uint64(len(d.Bytes))); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		mem.WriteBytes(addr, d.Bytes)
	}
	return errs
}

func installElements(link *linker.Result, moduleIdx uint32) error {
	m := link.Modules[moduleIdx]
	if len(m.Elements) == 0 {
		return nil
	}
	tbl := link.Tables[moduleIdx]
	var errs error
	for _, el := range m.Elements {
		off, err := linker.EvalConstExpr(link.Globals[moduleIdx], el.Offset)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		addr := off.I32()
		if tbl == nil || uint64(addr)+uint64(len(el.Funcs)) > uint64(tbl.Size()) {
			errs = multierr.Append(errs, errors.OutOfBoundsTable(addr))
			continue
		}
		for j, funcIdx := range el.Funcs {
			tbl.Set(addr+uint32(j), instance.FuncRef{ModuleIndex: moduleIdx, FuncIndex: funcIdx, Valid: true})
		}
	}
	return errs
}

// Invoke type-checks args against the export's declared function
// type, runs it to completion on a fresh VM, and returns its results
// in declared order.
func (e *Engine) Invoke(moduleName, funcName string, args []value.Value) ([]value.Value, error) {
	e.mu.Lock()
	link := e.link
	e.mu.Unlock()

	if link == nil {
		return nil, errors.ModuleNotFound(moduleName)
	}

	modIdx, ok := link.FindModule(moduleName)
	if !ok {
		return nil, errors.ModuleNotFound(moduleName)
	}
	exp, ok := link.FindExport(modIdx, funcName)
	if !ok || exp.Kind != wasm.ExternFunc {
		return nil, errors.FunctionNotFound(moduleName, funcName)
	}
	fn := link.Functions[modIdx][exp.Index]
	ft := linker.TypeOf(fn)

	if len(args) != len(ft.Params) {
		return nil, errors.FunctionArgumentMismatch(moduleName, funcName,
			fmt.Sprintf("expected %d argument(s), got %d", len(ft.Params), len(args)))
	}
	if i := value.CheckTypes(args, ft.Params); i >= 0 {
		return nil, errors.FunctionArgumentMismatch(moduleName, funcName,
			fmt.Sprintf("argument %d: expected %s, got %s", i, ft.Params[i].String(), args[i].GetType().String()))
	}

	return interp.NewVM(link).Invoke(fn, args)
}

// ReadGlobal returns the current value of module moduleName's global
// at index, for introspection by tests, hosts, and the CLI inspector.
func (e *Engine) ReadGlobal(moduleName string, index uint32) (value.Value, error) {
	e.mu.Lock()
	link := e.link
	e.mu.Unlock()

	if link == nil {
		return value.Value{}, errors.ModuleNotFound(moduleName)
	}
	modIdx, ok := link.FindModule(moduleName)
	if !ok {
		return value.Value{}, errors.ModuleNotFound(moduleName)
	}
	globals := link.Globals[modIdx]
	if int(index) >= len(globals) {
		return value.Value{}, errors.GlobalVariableNotFound(moduleName, fmt.Sprintf("#%d", index))
	}
	return globals[index].Get(), nil
}

// ReadMemory returns a copy of length bytes starting at addr in
// module moduleName's linear memory.
func (e *Engine) ReadMemory(moduleName string, addr, length uint32) ([]byte, error) {
	e.mu.Lock()
	link := e.link
	e.mu.Unlock()

	if link == nil {
		return nil, errors.ModuleNotFound(moduleName)
	}
	modIdx, ok := link.FindModule(moduleName)
	if !ok {
		return nil, errors.ModuleNotFound(moduleName)
	}
	mem := link.Memories[modIdx]
	if mem == nil {
		return nil, errors.MemoryBlockNotFound(moduleName, "")
	}
	if err := mem.ValidateAddrRange(addr, uint64(length)); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, mem.Bytes()[addr:addr+length])
	return out, nil
}

// ReadTable returns the function reference installed at index in
// module moduleName's table.
func (e *Engine) ReadTable(moduleName string, index uint32) (instance.FuncRef, error) {
	e.mu.Lock()
	link := e.link
	e.mu.Unlock()

	if link == nil {
		return instance.FuncRef{}, errors.ModuleNotFound(moduleName)
	}
	modIdx, ok := link.FindModule(moduleName)
	if !ok {
		return instance.FuncRef{}, errors.ModuleNotFound(moduleName)
	}
	tbl := link.Tables[modIdx]
	if tbl == nil {
		return instance.FuncRef{}, errors.TableNotFound(moduleName, "")
	}
	return tbl.Get(index)
}

// Linked reports whether Load has completed successfully at least
// once, for callers (the CLI) that want to branch on engine readiness
// without triggering a ModuleNotFound error.
func (e *Engine) Linked() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.link != nil
}

// Result exposes the linked module set for read-only walking (the CLI
// inspector's module tree view). Returns nil if Load has not
// succeeded yet.
func (e *Engine) Result() *linker.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.link
}
