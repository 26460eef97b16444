// Package runtime provides the engine facade for linking and running
// WebAssembly modules against this repository's own linker (package
// linker) and interpreter (package interp) — no wazero, no Component
// Model, no WASI: modules are plain decoded *wasm.Module values and
// native modules are plain Go closures.
//
// # Quick Start
//
//	eng := runtime.New()
//	eng.RegisterNativeModule(env)
//
//	if err := eng.Load([]linker.NamedModule{{Name: "m", Module: mod}}); err != nil {
//	    log.Fatal(err)
//	}
//
//	results, err := eng.Invoke("m", "add", []value.Value{value.I32Value(2), value.I32Value(3)})
//
// # Host Functions
//
// Host functions are registered as native modules before Load: each
// export is a Go closure with a declared wasm.FuncType, looked up by
// the linker exactly like a regular module export.
//
//	env := wasm.NewNativeModule("env")
//	env.Register("add1", wasm.FuncType{Params: []value.Type{value.I32}, Results: []value.Type{value.I32}},
//	    func(args []value.Value) ([]value.Value, error) {
//	        return []value.Value{value.I32ValueFromSigned(args[0].I32Signed() + 1)}, nil
//	    })
//	eng.RegisterNativeModule(env)
//
// # Thread Safety
//
// RegisterNativeModule and Load are safe for concurrent use (see
// Engine.mu). Invoke is not re-entrant on the same Engine: a host
// function must not call back into Invoke while a call from that
// Engine is already in flight (spec.md §5).
package runtime
