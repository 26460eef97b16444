// Command linkvm loads a decoded WebAssembly module described as JSON
// (see wasm.ModuleFromJSON — binary `.wasm` decoding is out of scope
// for this engine) and invokes one of its exported functions, lists
// its exports, or opens an interactive inspector.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/anvm-go/linkvm/linker"
	"github.com/anvm-go/linkvm/runtime"
	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

const defaultModuleName = "main"

func main() {
	var (
		modulePath  = flag.String("module", "", "Path to a decoded-module JSON file")
		moduleName  = flag.String("name", defaultModuleName, "Name to register the module under")
		funcName    = flag.String("func", "", "Exported function to invoke")
		invokeArgs  = flag.String("invoke", "", "Comma-separated typed arguments, e.g. i32:2,i32:3")
		list        = flag.Bool("list", false, "List the module's exports (and exit unless -func is also given)")
		interactive = flag.Bool("i", false, "Interactive TUI inspector")
	)
	flag.Parse()

	if *modulePath == "" {
		fmt.Fprintln(os.Stderr, "Usage: linkvm -module mod.json -func name -invoke \"i32:2,i32:3\"")
		fmt.Fprintln(os.Stderr, "       linkvm -module mod.json -list")
		fmt.Fprintln(os.Stderr, "       linkvm -module mod.json -i")
		os.Exit(1)
	}

	mod, err := loadModule(*modulePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		args, err := parseInvokeArgs(*invokeArgs)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: parsing -invoke: %v\n", err)
			os.Exit(1)
		}
		if err := runInteractive(*moduleName, mod, *funcName, args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	e := runtime.New()
	if err := e.Load([]linker.NamedModule{{Name: *moduleName, Module: mod}}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: link/load: %v\n", err)
		os.Exit(1)
	}

	if *list || *funcName == "" {
		printExports(*moduleName, mod)
		if *funcName == "" {
			return
		}
	}

	args, err := parseInvokeArgs(*invokeArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: parsing -invoke: %v\n", err)
		os.Exit(1)
	}

	results, err := e.Invoke(*moduleName, *funcName, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invoke %s.%s: %v\n", *moduleName, *funcName, err)
		os.Exit(1)
	}

	fmt.Printf("%s.%s(%s) => %s\n", *moduleName, *funcName, formatValues(args), formatValues(results))
}

func loadModule(path string) (*wasm.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	mod, err := wasm.ModuleFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return mod, nil
}

func printExports(moduleName string, mod *wasm.Module) {
	fmt.Printf("Module %q exports:\n", moduleName)
	for _, e := range mod.Exports {
		fmt.Printf("  %-8s %s", e.Kind, e.Name)
		if e.Kind == wasm.ExternFunc {
			fmt.Printf(" %s", funcTypeString(funcTypeOfExport(mod, e.Index)))
		}
		fmt.Println()
	}
}

// funcTypeOfExport resolves the function type of a function export,
// whose Index falls in the module's full function index space
// (imports first, then internal functions per the usual WebAssembly
// index-space rule).
func funcTypeOfExport(mod *wasm.Module, index uint32) wasm.FuncType {
	imported := uint32(mod.ImportedFuncCount())
	if index < imported {
		var seen uint32
		for _, imp := range mod.Imports {
			if imp.Kind != wasm.ExternFunc {
				continue
			}
			if seen == index {
				return mod.Types[imp.FuncTypeIndex]
			}
			seen++
		}
	}
	return mod.FuncTypeOf(index - imported)
}

func funcTypeString(ft wasm.FuncType) string {
	var ps, rs []string
	for _, p := range ft.Params {
		ps = append(ps, p.String())
	}
	for _, r := range ft.Results {
		rs = append(rs, r.String())
	}
	return fmt.Sprintf("(%s) -> (%s)", strings.Join(ps, ", "), strings.Join(rs, ", "))
}

// parseInvokeArgs parses "i32:2,i32:3" into typed Values.
func parseInvokeArgs(s string) ([]value.Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		v, err := parseTypedValue(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("argument %d (%q): %w", i, p, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseTypedValue(s string) (value.Value, error) {
	typ, lit, ok := strings.Cut(s, ":")
	if !ok {
		return value.Value{}, fmt.Errorf("expected type:literal")
	}
	switch typ {
	case "i32":
		n, err := strconv.ParseInt(lit, 10, 32)
		if err != nil {
			return value.Value{}, err
		}
		return value.I32ValueFromSigned(int32(n)), nil
	case "i64":
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.I64ValueFromSigned(n), nil
	case "f32":
		f, err := strconv.ParseFloat(lit, 32)
		if err != nil {
			return value.Value{}, err
		}
		return value.F32ValueFromFloat(float32(f)), nil
	case "f64":
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return value.Value{}, err
		}
		return value.F64ValueFromFloat(f), nil
	default:
		return value.Value{}, fmt.Errorf("unknown type %q", typ)
	}
}

func formatValues(vs []value.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = formatValue(v)
	}
	return strings.Join(parts, ", ")
}

func formatValue(v value.Value) string {
	switch v.GetType() {
	case value.I32:
		return fmt.Sprintf("i32:%d", v.I32Signed())
	case value.I64:
		return fmt.Sprintf("i64:%d", v.I64Signed())
	case value.F32:
		return fmt.Sprintf("f32:%g", v.F32())
	default:
		return fmt.Sprintf("f64:%g", v.F64())
	}
}
