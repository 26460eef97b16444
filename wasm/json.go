package wasm

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/anvm-go/linkvm/value"
)

// jsonModule is the on-disk shape ModuleFromJSON decodes: the moral
// equivalent of what a real `.wasm` decoder would hand the linker,
// since binary decoding itself is out of scope (spec.md §1). Function
// bodies and constant expressions are given as text mnemonics, one
// instruction per line, rather than raw opcode bytes.
type jsonModule struct {
	Types    []jsonFuncType   `json:"types"`
	Imports  []jsonImport     `json:"imports"`
	Exports  []jsonExport     `json:"exports"`
	Funcs    []uint32         `json:"funcs"`
	Code     []jsonCode       `json:"code"`
	Tables   []jsonLimits     `json:"tables"`
	Memories []jsonLimits     `json:"memories"`
	Globals  []jsonGlobal     `json:"globals"`
	Elements []jsonElement    `json:"elements"`
	Data     []jsonData       `json:"data"`
	Start    *uint32          `json:"start"`
}

type jsonFuncType struct {
	Params  []string `json:"params"`
	Results []string `json:"results"`
}

type jsonImport struct {
	Module string `json:"module"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Type   uint32 `json:"type"`   // kind == "func"
	Min    uint32 `json:"min"`    // kind == "table" | "memory"
	Max    uint32 `json:"max"`
	HasMax bool   `json:"hasMax"`
	ValueType string `json:"valueType"` // kind == "global"
	Mutable   bool   `json:"mutable"`
}

type jsonExport struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Index uint32 `json:"index"`
}

type jsonCode struct {
	Locals []string `json:"locals"`
	Body   []string `json:"body"`
}

type jsonLimits struct {
	Min    uint32 `json:"min"`
	Max    uint32 `json:"max"`
	HasMax bool   `json:"hasMax"`
}

type jsonGlobal struct {
	Type    string `json:"type"`
	Mutable bool   `json:"mutable"`
	Init    string `json:"init"`
}

type jsonElement struct {
	Offset string   `json:"offset"`
	Funcs  []uint32 `json:"funcs"`
}

type jsonData struct {
	Offset string `json:"offset"`
	Bytes  string `json:"bytes"` // base64
}

// ModuleFromJSON decodes a *Module from the JSON description used by
// cmd/linkvm's -module flag: the CLI's stand-in for a real `.wasm`
// binary decoder, which is out of scope for this engine (spec.md §1).
func ModuleFromJSON(data []byte) (*Module, error) {
	var jm jsonModule
	if err := json.Unmarshal(data, &jm); err != nil {
		return nil, fmt.Errorf("wasm: decode module json: %w", err)
	}

	m := &Module{Start: jm.Start}

	for _, jt := range jm.Types {
		ft, err := toFuncType(jt)
		if err != nil {
			return nil, err
		}
		m.Types = append(m.Types, ft)
	}

	for _, ji := range jm.Imports {
		imp, err := toImport(ji)
		if err != nil {
			return nil, err
		}
		m.Imports = append(m.Imports, imp)
	}

	for _, je := range jm.Exports {
		kind, err := parseExternKind(je.Kind)
		if err != nil {
			return nil, err
		}
		m.Exports = append(m.Exports, Export{Name: je.Name, Kind: kind, Index: je.Index})
	}

	m.Funcs = jm.Funcs
	for i, jc := range jm.Code {
		locals, err := parseValueTypes(jc.Locals)
		if err != nil {
			return nil, fmt.Errorf("wasm: code[%d]: %w", i, err)
		}
		body, err := ParseInstructions(jc.Body)
		if err != nil {
			return nil, fmt.Errorf("wasm: code[%d]: %w", i, err)
		}
		m.Code = append(m.Code, Code{Locals: locals, Instructions: body})
	}

	for _, jl := range jm.Tables {
		m.Tables = append(m.Tables, TableType{Limits: toLimits(jl)})
	}
	for _, jl := range jm.Memories {
		m.Memories = append(m.Memories, MemoryType{Limits: toLimits(jl)})
	}

	for i, jg := range jm.Globals {
		vt, err := parseValueType(jg.Type)
		if err != nil {
			return nil, fmt.Errorf("wasm: globals[%d]: %w", i, err)
		}
		init, err := parseConstantExpr(jg.Init)
		if err != nil {
			return nil, fmt.Errorf("wasm: globals[%d] init: %w", i, err)
		}
		m.Globals = append(m.Globals, Global{
			Type: GlobalType{Type: vt, Mutable: jg.Mutable},
			Init: init,
		})
	}

	for i, je := range jm.Elements {
		off, err := parseConstantExpr(je.Offset)
		if err != nil {
			return nil, fmt.Errorf("wasm: elements[%d] offset: %w", i, err)
		}
		m.Elements = append(m.Elements, Element{Offset: off, Funcs: je.Funcs})
	}

	for i, jd := range jm.Data {
		off, err := parseConstantExpr(jd.Offset)
		if err != nil {
			return nil, fmt.Errorf("wasm: data[%d] offset: %w", i, err)
		}
		raw, err := base64.StdEncoding.DecodeString(jd.Bytes)
		if err != nil {
			return nil, fmt.Errorf("wasm: data[%d] bytes: %w", i, err)
		}
		m.Data = append(m.Data, Data{Offset: off, Bytes: raw})
	}

	return m, nil
}

func toFuncType(jt jsonFuncType) (FuncType, error) {
	params, err := parseValueTypes(jt.Params)
	if err != nil {
		return FuncType{}, err
	}
	results, err := parseValueTypes(jt.Results)
	if err != nil {
		return FuncType{}, err
	}
	return FuncType{Params: params, Results: results}, nil
}

func toImport(ji jsonImport) (Import, error) {
	kind, err := parseExternKind(ji.Kind)
	if err != nil {
		return Import{}, err
	}
	imp := Import{Module: ji.Module, Name: ji.Name, Kind: kind}
	switch kind {
	case ExternFunc:
		imp.FuncTypeIndex = ji.Type
	case ExternTable:
		imp.Table = TableType{Limits: Limits{Min: ji.Min, Max: ji.Max, HasMax: ji.HasMax}}
	case ExternMemory:
		imp.Memory = MemoryType{Limits: Limits{Min: ji.Min, Max: ji.Max, HasMax: ji.HasMax}}
	case ExternGlobal:
		vt, err := parseValueType(ji.ValueType)
		if err != nil {
			return Import{}, err
		}
		imp.Global = GlobalType{Type: vt, Mutable: ji.Mutable}
	}
	return imp, nil
}

func toLimits(jl jsonLimits) Limits {
	return Limits{Min: jl.Min, Max: jl.Max, HasMax: jl.HasMax}
}

func parseExternKind(s string) (ExternKind, error) {
	switch s {
	case "func":
		return ExternFunc, nil
	case "table":
		return ExternTable, nil
	case "memory":
		return ExternMemory, nil
	case "global":
		return ExternGlobal, nil
	default:
		return 0, fmt.Errorf("wasm: unknown extern kind %q", s)
	}
}

func parseValueTypes(ss []string) ([]value.Type, error) {
	if len(ss) == 0 {
		return nil, nil
	}
	out := make([]value.Type, len(ss))
	for i, s := range ss {
		vt, err := parseValueType(s)
		if err != nil {
			return nil, err
		}
		out[i] = vt
	}
	return out, nil
}

func parseValueType(s string) (value.Type, error) {
	switch s {
	case "i32":
		return value.I32, nil
	case "i64":
		return value.I64, nil
	case "f32":
		return value.F32, nil
	case "f64":
		return value.F64, nil
	default:
		return 0, fmt.Errorf("wasm: unknown value type %q", s)
	}
}

func parseConstantExpr(s string) (ConstantExpr, error) {
	insns, err := ParseInstructions([]string{s})
	if err != nil {
		return ConstantExpr{}, err
	}
	if len(insns) != 1 {
		return ConstantExpr{}, fmt.Errorf("wasm: constant expression must be one instruction, got %q", s)
	}
	in := insns[0]
	switch in.Op {
	case OpI32Const:
		v := value.I32ValueFromSigned(in.I32Value)
		return ConstantExpr{Const: &v}, nil
	case OpI64Const:
		v := value.I64ValueFromSigned(in.I64Value)
		return ConstantExpr{Const: &v}, nil
	case OpF32Const:
		v := value.F32ValueFromFloat(in.F32Value)
		return ConstantExpr{Const: &v}, nil
	case OpF64Const:
		v := value.F64ValueFromFloat(in.F64Value)
		return ConstantExpr{Const: &v}, nil
	case OpGlobalGet:
		idx := in.VarIndex
		return ConstantExpr{GlobalGet: &idx}, nil
	default:
		return ConstantExpr{}, fmt.Errorf("wasm: %q is not a valid constant expression", s)
	}
}

// mnemonicToOpcode is the inverse of opcodeNames, built once.
var mnemonicToOpcode = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

// ParseInstructions assembles a flat instruction stream from one
// mnemonic per line (trailing `# comment` and blank lines allowed),
// assigning each block/loop/if instruction its depth-first pre-order
// BlockIndex as it is encountered — which, read left to right over a
// flat stream, already visits nested blocks before closing outer ones
// in that order, so no separate pass is needed.
func ParseInstructions(lines []string) ([]Instruction, error) {
	var out []Instruction
	var nextBlockIndex uint32

	for lineNo, raw := range lines {
		line := raw
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		mnemonic := fields[0]
		args := fields[1:]

		in, err := parseOneInstruction(mnemonic, args, &nextBlockIndex)
		if err != nil {
			return nil, fmt.Errorf("wasm: line %d (%q): %w", lineNo+1, raw, err)
		}
		out = append(out, in)
	}
	return out, nil
}

func parseOneInstruction(mnemonic string, args []string, nextBlockIndex *uint32) (Instruction, error) {
	switch mnemonic {
	case "block", "loop", "if":
		op := map[string]Opcode{"block": OpBlock, "loop": OpLoop, "if": OpIf}[mnemonic]
		bt := BlockTypeEmpty
		if len(args) > 0 {
			parsed, err := parseBlockType(args[0])
			if err != nil {
				return Instruction{}, err
			}
			bt = parsed
		}
		idx := *nextBlockIndex
		*nextBlockIndex++
		return Block(op, bt, idx), nil

	case "else", "end", "return", "unreachable", "nop", "drop", "select", "memory.size", "memory.grow":
		op, ok := mnemonicToOpcode[mnemonic]
		if !ok {
			return Instruction{}, fmt.Errorf("unknown opcode %q", mnemonic)
		}
		return Plain(op), nil

	case "br", "br_if":
		op := map[string]Opcode{"br": OpBr, "br_if": OpBrIf}[mnemonic]
		if len(args) != 1 {
			return Instruction{}, fmt.Errorf("%s requires exactly one label argument", mnemonic)
		}
		depth, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return Instruction{}, err
		}
		return Br(op, uint32(depth)), nil

	case "br_table":
		if len(args) == 0 {
			return Instruction{}, fmt.Errorf("br_table requires at least a default label")
		}
		var labels []uint32
		var def uint32
		for i, a := range args {
			v, err := strconv.ParseUint(a, 10, 32)
			if err != nil {
				return Instruction{}, err
			}
			if i == len(args)-1 {
				def = uint32(v)
			} else {
				labels = append(labels, uint32(v))
			}
		}
		return BrTable(labels, def), nil

	case "call":
		if len(args) != 1 {
			return Instruction{}, fmt.Errorf("call requires exactly one function-index argument")
		}
		idx, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return Instruction{}, err
		}
		return Call(uint32(idx)), nil

	case "call_indirect":
		var typeIdx, tableIdx uint64
		for _, a := range args {
			k, v, ok := strings.Cut(a, "=")
			if !ok {
				return Instruction{}, fmt.Errorf("call_indirect argument %q must be key=value", a)
			}
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return Instruction{}, err
			}
			switch k {
			case "type":
				typeIdx = n
			case "table":
				tableIdx = n
			default:
				return Instruction{}, fmt.Errorf("call_indirect: unknown argument %q", k)
			}
		}
		return CallIndirect(uint32(typeIdx), uint32(tableIdx)), nil

	case "local.get", "local.set", "local.tee", "global.get", "global.set":
		op := mnemonicToOpcode[mnemonic]
		if len(args) != 1 {
			return Instruction{}, fmt.Errorf("%s requires exactly one index argument", mnemonic)
		}
		idx, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			return Instruction{}, err
		}
		return Var(op, uint32(idx)), nil

	case "i32.const", "i64.const", "f32.const", "f64.const":
		if len(args) != 1 {
			return Instruction{}, fmt.Errorf("%s requires exactly one literal argument", mnemonic)
		}
		switch mnemonic {
		case "i32.const":
			v, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil {
				return Instruction{}, err
			}
			return ConstI32(int32(v)), nil
		case "i64.const":
			v, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return Instruction{}, err
			}
			return ConstI64(v), nil
		case "f32.const":
			v, err := strconv.ParseFloat(args[0], 32)
			if err != nil {
				return Instruction{}, err
			}
			return ConstF32(float32(v)), nil
		default:
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return Instruction{}, err
			}
			return ConstF64(v), nil
		}

	default:
		if op, ok := mnemonicToOpcode[mnemonic]; ok {
			if isMemOp(op) {
				align, offset, err := parseMemArgs(args)
				if err != nil {
					return Instruction{}, err
				}
				return Mem(op, align, offset), nil
			}
			// Plain numeric/comparison/conversion opcode, no operand.
			return Plain(op), nil
		}
		return Instruction{}, fmt.Errorf("unknown opcode %q", mnemonic)
	}
}

func parseMemArgs(args []string) (align, offset uint32, err error) {
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok {
			return 0, 0, fmt.Errorf("memory argument %q must be key=value", a)
		}
		n, perr := strconv.ParseUint(v, 10, 32)
		if perr != nil {
			return 0, 0, perr
		}
		switch k {
		case "align":
			align = uint32(n)
		case "offset":
			offset = uint32(n)
		default:
			return 0, 0, fmt.Errorf("unknown memory argument %q", k)
		}
	}
	return align, offset, nil
}

func parseBlockType(s string) (BlockType, error) {
	switch s {
	case "", "void":
		return BlockTypeEmpty, nil
	case "i32":
		return BlockTypeI32, nil
	case "i64":
		return BlockTypeI64, nil
	case "f32":
		return BlockTypeF32, nil
	case "f64":
		return BlockTypeF64, nil
	default:
		if idx, ok := strings.CutPrefix(s, "type="); ok {
			n, err := strconv.ParseUint(idx, 10, 32)
			if err != nil {
				return 0, err
			}
			return BlockType(n), nil
		}
		return 0, fmt.Errorf("unknown block type %q", s)
	}
}
