package wasm

import "fmt"

// Instruction is one decoded instruction in a function's flat
// instruction stream. Only the fields relevant to Op are meaningful;
// which fields those are is determined by Op's category (control,
// variable, memory, constant, or plain numeric/comparison/conversion
// opcodes that need no operand at all).
//
// Structured control (block/loop/if) and branches (br/br_if/br_table)
// carry the information a depth-first decode naturally produces —
// a pre-order BlockIndex and relative label depths — not resolved
// addresses. Address resolution from BlockIndex/LabelIndex into
// concrete jump targets is package block's and package interp's job.
type Instruction struct {
	Op Opcode

	// block / loop / if
	BlockType  BlockType
	BlockIndex uint32

	// br / br_if: relative label depth, counting outward from the
	// branch's own position (0 = innermost enclosing block).
	LabelIndex uint32

	// br_table
	Labels  []uint32
	Default uint32

	// call
	FuncIndex uint32

	// call_indirect
	TypeIndex  uint32
	TableIndex uint32

	// local.get / local.set / local.tee / global.get / global.set
	VarIndex uint32

	// memory loads/stores
	Align  uint32
	Offset uint32

	// const
	I32Value int32
	I64Value int64
	F32Value float32
	F64Value float64
}

// Block constructs a `block`/`loop`/`if` instruction.
func Block(op Opcode, bt BlockType, blockIndex uint32) Instruction {
	return Instruction{Op: op, BlockType: bt, BlockIndex: blockIndex}
}

// Br constructs a `br`/`br_if` instruction.
func Br(op Opcode, labelIndex uint32) Instruction {
	return Instruction{Op: op, LabelIndex: labelIndex}
}

// BrTable constructs a `br_table` instruction.
func BrTable(labels []uint32, def uint32) Instruction {
	return Instruction{Op: OpBrTable, Labels: labels, Default: def}
}

// Call constructs a `call` instruction.
func Call(funcIndex uint32) Instruction {
	return Instruction{Op: OpCall, FuncIndex: funcIndex}
}

// CallIndirect constructs a `call_indirect` instruction.
func CallIndirect(typeIndex, tableIndex uint32) Instruction {
	return Instruction{Op: OpCallIndirect, TypeIndex: typeIndex, TableIndex: tableIndex}
}

// Var constructs a local/global access instruction.
func Var(op Opcode, index uint32) Instruction {
	return Instruction{Op: op, VarIndex: index}
}

// Mem constructs a memory load/store instruction.
func Mem(op Opcode, align, offset uint32) Instruction {
	return Instruction{Op: op, Align: align, Offset: offset}
}

// ConstI32 constructs an `i32.const` instruction.
func ConstI32(v int32) Instruction { return Instruction{Op: OpI32Const, I32Value: v} }

// ConstI64 constructs an `i64.const` instruction.
func ConstI64(v int64) Instruction { return Instruction{Op: OpI64Const, I64Value: v} }

// ConstF32 constructs an `f32.const` instruction.
func ConstF32(v float32) Instruction { return Instruction{Op: OpF32Const, F32Value: v} }

// ConstF64 constructs an `f64.const` instruction.
func ConstF64(v float64) Instruction { return Instruction{Op: OpF64Const, F64Value: v} }

// Plain constructs an instruction with no operand (drop, select, all
// comparison/numeric/conversion opcodes, unreachable, nop, end, else,
// return, memory.size, memory.grow).
func Plain(op Opcode) Instruction { return Instruction{Op: op} }

// IsControl reports whether op is one of the structured control
// opcodes the block-layout analyser tracks.
func (op Opcode) IsControl() bool {
	switch op {
	case OpBlock, OpLoop, OpIf, OpElse, OpEnd:
		return true
	default:
		return false
	}
}

// String renders the instruction's mnemonic and its meaningful
// operands.
func (in Instruction) String() string {
	name := opcodeNames[in.Op]
	if name == "" {
		name = fmt.Sprintf("op(0x%02x)", uint16(in.Op))
	}
	switch in.Op {
	case OpBlock, OpLoop, OpIf:
		return fmt.Sprintf("%s #%d", name, in.BlockIndex)
	case OpBr, OpBrIf:
		return fmt.Sprintf("%s %d", name, in.LabelIndex)
	case OpBrTable:
		return fmt.Sprintf("%s %v default=%d", name, in.Labels, in.Default)
	case OpCall:
		return fmt.Sprintf("%s %d", name, in.FuncIndex)
	case OpCallIndirect:
		return fmt.Sprintf("%s type=%d table=%d", name, in.TypeIndex, in.TableIndex)
	case OpLocalGet, OpLocalSet, OpLocalTee, OpGlobalGet, OpGlobalSet:
		return fmt.Sprintf("%s %d", name, in.VarIndex)
	case OpI32Const:
		return fmt.Sprintf("%s %d", name, in.I32Value)
	case OpI64Const:
		return fmt.Sprintf("%s %d", name, in.I64Value)
	case OpF32Const:
		return fmt.Sprintf("%s %g", name, in.F32Value)
	case OpF64Const:
		return fmt.Sprintf("%s %g", name, in.F64Value)
	default:
		if isMemOp(in.Op) {
			return fmt.Sprintf("%s align=%d offset=%d", name, in.Align, in.Offset)
		}
		return name
	}
}

func isMemOp(op Opcode) bool {
	return op >= OpI32Load && op <= OpI64Store32
}

var opcodeNames = map[Opcode]string{
	OpUnreachable: "unreachable", OpNop: "nop", OpBlock: "block", OpLoop: "loop",
	OpIf: "if", OpElse: "else", OpEnd: "end", OpBr: "br", OpBrIf: "br_if",
	OpBrTable: "br_table", OpReturn: "return", OpCall: "call", OpCallIndirect: "call_indirect",
	OpDrop: "drop", OpSelect: "select",
	OpLocalGet: "local.get", OpLocalSet: "local.set", OpLocalTee: "local.tee",
	OpGlobalGet: "global.get", OpGlobalSet: "global.set",
	OpI32Load: "i32.load", OpI64Load: "i64.load", OpF32Load: "f32.load", OpF64Load: "f64.load",
	OpI32Load8S: "i32.load8_s", OpI32Load8U: "i32.load8_u",
	OpI32Load16S: "i32.load16_s", OpI32Load16U: "i32.load16_u",
	OpI64Load8S: "i64.load8_s", OpI64Load8U: "i64.load8_u",
	OpI64Load16S: "i64.load16_s", OpI64Load16U: "i64.load16_u",
	OpI64Load32S: "i64.load32_s", OpI64Load32U: "i64.load32_u",
	OpI32Store: "i32.store", OpI64Store: "i64.store", OpF32Store: "f32.store", OpF64Store: "f64.store",
	OpI32Store8: "i32.store8", OpI32Store16: "i32.store16",
	OpI64Store8: "i64.store8", OpI64Store16: "i64.store16", OpI64Store32: "i64.store32",
	OpMemorySize: "memory.size", OpMemoryGrow: "memory.grow",
	OpI32Const: "i32.const", OpI64Const: "i64.const", OpF32Const: "f32.const", OpF64Const: "f64.const",
	OpI32Eqz: "i32.eqz", OpI32Eq: "i32.eq", OpI32Ne: "i32.ne",
	OpI32LtS: "i32.lt_s", OpI32LtU: "i32.lt_u", OpI32GtS: "i32.gt_s", OpI32GtU: "i32.gt_u",
	OpI32LeS: "i32.le_s", OpI32LeU: "i32.le_u", OpI32GeS: "i32.ge_s", OpI32GeU: "i32.ge_u",
	OpI64Eqz: "i64.eqz", OpI64Eq: "i64.eq", OpI64Ne: "i64.ne",
	OpI64LtS: "i64.lt_s", OpI64LtU: "i64.lt_u", OpI64GtS: "i64.gt_s", OpI64GtU: "i64.gt_u",
	OpI64LeS: "i64.le_s", OpI64LeU: "i64.le_u", OpI64GeS: "i64.ge_s", OpI64GeU: "i64.ge_u",
	OpF32Eq: "f32.eq", OpF32Ne: "f32.ne", OpF32Lt: "f32.lt", OpF32Gt: "f32.gt", OpF32Le: "f32.le", OpF32Ge: "f32.ge",
	OpF64Eq: "f64.eq", OpF64Ne: "f64.ne", OpF64Lt: "f64.lt", OpF64Gt: "f64.gt", OpF64Le: "f64.le", OpF64Ge: "f64.ge",
	OpI32Clz: "i32.clz", OpI32Ctz: "i32.ctz", OpI32Popcnt: "i32.popcnt",
	OpI32Add: "i32.add", OpI32Sub: "i32.sub", OpI32Mul: "i32.mul",
	OpI32DivS: "i32.div_s", OpI32DivU: "i32.div_u", OpI32RemS: "i32.rem_s", OpI32RemU: "i32.rem_u",
	OpI32And: "i32.and", OpI32Or: "i32.or", OpI32Xor: "i32.xor",
	OpI32Shl: "i32.shl", OpI32ShrS: "i32.shr_s", OpI32ShrU: "i32.shr_u",
	OpI32Rotl: "i32.rotl", OpI32Rotr: "i32.rotr",
	OpI64Clz: "i64.clz", OpI64Ctz: "i64.ctz", OpI64Popcnt: "i64.popcnt",
	OpI64Add: "i64.add", OpI64Sub: "i64.sub", OpI64Mul: "i64.mul",
	OpI64DivS: "i64.div_s", OpI64DivU: "i64.div_u", OpI64RemS: "i64.rem_s", OpI64RemU: "i64.rem_u",
	OpI64And: "i64.and", OpI64Or: "i64.or", OpI64Xor: "i64.xor",
	OpI64Shl: "i64.shl", OpI64ShrS: "i64.shr_s", OpI64ShrU: "i64.shr_u",
	OpI64Rotl: "i64.rotl", OpI64Rotr: "i64.rotr",
	OpF32Abs: "f32.abs", OpF32Neg: "f32.neg", OpF32Ceil: "f32.ceil", OpF32Floor: "f32.floor",
	OpF32Trunc: "f32.trunc", OpF32Nearest: "f32.nearest", OpF32Sqrt: "f32.sqrt",
	OpF32Add: "f32.add", OpF32Sub: "f32.sub", OpF32Mul: "f32.mul", OpF32Div: "f32.div",
	OpF32Min: "f32.min", OpF32Max: "f32.max", OpF32Copysign: "f32.copysign",
	OpF64Abs: "f64.abs", OpF64Neg: "f64.neg", OpF64Ceil: "f64.ceil", OpF64Floor: "f64.floor",
	OpF64Trunc: "f64.trunc", OpF64Nearest: "f64.nearest", OpF64Sqrt: "f64.sqrt",
	OpF64Add: "f64.add", OpF64Sub: "f64.sub", OpF64Mul: "f64.mul", OpF64Div: "f64.div",
	OpF64Min: "f64.min", OpF64Max: "f64.max", OpF64Copysign: "f64.copysign",
	OpI32WrapI64: "i32.wrap_i64",
	OpI32TruncF32S: "i32.trunc_f32_s", OpI32TruncF32U: "i32.trunc_f32_u",
	OpI32TruncF64S: "i32.trunc_f64_s", OpI32TruncF64U: "i32.trunc_f64_u",
	OpI64ExtendI32S: "i64.extend_i32_s", OpI64ExtendI32U: "i64.extend_i32_u",
	OpI64TruncF32S: "i64.trunc_f32_s", OpI64TruncF32U: "i64.trunc_f32_u",
	OpI64TruncF64S: "i64.trunc_f64_s", OpI64TruncF64U: "i64.trunc_f64_u",
	OpF32ConvertI32S: "f32.convert_i32_s", OpF32ConvertI32U: "f32.convert_i32_u",
	OpF32ConvertI64S: "f32.convert_i64_s", OpF32ConvertI64U: "f32.convert_i64_u",
	OpF32DemoteF64: "f32.demote_f64",
	OpF64ConvertI32S: "f64.convert_i32_s", OpF64ConvertI32U: "f64.convert_i32_u",
	OpF64ConvertI64S: "f64.convert_i64_s", OpF64ConvertI64U: "f64.convert_i64_u",
	OpF64PromoteF32: "f64.promote_f32",
	OpI32ReinterpretF32: "i32.reinterpret_f32", OpI64ReinterpretF64: "i64.reinterpret_f64",
	OpF32ReinterpretI32: "f32.reinterpret_i32", OpF64ReinterpretI64: "f64.reinterpret_i64",
	OpI32Extend8S: "i32.extend8_s", OpI32Extend16S: "i32.extend16_s",
	OpI64Extend8S: "i64.extend8_s", OpI64Extend16S: "i64.extend16_s", OpI64Extend32S: "i64.extend32_s",
}

// Name returns op's textual mnemonic, or a hex placeholder if op is
// not a recognized core opcode.
func (op Opcode) Name() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return fmt.Sprintf("op(0x%02x)", uint16(op))
}
