package interp

import (
	"math"
	"math/bits"

	"github.com/anvm-go/linkvm/errors"
	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

// dispatchSequence interprets one non-branching opcode: constants,
// parametric, variable access, memory, and the numeric/comparison/
// conversion operators (spec.md §4.4). The caller advances the
// program counter on success.
func (vm *VM) dispatchSequence(in wasm.Instruction) error {
	switch in.Op {
	case wasm.OpNop:
		return nil

	case wasm.OpI32Const:
		vm.stack.Push(value.I32ValueFromSigned(in.I32Value))
		return nil
	case wasm.OpI64Const:
		vm.stack.Push(value.I64ValueFromSigned(in.I64Value))
		return nil
	case wasm.OpF32Const:
		vm.stack.Push(value.F32ValueFromFloat(in.F32Value))
		return nil
	case wasm.OpF64Const:
		vm.stack.Push(value.F64ValueFromFloat(in.F64Value))
		return nil

	case wasm.OpDrop:
		vm.stack.Pop()
		return nil
	case wasm.OpSelect:
		return vm.execSelect()

	case wasm.OpLocalGet:
		vm.stack.Push(vm.stack.At(vm.status.LocalPointer + in.VarIndex))
		return nil
	case wasm.OpLocalSet:
		vm.stack.Set(vm.status.LocalPointer+in.VarIndex, vm.stack.Pop())
		return nil
	case wasm.OpLocalTee:
		vm.stack.Set(vm.status.LocalPointer+in.VarIndex, vm.stack.Peek())
		return nil
	case wasm.OpGlobalGet:
		g := vm.link.Globals[vm.status.ModuleIndex][in.VarIndex]
		vm.stack.Push(g.Get())
		return nil
	case wasm.OpGlobalSet:
		g := vm.link.Globals[vm.status.ModuleIndex][in.VarIndex]
		g.Set(vm.stack.Pop())
		return nil

	case wasm.OpMemorySize:
		mem := vm.link.Memories[vm.status.ModuleIndex]
		vm.stack.Push(value.I32Value(mem.Pages()))
		return nil
	case wasm.OpMemoryGrow:
		mem := vm.link.Memories[vm.status.ModuleIndex]
		delta := vm.stack.Pop().I32()
		prev, ok := mem.Grow(delta)
		if !ok {
			vm.stack.Push(value.I32ValueFromSigned(-1))
			return nil
		}
		vm.stack.Push(value.I32Value(prev))
		return nil
	}

	if isMemAccess(in.Op) {
		return vm.execMemAccess(in)
	}
	if isNumeric(in.Op) {
		return vm.execNumeric(in.Op)
	}
	return errors.UnsupportedOpcode(in.Op.Name())
}

func (vm *VM) execSelect() error {
	cond := vm.stack.Pop().I32() != 0
	b := vm.stack.Pop()
	a := vm.stack.Pop()
	if cond {
		vm.stack.Push(a)
	} else {
		vm.stack.Push(b)
	}
	return nil
}

func isMemAccess(op wasm.Opcode) bool {
	return op >= wasm.OpI32Load && op <= wasm.OpI64Store32
}

func isNumeric(op wasm.Opcode) bool {
	return op >= wasm.OpI32Eqz && op <= wasm.OpI64Extend32S
}

// --- memory ---

func (vm *VM) effectiveAddr(in wasm.Instruction) (uint32, error) {
	base := vm.stack.Pop().I32()
	addr := base + in.Offset
	return addr, nil
}

func (vm *VM) execMemAccess(in wasm.Instruction) error {
	mem := vm.link.Memories[vm.status.ModuleIndex]

	switch in.Op {
	case wasm.OpI32Load, wasm.OpI64Load, wasm.OpF32Load, wasm.OpF64Load,
		wasm.OpI32Load8S, wasm.OpI32Load8U, wasm.OpI32Load16S, wasm.OpI32Load16U,
		wasm.OpI64Load8S, wasm.OpI64Load8U, wasm.OpI64Load16S, wasm.OpI64Load16U,
		wasm.OpI64Load32S, wasm.OpI64Load32U:
		addr, _ := vm.effectiveAddr(in)
		return vm.execLoad(mem, in.Op, addr)

	default:
		// Stores consume the value before the address on the wire order,
		// but the address operand is pushed first and the value second,
		// so the value is on top.
		val := vm.stack.Pop()
		addr := vm.stack.Pop().I32() + in.Offset
		return vm.execStore(mem, in.Op, addr, val)
	}
}

func (vm *VM) execLoad(mem memoryAccessor, op wasm.Opcode, addr uint32) error {
	switch op {
	case wasm.OpI32Load:
		if err := mem.ValidateAddrRange(addr, 4); err != nil {
			return err
		}
		vm.stack.Push(value.I32Value(mem.ReadUint32(addr)))
	case wasm.OpI64Load:
		if err := mem.ValidateAddrRange(addr, 8); err != nil {
			return err
		}
		vm.stack.Push(value.I64Value(mem.ReadUint64(addr)))
	case wasm.OpF32Load:
		if err := mem.ValidateAddrRange(addr, 4); err != nil {
			return err
		}
		vm.stack.Push(value.F32Value(mem.ReadUint32(addr)))
	case wasm.OpF64Load:
		if err := mem.ValidateAddrRange(addr, 8); err != nil {
			return err
		}
		vm.stack.Push(value.F64Value(mem.ReadUint64(addr)))
	case wasm.OpI32Load8S:
		if err := mem.ValidateAddrRange(addr, 1); err != nil {
			return err
		}
		vm.stack.Push(value.I32ValueFromSigned(int32(int8(mem.ReadByte(addr)))))
	case wasm.OpI32Load8U:
		if err := mem.ValidateAddrRange(addr, 1); err != nil {
			return err
		}
		vm.stack.Push(value.I32Value(uint32(mem.ReadByte(addr))))
	case wasm.OpI32Load16S:
		if err := mem.ValidateAddrRange(addr, 2); err != nil {
			return err
		}
		vm.stack.Push(value.I32ValueFromSigned(int32(int16(mem.ReadUint16(addr)))))
	case wasm.OpI32Load16U:
		if err := mem.ValidateAddrRange(addr, 2); err != nil {
			return err
		}
		vm.stack.Push(value.I32Value(uint32(mem.ReadUint16(addr))))
	case wasm.OpI64Load8S:
		if err := mem.ValidateAddrRange(addr, 1); err != nil {
			return err
		}
		vm.stack.Push(value.I64ValueFromSigned(int64(int8(mem.ReadByte(addr)))))
	case wasm.OpI64Load8U:
		if err := mem.ValidateAddrRange(addr, 1); err != nil {
			return err
		}
		vm.stack.Push(value.I64Value(uint64(mem.ReadByte(addr))))
	case wasm.OpI64Load16S:
		if err := mem.ValidateAddrRange(addr, 2); err != nil {
			return err
		}
		vm.stack.Push(value.I64ValueFromSigned(int64(int16(mem.ReadUint16(addr)))))
	case wasm.OpI64Load16U:
		if err := mem.ValidateAddrRange(addr, 2); err != nil {
			return err
		}
		vm.stack.Push(value.I64Value(uint64(mem.ReadUint16(addr))))
	case wasm.OpI64Load32S:
		if err := mem.ValidateAddrRange(addr, 4); err != nil {
			return err
		}
		vm.stack.Push(value.I64ValueFromSigned(int64(int32(mem.ReadUint32(addr)))))
	case wasm.OpI64Load32U:
		if err := mem.ValidateAddrRange(addr, 4); err != nil {
			return err
		}
		vm.stack.Push(value.I64Value(uint64(mem.ReadUint32(addr))))
	}
	return nil
}

func (vm *VM) execStore(mem memoryAccessor, op wasm.Opcode, addr uint32, val value.Value) error {
	switch op {
	case wasm.OpI32Store:
		if err := mem.ValidateAddrRange(addr, 4); err != nil {
			return err
		}
		mem.WriteUint32(addr, val.I32())
	case wasm.OpI64Store:
		if err := mem.ValidateAddrRange(addr, 8); err != nil {
			return err
		}
		mem.WriteUint64(addr, val.I64())
	case wasm.OpF32Store:
		if err := mem.ValidateAddrRange(addr, 4); err != nil {
			return err
		}
		mem.WriteUint32(addr, val.F32Bits())
	case wasm.OpF64Store:
		if err := mem.ValidateAddrRange(addr, 8); err != nil {
			return err
		}
		mem.WriteUint64(addr, val.F64Bits())
	case wasm.OpI32Store8:
		if err := mem.ValidateAddrRange(addr, 1); err != nil {
			return err
		}
		mem.WriteByte(addr, byte(val.I32()))
	case wasm.OpI32Store16:
		if err := mem.ValidateAddrRange(addr, 2); err != nil {
			return err
		}
		mem.WriteUint16(addr, uint16(val.I32()))
	case wasm.OpI64Store8:
		if err := mem.ValidateAddrRange(addr, 1); err != nil {
			return err
		}
		mem.WriteByte(addr, byte(val.I64()))
	case wasm.OpI64Store16:
		if err := mem.ValidateAddrRange(addr, 2); err != nil {
			return err
		}
		mem.WriteUint16(addr, uint16(val.I64()))
	case wasm.OpI64Store32:
		if err := mem.ValidateAddrRange(addr, 4); err != nil {
			return err
		}
		mem.WriteUint32(addr, uint32(val.I64()))
	}
	return nil
}

// memoryAccessor is the subset of *instance.Memory the interpreter
// needs; declared locally so sequence.go doesn't import instance
// directly (it only ever touches memory through vm.link).
type memoryAccessor interface {
	ValidateAddrRange(addr uint32, size uint64) error
	ReadByte(addr uint32) byte
	WriteByte(addr uint32, v byte)
	ReadUint16(addr uint32) uint16
	WriteUint16(addr uint32, v uint16)
	ReadUint32(addr uint32) uint32
	WriteUint32(addr uint32, v uint32)
	ReadUint64(addr uint32) uint64
	WriteUint64(addr uint32, v uint64)
}

// --- numeric ---

func (vm *VM) execNumeric(op wasm.Opcode) error {
	switch {
	case op >= wasm.OpI32Eqz && op <= wasm.OpI32GeU:
		return vm.execI32Compare(op)
	case op >= wasm.OpI64Eqz && op <= wasm.OpI64GeU:
		return vm.execI64Compare(op)
	case op >= wasm.OpF32Eq && op <= wasm.OpF32Ge:
		return vm.execF32Compare(op)
	case op >= wasm.OpF64Eq && op <= wasm.OpF64Ge:
		return vm.execF64Compare(op)
	case op >= wasm.OpI32Clz && op <= wasm.OpI32Rotr:
		return vm.execI32Arith(op)
	case op >= wasm.OpI64Clz && op <= wasm.OpI64Rotr:
		return vm.execI64Arith(op)
	case op >= wasm.OpF32Abs && op <= wasm.OpF32Copysign:
		return vm.execF32Arith(op)
	case op >= wasm.OpF64Abs && op <= wasm.OpF64Copysign:
		return vm.execF64Arith(op)
	default:
		return vm.execConversion(op)
	}
}

func boolValue(b bool) value.Value {
	if b {
		return value.I32Value(1)
	}
	return value.I32Value(0)
}

func (vm *VM) execI32Compare(op wasm.Opcode) error {
	if op == wasm.OpI32Eqz {
		a := vm.stack.Pop().I32()
		vm.stack.Push(boolValue(a == 0))
		return nil
	}
	b := vm.stack.Pop().I32()
	a := vm.stack.Pop().I32()
	as, bs := int32(a), int32(b)
	var r bool
	switch op {
	case wasm.OpI32Eq:
		r = a == b
	case wasm.OpI32Ne:
		r = a != b
	case wasm.OpI32LtS:
		r = as < bs
	case wasm.OpI32LtU:
		r = a < b
	case wasm.OpI32GtS:
		r = as > bs
	case wasm.OpI32GtU:
		r = a > b
	case wasm.OpI32LeS:
		r = as <= bs
	case wasm.OpI32LeU:
		r = a <= b
	case wasm.OpI32GeS:
		r = as >= bs
	case wasm.OpI32GeU:
		r = a >= b
	}
	vm.stack.Push(boolValue(r))
	return nil
}

func (vm *VM) execI64Compare(op wasm.Opcode) error {
	if op == wasm.OpI64Eqz {
		a := vm.stack.Pop().I64()
		vm.stack.Push(boolValue(a == 0))
		return nil
	}
	b := vm.stack.Pop().I64()
	a := vm.stack.Pop().I64()
	as, bs := int64(a), int64(b)
	var r bool
	switch op {
	case wasm.OpI64Eq:
		r = a == b
	case wasm.OpI64Ne:
		r = a != b
	case wasm.OpI64LtS:
		r = as < bs
	case wasm.OpI64LtU:
		r = a < b
	case wasm.OpI64GtS:
		r = as > bs
	case wasm.OpI64GtU:
		r = a > b
	case wasm.OpI64LeS:
		r = as <= bs
	case wasm.OpI64LeU:
		r = a <= b
	case wasm.OpI64GeS:
		r = as >= bs
	case wasm.OpI64GeU:
		r = a >= b
	}
	vm.stack.Push(boolValue(r))
	return nil
}

func (vm *VM) execF32Compare(op wasm.Opcode) error {
	b := vm.stack.Pop().F32()
	a := vm.stack.Pop().F32()
	var r bool
	switch op {
	case wasm.OpF32Eq:
		r = a == b
	case wasm.OpF32Ne:
		r = a != b
	case wasm.OpF32Lt:
		r = a < b
	case wasm.OpF32Gt:
		r = a > b
	case wasm.OpF32Le:
		r = a <= b
	case wasm.OpF32Ge:
		r = a >= b
	}
	vm.stack.Push(boolValue(r))
	return nil
}

func (vm *VM) execF64Compare(op wasm.Opcode) error {
	b := vm.stack.Pop().F64()
	a := vm.stack.Pop().F64()
	var r bool
	switch op {
	case wasm.OpF64Eq:
		r = a == b
	case wasm.OpF64Ne:
		r = a != b
	case wasm.OpF64Lt:
		r = a < b
	case wasm.OpF64Gt:
		r = a > b
	case wasm.OpF64Le:
		r = a <= b
	case wasm.OpF64Ge:
		r = a >= b
	}
	vm.stack.Push(boolValue(r))
	return nil
}

func (vm *VM) execI32Arith(op wasm.Opcode) error {
	if op == wasm.OpI32Clz || op == wasm.OpI32Ctz || op == wasm.OpI32Popcnt {
		a := vm.stack.Pop().I32()
		var r uint32
		switch op {
		case wasm.OpI32Clz:
			r = uint32(bits.LeadingZeros32(a))
		case wasm.OpI32Ctz:
			r = uint32(bits.TrailingZeros32(a))
		case wasm.OpI32Popcnt:
			r = uint32(bits.OnesCount32(a))
		}
		vm.stack.Push(value.I32Value(r))
		return nil
	}

	b := vm.stack.Pop().I32()
	a := vm.stack.Pop().I32()
	as, bs := int32(a), int32(b)
	switch op {
	case wasm.OpI32Add:
		vm.stack.Push(value.I32Value(a + b))
	case wasm.OpI32Sub:
		vm.stack.Push(value.I32Value(a - b))
	case wasm.OpI32Mul:
		vm.stack.Push(value.I32Value(a * b))
	case wasm.OpI32DivS:
		if b == 0 {
			return errors.IntegerDivideByZero()
		}
		if as == math.MinInt32 && bs == -1 {
			return errors.IntegerOverflow()
		}
		vm.stack.Push(value.I32ValueFromSigned(as / bs))
	case wasm.OpI32DivU:
		if b == 0 {
			return errors.IntegerDivideByZero()
		}
		vm.stack.Push(value.I32Value(a / b))
	case wasm.OpI32RemS:
		if b == 0 {
			return errors.IntegerDivideByZero()
		}
		if as == math.MinInt32 && bs == -1 {
			vm.stack.Push(value.I32Value(0))
			return nil
		}
		vm.stack.Push(value.I32ValueFromSigned(as % bs))
	case wasm.OpI32RemU:
		if b == 0 {
			return errors.IntegerDivideByZero()
		}
		vm.stack.Push(value.I32Value(a % b))
	case wasm.OpI32And:
		vm.stack.Push(value.I32Value(a & b))
	case wasm.OpI32Or:
		vm.stack.Push(value.I32Value(a | b))
	case wasm.OpI32Xor:
		vm.stack.Push(value.I32Value(a ^ b))
	case wasm.OpI32Shl:
		vm.stack.Push(value.I32Value(a << (b & 31)))
	case wasm.OpI32ShrS:
		vm.stack.Push(value.I32ValueFromSigned(as >> (b & 31)))
	case wasm.OpI32ShrU:
		vm.stack.Push(value.I32Value(a >> (b & 31)))
	case wasm.OpI32Rotl:
		vm.stack.Push(value.I32Value(bits.RotateLeft32(a, int(b&31))))
	case wasm.OpI32Rotr:
		vm.stack.Push(value.I32Value(bits.RotateLeft32(a, -int(b&31))))
	}
	return nil
}

func (vm *VM) execI64Arith(op wasm.Opcode) error {
	if op == wasm.OpI64Clz || op == wasm.OpI64Ctz || op == wasm.OpI64Popcnt {
		a := vm.stack.Pop().I64()
		var r uint64
		switch op {
		case wasm.OpI64Clz:
			r = uint64(bits.LeadingZeros64(a))
		case wasm.OpI64Ctz:
			r = uint64(bits.TrailingZeros64(a))
		case wasm.OpI64Popcnt:
			r = uint64(bits.OnesCount64(a))
		}
		vm.stack.Push(value.I64Value(r))
		return nil
	}

	b := vm.stack.Pop().I64()
	a := vm.stack.Pop().I64()
	as, bs := int64(a), int64(b)
	switch op {
	case wasm.OpI64Add:
		vm.stack.Push(value.I64Value(a + b))
	case wasm.OpI64Sub:
		vm.stack.Push(value.I64Value(a - b))
	case wasm.OpI64Mul:
		vm.stack.Push(value.I64Value(a * b))
	case wasm.OpI64DivS:
		if b == 0 {
			return errors.IntegerDivideByZero()
		}
		if as == math.MinInt64 && bs == -1 {
			return errors.IntegerOverflow()
		}
		vm.stack.Push(value.I64ValueFromSigned(as / bs))
	case wasm.OpI64DivU:
		if b == 0 {
			return errors.IntegerDivideByZero()
		}
		vm.stack.Push(value.I64Value(a / b))
	case wasm.OpI64RemS:
		if b == 0 {
			return errors.IntegerDivideByZero()
		}
		if as == math.MinInt64 && bs == -1 {
			vm.stack.Push(value.I64Value(0))
			return nil
		}
		vm.stack.Push(value.I64ValueFromSigned(as % bs))
	case wasm.OpI64RemU:
		if b == 0 {
			return errors.IntegerDivideByZero()
		}
		vm.stack.Push(value.I64Value(a % b))
	case wasm.OpI64And:
		vm.stack.Push(value.I64Value(a & b))
	case wasm.OpI64Or:
		vm.stack.Push(value.I64Value(a | b))
	case wasm.OpI64Xor:
		vm.stack.Push(value.I64Value(a ^ b))
	case wasm.OpI64Shl:
		vm.stack.Push(value.I64Value(a << (b & 63)))
	case wasm.OpI64ShrS:
		vm.stack.Push(value.I64ValueFromSigned(as >> (b & 63)))
	case wasm.OpI64ShrU:
		vm.stack.Push(value.I64Value(a >> (b & 63)))
	case wasm.OpI64Rotl:
		vm.stack.Push(value.I64Value(bits.RotateLeft64(a, int(b&63))))
	case wasm.OpI64Rotr:
		vm.stack.Push(value.I64Value(bits.RotateLeft64(a, -int(b&63))))
	}
	return nil
}

func (vm *VM) execF32Arith(op wasm.Opcode) error {
	if op == wasm.OpF32Abs || op == wasm.OpF32Neg || op == wasm.OpF32Ceil ||
		op == wasm.OpF32Floor || op == wasm.OpF32Trunc || op == wasm.OpF32Nearest || op == wasm.OpF32Sqrt {
		a := vm.stack.Pop().F32()
		var r float32
		switch op {
		case wasm.OpF32Abs:
			r = float32(math.Abs(float64(a)))
		case wasm.OpF32Neg:
			r = -a
		case wasm.OpF32Ceil:
			r = float32(math.Ceil(float64(a)))
		case wasm.OpF32Floor:
			r = float32(math.Floor(float64(a)))
		case wasm.OpF32Trunc:
			r = float32(math.Trunc(float64(a)))
		case wasm.OpF32Nearest:
			r = float32(math.RoundToEven(float64(a)))
		case wasm.OpF32Sqrt:
			r = float32(math.Sqrt(float64(a)))
		}
		vm.stack.Push(value.F32ValueFromFloat(r))
		return nil
	}

	b := vm.stack.Pop().F32()
	a := vm.stack.Pop().F32()
	var r float32
	switch op {
	case wasm.OpF32Add:
		r = a + b
	case wasm.OpF32Sub:
		r = a - b
	case wasm.OpF32Mul:
		r = a * b
	case wasm.OpF32Div:
		r = a / b
	case wasm.OpF32Min:
		r = f32Min(a, b)
	case wasm.OpF32Max:
		r = f32Max(a, b)
	case wasm.OpF32Copysign:
		r = float32(math.Copysign(float64(a), float64(b)))
	}
	vm.stack.Push(value.F32ValueFromFloat(r))
	return nil
}

func (vm *VM) execF64Arith(op wasm.Opcode) error {
	if op == wasm.OpF64Abs || op == wasm.OpF64Neg || op == wasm.OpF64Ceil ||
		op == wasm.OpF64Floor || op == wasm.OpF64Trunc || op == wasm.OpF64Nearest || op == wasm.OpF64Sqrt {
		a := vm.stack.Pop().F64()
		var r float64
		switch op {
		case wasm.OpF64Abs:
			r = math.Abs(a)
		case wasm.OpF64Neg:
			r = -a
		case wasm.OpF64Ceil:
			r = math.Ceil(a)
		case wasm.OpF64Floor:
			r = math.Floor(a)
		case wasm.OpF64Trunc:
			r = math.Trunc(a)
		case wasm.OpF64Nearest:
			r = math.RoundToEven(a)
		case wasm.OpF64Sqrt:
			r = math.Sqrt(a)
		}
		vm.stack.Push(value.F64ValueFromFloat(r))
		return nil
	}

	b := vm.stack.Pop().F64()
	a := vm.stack.Pop().F64()
	var r float64
	switch op {
	case wasm.OpF64Add:
		r = a + b
	case wasm.OpF64Sub:
		r = a - b
	case wasm.OpF64Mul:
		r = a * b
	case wasm.OpF64Div:
		r = a / b
	case wasm.OpF64Min:
		r = f64Min(a, b)
	case wasm.OpF64Max:
		r = f64Max(a, b)
	case wasm.OpF64Copysign:
		r = math.Copysign(a, b)
	}
	vm.stack.Push(value.F64ValueFromFloat(r))
	return nil
}

// f32Min/f32Max/f64Min/f64Max implement the Wasm spec's NaN-propagating,
// signed-zero-aware min/max (NaN if either operand is NaN; -0 < +0).
func f32Min(a, b float32) float32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return float32(math.NaN())
	}
	if a == 0 && b == 0 {
		if math.Signbit(float64(a)) {
			return a
		}
		return b
	}
	if a < b {
		return a
	}
	return b
}

func f32Max(a, b float32) float32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return float32(math.NaN())
	}
	if a == 0 && b == 0 {
		if math.Signbit(float64(a)) {
			return b
		}
		return a
	}
	if a > b {
		return a
	}
	return b
}

func f64Min(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return a
		}
		return b
	}
	if a < b {
		return a
	}
	return b
}

func f64Max(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if a == 0 && b == 0 {
		if math.Signbit(a) {
			return b
		}
		return a
	}
	if a > b {
		return a
	}
	return b
}

// --- conversions ---

func (vm *VM) execConversion(op wasm.Opcode) error {
	switch op {
	case wasm.OpI32WrapI64:
		a := vm.stack.Pop().I64()
		vm.stack.Push(value.I32Value(uint32(a)))
		return nil

	case wasm.OpI32TruncF32S:
		return vm.truncToI32(float64(vm.stack.Pop().F32()), true)
	case wasm.OpI32TruncF32U:
		return vm.truncToI32(float64(vm.stack.Pop().F32()), false)
	case wasm.OpI32TruncF64S:
		return vm.truncToI32(vm.stack.Pop().F64(), true)
	case wasm.OpI32TruncF64U:
		return vm.truncToI32(vm.stack.Pop().F64(), false)

	case wasm.OpI64ExtendI32S:
		a := int32(vm.stack.Pop().I32())
		vm.stack.Push(value.I64ValueFromSigned(int64(a)))
		return nil
	case wasm.OpI64ExtendI32U:
		a := vm.stack.Pop().I32()
		vm.stack.Push(value.I64Value(uint64(a)))
		return nil

	case wasm.OpI64TruncF32S:
		return vm.truncToI64(float64(vm.stack.Pop().F32()), true)
	case wasm.OpI64TruncF32U:
		return vm.truncToI64(float64(vm.stack.Pop().F32()), false)
	case wasm.OpI64TruncF64S:
		return vm.truncToI64(vm.stack.Pop().F64(), true)
	case wasm.OpI64TruncF64U:
		return vm.truncToI64(vm.stack.Pop().F64(), false)

	case wasm.OpF32ConvertI32S:
		vm.stack.Push(value.F32ValueFromFloat(float32(int32(vm.stack.Pop().I32()))))
		return nil
	case wasm.OpF32ConvertI32U:
		vm.stack.Push(value.F32ValueFromFloat(float32(vm.stack.Pop().I32())))
		return nil
	case wasm.OpF32ConvertI64S:
		vm.stack.Push(value.F32ValueFromFloat(float32(int64(vm.stack.Pop().I64()))))
		return nil
	case wasm.OpF32ConvertI64U:
		vm.stack.Push(value.F32ValueFromFloat(float32(vm.stack.Pop().I64())))
		return nil
	case wasm.OpF32DemoteF64:
		vm.stack.Push(value.F32ValueFromFloat(float32(vm.stack.Pop().F64())))
		return nil

	case wasm.OpF64ConvertI32S:
		vm.stack.Push(value.F64ValueFromFloat(float64(int32(vm.stack.Pop().I32()))))
		return nil
	case wasm.OpF64ConvertI32U:
		vm.stack.Push(value.F64ValueFromFloat(float64(vm.stack.Pop().I32())))
		return nil
	case wasm.OpF64ConvertI64S:
		vm.stack.Push(value.F64ValueFromFloat(float64(int64(vm.stack.Pop().I64()))))
		return nil
	case wasm.OpF64ConvertI64U:
		vm.stack.Push(value.F64ValueFromFloat(float64(vm.stack.Pop().I64())))
		return nil
	case wasm.OpF64PromoteF32:
		vm.stack.Push(value.F64ValueFromFloat(float64(vm.stack.Pop().F32())))
		return nil

	case wasm.OpI32ReinterpretF32:
		vm.stack.Push(value.I32Value(vm.stack.Pop().F32Bits()))
		return nil
	case wasm.OpI64ReinterpretF64:
		vm.stack.Push(value.I64Value(vm.stack.Pop().F64Bits()))
		return nil
	case wasm.OpF32ReinterpretI32:
		vm.stack.Push(value.F32Value(vm.stack.Pop().I32()))
		return nil
	case wasm.OpF64ReinterpretI64:
		vm.stack.Push(value.F64Value(vm.stack.Pop().I64()))
		return nil

	case wasm.OpI32Extend8S:
		a := int8(vm.stack.Pop().I32())
		vm.stack.Push(value.I32ValueFromSigned(int32(a)))
		return nil
	case wasm.OpI32Extend16S:
		a := int16(vm.stack.Pop().I32())
		vm.stack.Push(value.I32ValueFromSigned(int32(a)))
		return nil
	case wasm.OpI64Extend8S:
		a := int8(vm.stack.Pop().I64())
		vm.stack.Push(value.I64ValueFromSigned(int64(a)))
		return nil
	case wasm.OpI64Extend16S:
		a := int16(vm.stack.Pop().I64())
		vm.stack.Push(value.I64ValueFromSigned(int64(a)))
		return nil
	case wasm.OpI64Extend32S:
		a := int32(vm.stack.Pop().I64())
		vm.stack.Push(value.I64ValueFromSigned(int64(a)))
		return nil
	}

	return errors.UnsupportedOpcode(op.Name())
}

func (vm *VM) truncToI32(f float64, signed bool) error {
	if math.IsNaN(f) {
		return errors.InvalidConversionToInteger()
	}
	t := math.Trunc(f)
	if signed {
		if t < math.MinInt32 || t > math.MaxInt32 {
			return errors.IntegerOverflow()
		}
		vm.stack.Push(value.I32ValueFromSigned(int32(t)))
		return nil
	}
	if t < 0 || t > math.MaxUint32 {
		return errors.IntegerOverflow()
	}
	vm.stack.Push(value.I32Value(uint32(t)))
	return nil
}

func (vm *VM) truncToI64(f float64, signed bool) error {
	if math.IsNaN(f) {
		return errors.InvalidConversionToInteger()
	}
	t := math.Trunc(f)
	if signed {
		if t < math.MinInt64 || t >= math.MaxInt64 {
			return errors.IntegerOverflow()
		}
		vm.stack.Push(value.I64ValueFromSigned(int64(t)))
		return nil
	}
	if t < 0 || t >= math.MaxUint64 {
		return errors.IntegerOverflow()
	}
	vm.stack.Push(value.I64Value(uint64(t)))
	return nil
}
