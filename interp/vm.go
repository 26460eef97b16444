package interp

import (
	"github.com/anvm-go/linkvm/block"
	"github.com/anvm-go/linkvm/errors"
	"github.com/anvm-go/linkvm/linker"
	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/vmstack"
	"github.com/anvm-go/linkvm/wasm"
)

// Status is the VM's program counter: which function it is running,
// where within it, and the three pointers into the stack that frame
// addresses everything relative to.
type Status struct {
	ModuleIndex uint32
	FuncIndex   uint32
	FrameType   wasm.BlockType

	Address      uint32
	FramePointer uint32
	LocalPointer uint32
	BasePointer  uint32
}

type frameKind byte

const (
	frameCall frameKind = iota
	frameBlock
	frameLoop
	frameIf
)

// ctrlFrame is the interpreter-side record of one open activation —
// a function call or a structured block. It carries everything needed
// to restore the caller's status on exit, so the physical info segment
// vmstack.PushFrameInfo writes for call frames never needs to be read
// back: ctrlFrame already has the same data, cheaper to access.
type ctrlFrame struct {
	kind        frameKind
	item        *block.Item    // nil for call frames
	frameType   wasm.BlockType // block's declared type; unused for call frames
	funcResults []value.Type   // call frames only: the invoked function's result types
	localsCount int            // call frames only: total addressable local slots (params+declared)
	basePointer uint32         // this frame's own entry-time BasePointer

	returnModuleIndex uint32
	returnFuncIndex   uint32
	returnAddress     uint32
	prevFramePointer  uint32
	prevLocalPointer  uint32
	prevBasePointer   uint32
}

// operandFloor is the stack index at which this frame's own operands
// begin: for a block/loop/if frame that's basePointer itself (the
// block's parameters are peeled straight off the caller's operand
// region and remain addressable as the first operands); for a call
// frame it's basePointer offset past the locals and the physical info
// segment pushed at entry.
func (cf ctrlFrame) operandFloor() uint32 {
	if cf.kind == frameCall {
		return cf.basePointer + uint32(cf.localsCount) + vmstack.InfoSegmentItemCount
	}
	return cf.basePointer
}

// VM runs a single invocation to completion. It is not safe to reuse
// across invocations or to share across goroutines; Invoke is
// expected to be called once per VM.
type VM struct {
	link   *linker.Result
	stack  *vmstack.Stack
	ctrl   []ctrlFrame
	status Status
}

// NewVM creates a VM bound to a linked module set. Call Invoke exactly
// once.
func NewVM(link *linker.Result) *VM {
	return &VM{link: link, stack: vmstack.New()}
}

// Stack exposes the VM's operand stack for read-only introspection.
func (vm *VM) Stack() *vmstack.Stack { return vm.stack }

// Invoke runs item with args already type-checked by the caller
// (runtime.Engine does this before constructing a VM), returning its
// results in declared order.
func (vm *VM) Invoke(item linker.FunctionItem, args []value.Value) ([]value.Value, error) {
	switch fn := item.(type) {
	case *linker.NativeFunction:
		results, err := fn.Fn(args)
		if err != nil {
			return nil, errors.NativeError(fn.Module, fn.Name, err)
		}
		return results, nil
	case *linker.NormalFunction:
		for _, a := range args {
			vm.stack.Push(a)
		}
		vm.enterFunction(fn)
		if err := vm.run(); err != nil {
			return nil, err
		}
		return vm.stack.PopValues(len(fn.Type.Results)), nil
	default:
		panic("interp: unknown FunctionItem")
	}
}

func (vm *VM) run() error {
	for {
		done, err := vm.step()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (vm *VM) step() (bool, error) {
	fn := vm.currentFunction()
	in := fn.Code.Instructions[vm.status.Address]

	if in.Op.IsControl() || isBranchOrCall(in.Op) {
		return vm.dispatchControl(fn, in)
	}
	if err := vm.dispatchSequence(in); err != nil {
		return false, err
	}
	vm.status.Address++
	return false, nil
}

func isBranchOrCall(op wasm.Opcode) bool {
	switch op {
	case wasm.OpUnreachable, wasm.OpBr, wasm.OpBrIf, wasm.OpBrTable, wasm.OpReturn,
		wasm.OpCall, wasm.OpCallIndirect:
		return true
	default:
		return false
	}
}

func (vm *VM) currentFunction() *linker.NormalFunction {
	item := vm.link.Functions[vm.status.ModuleIndex][vm.status.FuncIndex]
	fn, ok := item.(*linker.NormalFunction)
	if !ok {
		panic("interp: status points at a native function")
	}
	return fn
}

// --- frame push/pop ---

func (vm *VM) enterFunction(fn *linker.NormalFunction) {
	nparams := len(fn.Type.Params)
	basePointer := vm.stack.GetSize() - uint32(nparams)
	prev := vm.status

	for _, lt := range fn.Code.Locals {
		vm.stack.Push(zeroValue(lt))
	}

	vm.stack.PushFrameInfo(vmstack.FrameInfo{
		PrevFramePointer:    prev.FramePointer,
		PrevLocalPointer:    prev.LocalPointer,
		PrevBasePointer:     prev.BasePointer,
		ReturnModuleIndex:   prev.ModuleIndex,
		ReturnFunctionIndex: prev.FuncIndex,
		ReturnAddress:       prev.Address + 1,
		FrameType:           wasm.BlockTypeEmpty,
	})

	vm.ctrl = append(vm.ctrl, ctrlFrame{
		kind:              frameCall,
		funcResults:       fn.Type.Results,
		localsCount:       nparams + len(fn.Code.Locals),
		basePointer:       basePointer,
		returnModuleIndex: prev.ModuleIndex,
		returnFuncIndex:   prev.FuncIndex,
		returnAddress:     prev.Address + 1,
		prevFramePointer:  prev.FramePointer,
		prevLocalPointer:  prev.LocalPointer,
		prevBasePointer:   prev.BasePointer,
	})

	vm.status = Status{
		ModuleIndex:  fn.ModuleIndex,
		FuncIndex:    fn.FuncIndex,
		FrameType:    wasm.BlockTypeEmpty,
		Address:      0,
		FramePointer: basePointer,
		LocalPointer: basePointer,
		BasePointer:  basePointer,
	}
}

// pushBlockFrame enters a block/loop/if frame whose body starts at
// entryAddress (the instruction right after block/loop, or right
// after if/else depending on which branch was taken).
func (vm *VM) pushBlockFrame(kind frameKind, bt wasm.BlockType, item *block.Item, entryAddress uint32) {
	nparams := len(vm.paramTypesOf(vm.status.ModuleIndex, bt))
	basePointer := vm.stack.GetSize() - uint32(nparams)
	prev := vm.status

	vm.ctrl = append(vm.ctrl, ctrlFrame{
		kind:              kind,
		item:              item,
		frameType:         bt,
		basePointer:       basePointer,
		returnModuleIndex: prev.ModuleIndex,
		returnFuncIndex:   prev.FuncIndex,
		returnAddress:     item.End + 1,
		prevFramePointer:  prev.FramePointer,
		prevLocalPointer:  prev.LocalPointer,
		prevBasePointer:   prev.BasePointer,
	})

	vm.status = Status{
		ModuleIndex:  prev.ModuleIndex,
		FuncIndex:    prev.FuncIndex,
		FrameType:    bt,
		Address:      entryAddress,
		FramePointer: basePointer + vmstack.InfoSegmentItemCount,
		LocalPointer: prev.LocalPointer,
		BasePointer:  basePointer,
	}
}

// popFrame discards the innermost frame, carrying carryCount operands
// (already validated by the caller) across onto the enclosing frame's
// region. It reports programEnd when the control stack has drained
// completely — the outermost call has just returned.
func (vm *VM) popFrame(carryCount int) (restored Status, programEnd bool) {
	top := vm.ctrl[len(vm.ctrl)-1]
	vm.ctrl = vm.ctrl[:len(vm.ctrl)-1]
	return vm.restoreFrom(top, carryCount)
}

// restoreFrom truncates the stack down to target's own base pointer
// (discarding its locals/info-segment/operands in one motion — whether
// or not a physical info segment occupies that space), carries
// carryCount top operands across, and returns the status target's own
// restore fields describe.
func (vm *VM) restoreFrom(target ctrlFrame, carryCount int) (restored Status, programEnd bool) {
	carried := vm.stack.PopValues(carryCount)
	vm.stack.Truncate(target.basePointer)
	for _, v := range carried {
		vm.stack.Push(v)
	}

	restored = Status{
		ModuleIndex:  target.returnModuleIndex,
		FuncIndex:    target.returnFuncIndex,
		Address:      target.returnAddress,
		FramePointer: target.prevFramePointer,
		LocalPointer: target.prevLocalPointer,
		BasePointer:  target.prevBasePointer,
	}
	if len(vm.ctrl) > 0 {
		restored.FrameType = vm.ctrl[len(vm.ctrl)-1].frameType
	}
	return restored, len(vm.ctrl) == 0
}

func zeroValue(t value.Type) value.Value {
	switch t {
	case value.I32:
		return value.I32Value(0)
	case value.I64:
		return value.I64Value(0)
	case value.F32:
		return value.F32ValueFromFloat(0)
	default:
		return value.F64ValueFromFloat(0)
	}
}

// --- block-type lookups ---

func (vm *VM) resultTypesOf(astModuleIndex uint32, bt wasm.BlockType) []value.Type {
	switch bt {
	case wasm.BlockTypeEmpty:
		return nil
	case wasm.BlockTypeI32:
		return []value.Type{value.I32}
	case wasm.BlockTypeI64:
		return []value.Type{value.I64}
	case wasm.BlockTypeF32:
		return []value.Type{value.F32}
	case wasm.BlockTypeF64:
		return []value.Type{value.F64}
	default:
		return vm.link.Modules[astModuleIndex].Types[int32(bt)].Results
	}
}

func (vm *VM) paramTypesOf(astModuleIndex uint32, bt wasm.BlockType) []value.Type {
	if bt.IsTypeIndex() {
		return vm.link.Modules[astModuleIndex].Types[int32(bt)].Params
	}
	return nil
}

// frameResultTypesOf returns the result arity/types that must be on
// top of the stack when cf is exited normally (by end, or by a branch
// that targets it as a Block/If/call frame).
func (vm *VM) frameResultTypesOf(cf ctrlFrame) []value.Type {
	if cf.kind == frameCall {
		return cf.funcResults
	}
	return vm.resultTypesOf(vm.status.ModuleIndex, cf.frameType)
}

// frameParamTypesOf returns the arity/types carried across a backward
// branch into cf (only meaningful for Loop frames).
func (vm *VM) frameParamTypesOf(cf ctrlFrame) []value.Type {
	if cf.kind == frameCall {
		return nil
	}
	return vm.paramTypesOf(vm.status.ModuleIndex, cf.frameType)
}
