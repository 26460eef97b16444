package interp

import (
	"github.com/anvm-go/linkvm/errors"
	"github.com/anvm-go/linkvm/linker"
	"github.com/anvm-go/linkvm/vmstack"
	"github.com/anvm-go/linkvm/wasm"
)

// dispatchControl interprets one structured-control or branch/call
// opcode as a state transition over the operand stack and the control
// frame chain, porting ins_control.rs's process_end (the fp==lp
// discriminator is realized here as cf.kind == frameCall, set
// explicitly at push time rather than recomputed from the status
// tuple on every test) and exec_instruction's Sequence/Control split.
func (vm *VM) dispatchControl(fn *linker.NormalFunction, in wasm.Instruction) (bool, error) {
	switch in.Op {
	case wasm.OpUnreachable:
		return false, errors.Unreachable()

	case wasm.OpBlock:
		item := &fn.Blocks[in.BlockIndex]
		vm.pushBlockFrame(frameBlock, in.BlockType, item, item.Start+1)
		return false, nil

	case wasm.OpLoop:
		item := &fn.Blocks[in.BlockIndex]
		vm.pushBlockFrame(frameLoop, in.BlockType, item, item.Start+1)
		return false, nil

	case wasm.OpIf:
		item := &fn.Blocks[in.BlockIndex]
		cond := vm.stack.Pop().I32() != 0
		switch {
		case cond:
			vm.pushBlockFrame(frameIf, in.BlockType, item, item.Start+1)
		case item.HasElse:
			vm.pushBlockFrame(frameIf, in.BlockType, item, item.ElseAddr+1)
		default:
			// No frame is pushed: the If's own `end` is never dispatched,
			// so there is nothing to pop for this arm.
			vm.status.Address = item.End + 1
		}
		return false, nil

	case wasm.OpElse:
		// Only reached by falling through an If's true branch into its
		// else marker; semantics are identical to reaching this frame's
		// own `end`.
		return vm.doEnd()

	case wasm.OpEnd:
		return vm.doEnd()

	case wasm.OpBr:
		return vm.branch(in.LabelIndex)

	case wasm.OpBrIf:
		cond := vm.stack.Pop().I32() != 0
		if !cond {
			vm.status.Address++
			return false, nil
		}
		return vm.branch(in.LabelIndex)

	case wasm.OpBrTable:
		idx := vm.stack.Pop().I32()
		depth := in.Default
		if idx < uint32(len(in.Labels)) {
			depth = in.Labels[idx]
		}
		return vm.branch(depth)

	case wasm.OpReturn:
		return vm.doReturn()

	case wasm.OpCall:
		callee := vm.link.Functions[vm.status.ModuleIndex][in.FuncIndex]
		return vm.doCall(callee)

	case wasm.OpCallIndirect:
		return vm.doCallIndirect(in)

	default:
		return false, errors.UnsupportedOpcode(in.Op.Name())
	}
}

// doEnd implements the end/else-as-end path (spec.md §4.3): determine
// arity from the current frame's declared type, verify enough
// correctly-typed operands are present, then pop.
func (vm *VM) doEnd() (bool, error) {
	cf := vm.ctrl[len(vm.ctrl)-1]
	results := vm.frameResultTypesOf(cf)

	available := int(vm.stack.GetSize() - cf.operandFloor())
	if available < len(results) {
		if cf.kind == frameCall {
			return false, errors.NotEnoughOperandForFunctionResult(len(results), available)
		}
		return false, errors.NotEnoughOperandForBlockResult(len(results), available)
	}

	top := vm.stack.PeekValues(len(results))
	for i, t := range results {
		if top[i].GetType() != t {
			if cf.kind == frameCall {
				return false, errors.FunctionResultTypeMismatch(i, t.String(), top[i].GetType().String())
			}
			return false, errors.BlockResultTypeMismatch(i, t.String(), top[i].GetType().String())
		}
	}

	restored, programEnd := vm.popFrame(len(results))
	if programEnd {
		return true, nil
	}
	vm.status = restored
	return false, nil
}

// branch implements br/br_if/br_table's target resolution (spec.md
// §4.3 "Branching"): depth counts outward from the branch's own
// position, 0 being the innermost enclosing frame (which, for a
// depth-0 branch, is the frame the branch instruction itself lives
// in).
func (vm *VM) branch(depth uint32) (bool, error) {
	idx := len(vm.ctrl) - 1 - int(depth)
	target := vm.ctrl[idx]
	if target.kind == frameLoop {
		return vm.branchToLoop(idx)
	}
	return vm.branchExit(idx)
}

// branchExit carries the target's declared result arity across the
// exit of every frame from the current one down through and including
// target — a Block/If exit, or (when target is a call frame) a return.
func (vm *VM) branchExit(idx int) (bool, error) {
	target := vm.ctrl[idx]
	arity := len(vm.frameResultTypesOf(target))
	vm.ctrl = vm.ctrl[:idx]
	restored, programEnd := vm.restoreFrom(target, arity)
	if programEnd {
		return true, nil
	}
	vm.status = restored
	return false, nil
}

// branchToLoop re-enters a Loop frame at its start address, carrying
// its declared parameter arity and discarding any nested frames opened
// since it was entered — but keeping the loop frame itself live.
func (vm *VM) branchToLoop(idx int) (bool, error) {
	target := vm.ctrl[idx]
	arity := len(vm.frameParamTypesOf(target))
	vm.ctrl = vm.ctrl[:idx+1]

	carried := vm.stack.PopValues(arity)
	vm.stack.Truncate(target.basePointer)
	for _, v := range carried {
		vm.stack.Push(v)
	}

	vm.status = Status{
		ModuleIndex:  target.returnModuleIndex,
		FuncIndex:    target.returnFuncIndex,
		FrameType:    target.frameType,
		Address:      target.item.Start + 1,
		FramePointer: target.basePointer + vmstack.InfoSegmentItemCount,
		LocalPointer: target.prevLocalPointer,
		BasePointer:  target.basePointer,
	}
	return false, nil
}

// doReturn exits every open block/loop/if frame plus the enclosing
// call frame in one motion (spec.md §4.3: "return ≡ branching all the
// way to the enclosing call frame").
func (vm *VM) doReturn() (bool, error) {
	idx := len(vm.ctrl) - 1
	for vm.ctrl[idx].kind != frameCall {
		idx--
	}
	return vm.branchExit(idx)
}

// doCall enters callee as a new frame (Normal) or invokes it
// synchronously (Native), per spec.md §4.3 "Calls".
func (vm *VM) doCall(callee linker.FunctionItem) (bool, error) {
	switch f := callee.(type) {
	case *linker.NativeFunction:
		args := vm.stack.PopValues(len(f.Type.Params))
		results, err := f.Fn(args)
		if err != nil {
			return false, errors.NativeError(f.Module, f.Name, err)
		}
		if len(results) != len(f.Type.Results) {
			return false, errors.NativeError(f.Module, f.Name,
				errors.New(errors.PhaseHost, errors.KindNativeError).
					Detail("host function returned %d value(s), expected %d", len(results), len(f.Type.Results)).Build())
		}
		for i, r := range results {
			if r.GetType() != f.Type.Results[i] {
				return false, errors.FunctionResultTypeMismatch(i, f.Type.Results[i].String(), r.GetType().String())
			}
		}
		for _, r := range results {
			vm.stack.Push(r)
		}
		vm.status.Address++
		return false, nil

	case *linker.NormalFunction:
		vm.enterFunction(f)
		return false, nil

	default:
		panic("interp: unknown FunctionItem")
	}
}

// doCallIndirect resolves a table-indexed call (spec.md §4.3
// "Calls"): fetch the funcref, trap on an out-of-bounds index or a
// null entry, verify the call-site type index matches the element's
// actual type, then proceed exactly as a direct call.
func (vm *VM) doCallIndirect(in wasm.Instruction) (bool, error) {
	idx := vm.stack.Pop().I32()

	tbl := vm.link.Tables[vm.status.ModuleIndex]
	if tbl == nil {
		return false, errors.OutOfBoundsTable(idx)
	}
	ref, err := tbl.Get(idx)
	if err != nil {
		return false, err
	}
	if !ref.Valid {
		return false, errors.IndirectCallNullElement(idx)
	}

	callee := vm.link.Functions[ref.ModuleIndex][ref.FuncIndex]
	want := vm.link.Modules[vm.status.ModuleIndex].Types[in.TypeIndex]
	if !linker.TypeOf(callee).Equal(want) {
		return false, errors.IndirectCallTypeMismatch()
	}
	return vm.doCall(callee)
}
