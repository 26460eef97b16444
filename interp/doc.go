// Package interp executes a function's flat instruction stream against a
// linked module set, using a single flat operand stack (vmstack.Stack)
// shared by every active frame.
//
// Every frame — call or structured block — occupies a contiguous region
// of the stack: its arguments, then (call frames only) its declared
// locals, then its own operands. A call frame's base_pointer equals its
// local_pointer and frame_pointer at entry (the fp==lp identity; the
// dispatcher itself tells a function-result check from a block-result
// check apart by the explicit kind tag each control-stack record
// carries); a block/loop/if frame keeps the enclosing call's
// local_pointer (so local.get/local.set inside a nested block still
// address the right slots) and gets a frame_pointer offset by the info
// segment width so it can never collide with that inherited value.
//
// Call frames carry their restore record (caller status at entry) as a
// real info segment pushed onto the stack, so vmstack's operand-count
// arithmetic (stack_size - base_pointer - W) means what it says. Block
// frames don't push one: their own parameters must stay directly
// poppable as ordinary operands (the body's first instructions consume
// them exactly as if they'd been pushed moments before), so a physical
// info segment would have to sit on top of them and break that — their
// restore record instead lives in the interpreter's own control stack.
//
// Control dispatch (block/loop/if/else/end/br/br_if/br_table/return/
// call/call_indirect) ports the Sequence/Control split and the
// process_end algorithm (the stack_size-base_pointer-W operand count,
// peek-then-typecheck before popping; the fp==lp discriminator is
// replaced by the kind tag above) from
// original_source/crates/engine/src/{interpreter,ins_control}.rs.
// Program-end is detected by the control stack emptying rather than by
// comparing a restored frame_pointer against a sentinel: a flat combined
// stack means a legitimate frame can have frame_pointer 0 too (the
// outermost call, with no arguments, starts at stack position 0), so the
// sentinel comparison alone is ambiguous; control-stack depth is not.
package interp
