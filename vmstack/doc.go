// Package vmstack implements the interpreter's single flat operand
// stack: a sequence of value cells partitioned into call and block
// frames. A call frame carries a fixed-width info segment that records
// how to restore the caller's status on exit:
//
//	[ arguments | locals | info segment (InfoSegmentItemCount cells) | operands... ]
//
// Block frames push no info segment; package interp keeps their
// restore record on its own control stack. The info segment is pushed
// as ordinary cells so that the stack's size (GetSize) accounts for it
// without a parallel bookkeeping structure. This package does not
// record whether a frame is a call frame or a block frame; package
// interp tags each frame with its kind on its control stack.
package vmstack
