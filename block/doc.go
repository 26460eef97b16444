// Package block computes the block-layout table for a function body:
// for every block/loop/if instruction, the start, end, and (for if)
// else address within the function's flat instruction stream.
//
// The analysis is a single linear pass using a stack of open block
// records, patched on else/end and finally sorted by block index —
// the index a depth-first pre-order decode would have assigned to
// each block/loop/if as it was produced.
package block
