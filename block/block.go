package block

import "github.com/anvm-go/linkvm/wasm"

// Kind distinguishes the three structured-block opcodes.
type Kind byte

const (
	KindBlock Kind = iota
	KindLoop
	KindIf
)

// Item describes one structured block's extent within a function's
// flat instruction stream. Start and End are addresses (instruction
// indices) of the block/loop/if instruction itself and its matching
// end; ElseAddr is only meaningful when HasElse is true.
type Item struct {
	Kind     Kind
	Type     wasm.BlockType
	Start    uint32
	End      uint32
	ElseAddr uint32
	HasElse  bool
}

type openRecord struct {
	index uint32
	item  Item
}

// Analyse computes the block-layout table for a function body. Each
// block/loop/if instruction already carries the depth-first pre-order
// index a decoder assigned it (Instruction.BlockIndex); Analyse uses
// that index directly as the output slot rather than re-deriving
// ordering, so the result is implicitly "sorted by block index".
func Analyse(instructions []wasm.Instruction) []Item {
	var stack []openRecord
	var maxIndex int = -1
	slots := map[uint32]Item{}

	for addr, ins := range instructions {
		switch ins.Op {
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
			kind := KindBlock
			if ins.Op == wasm.OpLoop {
				kind = KindLoop
			} else if ins.Op == wasm.OpIf {
				kind = KindIf
			}
			stack = append(stack, openRecord{
				index: ins.BlockIndex,
				item:  Item{Kind: kind, Type: ins.BlockType, Start: uint32(addr)},
			})
			if int(ins.BlockIndex) > maxIndex {
				maxIndex = int(ins.BlockIndex)
			}
		case wasm.OpElse:
			top := &stack[len(stack)-1]
			top.item.ElseAddr = uint32(addr)
			top.item.HasElse = true
		case wasm.OpEnd:
			if len(stack) == 0 {
				// The function body's own trailing end; not a block.
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			top.item.End = uint32(addr)
			slots[top.index] = top.item
		}
	}

	items := make([]Item, maxIndex+1)
	for idx, item := range slots {
		items[idx] = item
	}
	return items
}
