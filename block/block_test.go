package block

import (
	"testing"

	"github.com/anvm-go/linkvm/wasm"
)

func TestAnalyseSimpleBlock(t *testing.T) {
	// 0: block #0    (BlockTypeEmpty)
	// 1:   nop
	// 2: end          -> closes block #0
	// 3: end          -> function's own trailing end, not a block
	instructions := []wasm.Instruction{
		wasm.Block(wasm.OpBlock, wasm.BlockTypeEmpty, 0),
		wasm.Plain(wasm.OpNop),
		wasm.Plain(wasm.OpEnd),
		wasm.Plain(wasm.OpEnd),
	}
	items := Analyse(instructions)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	want := Item{Kind: KindBlock, Type: wasm.BlockTypeEmpty, Start: 0, End: 2}
	if items[0] != want {
		t.Errorf("items[0] = %+v, want %+v", items[0], want)
	}
}

func TestAnalyseIfElse(t *testing.T) {
	// 0: if #0
	// 1:   nop
	// 2: else
	// 3:   nop
	// 4: end   -> closes if #0
	// 5: end   -> function trailing end
	instructions := []wasm.Instruction{
		wasm.Block(wasm.OpIf, wasm.BlockTypeEmpty, 0),
		wasm.Plain(wasm.OpNop),
		wasm.Plain(wasm.OpElse),
		wasm.Plain(wasm.OpNop),
		wasm.Plain(wasm.OpEnd),
		wasm.Plain(wasm.OpEnd),
	}
	items := Analyse(instructions)
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	want := Item{Kind: KindIf, Type: wasm.BlockTypeEmpty, Start: 0, End: 4, ElseAddr: 2, HasElse: true}
	if items[0] != want {
		t.Errorf("items[0] = %+v, want %+v", items[0], want)
	}
}

func TestAnalyseIfNoElse(t *testing.T) {
	instructions := []wasm.Instruction{
		wasm.Block(wasm.OpIf, wasm.BlockTypeEmpty, 0),
		wasm.Plain(wasm.OpNop),
		wasm.Plain(wasm.OpEnd),
		wasm.Plain(wasm.OpEnd),
	}
	items := Analyse(instructions)
	if items[0].HasElse {
		t.Error("expected HasElse = false")
	}
}

func TestAnalyseNestedBlocks(t *testing.T) {
	// 0: block #0
	// 1:   loop #1
	// 2:     nop
	// 3:   end        -> closes loop #1
	// 4: end          -> closes block #0
	// 5: end          -> function trailing end
	instructions := []wasm.Instruction{
		wasm.Block(wasm.OpBlock, wasm.BlockTypeEmpty, 0),
		wasm.Block(wasm.OpLoop, wasm.BlockTypeEmpty, 1),
		wasm.Plain(wasm.OpNop),
		wasm.Plain(wasm.OpEnd),
		wasm.Plain(wasm.OpEnd),
		wasm.Plain(wasm.OpEnd),
	}
	items := Analyse(instructions)
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Kind != KindBlock || items[0].Start != 0 || items[0].End != 4 {
		t.Errorf("items[0] = %+v", items[0])
	}
	if items[1].Kind != KindLoop || items[1].Start != 1 || items[1].End != 3 {
		t.Errorf("items[1] = %+v", items[1])
	}
}
