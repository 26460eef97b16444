package wasm

import "testing"

func TestInstructionString(t *testing.T) {
	tests := []struct {
		name string
		in   Instruction
		want string
	}{
		{"block", Block(OpBlock, BlockTypeEmpty, 2), "block #2"},
		{"br", Br(OpBr, 1), "br 1"},
		{"br_table", BrTable([]uint32{0, 1}, 2), "br_table [0 1] default=2"},
		{"call", Call(5), "call 5"},
		{"call_indirect", CallIndirect(1, 0), "call_indirect type=1 table=0"},
		{"local.get", Var(OpLocalGet, 0), "local.get 0"},
		{"i32.const", ConstI32(42), "i32.const 42"},
		{"i32.load", Mem(OpI32Load, 2, 4), "i32.load align=2 offset=4"},
		{"plain add", Plain(OpI32Add), "i32.add"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.String(); got != tc.want {
				t.Errorf("String() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOpcodeIsControl(t *testing.T) {
	for _, op := range []Opcode{OpBlock, OpLoop, OpIf, OpElse, OpEnd} {
		if !op.IsControl() {
			t.Errorf("%v.IsControl() = false, want true", op)
		}
	}
	if OpI32Add.IsControl() {
		t.Error("OpI32Add.IsControl() = true, want false")
	}
}

func TestOpcodeNameFallback(t *testing.T) {
	var unknown Opcode = 0xEE
	if got := unknown.Name(); got != "op(0xee)" {
		t.Errorf("Name() = %q, want op(0xee)", got)
	}
}
