package instance

import (
	"testing"

	"github.com/anvm-go/linkvm/value"
	"github.com/anvm-go/linkvm/wasm"
)

func TestGlobalGetSet(t *testing.T) {
	g := NewGlobal(wasm.GlobalType{Type: value.I32, Mutable: true}, value.I32Value(1))
	if got := g.Get().I32(); got != 1 {
		t.Fatalf("Get() = %d, want 1", got)
	}
	g.Set(value.I32Value(2))
	if got := g.Get().I32(); got != 2 {
		t.Errorf("Get() after Set = %d, want 2", got)
	}
	if !g.Mutable {
		t.Error("expected Mutable = true")
	}
}
