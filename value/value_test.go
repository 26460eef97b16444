package value

import "testing"

func TestI32RoundTrip(t *testing.T) {
	v := I32Value(42)
	if v.GetType() != I32 {
		t.Fatalf("GetType() = %v, want I32", v.GetType())
	}
	if got := v.I32(); got != 42 {
		t.Errorf("I32() = %d, want 42", got)
	}
}

func TestI32Signed(t *testing.T) {
	v := I32ValueFromSigned(-1)
	if got := v.I32(); got != 0xffffffff {
		t.Errorf("I32() = %x, want 0xffffffff", got)
	}
	if got := v.I32Signed(); got != -1 {
		t.Errorf("I32Signed() = %d, want -1", got)
	}
}

func TestF64RoundTrip(t *testing.T) {
	v := F64ValueFromFloat(3.25)
	if v.GetType() != F64 {
		t.Fatalf("GetType() = %v, want F64", v.GetType())
	}
	if got := v.F64(); got != 3.25 {
		t.Errorf("F64() = %v, want 3.25", got)
	}
}

func TestFromBitsRoundTrip(t *testing.T) {
	orig := I64Value(0xdeadbeef)
	v := FromBits(orig.Bits(), orig.GetType())
	if v != orig {
		t.Errorf("FromBits round-trip mismatch: got %+v, want %+v", v, orig)
	}
}

func TestCheckTypes(t *testing.T) {
	tests := []struct {
		name  string
		vs    []Value
		types []Type
		want  int
	}{
		{"empty", nil, nil, -1},
		{"match", []Value{I32Value(1), F64Value(2)}, []Type{I32, F64}, -1},
		{"mismatch at 1", []Value{I32Value(1), I32Value(2)}, []Type{I32, F64}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CheckTypes(tc.vs, tc.types); got != tc.want {
				t.Errorf("CheckTypes() = %d, want %d", got, tc.want)
			}
		})
	}
}
